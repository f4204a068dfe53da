package catras

import "testing"

// fixture builds raw CATRAS buffers byte by byte so tests do not depend on
// the encoder.
type fixture struct {
	t   *testing.T
	buf []byte
}

func newFixture(t *testing.T, size int) *fixture {
	t.Helper()
	buf := make([]byte, size)
	if size > offNumberFormat {
		buf[offNumberFormat] = IEEENumberFormat
	}
	return &fixture{t: t, buf: buf}
}

func (f *fixture) text(off int, s string, width int) *fixture {
	f.t.Helper()
	if len(s) > width {
		f.t.Fatalf("fixture text %q wider than %d", s, width)
	}
	for i := 0; i < width; i++ {
		f.buf[off+i] = ' '
	}
	copy(f.buf[off:], s)
	return f
}

func (f *fixture) pair(off, v int) *fixture {
	f.t.Helper()
	p, err := PutBytePair(v)
	if err != nil {
		f.t.Fatalf("fixture pair: %v", err)
	}
	f.buf[off], f.buf[off+1] = p[0], p[1]
	return f
}

func (f *fixture) u8(off int, v byte) *fixture {
	f.buf[off] = v
	return f
}

func (f *fixture) length(n int) *fixture { return f.pair(offLength, n) }

func (f *fixture) fileType(code byte) *fixture { return f.u8(offFileType, code) }

// values writes ring pairs starting at off.
func (f *fixture) values(off int, vs ...int) *fixture {
	f.t.Helper()
	for i, v := range vs {
		f.pair(off+2*i, v)
	}
	return f
}

func (f *fixture) bytes() []byte { return f.buf }
