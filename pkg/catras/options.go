package catras

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Options configures a Codec. It is copied into the Codec and never
// modified afterwards.
type Options struct {
	// Charset converts header text between the DOS code page CATRAS
	// writes and UTF-8. Nil passes bytes through unchanged.
	Charset *charmap.Charmap
}

// DefaultOptions returns the options used by the package-level functions.
func DefaultOptions() Options {
	return Options{Charset: charmap.CodePage437}
}

func (o Options) decodeText(b []byte) string {
	if o.Charset == nil {
		return string(b)
	}
	s, err := o.Charset.NewDecoder().Bytes(b)
	if err != nil {
		// Single-byte code pages map every byte.
		return string(b)
	}
	return string(s)
}

// encodeText converts s to wire bytes, space-padded to width.
func (o Options) encodeText(field, s string, width int) ([]byte, error) {
	raw := []byte(s)
	if o.Charset != nil {
		enc, err := o.Charset.NewEncoder().String(s)
		if err != nil {
			return nil, encodingError(field, "%q is not representable in %s", s, o.Charset)
		}
		raw = []byte(enc)
	}
	if len(raw) > width {
		return nil, encodingError(field, "%d bytes exceeds field width %d", len(raw), width)
	}
	out := make([]byte, width)
	copy(out, raw)
	for i := len(raw); i < width; i++ {
		out[i] = ' '
	}
	return out, nil
}

func trimField(s string) string {
	return strings.TrimRight(s, " \x00")
}
