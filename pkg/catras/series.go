package catras

import "fmt"

// Ring-value sentinels.
const (
	// PaddingValue marks an unused slot; it is dropped on decode.
	PaddingValue = -1
	// MissingValue is what any value below PaddingValue decodes to.
	MissingValue = 0
)

// sampleDepthOffset is where the sample-depth block starts for a series
// of n declared rings.
func sampleDepthOffset(n int) int {
	return DataOffset + roundUp128(2*n)
}

// DecodeSeries decodes the ring-width block, and for chronology and tree
// curve files the sample-depth block, described by h. Leading rings stored
// as zero are removed and h is adjusted to match: SeriesLength shrinks by
// the number removed and a dated StartYear advances by the same amount.
func (c *Codec) DecodeSeries(buf []byte, h *Header) (Series, []Warning, error) {
	if len(buf) < DataOffset {
		return Series{}, nil, fmt.Errorf("%w: %d bytes", ErrTooShort, len(buf))
	}
	var ws warnings
	n := h.SeriesLength

	values, lead := readPairs(buf, DataOffset, n)

	var depths []int
	fromFile, synthesize := false, false
	if h.FileType.HasSampleDepth() && n > 0 {
		switch off := sampleDepthOffset(n); {
		case len(buf) == off:
			// No trailing block: a single-tree chronology.
			synthesize = true
		case off+2*n > len(buf):
			ws.add(WarnSampleDepthUnreadable, "sample_depths",
				"block at byte %d needs %d bytes, file has %d", off, 2*n, max(0, len(buf)-off))
		default:
			depths, _ = readPairs(buf, off, n)
			fromFile = true
		}
	}

	if lead > 0 {
		if fromFile && len(depths) == len(values) {
			depths = depths[lead:]
		}
		values = values[lead:]
		n -= lead
		h.SeriesLength = n
		if h.StartYear.Dated() {
			h.StartYear = h.StartYear.Add(lead)
		}
	}

	if len(values) < n {
		ws.add(WarnCountMismatch, "values", "header declares %d rings, file holds %d", n, len(values))
	}

	if synthesize && len(values) > 0 {
		depths = make([]int, len(values))
		for i := range depths {
			depths[i] = 1
		}
	}

	if depths != nil && len(depths) != len(values) {
		ws.add(WarnSampleDepthMismatch, "sample_depths",
			"%d sample depths for %d values, sample depths dropped", len(depths), len(values))
		depths = nil
	}

	return Series{Values: values, SampleDepths: depths}, ws, nil
}

// readPairs reads up to n byte pairs starting at off, stopping at the end
// of buf. Padding pairs are dropped and values below the padding sentinel
// become MissingValue. lead counts the values at the start
// that were stored as a literal zero, which CATRAS writes ahead of the
// first measured ring.
func readPairs(buf []byte, off, n int) (out []int, lead int) {
	out = make([]int, 0, n)
	leading := true
	for i := 0; i < n; i++ {
		v, err := ReadBytePair(buf, off+2*i)
		if err != nil {
			break
		}
		if v == PaddingValue {
			continue
		}
		if leading {
			if v == 0 {
				lead++
			} else {
				leading = false
			}
		}
		if v < PaddingValue {
			v = MissingValue
		}
		out = append(out, v)
	}
	return out, lead
}

// EncodeSeries returns the bytes that follow the header for s. The layout
// is driven by h.SeriesLength; declared slots beyond len(s.Values) are
// written as padding.
func (c *Codec) EncodeSeries(s Series, h Header) ([]byte, error) {
	n := h.SeriesLength
	if n < len(s.Values) {
		return nil, encodingError("series_length", "%d declared rings cannot hold %d values", n, len(s.Values))
	}
	if s.SampleDepths != nil {
		if !h.FileType.HasSampleDepth() {
			return nil, encodingError("sample_depths", "file type %q has no sample-depth block", h.FileType)
		}
		if len(s.SampleDepths) != len(s.Values) {
			return nil, encodingError("sample_depths", "%d sample depths for %d values", len(s.SampleDepths), len(s.Values))
		}
	}

	block := roundUp128(2 * n)
	dataSize := max(BlockSize, block)
	size := dataSize
	if s.SampleDepths != nil {
		size += block
	}
	out := make([]byte, size)

	if err := writePairs(out[:block], n, "values", s.Values); err != nil {
		return nil, err
	}
	if s.SampleDepths != nil {
		if err := writePairs(out[dataSize:], n, "sample_depths", s.SampleDepths); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// writePairs fills n pair slots of dst with values followed by padding.
// Negative values are rejected: decoding maps them to padding or missing.
func writePairs(dst []byte, n int, field string, values []int) error {
	for i := 0; i < n; i++ {
		v := PaddingValue
		if i < len(values) {
			v = values[i]
			if v < 0 || v > MaxBytePair {
				return encodingError(field, "ring %d: value %d outside [0, %d]", i, v, MaxBytePair)
			}
		}
		p, err := PutBytePair(v)
		if err != nil {
			return err
		}
		dst[2*i], dst[2*i+1] = p[0], p[1]
	}
	return nil
}
