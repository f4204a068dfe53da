package catras

// Codec converts between CATRAS files and Records.
//
// Thread Safety: a Codec holds only its Options and is safe for concurrent
// use from multiple goroutines. It never retains the buffers passed to it.
type Codec struct {
	opts Options
}

// NewCodec creates a codec with the given options.
func NewCodec(opts Options) *Codec {
	return &Codec{opts: opts}
}

var defaultCodec = NewCodec(DefaultOptions())

// Decode decodes buf with the default options.
func Decode(buf []byte) (*Record, []Warning, error) {
	return defaultCodec.Decode(buf)
}

// Encode encodes r with the default options.
func Encode(r *Record) ([]byte, error) {
	return defaultCodec.Encode(r)
}

// Decode validates buf and decodes it into a Record. Structural problems
// (see ErrInvalidFormat) abort decoding and no record is returned;
// data-quality problems are returned as warnings alongside the record.
func (c *Codec) Decode(buf []byte) (*Record, []Warning, error) {
	h, ws, err := c.DecodeHeader(buf)
	if err != nil {
		return nil, nil, err
	}
	s, sws, err := c.DecodeSeries(buf, &h)
	if err != nil {
		return nil, nil, structural(err)
	}
	return &Record{Header: h, Series: s}, append(ws, sws...), nil
}

// Encode packs r into a complete CATRAS file. A zero SeriesLength is taken
// from the number of values. The result is at least two blocks long.
//
// Unset code fields are written as code 0, which decodes to the value that
// code names (ScopeUnspecified, LastRingComplete, FileTypeRaw and so on),
// so a zero Header does not decode back to itself.
func (c *Codec) Encode(r *Record) ([]byte, error) {
	h := r.Header
	if h.SeriesLength == 0 {
		h.SeriesLength = len(r.Series.Values)
	}
	if h.SeriesLength < 0 || h.SeriesLength > MaxBytePair {
		return nil, encodingError("series_length", "%d outside [0, %d]", h.SeriesLength, MaxBytePair)
	}

	hdr, err := c.EncodeHeader(h)
	if err != nil {
		return nil, err
	}
	body, err := c.EncodeSeries(r.Series, h)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, HeaderSize+len(body))
	out = append(out, hdr[:]...)
	return append(out, body...), nil
}
