package catras

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// Header field offsets. Widths are implied by the next offset or noted.
const (
	offName         = 0  // 32 bytes
	offCode         = 32 // 8 bytes
	offExtension    = 40 // 4 bytes
	offLength       = 44
	offSapwood      = 46
	offFirstValid   = 48
	offLastValid    = 50
	offScope        = 52
	offLastRing     = 53
	offStartYear    = 54
	offTitleChars   = 56
	offQuality      = 57
	offSpecies      = 58
	offCreated      = 60 // day, month, year-1900
	offUpdated      = 63 // day, month, year-1900
	offNumberFormat = 66
	offVariable     = 67
	offSource       = 81
	offProtection   = 82
	offFileType     = 83
	offUserID       = 84 // 4 bytes
	offStats        = 88 // 4 x float32

	nameWidth      = 32
	codeWidth      = 8
	extensionWidth = 4
	userIDWidth    = 4

	dateYearBase = 1900
)

// validate applies the structural checks that must pass before any field
// is read.
func validate(buf []byte) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrTooShort, len(buf))
	}
	if len(buf)%BlockSize != 0 {
		return fmt.Errorf("%w: %d bytes", ErrInvalidFileSize, len(buf))
	}
	if buf[offNumberFormat] != IEEENumberFormat {
		return fmt.Errorf("%w: code %d", ErrInvalidNumberFormat, buf[offNumberFormat])
	}
	return nil
}

// DecodeHeader decodes the 128-byte header after validating buf.
func (c *Codec) DecodeHeader(buf []byte) (Header, []Warning, error) {
	if err := validate(buf); err != nil {
		return Header{}, nil, err
	}
	hd := headerDecoder{buf: buf, opts: c.opts}
	h := hd.decode()
	if hd.err != nil {
		return Header{}, nil, structural(hd.err)
	}
	return h, hd.warnings, nil
}

// headerDecoder keeps the first range error so field reads stay linear.
type headerDecoder struct {
	buf      []byte
	opts     Options
	warnings warnings
	err      error
}

func (d *headerDecoder) decode() Header {
	h := Header{
		SeriesName:     trimField(d.text(offName, nameWidth)),
		SeriesCode:     trimField(d.text(offCode, codeWidth)),
		FileExtension:  d.text(offExtension, extensionWidth),
		SeriesLength:   d.pair(offLength),
		SapwoodLength:  d.pair(offSapwood),
		FirstValidYear: d.pair(offFirstValid),
		LastValidYear:  d.pair(offLastValid),
		StartYear:      Year(d.pair(offStartYear)),
		TitleCharCount: d.u8(offTitleChars),
		QualityCode:    d.u8(offQuality),
		SpeciesCode:    d.pair(offSpecies),
		CreationDate:   d.date(offCreated, "creation_date"),
		UpdatedDate:    d.date(offUpdated, "updated_date"),
		NumberFormat:   d.u8(offNumberFormat),
		UserID:         trimField(d.text(offUserID, userIDWidth)),
		Stats:          d.stats(offStats),
	}
	if h.SeriesLength < 0 {
		d.warnings.add(WarnNegativeLength, "series_length", "declared length %d treated as 0", h.SeriesLength)
		h.SeriesLength = 0
	}

	h.Scope = lookupCode(d, scopeCodes, d.u8(offScope), offScope, "scope")
	h.LastRing = lookupCode(d, lastRingCodes, d.u8(offLastRing), offLastRing, "last_ring")
	h.VariableType = lookupCode(d, variableCodes, d.u8(offVariable), offVariable, "variable_type")
	h.Protection = lookupCode(d, protectionCodes, d.u8(offProtection), offProtection, "protection")
	h.FileType = lookupCode(d, fileTypeCodes, d.u8(offFileType), offFileType, "file_type")

	// Source is a letter; an empty byte is simply unset.
	if b := d.u8(offSource); b != 0 {
		if b >= 'a' && b <= 'z' {
			b -= 'a' - 'A'
		}
		h.Source = lookupCode(d, sourceCodes, b, offSource, "source")
	}
	return h
}

// lookupCode maps code through table, warning when it is not listed.
func lookupCode[T ~uint8](d *headerDecoder, table codeTable[T], code uint8, off int, field string) T {
	if d.err != nil {
		return 0
	}
	v, ok := table.lookup(code)
	if !ok {
		d.warnings.add(WarnUnknownCode, field, "unknown code %d at byte %d", code, off)
	}
	return v
}

func (d *headerDecoder) u8(off int) uint8 {
	if d.err != nil {
		return 0
	}
	v, err := ReadU8(d.buf, off)
	d.err = err
	return v
}

func (d *headerDecoder) pair(off int) int {
	if d.err != nil {
		return 0
	}
	v, err := ReadBytePair(d.buf, off)
	d.err = err
	return v
}

func (d *headerDecoder) window(off, width int) []byte {
	if d.err != nil {
		return nil
	}
	b, err := Slice(d.buf, off, off+width-1)
	d.err = err
	return b
}

func (d *headerDecoder) text(off, width int) string {
	b := d.window(off, width)
	if b == nil {
		return ""
	}
	return d.opts.decodeText(b)
}

// date reads a day, month, year-1900 triple. A zero year byte means the
// date was never set.
func (d *headerDecoder) date(off int, field string) *time.Time {
	b := d.window(off, 3)
	if b == nil {
		return nil
	}
	day, month, year := int(b[0]), int(b[1]), int(b[2])+dateYearBase
	if year <= dateYearBase {
		return nil
	}
	if month < 1 || month > 12 || day < 1 || day > daysIn(time.Month(month), year) {
		d.warnings.add(WarnInvalidDate, field, "invalid date %02d.%02d.%d", day, month, year)
		return nil
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &t
}

func (d *headerDecoder) stats(off int) Statistics {
	b := d.window(off, 16)
	if b == nil {
		return Statistics{}
	}
	f := func(i int) float32 {
		return math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return Statistics{
		AverageWidth:    f(0),
		StdDev:          f(1),
		Autocorrelation: f(2),
		Sensitivity:     f(3),
	}
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// EncodeHeader packs h into a header block. Unset fields are written as
// zero bytes; a zero NumberFormat is written as IEEE.
func (c *Codec) EncodeHeader(h Header) ([HeaderSize]byte, error) {
	var buf [HeaderSize]byte
	e := headerEncoder{buf: buf[:], opts: c.opts}

	e.text(offName, "series_name", h.SeriesName, nameWidth)
	e.text(offCode, "series_code", h.SeriesCode, codeWidth)
	e.text(offExtension, "file_extension", h.FileExtension, extensionWidth)
	e.pair(offLength, "series_length", h.SeriesLength)
	e.pair(offSapwood, "sapwood_length", h.SapwoodLength)
	e.pair(offFirstValid, "first_valid_year", h.FirstValidYear)
	e.pair(offLastValid, "last_valid_year", h.LastValidYear)
	encodeCode(&e, offScope, "scope", scopeCodes, h.Scope)
	encodeCode(&e, offLastRing, "last_ring", lastRingCodes, h.LastRing)
	e.pair(offStartYear, "start_year", int(h.StartYear))
	buf[offTitleChars] = h.TitleCharCount
	buf[offQuality] = h.QualityCode
	e.pair(offSpecies, "species_code", h.SpeciesCode)
	e.date(offCreated, "creation_date", h.CreationDate)
	e.date(offUpdated, "updated_date", h.UpdatedDate)

	switch h.NumberFormat {
	case 0, IEEENumberFormat:
		buf[offNumberFormat] = IEEENumberFormat
	default:
		e.fail(encodingError("number_format", "only IEEE (%d) is supported, got %d", IEEENumberFormat, h.NumberFormat))
	}

	encodeCode(&e, offVariable, "variable_type", variableCodes, h.VariableType)
	encodeCode(&e, offSource, "source", sourceCodes, h.Source)
	encodeCode(&e, offProtection, "protection", protectionCodes, h.Protection)
	encodeCode(&e, offFileType, "file_type", fileTypeCodes, h.FileType)
	e.text(offUserID, "user_id", h.UserID, userIDWidth)

	for i, f := range []float32{h.Stats.AverageWidth, h.Stats.StdDev, h.Stats.Autocorrelation, h.Stats.Sensitivity} {
		binary.LittleEndian.PutUint32(buf[offStats+i*4:], math.Float32bits(f))
	}

	if e.err != nil {
		return [HeaderSize]byte{}, e.err
	}
	return buf, nil
}

type headerEncoder struct {
	buf  []byte
	opts Options
	err  error
}

func (e *headerEncoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *headerEncoder) text(off int, field, s string, width int) {
	b, err := e.opts.encodeText(field, s, width)
	if err != nil {
		e.fail(err)
		return
	}
	copy(e.buf[off:], b)
}

func (e *headerEncoder) pair(off int, field string, v int) {
	p, err := PutBytePair(v)
	if err != nil {
		e.fail(encodingError(field, "value %d outside byte-pair range [%d, %d]", v, MinBytePair, MaxBytePair))
		return
	}
	e.buf[off], e.buf[off+1] = p[0], p[1]
}

func encodeCode[T ~uint8](e *headerEncoder, off int, field string, table codeTable[T], v T) {
	b, err := table.wire(v)
	if err != nil {
		e.fail(encodingError(field, "%v", err))
		return
	}
	e.buf[off] = b
}

func (e *headerEncoder) date(off int, field string, t *time.Time) {
	if t == nil {
		return
	}
	year := t.Year() - dateYearBase
	if year < 1 || year > 255 {
		e.fail(encodingError(field, "year %d outside %d-%d", t.Year(), dateYearBase+1, dateYearBase+255))
		return
	}
	e.buf[off] = byte(t.Day())
	e.buf[off+1] = byte(t.Month())
	e.buf[off+2] = byte(year)
}
