package catras

import (
	"fmt"
	"time"
)

// Layout constants.
const (
	// BlockSize is the CATRAS allocation unit; every file is a whole number of blocks.
	BlockSize = 128
	// HeaderSize is the size of the fixed header.
	HeaderSize = 128
	// DataOffset is where the first ring-width pair is stored.
	DataOffset = 128
	// IEEENumberFormat is the only supported value of the number-format byte.
	IEEENumberFormat = 1
)

// Year is an astronomical year: 0 is 1 BC, -1 is 2 BC. CATRAS stores 0 for
// undated (relative) series.
type Year int

// Dated reports whether the year carries an absolute date.
func (y Year) Dated() bool { return y != 0 }

// Add returns the year n years later.
func (y Year) Add(n int) Year { return y + Year(n) }

// Historical converts to the BC/AD convention with no year zero, where
// negative values are BC.
func (y Year) Historical() int {
	if y <= 0 {
		return int(y) - 1
	}
	return int(y)
}

func (y Year) String() string {
	if !y.Dated() {
		return "undated"
	}
	h := y.Historical()
	if h < 0 {
		return fmt.Sprintf("%d BC", -h)
	}
	return fmt.Sprintf("%d AD", h)
}

// Statistics holds the summary values CATRAS caches in the header.
type Statistics struct {
	AverageWidth    float32 `json:"average_width"`
	StdDev          float32 `json:"std_dev"`
	Autocorrelation float32 `json:"autocorrelation"`
	Sensitivity     float32 `json:"sensitivity"`
}

// Header is the decoded 128-byte CATRAS header.
type Header struct {
	SeriesName     string       `json:"series_name"`
	SeriesCode     string       `json:"series_code"`
	FileExtension  string       `json:"file_extension"`
	SeriesLength   int          `json:"series_length"`
	SapwoodLength  int          `json:"sapwood_length"`
	FirstValidYear int          `json:"first_valid_year"`
	LastValidYear  int          `json:"last_valid_year"`
	Scope          Scope        `json:"scope"`
	LastRing       LastRing     `json:"last_ring"`
	StartYear      Year         `json:"start_year"`
	TitleCharCount uint8        `json:"title_char_count"`
	QualityCode    uint8        `json:"quality_code"`
	SpeciesCode    int          `json:"species_code"`
	CreationDate   *time.Time   `json:"creation_date,omitempty"`
	UpdatedDate    *time.Time   `json:"updated_date,omitempty"`
	NumberFormat   uint8        `json:"number_format"`
	VariableType   VariableType `json:"variable_type"`
	Source         Source       `json:"source"`
	Protection     Protection   `json:"protection"`
	FileType       FileType     `json:"file_type"`
	UserID         string       `json:"user_id"`
	Stats          Statistics   `json:"stats"`
}

// EndYear returns the year of the last declared ring. It is undated when
// the start year is.
func (h Header) EndYear() Year {
	if !h.StartYear.Dated() || h.SeriesLength <= 0 {
		return 0
	}
	return h.StartYear.Add(h.SeriesLength - 1)
}

// Series holds the ring values in chronological order. SampleDepths is
// nil unless the file is a chronology or tree curve with usable counts.
type Series struct {
	Values       []int `json:"values"`
	SampleDepths []int `json:"sample_depths,omitempty"`
}

// Record is one decoded CATRAS file.
type Record struct {
	Header Header `json:"header"`
	Series Series `json:"series"`
}

// WarningKind classifies non-fatal decode findings.
type WarningKind string

const (
	WarnInvalidDate           WarningKind = "invalid-date"
	WarnUnknownCode           WarningKind = "unknown-code"
	WarnCountMismatch         WarningKind = "count-mismatch"
	WarnSampleDepthMismatch   WarningKind = "sample-depth-mismatch"
	WarnSampleDepthUnreadable WarningKind = "sample-depth-unreadable"
	WarnNegativeLength        WarningKind = "negative-length"
)

// Warning is a data-quality finding that did not stop decoding.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Field   string      `json:"field"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s: %s", w.Kind, w.Field, w.Message)
}

type warnings []Warning

func (ws *warnings) add(kind WarningKind, field, format string, args ...any) {
	*ws = append(*ws, Warning{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)})
}
