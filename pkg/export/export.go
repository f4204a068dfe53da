// Package export writes decoded CATRAS records as JSON Lines or as a flat
// Parquet table with one row per ring.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/eunmann/catras/pkg/catras"
)

// Format names an output format.
type Format string

const (
	FormatJSON    Format = "json"
	FormatParquet Format = "parquet"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatParquet:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (supported: json, parquet)", s)
	}
}

// Writer receives decoded records in batch order.
type Writer interface {
	Write(input string, rec *catras.Record, warnings []catras.Warning) error
	Close() error
}

// NewWriter returns the writer for f over w. Closing the Writer does not
// close w.
func NewWriter(f Format, w io.Writer) (Writer, error) {
	switch f {
	case FormatJSON:
		return NewJSONWriter(w), nil
	case FormatParquet:
		return NewParquetWriter(w), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", f)
	}
}

// Document is the JSON form of one input.
type Document struct {
	Input    string           `json:"input"`
	Record   *catras.Record   `json:"record"`
	Warnings []catras.Warning `json:"warnings,omitempty"`
}

// JSONWriter writes one Document per line.
type JSONWriter struct {
	enc *json.Encoder
}

// NewJSONWriter creates a JSON Lines writer.
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{enc: json.NewEncoder(w)}
}

// Write emits the document for one record.
func (j *JSONWriter) Write(input string, rec *catras.Record, warnings []catras.Warning) error {
	if err := j.enc.Encode(Document{Input: input, Record: rec, Warnings: warnings}); err != nil {
		return fmt.Errorf("encode %s: %w", input, err)
	}
	return nil
}

// Close is a no-op; every line is written by Write.
func (j *JSONWriter) Close() error { return nil }

// RingRow is one ring of one series. Year is null for undated series and
// SampleDepth is null where the file carries no counts.
type RingRow struct {
	File        string `parquet:"file,dict"`
	SeriesCode  string `parquet:"series_code,dict"`
	SeriesName  string `parquet:"series_name,dict"`
	FileType    string `parquet:"file_type,dict"`
	Index       int32  `parquet:"index"`
	Year        *int32 `parquet:"year,optional"`
	Value       int32  `parquet:"value"`
	SampleDepth *int32 `parquet:"sample_depth,optional"`
}

// Rows flattens rec into ring rows. Year is StartYear plus the ring index
// for dated series.
func Rows(input string, rec *catras.Record) []RingRow {
	h, s := rec.Header, rec.Series
	rows := make([]RingRow, len(s.Values))
	for i, v := range s.Values {
		row := RingRow{
			File:       input,
			SeriesCode: h.SeriesCode,
			SeriesName: h.SeriesName,
			FileType:   h.FileType.String(),
			Index:      int32(i),
			Value:      int32(v),
		}
		if h.StartYear.Dated() {
			y := int32(h.StartYear.Add(i))
			row.Year = &y
		}
		if i < len(s.SampleDepths) {
			d := int32(s.SampleDepths[i])
			row.SampleDepth = &d
		}
		rows[i] = row
	}
	return rows
}

// ParquetWriter writes RingRows with zstd page compression.
type ParquetWriter struct {
	w    *parquet.GenericWriter[RingRow]
	rows int64
}

// NewParquetWriter creates a Parquet writer. The file footer is written
// on Close.
func NewParquetWriter(w io.Writer) *ParquetWriter {
	return &ParquetWriter{
		w: parquet.NewGenericWriter[RingRow](w,
			parquet.Compression(&parquet.Zstd),
			parquet.CreatedBy("catras", "1", ""),
		),
	}
}

// Write appends the rows of one record.
func (p *ParquetWriter) Write(input string, rec *catras.Record, _ []catras.Warning) error {
	rows := Rows(input, rec)
	n, err := p.w.Write(rows)
	p.rows += int64(n)
	if err != nil {
		return fmt.Errorf("write rows for %s: %w", input, err)
	}
	return nil
}

// Rows returns the number of rows written so far.
func (p *ParquetWriter) Rows() int64 { return p.rows }

// Close flushes buffered rows and writes the footer.
func (p *ParquetWriter) Close() error {
	if err := p.w.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
