package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"

	"github.com/eunmann/catras/pkg/catras"
	"github.com/eunmann/catras/pkg/export"
	"github.com/eunmann/catras/pkg/fileutil"
	"github.com/eunmann/catras/pkg/source"
)

func runEncode(ctx context.Context, args []string) error {
	c := newFlagSet("encode")
	out := c.fs.StringP("out", "o", "", "output .cat file (required)")
	compress := c.fs.Bool("zstd", false, "zstd-compress the output (implied by a .zst suffix)")
	index := c.fs.Int("index", 0, "document to encode when the input holds several JSON lines")
	fit := c.fs.Bool("fit-length", false, "set series_length to the number of values")
	if err := parse(c, args); err != nil {
		return err
	}
	if *out == "" {
		return errors.New("encode: --out is required")
	}
	if c.fs.NArg() != 1 {
		return errors.New("encode: exactly one JSON input is required")
	}
	in := c.fs.Arg(0)

	_, e, err := c.setup(ctx, false)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	rec, err := readRecord(data, *index)
	if err != nil {
		return fmt.Errorf("encode %s: %w", in, err)
	}
	if *fit {
		rec.Header.SeriesLength = len(rec.Series.Values)
	}

	buf, err := e.codec.Encode(rec)
	if err != nil {
		return fmt.Errorf("encode %s: %w", in, err)
	}
	if *compress || source.IsCompressed(*out) {
		if buf, err = source.Compress(buf); err != nil {
			return err
		}
	}
	if err := fileutil.WriteFile(*out, buf); err != nil {
		return err
	}

	e.log.Info().
		Str("in", in).
		Str("out", *out).
		Int("rings", len(rec.Series.Values)).
		Str("size", humanize.IBytes(uint64(len(buf)))).
		Msg("record encoded")
	return nil
}

// readRecord accepts either a bare Record or the export Document wrapping
// one. index selects a document from a JSON Lines stream.
func readRecord(data []byte, index int) (*catras.Record, error) {
	if index < 0 {
		return nil, fmt.Errorf("negative index %d", index)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	var raw json.RawMessage
	for i := 0; i <= index; i++ {
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("no JSON document at index %d", index)
			}
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	}

	var doc export.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if doc.Record != nil {
		return doc.Record, nil
	}
	var rec catras.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	return &rec, nil
}
