package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/eunmann/catras/pkg/batch"
	"github.com/eunmann/catras/pkg/export"
	"github.com/eunmann/catras/pkg/fileutil"
	"github.com/eunmann/catras/pkg/logging"
)

func runExport(ctx context.Context, args []string, stdout io.Writer) error {
	c := newFlagSet("export")
	formatName := c.fs.StringP("format", "f", "json", "output format: json or parquet")
	out := c.fs.StringP("out", "o", "", "output file, or - for stdout (required)")
	if err := parse(c, args); err != nil {
		return err
	}
	if *out == "" {
		return errors.New("export: --out is required")
	}
	format, err := export.ParseFormat(*formatName)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	inputs := c.fs.Args()
	if len(inputs) == 0 {
		return errors.New("export: at least one input is required")
	}

	ctx, e, err := c.setup(ctx, anyS3(inputs))
	if err != nil {
		return err
	}
	results, err := e.decodeInputs(ctx, inputs)
	if err != nil {
		return err
	}

	start := time.Now()
	var written int
	write := func(w io.Writer) error {
		ew, err := export.NewWriter(format, w)
		if err != nil {
			return err
		}
		written, err = writeResults(ew, results)
		if err != nil {
			return err
		}
		return ew.Close()
	}

	if *out == "-" {
		err = write(stdout)
	} else {
		err = fileutil.WriteTmpThenMove(*out, func(tmpPath string) error {
			f, err := os.Create(tmpPath)
			if err != nil {
				return err
			}
			if err := write(f); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		})
	}
	if err != nil {
		return fmt.Errorf("export %s: %w", *out, err)
	}

	logging.PhaseComplete(e.log, "export", time.Since(start)).
		Str("format", string(format)).
		Str("out", *out).
		Int("records", written).
		Log("export finished")
	return failures(results)
}

// writeResults writes every decoded result and skips failures.
func writeResults(w export.Writer, results []batch.Result) (int, error) {
	n := 0
	for _, r := range results {
		if !r.OK() {
			continue
		}
		if err := w.Write(r.Input, r.Record, r.Warnings); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
