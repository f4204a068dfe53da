package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/eunmann/catras/pkg/batch"
	"github.com/eunmann/catras/pkg/export"
)

func runInspect(ctx context.Context, args []string, stdout io.Writer) error {
	c := newFlagSet("inspect")
	asJSON := c.fs.Bool("json", false, "print one JSON document per input")
	if err := parse(c, args); err != nil {
		return err
	}
	inputs := c.fs.Args()
	if len(inputs) == 0 {
		return fmt.Errorf("inspect: at least one input is required")
	}

	ctx, e, err := c.setup(ctx, anyS3(inputs))
	if err != nil {
		return err
	}
	results, err := e.decodeInputs(ctx, inputs)
	if err != nil {
		return err
	}

	if *asJSON {
		jw := export.NewJSONWriter(stdout)
		for _, r := range results {
			if !r.OK() {
				continue
			}
			if err := jw.Write(r.Input, r.Record, r.Warnings); err != nil {
				return err
			}
		}
	} else if err := printSummary(stdout, results); err != nil {
		return err
	}
	return failures(results)
}

func printSummary(w io.Writer, results []batch.Result) error {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "INPUT\tCODE\tNAME\tTYPE\tRINGS\tSTART\tEND\tSIZE\tWARNINGS")
	for _, r := range results {
		if !r.OK() {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\t-\t-\terror: %v\n", r.Input, r.Err)
			continue
		}
		h, s := r.Record.Header, r.Record.Series
		end := "-"
		if n := len(s.Values); n > 0 && h.StartYear.Dated() {
			end = h.StartYear.Add(n - 1).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\t%d\n",
			r.Input, h.SeriesCode, h.SeriesName, h.FileType,
			len(s.Values), h.StartYear, end,
			humanize.IBytes(uint64(r.Size)), len(r.Warnings))
	}
	return tw.Flush()
}
