// Package batch decodes many CATRAS inputs concurrently. One bad file
// never stops the batch: failures are recorded per input.
package batch

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eunmann/catras/internal/logctx"
	"github.com/eunmann/catras/pkg/catras"
	"github.com/eunmann/catras/pkg/logging"
)

// Loader resolves an input name to file bytes. *source.Loader satisfies it.
type Loader interface {
	Load(ctx context.Context, uri string) ([]byte, error)
}

// Result is the outcome for one input.
type Result struct {
	Input    string
	Record   *catras.Record
	Warnings []catras.Warning
	Err      error
	// Size is the number of bytes handed to the codec.
	Size int
}

// OK reports whether the input decoded.
func (r Result) OK() bool { return r.Err == nil }

// Decoder runs a codec over a set of inputs.
type Decoder struct {
	Codec  *catras.Codec
	Loader Loader
	// Concurrency bounds the number of inputs in flight. Default: NumCPU.
	Concurrency int
	// ProgressEvery logs a debug progress line every N inputs; 0 disables.
	ProgressEvery int
}

// Run decodes every input and returns one Result per input, in input
// order. The error is non-nil only when ctx is cancelled; inputs not yet
// started then carry the context error.
func (d *Decoder) Run(ctx context.Context, inputs []string) ([]Result, error) {
	codec := d.Codec
	if codec == nil {
		codec = catras.NewCodec(catras.DefaultOptions())
	}
	limit := d.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	log := logctx.FromContext(ctx)
	tracker := logging.NewProgressTracker("decode", int64(len(inputs)), int64(d.ProgressEvery), log)
	results := make([]Result, len(inputs))
	for i, in := range inputs {
		results[i] = Result{Input: in}
	}

	g := new(errgroup.Group)
	g.SetLimit(limit)

	for i, in := range inputs {
		if err := ctx.Err(); err != nil {
			for j := i; j < len(inputs); j++ {
				results[j].Err = err
			}
			break
		}
		g.Go(func() error {
			fctx := logctx.WithInt(logctx.WithStr(ctx, "file", in), "index", i)
			results[i] = d.decodeOne(fctx, codec, in)
			tracker.RecordDone(!results[i].OK())
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}

	sum := Summarize(results)
	logging.PhaseComplete(log, "decode", tracker.Elapsed()).
		FromTracker(tracker).
		Int("warnings", sum.Warnings).
		Int("rings", sum.Rings).
		Bytes("bytes", sum.Bytes).
		Log("batch decoded")
	return results, nil
}

func (d *Decoder) decodeOne(ctx context.Context, codec *catras.Codec, in string) Result {
	res := Result{Input: in}
	log := logctx.FromContext(ctx)
	start := time.Now()

	buf, err := d.Loader.Load(ctx, in)
	if err != nil {
		res.Err = err
		log.Error().Err(err).Msg("load failed")
		return res
	}
	res.Size = len(buf)

	rec, ws, err := codec.Decode(buf)
	if err != nil {
		res.Err = err
		log.Error().Err(err).Int("bytes", len(buf)).Msg("decode failed")
		return res
	}
	res.Record, res.Warnings = rec, ws

	log.Debug().
		Int("bytes", len(buf)).
		Int("rings", len(rec.Series.Values)).
		Int("warnings", len(ws)).
		Dur("elapsed", time.Since(start)).
		Msg("decoded")
	return res
}

// Summary counts the outcomes of a batch.
type Summary struct {
	Inputs   int
	Decoded  int
	Failed   int
	Warnings int
	Rings    int
	Bytes    int64
}

// Summarize computes a Summary over results.
func Summarize(results []Result) Summary {
	s := Summary{Inputs: len(results)}
	for _, r := range results {
		s.Bytes += int64(r.Size)
		if !r.OK() {
			s.Failed++
			continue
		}
		s.Decoded++
		s.Warnings += len(r.Warnings)
		s.Rings += len(r.Record.Series.Values)
	}
	return s
}
