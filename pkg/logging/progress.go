package logging

import (
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// ProgressTracker counts finished inputs of a batch and logs a progress
// line every Every completions. It is safe for concurrent use.
type ProgressTracker struct {
	phase     string
	total     int64
	every     int64
	done      atomic.Int64
	failed    atomic.Int64
	startTime time.Time
	log       zerolog.Logger
}

// NewProgressTracker creates a tracker for total inputs. every <= 0
// disables periodic progress lines.
func NewProgressTracker(phase string, total, every int64, log zerolog.Logger) *ProgressTracker {
	return &ProgressTracker{
		phase:     phase,
		total:     total,
		every:     every,
		startTime: time.Now(),
		log:       log,
	}
}

// RecordDone records one finished input; failed inputs also count as done.
func (pt *ProgressTracker) RecordDone(failed bool) {
	if failed {
		pt.failed.Add(1)
	}
	n := pt.done.Add(1)
	if pt.every > 0 && (n%pt.every == 0 || n == pt.total) {
		pt.log.Debug().
			Str("event", "progress").
			Str("phase", pt.phase).
			Int64("done", n).
			Int64("failed", pt.failed.Load()).
			Int64("total", pt.total).
			Float64("progress_pct", pt.ProgressPct()).
			Msg("batch progress")
	}
}

// Progress returns the current counts.
func (pt *ProgressTracker) Progress() (done, failed, total int64) {
	return pt.done.Load(), pt.failed.Load(), pt.total
}

// ProgressPct returns the progress percentage (0-100).
func (pt *ProgressTracker) ProgressPct() float64 {
	if pt.total == 0 {
		return 100.0
	}
	return float64(pt.done.Load()) * 100.0 / float64(pt.total)
}

// Elapsed returns time since tracking started.
func (pt *ProgressTracker) Elapsed() time.Duration {
	return time.Since(pt.startTime)
}

// CompletionEvent builds a consistent "phase finished" log line.
type CompletionEvent struct {
	log     zerolog.Logger
	event   string
	phase   string
	elapsed time.Duration
	fields  map[string]any
}

// PhaseComplete starts a phase_completed event.
func PhaseComplete(log zerolog.Logger, phase string, elapsed time.Duration) *CompletionEvent {
	return &CompletionEvent{
		log:     log,
		event:   "phase_completed",
		phase:   phase,
		elapsed: elapsed,
		fields:  make(map[string]any),
	}
}

// Str adds a string field.
func (ce *CompletionEvent) Str(key, val string) *CompletionEvent {
	ce.fields[key] = val
	return ce
}

// Int adds an int field.
func (ce *CompletionEvent) Int(key string, val int) *CompletionEvent {
	ce.fields[key] = val
	return ce
}

// Bytes adds a byte count with a humanized companion in pretty mode.
func (ce *CompletionEvent) Bytes(key string, n int64) *CompletionEvent {
	ce.fields[key] = n
	if IsPrettyMode() && n >= 0 {
		ce.fields[key+"_h"] = humanize.IBytes(uint64(n))
	}
	return ce
}

// FromTracker copies the tracker's counts into the event.
func (ce *CompletionEvent) FromTracker(pt *ProgressTracker) *CompletionEvent {
	done, failed, total := pt.Progress()
	ce.fields["done"] = done
	ce.fields["failed"] = failed
	ce.fields["total"] = total
	return ce
}

// Log emits the event at info level.
func (ce *CompletionEvent) Log(msg string) {
	e := ce.log.Info().
		Str("event", ce.event).
		Str("phase", ce.phase).
		Int64("duration_ms", ce.elapsed.Milliseconds())
	if IsPrettyMode() {
		e = e.Str("duration_h", ce.elapsed.Round(time.Millisecond).String())
	}
	for k, v := range ce.fields {
		e = e.Interface(k, v)
	}
	e.Msg(msg)
}
