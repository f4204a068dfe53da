// Package benchutil generates synthetic CATRAS archives for benchmarks and
// tests.
package benchutil

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/eunmann/catras/pkg/catras"
)

// GeneratorConfig configures synthetic record generation.
type GeneratorConfig struct {
	// NumRecords is the number of records to generate.
	NumRecords int
	// MinLength and MaxLength bound the number of rings per series.
	MinLength, MaxLength int
	// ChronologyShare is the fraction (0.0-1.0) of records generated as
	// chronologies with sample depths.
	ChronologyShare float64
	// Seed for reproducible generation. 0 = BenchmarkSeed.
	Seed int64
}

// DefaultConfig returns a mix of raw series and chronologies.
func DefaultConfig(numRecords int) GeneratorConfig {
	return GeneratorConfig{
		NumRecords:      numRecords,
		MinLength:       40,
		MaxLength:       400,
		ChronologyShare: 0.2,
		Seed:            BenchmarkSeed,
	}
}

// Generator generates synthetic records.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// NewGenerator creates a new record generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = BenchmarkSeed
	}
	if cfg.MinLength <= 0 {
		cfg.MinLength = 1
	}
	if cfg.MaxLength < cfg.MinLength {
		cfg.MaxLength = cfg.MinLength
	}
	return &Generator{cfg: cfg, rng: rand.New(rand.NewSource(seed))}
}

// Generate returns NumRecords records. Every record encodes and decodes
// back to itself with the default codec.
func (g *Generator) Generate() []*catras.Record {
	recs := make([]*catras.Record, g.cfg.NumRecords)
	for i := range recs {
		recs[i] = g.record(i)
	}
	return recs
}

var species = []string{"QUSP", "PISY", "PCAB", "FASY", "ABAL", "LADE"}

func (g *Generator) record(i int) *catras.Record {
	n := g.cfg.MinLength + g.rng.Intn(g.cfg.MaxLength-g.cfg.MinLength+1)
	chrono := g.rng.Float64() < g.cfg.ChronologyShare

	h := catras.Header{
		SeriesName:    fmt.Sprintf("%s site %03d", species[i%len(species)], i),
		SeriesCode:    fmt.Sprintf("%s%04d", species[i%len(species)][:2], i%10000),
		FileExtension: "CAT ",
		SeriesLength:  n,
		StartYear:     catras.Year(800 + g.rng.Intn(1200)),
		Scope:         catras.ScopeUnspecified,
		LastRing:      catras.LastRingComplete,
		NumberFormat:  catras.IEEENumberFormat,
		VariableType:  catras.VariableRingWidth,
		Source:        catras.SourceManual,
		Protection:    catras.ProtectionNone,
		FileType:      catras.FileTypeRaw,
		SpeciesCode:   i % len(species),
	}
	created := time.Date(1990+g.rng.Intn(30), time.Month(1+g.rng.Intn(12)), 1+g.rng.Intn(28), 0, 0, 0, 0, time.UTC)
	h.CreationDate = &created

	s := catras.Series{Values: make([]int, n)}
	width := 150 + g.rng.Intn(200)
	for j := range s.Values {
		// Widths drift around a site mean; never zero so nothing reads as lead-in.
		width += g.rng.Intn(41) - 20
		width = min(max(width, 20), 900)
		s.Values[j] = width
	}
	if chrono {
		h.FileType = catras.FileTypeChronology
		h.Source = catras.SourceAveraged
		s.SampleDepths = make([]int, n)
		for j := range s.SampleDepths {
			s.SampleDepths[j] = 1 + g.rng.Intn(30)
		}
	}
	return &catras.Record{Header: h, Series: s}
}

// EncodeAll encodes recs with the default codec.
func EncodeAll(tb testing.TB, recs []*catras.Record) [][]byte {
	tb.Helper()
	out := make([][]byte, len(recs))
	for i, r := range recs {
		buf, err := catras.Encode(r)
		if err != nil {
			tb.Fatalf("encode record %d: %v", i, err)
		}
		out[i] = buf
	}
	return out
}

// WriteArchive writes recs as rec-NNNN.cat files under dir and returns the
// paths in record order.
func WriteArchive(tb testing.TB, dir string, recs []*catras.Record) []string {
	tb.Helper()
	paths := make([]string, len(recs))
	for i, buf := range EncodeAll(tb, recs) {
		paths[i] = filepath.Join(dir, fmt.Sprintf("rec-%04d.cat", i))
		if err := os.WriteFile(paths[i], buf, 0o644); err != nil {
			tb.Fatalf("write %s: %v", paths[i], err)
		}
	}
	return paths
}

// SkipIfNoLongBench skips the benchmark if CATRAS_LONG_BENCH is not set.
func SkipIfNoLongBench(b *testing.B) {
	if os.Getenv("CATRAS_LONG_BENCH") == "" {
		b.Skip("set CATRAS_LONG_BENCH=1 to run scaling benchmark")
	}
}
