// Package cli implements the command-line interface for catras.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/eunmann/catras/internal/logctx"
	"github.com/eunmann/catras/pkg/batch"
	"github.com/eunmann/catras/pkg/catras"
	"github.com/eunmann/catras/pkg/logging"
	"github.com/eunmann/catras/pkg/s3fetch"
	"github.com/eunmann/catras/pkg/source"
	"github.com/eunmann/catras/pkg/sysmem"
)

const usage = `usage: catras <command> [options]
commands:
  inspect  print a header summary for each input
  export   write decoded inputs as json or parquet
  encode   build a .cat file from a JSON record
  fetch    download CATRAS objects from an S3 prefix`

// memoryShare is the fraction of physical memory inputs in flight may use
// when no concurrency is configured.
const memoryShare = 0.25

// newS3Client is replaced in tests.
var newS3Client = s3fetch.NewClientWithOptions

// Run executes the CLI with the given arguments. Command output goes to
// stdout; logs go to the global logger.
func Run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch args[0] {
	case "inspect":
		return runInspect(ctx, args[1:], stdout)
	case "export":
		return runExport(ctx, args[1:], stdout)
	case "encode":
		return runEncode(ctx, args[1:])
	case "fetch":
		return runFetch(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// commonFlags are accepted by every command.
type commonFlags struct {
	fs          *pflag.FlagSet
	config      string
	debug       bool
	human       bool
	concurrency int
	charset     string
}

func newFlagSet(name string) *commonFlags {
	c := &commonFlags{fs: pflag.NewFlagSet(name, pflag.ContinueOnError)}
	c.fs.StringVar(&c.config, "config", "", "YAML config file (default: $"+ConfigEnv+")")
	c.fs.BoolVar(&c.debug, "debug", false, "enable debug logging")
	c.fs.BoolVar(&c.human, "human", false, "human-friendly console logs")
	c.fs.IntVarP(&c.concurrency, "concurrency", "j", 0, "inputs processed in parallel (default: sized to CPUs and memory)")
	c.fs.StringVar(&c.charset, "charset", "", "header text code page: cp437, cp850, cp1252, latin1, raw")
	return c
}

// env is the resolved runtime for one command.
type env struct {
	cfg    Config
	codec  *catras.Codec
	s3     *s3fetch.Client
	loader *source.Loader
	lister *source.Lister
	log    zerolog.Logger
}

// setup loads the config, applies flag overrides and configures logging.
// An S3 client is created only when needS3 is set.
func (c *commonFlags) setup(ctx context.Context, needS3 bool) (context.Context, *env, error) {
	cfg, err := LoadConfig(c.config)
	if err != nil {
		return ctx, nil, err
	}
	if c.fs.Changed("concurrency") {
		cfg.Concurrency = c.concurrency
	}
	if c.fs.Changed("charset") {
		cfg.Charset = c.charset
	}
	if cfg.Concurrency <= 0 {
		// Each in-flight input may hold its compressed and decoded copy.
		cfg.Concurrency = sysmem.Limit(2*uint64(max(cfg.MaxFileSize, 0)), memoryShare, runtime.NumCPU())
	}
	debug := cfg.Log.Debug || c.debug
	human := cfg.Log.Human || c.human
	if debug || human {
		logging.Init(debug, human)
		logctx.SetDefaultLogger(*logging.L())
	}

	opts, err := cfg.codecOptions()
	if err != nil {
		return ctx, nil, err
	}

	e := &env{
		cfg:   cfg,
		codec: catras.NewCodec(opts),
		log:   logging.WithCommand(c.fs.Name()),
	}
	e.log.Debug().Int("concurrency", cfg.Concurrency).Str("charset", cfg.Charset).Msg("configured")
	if needS3 {
		if e.s3, err = newS3Client(ctx, cfg.S3.options()); err != nil {
			return ctx, nil, err
		}
	}
	e.loader = &source.Loader{S3: e.s3, MaxSize: cfg.MaxFileSize}
	e.lister = &source.Lister{S3: e.s3}
	return logctx.WithLogger(ctx, e.log), e, nil
}

func anyS3(inputs []string) bool {
	for _, in := range inputs {
		if s3fetch.IsS3URI(in) {
			return true
		}
	}
	return false
}

// decodeInputs expands inputs and decodes them all, logging every warning.
func (e *env) decodeInputs(ctx context.Context, inputs []string) ([]batch.Result, error) {
	files, err := e.lister.Expand(ctx, inputs)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.New("no CATRAS inputs found")
	}

	d := &batch.Decoder{Codec: e.codec, Loader: e.loader, Concurrency: e.cfg.Concurrency, ProgressEvery: 100}
	results, err := d.Run(ctx, files)
	if err != nil {
		return nil, err
	}

	for _, r := range results {
		for _, w := range r.Warnings {
			e.log.Warn().
				Str("file", r.Input).
				Str("kind", string(w.Kind)).
				Str("field", w.Field).
				Msg(w.Message)
		}
	}

	return results, nil
}

// failures turns failed results into the command's error.
func failures(results []batch.Result) error {
	s := batch.Summarize(results)
	if s.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d inputs failed", s.Failed, s.Inputs)
}

func parse(c *commonFlags, args []string) error {
	if err := c.fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w", c.fs.Name(), err)
	}
	return nil
}
