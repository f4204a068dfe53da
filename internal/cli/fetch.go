package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eunmann/catras/pkg/logging"
	"github.com/eunmann/catras/pkg/s3fetch"
)

func runFetch(ctx context.Context, args []string) error {
	c := newFlagSet("fetch")
	uri := c.fs.String("s3", "", "S3 prefix to download, s3://bucket/prefix (required)")
	dir := c.fs.StringP("dir", "d", "", "local download directory (required)")
	if err := parse(c, args); err != nil {
		return err
	}
	if *uri == "" {
		return errors.New("fetch: --s3 is required")
	}
	if *dir == "" {
		return errors.New("fetch: --dir is required")
	}
	if _, _, err := s3fetch.ParseS3URI(*uri); err != nil {
		return fmt.Errorf("fetch: %w", err)
	}

	ctx, e, err := c.setup(ctx, true)
	if err != nil {
		return err
	}

	start := time.Now()
	f := s3fetch.NewFetcher(e.s3, s3fetch.FetchConfig{
		URI:         *uri,
		DownloadDir: *dir,
		Concurrency: e.cfg.Concurrency,
	})
	res, err := f.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", *uri, err)
	}

	logging.PhaseComplete(e.log, "fetch", time.Since(start)).
		Str("uri", *uri).
		Str("dir", *dir).
		Int("objects", len(res.Keys)).
		Bytes("bytes", res.Bytes).
		Log("fetch finished")
	return nil
}
