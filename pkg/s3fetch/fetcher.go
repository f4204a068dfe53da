package s3fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// DefaultSuffixes are the object suffixes fetched when none are configured.
var DefaultSuffixes = []string{".cat", ".cat.zst"}

// FetchConfig configures a prefix download.
type FetchConfig struct {
	// URI is s3://bucket/prefix.
	URI string
	// DownloadDir is the local directory files are written to.
	DownloadDir string
	// Concurrency is the number of parallel downloads (default: 4).
	Concurrency int
	// Suffixes selects keys to download (default: DefaultSuffixes).
	Suffixes []string
}

// FetchResult lists what was downloaded. Keys and LocalFiles are
// index-aligned.
type FetchResult struct {
	Keys       []string
	LocalFiles []string
	Bytes      int64
}

// Fetcher downloads every matching object under a prefix.
type Fetcher struct {
	client     *Client
	downloader *Downloader
	cfg        FetchConfig
}

// NewFetcher creates a new fetcher.
func NewFetcher(client *Client, cfg FetchConfig) *Fetcher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if len(cfg.Suffixes) == 0 {
		cfg.Suffixes = DefaultSuffixes
	}
	// Objects are small; parallelism comes from downloading many at once.
	dl := NewDownloader(client, DownloaderConfig{Concurrency: 1})
	return &Fetcher{client: client, downloader: dl, cfg: cfg}
}

// Fetch lists the prefix and downloads all matching objects. Keys whose
// base names collide overwrite each other, so the last one wins.
func (f *Fetcher) Fetch(ctx context.Context) (*FetchResult, error) {
	bucket, prefix, err := ParseS3URI(f.cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("parse fetch URI: %w", err)
	}

	keys, err := f.client.ListKeys(ctx, bucket, prefix, f.cfg.Suffixes...)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(f.cfg.DownloadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	localFiles := make([]string, len(keys))
	var total atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.Concurrency)

	for i, key := range keys {
		g.Go(func() error {
			localPath := filepath.Join(f.cfg.DownloadDir, sanitizeFilename(key))
			res, err := f.downloader.DownloadToFile(gctx, bucket, key, localPath)
			if err != nil {
				return err
			}
			localFiles[i] = localPath
			total.Add(res.BytesDownloaded)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("wait for downloads: %w", err)
	}

	return &FetchResult{Keys: keys, LocalFiles: localFiles, Bytes: total.Load()}, nil
}
