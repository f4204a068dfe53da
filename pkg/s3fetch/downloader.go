package s3fetch

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// DownloaderConfig configures the S3 download manager.
type DownloaderConfig struct {
	// Concurrency is the number of concurrent part downloads per object.
	// Default: min(max(2, NumCPU), 8).
	Concurrency int

	// PartSize is the size of each ranged request in bytes. Default and
	// minimum: manager.MinUploadPartSize (5 MiB), which covers any CATRAS
	// file in one request.
	PartSize int64
}

// DefaultDownloaderConfig returns defaults based on the current machine.
func DefaultDownloaderConfig() DownloaderConfig {
	return DownloaderConfig{
		Concurrency: min(max(2, runtime.NumCPU()), 8),
		PartSize:    manager.MinUploadPartSize,
	}
}

// Downloader wraps the AWS S3 download manager.
type Downloader struct {
	manager *manager.Downloader
	config  DownloaderConfig
}

// NewDownloader creates a Downloader that issues requests through c.
func NewDownloader(c *Client, cfg DownloaderConfig) *Downloader {
	def := DefaultDownloaderConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if cfg.PartSize < def.PartSize {
		cfg.PartSize = def.PartSize
	}

	mgr := manager.NewDownloader(c.api, func(d *manager.Downloader) {
		d.Concurrency = cfg.Concurrency
		d.PartSize = cfg.PartSize
	})
	return &Downloader{manager: mgr, config: cfg}
}

// DownloadResult describes a completed download.
type DownloadResult struct {
	BytesDownloaded int64
	Duration        time.Duration
}

// Download fetches an object into memory.
func (d *Downloader) Download(ctx context.Context, bucket, key string) ([]byte, *DownloadResult, error) {
	start := time.Now()
	buf := manager.NewWriteAtBuffer(nil)

	n, err := d.manager.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
	}
	return buf.Bytes()[:n], &DownloadResult{BytesDownloaded: n, Duration: time.Since(start)}, nil
}

// DownloadToFile downloads an object to destPath. A failed download
// leaves no file behind.
func (d *Downloader) DownloadToFile(ctx context.Context, bucket, key, destPath string) (*DownloadResult, error) {
	start := time.Now()

	file, err := os.Create(destPath)
	if err != nil {
		return nil, fmt.Errorf("create destination file: %w", err)
	}

	n, err := d.manager.Download(ctx, file, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if cerr := file.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("close %s: %w", destPath, cerr)
	}
	if err != nil {
		os.Remove(destPath)
		return nil, fmt.Errorf("download s3://%s/%s: %w", bucket, key, err)
	}

	return &DownloadResult{BytesDownloaded: n, Duration: time.Since(start)}, nil
}

// Config returns the downloader configuration.
func (d *Downloader) Config() DownloaderConfig {
	return d.config
}
