// Package source resolves CATRAS inputs (local files, zstd-compressed
// files, directories and s3:// URIs) to raw file bytes.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/eunmann/catras/pkg/s3fetch"
)

// MaxFileSize caps the decompressed size of a single input. Real CATRAS
// files are a few KiB; the cap keeps a bad input from exhausting memory.
const MaxFileSize = 16 << 20

// Suffixes are the file names recognised as CATRAS inputs.
var Suffixes = []string{".cat", ".cat.zst"}

var (
	// ErrNoS3Client is returned for s3:// inputs when no client is configured.
	ErrNoS3Client = errors.New("s3 input without an S3 client")
	// ErrTooLarge is returned for inputs over the size cap.
	ErrTooLarge = errors.New("input exceeds size limit")
)

// Loader reads inputs into memory.
type Loader struct {
	// S3 serves s3:// inputs. Nil rejects them with ErrNoS3Client.
	S3 *s3fetch.Client
	// MaxSize overrides MaxFileSize when positive.
	MaxSize int64
}

func (l *Loader) maxSize() int64 {
	if l.MaxSize > 0 {
		return l.MaxSize
	}
	return MaxFileSize
}

// Load returns the raw CATRAS bytes for uri, decompressing .zst inputs.
func (l *Loader) Load(ctx context.Context, uri string) ([]byte, error) {
	raw, err := l.fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	if !IsCompressed(uri) {
		return raw, nil
	}
	return l.decompress(uri, raw)
}

func (l *Loader) fetch(ctx context.Context, uri string) ([]byte, error) {
	if s3fetch.IsS3URI(uri) {
		if l.S3 == nil {
			return nil, fmt.Errorf("%s: %w", uri, ErrNoS3Client)
		}
		bucket, key, err := s3fetch.ParseS3URI(uri)
		if err != nil {
			return nil, err
		}
		data, err := l.S3.ReadObject(ctx, bucket, key, l.maxSize())
		if errors.Is(err, s3fetch.ErrObjectTooLarge) {
			return nil, fmt.Errorf("%s: %w", uri, ErrTooLarge)
		}
		return data, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	info, err := os.Stat(uri)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s: is a directory", uri)
	}
	if info.Size() > l.maxSize() {
		return nil, fmt.Errorf("%s: %w: %d bytes", uri, ErrTooLarge, info.Size())
	}
	return os.ReadFile(uri)
}

func (l *Loader) decompress(uri string, raw []byte) ([]byte, error) {
	dec, err := zstd.NewReader(bytes.NewReader(raw), zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("%s: open zstd stream: %w", uri, err)
	}
	defer dec.Close()

	limit := l.maxSize()
	out, err := io.ReadAll(io.LimitReader(dec, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%s: decompress: %w", uri, err)
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("%s: %w: decompressed size over %d bytes", uri, ErrTooLarge, limit)
	}
	return out, nil
}

// IsCompressed reports whether name carries the zstd suffix.
func IsCompressed(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".zst")
}

// Compress returns data as a zstd frame, the format Load expects for
// .cat.zst inputs.
func Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}
