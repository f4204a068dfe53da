package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/eunmann/catras/pkg/s3fetch"
)

// Lister expands directory and prefix inputs into individual files.
type Lister struct {
	// S3 lists s3:// prefixes. Nil rejects them with ErrNoS3Client.
	S3 *s3fetch.Client
}

// Expand resolves each input in order:
//   - a local directory becomes its CATRAS files, recursively, sorted by path;
//   - an s3:// URI ending in "/" (or naming just a bucket) becomes the
//     CATRAS objects under that prefix;
//   - anything else is passed through unchanged.
func (l *Lister) Expand(ctx context.Context, inputs []string) ([]string, error) {
	var out []string
	for _, in := range inputs {
		switch {
		case s3fetch.IsS3URI(in):
			uris, err := l.expandS3(ctx, in)
			if err != nil {
				return nil, err
			}
			out = append(out, uris...)
		case isDir(in):
			paths, err := walkDir(in)
			if err != nil {
				return nil, err
			}
			out = append(out, paths...)
		default:
			out = append(out, in)
		}
	}
	return out, nil
}

func (l *Lister) expandS3(ctx context.Context, uri string) ([]string, error) {
	bucket, key, err := s3fetch.ParseS3URI(uri)
	if err != nil {
		return nil, err
	}
	if key != "" && !strings.HasSuffix(key, "/") {
		return []string{uri}, nil
	}
	if l.S3 == nil {
		return nil, fmt.Errorf("%s: %w", uri, ErrNoS3Client)
	}
	keys, err := l.S3.ListKeys(ctx, bucket, key, Suffixes...)
	if err != nil {
		return nil, err
	}
	uris := make([]string, len(keys))
	for i, k := range keys {
		uris[i] = s3fetch.ObjectURI(bucket, k)
	}
	return uris, nil
}

// HasSuffix reports whether name is a CATRAS input by extension.
func HasSuffix(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range Suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func walkDir(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && HasSuffix(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}
