// Package s3fetch lists and downloads CATRAS archives stored in S3.
package s3fetch

import (
	"errors"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidURI is returned for URIs that are not s3://bucket[/key].
var ErrInvalidURI = errors.New("invalid S3 URI")

// ParseS3URI parses an S3 URI (s3://bucket/key) into bucket and key components.
func ParseS3URI(uri string) (bucket, key string, err error) {
	if !IsS3URI(uri) {
		return "", "", errors.Join(ErrInvalidURI, errors.New("must start with s3://"))
	}

	rest := strings.TrimPrefix(uri, "s3://")
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", errors.Join(ErrInvalidURI, errors.New("missing bucket name"))
	}
	return bucket, key, nil
}

// IsS3URI reports whether s uses the s3:// scheme.
func IsS3URI(s string) bool {
	return strings.HasPrefix(s, "s3://")
}

// ObjectURI formats bucket and key as an s3:// URI.
func ObjectURI(bucket, key string) string {
	return "s3://" + bucket + "/" + key
}

// hasSuffix reports whether key ends in one of suffixes, ignoring case.
// An empty suffix list matches every key.
func hasSuffix(key string, suffixes []string) bool {
	if len(suffixes) == 0 {
		return true
	}
	lower := strings.ToLower(key)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

// sanitizeFilename converts an S3 key to a safe local filename.
func sanitizeFilename(key string) string {
	return filepath.Base(path.Clean("/" + key))
}
