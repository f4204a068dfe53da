package benchutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// FakeBucket is an in-memory S3 bucket that serves ListObjectsV2 and
// ranged GetObject calls. It satisfies s3fetch.API.
type FakeBucket struct {
	Name string
	// PageSize limits keys per list page; 0 means 1000.
	PageSize int

	mu      sync.RWMutex
	objects map[string][]byte
	gets    atomic.Int64
}

// NewFakeBucket creates an empty bucket.
func NewFakeBucket(name string) *FakeBucket {
	return &FakeBucket{Name: name, objects: make(map[string][]byte)}
}

// Put stores an object.
func (b *FakeBucket) Put(key string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = bytes.Clone(data)
}

// Gets returns the number of GetObject calls served.
func (b *FakeBucket) Gets() int64 {
	return b.gets.Load()
}

// ListObjectsV2 lists keys in lexical order, paginating by PageSize.
func (b *FakeBucket) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if err := b.checkBucket(in.Bucket); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	prefix := aws.ToString(in.Prefix)
	var keys []string
	for k := range b.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if tok := aws.ToString(in.ContinuationToken); tok != "" {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("bad continuation token %q", tok)
		}
		start = n
	}
	size := b.PageSize
	if size <= 0 {
		size = 1000
	}
	end := min(start+size, len(keys))

	out := &s3.ListObjectsV2Output{
		Name:        aws.String(b.Name),
		KeyCount:    aws.Int32(int32(end - start)),
		IsTruncated: aws.Bool(end < len(keys)),
	}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{
			Key:  aws.String(k),
			Size: aws.Int64(int64(len(b.objects[k]))),
		})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	}
	return out, nil
}

// GetObject returns an object, honoring a "bytes=a-b" Range header.
func (b *FakeBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if err := b.checkBucket(in.Bucket); err != nil {
		return nil, err
	}
	b.gets.Add(1)

	b.mu.RLock()
	data, ok := b.objects[aws.ToString(in.Key)]
	b.mu.RUnlock()
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("no such key: " + aws.ToString(in.Key))}
	}

	total := int64(len(data))
	out := &s3.GetObjectOutput{}
	if r := aws.ToString(in.Range); r != "" {
		first, last, err := parseRange(r, total)
		if err != nil {
			return nil, err
		}
		data = data[first : last+1]
		out.ContentRange = aws.String(fmt.Sprintf("bytes %d-%d/%d", first, last, total))
	}
	out.ContentLength = aws.Int64(int64(len(data)))
	out.Body = io.NopCloser(bytes.NewReader(data))
	return out, nil
}

func (b *FakeBucket) checkBucket(name *string) error {
	if aws.ToString(name) != b.Name {
		return &types.NoSuchBucket{Message: aws.String("no such bucket: " + aws.ToString(name))}
	}
	return nil
}

func parseRange(r string, total int64) (first, last int64, err error) {
	spec, ok := strings.CutPrefix(r, "bytes=")
	if !ok {
		return 0, 0, fmt.Errorf("unsupported range %q", r)
	}
	a, z, _ := strings.Cut(spec, "-")
	if first, err = strconv.ParseInt(a, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("bad range %q: %w", r, err)
	}
	last = total - 1
	if z != "" {
		if last, err = strconv.ParseInt(z, 10, 64); err != nil {
			return 0, 0, fmt.Errorf("bad range %q: %w", r, err)
		}
	}
	last = min(last, total-1)
	if first > last {
		return 0, 0, fmt.Errorf("range %q not satisfiable for %d bytes", r, total)
	}
	return first, last, nil
}
