package source

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/eunmann/catras/pkg/benchutil"
	"github.com/eunmann/catras/pkg/catras"
	"github.com/eunmann/catras/pkg/s3fetch"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func sampleFile(t *testing.T) []byte {
	t.Helper()
	recs := benchutil.NewGenerator(benchutil.DefaultConfig(1)).Generate()
	return benchutil.EncodeAll(t, recs)[0]
}

func TestLoadLocal(t *testing.T) {
	dir := t.TempDir()
	data := sampleFile(t)
	plain := filepath.Join(dir, "a.cat")
	writeFile(t, plain, data)

	compressed, err := Compress(data)
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	zst := filepath.Join(dir, "a.CAT.zst")
	writeFile(t, zst, compressed)

	var l Loader
	for _, path := range []string{plain, zst} {
		got, err := l.Load(context.Background(), path)
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", path, err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("Load(%s) returned %d bytes, want the original %d", path, len(got), len(data))
		}
		if _, _, err := catras.Decode(got); err != nil {
			t.Errorf("Decode(%s) failed: %v", path, err)
		}
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	big := filepath.Join(dir, "big.cat")
	writeFile(t, big, make([]byte, 1024))

	bomb, err := Compress(make([]byte, 4096))
	if err != nil {
		t.Fatal(err)
	}
	bombPath := filepath.Join(dir, "bomb.cat.zst")
	writeFile(t, bombPath, bomb)

	notZstd := filepath.Join(dir, "fake.cat.zst")
	writeFile(t, notZstd, []byte("definitely not zstd"))

	l := Loader{MaxSize: 512}
	ctx := context.Background()

	if _, err := l.Load(ctx, filepath.Join(dir, "missing.cat")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: error = %v, want ErrNotExist", err)
	}
	if _, err := l.Load(ctx, big); !errors.Is(err, ErrTooLarge) {
		t.Errorf("oversized file: error = %v, want ErrTooLarge", err)
	}
	if _, err := l.Load(ctx, bombPath); !errors.Is(err, ErrTooLarge) {
		t.Errorf("oversized decompression: error = %v, want ErrTooLarge", err)
	}
	if _, err := l.Load(ctx, notZstd); err == nil {
		t.Error("corrupt zstd: expected error")
	}
	if _, err := l.Load(ctx, dir); err == nil {
		t.Error("directory: expected error")
	}
	if _, err := l.Load(ctx, "s3://archive/a.cat"); !errors.Is(err, ErrNoS3Client) {
		t.Errorf("s3 without client: error = %v, want ErrNoS3Client", err)
	}
}

func TestLoadS3(t *testing.T) {
	data := sampleFile(t)
	compressed, err := Compress(data)
	if err != nil {
		t.Fatal(err)
	}

	b := benchutil.NewFakeBucket("archive")
	b.Put("oak/a.cat", data)
	b.Put("oak/b.cat.zst", compressed)
	l := Loader{S3: s3fetch.NewClientWithAPI(b)}

	for _, uri := range []string{"s3://archive/oak/a.cat", "s3://archive/oak/b.cat.zst"} {
		got, err := l.Load(context.Background(), uri)
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", uri, err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("Load(%s) content mismatch", uri)
		}
	}

	small := Loader{S3: s3fetch.NewClientWithAPI(b), MaxSize: 10}
	if _, err := small.Load(context.Background(), "s3://archive/oak/a.cat"); !errors.Is(err, ErrTooLarge) {
		t.Errorf("error = %v, want ErrTooLarge", err)
	}
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.cat", "a.CAT", "sub/c.cat.zst", "notes.txt", "sub/d.json"} {
		writeFile(t, filepath.Join(dir, name), []byte("x"))
	}
	single := filepath.Join(dir, "notes.txt")

	b := benchutil.NewFakeBucket("archive")
	b.Put("oak/1.cat", []byte("1"))
	b.Put("oak/2.cat.zst", []byte("2"))
	b.Put("oak/readme.md", []byte("3"))

	l := Lister{S3: s3fetch.NewClientWithAPI(b)}
	got, err := l.Expand(context.Background(), []string{
		dir,
		single,
		"s3://archive/oak/",
		"s3://archive/pine/x.cat",
	})
	if err != nil {
		t.Fatalf("Expand failed: %v", err)
	}

	want := []string{
		filepath.Join(dir, "a.CAT"),
		filepath.Join(dir, "b.cat"),
		filepath.Join(dir, "sub", "c.cat.zst"),
		single,
		"s3://archive/oak/1.cat",
		"s3://archive/oak/2.cat.zst",
		"s3://archive/pine/x.cat",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expand =\n%v\nwant\n%v", got, want)
	}
}

func TestExpandPrefixWithoutClient(t *testing.T) {
	var l Lister
	if _, err := l.Expand(context.Background(), []string{"s3://archive/"}); !errors.Is(err, ErrNoS3Client) {
		t.Errorf("error = %v, want ErrNoS3Client", err)
	}
	got, err := l.Expand(context.Background(), []string{"s3://archive/a.cat"})
	if err != nil || len(got) != 1 {
		t.Errorf("object URI should pass through without a client: %v, %v", got, err)
	}
}
