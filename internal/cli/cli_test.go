package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"

	"github.com/eunmann/catras/pkg/benchutil"
	"github.com/eunmann/catras/pkg/catras"
	"github.com/eunmann/catras/pkg/export"
	"github.com/eunmann/catras/pkg/s3fetch"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(ConfigEnv, "")
	var out bytes.Buffer
	err := Run(context.Background(), args, &out)
	return out.String(), err
}

func archive(t *testing.T, n int) (string, []*catras.Record, []string) {
	t.Helper()
	dir := t.TempDir()
	recs := benchutil.NewGenerator(benchutil.DefaultConfig(n)).Generate()
	return dir, recs, benchutil.WriteArchive(t, dir, recs)
}

func decodeFile(t *testing.T, path string) *catras.Record {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	rec, _, err := catras.Decode(data)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return rec
}

// useFakeS3 routes the command's S3 client to bucket for the test.
func useFakeS3(t *testing.T, bucket *benchutil.FakeBucket) {
	t.Helper()
	orig := newS3Client
	newS3Client = func(context.Context, s3fetch.ClientOptions) (*s3fetch.Client, error) {
		return s3fetch.NewClientWithAPI(bucket), nil
	}
	t.Cleanup(func() { newS3Client = orig })
}

func TestRunDispatch(t *testing.T) {
	if _, err := run(t); err == nil || !strings.Contains(err.Error(), "usage") {
		t.Errorf("no args: err = %v, want usage", err)
	}
	if _, err := run(t, "frobnicate"); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("unknown: err = %v", err)
	}
	out, err := run(t, "help")
	if err != nil || !strings.Contains(out, "inspect") {
		t.Errorf("help = %q, %v", out, err)
	}
}

func TestRequiredArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"inspect without inputs", []string{"inspect"}, "at least one input"},
		{"export without out", []string{"export", "a.cat"}, "--out is required"},
		{"export bad format", []string{"export", "-f", "csv", "-o", "x", "a.cat"}, "unknown export format"},
		{"export without inputs", []string{"export", "-o", "x"}, "at least one input"},
		{"encode without out", []string{"encode", "a.json"}, "--out is required"},
		{"encode two inputs", []string{"encode", "-o", "x.cat", "a.json", "b.json"}, "exactly one"},
		{"fetch without s3", []string{"fetch", "--dir", "x"}, "--s3 is required"},
		{"fetch without dir", []string{"fetch", "--s3", "s3://b/p/"}, "--dir is required"},
		{"fetch bad uri", []string{"fetch", "--s3", "http://b/p", "--dir", "x"}, "invalid"},
		{"unknown flag", []string{"inspect", "--bogus", "a.cat"}, "unknown flag"},
		{"bad charset", []string{"inspect", "--charset", "ebcdic", "a.cat"}, "unknown charset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil || !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(tt.want)) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestInspect(t *testing.T) {
	dir, recs, _ := archive(t, 3)

	out, err := run(t, "inspect", dir)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if !strings.HasPrefix(out, "INPUT") {
		t.Errorf("missing header line:\n%s", out)
	}
	for _, r := range recs {
		if !strings.Contains(out, r.Header.SeriesCode) {
			t.Errorf("output missing %s:\n%s", r.Header.SeriesCode, out)
		}
	}
	if lines := strings.Count(out, "\n"); lines != 4 {
		t.Errorf("got %d lines, want 4:\n%s", lines, out)
	}
}

func TestInspectReportsFailures(t *testing.T) {
	dir, _, _ := archive(t, 2)
	bad := filepath.Join(dir, "bad.cat")
	if err := os.WriteFile(bad, make([]byte, 40), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := run(t, "inspect", dir)
	if err == nil || !strings.Contains(err.Error(), "1 of 3 inputs failed") {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(out, "error:") {
		t.Errorf("failure not shown:\n%s", out)
	}
}

func TestInspectJSON(t *testing.T) {
	_, recs, paths := archive(t, 2)

	out, err := run(t, "inspect", "--json", paths[1])
	if err != nil {
		t.Fatal(err)
	}
	rec, err := readRecord([]byte(out), 0)
	if err != nil {
		t.Fatalf("readRecord: %v", err)
	}
	if !reflect.DeepEqual(rec, recs[1]) {
		t.Errorf("record = %+v\nwant %+v", rec.Header, recs[1].Header)
	}
}

func TestExportThenEncode(t *testing.T) {
	dir, recs, paths := archive(t, 3)
	jsonl := filepath.Join(t.TempDir(), "all.jsonl")

	if _, err := run(t, "export", "--out", jsonl, dir); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	for i := range recs {
		out := filepath.Join(t.TempDir(), "copy.cat")
		if _, err := run(t, "encode", "--index", strconv.Itoa(i), "-o", out, jsonl); err != nil {
			t.Fatalf("encode %d failed: %v", i, err)
		}
		if got, want := decodeFile(t, out), decodeFile(t, paths[i]); !reflect.DeepEqual(got, want) {
			t.Errorf("record %d differs after export and encode", i)
		}
	}

	if _, err := run(t, "encode", "--index", "3", "-o", filepath.Join(dir, "x.cat"), jsonl); err == nil {
		t.Error("encode past the last document succeeded")
	}
}

func TestExportStdout(t *testing.T) {
	_, _, paths := archive(t, 2)
	out, err := run(t, append([]string{"export", "-o", "-"}, paths...)...)
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(out, "\n"); n != 2 {
		t.Errorf("got %d JSON lines, want 2", n)
	}
}

func TestExportParquet(t *testing.T) {
	dir, recs, _ := archive(t, 4)
	path := filepath.Join(t.TempDir(), "rings.parquet")

	if _, err := run(t, "export", "--format", "parquet", "--out", path, dir); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	rows, err := parquet.ReadFile[export.RingRow](path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	want := 0
	for _, r := range recs {
		want += len(r.Series.Values)
	}
	if len(rows) != want {
		t.Errorf("got %d rows, want %d", len(rows), want)
	}
}

func TestEncodeCompressed(t *testing.T) {
	_, recs, _ := archive(t, 1)
	dir := t.TempDir()
	in := filepath.Join(dir, "rec.json")
	doc, err := os.Create(in)
	if err != nil {
		t.Fatal(err)
	}
	if err := export.NewJSONWriter(doc).Write("rec", recs[0], nil); err != nil {
		t.Fatal(err)
	}
	doc.Close()

	out := filepath.Join(dir, "rec.cat.zst")
	if _, err := run(t, "encode", "-o", out, in); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(raw, []byte{0x28, 0xb5, 0x2f, 0xfd}) {
		t.Errorf("output is not a zstd frame: % x", raw[:4])
	}

	text, err := run(t, "inspect", out)
	if err != nil {
		t.Fatalf("inspect compressed: %v", err)
	}
	if !strings.Contains(text, recs[0].Header.SeriesCode) {
		t.Errorf("inspect output missing series:\n%s", text)
	}
}

func TestEncodeFitLength(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "rec.json")
	body := `{"header":{"series_code":"FIT1","series_length":9,"file_type":"raw"},"series":{"values":[10,20,30]}}`
	if err := os.WriteFile(in, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "fit.cat")
	if _, err := run(t, "encode", "--fit-length", "-o", out, in); err != nil {
		t.Fatal(err)
	}
	rec := decodeFile(t, out)
	if rec.Header.SeriesLength != 3 || !reflect.DeepEqual(rec.Series.Values, []int{10, 20, 30}) {
		t.Errorf("decoded %d / %v", rec.Header.SeriesLength, rec.Series.Values)
	}
}

func fakeArchive(t *testing.T, n int) (*benchutil.FakeBucket, []*catras.Record) {
	t.Helper()
	bucket := benchutil.NewFakeBucket("dendro")
	recs := benchutil.NewGenerator(benchutil.DefaultConfig(n)).Generate()
	for i, buf := range benchutil.EncodeAll(t, recs) {
		bucket.Put("site/"+recs[i].Header.SeriesCode+".cat", buf)
	}
	bucket.Put("site/README.txt", []byte("not a series"))
	useFakeS3(t, bucket)
	return bucket, recs
}

func TestFetch(t *testing.T) {
	_, recs := fakeArchive(t, 3)
	dir := filepath.Join(t.TempDir(), "dl")

	if _, err := run(t, "fetch", "--s3", "s3://dendro/site/", "--dir", dir, "-j", "2"); err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	for _, r := range recs {
		got := decodeFile(t, filepath.Join(dir, r.Header.SeriesCode+".cat"))
		if !reflect.DeepEqual(got, r) {
			t.Errorf("%s differs after fetch", r.Header.SeriesCode)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "README.txt")); !os.IsNotExist(err) {
		t.Errorf("non-CATRAS object was downloaded: %v", err)
	}
}

func TestInspectS3(t *testing.T) {
	_, recs := fakeArchive(t, 2)

	out, err := run(t, "inspect", "s3://dendro/site/")
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	for _, r := range recs {
		if !strings.Contains(out, "s3://dendro/site/"+r.Header.SeriesCode+".cat") {
			t.Errorf("missing %s:\n%s", r.Header.SeriesCode, out)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv(ConfigEnv, "")
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	cfg, err := LoadConfig("")
	if err != nil || !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf("no file: %+v, %v", cfg, err)
	}

	good := write("good.yaml", `
concurrency: 3
charset: latin1
s3:
  region: eu-central-1
  endpoint: http://localhost:9000
  path_style: true
log:
  debug: true
`)
	cfg, err = LoadConfig(good)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Concurrency != 3 || cfg.Charset != "latin1" || !cfg.Log.Debug {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.MaxFileSize != DefaultConfig().MaxFileSize {
		t.Errorf("MaxFileSize = %d, want default kept", cfg.MaxFileSize)
	}
	want := s3fetch.ClientOptions{Region: "eu-central-1", Endpoint: "http://localhost:9000", PathStyle: true}
	if got := cfg.S3.options(); got != want {
		t.Errorf("S3 options = %+v", got)
	}

	t.Setenv(ConfigEnv, good)
	if cfg, err := LoadConfig(""); err != nil || cfg.Concurrency != 3 {
		t.Errorf("env fallback: %+v, %v", cfg, err)
	}
	t.Setenv(ConfigEnv, "")

	if _, err := LoadConfig(write("empty.yaml", "")); err != nil {
		t.Errorf("empty file: %v", err)
	}
	if _, err := LoadConfig(write("typo.yaml", "concurency: 2\n")); err == nil {
		t.Error("unknown field accepted")
	}
	if _, err := LoadConfig(write("cs.yaml", "charset: ebcdic\n")); err == nil {
		t.Error("unknown charset accepted")
	}
	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestCodecOptions(t *testing.T) {
	for _, name := range []string{"", "cp437", "CP850", "windows-1252", "latin1", "raw"} {
		if _, err := (Config{Charset: name}).codecOptions(); err != nil {
			t.Errorf("charset %q: %v", name, err)
		}
	}
	opts, _ := Config{Charset: "raw"}.codecOptions()
	if opts.Charset != nil {
		t.Errorf("raw charset = %v, want nil", opts.Charset)
	}
}
