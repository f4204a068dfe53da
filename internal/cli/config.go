package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"

	"github.com/eunmann/catras/pkg/catras"
	"github.com/eunmann/catras/pkg/s3fetch"
	"github.com/eunmann/catras/pkg/source"
)

// ConfigEnv names the environment variable consulted when --config is not
// given.
const ConfigEnv = "CATRAS_CONFIG"

// Config is the optional YAML configuration file. Flags given on the
// command line override it.
type Config struct {
	Concurrency int      `yaml:"concurrency"`
	Charset     string   `yaml:"charset"`
	MaxFileSize int64    `yaml:"max_file_size"`
	S3          S3Config `yaml:"s3"`
	Log         struct {
		Debug bool `yaml:"debug"`
		Human bool `yaml:"human"`
	} `yaml:"log"`
}

// S3Config configures access to S3 or an S3-compatible store.
type S3Config struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

func (c S3Config) options() s3fetch.ClientOptions {
	return s3fetch.ClientOptions{Region: c.Region, Endpoint: c.Endpoint, PathStyle: c.PathStyle}
}

// DefaultConfig returns the configuration used without a file.
func DefaultConfig() Config {
	return Config{Charset: "cp437", MaxFileSize: source.MaxFileSize}
}

// LoadConfig reads path over DefaultConfig. An empty path falls back to
// $CATRAS_CONFIG; if that is unset too, the defaults are returned.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path == "" {
		return cfg, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if _, err := cfg.charset(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

var charsets = map[string]*charmap.Charmap{
	"cp437":        charmap.CodePage437,
	"cp850":        charmap.CodePage850,
	"cp1252":       charmap.Windows1252,
	"windows-1252": charmap.Windows1252,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-1":   charmap.ISO8859_1,
	"raw":          nil,
}

func (c Config) charset() (*charmap.Charmap, error) {
	name := strings.ToLower(strings.TrimSpace(c.Charset))
	if name == "" {
		return charmap.CodePage437, nil
	}
	cm, ok := charsets[name]
	if !ok {
		return nil, fmt.Errorf("unknown charset %q (supported: cp437, cp850, cp1252, latin1, raw)", c.Charset)
	}
	return cm, nil
}

// codecOptions builds the codec options for c.
func (c Config) codecOptions() (catras.Options, error) {
	cm, err := c.charset()
	if err != nil {
		return catras.Options{}, err
	}
	return catras.Options{Charset: cm}, nil
}
