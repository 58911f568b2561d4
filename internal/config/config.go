// Package config loads novelbackup settings.
//
// Settings come from three layers, later layers winning:
//
//  1. built-in defaults (Default)
//  2. an optional YAML file (unknown keys are rejected)
//  3. NOVELBACKUP_* environment variables
//
// Command-line flags are applied on top by the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roach88/novelbackup/internal/archive"
	"github.com/roach88/novelbackup/internal/logging"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "NOVELBACKUP_"

// Config holds runtime settings.
type Config struct {
	// StorePath is the snapshot database. Empty disables snapshot commands.
	StorePath string `yaml:"store_path" env:"STORE_PATH"`

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"`

	// ChapterExtensions lists the archive entry extensions treated as chapters.
	ChapterExtensions []string `yaml:"chapter_extensions" env:"CHAPTER_EXTENSIONS" envSeparator:","`

	// DefaultAuthor is used by build when --author is not given.
	DefaultAuthor string `yaml:"default_author" env:"DEFAULT_AUTHOR"`

	// OutputFormat is the default for --format (text or json).
	OutputFormat string `yaml:"output_format" env:"OUTPUT_FORMAT"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:          "warn",
		LogFormat:         string(logging.FormatText),
		ChapterExtensions: append([]string(nil), archive.DefaultExtensions...),
		OutputFormat:      "text",
	}
}

// Load builds a Config from defaults, the YAML file at path and the
// environment. A missing file is not an error; path may be empty.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// defaults only
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := decodeYAML(bytes.NewReader(data), cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeYAML(r io.Reader, cfg *Config) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks that every enumerated setting has a known value.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: log_level: %w", err)
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return fmt.Errorf("config: log_format: %w", err)
	}
	switch strings.ToLower(c.OutputFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("config: output_format: unknown format %q (want text or json)", c.OutputFormat)
	}
	if len(archive.NormalizeExtensions(c.ChapterExtensions)) == 0 {
		return errors.New("config: chapter_extensions: no usable extension")
	}
	return nil
}
