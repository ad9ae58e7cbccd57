// Package config loads optional ttverify settings from YAML.
//
//	db: runs.db
//	metrics_file: /var/lib/node_exporter/ttverify.prom
//	strict: true
//	separator: "----------"
//	decoder:
//	  cache: true
//
// Command-line flags override file values.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no --config flag
// is given.
const DefaultFile = "ttverify.yaml"

// Config holds settings shared by the verify and test commands.
type Config struct {
	DB          string        `yaml:"db"`
	MetricsFile string        `yaml:"metrics_file"`
	Strict      bool          `yaml:"strict"`
	Separator   string        `yaml:"separator"`
	Decoder     DecoderConfig `yaml:"decoder"`
}

type DecoderConfig struct {
	Cache *bool `yaml:"cache"`
}

// CacheEnabled reports whether decoded instructions are memoized by content.
func (d DecoderConfig) CacheEnabled() bool {
	return d.Cache == nil || *d.Cache
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadOptional behaves like Load but returns Default when path does not
// exist.
func LoadOptional(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func (c *Config) applyDefaults() {
	if c.Separator == "" {
		c.Separator = "----------"
	}
}

func (c *Config) validate() error {
	if strings.ContainsAny(c.Separator, "\r\n") {
		return errors.New("separator must be a single line")
	}
	if strings.HasPrefix(c.Separator, "Maximum latency") || strings.HasPrefix(c.Separator, "UNKNOWN latency") {
		return errors.New("separator must not look like a report line")
	}
	return nil
}
