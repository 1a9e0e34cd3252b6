// Copyright 2024 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads qrserver configuration from a YAML file, a
// .env file and QRGEN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/unixdj/qrgen/coding"
	"github.com/unixdj/qrgen/render"
	"github.com/unixdj/qrgen/split"
)

// EnvPrefix prefixes environment variables overriding the config.
const EnvPrefix = "QRGEN_"

// Encoder names.
const (
	EncoderNative = "native"
	EncoderSkip2  = "skip2"
)

// Defaults are request parameters used when a request omits them.
type Defaults struct {
	Level      string `yaml:"level"`
	Size       string `yaml:"size"`
	Format     string `yaml:"format"`
	Foreground string `yaml:"foreground"`
	Background string `yaml:"background"`
	Charset    string `yaml:"charset"`
}

// Config holds qrserver configuration.
type Config struct {
	Addr         string   `yaml:"addr"`
	Encoder      string   `yaml:"encoder"`
	LogLevel     string   `yaml:"log_level"`
	LogFormat    string   `yaml:"log_format"`
	CacheSize    int      `yaml:"cache_size"`  // rendered images kept
	MaxContent   int      `yaml:"max_content"` // bytes of content accepted
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	Defaults     Defaults `yaml:"defaults"`
}

// Duration is a time.Duration read from strings like "30s".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Addr:         ":8080",
		Encoder:      EncoderNative,
		LogLevel:     "info",
		LogFormat:    "text",
		CacheSize:    256,
		MaxContent:   4096,
		ReadTimeout:  Duration{10 * time.Second},
		WriteTimeout: Duration{30 * time.Second},
		Defaults: Defaults{
			Level:      "M",
			Size:       "medium",
			Format:     "png",
			Foreground: "#000000",
			Background: "#ffffff",
			Charset:    "utf-8",
		},
	}
}

// Load reads the YAML file at path, falling back to defaults if it
// does not exist.  Variables from envFile (if it exists) are added to
// the environment, and QRGEN_* variables override the file.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv applies QRGEN_* overrides from lookup.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"ADDR":               &c.Addr,
		"ENCODER":            &c.Encoder,
		"LOG_LEVEL":          &c.LogLevel,
		"LOG_FORMAT":         &c.LogFormat,
		"DEFAULT_LEVEL":      &c.Defaults.Level,
		"DEFAULT_SIZE":       &c.Defaults.Size,
		"DEFAULT_FORMAT":     &c.Defaults.Format,
		"DEFAULT_FOREGROUND": &c.Defaults.Foreground,
		"DEFAULT_BACKGROUND": &c.Defaults.Background,
		"DEFAULT_CHARSET":    &c.Defaults.Charset,
	}
	for k, p := range str {
		if v, ok := lookup(EnvPrefix + k); ok && v != "" {
			*p = v
		}
	}
	num := map[string]*int{
		"CACHE_SIZE":  &c.CacheSize,
		"MAX_CONTENT": &c.MaxContent,
	}
	for k, p := range num {
		if v, ok := lookup(EnvPrefix + k); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, k, err)
			}
			*p = n
		}
	}
	dur := map[string]*Duration{
		"READ_TIMEOUT":  &c.ReadTimeout,
		"WRITE_TIMEOUT": &c.WriteTimeout,
	}
	for k, p := range dur {
		if v, ok := lookup(EnvPrefix + k); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", EnvPrefix, k, err)
			}
			p.Duration = d
		}
	}
	return nil
}

// Validate checks that c holds usable values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Encoder) {
	case EncoderNative, EncoderSkip2:
	default:
		return fmt.Errorf("config: unknown encoder %q", c.Encoder)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.LogFormat)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("config: negative cache size %d", c.CacheSize)
	}
	if c.MaxContent <= 0 {
		return fmt.Errorf("config: max content must be positive, got %d", c.MaxContent)
	}
	d := c.Defaults
	if _, err := coding.ParseLevel(d.Level); err != nil {
		return fmt.Errorf("config: default level: %w", err)
	}
	if _, err := render.SizePreset(d.Size); err != nil {
		return fmt.Errorf("config: default size: %w", err)
	}
	if _, err := render.ParseKind(d.Format); err != nil {
		return fmt.Errorf("config: default format: %w", err)
	}
	for _, s := range []string{d.Foreground, d.Background} {
		if _, err := render.ParseColor(s); err != nil {
			return fmt.Errorf("config: default colour: %w", err)
		}
	}
	if _, err := split.LookupCharset(d.Charset); err != nil {
		return fmt.Errorf("config: default charset: %w", err)
	}
	return nil
}
