package main

import (
	"errors"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/ukaji3/sheetcore-go/pkg/sheet"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/codec"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/models"
	"gopkg.in/yaml.v3"
)

// defaultConfigPath is read when --config is not given and the file exists.
const defaultConfigPath = "sheetcore.yaml"

// Config holds everything needed to open a sheet from the command line.
type Config struct {
	File       string            `yaml:"file"`
	Delimiter  string            `yaml:"delimiter"`
	FormatMode string            `yaml:"format_mode"`
	Debounce   time.Duration     `yaml:"debounce"`
	LogLevel   string            `yaml:"log_level"`
	LogFormat  string            `yaml:"log_format"`
	Watches    []models.WatchDef `yaml:"watches"`
}

// loadConfig reads a YAML config file. A missing default config is not an
// error; a missing explicit one is.
func loadConfig(path string, explicit bool) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.File == "" {
		return nil, errors.New("file is a required configuration field and cannot be empty")
	}
	if cfg.Delimiter == "" {
		cfg.Delimiter = ","
	}
	if utf8.RuneCountInString(cfg.Delimiter) != 1 {
		return nil, fmt.Errorf("delimiter must be a single character, got %q", cfg.Delimiter)
	}
	switch codec.FormatMode(cfg.FormatMode) {
	case "":
		cfg.FormatMode = string(codec.FormatAuto)
	case codec.FormatAuto, codec.FormatAlways, codec.FormatNever:
	default:
		return nil, fmt.Errorf("format_mode must be auto, always or never, got %q", cfg.FormatMode)
	}
	if cfg.Debounce < 0 {
		return nil, fmt.Errorf("debounce must not be negative, got %s", cfg.Debounce)
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = sheet.DefaultDebounce
	}
	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("log_level must be debug, info, warn or error, got %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		return nil, fmt.Errorf("log_format must be text or json, got %q", cfg.LogFormat)
	}

	seen := make(map[string]bool, len(cfg.Watches))
	for i, w := range cfg.Watches {
		if w.Name == "" || w.Query == "" {
			return nil, fmt.Errorf("watches[%d]: name and query are required", i)
		}
		if seen[w.Name] {
			return nil, fmt.Errorf("watches[%d]: duplicate name %q", i, w.Name)
		}
		seen[w.Name] = true
	}
	return &cfg, nil
}

// Options converts the config into engine options.
func (c *Config) Options() sheet.Options {
	opts := sheet.DefaultOptions()
	opts.Delimiter, _ = utf8.DecodeRuneInString(c.Delimiter)
	opts.FormatMode = codec.FormatMode(c.FormatMode)
	opts.Debounce = c.Debounce
	return opts
}
