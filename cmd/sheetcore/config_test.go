package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/codec"
	"github.com/ukaji3/sheetcore-go/pkg/sheet/models"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sheetcore.yaml")
	content := `file: orders.csv
delimiter: ";"
format_mode: always
debounce: 50ms
log_level: debug
watches:
  - name: big
    query: SELECT * FROM data WHERE Amount > 1000
    action: log
    params:
      channel: ops
    once: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	raw, err := loadConfig(path, true)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	cfg, err := NewConfig(raw)
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	want := &Config{
		File:       "orders.csv",
		Delimiter:  ";",
		FormatMode: "always",
		Debounce:   50 * time.Millisecond,
		LogLevel:   "debug",
		LogFormat:  "text",
		Watches: []models.WatchDef{{
			Name:   "big",
			Query:  "SELECT * FROM data WHERE Amount > 1000",
			Action: "log",
			Params: map[string]any{"channel": "ops"},
			Once:   true,
		}},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	opts := cfg.Options()
	if opts.Delimiter != ';' || opts.FormatMode != codec.FormatAlways || opts.Debounce != 50*time.Millisecond {
		t.Errorf("unexpected options %+v", opts)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := loadConfig(path, false); err != nil {
		t.Errorf("missing default config should be ignored, got %v", err)
	}
	if _, err := loadConfig(path, true); err == nil {
		t.Error("missing explicit config should fail")
	}
}

func TestNewConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "missing file", cfg: Config{}, wantErr: "file is a required"},
		{name: "long delimiter", cfg: Config{File: "a.csv", Delimiter: ";;"}, wantErr: "single character"},
		{name: "bad format mode", cfg: Config{File: "a.csv", FormatMode: "sometimes"}, wantErr: "format_mode"},
		{name: "negative debounce", cfg: Config{File: "a.csv", Debounce: -time.Second}, wantErr: "debounce"},
		{name: "bad log level", cfg: Config{File: "a.csv", LogLevel: "loud"}, wantErr: "log_level"},
		{name: "bad log format", cfg: Config{File: "a.csv", LogFormat: "xml"}, wantErr: "log_format"},
		{
			name:    "watch without query",
			cfg:     Config{File: "a.csv", Watches: []models.WatchDef{{Name: "w"}}},
			wantErr: "name and query are required",
		},
		{
			name: "duplicate watch",
			cfg: Config{File: "a.csv", Watches: []models.WatchDef{
				{Name: "w", Query: "SELECT 1"},
				{Name: "w", Query: "SELECT 2"},
			}},
			wantErr: "duplicate name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfig(tt.cfg)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewConfig() error = %v, expected it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig(Config{File: "a.csv"})
	if err != nil {
		t.Fatalf("NewConfig failed: %v", err)
	}
	if cfg.Delimiter != "," || cfg.FormatMode != "auto" || cfg.Debounce != 200*time.Millisecond ||
		cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}
