// Package seqconfig loads the ambient configuration shared by cmd/fieldctl
// and cmd/fieldmcp: which oracle mode to run, where the lattice store and
// audit log live, and logging level/format. The core algebra packages
// (pkg/compose, pkg/invert, pkg/rebase, ...) never import this package —
// they take revision metadata as an explicit parameter and take no oracle
// mode at all: compose and rebase always build a pkg/oracle.ModeTombstone
// oracle.
package seqconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the top-level application configuration.
type Config struct {
	Log       LogConfig       `json:"log"`
	Oracle    OracleConfig    `json:"oracle"`
	Store     StoreConfig     `json:"store"`
	Audit     AuditConfig     `json:"audit"`
	Report    ReportConfig    `json:"report"`
}

// LogConfig controls pkg/telemetry's logger construction.
type LogConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json or console
}

// OracleConfig names a cell-order oracle mode. Load validates it; no
// operator reads it (compose and rebase always use ModeTombstone).
type OracleConfig struct {
	// Mode is "tombstone" or "lineage"; see pkg/oracle.Mode and
	// DESIGN.md's Open Question resolution for why tombstone is the
	// shipped default.
	Mode string `json:"mode"`
}

// StoreConfig configures internal/latticestore's badger-backed arena.
type StoreConfig struct {
	Dir            string        `json:"dir"`
	GCInterval     time.Duration `json:"gc_interval"`
	ValueLogGC     float64       `json:"value_log_gc_ratio"`
}

// AuditConfig configures internal/auditlog's sqlite-backed call log.
type AuditConfig struct {
	Path string `json:"path"`
}

// ReportConfig configures internal/report's xlsx trace export.
type ReportConfig struct {
	OutputDir string `json:"output_dir"`
}

// Default returns the configuration used when no config file is given.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Oracle: OracleConfig{
			Mode: "tombstone",
		},
		Store: StoreConfig{
			Dir:        "./fieldctl-data/lattice",
			GCInterval: 5 * time.Minute,
			ValueLogGC: 0.5,
		},
		Audit: AuditConfig{
			Path: "./fieldctl-data/audit.db",
		},
		Report: ReportConfig{
			OutputDir: "./fieldctl-data/reports",
		},
	}
}

// Load reads a JSON config file, falling back to Default when path is
// empty. Fields omitted from the file keep their default value.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("seqconfig: config file does not exist: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seqconfig: reading config file: %w", err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("seqconfig: parsing config file: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault tries SEQFIELD_CONFIG, then ./fieldctl.json, falling back
// to Default on any failure.
func LoadOrDefault() *Config {
	if envPath := os.Getenv("SEQFIELD_CONFIG"); envPath != "" {
		if cfg, err := Load(envPath); err == nil {
			return cfg
		}
	}
	if abs, err := filepath.Abs("fieldctl.json"); err == nil {
		if cfg, err := Load(abs); err == nil {
			return cfg
		}
	}
	return Default()
}

func validate(cfg *Config) error {
	switch cfg.Oracle.Mode {
	case "tombstone", "lineage":
	default:
		return fmt.Errorf("seqconfig: invalid oracle mode: %q", cfg.Oracle.Mode)
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("seqconfig: invalid log level: %q", cfg.Log.Level)
	}
	if cfg.Store.GCInterval <= 0 {
		return fmt.Errorf("seqconfig: store.gc_interval must be positive")
	}
	return nil
}
