package server

import (
	"fmt"
	"strings"
)

// MetadataServerConfig selects the catalog database. Only "sqlite" is supported.
type MetadataServerConfig struct {
	Type   string               `mapstructure:"type"   yaml:"type"`
	SQLite MetadataSQLiteConfig `mapstructure:"sqlite" yaml:"sqlite"`
}

type MetadataSQLiteConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// CatalogServerConfig controls the managed project folder
type CatalogServerConfig struct {
	ProjectDir   string `mapstructure:"project_dir"    yaml:"project_dir"`
	CopyOnImport bool   `mapstructure:"copy_on_import" yaml:"copy_on_import"`
}

// ReferenceServerConfig configures the reference code allocator
type ReferenceServerConfig struct {
	Prefix     string `mapstructure:"prefix"      yaml:"prefix"`
	DailyReset bool   `mapstructure:"daily_reset" yaml:"daily_reset"`
}

// ReconcileServerConfig configures location reconciliation
type ReconcileServerConfig struct {
	Interval   string `mapstructure:"interval"   yaml:"interval"`
	Strictness string `mapstructure:"strictness" yaml:"strictness"`
}

const (
	StrictnessExistence = "existence"
	StrictnessContent   = "content"
)

// ParseStrictness normalizes the configured strictness level
func (cfg ReconcileServerConfig) ParseStrictness() (string, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Strictness)) {
	case "", StrictnessExistence:
		return StrictnessExistence, nil
	case StrictnessContent:
		return StrictnessContent, nil
	}
	return "", fmt.Errorf("unknown reconcile strictness %q", cfg.Strictness)
}

// ScanServerConfig configures content hashing
type ScanServerConfig struct {
	ChunkSize int `mapstructure:"chunk_size" yaml:"chunk_size"`
}
