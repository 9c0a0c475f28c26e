package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type BaseServerConfig struct {
	ShutdownTimeout string `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	Log       LogServerConfig       `mapstructure:"log"       yaml:"log"`
	Metadata  MetadataServerConfig  `mapstructure:"metadata"  yaml:"metadata"`
	Catalog   CatalogServerConfig   `mapstructure:"catalog"   yaml:"catalog"`
	Reference ReferenceServerConfig `mapstructure:"reference" yaml:"reference"`
	Reconcile ReconcileServerConfig `mapstructure:"reconcile" yaml:"reconcile"`
	Scan      ScanServerConfig      `mapstructure:"scan"      yaml:"scan"`
}

func LoadServerConfig() (*BaseServerConfig, error) {
	cfg := &BaseServerConfig{}

	setDefaults()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks values that cannot be expressed through defaults alone
func (cfg *BaseServerConfig) Validate() error {
	if cfg.Metadata.Type != "sqlite" {
		return fmt.Errorf("unsupported metadata store type %q", cfg.Metadata.Type)
	}
	if cfg.Metadata.SQLite.Path == "" {
		return fmt.Errorf("metadata.sqlite.path must not be empty")
	}

	prefix := cfg.Reference.Prefix
	if prefix == "" || strings.Contains(prefix, "-") {
		return fmt.Errorf("reference.prefix must be non-empty and must not contain '-'")
	}

	if _, err := cfg.Reconcile.ParseStrictness(); err != nil {
		return err
	}
	if _, err := time.ParseDuration(cfg.Reconcile.Interval); err != nil {
		return fmt.Errorf("reconcile.interval: %w", err)
	}

	if cfg.Scan.ChunkSize <= 0 {
		return fmt.Errorf("scan.chunk_size must be positive")
	}

	return nil
}
