package server

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := LoadServerConfig()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Metadata.Type)
	assert.Equal(t, "photocat.db", cfg.Metadata.SQLite.Path)
	assert.Equal(t, "REF", cfg.Reference.Prefix)
	assert.False(t, cfg.Reference.DailyReset)
	assert.Equal(t, "1h", cfg.Reconcile.Interval)
	assert.Equal(t, StrictnessExistence, cfg.Reconcile.Strictness)
	assert.Equal(t, 32*1024, cfg.Scan.ChunkSize)
}

func TestLoadServerConfigOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("reference.prefix", "IMG")
	viper.Set("reference.daily_reset", true)
	viper.Set("reconcile.strictness", "content")
	viper.Set("catalog.project_dir", "/srv/photos")

	cfg, err := LoadServerConfig()
	require.NoError(t, err)

	assert.Equal(t, "IMG", cfg.Reference.Prefix)
	assert.True(t, cfg.Reference.DailyReset)
	assert.Equal(t, "content", cfg.Reconcile.Strictness)
	assert.Equal(t, "/srv/photos", cfg.Catalog.ProjectDir)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *BaseServerConfig)
		valid  bool
	}{
		{"defaults", func(cfg *BaseServerConfig) {}, true},
		{"unsupported store", func(cfg *BaseServerConfig) { cfg.Metadata.Type = "postgres" }, false},
		{"empty path", func(cfg *BaseServerConfig) { cfg.Metadata.SQLite.Path = "" }, false},
		{"empty prefix", func(cfg *BaseServerConfig) { cfg.Reference.Prefix = "" }, false},
		{"prefix with delimiter", func(cfg *BaseServerConfig) { cfg.Reference.Prefix = "A-B" }, false},
		{"unknown strictness", func(cfg *BaseServerConfig) { cfg.Reconcile.Strictness = "paranoid" }, false},
		{"uppercase strictness", func(cfg *BaseServerConfig) { cfg.Reconcile.Strictness = "CONTENT" }, true},
		{"bad interval", func(cfg *BaseServerConfig) { cfg.Reconcile.Interval = "hourly" }, false},
		{"zero chunk size", func(cfg *BaseServerConfig) { cfg.Scan.ChunkSize = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetServerDefault()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestParseStrictness(t *testing.T) {
	level, err := ReconcileServerConfig{}.ParseStrictness()
	require.NoError(t, err)
	assert.Equal(t, StrictnessExistence, level)

	level, err = ReconcileServerConfig{Strictness: "Content"}.ParseStrictness()
	require.NoError(t, err)
	assert.Equal(t, StrictnessContent, level)

	_, err = ReconcileServerConfig{Strictness: "bytes"}.ParseStrictness()
	assert.Error(t, err)
}
