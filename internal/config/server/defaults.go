package server

import "github.com/spf13/viper"

func GetServerDefault() BaseServerConfig {
	return BaseServerConfig{
		ShutdownTimeout: "10s",

		Log: LogServerConfig{
			Level:      "INFO",
			TimeFormat: "2006-01-02 15:04:05",
			File:       "",
			NoColor:    false,
			JSON:       false,
			NoTerminal: false,
			SQL:        false,
			Rotation: LogServerRotationConfig{
				MaxSize:    128,
				MaxBackups: 5,
				MaxAge:     16,
				Compress:   false,
			},
		},
		Metadata: MetadataServerConfig{
			Type: "sqlite",
			SQLite: MetadataSQLiteConfig{
				Path: "photocat.db",
			},
		},
		Catalog: CatalogServerConfig{
			ProjectDir:   "",
			CopyOnImport: false,
		},
		Reference: ReferenceServerConfig{
			Prefix:     "REF",
			DailyReset: false,
		},
		Reconcile: ReconcileServerConfig{
			Interval:   "1h",
			Strictness: StrictnessExistence,
		},
		Scan: ScanServerConfig{
			ChunkSize: 32 * 1024,
		},
	}
}

func setDefaults() {
	defaults := GetServerDefault()

	viper.SetDefault("shutdown_timeout", defaults.ShutdownTimeout)

	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("log.time_format", defaults.Log.TimeFormat)
	viper.SetDefault("log.file", defaults.Log.File)
	viper.SetDefault("log.no_color", defaults.Log.NoColor)
	viper.SetDefault("log.json", defaults.Log.JSON)
	viper.SetDefault("log.no_terminal", defaults.Log.NoTerminal)
	viper.SetDefault("log.sql", defaults.Log.SQL)
	viper.SetDefault("log.rotation.max_size", defaults.Log.Rotation.MaxSize)
	viper.SetDefault("log.rotation.max_backups", defaults.Log.Rotation.MaxBackups)
	viper.SetDefault("log.rotation.max_age", defaults.Log.Rotation.MaxAge)
	viper.SetDefault("log.rotation.compress", defaults.Log.Rotation.Compress)

	viper.SetDefault("metadata.type", defaults.Metadata.Type)
	viper.SetDefault("metadata.sqlite.path", defaults.Metadata.SQLite.Path)

	viper.SetDefault("catalog.project_dir", defaults.Catalog.ProjectDir)
	viper.SetDefault("catalog.copy_on_import", defaults.Catalog.CopyOnImport)

	viper.SetDefault("reference.prefix", defaults.Reference.Prefix)
	viper.SetDefault("reference.daily_reset", defaults.Reference.DailyReset)

	viper.SetDefault("reconcile.interval", defaults.Reconcile.Interval)
	viper.SetDefault("reconcile.strictness", defaults.Reconcile.Strictness)

	viper.SetDefault("scan.chunk_size", defaults.Scan.ChunkSize)
}
