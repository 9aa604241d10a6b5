// Package config handles tool configuration loading and management.
package config

// Config holds all vmapview settings.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig points at the extracted client data directories.
type DataConfig struct {
	VmapDir        string `yaml:"vmap_dir"`         // tile spawn/index/model files
	MapDir         string `yaml:"map_dir"`          // terrain height/hole files
	ModelCacheSize int    `yaml:"model_cache_size"` // decoded world models kept in memory
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			VmapDir:        "vmaps",
			MapDir:         "maps",
			ModelCacheSize: 64,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
