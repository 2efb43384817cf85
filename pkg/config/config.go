package config

// Package config provides a reusable loader for iotcore configuration files
// and environment variables. It is versioned so that applications can depend
// on a stable API contract.
//
// Version: v0.1.0

import (
	"fmt"

	"github.com/spf13/viper"

	"iotcore/pkg/utils"
)

// Version is the semantic version of this configuration package.
const Version = "v0.1.0"

// Config represents the unified configuration for an iotcore process. It
// mirrors the structure of the YAML files under config/.
type Config struct {
	Bus struct {
		DefaultPollIntervalMS int  `mapstructure:"default_poll_interval_ms" json:"default_poll_interval_ms"`
		Retain                bool `mapstructure:"retain" json:"retain"`
	} `mapstructure:"bus" json:"bus"`

	Scheduler struct {
		DefaultPriority int `mapstructure:"default_priority" json:"default_priority"`
		MaxConcurrent   int `mapstructure:"max_concurrent" json:"max_concurrent"`
	} `mapstructure:"scheduler" json:"scheduler"`

	WorkerPool struct {
		Workers int `mapstructure:"workers" json:"workers"`
		Queue   int `mapstructure:"queue" json:"queue"`
	} `mapstructure:"worker_pool" json:"worker_pool"`

	BlockCache struct {
		BlockSize  int  `mapstructure:"block_size" json:"block_size"`
		ChunkCount int  `mapstructure:"chunk_count" json:"chunk_count"`
		Enabled    bool `mapstructure:"enabled" json:"enabled"`
	} `mapstructure:"block_cache" json:"block_cache"`

	HTTP struct {
		Enabled bool   `mapstructure:"enabled" json:"enabled"`
		Addr    string `mapstructure:"addr" json:"addr"`
	} `mapstructure:"http" json:"http"`

	Logging struct {
		Level string `mapstructure:"level" json:"level"`
		File  string `mapstructure:"file" json:"file"`
	} `mapstructure:"logging" json:"logging"`
}

// AppConfig holds the configuration loaded via Load or LoadFromEnv.
var AppConfig Config

// Load reads configuration files and merges any environment specific
// overrides. The resulting configuration is stored in AppConfig and returned.
//
// The function uses the provided environment name to merge additional config
// files. If env is empty, only the default configuration is loaded.
func Load(env string) (*Config, error) {
	viper.SetConfigName("default")
	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")
	setDefaults()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, utils.Wrap(err, "load config")
		}
	}

	if env != "" {
		viper.SetConfigName(env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, utils.Wrap(err, fmt.Sprintf("merge %s config", env))
		}
	}

	viper.AutomaticEnv() // picks up overrides from process environment variables

	if err := viper.Unmarshal(&AppConfig); err != nil {
		return nil, utils.Wrap(err, "unmarshal config")
	}
	return &AppConfig, nil
}

// LoadFromEnv loads configuration using the IOTCORE_ENV environment variable.
func LoadFromEnv() (*Config, error) {
	return Load(utils.EnvOrDefault("IOTCORE_ENV", ""))
}

func setDefaults() {
	viper.SetDefault("bus.default_poll_interval_ms", 1000)
	viper.SetDefault("bus.retain", true)
	viper.SetDefault("scheduler.default_priority", 0)
	viper.SetDefault("scheduler.max_concurrent", 1)
	viper.SetDefault("worker_pool.workers", 4)
	viper.SetDefault("worker_pool.queue", 64)
	viper.SetDefault("block_cache.block_size", 64)
	viper.SetDefault("block_cache.chunk_count", 256)
	viper.SetDefault("block_cache.enabled", true)
	viper.SetDefault("http.enabled", false)
	viper.SetDefault("http.addr", ":8080")
	viper.SetDefault("logging.level", "info")
}
