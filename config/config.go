// Package config loads the server configuration: a TOML file merged over
// built-in defaults, with a handful of flag overrides applied by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	defaultPort         = 8080
	defaultLogLevel     = "info"
	defaultLogMaxSizeMB = 10
	defaultLogMaxFiles  = 5
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Storage StorageConfig `toml:"storage"`
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
}

type StorageConfig struct {
	// Dir holds the store files, one per entity family. Empty means the
	// per-user application-data directory.
	Dir string `toml:"dir"`
}

type ServerConfig struct {
	Port int `toml:"port"`
}

type LoggingConfig struct {
	Level     string `toml:"level"`
	File      string `toml:"file"`
	MaxSizeMB int    `toml:"max_size_mb"`
	MaxFiles  int    `toml:"max_files"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Port: defaultPort},
		Logging: LoggingConfig{
			Level:     defaultLogLevel,
			MaxSizeMB: defaultLogMaxSizeMB,
			MaxFiles:  defaultLogMaxFiles,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error: the
// defaults apply unchanged. An empty path skips the file entirely.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Logging.Level)
	}
	return nil
}
