package cli

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Cache backend names accepted in the config file.
const (
	cacheBackendFile  = "file"
	cacheBackendRedis = "redis"
	cacheBackendNone  = "none"
)

// Config is the cellgraph.toml configuration.
//
// Lookup order: $CELLGRAPH_CONFIG, ./cellgraph.toml, then
// $XDG_CONFIG_HOME/cellgraph/cellgraph.toml (or ~/.config/cellgraph/).
// Missing files are fine; defaults apply.
type Config struct {
	Cache CacheConfig `toml:"cache"`
	Serve ServeConfig `toml:"serve"`
}

// CacheConfig selects the artifact cache backend.
type CacheConfig struct {
	Backend string      `toml:"backend"`
	Redis   RedisConfig `toml:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// ServeConfig holds HTTP server settings.
type ServeConfig struct {
	Addr     string       `toml:"addr"`
	GraphTTL tomlDuration `toml:"graph_ttl"`
}

// tomlDuration parses durations from strings like "30m" or "1h".
type tomlDuration time.Duration

func (d *tomlDuration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = tomlDuration(parsed)
	return nil
}

// Duration returns the underlying time.Duration.
func (d tomlDuration) Duration() time.Duration {
	return time.Duration(d)
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Backend: cacheBackendFile,
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Serve: ServeConfig{
			Addr:     ":8080",
			GraphTTL: tomlDuration(time.Hour),
		},
	}
}

// LoadConfig reads the first config file found in the lookup order and
// merges it over the defaults. If no file exists, defaults are returned.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()
	path, ok := findConfig()
	if !ok {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigOrDefault is LoadConfig with parse errors swallowed into
// defaults. Used at CLI construction where there is no logger yet.
func LoadConfigOrDefault() *Config {
	cfg, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return cfg
}

func findConfig() (string, bool) {
	var candidates []string
	if env := os.Getenv("CELLGRAPH_CONFIG"); env != "" {
		candidates = append(candidates, env)
	}
	candidates = append(candidates, "cellgraph.toml")
	if dir, err := configDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "cellgraph.toml"))
	}
	for _, path := range candidates {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// configDir returns the config directory using XDG standard (~/.config/cellgraph/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
