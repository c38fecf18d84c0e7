package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Cache.Backend != cacheBackendFile {
		t.Errorf("Cache.Backend = %q, want %q", cfg.Cache.Backend, cacheBackendFile)
	}
	if cfg.Serve.Addr != ":8080" {
		t.Errorf("Serve.Addr = %q, want :8080", cfg.Serve.Addr)
	}
	if cfg.Serve.GraphTTL.Duration() != time.Hour {
		t.Errorf("Serve.GraphTTL = %v, want 1h", cfg.Serve.GraphTTL.Duration())
	}
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cellgraph.toml")
	content := `
[cache]
backend = "redis"

[cache.redis]
addr = "cache.internal:6379"
db = 3

[serve]
addr = ":9090"
graph_ttl = "30m"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CELLGRAPH_CONFIG", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Cache.Backend != cacheBackendRedis {
		t.Errorf("Cache.Backend = %q, want redis", cfg.Cache.Backend)
	}
	if cfg.Cache.Redis.Addr != "cache.internal:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Cache.Redis.Addr)
	}
	if cfg.Cache.Redis.DB != 3 {
		t.Errorf("Redis.DB = %d, want 3", cfg.Cache.Redis.DB)
	}
	if cfg.Serve.Addr != ":9090" {
		t.Errorf("Serve.Addr = %q, want :9090", cfg.Serve.Addr)
	}
	if cfg.Serve.GraphTTL.Duration() != 30*time.Minute {
		t.Errorf("Serve.GraphTTL = %v, want 30m", cfg.Serve.GraphTTL.Duration())
	}
}

func TestLoadConfigPartialFile(t *testing.T) {
	// Keys absent from the file keep their defaults.
	path := filepath.Join(t.TempDir(), "cellgraph.toml")
	if err := os.WriteFile(path, []byte("[cache]\nbackend = \"none\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CELLGRAPH_CONFIG", path)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Cache.Backend != cacheBackendNone {
		t.Errorf("Cache.Backend = %q, want none", cfg.Cache.Backend)
	}
	if cfg.Serve.Addr != ":8080" {
		t.Errorf("Serve.Addr = %q, want default :8080", cfg.Serve.Addr)
	}
}

func TestLoadConfigInvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cellgraph.toml")
	if err := os.WriteFile(path, []byte("[serve]\ngraph_ttl = \"soon\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CELLGRAPH_CONFIG", path)

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() error = nil, want duration parse failure")
	}
	if cfg := LoadConfigOrDefault(); cfg.Serve.GraphTTL.Duration() != time.Hour {
		t.Errorf("LoadConfigOrDefault() GraphTTL = %v, want default 1h", cfg.Serve.GraphTTL.Duration())
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("CELLGRAPH_CONFIG", filepath.Join(t.TempDir(), "absent.toml"))
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Cache.Backend != cacheBackendFile {
		t.Errorf("Cache.Backend = %q, want default file", cfg.Cache.Backend)
	}
}
