package config

import (
	"os"
	"testing"
	"time"
)

type testConfig struct {
	Name     string        `yaml:"name" env:"NW_NAME"`
	Port     int           `yaml:"port" env:"NW_PORT"`
	Debug    bool          `yaml:"debug" env:"NW_DEBUG"`
	Interval time.Duration `yaml:"interval" env:"NW_INTERVAL"`
	Database struct {
		Path string `yaml:"path" env:"NW_DB_PATH"`
	} `yaml:"database"`
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	f.WriteString(content)
	f.Close()
	return f.Name()
}

func TestLoad(t *testing.T) {
	path := writeTempConfig(t, `
name: newswire
port: 8080
interval: 30m
database:
  path: news.db
`)

	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatal(err)
	}

	if cfg.Name != "newswire" {
		t.Fatalf("expected 'newswire', got '%s'", cfg.Name)
	}
	if cfg.Port != 8080 {
		t.Fatalf("expected 8080, got %d", cfg.Port)
	}
	if cfg.Interval != 30*time.Minute {
		t.Fatalf("expected 30m, got %s", cfg.Interval)
	}
	if cfg.Database.Path != "news.db" {
		t.Fatalf("expected 'news.db', got '%s'", cfg.Database.Path)
	}
}

func TestEnvOverride(t *testing.T) {
	path := writeTempConfig(t, `
name: default
port: 3000
interval: 10m
`)

	t.Setenv("NW_NAME", "from-env")
	t.Setenv("NW_PORT", "9090")
	t.Setenv("NW_DEBUG", "true")
	t.Setenv("NW_INTERVAL", "45s")
	t.Setenv("NW_DB_PATH", "/tmp/override.db")

	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatal(err)
	}

	if cfg.Name != "from-env" {
		t.Fatalf("expected 'from-env', got '%s'", cfg.Name)
	}
	if cfg.Port != 9090 {
		t.Fatalf("expected 9090, got %d", cfg.Port)
	}
	if !cfg.Debug {
		t.Fatal("expected debug to be true from env")
	}
	if cfg.Interval != 45*time.Second {
		t.Fatalf("expected 45s, got %s", cfg.Interval)
	}
	if cfg.Database.Path != "/tmp/override.db" {
		t.Fatalf("expected nested override, got '%s'", cfg.Database.Path)
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg := testConfig{Name: "preset"}
	if err := LoadOrDefault("/nonexistent/config.yaml", &cfg); err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.Name != "preset" {
		t.Fatalf("expected preset value kept, got '%s'", cfg.Name)
	}
}
