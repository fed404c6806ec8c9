package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// No config file on the default search paths yields pure defaults.
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load with defaults failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected default driver sqlite, got %s", cfg.Database.Driver)
	}
	if cfg.Provider.BaseURL != "https://clipdrop-api.co" {
		t.Errorf("unexpected default provider base URL %s", cfg.Provider.BaseURL)
	}
	if cfg.Provider.Timeout != 120*time.Second {
		t.Errorf("expected default provider timeout 120s, got %v", cfg.Provider.Timeout)
	}
	if cfg.Generation.MinImageBytes != 1000 {
		t.Errorf("expected default min image bytes 1000, got %d", cfg.Generation.MinImageBytes)
	}
	if cfg.Generation.UploadMaxAttempts != 3 {
		t.Errorf("expected default upload attempts 3, got %d", cfg.Generation.UploadMaxAttempts)
	}
	if cfg.Auth.SessionTTL != 7*24*time.Hour {
		t.Errorf("expected default session TTL of 7 days, got %v", cfg.Auth.SessionTTL)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 9000
  mode: release
database:
  driver: postgres
  host: db.internal
  port: 5432
  user: thumblify
  name: thumblify
generation:
  upload_max_attempts: 5
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Server.Mode != "release" {
		t.Errorf("expected release mode, got %s", cfg.Server.Mode)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("expected postgres driver, got %s", cfg.Database.Driver)
	}
	if cfg.Generation.UploadMaxAttempts != 5 {
		t.Errorf("expected 5 upload attempts, got %d", cfg.Generation.UploadMaxAttempts)
	}
	// Untouched sections keep their defaults.
	if cfg.Generation.MinImageBytes != 1000 {
		t.Errorf("expected default min image bytes, got %d", cfg.Generation.MinImageBytes)
	}
}

func TestDSN(t *testing.T) {
	pg := DatabaseConfig{
		Driver: "postgres", Host: "db.internal", Port: 5432,
		User: "thumblify", Password: "secret", Name: "thumblify", SSLMode: "disable",
	}
	want := "host=db.internal port=5432 user=thumblify password=secret dbname=thumblify sslmode=disable"
	if got := pg.DSN(); got != want {
		t.Errorf("unexpected postgres DSN: %s", got)
	}

	lite := DatabaseConfig{Driver: "sqlite", Path: "./data/app.db"}
	if got := lite.DSN(); got != "./data/app.db" {
		t.Errorf("unexpected sqlite DSN: %s", got)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		Provider: ProviderConfig{APIKey: "key"},
		Storage: StorageConfig{
			Endpoint:  "https://accid.r2.cloudflarestorage.com",
			AccessKey: "ak",
			SecretKey: "sk",
			Bucket:    "thumbnails",
			PublicURL: "https://cdn.example.com",
		},
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	tests := []struct {
		name  string
		morph func(*Config)
	}{
		{"missing api key", func(c *Config) { c.Provider.APIKey = "" }},
		{"missing endpoint", func(c *Config) { c.Storage.Endpoint = "" }},
		{"missing access key", func(c *Config) { c.Storage.AccessKey = "" }},
		{"missing secret key", func(c *Config) { c.Storage.SecretKey = "" }},
		{"missing bucket", func(c *Config) { c.Storage.Bucket = "" }},
		{"missing public url", func(c *Config) { c.Storage.PublicURL = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.morph(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}
