package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Variant != "rwa" {
		t.Errorf("Variant = %q, want rwa", cfg.Variant)
	}
	if cfg.MaxInFlight != 16 {
		t.Errorf("MaxInFlight = %d, want 16", cfg.MaxInFlight)
	}
	if cfg.PriceAPI.Timeout != 10*time.Second {
		t.Errorf("Timeout = %s, want 10s", cfg.PriceAPI.Timeout)
	}
	if cfg.PriceAPI.BaseURL != "https://api.coingecko.com/api/v3" {
		t.Errorf("unexpected BaseURL %q", cfg.PriceAPI.BaseURL)
	}
	if cfg.HTTP.Addr != "" {
		t.Error("HTTP transport should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	yamlConfig := `
variant: legacy
maxInFlight: 4
http:
  addr: ":8080"
priceAPI:
  baseURL: https://pro-api.coingecko.com/api/v3
  apiKey: op://vault/coingecko/key
  apiKeyHeader: x-cg-pro-api-key
  timeout: 2500ms
  retries: 1
  rps: 5
`

	cfg, err := Load(bytes.NewBufferString(yamlConfig))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Variant != "legacy" {
		t.Errorf("Variant = %q", cfg.Variant)
	}
	if cfg.MaxInFlight != 4 {
		t.Errorf("MaxInFlight = %d", cfg.MaxInFlight)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("HTTP.Addr = %q", cfg.HTTP.Addr)
	}
	if cfg.PriceAPI.BaseURL != "https://pro-api.coingecko.com/api/v3" {
		t.Errorf("BaseURL = %q", cfg.PriceAPI.BaseURL)
	}
	if cfg.PriceAPI.APIKey != "op://vault/coingecko/key" {
		t.Errorf("APIKey = %q", cfg.PriceAPI.APIKey)
	}
	if cfg.PriceAPI.APIKeyHeader != "x-cg-pro-api-key" {
		t.Errorf("APIKeyHeader = %q", cfg.PriceAPI.APIKeyHeader)
	}
	if cfg.PriceAPI.Timeout != 2500*time.Millisecond {
		t.Errorf("Timeout = %s", cfg.PriceAPI.Timeout)
	}
	if cfg.PriceAPI.Retries != 1 || cfg.PriceAPI.RPS != 5 {
		t.Errorf("Retries = %d, RPS = %d", cfg.PriceAPI.Retries, cfg.PriceAPI.RPS)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(bytes.NewBufferString("variant: rwa\n"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.PriceAPI.Timeout != 10*time.Second {
		t.Errorf("Timeout = %s, want default", cfg.PriceAPI.Timeout)
	}
	if cfg.PriceAPI.Retries != 3 {
		t.Errorf("Retries = %d, want default", cfg.PriceAPI.Retries)
	}
}

func TestLoadJSON(t *testing.T) {
	cfg, err := Load(bytes.NewBufferString(`{"variant": "legacy", "priceAPI": {"retries": 0}}`))
	if err != nil {
		t.Fatalf("Failed to load JSON config: %v", err)
	}
	if cfg.Variant != "legacy" || cfg.PriceAPI.Retries != 0 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed", "variant: [unclosed"},
		{"bad duration", "priceAPI:\n  timeout: soon\n"},
		{"zero timeout", "priceAPI:\n  timeout: 0s\n"},
		{"negative retries", "priceAPI:\n  retries: -1\n"},
		{"zero in flight", "maxInFlight: 0\n"},
		{"empty base url", "priceAPI:\n  baseURL: \"\"\n"},
		{"key without header", "priceAPI:\n  apiKey: abc\n  apiKeyHeader: \"\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(bytes.NewBufferString(tt.data)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile("")
	if err != nil || cfg.Variant != "rwa" {
		t.Errorf("empty path should give defaults, got %+v, %v", cfg, err)
	}

	cfg, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil || cfg.Variant != "rwa" {
		t.Errorf("missing file should give defaults, got %+v, %v", cfg, err)
	}
}

func TestLoadFileFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "variant: legacy\npriceAPI:\n  timeout: 3s\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Variant != "legacy" || cfg.PriceAPI.Timeout != 3*time.Second {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.PriceAPI.Retries != 3 {
		t.Errorf("Retries = %d, want default", cfg.PriceAPI.Retries)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{APIKeyEnv: " from-env "}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := DefaultConfig()
	cfg.ApplyEnv(lookup)
	if cfg.PriceAPI.APIKey != "from-env" {
		t.Errorf("APIKey = %q, want from-env", cfg.PriceAPI.APIKey)
	}

	cfg = DefaultConfig()
	cfg.PriceAPI.APIKey = "from-file"
	cfg.ApplyEnv(lookup)
	if cfg.PriceAPI.APIKey != "from-file" {
		t.Errorf("file value should win, got %q", cfg.PriceAPI.APIKey)
	}
}
