package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// APIKeyEnv is consulted when the config file sets no API key
const APIKeyEnv = "COINGECKO_API_KEY"

// Config represents the configuration for the server
type Config struct {
	// Variant selects the exposed tool set: "rwa" or "legacy"
	Variant string `yaml:"variant"`

	// MaxInFlight bounds concurrently handled requests on the stdio transport
	MaxInFlight int `yaml:"maxInFlight"`

	HTTP HTTPConfig `yaml:"http"`

	PriceAPI PriceAPIConfig `yaml:"priceAPI"`
}

// HTTPConfig configures the optional HTTP transport
type HTTPConfig struct {
	// Addr is the listen address; empty means serve over stdio
	Addr string `yaml:"addr"`
}

// PriceAPIConfig configures the outbound CoinGecko client
type PriceAPIConfig struct {
	BaseURL string `yaml:"baseURL"`

	// APIKey may be a literal key, an op:// reference or env:NAME
	APIKey string `yaml:"apiKey"`

	// APIKeyHeader is x-cg-demo-api-key for demo keys, x-cg-pro-api-key for pro keys
	APIKeyHeader string `yaml:"apiKeyHeader"`

	Timeout time.Duration `yaml:"timeout"`
	Retries int           `yaml:"retries"`
	RPS     int           `yaml:"rps"`
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		Variant:     "rwa",
		MaxInFlight: 16,
		PriceAPI: PriceAPIConfig{
			BaseURL:      "https://api.coingecko.com/api/v3",
			APIKeyHeader: "x-cg-demo-api-key",
			Timeout:      10 * time.Second,
			Retries:      3,
		},
	}
}

// LoadFile loads configuration from a file.
// An empty path or a missing file yields the defaults.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("error opening config file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load loads configuration from an io.Reader on top of the defaults
func Load(r io.Reader) (*Config, error) {
	config := DefaultConfig()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading config data: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv fills unset values from the environment
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if c.PriceAPI.APIKey == "" {
		if v, ok := lookup(APIKeyEnv); ok {
			c.PriceAPI.APIKey = strings.TrimSpace(v)
		}
	}
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.MaxInFlight < 1 {
		return fmt.Errorf("maxInFlight must be at least 1, got %d", c.MaxInFlight)
	}
	if c.PriceAPI.BaseURL == "" {
		return fmt.Errorf("priceAPI.baseURL cannot be empty")
	}
	if c.PriceAPI.APIKey != "" && c.PriceAPI.APIKeyHeader == "" {
		return fmt.Errorf("priceAPI.apiKeyHeader cannot be empty when an API key is set")
	}
	if c.PriceAPI.Timeout <= 0 {
		return fmt.Errorf("priceAPI.timeout must be positive, got %s", c.PriceAPI.Timeout)
	}
	if c.PriceAPI.Retries < 0 {
		return fmt.Errorf("priceAPI.retries cannot be negative")
	}
	if c.PriceAPI.RPS < 0 {
		return fmt.Errorf("priceAPI.rps cannot be negative")
	}
	return nil
}
