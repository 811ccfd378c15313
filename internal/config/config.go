package config

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed example.yaml
var exampleConfig embed.FS

// Config represents the complete noornote configuration
type Config struct {
	Relays       Relays       `yaml:"relays"`
	Interactions Interactions `yaml:"interactions"`
	Logging      Logging      `yaml:"logging"`
}

// Relays contains relay configuration
type Relays struct {
	Seeds  []string    `yaml:"seeds"`
	Policy RelayPolicy `yaml:"policy"`
}

// RelayPolicy contains relay connection policies
type RelayPolicy struct {
	ConnectTimeoutMs int `yaml:"connect_timeout_ms"`
}

// Interactions contains interaction aggregation settings
type Interactions struct {
	FetchTimeoutMs      int `yaml:"fetch_timeout_ms"`       // reactions, reposts, quotes, replies
	ZapFetchTimeoutMs   int `yaml:"zap_fetch_timeout_ms"`   // zap receipts arrive more slowly
	CacheTTLSeconds     int `yaml:"cache_ttl_seconds"`      // how long aggregated stats stay fresh
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`  // live poller tick interval
	QueryLimit          int `yaml:"query_limit"`            // per-filter result cap
}

// FetchTimeout returns the timeout for reaction/repost/quote/reply fetches
func (i *Interactions) FetchTimeout() time.Duration {
	return time.Duration(i.FetchTimeoutMs) * time.Millisecond
}

// ZapFetchTimeout returns the timeout for zap receipt fetches
func (i *Interactions) ZapFetchTimeout() time.Duration {
	return time.Duration(i.ZapFetchTimeoutMs) * time.Millisecond
}

// CacheTTL returns the stats cache time-to-live
func (i *Interactions) CacheTTL() time.Duration {
	return time.Duration(i.CacheTTLSeconds) * time.Second
}

// PollInterval returns the live poller tick interval
func (i *Interactions) PollInterval() time.Duration {
	return time.Duration(i.PollIntervalSeconds) * time.Second
}

// Logging contains logging configuration
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// applyDefaults fills in default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.Relays.Policy.ConnectTimeoutMs == 0 {
		cfg.Relays.Policy.ConnectTimeoutMs = 30000
	}

	if cfg.Interactions.FetchTimeoutMs == 0 {
		cfg.Interactions.FetchTimeoutMs = 3000
	}
	if cfg.Interactions.ZapFetchTimeoutMs == 0 {
		cfg.Interactions.ZapFetchTimeoutMs = 5000
	}
	if cfg.Interactions.CacheTTLSeconds == 0 {
		cfg.Interactions.CacheTTLSeconds = 300
	}
	if cfg.Interactions.PollIntervalSeconds == 0 {
		cfg.Interactions.PollIntervalSeconds = 30
	}
	if cfg.Interactions.QueryLimit == 0 {
		cfg.Interactions.QueryLimit = 500
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

// Load reads and parses a configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(cfg)

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func applyEnvOverrides(cfg *Config) error {
	if relays := os.Getenv("NOORNOTE_RELAYS"); relays != "" {
		seeds := make([]string, 0)
		for _, r := range strings.Split(relays, ",") {
			r = strings.TrimSpace(r)
			if r != "" {
				seeds = append(seeds, r)
			}
		}
		if len(seeds) > 0 {
			cfg.Relays.Seeds = seeds
		}
	}

	if level := os.Getenv("NOORNOTE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	return nil
}

// GetExampleConfig returns the embedded example configuration
func GetExampleConfig() ([]byte, error) {
	return exampleConfig.ReadFile("example.yaml")
}

// Default returns a configuration with default values
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate checks the configuration for errors
func Validate(cfg *Config) error {
	if len(cfg.Relays.Seeds) == 0 {
		return fmt.Errorf("relays.seeds must contain at least one relay URL")
	}

	for _, seed := range cfg.Relays.Seeds {
		if !strings.HasPrefix(seed, "wss://") && !strings.HasPrefix(seed, "ws://") {
			return fmt.Errorf("relay seed %q must start with wss:// or ws://", seed)
		}
	}

	if cfg.Interactions.FetchTimeoutMs < 0 {
		return fmt.Errorf("interactions.fetch_timeout_ms must not be negative")
	}
	if cfg.Interactions.ZapFetchTimeoutMs < 0 {
		return fmt.Errorf("interactions.zap_fetch_timeout_ms must not be negative")
	}
	if cfg.Interactions.CacheTTLSeconds < 0 {
		return fmt.Errorf("interactions.cache_ttl_seconds must not be negative")
	}
	if cfg.Interactions.PollIntervalSeconds < 1 {
		return fmt.Errorf("interactions.poll_interval_seconds must be at least 1")
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error")
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json")
	}

	return nil
}
