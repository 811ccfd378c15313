package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Interactions.FetchTimeoutMs != 3000 {
		t.Errorf("expected default fetch timeout 3000ms, got %d", cfg.Interactions.FetchTimeoutMs)
	}
	if cfg.Interactions.ZapFetchTimeoutMs != 5000 {
		t.Errorf("expected default zap fetch timeout 5000ms, got %d", cfg.Interactions.ZapFetchTimeoutMs)
	}
	if cfg.Interactions.CacheTTLSeconds != 300 {
		t.Errorf("expected default cache TTL 300s, got %d", cfg.Interactions.CacheTTLSeconds)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
relays:
  seeds:
    - wss://relay.test
interactions:
  cache_ttl_seconds: 60
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Relays.Seeds) != 1 || cfg.Relays.Seeds[0] != "wss://relay.test" {
		t.Errorf("unexpected seeds: %v", cfg.Relays.Seeds)
	}
	if cfg.Interactions.CacheTTLSeconds != 60 {
		t.Errorf("expected cache TTL 60s, got %d", cfg.Interactions.CacheTTLSeconds)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}
	// Unset fields get defaults
	if cfg.Interactions.FetchTimeoutMs != 3000 {
		t.Errorf("expected defaulted fetch timeout 3000ms, got %d", cfg.Interactions.FetchTimeoutMs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{
			name:    "valid defaults with seeds",
			mutate:  func(cfg *Config) { cfg.Relays.Seeds = []string{"wss://relay.test"} },
			wantErr: false,
		},
		{
			name:    "no seeds",
			mutate:  func(cfg *Config) {},
			wantErr: true,
		},
		{
			name: "bad relay scheme",
			mutate: func(cfg *Config) {
				cfg.Relays.Seeds = []string{"https://relay.test"}
			},
			wantErr: true,
		},
		{
			name: "bad log level",
			mutate: func(cfg *Config) {
				cfg.Relays.Seeds = []string{"wss://relay.test"}
				cfg.Logging.Level = "verbose"
			},
			wantErr: true,
		},
		{
			name: "negative poll interval",
			mutate: func(cfg *Config) {
				cfg.Relays.Seeds = []string{"wss://relay.test"}
				cfg.Interactions.PollIntervalSeconds = -1
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := Validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetExampleConfig(t *testing.T) {
	data, err := GetExampleConfig()
	if err != nil {
		t.Fatalf("GetExampleConfig failed: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected example config to be non-empty")
	}
}
