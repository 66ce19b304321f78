package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, "app:\n  name: gaswatch\n"))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Monitoring.CheckInterval != 12*time.Second {
		t.Errorf("check_interval = %s, want 12s", cfg.Monitoring.CheckInterval)
	}
	if cfg.Monitoring.AlertCooldown != 5*time.Minute {
		t.Errorf("alert_cooldown = %s, want 5m", cfg.Monitoring.AlertCooldown)
	}
	if cfg.Monitoring.Retention != 24*time.Hour {
		t.Errorf("retention = %s, want 24h", cfg.Monitoring.Retention)
	}
	if cfg.RPC.MaxAttempts != 3 {
		t.Errorf("max_attempts = %d, want 3", cfg.RPC.MaxAttempts)
	}
	if cfg.Telegram.Enabled {
		t.Error("telegram must default to disabled")
	}
	if cfg.L2.Mode != "live" {
		t.Errorf("l2.mode = %s, want live", cfg.L2.Mode)
	}
}

func TestLoadFillsDefaultNetworks(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, ""))
	if err != nil {
		t.Fatal(err)
	}

	eth, ok := cfg.Networks["ethereum"]
	if !ok {
		t.Fatal("default network table must include ethereum")
	}
	if len(eth.RPCURLs) == 0 {
		t.Error("default ethereum network has no rpc endpoints")
	}
	if eth.FeeHistoryBlocks != 16 {
		t.Errorf("fee_history_blocks = %d, want 16", eth.FeeHistoryBlocks)
	}
	if eth.IsL2 {
		t.Error("ethereum must not be flagged as an L2")
	}

	arb, ok := cfg.Networks["arbitrum"]
	if !ok {
		t.Fatal("default network table must include arbitrum")
	}
	if !arb.IsL2 || !arb.DisableFastAlerts {
		t.Error("arbitrum defaults must mark it as an L2 with fast alerts disabled")
	}
}

func TestLoadBackfillsPartialNetwork(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, `
networks:
  ethereum:
    thresholds:
      low: 20
`))
	if err != nil {
		t.Fatal(err)
	}

	eth := cfg.Networks["ethereum"]
	if len(eth.RPCURLs) == 0 {
		t.Error("known network without endpoints must get the public defaults")
	}
	if eth.FeeHistoryBlocks != 16 {
		t.Errorf("fee_history_blocks = %d, want 16", eth.FeeHistoryBlocks)
	}
	if eth.Thresholds["low"] != 20 {
		t.Errorf("threshold low = %v, want 20", eth.Thresholds["low"])
	}
}

func TestLoadRejectsUnknownNetworkWithoutEndpoints(t *testing.T) {
	_, err := Load(writeConfigFile(t, `
networks:
  mychain:
    name: My Chain
`))
	if err == nil {
		t.Fatal("a network with no resolvable endpoints must fail validation")
	}
}

func TestValidateFailures(t *testing.T) {
	base := func() *Config {
		return &Config{
			Monitoring: MonitoringConfig{
				CheckInterval: 12 * time.Second,
				AlertCooldown: 5 * time.Minute,
				Retention:     24 * time.Hour,
			},
			RPC: RPCConfig{MaxAttempts: 3},
			Networks: map[string]NetworkConfig{
				"ethereum": {RPCURLs: []string{"https://example.invalid"}},
			},
			L2: L2Config{Mode: "live"},
		}
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero check interval", func(c *Config) { c.Monitoring.CheckInterval = 0 }},
		{"zero retention", func(c *Config) { c.Monitoring.Retention = 0 }},
		{"negative cooldown", func(c *Config) { c.Monitoring.AlertCooldown = -time.Second }},
		{"zero attempts", func(c *Config) { c.RPC.MaxAttempts = 0 }},
		{"no networks", func(c *Config) { c.Networks = nil }},
		{"unknown tier", func(c *Config) {
			net := c.Networks["ethereum"]
			net.Thresholds = map[string]float64{"blazing": 1}
			c.Networks["ethereum"] = net
		}},
		{"negative threshold", func(c *Config) {
			net := c.Networks["ethereum"]
			net.Thresholds = map[string]float64{"low": -1}
			c.Networks["ethereum"] = net
		}},
		{"telegram without token", func(c *Config) {
			c.Telegram = TelegramConfig{Enabled: true, ChatID: "1"}
		}},
		{"telegram without chat", func(c *Config) {
			c.Telegram = TelegramConfig{Enabled: true, BotToken: "t"}
		}},
		{"bad l2 mode", func(c *Config) { c.L2.Mode = "guess" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("base config must validate: %v", err)
	}
}

func TestMaxHistoryEntries(t *testing.T) {
	cfg := &Config{Monitoring: MonitoringConfig{Retention: time.Hour, CheckInterval: time.Minute}}
	if got := cfg.MaxHistoryEntries(); got != 60 {
		t.Fatalf("MaxHistoryEntries = %d, want 60", got)
	}

	cfg.Monitoring.CheckInterval = 2 * time.Hour
	if got := cfg.MaxHistoryEntries(); got != 1 {
		t.Fatalf("MaxHistoryEntries floor = %d, want 1", got)
	}
}

func TestNetworkKeysSorted(t *testing.T) {
	cfg := &Config{Networks: map[string]NetworkConfig{
		"polygon":  {},
		"ethereum": {},
		"base":     {},
	}}
	keys := cfg.NetworkKeys()
	want := []string{"base", "ethereum", "polygon"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}
