package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"gaswatch/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App        AppConfig                `mapstructure:"app"`
	Logging    logging.Config           `mapstructure:"logging"`
	Monitoring MonitoringConfig         `mapstructure:"monitoring"`
	RPC        RPCConfig                `mapstructure:"rpc"`
	Networks   map[string]NetworkConfig `mapstructure:"networks"`
	Telegram   TelegramConfig           `mapstructure:"telegram"`
	Charts     ChartsConfig             `mapstructure:"charts"`
	Snapshot   SnapshotConfig           `mapstructure:"snapshot"`
	Database   DatabaseConfig           `mapstructure:"database"`
	L2         L2Config                 `mapstructure:"l2"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// MonitoringConfig governs the sampling loop and alert cadence.
type MonitoringConfig struct {
	CheckInterval time.Duration `mapstructure:"check_interval"`
	AlertCooldown time.Duration `mapstructure:"alert_cooldown"`
	Retention     time.Duration `mapstructure:"retention"`
	SaveInterval  time.Duration `mapstructure:"save_interval"`
	StartupDelay  time.Duration `mapstructure:"startup_delay"`
}

// RPCConfig tunes the fee-history client shared by all networks.
type RPCConfig struct {
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	BackoffBase     time.Duration `mapstructure:"backoff_base"`
	MaxConnsPerHost int           `mapstructure:"max_conns_per_host"`
}

// NetworkConfig describes one monitored chain. Read-only after startup.
type NetworkConfig struct {
	Name              string             `mapstructure:"name"`
	ChainID           int64              `mapstructure:"chain_id"`
	NativeToken       string             `mapstructure:"native_token"`
	IsL2              bool               `mapstructure:"is_l2"`
	BlockTime         int                `mapstructure:"block_time"`
	ExplorerURL       string             `mapstructure:"explorer_url"`
	RPCURLs           []string           `mapstructure:"rpc_urls"`
	Thresholds        map[string]float64 `mapstructure:"thresholds"`
	DisableFastAlerts bool               `mapstructure:"disable_fast_alerts"`
	FeeHistoryBlocks  int                `mapstructure:"fee_history_blocks"`
}

// TelegramConfig routes alert delivery.
type TelegramConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	BotToken  string        `mapstructure:"bot_token"`
	ChatID    string        `mapstructure:"chat_id"`
	APIBase   string        `mapstructure:"api_base"`
	ParseMode string        `mapstructure:"parse_mode"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// ChartsConfig controls periodic chart rendering.
type ChartsConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	UpdateInterval time.Duration `mapstructure:"update_interval"`
	Directory      string        `mapstructure:"directory"`
	Width          int           `mapstructure:"width"`
	Height         int           `mapstructure:"height"`
}

// SnapshotConfig controls file-based history persistence.
type SnapshotConfig struct {
	Path string `mapstructure:"path"`
}

// DatabaseConfig encapsulates optional PostgreSQL persistence.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// L2Config tunes the layer-2 surcharge provider.
type L2Config struct {
	Mode               string          `mapstructure:"mode"`
	IncludeL1Fee       map[string]bool `mapstructure:"include_l1_fee"`
	CacheTTL           time.Duration   `mapstructure:"cache_ttl"`
	RequestTimeout     time.Duration   `mapstructure:"request_timeout"`
	L1GasPriceFallback float64         `mapstructure:"l1_gas_price_fallback"`
	L2GasPriceFallback float64         `mapstructure:"l2_gas_price_fallback"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("GASWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyNetworkDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "gaswatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.backup_count", 5)

	v.SetDefault("monitoring.check_interval", "12s")
	v.SetDefault("monitoring.alert_cooldown", "5m")
	v.SetDefault("monitoring.retention", "24h")
	v.SetDefault("monitoring.save_interval", "5m")
	v.SetDefault("monitoring.startup_delay", "0s")

	v.SetDefault("rpc.request_timeout", "30s")
	v.SetDefault("rpc.max_attempts", 3)
	v.SetDefault("rpc.backoff_base", "1s")
	v.SetDefault("rpc.max_conns_per_host", 20)

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.api_base", "https://api.telegram.org")
	v.SetDefault("telegram.parse_mode", "HTML")
	v.SetDefault("telegram.timeout", "10s")

	v.SetDefault("charts.enabled", true)
	v.SetDefault("charts.update_interval", "1h")
	v.SetDefault("charts.directory", "charts")
	v.SetDefault("charts.width", 1280)
	v.SetDefault("charts.height", 720)

	v.SetDefault("snapshot.path", "data/history_backup.json")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("l2.mode", "live")
	v.SetDefault("l2.cache_ttl", "30s")
	v.SetDefault("l2.request_timeout", "10s")
	v.SetDefault("l2.l1_gas_price_fallback", 20.0)
	v.SetDefault("l2.l2_gas_price_fallback", 0.02)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// applyNetworkDefaults fills in the built-in network table when the config
// names no networks, and backfills endpoints and fee-history depth for
// networks that omit them.
func applyNetworkDefaults(cfg *Config) {
	if len(cfg.Networks) == 0 {
		cfg.Networks = DefaultNetworks()
	}
	for key, network := range cfg.Networks {
		if network.Name == "" {
			network.Name = key
		}
		if len(network.RPCURLs) == 0 {
			network.RPCURLs = PublicEndpoints(key)
		}
		if network.FeeHistoryBlocks <= 0 {
			network.FeeHistoryBlocks = 16
		}
		cfg.Networks[key] = network
	}
}

// Validate performs startup sanity checks. Any failure here is fatal; the
// configuration is immutable for the process lifetime.
func (c *Config) Validate() error {
	if c.Monitoring.CheckInterval <= 0 {
		return fmt.Errorf("monitoring.check_interval must be greater than zero")
	}
	if c.Monitoring.Retention <= 0 {
		return fmt.Errorf("monitoring.retention must be greater than zero")
	}
	if c.Monitoring.AlertCooldown < 0 {
		return fmt.Errorf("monitoring.alert_cooldown cannot be negative")
	}
	if c.RPC.MaxAttempts <= 0 {
		return fmt.Errorf("rpc.max_attempts must be greater than zero")
	}
	if len(c.Networks) == 0 {
		return fmt.Errorf("at least one network must be configured")
	}
	for key, network := range c.Networks {
		if len(network.RPCURLs) == 0 {
			return fmt.Errorf("network %s has no rpc endpoints", key)
		}
		for tier, threshold := range network.Thresholds {
			if !validTierName(tier) {
				return fmt.Errorf("network %s has unknown alert tier %q", key, tier)
			}
			if threshold < 0 {
				return fmt.Errorf("network %s tier %s threshold cannot be negative", key, tier)
			}
		}
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
		}
		if c.Telegram.ChatID == "" {
			return fmt.Errorf("telegram.chat_id is required when telegram is enabled")
		}
	}
	if c.Charts.Enabled && c.Charts.UpdateInterval <= 0 {
		return fmt.Errorf("charts.update_interval must be greater than zero")
	}
	switch c.L2.Mode {
	case "live", "static":
	default:
		return fmt.Errorf("l2.mode must be live or static, got %q", c.L2.Mode)
	}
	return nil
}

// MaxHistoryEntries computes the approximate per-network entry cap implied by
// the retention window and the check interval.
func (c *Config) MaxHistoryEntries() int {
	n := int(c.Monitoring.Retention / c.Monitoring.CheckInterval)
	if n < 1 {
		n = 1
	}
	return n
}

// NetworkKeys returns configured network keys in a stable order.
func (c *Config) NetworkKeys() []string {
	keys := make([]string, 0, len(c.Networks))
	for key := range c.Networks {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
