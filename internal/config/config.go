package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Log     LoggingConfig `yaml:"log"`
	Feeds   FeedsConfig   `yaml:"feeds"`
	Oracle  OracleConfig  `yaml:"oracle"`
	Risk    RiskConfig    `yaml:"risk"`
	State   StateConfig   `yaml:"state"`
	History HistoryConfig `yaml:"history"`
	Publish PublishConfig `yaml:"publish"`
	Metrics MetricsConfig `yaml:"metrics"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type FeedsConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
	BinanceWSURL   string        `yaml:"binance_ws_url"`
	BybitURL       string        `yaml:"bybit_url"`
	OKXURL         string        `yaml:"okx_url"`
	QuoteAssets    []string      `yaml:"quote_assets"`
}

type OracleConfig struct {
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	StaleAfter      time.Duration `yaml:"stale_after"`
}

type RiskConfig struct {
	MaxNotionalPerTrade  float64 `yaml:"max_notional_per_trade"`
	MinNotionalPerTrade  float64 `yaml:"min_notional_per_trade"`
	PerMinuteNotionalCap float64 `yaml:"per_minute_notional_cap"`
	DryRun               *bool   `yaml:"dry_run"`
}

type StateConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type HistoryConfig struct {
	Enabled         bool          `yaml:"enabled"`
	DSN             string        `yaml:"dsn"`
	Schema          string        `yaml:"schema"`
	QueueSize       int           `yaml:"queue_size"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type PublishConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// Load reads an optional yaml file, fills defaults, then applies PX_* env
// overrides so the engine runs standalone with no config file at all.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}
	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, validate(&cfg)
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Feeds.PollInterval == 0 {
		cfg.Feeds.PollInterval = 30 * time.Second
	}
	if cfg.Feeds.RequestTimeout == 0 {
		cfg.Feeds.RequestTimeout = 15 * time.Second
	}
	if cfg.Feeds.ReconnectDelay == 0 {
		cfg.Feeds.ReconnectDelay = 5 * time.Second
	}
	if cfg.Feeds.BinanceWSURL == "" {
		cfg.Feeds.BinanceWSURL = "wss://stream.binance.com:9443/ws"
	}
	if cfg.Feeds.BybitURL == "" {
		cfg.Feeds.BybitURL = "https://api.bybit.com"
	}
	if cfg.Feeds.OKXURL == "" {
		cfg.Feeds.OKXURL = "https://www.okx.com"
	}
	if len(cfg.Feeds.QuoteAssets) == 0 {
		cfg.Feeds.QuoteAssets = []string{"USDT", "USD"}
	}
	if cfg.Oracle.RefreshInterval == 0 {
		cfg.Oracle.RefreshInterval = 30 * time.Second
	}
	if cfg.Oracle.StaleAfter == 0 {
		cfg.Oracle.StaleAfter = 120 * time.Second
	}
	if cfg.Risk.MaxNotionalPerTrade == 0 {
		cfg.Risk.MaxNotionalPerTrade = 10_000
	}
	if cfg.Risk.MinNotionalPerTrade == 0 {
		cfg.Risk.MinNotionalPerTrade = 100
	}
	if cfg.Risk.PerMinuteNotionalCap == 0 {
		cfg.Risk.PerMinuteNotionalCap = 50_000
	}
	if cfg.Risk.DryRun == nil {
		dryRun := true
		cfg.Risk.DryRun = &dryRun
	}
	if cfg.History.Schema == "" {
		cfg.History.Schema = "public"
	}
	if cfg.History.QueueSize == 0 {
		cfg.History.QueueSize = 256
	}
	if cfg.Publish.Channel == "" {
		cfg.Publish.Channel = "composites"
	}
	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = ":9191"
	}
}

func applyEnv(cfg *Config) {
	if v, ok := envFloat("PX_MAX_NOTIONAL_PER_TRADE"); ok {
		cfg.Risk.MaxNotionalPerTrade = v
	}
	if v, ok := envFloat("PX_MIN_NOTIONAL_PER_TRADE"); ok {
		cfg.Risk.MinNotionalPerTrade = v
	}
	if v, ok := envFloat("PX_PER_MINUTE_NOTIONAL_CAP"); ok {
		cfg.Risk.PerMinuteNotionalCap = v
	}
	if v, ok := envBool("PX_DRY_RUN"); ok {
		cfg.Risk.DryRun = &v
	}
	if v, ok := envDuration("PX_REFRESH_INTERVAL"); ok {
		cfg.Oracle.RefreshInterval = v
	}
	if v, ok := envDuration("PX_STALE_AFTER"); ok {
		cfg.Oracle.StaleAfter = v
	}
	if v, ok := envDuration("PX_RECONNECT_DELAY"); ok {
		cfg.Feeds.ReconnectDelay = v
	}
	if v, ok := envDuration("PX_REQUEST_TIMEOUT"); ok {
		cfg.Feeds.RequestTimeout = v
	}
}

func envFloat(key string) (float64, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func envBool(key string) (bool, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

func envDuration(key string) (time.Duration, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func validate(cfg *Config) error {
	if cfg.Oracle.RefreshInterval <= 0 {
		return errors.New("oracle.refresh_interval must be > 0")
	}
	if cfg.Oracle.StaleAfter <= 0 {
		return errors.New("oracle.stale_after must be > 0")
	}
	if cfg.Risk.MinNotionalPerTrade < 0 || cfg.Risk.MaxNotionalPerTrade <= 0 {
		return errors.New("risk notional bounds must be positive")
	}
	if cfg.Risk.MinNotionalPerTrade > cfg.Risk.MaxNotionalPerTrade {
		return errors.New("risk.min_notional_per_trade exceeds risk.max_notional_per_trade")
	}
	if cfg.Risk.PerMinuteNotionalCap < cfg.Risk.MaxNotionalPerTrade {
		return errors.New("risk.per_minute_notional_cap below risk.max_notional_per_trade")
	}
	if cfg.History.Enabled && cfg.History.DSN == "" {
		return errors.New("history.dsn is required when history is enabled")
	}
	if cfg.Publish.Enabled && cfg.Publish.Addr == "" {
		return errors.New("publish.addr is required when publish is enabled")
	}
	return nil
}
