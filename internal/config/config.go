// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Venue names accepted in token configuration.
const (
	VenueBitmart = "bitmart"
	VenueLBank   = "lbank"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Chain     ChainConfig     `mapstructure:"chain"`
	Pancake   PancakeConfig   `mapstructure:"pancake"`
	Bitmart   BitmartConfig   `mapstructure:"bitmart"`
	LBank     LBankConfig     `mapstructure:"lbank"`
	Scanner   ScannerConfig   `mapstructure:"scanner"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Dedup     DedupConfig     `mapstructure:"dedup"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Health    HealthConfig    `mapstructure:"health"`

	// TokensFile points to a TOML token registry. Entries there are appended to Tokens.
	TokensFile string        `mapstructure:"tokens_file"`
	Tokens     []TokenConfig `mapstructure:"tokens"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TUIMode     bool   `mapstructure:"-"` // set at runtime from flags
}

// ChainConfig holds the BSC node connection.
type ChainConfig struct {
	HTTPURL string `mapstructure:"http_url"`
	ChainID uint64 `mapstructure:"chain_id"`
}

// PancakeConfig holds PancakeSwap V2 addresses used for price and liquidity reads.
type PancakeConfig struct {
	FactoryAddress string `mapstructure:"factory_address"`
	WBNBAddress    string `mapstructure:"wbnb_address"`
	StableAddress  string `mapstructure:"stable_address"`
	StableDecimals int    `mapstructure:"stable_decimals"`
	// NativePriceTTL bounds how long the BNB/USD reference is reused across tokens.
	NativePriceTTL time.Duration `mapstructure:"native_price_ttl"`
	CallTimeout    time.Duration `mapstructure:"call_timeout"`
}

// FactoryAddressHex returns the factory address as common.Address.
func (c *PancakeConfig) FactoryAddressHex() common.Address {
	return common.HexToAddress(c.FactoryAddress)
}

// WBNBAddressHex returns the wrapped native token address.
func (c *PancakeConfig) WBNBAddressHex() common.Address {
	return common.HexToAddress(c.WBNBAddress)
}

// StableAddressHex returns the USD stable token address.
func (c *PancakeConfig) StableAddressHex() common.Address {
	return common.HexToAddress(c.StableAddress)
}

// BitmartConfig holds Bitmart REST and stream endpoints.
type BitmartConfig struct {
	RESTURL        string        `mapstructure:"rest_url"`
	WebSocketURL   string        `mapstructure:"websocket_url"`
	Depth          int           `mapstructure:"depth"`
	RequestsPerMin int           `mapstructure:"requests_per_minute"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// LBankConfig holds the LBank REST endpoints. LBank books are polled, not streamed.
type LBankConfig struct {
	RESTURL        string        `mapstructure:"rest_url"`
	LegacyURL      string        `mapstructure:"legacy_url"`
	Depth          int           `mapstructure:"depth"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	RequestsPerMin int           `mapstructure:"requests_per_minute"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// ScannerConfig holds the evaluation policy and loop cadence.
type ScannerConfig struct {
	Interval              time.Duration `mapstructure:"interval"`
	ProfitThreshold       float64       `mapstructure:"profit_threshold"`
	ForwardRatioBound     float64       `mapstructure:"forward_ratio_bound"`
	ReverseRatioBound     float64       `mapstructure:"reverse_ratio_bound"`
	MovableNotional       float64       `mapstructure:"movable_notional"`
	MaxSlippage           float64       `mapstructure:"max_slippage"`
	LowLiquidityThreshold float64       `mapstructure:"low_liquidity_threshold"`
	TopN                  int           `mapstructure:"top_n"`
	MaxConcurrency        int           `mapstructure:"max_concurrency"`
	Debug                 bool          `mapstructure:"debug"`
}

// AlertsConfig holds alert delivery settings. Alerting is on when any sender is configured.
type AlertsConfig struct {
	ProfitCooldown    time.Duration `mapstructure:"profit_cooldown"`
	LiquidityCooldown time.Duration `mapstructure:"liquidity_cooldown"`
	SendTimeout       time.Duration `mapstructure:"send_timeout"`

	DiscordWebhookURL string `mapstructure:"discord_webhook_url"`
	TelegramBotToken  string `mapstructure:"telegram_bot_token"`
	TelegramChatID    string `mapstructure:"telegram_chat_id"`
	TelegramBaseURL   string `mapstructure:"telegram_base_url"`
}

// Enabled reports whether at least one alert sender is configured.
func (c *AlertsConfig) Enabled() bool {
	return c.DiscordWebhookURL != "" || (c.TelegramBotToken != "" && c.TelegramChatID != "")
}

// DedupConfig selects the notification cache backend.
type DedupConfig struct {
	Backend   string      `mapstructure:"backend"` // "memory" or "redis"
	KeyPrefix string      `mapstructure:"key_prefix"`
	Redis     RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr       string `mapstructure:"addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	PoolSize   int    `mapstructure:"pool_size"`
	MaxRetries int    `mapstructure:"max_retries"`
	TLSEnabled bool   `mapstructure:"tls_enabled"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	// TraceExporter is one of otlp-grpc, otlp-http, zipkin, stdout, none.
	TraceExporter  string `mapstructure:"trace_exporter"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// HealthConfig holds the health server settings.
type HealthConfig struct {
	Port int `mapstructure:"port"`
}

// TokenConfig describes one monitored token. It is immutable after load.
type TokenConfig struct {
	Symbol                string   `mapstructure:"symbol" toml:"symbol"`
	Blockchain            string   `mapstructure:"blockchain" toml:"blockchain"`
	Tax                   float64  `mapstructure:"tax" toml:"tax"`
	Venues                []string `mapstructure:"venues" toml:"venues"`
	DisabledReverseVenues []string `mapstructure:"disabled_reverse_venues" toml:"disabled_reverse_venues"`
	Address               string   `mapstructure:"address" toml:"address"`
	Pair                  string   `mapstructure:"pair" toml:"pair"`
	Decimals              int      `mapstructure:"decimals" toml:"decimals"`
}

type tokenFile struct {
	Tokens []TokenConfig `toml:"tokens"`
}

// Load loads configuration from file and environment variables and validates it.
func Load(configPath string) (*Config, error) {
	cfg, err := read(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadVenues loads configuration without validating chain and token settings.
// Tools that only talk to venue REST APIs use it.
func LoadVenues(configPath string) (*Config, error) {
	return read(configPath)
}

func read(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("SCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		secondsToDurationHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.TokensFile != "" {
		tokens, err := LoadTokenFile(cfg.TokensFile)
		if err != nil {
			return nil, err
		}
		cfg.Tokens = append(cfg.Tokens, tokens...)
	}
	cfg.normalize()

	return &cfg, nil
}

// LoadTokenFile reads a TOML token registry with [[tokens]] tables.
func LoadTokenFile(path string) ([]TokenConfig, error) {
	var f tokenFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("failed to read tokens file %s: %w", path, err)
	}
	return f.Tokens, nil
}

// secondsToDurationHook decodes a bare integer string as whole seconds.
// The legacy cooldown variables (TOKEN_NOTIFICATION_COOLDOWN=300) use that form.
func secondsToDurationHook() mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(reflect.ValueOf(data).String()), 10, 64)
		if err != nil {
			return data, nil
		}
		return time.Duration(n) * time.Second, nil
	}
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.name", "SCAN_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "SCAN_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "SCAN_LOG_LEVEL", "LOG_LEVEL")

	v.BindEnv("chain.http_url", "SCAN_BSC_HTTP_URL", "BSC_HTTP_URL")

	v.BindEnv("scanner.interval", "SCAN_INTERVAL")
	v.BindEnv("scanner.profit_threshold", "SCAN_PROFIT_THRESHOLD", "PROFIT_THRESHOLD")
	v.BindEnv("scanner.low_liquidity_threshold", "SCAN_LIQUIDITY_THRESHOLD", "TOKEN_LIQUIDITY_THRESHOLD")
	v.BindEnv("scanner.debug", "SCAN_DEBUG", "DEBUG")

	v.BindEnv("alerts.profit_cooldown", "SCAN_PROFIT_COOLDOWN", "TOKEN_NOTIFICATION_COOLDOWN")
	v.BindEnv("alerts.liquidity_cooldown", "SCAN_LIQUIDITY_COOLDOWN", "TOKEN_LIQUIDITY_COOLDOWN")
	v.BindEnv("alerts.discord_webhook_url", "SCAN_DISCORD_WEBHOOK_URL", "DISCORD_WEBHOOK_URL")
	v.BindEnv("alerts.telegram_bot_token", "SCAN_TELEGRAM_BOT_TOKEN", "BOT_TOKEN")
	v.BindEnv("alerts.telegram_chat_id", "SCAN_TELEGRAM_CHAT_ID", "CHAT_ID")

	v.BindEnv("dedup.backend", "SCAN_DEDUP_BACKEND")
	v.BindEnv("dedup.redis.addr", "SCAN_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("dedup.redis.password", "SCAN_REDIS_PASSWORD", "REDIS_PASSWORD")

	v.BindEnv("tokens_file", "SCAN_TOKENS_FILE", "TOKENS_FILE")

	v.BindEnv("telemetry.enabled", "SCAN_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "SCAN_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "SCAN_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("telemetry.otlp_headers", "SCAN_OTEL_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS")
	v.BindEnv("telemetry.trace_exporter", "SCAN_OTEL_TRACE_EXPORTER")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "liquidity-scanner")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("chain.http_url", "https://bsc-dataseed.binance.org")
	v.SetDefault("chain.chain_id", 56)

	// PancakeSwap V2 on BSC mainnet
	v.SetDefault("pancake.factory_address", "0xcA143Ce32Fe78f1f7019d7d551a6402fC5350c73")
	v.SetDefault("pancake.wbnb_address", "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c")
	v.SetDefault("pancake.stable_address", "0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56") // BUSD
	v.SetDefault("pancake.stable_decimals", 18)
	v.SetDefault("pancake.native_price_ttl", "5s")
	v.SetDefault("pancake.call_timeout", "5s")

	v.SetDefault("bitmart.rest_url", "https://api-cloud.bitmart.com")
	v.SetDefault("bitmart.websocket_url", "wss://ws-manager-compress.bitmart.com/api?protocol=1.1")
	v.SetDefault("bitmart.depth", 20)
	v.SetDefault("bitmart.requests_per_minute", 600)
	v.SetDefault("bitmart.request_timeout", "10s")

	v.SetDefault("lbank.rest_url", "https://api.lbkex.com")
	v.SetDefault("lbank.legacy_url", "https://api.lbank.info")
	v.SetDefault("lbank.depth", 20)
	v.SetDefault("lbank.poll_interval", "5s")
	v.SetDefault("lbank.requests_per_minute", 300)
	v.SetDefault("lbank.request_timeout", "10s")

	v.SetDefault("scanner.interval", "10s")
	v.SetDefault("scanner.profit_threshold", 5.0)
	v.SetDefault("scanner.forward_ratio_bound", 1.05)
	v.SetDefault("scanner.reverse_ratio_bound", 1.05)
	v.SetDefault("scanner.movable_notional", 500.0)
	v.SetDefault("scanner.max_slippage", 2.0)
	v.SetDefault("scanner.low_liquidity_threshold", 50.0)
	v.SetDefault("scanner.top_n", 20)
	v.SetDefault("scanner.max_concurrency", 0)
	v.SetDefault("scanner.debug", false)

	v.SetDefault("alerts.profit_cooldown", "15m")
	v.SetDefault("alerts.liquidity_cooldown", "1h")
	v.SetDefault("alerts.send_timeout", "10s")
	v.SetDefault("alerts.telegram_base_url", "https://api.telegram.org")

	v.SetDefault("dedup.backend", "memory")
	v.SetDefault("dedup.key_prefix", "scanner:dedup:")
	v.SetDefault("dedup.redis.pool_size", 10)
	v.SetDefault("dedup.redis.max_retries", 3)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "liquidity-scanner")
	v.SetDefault("telemetry.trace_exporter", "otlp-grpc")
	v.SetDefault("telemetry.prometheus_port", 9090)

	v.SetDefault("health.port", 8081)
}

func (c *Config) normalize() {
	for i := range c.Tokens {
		t := &c.Tokens[i]
		t.Symbol = strings.ToUpper(strings.TrimSpace(t.Symbol))
		if t.Blockchain == "" {
			t.Blockchain = "bsc"
		}
		if t.Decimals == 0 {
			t.Decimals = 18
		}
		for j := range t.Venues {
			t.Venues[j] = strings.ToLower(strings.TrimSpace(t.Venues[j]))
		}
		for j := range t.DisabledReverseVenues {
			t.DisabledReverseVenues[j] = strings.ToLower(strings.TrimSpace(t.DisabledReverseVenues[j]))
		}
	}
}

// Validate checks what is needed to start. Token entries are otherwise trusted.
func (c *Config) Validate() error {
	if c.Chain.HTTPURL == "" {
		return fmt.Errorf("chain.http_url is required")
	}
	if !common.IsHexAddress(c.Pancake.FactoryAddress) {
		return fmt.Errorf("invalid pancake.factory_address: %s", c.Pancake.FactoryAddress)
	}
	if !common.IsHexAddress(c.Pancake.WBNBAddress) {
		return fmt.Errorf("invalid pancake.wbnb_address: %s", c.Pancake.WBNBAddress)
	}
	if !common.IsHexAddress(c.Pancake.StableAddress) {
		return fmt.Errorf("invalid pancake.stable_address: %s", c.Pancake.StableAddress)
	}
	if c.Scanner.Interval <= 0 {
		return fmt.Errorf("scanner.interval must be positive")
	}
	if c.Scanner.ForwardRatioBound <= 0 || c.Scanner.ReverseRatioBound <= 0 {
		return fmt.Errorf("scanner ratio bounds must be positive")
	}
	if c.Alerts.ProfitCooldown <= 0 {
		return fmt.Errorf("alerts.profit_cooldown must be positive")
	}
	if c.Alerts.LiquidityCooldown <= 0 {
		return fmt.Errorf("alerts.liquidity_cooldown must be positive")
	}
	if len(c.Tokens) == 0 {
		return fmt.Errorf("at least one token must be configured")
	}
	for _, t := range c.Tokens {
		if t.Symbol == "" {
			return fmt.Errorf("token symbol cannot be empty")
		}
		if len(t.Venues) == 0 {
			return fmt.Errorf("token %s: venues cannot be empty", t.Symbol)
		}
		if t.Address != "" && !common.IsHexAddress(t.Address) {
			return fmt.Errorf("token %s: invalid address %q", t.Symbol, t.Address)
		}
		if t.Pair != "" && !common.IsHexAddress(t.Pair) {
			return fmt.Errorf("token %s: invalid pair %q", t.Symbol, t.Pair)
		}
		for _, venue := range t.Venues {
			if venue != VenueBitmart && venue != VenueLBank {
				return fmt.Errorf("token %s: unknown venue %q", t.Symbol, venue)
			}
		}
	}
	switch c.Dedup.Backend {
	case "memory":
	case "redis":
		if c.Dedup.Redis.Addr == "" {
			return fmt.Errorf("dedup.redis.addr is required for redis backend")
		}
	default:
		return fmt.Errorf("unknown dedup.backend %q", c.Dedup.Backend)
	}
	return nil
}

// SymbolsForVenue lists configured symbols enabled on venue.
func (c *Config) SymbolsForVenue(venue string) []string {
	var out []string
	for _, t := range c.Tokens {
		for _, v := range t.Venues {
			if v == venue {
				out = append(out, t.Symbol)
				break
			}
		}
	}
	return out
}

// Venues lists every venue referenced by at least one token, in first-seen order.
func (c *Config) Venues() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range c.Tokens {
		for _, v := range t.Venues {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}
