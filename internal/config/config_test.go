package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

const sampleYAML = `
scanner:
  interval: 15s
  profit_threshold: 3.5
tokens:
  - symbol: tkn
    tax: 2
    venues: [Bitmart, lbank]
    disabled_reverse_venues: [lbank]
    address: "0x0000000000000000000000000000000000000001"
`

const sampleTOML = `
[[tokens]]
symbol = "ABC"
blockchain = "bsc"
tax = 0
venues = ["bitmart"]
address = "0x0000000000000000000000000000000000000002"
decimals = 9
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoad_FileAndTokenRegistry(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)
	tokensPath := writeFile(t, dir, "tokens.toml", sampleTOML)
	t.Setenv("TOKENS_FILE", tokensPath)

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Scanner.Interval != 15*time.Second {
		t.Errorf("Interval = %v, want 15s", cfg.Scanner.Interval)
	}
	if cfg.Scanner.ProfitThreshold != 3.5 {
		t.Errorf("ProfitThreshold = %v, want 3.5", cfg.Scanner.ProfitThreshold)
	}
	if cfg.Scanner.TopN != 20 {
		t.Errorf("TopN default = %d, want 20", cfg.Scanner.TopN)
	}

	if len(cfg.Tokens) != 2 {
		t.Fatalf("len(Tokens) = %d, want 2", len(cfg.Tokens))
	}

	tkn := cfg.Tokens[0]
	if tkn.Symbol != "TKN" {
		t.Errorf("Symbol = %q, want upper-cased TKN", tkn.Symbol)
	}
	if !reflect.DeepEqual(tkn.Venues, []string{"bitmart", "lbank"}) {
		t.Errorf("Venues = %v", tkn.Venues)
	}
	if tkn.Blockchain != "bsc" || tkn.Decimals != 18 {
		t.Errorf("defaults not applied: %+v", tkn)
	}

	abc := cfg.Tokens[1]
	if abc.Symbol != "ABC" || abc.Decimals != 9 {
		t.Errorf("toml token = %+v", abc)
	}

	if got := cfg.SymbolsForVenue(VenueLBank); !reflect.DeepEqual(got, []string{"TKN"}) {
		t.Errorf("SymbolsForVenue(lbank) = %v", got)
	}
	if got := cfg.Venues(); !reflect.DeepEqual(got, []string{"bitmart", "lbank"}) {
		t.Errorf("Venues() = %v", got)
	}
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	t.Setenv("PROFIT_THRESHOLD", "7")
	t.Setenv("TOKEN_NOTIFICATION_COOLDOWN", "30m")
	t.Setenv("TOKEN_LIQUIDITY_COOLDOWN", "2h")
	t.Setenv("DEBUG", "true")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Scanner.ProfitThreshold != 7 {
		t.Errorf("ProfitThreshold = %v, want 7", cfg.Scanner.ProfitThreshold)
	}
	if cfg.Alerts.ProfitCooldown != 30*time.Minute {
		t.Errorf("ProfitCooldown = %v", cfg.Alerts.ProfitCooldown)
	}
	if cfg.Alerts.LiquidityCooldown != 2*time.Hour {
		t.Errorf("LiquidityCooldown = %v", cfg.Alerts.LiquidityCooldown)
	}
	if !cfg.Scanner.Debug {
		t.Error("Debug = false, want true")
	}
}

func TestLoad_LegacyCooldownSeconds(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	t.Setenv("TOKEN_NOTIFICATION_COOLDOWN", "300")
	t.Setenv("TOKEN_LIQUIDITY_COOLDOWN", " 3600 ")

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Alerts.ProfitCooldown != 5*time.Minute {
		t.Errorf("ProfitCooldown = %v, want 5m", cfg.Alerts.ProfitCooldown)
	}
	if cfg.Alerts.LiquidityCooldown != time.Hour {
		t.Errorf("LiquidityCooldown = %v, want 1h", cfg.Alerts.LiquidityCooldown)
	}
	if cfg.Scanner.Interval != 15*time.Second {
		t.Errorf("Interval = %v, want 15s", cfg.Scanner.Interval)
	}
}

func TestLoad_RejectsNonPositiveCooldown(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", sampleYAML)

	t.Setenv("TOKEN_NOTIFICATION_COOLDOWN", "0s")
	t.Setenv("TOKEN_LIQUIDITY_COOLDOWN", "-5m")

	if _, err := Load(cfgPath); err == nil {
		t.Fatal("Load accepted non-positive cooldowns")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Chain: ChainConfig{HTTPURL: "http://localhost:8545"},
			Pancake: PancakeConfig{
				FactoryAddress: "0xcA143Ce32Fe78f1f7019d7d551a6402fC5350c73",
				WBNBAddress:    "0xbb4CdB9CBd36B01bD1cBaEBF2De08d9173bc095c",
				StableAddress:  "0xe9e7CEA3DedcA5984780Bafc599bD69ADd087D56",
			},
			Scanner: ScannerConfig{Interval: time.Second, ForwardRatioBound: 1, ReverseRatioBound: 1},
			Alerts:  AlertsConfig{ProfitCooldown: time.Minute, LiquidityCooldown: time.Hour},
			Dedup:   DedupConfig{Backend: "memory"},
			Tokens:  []TokenConfig{{Symbol: "TKN", Venues: []string{VenueBitmart}}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"no_tokens", func(c *Config) { c.Tokens = nil }, true},
		{"empty_venues", func(c *Config) { c.Tokens[0].Venues = nil }, true},
		{"unknown_venue", func(c *Config) { c.Tokens[0].Venues = []string{"hotbit"} }, true},
		{"bad_factory", func(c *Config) { c.Pancake.FactoryAddress = "nope" }, true},
		{"zero_interval", func(c *Config) { c.Scanner.Interval = 0 }, true},
		{"zero_profit_cooldown", func(c *Config) { c.Alerts.ProfitCooldown = 0 }, true},
		{"negative_liquidity_cooldown", func(c *Config) { c.Alerts.LiquidityCooldown = -5 * time.Minute }, true},
		{"redis_without_addr", func(c *Config) { c.Dedup.Backend = "redis" }, true},
		{"redis_with_addr", func(c *Config) {
			c.Dedup.Backend = "redis"
			c.Dedup.Redis.Addr = "localhost:6379"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAlertsEnabled(t *testing.T) {
	if (&AlertsConfig{}).Enabled() {
		t.Error("no senders should disable alerts")
	}
	if (&AlertsConfig{TelegramBotToken: "x"}).Enabled() {
		t.Error("telegram without chat id should not enable alerts")
	}
	if !(&AlertsConfig{DiscordWebhookURL: "https://example"}).Enabled() {
		t.Error("discord webhook should enable alerts")
	}
}

func TestLoadVenues_SkipsValidation(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "lbank:\n  depth: 50\n")

	if _, err := Load(path); err == nil {
		t.Fatal("Load without chain and tokens should fail validation")
	}
	cfg, err := LoadVenues(path)
	if err != nil {
		t.Fatalf("LoadVenues: %v", err)
	}
	if cfg.LBank.Depth != 50 {
		t.Errorf("depth = %d, want 50", cfg.LBank.Depth)
	}
}
