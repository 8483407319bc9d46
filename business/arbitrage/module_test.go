package arbitrage

import (
	"testing"

	"github.com/shopspring/decimal"

	md "github.com/fd1az/liquidity-scanner/business/marketdata/domain"
	"github.com/fd1az/liquidity-scanner/internal/config"
)

func TestTokenConfigurations(t *testing.T) {
	cfg := &config.Config{Tokens: []config.TokenConfig{
		{Symbol: "TKN", Blockchain: "bsc", Tax: 2.5, Venues: []string{"bitmart", "lbank"}, DisabledReverseVenues: []string{"lbank"}},
	}}

	tokens, err := tokenConfigurations(cfg)
	if err != nil {
		t.Fatalf("tokenConfigurations: %v", err)
	}
	if len(tokens) != 1 {
		t.Fatalf("tokens = %d", len(tokens))
	}
	tk := tokens[0]
	if !tk.Tax.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("tax = %s", tk.Tax)
	}
	if !tk.IsReverseDisabled(md.VenueLBank) || tk.IsReverseDisabled(md.VenueBitmart) {
		t.Errorf("reverse disabled = %v", tk.ReverseDisabled)
	}
}

func TestTokenConfigurations_NoVenues(t *testing.T) {
	cfg := &config.Config{Tokens: []config.TokenConfig{{Symbol: "TKN"}}}
	if _, err := tokenConfigurations(cfg); err == nil {
		t.Error("expected error for token without venues")
	}
}

func TestPolicyFrom(t *testing.T) {
	p := policyFrom(config.ScannerConfig{
		ProfitThreshold:       5,
		ForwardRatioBound:     1.05,
		ReverseRatioBound:     1.1,
		MovableNotional:       500,
		MaxSlippage:           2,
		LowLiquidityThreshold: 50,
	})
	if p.ProfitThreshold != 5 {
		t.Errorf("threshold = %v", p.ProfitThreshold)
	}
	if !p.ReverseRatioBound.Equal(decimal.RequireFromString("1.1")) {
		t.Errorf("reverse bound = %s", p.ReverseRatioBound)
	}
	if !p.MovableNotional.Equal(decimal.NewFromInt(500)) {
		t.Errorf("notional = %s", p.MovableNotional)
	}
}
