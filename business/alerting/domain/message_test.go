package domain

import (
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	arb "github.com/fd1az/liquidity-scanner/business/arbitrage/domain"
	md "github.com/fd1az/liquidity-scanner/business/marketdata/domain"
)

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func field(m Message, name string) string {
	for _, f := range m.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

func TestProfitMessage(t *testing.T) {
	ev := &arb.TokenEvaluation{
		Symbol:           "TKN",
		Venue:            md.VenueBitmart,
		Tax:              decimal.RequireFromString("2"),
		OnChainPrice:     nd("1.00"),
		OnChainLiquidity: nd("12.345678"),
		BestBid:          nd("1.10"),
		BestAsk:          nd("1.12"),
		ForwardProfit:    8,
		ReverseProfit:    math.NaN(),
		SpreadRatio:      nd("1.0181818"),
	}

	tests := []struct {
		name      string
		direction arb.Direction
		title     string
		quote     string
		quoteVal  string
		profit    string
	}{
		{"forward", arb.DirectionForward, "TKN on Bitmart: DEX→CEX 8.00%", "Bitmart bid", "$1.1", "8.00%"},
		{"reverse", arb.DirectionReverse, "TKN on Bitmart: CEX→DEX n/a", "Bitmart ask", "$1.12", "n/a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := ProfitMessage(ev, tt.direction, 5)
			if m.Kind != KindProfit {
				t.Errorf("kind = %s", m.Kind)
			}
			if m.Title != tt.title {
				t.Errorf("title = %q, want %q", m.Title, tt.title)
			}
			if got := field(m, tt.quote); got != tt.quoteVal {
				t.Errorf("%s = %q, want %q", tt.quote, got, tt.quoteVal)
			}
			if got := field(m, "Profit"); got != tt.profit {
				t.Errorf("profit = %q, want %q", got, tt.profit)
			}
			if got := field(m, "Pool liquidity"); got != "12.3457" {
				t.Errorf("liquidity = %q", got)
			}
			if got := field(m, "Token tax"); got != "2%" {
				t.Errorf("tax = %q", got)
			}
		})
	}
}

func TestLiquidityMessage(t *testing.T) {
	ev := &arb.TokenEvaluation{
		Symbol:           "DRY",
		Venue:            md.VenueLBank,
		OnChainLiquidity: nd("1.5"),
		ForwardProfit:    math.NaN(),
		ReverseProfit:    math.NaN(),
	}
	m := LiquidityMessage(ev)
	if m.Kind != KindLiquidity || !strings.Contains(m.Title, "DRY") {
		t.Errorf("message = %+v", m)
	}
	if got := field(m, "Pool liquidity"); got != "1.5" {
		t.Errorf("liquidity = %q", got)
	}
	if got := field(m, "PancakeSwap price"); got != "n/a" {
		t.Errorf("price = %q", got)
	}
	if got := field(m, "Best profit"); got != "n/a" {
		t.Errorf("profit = %q", got)
	}
}
