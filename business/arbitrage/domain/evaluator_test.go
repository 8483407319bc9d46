package domain

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	md "github.com/fd1az/liquidity-scanner/business/marketdata/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func lvl(price, size string) md.Level {
	return md.Level{Price: dec(price), Size: dec(size)}
}

func testPolicy() Policy {
	return Policy{
		ProfitThreshold:       5,
		ForwardRatioBound:     dec("1.05"),
		ReverseRatioBound:     dec("1.05"),
		MovableNotional:       dec("100"),
		MaxSlippage:           dec("2"),
		LowLiquidityThreshold: dec("50"),
	}
}

func testToken() TokenConfiguration {
	tok, err := NewTokenConfiguration("TKN", "bsc", decimal.Zero, []md.Venue{md.VenueBitmart, md.VenueLBank}, []md.Venue{md.VenueLBank})
	if err != nil {
		panic(err)
	}
	return tok
}

func deepBook(bid, ask string) *md.Snapshot {
	return &md.Snapshot{
		Symbol: "TKN",
		Venue:  md.VenueBitmart,
		Bids:   []md.Level{lvl(bid, "10000")},
		Asks:   []md.Level{lvl(ask, "10000")},
	}
}

func TestEvaluate_ForwardAndReverseProfit(t *testing.T) {
	tests := []struct {
		name        string
		price       *decimal.Decimal
		tax         string
		book        *md.Snapshot
		wantForward float64
		wantReverse float64
	}{
		{"forward_10pct", decPtr("1.00"), "0", deepBook("1.10", "1.12"), 10, -10.714285714285714},
		{"tax_subtracted", decPtr("1.00"), "3", deepBook("1.10", "1.12"), 7, -13.714285714285714},
		{"reverse_profit", decPtr("1.00"), "0", deepBook("0.80", "0.80"), -20, 25},
		{"absent_price", nil, "0", deepBook("1.10", "1.12"), math.NaN(), math.NaN()},
		{"zero_price", decPtr("0"), "0", deepBook("1.10", "1.12"), math.NaN(), math.NaN()},
		{"negative_price", decPtr("-1"), "0", deepBook("1.10", "1.12"), math.NaN(), math.NaN()},
		{"no_book", decPtr("1.00"), "0", nil, math.NaN(), math.NaN()},
		{"no_bids", decPtr("1.00"), "0", &md.Snapshot{Asks: []md.Level{lvl("0.9", "1")}}, math.NaN(), 11.111111111111111},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := testToken()
			tok.Tax = dec(tt.tax)

			ev := testPolicy().Evaluate(Input{Token: tok, Venue: md.VenueBitmart, Price: tt.price, Book: tt.book})

			if !floatEq(ev.ForwardProfit, tt.wantForward) {
				t.Errorf("ForwardProfit = %v, want %v", ev.ForwardProfit, tt.wantForward)
			}
			if !floatEq(ev.ReverseProfit, tt.wantReverse) {
				t.Errorf("ReverseProfit = %v, want %v", ev.ReverseProfit, tt.wantReverse)
			}
		})
	}
}

func floatEq(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) < 1e-9
}

func TestEvaluate_Ratio(t *testing.T) {
	p := testPolicy()
	p.ReverseRatioBound = dec("1.01")

	ev := p.Evaluate(Input{Token: testToken(), Venue: md.VenueBitmart, Price: decPtr("1"), Book: deepBook("1.00", "1.03")})
	if !ev.SpreadRatio.Valid || !ev.SpreadRatio.Decimal.Equal(dec("1.03")) {
		t.Fatalf("SpreadRatio = %v", ev.SpreadRatio)
	}
	if !ev.ForwardRatioOK {
		t.Error("forward ratio 1.03 <= 1.05 should pass")
	}
	if ev.ReverseRatioOK {
		t.Error("reverse ratio 1.03 > 1.01 should fail")
	}

	oneSided := p.Evaluate(Input{Token: testToken(), Venue: md.VenueBitmart, Price: decPtr("1"),
		Book: &md.Snapshot{Bids: []md.Level{lvl("1", "1")}}})
	if oneSided.SpreadRatio.Valid || oneSided.ForwardRatioOK || oneSided.ReverseRatioOK {
		t.Error("missing ask should fail both ratio checks")
	}
}

func TestEvaluate_MovableFlags(t *testing.T) {
	book := deepBook("1.10", "1.12")
	allOn := &md.CurrencyInfo{Symbol: "TKN", WithdrawEnabled: true, DepositEnabled: true}

	tests := []struct {
		name        string
		venue       md.Venue
		currency    *md.CurrencyInfo
		wantForward bool
		wantReverse bool
	}{
		{"all_enabled", md.VenueBitmart, allOn, true, true},
		{"absent_currency", md.VenueBitmart, nil, false, false},
		{"deposit_disabled", md.VenueBitmart, &md.CurrencyInfo{WithdrawEnabled: true}, false, true},
		{"withdraw_disabled", md.VenueBitmart, &md.CurrencyInfo{DepositEnabled: true}, true, false},
		{"reverse_disabled_venue", md.VenueLBank, allOn, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := testPolicy().Evaluate(Input{
				Token: testToken(), Venue: tt.venue, Price: decPtr("1"), Book: book, Currency: tt.currency,
			})
			if ev.ForwardMovable != tt.wantForward || ev.ReverseMovable != tt.wantReverse {
				t.Errorf("movable = %v/%v, want %v/%v", ev.ForwardMovable, ev.ReverseMovable, tt.wantForward, tt.wantReverse)
			}
		})
	}
}

func TestMovable(t *testing.T) {
	tests := []struct {
		name     string
		levels   []md.Level
		side     md.Side
		notional string
		want     bool
	}{
		{"single_deep_level", []md.Level{lvl("1", "1000")}, md.SideBid, "100", true},
		{"exhausted_book", []md.Level{lvl("1", "10"), lvl("0.99", "10")}, md.SideBid, "100", false},
		// 50 @1 then 50 quote @0.9: vwap = 100 / (50 + 55.5) ~ 0.948, 5.2% slippage
		{"bid_slippage_too_high", []md.Level{lvl("1", "50"), lvl("0.9", "1000")}, md.SideBid, "100", false},
		// 50 @1 then 50 quote @0.99: slippage ~0.5%
		{"bid_slippage_ok", []md.Level{lvl("1", "50"), lvl("0.99", "1000")}, md.SideBid, "100", true},
		{"ask_slippage_too_high", []md.Level{lvl("1", "50"), lvl("1.1", "1000")}, md.SideAsk, "100", false},
		{"ask_slippage_ok", []md.Level{lvl("1", "50"), lvl("1.01", "1000")}, md.SideAsk, "100", true},
		{"empty", nil, md.SideAsk, "100", false},
		{"zero_notional", []md.Level{lvl("1", "1")}, md.SideAsk, "0", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Movable(tt.levels, tt.side, dec(tt.notional), dec("2")); got != tt.want {
				t.Errorf("Movable = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEvaluate_LiquidityClass(t *testing.T) {
	tests := []struct {
		name string
		liq  *decimal.Decimal
		want LiquidityClass
	}{
		{"unknown", nil, LiquidityUnknown},
		{"low", decPtr("49.99"), LiquidityLow},
		{"at_threshold", decPtr("50"), LiquidityOK},
		{"high", decPtr("1000"), LiquidityOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := testPolicy().Evaluate(Input{Token: testToken(), Venue: md.VenueBitmart, Liquidity: tt.liq, Now: time.Now()})
			if ev.Liquidity != tt.want {
				t.Errorf("Liquidity = %s, want %s", ev.Liquidity, tt.want)
			}
		})
	}
}

func TestTokenEvaluation_Eligibility(t *testing.T) {
	ev := &TokenEvaluation{
		ForwardProfit:  10,
		ReverseProfit:  math.NaN(),
		ForwardRatioOK: true,
		ReverseRatioOK: true,
		ForwardMovable: true,
		ReverseMovable: true,
		Liquidity:      LiquidityOK,
	}

	if !ev.IsAlertEligible(DirectionForward, 5) {
		t.Error("forward should be eligible")
	}
	if ev.IsAlertEligible(DirectionReverse, 5) {
		t.Error("NaN reverse profit must never be eligible")
	}
	if ev.IsAlertEligible(DirectionForward, 10) {
		t.Error("profit must be strictly above threshold")
	}

	low := *ev
	low.Liquidity = LiquidityLow
	if low.IsAlertEligible(DirectionForward, 5) {
		t.Error("low liquidity blocks profit alerts")
	}
	if !low.IsProfitableAndRatioProfitable(5) {
		t.Error("display filter ignores liquidity")
	}

	unmovable := *ev
	unmovable.ForwardMovable = false
	if unmovable.IsAlertEligible(DirectionForward, 5) {
		t.Error("unmovable direction is not eligible")
	}
	if !unmovable.IsProfitableAndRatioProfitable(5) {
		t.Error("display filter ignores movability")
	}
}

func TestTokenEvaluation_MaxProfit(t *testing.T) {
	tests := []struct {
		f, r float64
		want float64
	}{
		{5, 7, 7},
		{5, math.NaN(), 5},
		{math.NaN(), -3, -3},
		{math.NaN(), math.NaN(), math.NaN()},
		{math.Inf(1), 2, 2},
	}
	for _, tt := range tests {
		ev := &TokenEvaluation{ForwardProfit: tt.f, ReverseProfit: tt.r}
		if got := ev.MaxProfit(); !floatEq(got, tt.want) {
			t.Errorf("MaxProfit(%v, %v) = %v, want %v", tt.f, tt.r, got, tt.want)
		}
	}
}

func TestNewTokenConfiguration_RequiresVenue(t *testing.T) {
	if _, err := NewTokenConfiguration("TKN", "bsc", decimal.Zero, nil, nil); err != ErrNoVenues {
		t.Errorf("err = %v, want ErrNoVenues", err)
	}
}
