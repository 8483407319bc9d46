package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	md "github.com/fd1az/liquidity-scanner/business/marketdata/domain"
)

var hundred = decimal.NewFromInt(100)

// Policy holds the evaluation thresholds.
type Policy struct {
	// ProfitThreshold is in percent.
	ProfitThreshold   float64
	ForwardRatioBound decimal.Decimal
	ReverseRatioBound decimal.Decimal
	// MovableNotional is the quote-currency amount that must fill within MaxSlippage.
	MovableNotional decimal.Decimal
	// MaxSlippage is in percent, VWAP against the best level.
	MaxSlippage           decimal.Decimal
	LowLiquidityThreshold decimal.Decimal
}

// Input is everything the evaluator needs for one token on one venue.
// Nil pointers are absent values.
type Input struct {
	Token     TokenConfiguration
	Venue     md.Venue
	Price     *decimal.Decimal
	Liquidity *decimal.Decimal
	Book      *md.Snapshot
	Currency  *md.CurrencyInfo
	Now       time.Time
}

// Evaluate builds a TokenEvaluation. It never fails: missing inputs yield
// NaN profits, absent ratios and unknown liquidity.
func (p Policy) Evaluate(in Input) *TokenEvaluation {
	ev := &TokenEvaluation{
		Symbol:        in.Token.Symbol,
		Blockchain:    in.Token.Blockchain,
		Venue:         in.Venue,
		Tax:           in.Token.Tax,
		Book:          in.Book,
		Currency:      in.Currency,
		ForwardProfit: math.NaN(),
		ReverseProfit: math.NaN(),
		Liquidity:     p.classifyLiquidity(in.Liquidity),
		EvaluatedAt:   in.Now,
	}
	if in.Price != nil {
		ev.OnChainPrice = decimal.NewNullDecimal(*in.Price)
	}
	if in.Liquidity != nil {
		ev.OnChainLiquidity = decimal.NewNullDecimal(*in.Liquidity)
	}

	bid, hasBid := in.Book.BestBid()
	ask, hasAsk := in.Book.BestAsk()
	if hasBid {
		ev.BestBid = decimal.NewNullDecimal(bid.Price)
	}
	if hasAsk {
		ev.BestAsk = decimal.NewNullDecimal(ask.Price)
	}

	if in.Price != nil && in.Price.IsPositive() {
		price := *in.Price
		if hasBid {
			ev.ForwardProfit = ForwardProfit(price, bid.Price, in.Token.Tax)
		}
		if hasAsk && ask.Price.IsPositive() {
			ev.ReverseProfit = ReverseProfit(price, ask.Price, in.Token.Tax)
		}
	}

	if hasBid && hasAsk && bid.Price.IsPositive() {
		ratio := ask.Price.Div(bid.Price)
		ev.SpreadRatio = decimal.NewNullDecimal(ratio)
		ev.ForwardRatioOK = ratio.LessThanOrEqual(p.ForwardRatioBound)
		ev.ReverseRatioOK = ratio.LessThanOrEqual(p.ReverseRatioBound)
	}

	if in.Currency != nil && in.Book != nil {
		ev.ForwardMovable = in.Currency.DepositEnabled &&
			Movable(in.Book.Bids, md.SideBid, p.MovableNotional, p.MaxSlippage)
		ev.ReverseMovable = in.Currency.WithdrawEnabled &&
			!in.Token.IsReverseDisabled(in.Venue) &&
			Movable(in.Book.Asks, md.SideAsk, p.MovableNotional, p.MaxSlippage)
	}

	return ev
}

func (p Policy) classifyLiquidity(liq *decimal.Decimal) LiquidityClass {
	if liq == nil {
		return LiquidityUnknown
	}
	if liq.LessThan(p.LowLiquidityThreshold) {
		return LiquidityLow
	}
	return LiquidityOK
}

// ForwardProfit is (bid - price) / price * 100 - tax, in percent.
func ForwardProfit(price, bid, tax decimal.Decimal) float64 {
	pct := bid.Sub(price).Div(price).Mul(hundred).Sub(tax)
	return pct.InexactFloat64()
}

// ReverseProfit is (price - ask) / ask * 100 - tax, in percent.
func ReverseProfit(price, ask, tax decimal.Decimal) float64 {
	pct := price.Sub(ask).Div(ask).Mul(hundred).Sub(tax)
	return pct.InexactFloat64()
}

// Movable walks levels from the best price inward until notional is filled.
// It holds when the book fills notional and the VWAP is within maxSlippage
// percent of the best level.
func Movable(levels []md.Level, side md.Side, notional, maxSlippage decimal.Decimal) bool {
	if len(levels) == 0 || !levels[0].Price.IsPositive() {
		return false
	}
	if !notional.IsPositive() {
		return true
	}

	best := levels[0].Price
	filledQuote := decimal.Zero
	filledBase := decimal.Zero

	for _, l := range levels {
		remaining := notional.Sub(filledQuote)
		levelQuote := l.Notional()
		if levelQuote.GreaterThanOrEqual(remaining) {
			filledBase = filledBase.Add(remaining.Div(l.Price))
			filledQuote = notional
			break
		}
		filledBase = filledBase.Add(l.Size)
		filledQuote = filledQuote.Add(levelQuote)
	}

	if filledQuote.LessThan(notional) || !filledBase.IsPositive() {
		return false
	}

	vwap := filledQuote.Div(filledBase)
	var slip decimal.Decimal
	if side == md.SideBid {
		slip = best.Sub(vwap)
	} else {
		slip = vwap.Sub(best)
	}
	slipPct := slip.Div(best).Mul(hundred)
	return slipPct.LessThanOrEqual(maxSlippage)
}
