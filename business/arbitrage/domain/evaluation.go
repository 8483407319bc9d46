package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	md "github.com/fd1az/liquidity-scanner/business/marketdata/domain"
)

// LiquidityClass classifies on-chain pool depth against the configured threshold.
type LiquidityClass int

const (
	// LiquidityUnknown means the liquidity lookup failed.
	LiquidityUnknown LiquidityClass = iota
	LiquidityOK
	LiquidityLow
)

func (c LiquidityClass) String() string {
	switch c {
	case LiquidityOK:
		return "ok"
	case LiquidityLow:
		return "low"
	default:
		return "unknown"
	}
}

// TokenEvaluation is one token on one venue for one tick. It is never mutated after creation.
//
// Profit percentages are float64 so that absent inputs can be carried as NaN
// and ordered after every finite value.
type TokenEvaluation struct {
	Symbol     string
	Blockchain string
	Venue      md.Venue
	Tax        decimal.Decimal

	OnChainPrice     decimal.NullDecimal
	OnChainLiquidity decimal.NullDecimal

	Book     *md.Snapshot
	Currency *md.CurrencyInfo
	BestBid  decimal.NullDecimal
	BestAsk  decimal.NullDecimal

	ForwardProfit float64
	ReverseProfit float64

	// SpreadRatio is best ask / best bid; absent when either side is missing.
	SpreadRatio    decimal.NullDecimal
	ForwardRatioOK bool
	ReverseRatioOK bool

	ForwardMovable bool
	ReverseMovable bool

	Liquidity   LiquidityClass
	EvaluatedAt time.Time
}

// MaxProfit returns the larger finite profit of the two directions, or NaN
// when neither is finite.
func (e *TokenEvaluation) MaxProfit() float64 {
	f, r := e.ForwardProfit, e.ReverseProfit
	fOK, rOK := isFinite(f), isFinite(r)
	switch {
	case fOK && rOK:
		return math.Max(f, r)
	case fOK:
		return f
	case rOK:
		return r
	}
	return math.NaN()
}

// Profit returns the profit percentage for direction d.
func (e *TokenEvaluation) Profit(d Direction) float64 {
	if d == DirectionReverse {
		return e.ReverseProfit
	}
	return e.ForwardProfit
}

// IsLowLiquidity reports whether the pool is known to be below threshold.
func (e *TokenEvaluation) IsLowLiquidity() bool {
	return e.Liquidity == LiquidityLow
}

// IsRatioProfitable reports whether direction d clears threshold and its ratio bound.
func (e *TokenEvaluation) IsRatioProfitable(d Direction, threshold float64) bool {
	if d == DirectionReverse {
		return e.ReverseProfit > threshold && e.ReverseRatioOK
	}
	return e.ForwardProfit > threshold && e.ForwardRatioOK
}

// IsProfitableAndRatioProfitable is the display filter: either direction
// clears threshold and its ratio bound. Movability is not required.
func (e *TokenEvaluation) IsProfitableAndRatioProfitable(threshold float64) bool {
	return e.IsRatioProfitable(DirectionForward, threshold) || e.IsRatioProfitable(DirectionReverse, threshold)
}

// IsAlertEligible reports whether direction d qualifies for a profit alert.
// Low-liquidity pools never do; they get a liquidity alert instead.
func (e *TokenEvaluation) IsAlertEligible(d Direction, threshold float64) bool {
	if e.IsLowLiquidity() || !e.IsRatioProfitable(d, threshold) {
		return false
	}
	if d == DirectionReverse {
		return e.ReverseMovable
	}
	return e.ForwardMovable
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
