package app

import (
	"fmt"
	"time"

	"github.com/fd1az/liquidity-scanner/business/arbitrage/domain"
	md "github.com/fd1az/liquidity-scanner/business/marketdata/domain"
)

// Phase is the scanner's position in the tick cycle.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseFetchingListings
	PhaseEvaluatingTokens
	PhaseRanking
	PhaseDispatching
)

func (p Phase) String() string {
	switch p {
	case PhaseFetchingListings:
		return "fetching_listings"
	case PhaseEvaluatingTokens:
		return "evaluating_tokens"
	case PhaseRanking:
		return "ranking"
	case PhaseDispatching:
		return "dispatching"
	default:
		return "idle"
	}
}

// Tick error operations.
const (
	OpCurrencyListing = "currency_listing"
	OpOnChainPrice    = "onchain_price"
	OpOnChainLiq      = "onchain_liquidity"
	OpEvaluate        = "evaluate"
)

// TickError is a failure recorded during one tick. Symbol or Venue may be empty.
type TickError struct {
	Symbol string
	Venue  md.Venue
	Op     string
	Err    error
}

func (e TickError) Error() string {
	switch {
	case e.Symbol != "" && e.Venue != "":
		return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Symbol, e.Venue, e.Err)
	case e.Symbol != "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.Symbol, e.Err)
	case e.Venue != "":
		return fmt.Sprintf("%s %s: %v", e.Op, e.Venue, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e TickError) Unwrap() error { return e.Err }

// ScanResult is one completed tick.
type ScanResult struct {
	TickID    string
	StartedAt time.Time
	Duration  time.Duration

	// Ranked holds every evaluation, best first.
	Ranked []*domain.TokenEvaluation
	// Display is the operator-facing subset of Ranked.
	Display []*domain.TokenEvaluation
	Errors  []TickError

	Alerts DispatchStats
}
