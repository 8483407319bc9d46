// Package app contains the scan cycle, alert dispatch and port definitions for the arbitrage context.
package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/liquidity-scanner/business/arbitrage/domain"
	md "github.com/fd1az/liquidity-scanner/business/marketdata/domain"
)

// OnChainSource reports a token's DEX price in USD and its pool depth.
type OnChainSource interface {
	LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
	Liquidity(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// MarketData is the scanner's read view of venue books and listings.
type MarketData interface {
	Snapshot(symbol string, venue md.Venue) (*md.Snapshot, bool)
	// HasListing reports whether venue has a currency listing endpoint.
	HasListing(venue md.Venue) bool
	CurrencyListing(ctx context.Context, venue md.Venue) (md.Listing, error)
}

// AlertChannel delivers operator notifications.
type AlertChannel interface {
	SendProfitAlert(ctx context.Context, ev *domain.TokenEvaluation, direction domain.Direction, threshold float64) error
	SendLiquidityAlert(ctx context.Context, ev *domain.TokenEvaluation) error
}

// NotificationEntry records one delivered alert.
type NotificationEntry struct {
	Symbol     string           `json:"symbol"`
	Venue      md.Venue         `json:"venue"`
	Direction  domain.Direction `json:"direction,omitempty"`
	Profit     float64          `json:"profit,omitempty"`
	NotifiedAt time.Time        `json:"notified_at"`
}

// NotificationCache is one family of the dedup cache. Entries expire after
// the cooldown the cache was built with.
type NotificationCache interface {
	Contains(ctx context.Context, key string) (bool, error)
	Add(ctx context.Context, key string, entry NotificationEntry) error
}

// Reporter presents scan results.
type Reporter interface {
	Start(ctx context.Context) error
	Report(ctx context.Context, result *ScanResult)
	UpdateConnectionStatus(name string, connected bool)
	Stop() error
}
