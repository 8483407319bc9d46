// Package app contains the order book store and port definitions for the market data context.
package app

import (
	"context"

	"github.com/fd1az/liquidity-scanner/business/marketdata/domain"
)

// BookWriter is the write side of the order book store. Feeds are its only callers.
type BookWriter interface {
	ApplyUpdate(symbol string, venue domain.Venue, asks, bids []domain.Level)
	MergeUpdate(symbol string, venue domain.Venue, asks, bids []domain.Level)
}

// BookReader is the read side of the order book store.
type BookReader interface {
	Snapshot(symbol string, venue domain.Venue) (*domain.Snapshot, bool)
}

// Feed keeps order books for one venue current by writing into a BookWriter.
type Feed interface {
	Venue() domain.Venue
	// Start begins delivering updates for symbols. It returns once the feed is running;
	// reconnection afterwards is the feed's own concern.
	Start(ctx context.Context, symbols []string) error
	Connected() bool
	Close() error
}

// ListingSource fetches a venue's currency listing.
type ListingSource interface {
	Venue() domain.Venue
	CurrencyListing(ctx context.Context) ([]domain.CurrencyInfo, error)
}
