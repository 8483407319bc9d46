// Package domain contains order book and listing types for the market data context.
package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Venue identifies a centralized exchange.
type Venue string

const (
	VenueBitmart Venue = "bitmart"
	VenueLBank   Venue = "lbank"
)

// String returns the venue name.
func (v Venue) String() string {
	return string(v)
}

// DisplayName returns the venue name as shown to operators.
func (v Venue) DisplayName() string {
	switch v {
	case VenueBitmart:
		return "Bitmart"
	case VenueLBank:
		return "LBank"
	default:
		return strings.ToUpper(string(v))
	}
}

// Level is a single price level: price in quote currency, size in base units.
type Level struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// Notional returns price * size.
func (l Level) Notional() decimal.Decimal {
	return l.Price.Mul(l.Size)
}

// BookKey identifies one order book.
type BookKey struct {
	Symbol string
	Venue  Venue
}

// String returns "SYMBOL|venue".
func (k BookKey) String() string {
	return k.Symbol + "|" + string(k.Venue)
}

// Snapshot is an immutable copy of one order book.
// Asks are ascending by price, bids descending.
type Snapshot struct {
	Symbol    string
	Venue     Venue
	Asks      []Level
	Bids      []Level
	UpdatedAt time.Time
}

// BestBid returns the highest bid.
func (s *Snapshot) BestBid() (Level, bool) {
	if s == nil || len(s.Bids) == 0 {
		return Level{}, false
	}
	return s.Bids[0], true
}

// BestAsk returns the lowest ask.
func (s *Snapshot) BestAsk() (Level, bool) {
	if s == nil || len(s.Asks) == 0 {
		return Level{}, false
	}
	return s.Asks[0], true
}

// Side selects bids or asks.
type Side int

const (
	SideBid Side = iota
	SideAsk
)

// NormalizeLevels drops non-positive levels, sorts by side and truncates to maxDepth (0 = no limit).
func NormalizeLevels(levels []Level, side Side, maxDepth int) []Level {
	out := make([]Level, 0, len(levels))
	for _, l := range levels {
		if l.Price.IsPositive() && l.Size.IsPositive() {
			out = append(out, l)
		}
	}
	sortLevels(out, side)
	if maxDepth > 0 && len(out) > maxDepth {
		out = out[:maxDepth]
	}
	return out
}

// MergeLevels applies incremental updates to current. A zero size removes the level.
func MergeLevels(current, updates []Level, side Side, maxDepth int) []Level {
	byPrice := make(map[string]Level, len(current)+len(updates))
	for _, l := range current {
		byPrice[l.Price.String()] = l
	}

	for _, u := range updates {
		key := u.Price.String()
		if u.Size.IsZero() {
			delete(byPrice, key)
			continue
		}
		byPrice[key] = u
	}

	merged := make([]Level, 0, len(byPrice))
	for _, l := range byPrice {
		merged = append(merged, l)
	}
	return NormalizeLevels(merged, side, maxDepth)
}

func sortLevels(levels []Level, side Side) {
	if side == SideBid {
		sort.SliceStable(levels, func(i, j int) bool {
			return levels[i].Price.GreaterThan(levels[j].Price)
		})
		return
	}
	sort.SliceStable(levels, func(i, j int) bool {
		return levels[i].Price.LessThan(levels[j].Price)
	})
}

// ParseLevels converts [price, size] string pairs as sent by venue APIs.
// Malformed rows are skipped and counted.
func ParseLevels(rows [][]string) ([]Level, int) {
	levels := make([]Level, 0, len(rows))
	bad := 0
	for _, row := range rows {
		if len(row) < 2 {
			bad++
			continue
		}
		price, err := decimal.NewFromString(row[0])
		if err != nil {
			bad++
			continue
		}
		size, err := decimal.NewFromString(row[1])
		if err != nil {
			bad++
			continue
		}
		levels = append(levels, Level{Price: price, Size: size})
	}
	return levels, bad
}
