package app

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/liquidity-scanner/business/marketdata/domain"
)

const meterName = "marketdata"

var (
	_ BookWriter = (*Store)(nil)
	_ BookReader = (*Store)(nil)
)

// bookState holds the current book for one (symbol, venue).
type bookState struct {
	mu         sync.RWMutex
	asks       []domain.Level
	bids       []domain.Level
	lastUpdate time.Time
}

// Store keeps the latest order book per (symbol, venue). Writes to one book
// never block readers of another: the outer lock is only held to find or create an entry.
type Store struct {
	books   map[domain.BookKey]*bookState
	booksMu sync.RWMutex

	maxDepth int
	now      func() time.Time
	updates  metric.Int64Counter
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithMaxDepth limits stored levels per side.
func WithMaxDepth(depth int) StoreOption {
	return func(s *Store) {
		s.maxDepth = depth
	}
}

// WithClock overrides the update timestamp source.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		books: make(map[domain.BookKey]*bookState),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	counter, err := otel.Meter(meterName).Int64Counter(
		"orderbook_updates_total",
		metric.WithDescription("Order book writes by venue and kind"),
	)
	if err == nil {
		s.updates = counter
	}

	return s
}

// ApplyUpdate replaces the book for (symbol, venue).
func (s *Store) ApplyUpdate(symbol string, venue domain.Venue, asks, bids []domain.Level) {
	asks = domain.NormalizeLevels(asks, domain.SideAsk, s.maxDepth)
	bids = domain.NormalizeLevels(bids, domain.SideBid, s.maxDepth)

	st := s.state(symbol, venue)
	st.mu.Lock()
	st.asks = asks
	st.bids = bids
	st.lastUpdate = s.now()
	st.mu.Unlock()

	s.record(venue, "snapshot")
}

// MergeUpdate applies incremental levels to the book for (symbol, venue).
func (s *Store) MergeUpdate(symbol string, venue domain.Venue, asks, bids []domain.Level) {
	st := s.state(symbol, venue)
	st.mu.Lock()
	st.asks = domain.MergeLevels(st.asks, asks, domain.SideAsk, s.maxDepth)
	st.bids = domain.MergeLevels(st.bids, bids, domain.SideBid, s.maxDepth)
	st.lastUpdate = s.now()
	st.mu.Unlock()

	s.record(venue, "delta")
}

// Snapshot returns a copy of the most recent book, or false if none was ever written.
func (s *Store) Snapshot(symbol string, venue domain.Venue) (*domain.Snapshot, bool) {
	s.booksMu.RLock()
	st, ok := s.books[domain.BookKey{Symbol: symbol, Venue: venue}]
	s.booksMu.RUnlock()
	if !ok {
		return nil, false
	}

	st.mu.RLock()
	defer st.mu.RUnlock()

	return &domain.Snapshot{
		Symbol:    symbol,
		Venue:     venue,
		Asks:      append([]domain.Level(nil), st.asks...),
		Bids:      append([]domain.Level(nil), st.bids...),
		UpdatedAt: st.lastUpdate,
	}, true
}

// Keys lists every book that has been written.
func (s *Store) Keys() []domain.BookKey {
	s.booksMu.RLock()
	defer s.booksMu.RUnlock()

	keys := make([]domain.BookKey, 0, len(s.books))
	for k := range s.books {
		keys = append(keys, k)
	}
	return keys
}

func (s *Store) state(symbol string, venue domain.Venue) *bookState {
	key := domain.BookKey{Symbol: symbol, Venue: venue}

	s.booksMu.RLock()
	st, ok := s.books[key]
	s.booksMu.RUnlock()
	if ok {
		return st
	}

	s.booksMu.Lock()
	defer s.booksMu.Unlock()
	if st, ok = s.books[key]; ok {
		return st
	}
	st = &bookState{}
	s.books[key] = st
	return st
}

func (s *Store) record(venue domain.Venue, kind string) {
	if s.updates == nil {
		return
	}
	s.updates.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("venue", venue.String()),
		attribute.String("kind", kind),
	))
}
