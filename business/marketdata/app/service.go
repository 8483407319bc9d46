package app

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/fd1az/liquidity-scanner/business/marketdata/domain"
	"github.com/fd1az/liquidity-scanner/internal/apperror"
	"github.com/fd1az/liquidity-scanner/internal/logger"
)

const feedRetryDelay = 5 * time.Second

// MarketDataService owns the order book store and the venue adapters that feed it.
type MarketDataService struct {
	store    *Store
	feeds    map[domain.Venue]Feed
	listings map[domain.Venue]ListingSource
	logger   logger.LoggerInterface
}

// NewMarketDataService wires feeds and listing sources around store.
func NewMarketDataService(store *Store, feeds []Feed, listings []ListingSource, log logger.LoggerInterface) *MarketDataService {
	s := &MarketDataService{
		store:    store,
		feeds:    make(map[domain.Venue]Feed, len(feeds)),
		listings: make(map[domain.Venue]ListingSource, len(listings)),
		logger:   log,
	}
	for _, f := range feeds {
		s.feeds[f.Venue()] = f
	}
	for _, l := range listings {
		s.listings[l.Venue()] = l
	}
	return s
}

// Snapshot returns a copy of the current book, or false if none has been received.
func (s *MarketDataService) Snapshot(symbol string, venue domain.Venue) (*domain.Snapshot, bool) {
	return s.store.Snapshot(symbol, venue)
}

// HasListing reports whether venue publishes a currency listing.
func (s *MarketDataService) HasListing(venue domain.Venue) bool {
	_, ok := s.listings[venue]
	return ok
}

// CurrencyListing fetches venue's listing. Venues without a listing source return an error.
func (s *MarketDataService) CurrencyListing(ctx context.Context, venue domain.Venue) (domain.Listing, error) {
	src, ok := s.listings[venue]
	if !ok {
		return nil, apperror.New(apperror.CodeListingFetchFailed,
			apperror.WithContext(venue.String()),
			apperror.WithMessage("venue has no listing source"))
	}
	infos, err := src.CurrencyListing(ctx)
	if err != nil {
		return nil, err
	}
	return domain.NewListing(infos), nil
}

// StartFeeds starts every feed that has symbols. A feed that fails to start is
// retried in the background until ctx is done.
func (s *MarketDataService) StartFeeds(ctx context.Context, symbols map[domain.Venue][]string) {
	for venue, feed := range s.feeds {
		syms := symbols[venue]
		if len(syms) == 0 {
			s.logger.Info(ctx, "no symbols for venue, feed not started", "venue", venue)
			continue
		}
		go s.startFeed(ctx, feed, syms)
	}
}

func (s *MarketDataService) startFeed(ctx context.Context, feed Feed, symbols []string) {
	for {
		err := feed.Start(ctx, symbols)
		if err == nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn(ctx, "feed start failed, retrying", "venue", feed.Venue(), "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(feedRetryDelay):
		}
	}
}

// FeedStatus reports connection state per venue.
func (s *MarketDataService) FeedStatus() map[domain.Venue]bool {
	out := make(map[domain.Venue]bool, len(s.feeds))
	for venue, f := range s.feeds {
		out[venue] = f.Connected()
	}
	return out
}

// Venues lists venues with a feed, sorted.
func (s *MarketDataService) Venues() []domain.Venue {
	out := make([]domain.Venue, 0, len(s.feeds))
	for v := range s.feeds {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Close stops all feeds.
func (s *MarketDataService) Close() error {
	var errs []error
	for _, f := range s.feeds {
		if err := f.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
