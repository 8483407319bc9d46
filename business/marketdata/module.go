// Package marketdata implements the market data bounded context: venue order books and listings.
package marketdata

import (
	"context"
	"slices"

	"github.com/fd1az/liquidity-scanner/business/marketdata/app"
	mdDI "github.com/fd1az/liquidity-scanner/business/marketdata/di"
	"github.com/fd1az/liquidity-scanner/business/marketdata/domain"
	"github.com/fd1az/liquidity-scanner/business/marketdata/infra/bitmart"
	"github.com/fd1az/liquidity-scanner/business/marketdata/infra/lbank"
	"github.com/fd1az/liquidity-scanner/internal/config"
	"github.com/fd1az/liquidity-scanner/internal/di"
	"github.com/fd1az/liquidity-scanner/internal/logger"
	"github.com/fd1az/liquidity-scanner/internal/monolith"
)

// Module implements the market data bounded context.
type Module struct{}

// RegisterServices registers all market data services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, mdDI.Store, func(sr di.ServiceRegistry) *app.Store {
		cfg := sr.Get("config").(*config.Config)
		depth := max(cfg.Bitmart.Depth, cfg.LBank.Depth)
		return app.NewStore(app.WithMaxDepth(depth))
	})

	di.RegisterToken(c, mdDI.LBankClient, func(sr di.ServiceRegistry) *lbank.Client {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := lbank.NewClient(lbank.ClientConfig{
			BaseURL:        cfg.LBank.RESTURL,
			LegacyURL:      cfg.LBank.LegacyURL,
			Depth:          cfg.LBank.Depth,
			Timeout:        cfg.LBank.RequestTimeout,
			RequestsPerMin: cfg.LBank.RequestsPerMin,
		}, log)
		if err != nil {
			panic("failed to create lbank client: " + err.Error())
		}
		return client
	})

	// Only venues referenced by a token get a feed.
	di.RegisterToken(c, mdDI.Feeds, func(sr di.ServiceRegistry) []app.Feed {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		store := mdDI.GetStore(sr)
		venues := cfg.Venues()

		var feeds []app.Feed
		if slices.Contains(venues, config.VenueBitmart) {
			feed, err := bitmart.NewFeed(bitmart.FeedConfig{
				WebSocketURL: cfg.Bitmart.WebSocketURL,
				Depth:        cfg.Bitmart.Depth,
			}, store, log)
			if err != nil {
				panic("failed to create bitmart feed: " + err.Error())
			}
			feeds = append(feeds, feed)
		}
		if slices.Contains(venues, config.VenueLBank) {
			feed, err := lbank.NewFeed(mdDI.GetLBankClient(sr), store, cfg.LBank.PollInterval, log)
			if err != nil {
				panic("failed to create lbank feed: " + err.Error())
			}
			feeds = append(feeds, feed)
		}
		return feeds
	})

	// LBank publishes no withdraw/deposit flags; the scanner synthesizes them from token config.
	di.RegisterToken(c, mdDI.Listings, func(sr di.ServiceRegistry) []app.ListingSource {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := bitmart.NewListingClient(bitmart.ListingConfig{
			BaseURL:        cfg.Bitmart.RESTURL,
			Timeout:        cfg.Bitmart.RequestTimeout,
			RequestsPerMin: cfg.Bitmart.RequestsPerMin,
		}, log)
		if err != nil {
			panic("failed to create bitmart listing client: " + err.Error())
		}
		return []app.ListingSource{client}
	})

	di.RegisterToken(c, mdDI.MarketDataService, func(sr di.ServiceRegistry) *app.MarketDataService {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewMarketDataService(mdDI.GetStore(sr), mdDI.GetFeeds(sr), mdDI.GetListings(sr), log)
	})

	return nil
}

// Startup starts venue feeds for every configured symbol.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	svc := mdDI.GetMarketDataService(mono.Services())

	symbols := map[domain.Venue][]string{
		domain.VenueBitmart: cfg.SymbolsForVenue(config.VenueBitmart),
		domain.VenueLBank:   cfg.SymbolsForVenue(config.VenueLBank),
	}
	svc.StartFeeds(ctx, symbols)
	mono.OnClose(svc.Close)

	mono.Logger().Info(ctx, "marketdata module started",
		"bitmart_symbols", len(symbols[domain.VenueBitmart]),
		"lbank_symbols", len(symbols[domain.VenueLBank]),
	)
	return nil
}
