// Package arbitrage implements the arbitrage bounded context: the scan loop,
// token evaluation and alert dispatch.
package arbitrage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	alertDI "github.com/fd1az/liquidity-scanner/business/alerting/di"
	"github.com/fd1az/liquidity-scanner/business/arbitrage/app"
	arbDI "github.com/fd1az/liquidity-scanner/business/arbitrage/di"
	"github.com/fd1az/liquidity-scanner/business/arbitrage/domain"
	"github.com/fd1az/liquidity-scanner/business/arbitrage/infra"
	"github.com/fd1az/liquidity-scanner/business/arbitrage/infra/dedup"
	mdDI "github.com/fd1az/liquidity-scanner/business/marketdata/di"
	md "github.com/fd1az/liquidity-scanner/business/marketdata/domain"
	onchainDI "github.com/fd1az/liquidity-scanner/business/onchain/di"
	"github.com/fd1az/liquidity-scanner/internal/config"
	"github.com/fd1az/liquidity-scanner/internal/di"
	"github.com/fd1az/liquidity-scanner/internal/logger"
	"github.com/fd1az/liquidity-scanner/internal/monolith"
)

const (
	memorySweepInterval = time.Minute
	feedStatusInterval  = time.Second
)

// Module implements the arbitrage bounded context.
type Module struct{}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, arbDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get("config").(*config.Config)
		if cfg.App.TUIMode {
			return infra.NewTUIReporter(cfg.Scanner.Debug)
		}
		return infra.NewConsoleReporter()
	})

	di.RegisterToken(c, arbDI.Caches, func(sr di.ServiceRegistry) app.DispatcherCaches {
		cfg := sr.Get("config").(*config.Config)
		caches, err := newCaches(cfg)
		if err != nil {
			panic("failed to create notification caches: " + err.Error())
		}
		return caches
	})

	di.RegisterToken(c, arbDI.Dispatcher, func(sr di.ServiceRegistry) *app.Dispatcher {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		d, err := app.NewDispatcher(
			alertDI.GetNotifier(sr),
			arbDI.GetCaches(sr),
			cfg.Scanner.ProfitThreshold,
			cfg.Alerts.SendTimeout,
			log,
		)
		if err != nil {
			panic("failed to create dispatcher: " + err.Error())
		}
		return d
	})

	di.RegisterToken(c, arbDI.Scanner, func(sr di.ServiceRegistry) *app.Scanner {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		tokens, err := tokenConfigurations(cfg)
		if err != nil {
			panic("invalid token configuration: " + err.Error())
		}

		opts := []app.ScannerOption{app.WithReporters(arbDI.GetReporter(sr))}
		if cfg.Alerts.Enabled() {
			opts = append(opts, app.WithDispatcher(arbDI.GetDispatcher(sr)))
		}

		s, err := app.NewScanner(
			app.ScannerConfig{
				Interval:       cfg.Scanner.Interval,
				MaxConcurrency: cfg.Scanner.MaxConcurrency,
				TopN:           cfg.Scanner.TopN,
				Debug:          cfg.Scanner.Debug,
			},
			tokens,
			onchainDI.GetPriceService(sr),
			mdDI.GetMarketDataService(sr),
			policyFrom(cfg.Scanner),
			log,
			opts...,
		)
		if err != nil {
			panic("failed to create scanner: " + err.Error())
		}
		return s
	})

	return nil
}

// Startup starts the reporter and forwards feed connection changes to it.
// The scan loop itself is run by main.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	sr := mono.Services()
	reporter := arbDI.GetReporter(sr)
	if err := reporter.Start(ctx); err != nil {
		return err
	}

	scanner := arbDI.GetScanner(sr)
	registerCacheClosers(mono, arbDI.GetCaches(sr))
	go watchFeeds(ctx, mdDI.GetMarketDataService(sr).FeedStatus, reporter)

	mono.Logger().Info(ctx, "arbitrage module started",
		"interval", scanner.Interval(),
		"tokens", len(mono.Config().Tokens),
		"alerts", mono.Config().Alerts.Enabled(),
		"dedup", mono.Config().Dedup.Backend,
	)
	return nil
}

func watchFeeds(ctx context.Context, status func() map[md.Venue]bool, reporter app.Reporter) {
	last := make(map[md.Venue]bool)
	ticker := time.NewTicker(feedStatusInterval)
	defer ticker.Stop()

	for {
		for venue, connected := range status() {
			if prev, ok := last[venue]; !ok || prev != connected {
				reporter.UpdateConnectionStatus(venue.String(), connected)
				last[venue] = connected
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// The redis families share one client, so only the first closer is kept.
func registerCacheClosers(mono monolith.Monolith, caches app.DispatcherCaches) {
	var redisClosed bool
	for _, c := range []app.NotificationCache{caches.Forward, caches.Reverse, caches.Liquidity} {
		switch c := c.(type) {
		case *dedup.Memory:
			mono.OnClose(c.Close)
		case *dedup.Redis:
			if !redisClosed {
				mono.OnClose(c.Close)
				redisClosed = true
			}
		}
	}
}

func newCaches(cfg *config.Config) (app.DispatcherCaches, error) {
	profit := cfg.Alerts.ProfitCooldown
	liquidity := cfg.Alerts.LiquidityCooldown

	if cfg.Dedup.Backend != "redis" {
		return app.DispatcherCaches{
			Forward:   dedup.NewMemory(profit, memorySweepInterval),
			Reverse:   dedup.NewMemory(profit, memorySweepInterval),
			Liquidity: dedup.NewMemory(liquidity, memorySweepInterval),
		}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rdb, err := dedup.NewRedisClient(ctx, dedup.ClientConfig{
		Addr:       cfg.Dedup.Redis.Addr,
		Password:   cfg.Dedup.Redis.Password,
		DB:         cfg.Dedup.Redis.DB,
		PoolSize:   cfg.Dedup.Redis.PoolSize,
		MaxRetries: cfg.Dedup.Redis.MaxRetries,
		TLSEnabled: cfg.Dedup.Redis.TLSEnabled,
	})
	if err != nil {
		return app.DispatcherCaches{}, err
	}
	prefix := cfg.Dedup.KeyPrefix
	return app.DispatcherCaches{
		Forward:   dedup.NewRedis(rdb, prefix+"forward:", profit),
		Reverse:   dedup.NewRedis(rdb, prefix+"reverse:", profit),
		Liquidity: dedup.NewRedis(rdb, prefix+"liquidity:", liquidity),
	}, nil
}

func policyFrom(c config.ScannerConfig) domain.Policy {
	return domain.Policy{
		ProfitThreshold:       c.ProfitThreshold,
		ForwardRatioBound:     decimal.NewFromFloat(c.ForwardRatioBound),
		ReverseRatioBound:     decimal.NewFromFloat(c.ReverseRatioBound),
		MovableNotional:       decimal.NewFromFloat(c.MovableNotional),
		MaxSlippage:           decimal.NewFromFloat(c.MaxSlippage),
		LowLiquidityThreshold: decimal.NewFromFloat(c.LowLiquidityThreshold),
	}
}

func tokenConfigurations(cfg *config.Config) ([]domain.TokenConfiguration, error) {
	out := make([]domain.TokenConfiguration, 0, len(cfg.Tokens))
	for _, t := range cfg.Tokens {
		tc, err := domain.NewTokenConfiguration(
			t.Symbol,
			t.Blockchain,
			decimal.NewFromFloat(t.Tax),
			venues(t.Venues),
			venues(t.DisabledReverseVenues),
		)
		if err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, nil
}

func venues(names []string) []md.Venue {
	out := make([]md.Venue, len(names))
	for i, n := range names {
		out[i] = md.Venue(n)
	}
	return out
}
