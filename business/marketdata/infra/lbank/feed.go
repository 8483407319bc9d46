package lbank

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/liquidity-scanner/business/marketdata/app"
	"github.com/fd1az/liquidity-scanner/business/marketdata/domain"
	"github.com/fd1az/liquidity-scanner/internal/logger"
)

const defaultPollInterval = 5 * time.Second

var _ app.Feed = (*Feed)(nil)

// depthFetcher is satisfied by *Client.
type depthFetcher interface {
	Depth(ctx context.Context, symbol string) (asks, bids []domain.Level, err error)
}

// Feed polls LBank depth on a fixed interval and replaces books in the store.
type Feed struct {
	client   depthFetcher
	writer   app.BookWriter
	interval time.Duration
	logger   logger.LoggerInterface
	now      func() time.Time

	lastSuccess atomic.Int64 // unix nanos
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.Mutex

	polls  metric.Int64Counter
	errors metric.Int64Counter
}

// NewFeed creates a polling feed.
func NewFeed(client depthFetcher, writer app.BookWriter, interval time.Duration, log logger.LoggerInterface) (*Feed, error) {
	if interval <= 0 {
		interval = defaultPollInterval
	}

	meter := otel.Meter(meterName)
	polls, err := meter.Int64Counter(
		"lbank_depth_polls_total",
		metric.WithDescription("Total LBank depth requests"),
	)
	if err != nil {
		return nil, err
	}
	errs, err := meter.Int64Counter(
		"lbank_depth_errors_total",
		metric.WithDescription("Failed LBank depth requests"),
	)
	if err != nil {
		return nil, err
	}

	return &Feed{
		client:   client,
		writer:   writer,
		interval: interval,
		logger:   log,
		now:      time.Now,
		polls:    polls,
		errors:   errs,
	}, nil
}

// Venue returns lbank.
func (f *Feed) Venue() domain.Venue {
	return domain.VenueLBank
}

// Start polls once per interval until Close or ctx is done.
func (f *Feed) Start(ctx context.Context, symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}

	f.mu.Lock()
	if f.cancel != nil {
		f.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.mu.Unlock()

	syms := append([]string(nil), symbols...)

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.run(runCtx, syms)
	}()

	f.logger.Info(ctx, "lbank poller started", "symbols", len(syms), "interval", f.interval)
	return nil
}

func (f *Feed) run(ctx context.Context, symbols []string) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		f.pollAll(ctx, symbols)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (f *Feed) pollAll(ctx context.Context, symbols []string) {
	for _, sym := range symbols {
		if ctx.Err() != nil {
			return
		}
		f.poll(ctx, sym)
	}
}

func (f *Feed) poll(ctx context.Context, symbol string) {
	f.polls.Add(ctx, 1)

	asks, bids, err := f.client.Depth(ctx, symbol)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		f.errors.Add(ctx, 1, metric.WithAttributes(attribute.String("symbol", symbol)))
		f.logger.Warn(ctx, "lbank depth poll failed", "symbol", symbol, "error", err)
		return
	}

	f.writer.ApplyUpdate(symbol, domain.VenueLBank, asks, bids)
	f.lastSuccess.Store(f.now().UnixNano())
}

// Connected reports whether a poll succeeded within the last three intervals.
func (f *Feed) Connected() bool {
	last := f.lastSuccess.Load()
	if last == 0 {
		return false
	}
	return f.now().Sub(time.Unix(0, last)) < 3*f.interval
}

// Close stops polling and waits for the in-flight round to finish.
func (f *Feed) Close() error {
	f.mu.Lock()
	cancel := f.cancel
	f.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	f.wg.Wait()
	return nil
}
