package app

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/liquidity-scanner/business/arbitrage/domain"
	md "github.com/fd1az/liquidity-scanner/business/marketdata/domain"
	"github.com/fd1az/liquidity-scanner/internal/apperror"
	"github.com/fd1az/liquidity-scanner/internal/logger"
)

const (
	alertKindProfit    = "profit"
	alertKindLiquidity = "liquidity"
)

// DispatchStats counts what one dispatch pass did.
type DispatchStats struct {
	ProfitAlerts    int
	LiquidityAlerts int
	Suppressed      int
}

// DispatcherCaches are the three independent dedup families.
type DispatcherCaches struct {
	Forward   NotificationCache
	Reverse   NotificationCache
	Liquidity NotificationCache
}

type dispatcherMetrics struct {
	sent       metric.Int64Counter
	suppressed metric.Int64Counter
	failed     metric.Int64Counter
}

// Dispatcher turns ranked evaluations into alerts, at most one per key per cooldown.
// It is called from the scan loop only.
type Dispatcher struct {
	channel     AlertChannel
	caches      DispatcherCaches
	threshold   float64
	sendTimeout time.Duration
	now         func() time.Time
	logger      logger.LoggerInterface
	metrics     *dispatcherMetrics
}

// NewDispatcher creates a dispatcher. threshold is the profit threshold in percent.
func NewDispatcher(channel AlertChannel, caches DispatcherCaches, threshold float64, sendTimeout time.Duration, log logger.LoggerInterface) (*Dispatcher, error) {
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	d := &Dispatcher{
		channel:     channel,
		caches:      caches,
		threshold:   threshold,
		sendTimeout: sendTimeout,
		now:         time.Now,
		logger:      log,
	}
	if err := d.initMetrics(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dispatcher) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	d.metrics = &dispatcherMetrics{}

	d.metrics.sent, err = meter.Int64Counter(
		"scanner_alerts_sent_total",
		metric.WithDescription("Alerts handed to the alert channel"),
	)
	if err != nil {
		return err
	}

	d.metrics.suppressed, err = meter.Int64Counter(
		"scanner_alerts_suppressed_total",
		metric.WithDescription("Eligible alerts suppressed by the cooldown"),
	)
	if err != nil {
		return err
	}

	d.metrics.failed, err = meter.Int64Counter(
		"scanner_alerts_failed_total",
		metric.WithDescription("Alert deliveries that returned an error"),
	)
	return err
}

// NotificationKey identifies a (symbol, venue) pair in a dedup family.
func NotificationKey(symbol string, venue md.Venue) string {
	return md.BookKey{Symbol: symbol, Venue: venue}.String()
}

// Dispatch walks the ranked batch in order.
func (d *Dispatcher) Dispatch(ctx context.Context, ranked []*domain.TokenEvaluation) DispatchStats {
	var stats DispatchStats
	for _, ev := range ranked {
		for _, dir := range []domain.Direction{domain.DirectionForward, domain.DirectionReverse} {
			if !ev.IsAlertEligible(dir, d.threshold) {
				continue
			}
			cache := d.caches.Reverse
			if dir == domain.DirectionForward {
				cache = d.caches.Forward
			}
			entry := NotificationEntry{Symbol: ev.Symbol, Venue: ev.Venue, Direction: dir, Profit: ev.Profit(dir)}
			sent := d.deliver(ctx, cache, alertKindProfit, ev, entry, func(ctx context.Context) error {
				return d.channel.SendProfitAlert(ctx, ev, dir, d.threshold)
			})
			if sent {
				stats.ProfitAlerts++
			} else {
				stats.Suppressed++
			}
		}

		if ev.IsLowLiquidity() {
			entry := NotificationEntry{Symbol: ev.Symbol, Venue: ev.Venue}
			sent := d.deliver(ctx, d.caches.Liquidity, alertKindLiquidity, ev, entry, func(ctx context.Context) error {
				return d.channel.SendLiquidityAlert(ctx, ev)
			})
			if sent {
				stats.LiquidityAlerts++
			} else {
				stats.Suppressed++
			}
		}
	}
	return stats
}

// deliver sends once per cooldown. A failed lookup suppresses the alert rather
// than risk repeating it every tick.
func (d *Dispatcher) deliver(ctx context.Context, cache NotificationCache, kind string, ev *domain.TokenEvaluation, entry NotificationEntry, send func(context.Context) error) bool {
	key := NotificationKey(ev.Symbol, ev.Venue)
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("venue", ev.Venue.String()),
	)

	seen, err := cache.Contains(ctx, key)
	if err != nil {
		d.logger.Warn(ctx, "dedup lookup failed",
			"key", key,
			"kind", kind,
			"error", apperror.New(apperror.CodeDedupBackendError, apperror.WithCause(err)),
		)
		d.metrics.suppressed.Add(ctx, 1, attrs)
		return false
	}
	if seen {
		d.metrics.suppressed.Add(ctx, 1, attrs)
		return false
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	err = send(sendCtx)
	cancel()
	if err != nil {
		d.metrics.failed.Add(ctx, 1, attrs)
		d.logger.Error(ctx, "alert delivery failed",
			"symbol", ev.Symbol,
			"venue", ev.Venue,
			"kind", kind,
			"direction", entry.Direction,
			"error", err,
		)
	} else {
		d.metrics.sent.Add(ctx, 1, attrs)
		d.logger.Info(ctx, "alert sent",
			"symbol", ev.Symbol,
			"venue", ev.Venue,
			"kind", kind,
			"direction", entry.Direction,
		)
	}

	entry.NotifiedAt = d.now()
	if err := cache.Add(ctx, key, entry); err != nil {
		d.logger.Warn(ctx, "dedup insert failed",
			"key", key,
			"kind", kind,
			"error", apperror.New(apperror.CodeDedupBackendError, apperror.WithCause(err)),
		)
	}
	return true
}
