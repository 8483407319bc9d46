// Package app fans alerts out to the configured senders.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/liquidity-scanner/business/alerting/domain"
	arbApp "github.com/fd1az/liquidity-scanner/business/arbitrage/app"
	arb "github.com/fd1az/liquidity-scanner/business/arbitrage/domain"
	"github.com/fd1az/liquidity-scanner/internal/apperror"
	"github.com/fd1az/liquidity-scanner/internal/logger"
)

const (
	tracerName = "alerting"
	meterName  = "alerting"
)

var _ arbApp.AlertChannel = (*Notifier)(nil)

// Sender delivers a message over one channel.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg domain.Message) error
}

type notifierMetrics struct {
	delivered metric.Int64Counter
	failed    metric.Int64Counter
}

// Notifier implements AlertChannel by sending every alert to all senders.
type Notifier struct {
	senders []Sender
	logger  logger.LoggerInterface
	tracer  trace.Tracer
	metrics *notifierMetrics
}

// NewNotifier creates a notifier. At least one sender is required.
func NewNotifier(senders []Sender, log logger.LoggerInterface) (*Notifier, error) {
	if len(senders) == 0 {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("no alert sender configured"))
	}
	n := &Notifier{
		senders: senders,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}
	if err := n.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return n, nil
}

func (n *Notifier) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	n.metrics = &notifierMetrics{}

	n.metrics.delivered, err = meter.Int64Counter(
		"alerting_delivered_total",
		metric.WithDescription("Alerts delivered per sender"),
	)
	if err != nil {
		return err
	}

	n.metrics.failed, err = meter.Int64Counter(
		"alerting_failed_total",
		metric.WithDescription("Alert deliveries that failed per sender"),
	)
	return err
}

// Senders returns the configured sender names.
func (n *Notifier) Senders() []string {
	names := make([]string, 0, len(n.senders))
	for _, s := range n.senders {
		names = append(names, s.Name())
	}
	return names
}

// SendProfitAlert notifies a profitable direction.
func (n *Notifier) SendProfitAlert(ctx context.Context, ev *arb.TokenEvaluation, d arb.Direction, threshold float64) error {
	return n.Send(ctx, domain.ProfitMessage(ev, d, threshold))
}

// SendLiquidityAlert notifies a shallow pool.
func (n *Notifier) SendLiquidityAlert(ctx context.Context, ev *arb.TokenEvaluation) error {
	return n.Send(ctx, domain.LiquidityMessage(ev))
}

// Send delivers msg to every sender concurrently. It fails only if every sender failed.
func (n *Notifier) Send(ctx context.Context, msg domain.Message) error {
	ctx, span := n.tracer.Start(ctx, "alerting.send",
		trace.WithAttributes(attribute.String("kind", string(msg.Kind))),
	)
	defer span.End()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, s := range n.senders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			attrs := metric.WithAttributes(
				attribute.String("sender", s.Name()),
				attribute.String("kind", string(msg.Kind)),
			)
			if err := s.Send(ctx, msg); err != nil {
				n.metrics.failed.Add(ctx, 1, attrs)
				n.logger.Warn(ctx, "alert sender failed", "sender", s.Name(), "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
				mu.Unlock()
				return
			}
			n.metrics.delivered.Add(ctx, 1, attrs)
		}()
	}
	wg.Wait()

	if len(errs) == len(n.senders) {
		err := apperror.New(apperror.CodeAlertDeliveryFailed,
			apperror.WithCause(errors.Join(errs...)),
			apperror.WithContext(msg.Title))
		span.RecordError(err)
		return err
	}
	return nil
}
