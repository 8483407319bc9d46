package app

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/fd1az/liquidity-scanner/business/arbitrage/domain"
	md "github.com/fd1az/liquidity-scanner/business/marketdata/domain"
	"github.com/fd1az/liquidity-scanner/internal/apperror"
	"github.com/fd1az/liquidity-scanner/internal/logger"
)

const (
	tracerName = "scanner"
	meterName  = "scanner"
)

// ScannerConfig controls the tick cycle.
type ScannerConfig struct {
	Interval time.Duration
	// MaxConcurrency bounds per-tick token tasks; 0 is unbounded.
	MaxConcurrency int
	TopN           int
	Debug          bool
}

type scannerMetrics struct {
	ticks        metric.Int64Counter
	tickDuration metric.Float64Histogram
	evaluations  metric.Int64Counter
	tickErrors   metric.Int64Counter
}

// Scanner runs the periodic scan: listings, evaluation, ranking, dispatch.
type Scanner struct {
	cfg        ScannerConfig
	tokens     []domain.TokenConfiguration
	venues     []md.Venue
	onchain    OnChainSource
	market     MarketData
	policy     domain.Policy
	dispatcher *Dispatcher
	reporters  []Reporter
	logger     logger.LoggerInterface
	now        func() time.Time

	phase    atomic.Int32
	lastTick atomic.Int64

	tracer  trace.Tracer
	metrics *scannerMetrics
}

// ScannerOption customizes a Scanner.
type ScannerOption func(*Scanner)

// WithDispatcher enables alerting.
func WithDispatcher(d *Dispatcher) ScannerOption {
	return func(s *Scanner) { s.dispatcher = d }
}

// WithReporters adds presentation sinks.
func WithReporters(r ...Reporter) ScannerOption {
	return func(s *Scanner) { s.reporters = append(s.reporters, r...) }
}

// WithScannerClock overrides the evaluation timestamp source.
func WithScannerClock(now func() time.Time) ScannerOption {
	return func(s *Scanner) { s.now = now }
}

// NewScanner creates a scanner for tokens. At least one token is required.
func NewScanner(
	cfg ScannerConfig,
	tokens []domain.TokenConfiguration,
	onchain OnChainSource,
	market MarketData,
	policy domain.Policy,
	log logger.LoggerInterface,
	opts ...ScannerOption,
) (*Scanner, error) {
	if len(tokens) == 0 {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("no token configured"))
	}
	if cfg.Interval <= 0 {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("scan interval must be positive"))
	}

	s := &Scanner{
		cfg:     cfg,
		tokens:  tokens,
		venues:  venuesOf(tokens),
		onchain: onchain,
		market:  market,
		policy:  policy,
		logger:  log,
		now:     time.Now,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return s, nil
}

func (s *Scanner) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &scannerMetrics{}

	s.metrics.ticks, err = meter.Int64Counter(
		"scanner_ticks_total",
		metric.WithDescription("Completed scan ticks"),
	)
	if err != nil {
		return err
	}

	s.metrics.tickDuration, err = meter.Float64Histogram(
		"scanner_tick_duration_ms",
		metric.WithDescription("Scan tick duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	s.metrics.evaluations, err = meter.Int64Counter(
		"scanner_evaluations_total",
		metric.WithDescription("Token evaluations produced"),
	)
	if err != nil {
		return err
	}

	s.metrics.tickErrors, err = meter.Int64Counter(
		"scanner_tick_errors_total",
		metric.WithDescription("Errors recorded during scan ticks"),
	)
	return err
}

func venuesOf(tokens []domain.TokenConfiguration) []md.Venue {
	seen := make(map[md.Venue]bool)
	var venues []md.Venue
	for _, t := range tokens {
		for _, v := range t.Venues {
			if !seen[v] {
				seen[v] = true
				venues = append(venues, v)
			}
		}
	}
	return venues
}

// Phase returns the current tick phase.
func (s *Scanner) Phase() Phase {
	return Phase(s.phase.Load())
}

func (s *Scanner) setPhase(p Phase) {
	s.phase.Store(int32(p))
}

// LastTick returns when the last tick finished, zero before the first.
func (s *Scanner) LastTick() time.Time {
	ns := s.lastTick.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Interval returns the configured scan interval.
func (s *Scanner) Interval() time.Duration {
	return s.cfg.Interval
}

// Run ticks immediately and then every interval until ctx is done.
// The timer is re-armed after each tick whatever its outcome.
func (s *Scanner) Run(ctx context.Context) error {
	s.logger.Info(ctx, "scanner started",
		"tokens", len(s.tokens),
		"venues", len(s.venues),
		"interval", s.cfg.Interval.String(),
		"alerts", s.dispatcher != nil,
	)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "scanner stopping", "reason", ctx.Err())
			return nil
		case <-timer.C:
			s.safeTick(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

func (s *Scanner) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.setPhase(PhaseIdle)
			err := apperror.New(apperror.CodeTickPanicked,
				apperror.WithContext(fmt.Sprint(r)))
			s.logger.Error(ctx, "scan tick panicked", "error", err, "stack", string(debug.Stack()))
		}
	}()

	if _, err := s.Tick(ctx); err != nil {
		s.logger.Error(ctx, "scan tick failed", "error", err)
	}
}

// Tick runs one full scan cycle and returns its result.
func (s *Scanner) Tick(ctx context.Context) (*ScanResult, error) {
	result := &ScanResult{
		TickID:    uuid.NewString(),
		StartedAt: s.now(),
	}

	ctx, span := s.tracer.Start(ctx, "scanner.tick",
		trace.WithAttributes(attribute.String("tick_id", result.TickID)),
	)
	defer span.End()
	defer s.setPhase(PhaseIdle)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.setPhase(PhaseFetchingListings)
	listings := s.fetchListings(ctx, result)

	s.setPhase(PhaseEvaluatingTokens)
	evals := s.evaluateTokens(ctx, listings, result)

	s.setPhase(PhaseRanking)
	result.Ranked = domain.RankByMaxProfit(evals)
	result.Display = domain.SelectForDisplay(result.Ranked, s.policy.ProfitThreshold, s.cfg.TopN, s.cfg.Debug)

	s.setPhase(PhaseDispatching)
	if s.dispatcher != nil {
		result.Alerts = s.dispatcher.Dispatch(ctx, result.Ranked)
	}

	result.Duration = s.now().Sub(result.StartedAt)
	s.lastTick.Store(s.now().UnixNano())

	for _, te := range result.Errors {
		s.metrics.tickErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("op", te.Op)))
		s.logger.Warn(ctx, "tick error",
			"tick_id", result.TickID,
			"op", te.Op,
			"symbol", te.Symbol,
			"venue", te.Venue,
			"error", te.Err,
		)
	}
	s.metrics.ticks.Add(ctx, 1)
	s.metrics.tickDuration.Record(ctx, float64(result.Duration.Milliseconds()))
	s.metrics.evaluations.Add(ctx, int64(len(result.Ranked)))

	span.SetAttributes(
		attribute.Int("evaluations", len(result.Ranked)),
		attribute.Int("errors", len(result.Errors)),
	)
	if len(result.Errors) > 0 {
		span.SetStatus(codes.Error, "tick completed with errors")
	} else {
		span.SetStatus(codes.Ok, "tick completed")
	}

	s.logger.Debug(ctx, "tick completed",
		"tick_id", result.TickID,
		"evaluations", len(result.Ranked),
		"displayed", len(result.Display),
		"errors", len(result.Errors),
		"profit_alerts", result.Alerts.ProfitAlerts,
		"liquidity_alerts", result.Alerts.LiquidityAlerts,
		"duration_ms", result.Duration.Milliseconds(),
	)

	for _, r := range s.reporters {
		r.Report(ctx, result)
	}
	return result, nil
}

// venueListing is a venue's listing for one tick. synthesized marks venues
// without a listing endpoint; failed ones have neither.
type venueListing struct {
	listing     md.Listing
	synthesized bool
}

func (s *Scanner) fetchListings(ctx context.Context, result *ScanResult) map[md.Venue]venueListing {
	out := make(map[md.Venue]venueListing, len(s.venues))
	for _, v := range s.venues {
		if !s.market.HasListing(v) {
			out[v] = venueListing{synthesized: true}
			continue
		}
		listing, err := s.market.CurrencyListing(ctx, v)
		if err != nil {
			result.Errors = append(result.Errors, TickError{Venue: v, Op: OpCurrencyListing, Err: err})
			out[v] = venueListing{}
			continue
		}
		out[v] = venueListing{listing: listing}
	}
	return out
}

func (l venueListing) currency(token domain.TokenConfiguration, venue md.Venue) *md.CurrencyInfo {
	if l.synthesized {
		return &md.CurrencyInfo{
			Symbol:          token.Symbol,
			Name:            token.Symbol,
			DepositEnabled:  true,
			WithdrawEnabled: !token.IsReverseDisabled(venue),
		}
	}
	ci, ok := l.listing.Lookup(token.Symbol)
	if !ok {
		return nil
	}
	return &ci
}

func (s *Scanner) evaluateTokens(ctx context.Context, listings map[md.Venue]venueListing, result *ScanResult) []*domain.TokenEvaluation {
	perToken := make([][]*domain.TokenEvaluation, len(s.tokens))

	var mu sync.Mutex
	record := func(errs ...TickError) {
		mu.Lock()
		result.Errors = append(result.Errors, errs...)
		mu.Unlock()
	}

	var g errgroup.Group
	if s.cfg.MaxConcurrency > 0 {
		g.SetLimit(s.cfg.MaxConcurrency)
	}
	for i, token := range s.tokens {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					err := apperror.New(apperror.CodeTokenTaskPanicked,
						apperror.WithContext(fmt.Sprint(r)))
					record(TickError{Symbol: token.Symbol, Op: OpEvaluate, Err: err})
				}
			}()
			evals, errs := s.evaluateToken(ctx, token, listings)
			perToken[i] = evals
			if len(errs) > 0 {
				record(errs...)
			}
			return nil
		})
	}
	// Tasks never return an error; Wait is a join.
	_ = g.Wait()

	var evals []*domain.TokenEvaluation
	for _, e := range perToken {
		evals = append(evals, e...)
	}
	return evals
}

func (s *Scanner) evaluateToken(ctx context.Context, token domain.TokenConfiguration, listings map[md.Venue]venueListing) ([]*domain.TokenEvaluation, []TickError) {
	var errs []TickError

	var price, liquidity *decimal.Decimal
	if p, err := s.onchain.LatestPrice(ctx, token.Symbol); err != nil {
		errs = append(errs, TickError{Symbol: token.Symbol, Op: OpOnChainPrice, Err: err})
	} else {
		price = &p
	}
	if l, err := s.onchain.Liquidity(ctx, token.Symbol); err != nil {
		errs = append(errs, TickError{Symbol: token.Symbol, Op: OpOnChainLiq, Err: err})
	} else {
		liquidity = &l
	}

	now := s.now()
	evals := make([]*domain.TokenEvaluation, 0, len(token.Venues))
	for _, venue := range token.Venues {
		book, _ := s.market.Snapshot(token.Symbol, venue)
		evals = append(evals, s.policy.Evaluate(domain.Input{
			Token:     token,
			Venue:     venue,
			Price:     price,
			Liquidity: liquidity,
			Book:      book,
			Currency:  listings[venue].currency(token, venue),
			Now:       now,
		}))
	}
	return evals, errs
}

// ErrorsOf returns the tick errors matching code.
func ErrorsOf(result *ScanResult, code apperror.Code) []TickError {
	var out []TickError
	for _, te := range result.Errors {
		if apperror.GetCode(te.Err) == code {
			out = append(out, te)
		}
	}
	return out
}
