package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/liquidity-scanner/business/onchain/domain"
	"github.com/fd1az/liquidity-scanner/internal/apperror"
	"github.com/fd1az/liquidity-scanner/internal/asset"
	"github.com/fd1az/liquidity-scanner/internal/cache"
	"github.com/fd1az/liquidity-scanner/internal/logger"
)

const (
	tracerName = "onchain"
	meterName  = "onchain"

	nativePriceKey = "native_usd"
)

// TokenRef binds a configured symbol to its token and, optionally, a known pair.
type TokenRef struct {
	Symbol string
	Token  *asset.Asset
	Pair   common.Address // zero means look it up in the factory
}

// Config holds the reference assets used to express prices in USD.
type Config struct {
	Native         *asset.Asset // wrapped native token paired with every monitored token
	Stable         *asset.Asset // USD stable paired with Native
	NativePriceTTL time.Duration
	CallTimeout    time.Duration
}

type serviceMetrics struct {
	lookups      metric.Int64Counter
	lookupErrors metric.Int64Counter
	latency      metric.Float64Histogram
}

// PriceService reports token prices in USD and pool depth in the native token.
type PriceService struct {
	reader PairReader
	cfg    Config
	tokens map[string]TokenRef
	logger logger.LoggerInterface

	pairs   map[pairKey]common.Address
	pairsMu sync.RWMutex

	nativePrice *cache.Cache[string, decimal.Decimal]

	tracer  trace.Tracer
	metrics *serviceMetrics
}

// NewPriceService creates a service for the given tokens.
func NewPriceService(reader PairReader, cfg Config, tokens []TokenRef, log logger.LoggerInterface) (*PriceService, error) {
	if cfg.Native == nil || cfg.Stable == nil {
		return nil, errors.New("native and stable reference assets are required")
	}
	if cfg.NativePriceTTL <= 0 {
		cfg.NativePriceTTL = 30 * time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 5 * time.Second
	}

	s := &PriceService{
		reader:      reader,
		cfg:         cfg,
		tokens:      make(map[string]TokenRef, len(tokens)),
		logger:      log,
		pairs:       make(map[pairKey]common.Address),
		nativePrice: cache.New[string, decimal.Decimal](time.Minute),
		tracer:      otel.Tracer(tracerName),
	}
	for _, t := range tokens {
		s.tokens[t.Symbol] = t
		if t.Pair != (common.Address{}) {
			s.pairs[newPairKey(t.Token.Address(), cfg.Native.Address())] = t.Pair
		}
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}
	return s, nil
}

func (s *PriceService) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &serviceMetrics{}

	s.metrics.lookups, err = meter.Int64Counter(
		"onchain_lookups_total",
		metric.WithDescription("Total on-chain price and liquidity lookups"),
	)
	if err != nil {
		return err
	}

	s.metrics.lookupErrors, err = meter.Int64Counter(
		"onchain_lookup_errors_total",
		metric.WithDescription("Failed on-chain lookups"),
	)
	if err != nil {
		return err
	}

	s.metrics.latency, err = meter.Float64Histogram(
		"onchain_lookup_latency_ms",
		metric.WithDescription("On-chain lookup latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	return err
}

// LatestPrice returns the USD price of symbol derived from its native pair and
// the native/stable reference pair.
func (s *PriceService) LatestPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "onchain.latest_price",
		trace.WithAttributes(attribute.String("symbol", symbol)),
	)
	defer span.End()

	start := time.Now()
	price, err := s.latestPrice(ctx, symbol)
	s.record(ctx, "price", start, err)
	if err != nil {
		span.RecordError(err)
		return decimal.Zero, err
	}

	span.SetAttributes(attribute.String("price_usd", price.String()))
	return price, nil
}

func (s *PriceService) latestPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	ref, reserves, err := s.tokenReserves(ctx, symbol)
	if err != nil {
		return decimal.Zero, apperror.Wrap(err, apperror.CodeOnchainPriceFailed, symbol)
	}

	inNative, err := reserves.SpotPrice(ref.Token, s.cfg.Native)
	if err != nil {
		return decimal.Zero, apperror.Transient(apperror.CodeOnchainPriceFailed, symbol, err)
	}

	nativeUSD, err := s.NativePriceUSD(ctx)
	if err != nil {
		return decimal.Zero, apperror.Wrap(err, apperror.CodeOnchainPriceFailed, symbol)
	}

	return inNative.Mul(nativeUSD), nil
}

// Liquidity returns the native-token side of symbol's pool, in whole units.
func (s *PriceService) Liquidity(ctx context.Context, symbol string) (decimal.Decimal, error) {
	ctx, span := s.tracer.Start(ctx, "onchain.liquidity",
		trace.WithAttributes(attribute.String("symbol", symbol)),
	)
	defer span.End()

	start := time.Now()
	depth, err := s.liquidity(ctx, symbol)
	s.record(ctx, "liquidity", start, err)
	if err != nil {
		span.RecordError(err)
		return decimal.Zero, err
	}
	return depth, nil
}

func (s *PriceService) liquidity(ctx context.Context, symbol string) (decimal.Decimal, error) {
	_, reserves, err := s.tokenReserves(ctx, symbol)
	if err != nil {
		return decimal.Zero, apperror.Wrap(err, apperror.CodeOnchainLiquidity, symbol)
	}
	depth, err := reserves.Depth(s.cfg.Native)
	if err != nil {
		return decimal.Zero, apperror.Transient(apperror.CodeOnchainLiquidity, symbol, err)
	}
	return depth, nil
}

// NativePriceUSD returns the native token's USD price, cached for NativePriceTTL.
func (s *PriceService) NativePriceUSD(ctx context.Context) (decimal.Decimal, error) {
	if p, ok := s.nativePrice.Get(ctx, nativePriceKey); ok {
		return p, nil
	}

	pair, err := s.resolvePair(ctx, s.cfg.Native.Symbol(), s.cfg.Native.Address(), s.cfg.Stable.Address())
	if err != nil {
		return decimal.Zero, err
	}
	reserves, err := s.reserves(ctx, pair)
	if err != nil {
		return decimal.Zero, err
	}
	price, err := reserves.SpotPrice(s.cfg.Native, s.cfg.Stable)
	if err != nil {
		return decimal.Zero, apperror.Transient(apperror.CodeOnchainPriceFailed, s.cfg.Native.Symbol(), err)
	}

	s.nativePrice.Set(ctx, nativePriceKey, price, s.cfg.NativePriceTTL)
	return price, nil
}

// Close releases the price cache.
func (s *PriceService) Close() {
	s.nativePrice.Close()
}

func (s *PriceService) tokenReserves(ctx context.Context, symbol string) (TokenRef, domain.PairReserves, error) {
	ref, ok := s.tokens[symbol]
	if !ok {
		return TokenRef{}, domain.PairReserves{}, apperror.New(apperror.CodeTokenNotConfigured, apperror.WithContext(symbol))
	}

	pair, err := s.resolvePair(ctx, symbol, ref.Token.Address(), s.cfg.Native.Address())
	if err != nil {
		return ref, domain.PairReserves{}, err
	}

	reserves, err := s.reserves(ctx, pair)
	return ref, reserves, err
}

func (s *PriceService) reserves(ctx context.Context, pair common.Address) (domain.PairReserves, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	return s.reader.Reserves(ctx, pair)
}

// pairKey identifies a pool by its two tokens, in address order.
type pairKey struct {
	a, b common.Address
}

func newPairKey(x, y common.Address) pairKey {
	if bytes.Compare(x.Bytes(), y.Bytes()) > 0 {
		x, y = y, x
	}
	return pairKey{a: x, b: y}
}

// resolvePair returns the cached pair of tokenA and tokenB, asking the factory
// on first use. Pair addresses never change once created. label names the
// lookup in errors and logs.
func (s *PriceService) resolvePair(ctx context.Context, label string, tokenA, tokenB common.Address) (common.Address, error) {
	key := newPairKey(tokenA, tokenB)

	s.pairsMu.RLock()
	pair, ok := s.pairs[key]
	s.pairsMu.RUnlock()
	if ok {
		return pair, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	pair, err := s.reader.PairFor(ctx, tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}
	if pair == (common.Address{}) {
		return common.Address{}, apperror.New(apperror.CodePairNotFound, apperror.WithContext(label))
	}

	s.pairsMu.Lock()
	s.pairs[key] = pair
	s.pairsMu.Unlock()

	s.logger.Debug(ctx, "resolved pancake pair", "label", label, "pair", pair.Hex())
	return pair, nil
}

func (s *PriceService) record(ctx context.Context, op string, start time.Time, err error) {
	attrs := metric.WithAttributes(attribute.String("op", op))
	s.metrics.lookups.Add(ctx, 1, attrs)
	s.metrics.latency.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
	if err != nil {
		s.metrics.lookupErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("code", string(apperror.GetCode(err))),
		))
	}
}
