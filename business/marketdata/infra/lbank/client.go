// Package lbank polls LBank's REST API for order books and listed pairs.
package lbank

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/liquidity-scanner/business/marketdata/domain"
	"github.com/fd1az/liquidity-scanner/internal/apperror"
	"github.com/fd1az/liquidity-scanner/internal/httpclient"
	"github.com/fd1az/liquidity-scanner/internal/logger"
	"github.com/fd1az/liquidity-scanner/internal/ratelimit"
)

const (
	tracerName = "lbank"
	meterName  = "lbank"

	BaseAPIURL    = "https://api.lbkex.com"
	LegacyAPIURL  = "https://api.lbank.info"
	depthEndpoint = "/v2/depth.do"
	pairsEndpoint = "/v1/currencyPairs.do"

	defaultDepth = 20
)

// ClientConfig holds REST settings.
type ClientConfig struct {
	BaseURL        string
	LegacyURL      string
	Depth          int
	Timeout        time.Duration
	RequestsPerMin int
}

// Client wraps the two LBank REST hosts behind one rate limiter.
type Client struct {
	api     httpclient.Client
	legacy  httpclient.Client
	depth   int
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewClient creates an LBank REST client.
func NewClient(cfg ClientConfig, log logger.LoggerInterface) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = BaseAPIURL
	}
	if cfg.LegacyURL == "" {
		cfg.LegacyURL = LegacyAPIURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerMin <= 0 {
		cfg.RequestsPerMin = 300
	}
	if cfg.Depth <= 0 {
		cfg.Depth = defaultDepth
	}

	tracer := otel.Tracer(tracerName)
	headers := map[string]string{"Accept": "application/json"}

	api, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("lbank"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest),
		httpclient.WithHeaders(headers),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	legacy, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("lbank_legacy"),
		httpclient.WithBaseURL(cfg.LegacyURL),
		httpclient.WithRequestTimeout(cfg.Timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest),
		httpclient.WithHeaders(headers),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Client{
		api:     api,
		legacy:  legacy,
		depth:   cfg.Depth,
		limiter: ratelimit.New(cfg.RequestsPerMin),
		logger:  log,
		tracer:  tracer,
	}, nil
}

// Depth fetches the top of the order book for symbol.
func (c *Client) Depth(ctx context.Context, symbol string) (asks, bids []domain.Level, err error) {
	ctx, span := c.tracer.Start(ctx, "lbank.depth",
		trace.WithAttributes(attribute.String("symbol", symbol)),
	)
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, apperror.Transient(apperror.CodeRateLimitExceeded, "lbank", err)
	}

	var result depthResponse
	resp, err := c.api.NewRequestWithOptions(
		httpclient.WithLabel("endpoint", "depth"),
		httpclient.WithResponseErrorHandler(lbankErrorHandler),
	).
		SetQueryParam("symbol", MarketSymbol(symbol)).
		SetQueryParam("size", strconv.Itoa(c.depth)).
		SetResult(&result).
		Get(ctx, depthEndpoint)
	if err != nil {
		span.RecordError(err)
		return nil, nil, apperror.Transient(apperror.CodeOrderbookFetchFailed, "lbank:"+symbol, err)
	}
	if resp.IsError() || !result.ok() {
		return nil, nil, apperror.Transient(apperror.CodeOrderbookFetchFailed, "lbank:"+symbol,
			&APIError{ErrorCode: result.ErrorCode, Msg: result.Msg})
	}

	asks, badAsks := domain.ParseLevels(rows(result.Data.Asks))
	bids, badBids := domain.ParseLevels(rows(result.Data.Bids))
	if badAsks+badBids > 0 {
		c.logger.Debug(ctx, "dropped malformed lbank levels", "symbol", symbol, "count", badAsks+badBids)
	}
	return asks, bids, nil
}

// CurrencyPairs lists the base symbols LBank quotes against USDT.
func (c *Client) CurrencyPairs(ctx context.Context) ([]string, error) {
	ctx, span := c.tracer.Start(ctx, "lbank.currency_pairs")
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperror.Transient(apperror.CodeRateLimitExceeded, "lbank", err)
	}

	var pairs []string
	resp, err := c.legacy.NewRequestWithOptions(
		httpclient.WithLabel("endpoint", "currency_pairs"),
		httpclient.WithResponseErrorHandler(lbankErrorHandler),
	).
		SetResult(&pairs).
		Get(ctx, pairsEndpoint)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.Transient(apperror.CodeListingFetchFailed, "lbank", err)
	}
	if resp.IsError() {
		return nil, apperror.Transient(apperror.CodeListingFetchFailed, "lbank",
			fmt.Errorf("HTTP %d", resp.StatusCode))
	}
	if pairs == nil {
		return nil, apperror.Transient(apperror.CodeListingFetchFailed, "lbank",
			fmt.Errorf("unexpected payload: %.200s", string(resp.Body())))
	}

	symbols := make([]string, 0, len(pairs))
	seen := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		base, ok := BaseSymbolFromPair(p)
		if !ok || seen[base] {
			continue
		}
		seen[base] = true
		symbols = append(symbols, base)
	}

	span.SetAttributes(attribute.Int("pairs", len(symbols)))
	return symbols, nil
}

func lbankErrorHandler(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.ErrorCode != 0 {
		return &apiErr
	}
	return fmt.Errorf("HTTP %d: %s", statusCode, string(body))
}
