package bitmart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/liquidity-scanner/business/marketdata/app"
	"github.com/fd1az/liquidity-scanner/business/marketdata/domain"
	"github.com/fd1az/liquidity-scanner/internal/apperror"
	"github.com/fd1az/liquidity-scanner/internal/httpclient"
	"github.com/fd1az/liquidity-scanner/internal/logger"
	"github.com/fd1az/liquidity-scanner/internal/ratelimit"
)

const (
	tracerName = "bitmart"
	meterName  = "bitmart"

	BaseAPIURL = "https://api-cloud.bitmart.com"

	currenciesEndpoint = "/spot/v1/currencies"
)

var _ app.ListingSource = (*ListingClient)(nil)

// ListingConfig holds REST settings.
type ListingConfig struct {
	BaseURL        string
	Timeout        time.Duration
	RequestsPerMin int
}

// ListingClient fetches Bitmart's currency listing.
type ListingClient struct {
	client  httpclient.Client
	limiter *ratelimit.Limiter
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewListingClient creates a Bitmart REST client.
func NewListingClient(cfg ListingConfig, log logger.LoggerInterface) (*ListingClient, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseAPIURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = 600
	}

	tracer := otel.Tracer(tracerName)

	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("bitmart"),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest),
		httpclient.WithHeaders(map[string]string{
			"Accept": "application/json",
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &ListingClient{
		client:  client,
		limiter: ratelimit.New(rpm),
		logger:  log,
		tracer:  tracer,
	}, nil
}

// Venue returns bitmart.
func (c *ListingClient) Venue() domain.Venue {
	return domain.VenueBitmart
}

// CurrencyListing returns withdraw/deposit flags for every listed currency.
func (c *ListingClient) CurrencyListing(ctx context.Context) ([]domain.CurrencyInfo, error) {
	ctx, span := c.tracer.Start(ctx, "bitmart.currency_listing")
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, apperror.Transient(apperror.CodeRateLimitExceeded, "bitmart", err)
	}

	var result currenciesResponse
	resp, err := c.client.NewRequestWithOptions(
		httpclient.WithLabel("endpoint", "currencies"),
		httpclient.WithResponseErrorHandler(bitmartErrorHandler),
	).
		SetResult(&result).
		Get(ctx, currenciesEndpoint)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.Transient(apperror.CodeListingFetchFailed, "bitmart", err)
	}
	if resp.IsError() || result.Code != successCode {
		return nil, apperror.Transient(apperror.CodeListingFetchFailed, "bitmart",
			&APIError{Code: result.Code, Message: result.Message})
	}

	infos := make([]domain.CurrencyInfo, 0, len(result.Data.Currencies))
	for _, cur := range result.Data.Currencies {
		infos = append(infos, domain.CurrencyInfo{
			Symbol:          cur.ID,
			Name:            cur.Name,
			WithdrawEnabled: cur.WithdrawEnabled,
			DepositEnabled:  cur.DepositEnabled,
		})
	}

	span.SetAttributes(attribute.Int("currencies", len(infos)))
	c.logger.Debug(ctx, "fetched bitmart currency listing", "currencies", len(infos))

	return infos, nil
}

func bitmartErrorHandler(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != 0 {
		return &apiErr
	}
	return fmt.Errorf("HTTP %d: %s", statusCode, string(body))
}
