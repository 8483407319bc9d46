// Package discord sends alerts to a Discord channel webhook.
package discord

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/liquidity-scanner/business/alerting/app"
	"github.com/fd1az/liquidity-scanner/business/alerting/domain"
	"github.com/fd1az/liquidity-scanner/internal/apperror"
	"github.com/fd1az/liquidity-scanner/internal/httpclient"
	"github.com/fd1az/liquidity-scanner/internal/logger"
)

const tracerName = "discord"

// Embed colors.
const (
	colorProfit    = 0x10B981
	colorLiquidity = 0xF59E0B
)

var _ app.Sender = (*Webhook)(nil)

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Fields    []embedField `json:"fields,omitempty"`
	Timestamp string       `json:"timestamp,omitempty"`
}

type webhookPayload struct {
	Username string  `json:"username,omitempty"`
	Embeds   []embed `json:"embeds"`
}

// Webhook posts messages as embeds to a webhook URL.
type Webhook struct {
	client httpclient.Client
	url    string
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewWebhook creates a sender for url.
func NewWebhook(url string, timeout time.Duration, log logger.LoggerInterface) (*Webhook, error) {
	if url == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("discord webhook url is empty"))
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	tracer := otel.Tracer(tracerName)
	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("discord"),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Webhook{client: client, url: url, logger: log, tracer: tracer}, nil
}

// Name returns "discord".
func (w *Webhook) Name() string { return "discord" }

// Send posts msg.
func (w *Webhook) Send(ctx context.Context, msg domain.Message) error {
	ctx, span := w.tracer.Start(ctx, "discord.send")
	defer span.End()

	_, err := w.client.NewRequestWithOptions(
		httpclient.WithLabel("kind", string(msg.Kind)),
		httpclient.WithResponseErrorHandler(webhookErrorHandler),
	).
		SetBody(payloadFor(msg)).
		Post(ctx, w.url)
	if err != nil {
		span.RecordError(err)
		return apperror.Transient(apperror.CodeAlertDeliveryFailed, "discord", err)
	}
	return nil
}

func payloadFor(msg domain.Message) webhookPayload {
	color := colorProfit
	if msg.Kind == domain.KindLiquidity {
		color = colorLiquidity
	}
	fields := make([]embedField, 0, len(msg.Fields))
	for _, f := range msg.Fields {
		fields = append(fields, embedField{Name: f.Name, Value: f.Value, Inline: true})
	}
	e := embed{Title: msg.Title, Color: color, Fields: fields}
	if !msg.At.IsZero() {
		e.Timestamp = msg.At.UTC().Format(time.RFC3339)
	}
	return webhookPayload{Username: "Liquidity Scanner", Embeds: []embed{e}}
}

func webhookErrorHandler(statusCode int, body []byte) error {
	if statusCode >= 400 {
		return fmt.Errorf("discord webhook status %d: %s", statusCode, string(body))
	}
	return nil
}
