// Package telegram sends alerts through the Telegram Bot API.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/liquidity-scanner/business/alerting/app"
	"github.com/fd1az/liquidity-scanner/business/alerting/domain"
	"github.com/fd1az/liquidity-scanner/internal/apperror"
	"github.com/fd1az/liquidity-scanner/internal/httpclient"
	"github.com/fd1az/liquidity-scanner/internal/logger"
)

const (
	tracerName = "telegram"

	BaseAPIURL = "https://api.telegram.org"
)

var _ app.Sender = (*Bot)(nil)

// Config holds bot settings.
type Config struct {
	BaseURL string
	Token   string
	ChatID  string
	Timeout time.Duration
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// APIError is a Telegram error response.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram error %d: %s", e.Code, e.Description)
}

// Bot posts messages to one chat.
type Bot struct {
	client httpclient.Client
	path   string
	chatID string
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewBot creates a sender.
func NewBot(cfg Config, log logger.LoggerInterface) (*Bot, error) {
	if cfg.Token == "" || cfg.ChatID == "" {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("telegram token and chat id are required"))
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseAPIURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	tracer := otel.Tracer(tracerName)
	client, err := httpclient.NewInstrumentedClient(
		httpclient.WithProviderName("telegram"),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTraceOptions(tracer, httpclient.TraceRequest),
		httpclient.WithURLRedactor(func(u string) string {
			return strings.ReplaceAll(u, cfg.Token, "<token>")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &Bot{
		client: client,
		path:   "/bot" + cfg.Token + "/sendMessage",
		chatID: cfg.ChatID,
		logger: log,
		tracer: tracer,
	}, nil
}

// Name returns "telegram".
func (b *Bot) Name() string { return "telegram" }

// Send posts msg as HTML.
func (b *Bot) Send(ctx context.Context, msg domain.Message) error {
	ctx, span := b.tracer.Start(ctx, "telegram.send")
	defer span.End()

	var result apiResponse
	_, err := b.client.NewRequestWithOptions(
		httpclient.WithLabel("kind", string(msg.Kind)),
		httpclient.WithResponseErrorHandler(telegramErrorHandler),
	).
		SetBody(sendMessageRequest{
			ChatID:                b.chatID,
			Text:                  render(msg),
			ParseMode:             "HTML",
			DisableWebPagePreview: true,
		}).
		SetResult(&result).
		Post(ctx, b.path)
	if err != nil {
		span.RecordError(err)
		return apperror.Transient(apperror.CodeAlertDeliveryFailed, "telegram", err)
	}
	if !result.OK {
		return apperror.Transient(apperror.CodeAlertDeliveryFailed, "telegram",
			&APIError{Code: result.ErrorCode, Description: result.Description})
	}
	return nil
}

func render(msg domain.Message) string {
	var sb strings.Builder
	sb.WriteString("<b>")
	sb.WriteString(html.EscapeString(msg.Title))
	sb.WriteString("</b>\n")
	for _, f := range msg.Fields {
		sb.WriteString(html.EscapeString(f.Name))
		sb.WriteString(": <code>")
		sb.WriteString(html.EscapeString(f.Value))
		sb.WriteString("</code>\n")
	}
	return sb.String()
}

func telegramErrorHandler(statusCode int, body []byte) error {
	if statusCode < 400 {
		return nil
	}
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Description != "" {
		return &APIError{Code: resp.ErrorCode, Description: resp.Description}
	}
	return fmt.Errorf("telegram status %d", statusCode)
}
