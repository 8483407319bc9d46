// Package httpclient is the REST client shared by venue adapters and alert
// senders: OTEL spans per request, request and latency metrics, JSON bodies.
package httpclient

import (
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TraceOption selects which bodies are attached to request spans.
type TraceOption string

const (
	TraceRequest  TraceOption = "request"
	TraceResponse TraceOption = "response"
)

type clientOptions struct {
	providerName   string
	requestTimeout time.Duration
	headers        map[string]string
	baseURL        string
	redactURL      func(string) string
	tracer         trace.Tracer
	logRequest     bool
	logResponse    bool
}

// ClientOption configures an InstrumentedClient.
type ClientOption func(*clientOptions)

// WithProviderName labels metrics and spans, typically with the venue or sender name.
func WithProviderName(name string) ClientOption {
	return func(o *clientOptions) { o.providerName = name }
}

func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(o *clientOptions) { o.requestTimeout = timeout }
}

// WithHeaders sets headers sent on every request.
func WithHeaders(headers map[string]string) ClientOption {
	return func(o *clientOptions) { o.headers = headers }
}

// WithBaseURL is prepended to relative request paths.
func WithBaseURL(url string) ClientOption {
	return func(o *clientOptions) { o.baseURL = url }
}

// WithURLRedactor rewrites the URL recorded on spans. Setting it also drops
// transport-level tracing, which would record the raw URL.
func WithURLRedactor(fn func(url string) string) ClientOption {
	return func(o *clientOptions) { o.redactURL = fn }
}

// WithTraceOptions sets the tracer and enables body events on spans.
func WithTraceOptions(tracer trace.Tracer, opts ...TraceOption) ClientOption {
	return func(o *clientOptions) {
		o.tracer = tracer
		for _, opt := range opts {
			switch opt {
			case TraceRequest:
				o.logRequest = true
			case TraceResponse:
				o.logResponse = true
			}
		}
	}
}

// ResponseErrorHandler maps a completed response to an error, or nil to accept it.
type ResponseErrorHandler func(statusCode int, body []byte) error

type requestOptions struct {
	errorHandler ResponseErrorHandler
	labels       []attribute.KeyValue
}

// RequestOption configures a single request.
type RequestOption func(*requestOptions)

func WithResponseErrorHandler(handler ResponseErrorHandler) RequestOption {
	return func(o *requestOptions) { o.errorHandler = handler }
}

// WithLabel adds a metric attribute to this request.
func WithLabel(key, value string) RequestOption {
	return func(o *requestOptions) {
		o.labels = append(o.labels, attribute.String(key, value))
	}
}
