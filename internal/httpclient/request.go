package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Request builds and executes one HTTP call.
type Request interface {
	Get(ctx context.Context, url string) (*Response, error)
	Post(ctx context.Context, url string) (*Response, error)

	// SetBody accepts []byte, string, io.Reader or any JSON-encodable value.
	SetBody(body any) Request
	SetHeader(key, value string) Request
	SetQueryParam(key, value string) Request
	// SetResult decodes a JSON response body into result.
	SetResult(result any) Request
}

// Response is an http.Response with the body already read.
type Response struct {
	*http.Response
	body []byte
}

func (r *Response) Body() []byte { return r.body }

func (r *Response) IsError() bool { return r.StatusCode >= 400 }

type requestBuilder struct {
	c       *InstrumentedClient
	opts    requestOptions
	headers map[string]string
	query   neturl.Values
	body    any
	result  any
}

var _ Request = (*requestBuilder)(nil)

func (r *requestBuilder) Get(ctx context.Context, url string) (*Response, error) {
	return r.execute(ctx, http.MethodGet, url)
}

func (r *requestBuilder) Post(ctx context.Context, url string) (*Response, error) {
	return r.execute(ctx, http.MethodPost, url)
}

func (r *requestBuilder) SetBody(body any) Request {
	r.body = body
	return r
}

func (r *requestBuilder) SetHeader(key, value string) Request {
	r.headers[key] = value
	return r
}

func (r *requestBuilder) SetQueryParam(key, value string) Request {
	if r.query == nil {
		r.query = neturl.Values{}
	}
	r.query.Set(key, value)
	return r
}

func (r *requestBuilder) SetResult(result any) Request {
	r.result = result
	return r
}

func (r *requestBuilder) resolve(url string) string {
	full := url
	if base := r.c.baseURL; base != "" && !strings.HasPrefix(url, "http") {
		full = strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(url, "/")
	}
	if len(r.query) == 0 {
		return full
	}
	sep := "?"
	if strings.Contains(full, "?") {
		sep = "&"
	}
	return full + sep + r.query.Encode()
}

// encodeBody returns the reader for r.body and the raw text for span events.
func (r *requestBuilder) encodeBody() (io.Reader, string, error) {
	switch b := r.body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(b), string(b), nil
	case string:
		return strings.NewReader(b), b, nil
	case io.Reader:
		return b, "", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal body: %w", err)
		}
		if _, ok := r.headers["Content-Type"]; !ok {
			r.headers["Content-Type"] = "application/json"
		}
		return bytes.NewReader(data), string(data), nil
	}
}

func (r *requestBuilder) execute(ctx context.Context, method, url string) (*Response, error) {
	start := time.Now()
	spanURL := url
	if r.c.redactURL != nil {
		spanURL = r.c.redactURL(url)
	}

	ctx, span := r.c.tracer.Start(ctx, "http.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", spanURL),
			attribute.String("provider", r.c.providerName),
		),
	)
	defer span.End()

	bodyReader, bodyText, err := r.encodeBody()
	if err != nil {
		return nil, r.fail(ctx, span, err, start)
	}
	if r.c.logRequest && bodyText != "" {
		span.AddEvent("request.body", trace.WithAttributes(attribute.String("http.request_body", bodyText)))
	}

	req, err := http.NewRequestWithContext(ctx, method, r.resolve(url), bodyReader)
	if err != nil {
		return nil, r.fail(ctx, span, fmt.Errorf("failed to create request: %w", err), start)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := r.c.client.Do(req)
	if err != nil {
		return nil, r.fail(ctx, span, err, start)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, r.fail(ctx, span, fmt.Errorf("failed to read response body: %w", err), start)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if r.c.logResponse {
		span.AddEvent("response.body", trace.WithAttributes(attribute.String("http.response_body", string(body))))
	}

	response := &Response{Response: resp, body: body}

	// Error bodies often do not match the result shape; decode failures stay on the span.
	if r.result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, r.result); err != nil {
			span.RecordError(err)
		}
	}

	if r.opts.errorHandler != nil {
		if err := r.opts.errorHandler(resp.StatusCode, body); err != nil {
			span.SetStatus(codes.Error, err.Error())
			r.record(ctx, false, start)
			return response, err
		}
	}

	r.record(ctx, !response.IsError(), start)
	return response, nil
}

func (r *requestBuilder) fail(ctx context.Context, span trace.Span, err error, start time.Time) error {
	span.RecordError(err)
	if errors.Is(err, context.Canceled) {
		span.SetAttributes(attribute.Bool("context.cancelled", true))
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		span.SetAttributes(attribute.Bool("request.timeout", true))
	}
	span.SetStatus(codes.Error, err.Error())
	r.record(ctx, false, start)
	return err
}

func (r *requestBuilder) record(ctx context.Context, success bool, start time.Time) {
	attrs := append([]attribute.KeyValue{
		attribute.String("provider", r.c.providerName),
		attribute.Bool("success", success),
	}, r.opts.labels...)

	opt := metric.WithAttributes(attrs...)
	r.c.requestCounter.Add(ctx, 1, opt)
	r.c.duration.Record(ctx, float64(time.Since(start).Milliseconds()), opt)
}
