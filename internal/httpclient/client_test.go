package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type pingResult struct {
	Pong string `json:"pong"`
}

func TestRequest_JSONRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/ping" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "TKN_USDT" {
			t.Errorf("symbol = %q", got)
		}
		if got := r.Header.Get("X-Key"); got != "k" {
			t.Errorf("default header = %q", got)
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(pingResult{Pong: body["ping"]})
	}))
	defer srv.Close()

	c, err := NewInstrumentedClient(
		WithProviderName("test"),
		WithBaseURL(srv.URL),
		WithRequestTimeout(time.Second),
		WithHeaders(map[string]string{"X-Key": "k"}),
	)
	if err != nil {
		t.Fatalf("NewInstrumentedClient: %v", err)
	}

	var out pingResult
	resp, err := c.NewRequest().
		SetQueryParam("symbol", "TKN_USDT").
		SetBody(map[string]string{"ping": "hello"}).
		SetResult(&out).
		Post(context.Background(), "/v1/ping")
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if resp.IsError() || out.Pong != "hello" {
		t.Errorf("status = %d, result = %+v", resp.StatusCode, out)
	}
}

func TestRequest_ErrorHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"code": 429}`))
	}))
	defer srv.Close()

	c, err := NewInstrumentedClient(WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewInstrumentedClient: %v", err)
	}

	errLimited := errors.New("limited")
	resp, err := c.NewRequestWithOptions(
		WithResponseErrorHandler(func(status int, body []byte) error {
			if status == http.StatusTooManyRequests {
				return errLimited
			}
			return nil
		}),
	).Get(context.Background(), "/")
	if !errors.Is(err, errLimited) {
		t.Fatalf("err = %v, want errLimited", err)
	}
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("response should be returned with the handler error")
	}
}

func TestWithURLRedactor_SkipsTransportTracing(t *testing.T) {
	c, err := NewInstrumentedClient(WithURLRedactor(func(u string) string { return "redacted" }))
	if err != nil {
		t.Fatalf("NewInstrumentedClient: %v", err)
	}
	ic := c.(*InstrumentedClient)
	if _, ok := ic.client.Transport.(*http.Transport); !ok {
		t.Errorf("transport = %T, want *http.Transport", ic.client.Transport)
	}
}
