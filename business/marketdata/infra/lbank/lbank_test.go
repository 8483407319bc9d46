package lbank

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/liquidity-scanner/business/marketdata/app"
	"github.com/fd1az/liquidity-scanner/business/marketdata/domain"
	"github.com/fd1az/liquidity-scanner/internal/apperror"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (nopLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (nopLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (nopLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (nopLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (nopLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

func TestBaseSymbolFromPair(t *testing.T) {
	tests := []struct {
		pair   string
		want   string
		wantOK bool
	}{
		{"tkn_usdt", "TKN", true},
		{"ABC_USDT", "ABC", true},
		{"eth_btc", "", false},
		{"_usdt", "", false},
	}
	for _, tt := range tests {
		got, ok := BaseSymbolFromPair(tt.pair)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("BaseSymbolFromPair(%q) = %q, %v", tt.pair, got, ok)
		}
	}
	if MarketSymbol("TKN") != "tkn_usdt" {
		t.Errorf("MarketSymbol = %q", MarketSymbol("TKN"))
	}
}

func TestClient_Depth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != depthEndpoint {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("symbol"); got != "tkn_usdt" {
			t.Errorf("symbol = %q", got)
		}
		if got := r.URL.Query().Get("size"); got != "10" {
			t.Errorf("size = %q", got)
		}
		_, _ = w.Write([]byte(`{"result":"true","error_code":0,"data":{
			"asks":[[1.21,"30"],["1.20",50]],
			"bids":[["1.10","80"],["1.05"]],
			"timestamp":1700000000000}}`))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL, Depth: 10}, nopLogger{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	asks, bids, err := client.Depth(context.Background(), "TKN")
	if err != nil {
		t.Fatalf("Depth: %v", err)
	}
	if len(asks) != 2 || len(bids) != 1 {
		t.Fatalf("asks=%d bids=%d", len(asks), len(bids))
	}
	if !bids[0].Price.Equal(decimal.RequireFromString("1.10")) {
		t.Errorf("bid = %s", bids[0].Price)
	}
}

func TestClient_DepthAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":"false","error_code":10008,"msg":"invalid symbol"}`))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL}, nopLogger{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, _, err = client.Depth(context.Background(), "NOPE")
	if apperror.GetCode(err) != apperror.CodeOrderbookFetchFailed {
		t.Fatalf("err = %v", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.ErrorCode != 10008 {
		t.Errorf("cause = %v", err)
	}
}

func TestClient_CurrencyPairs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != pairsEndpoint {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`["tkn_usdt","eth_btc","abc_usdt","tkn_usdt"]`))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{LegacyURL: server.URL}, nopLogger{})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	got, err := client.CurrencyPairs(context.Background())
	if err != nil {
		t.Fatalf("CurrencyPairs: %v", err)
	}
	if want := []string{"TKN", "ABC"}; !reflect.DeepEqual(got, want) {
		t.Errorf("CurrencyPairs = %v, want %v", got, want)
	}
}

type fakeFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func (f *fakeFetcher) Depth(_ context.Context, symbol string) ([]domain.Level, []domain.Level, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[symbol]++
	if f.fail[symbol] {
		return nil, nil, errors.New("boom")
	}
	return []domain.Level{{Price: decimal.RequireFromString("2"), Size: decimal.NewFromInt(1)}},
		[]domain.Level{{Price: decimal.RequireFromString("1"), Size: decimal.NewFromInt(1)}},
		nil
}

func TestFeed_PollsIntoStoreAndIsolatesFailures(t *testing.T) {
	fetcher := &fakeFetcher{calls: map[string]int{}, fail: map[string]bool{"BAD": true}}
	store := app.NewStore()

	feed, err := NewFeed(fetcher, store, 20*time.Millisecond, nopLogger{})
	if err != nil {
		t.Fatalf("NewFeed: %v", err)
	}

	if feed.Connected() {
		t.Error("feed connected before first poll")
	}

	if err := feed.Start(context.Background(), []string{"BAD", "TKN"}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := store.Snapshot("TKN", domain.VenueLBank); ok && feed.Connected() {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := feed.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if _, ok := store.Snapshot("TKN", domain.VenueLBank); !ok {
		t.Fatal("TKN book not written")
	}
	if _, ok := store.Snapshot("BAD", domain.VenueLBank); ok {
		t.Error("failed symbol should have no book")
	}

	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	if fetcher.calls["BAD"] == 0 {
		t.Error("failing symbol was never polled")
	}
}
