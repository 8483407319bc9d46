package bitmart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/shopspring/decimal"

	"github.com/fd1az/liquidity-scanner/business/marketdata/app"
	"github.com/fd1az/liquidity-scanner/business/marketdata/domain"
	"github.com/fd1az/liquidity-scanner/internal/apperror"
)

// nopLogger implements logger.LoggerInterface for testing.
type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (nopLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (nopLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (nopLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (nopLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (nopLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (nopLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (nopLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

func TestSymbols(t *testing.T) {
	if got := MarketSymbol("tkn"); got != "TKN_USDT" {
		t.Errorf("MarketSymbol = %q", got)
	}
	if got := BaseSymbol("TKN_USDT"); got != "TKN" {
		t.Errorf("BaseSymbol = %q", got)
	}
	if got := DepthChannel(7); got != "spot/depth20" {
		t.Errorf("DepthChannel(7) = %q, want fallback to depth20", got)
	}
	if got := DepthChannel(5); got != "spot/depth5" {
		t.Errorf("DepthChannel(5) = %q", got)
	}
}

func TestFeed_SubscribesAndWritesBooks(t *testing.T) {
	subscribed := make(chan wsRequest, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "")

		ctx := context.Background()
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var req wsRequest
		_ = json.Unmarshal(data, &req)
		subscribed <- req

		frame := `{"table":"spot/depth5","data":[{"symbol":"TKN_USDT","ms_t":1700000000000,` +
			`"asks":[["1.20","100"],["1.25","50"]],"bids":[["1.10","80"],["1.05","40"]]}]}`
		_ = conn.Write(ctx, websocket.MessageText, []byte(frame))

		delta := `{"table":"spot/depth/increase100","data":[{"symbol":"TKN_USDT","type":"update",` +
			`"asks":[["1.20","0"]],"bids":[["1.12","5"]]}]}`
		_ = conn.Write(ctx, websocket.MessageText, []byte(delta))

		// Hold the connection until the client goes away.
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	store := app.NewStore()
	feed, err := NewFeed(FeedConfig{
		WebSocketURL: "ws" + strings.TrimPrefix(server.URL, "http"),
		Depth:        5,
	}, store, nopLogger{})
	if err != nil {
		t.Fatalf("NewFeed: %v", err)
	}
	defer feed.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := feed.Start(ctx, []string{"TKN"}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case req := <-subscribed:
		if req.Op != "subscribe" || len(req.Args) != 1 || req.Args[0] != "spot/depth5:TKN_USDT" {
			t.Errorf("subscribe request = %+v", req)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no subscribe request received")
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap, ok := store.Snapshot("TKN", domain.VenueBitmart)
		if ok {
			bid, _ := snap.BestBid()
			ask, _ := snap.BestAsk()
			if bid.Price.Equal(decimal.RequireFromString("1.12")) && ask.Price.Equal(decimal.RequireFromString("1.25")) {
				if !feed.Connected() {
					t.Error("feed reports disconnected")
				}
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	snap, _ := store.Snapshot("TKN", domain.VenueBitmart)
	t.Fatalf("book not updated as expected: %+v", snap)
}

func TestFeed_IgnoresPongAndEvents(t *testing.T) {
	store := app.NewStore()
	feed, err := NewFeed(FeedConfig{}, store, nopLogger{})
	if err != nil {
		t.Fatalf("NewFeed: %v", err)
	}

	ctx := context.Background()
	feed.handleMessage(ctx, []byte("pong"))
	feed.handleMessage(ctx, []byte(`{"event":"subscribe","errorCode":"90004","errorMessage":"bad"}`))
	feed.handleMessage(ctx, []byte(`not json`))

	if len(store.Keys()) != 0 {
		t.Errorf("unexpected writes: %v", store.Keys())
	}
}

func TestListingClient_CurrencyListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != currenciesEndpoint {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"code":1000,"message":"OK","data":{"currencies":[
			{"id":"TKN","name":"Token","withdraw_enabled":true,"deposit_enabled":false},
			{"id":"OTH","name":"Other","withdraw_enabled":false,"deposit_enabled":true}
		]}}`))
	}))
	defer server.Close()

	client, err := NewListingClient(ListingConfig{BaseURL: server.URL}, nopLogger{})
	if err != nil {
		t.Fatalf("NewListingClient: %v", err)
	}

	infos, err := client.CurrencyListing(context.Background())
	if err != nil {
		t.Fatalf("CurrencyListing: %v", err)
	}

	listing := domain.NewListing(infos)
	tkn, ok := listing.Lookup("TKN")
	if !ok || !tkn.WithdrawEnabled || tkn.DepositEnabled {
		t.Errorf("TKN = %+v, %v", tkn, ok)
	}
	if len(infos) != 2 {
		t.Errorf("len = %d, want 2", len(infos))
	}
}

func TestListingClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http_error", http.StatusServiceUnavailable, `{"code":50000,"message":"maintenance"}`},
		{"api_error_code", http.StatusOK, `{"code":30000,"message":"not found"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewListingClient(ListingConfig{BaseURL: server.URL}, nopLogger{})
			if err != nil {
				t.Fatalf("NewListingClient: %v", err)
			}

			_, err = client.CurrencyListing(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}
			if apperror.GetCode(err) != apperror.CodeListingFetchFailed {
				t.Errorf("code = %s", apperror.GetCode(err))
			}
			if !apperror.IsTransient(err) {
				t.Error("listing failures should be transient")
			}
		})
	}
}
