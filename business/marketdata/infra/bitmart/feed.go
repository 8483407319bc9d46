package bitmart

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/liquidity-scanner/business/marketdata/app"
	"github.com/fd1az/liquidity-scanner/business/marketdata/domain"
	"github.com/fd1az/liquidity-scanner/internal/apperror"
	"github.com/fd1az/liquidity-scanner/internal/logger"
	"github.com/fd1az/liquidity-scanner/internal/wsconn"
)

const (
	BaseWSURL = "wss://ws-manager-compress.bitmart.com/api?protocol=1.1"

	// Bitmart drops idle connections after 20s without traffic.
	keepAliveInterval = 15 * time.Second

	// Keep subscribe frames under the server's per-request arg limit.
	maxArgsPerRequest = 20
)

var _ app.Feed = (*Feed)(nil)

// FeedConfig holds stream settings.
type FeedConfig struct {
	WebSocketURL string
	Depth        int
	// Incremental switches from full depth snapshots to the increase channel.
	Incremental  bool
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type feedMetrics struct {
	messages     metric.Int64Counter
	depthUpdates metric.Int64Counter
	parseErrors  metric.Int64Counter
}

// Feed streams Bitmart order books into a BookWriter.
type Feed struct {
	cfg    FeedConfig
	writer app.BookWriter
	logger logger.LoggerInterface

	conn    *wsconn.Client
	symbols []string
	mu      sync.RWMutex

	stop     chan struct{}
	stopOnce sync.Once

	tracer  trace.Tracer
	metrics *feedMetrics
}

// NewFeed creates a feed. It does not connect.
func NewFeed(cfg FeedConfig, writer app.BookWriter, log logger.LoggerInterface) (*Feed, error) {
	if cfg.WebSocketURL == "" {
		cfg.WebSocketURL = BaseWSURL
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 60 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	f := &Feed{
		cfg:    cfg,
		writer: writer,
		logger: log,
		stop:   make(chan struct{}),
		tracer: otel.Tracer(tracerName),
	}
	if err := f.initMetrics(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Feed) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	f.metrics = &feedMetrics{}

	f.metrics.messages, err = meter.Int64Counter(
		"bitmart_messages_total",
		metric.WithDescription("Total stream frames received"),
	)
	if err != nil {
		return err
	}

	f.metrics.depthUpdates, err = meter.Int64Counter(
		"bitmart_depth_updates_total",
		metric.WithDescription("Total order book updates applied"),
	)
	if err != nil {
		return err
	}

	f.metrics.parseErrors, err = meter.Int64Counter(
		"bitmart_parse_errors_total",
		metric.WithDescription("Stream frames that could not be parsed"),
	)
	return err
}

// Venue returns bitmart.
func (f *Feed) Venue() domain.Venue {
	return domain.VenueBitmart
}

// Start connects and subscribes to depth channels for symbols.
// Subscriptions are replayed after every reconnect.
func (f *Feed) Start(ctx context.Context, symbols []string) error {
	ctx, span := f.tracer.Start(ctx, "bitmart.start",
		trace.WithAttributes(attribute.StringSlice("symbols", symbols)),
	)
	defer span.End()

	if len(symbols) == 0 {
		return nil
	}

	wsCfg := wsconn.DefaultConfig(f.cfg.WebSocketURL, "bitmart")
	wsCfg.PingInterval = 0 // Bitmart expects a text "ping", see keepAlive
	wsCfg.ReadTimeout = f.cfg.ReadTimeout
	wsCfg.WriteTimeout = f.cfg.WriteTimeout

	conn, err := wsconn.New(wsCfg)
	if err != nil {
		return apperror.New(apperror.CodeVenueConnectionFailed,
			apperror.WithCause(err), apperror.WithContext("bitmart"))
	}

	f.mu.Lock()
	f.conn = conn
	f.symbols = append([]string(nil), symbols...)
	f.mu.Unlock()

	conn.OnMessage(f.handleMessage)
	conn.OnConnect(f.subscribe)
	conn.OnStateChange(func(state wsconn.State, err error) {
		if err != nil {
			f.logger.Warn(context.Background(), "bitmart stream state changed", "state", state, "error", err)
			return
		}
		f.logger.Info(context.Background(), "bitmart stream state changed", "state", state)
	})

	if err := conn.ConnectWithRetry(ctx); err != nil {
		span.RecordError(err)
		return apperror.New(apperror.CodeVenueConnectionFailed,
			apperror.WithCause(err), apperror.WithContext("bitmart"))
	}

	go f.keepAlive()

	f.logger.Info(ctx, "bitmart feed started", "symbols", len(symbols))
	return nil
}

// Connected reports whether the stream is live.
func (f *Feed) Connected() bool {
	f.mu.RLock()
	conn := f.conn
	f.mu.RUnlock()
	return conn != nil && conn.IsConnected()
}

// Close stops the stream.
func (f *Feed) Close() error {
	f.stopOnce.Do(func() { close(f.stop) })

	f.mu.RLock()
	conn := f.conn
	f.mu.RUnlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (f *Feed) channels() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	channel := DepthChannel(f.cfg.Depth)
	if f.cfg.Incremental {
		channel = IncreaseChannel()
	}

	args := make([]string, 0, len(f.symbols))
	for _, sym := range f.symbols {
		args = append(args, channel+":"+MarketSymbol(sym))
	}
	return args
}

func (f *Feed) subscribe(ctx context.Context) {
	f.mu.RLock()
	conn := f.conn
	f.mu.RUnlock()
	if conn == nil {
		return
	}

	args := f.channels()
	for start := 0; start < len(args); start += maxArgsPerRequest {
		end := min(start+maxArgsPerRequest, len(args))
		req := wsRequest{Op: "subscribe", Args: args[start:end]}
		if err := conn.SendJSON(ctx, req); err != nil {
			f.logger.Warn(ctx, "bitmart subscribe failed", "error", err, "args", req.Args)
			return
		}
	}
	f.logger.Debug(ctx, "bitmart subscribed", "channels", len(args))
}

func (f *Feed) keepAlive() {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.stop:
			return
		case <-ticker.C:
			f.mu.RLock()
			conn := f.conn
			f.mu.RUnlock()
			if conn == nil || !conn.IsConnected() {
				continue
			}
			if err := conn.Send(context.Background(), []byte("ping")); err != nil {
				f.logger.Debug(context.Background(), "bitmart keepalive failed", "error", err)
			}
		}
	}
}

func (f *Feed) handleMessage(ctx context.Context, data []byte) {
	f.metrics.messages.Add(ctx, 1)

	if string(data) == "pong" {
		return
	}

	var event wsEvent
	if err := json.Unmarshal(data, &event); err != nil {
		f.metrics.parseErrors.Add(ctx, 1)
		f.logger.Debug(ctx, "failed to parse bitmart frame", "error", err, "data", string(data[:min(len(data), 200)]))
		return
	}

	if event.Event != "" {
		if event.ErrorCode != "" {
			f.logger.Warn(ctx, "bitmart subscription error",
				"event", event.Event, "code", event.ErrorCode, "message", event.ErrorMessage)
		}
		return
	}

	if !strings.HasPrefix(event.Table, tableDepthPrefix) {
		return
	}

	var books []depthData
	if err := json.Unmarshal(event.Data, &books); err != nil {
		f.metrics.parseErrors.Add(ctx, 1)
		f.logger.Warn(ctx, "failed to parse bitmart depth", "error", err, "table", event.Table)
		return
	}

	incremental := strings.HasPrefix(event.Table, tableIncreasePrefix)
	for i := range books {
		f.applyBook(ctx, &books[i], incremental)
	}
}

func (f *Feed) applyBook(ctx context.Context, book *depthData, incremental bool) {
	asks, badAsks := domain.ParseLevels(book.Asks)
	bids, badBids := domain.ParseLevels(book.Bids)
	if badAsks+badBids > 0 {
		f.metrics.parseErrors.Add(ctx, int64(badAsks+badBids))
	}

	symbol := BaseSymbol(book.Symbol)
	if incremental && book.Type != depthTypeSnapshot {
		f.writer.MergeUpdate(symbol, domain.VenueBitmart, asks, bids)
	} else {
		f.writer.ApplyUpdate(symbol, domain.VenueBitmart, asks, bids)
	}

	f.metrics.depthUpdates.Add(ctx, 1, metric.WithAttributes(attribute.Bool("incremental", incremental)))
}
