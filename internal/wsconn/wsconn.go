// Package wsconn provides a reconnecting WebSocket client built on coder/websocket.
package wsconn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/fd1az/liquidity-scanner/internal/apperror"
)

const meterName = "wsconn"

// State represents the connection state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateReconnecting State = "reconnecting"
	StateClosed       State = "closed"
)

// Config holds WebSocket client configuration.
type Config struct {
	URL  string
	Name string

	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxReconnects  int // 0 = infinite

	PingInterval time.Duration // 0 disables pings
	PongTimeout  time.Duration

	MaxMessageSize int64
	ReadTimeout    time.Duration // 0 = wait forever for the next frame
	WriteTimeout   time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig(url, name string) Config {
	return Config{
		URL:            url,
		Name:           name,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		PingInterval:   15 * time.Second,
		PongTimeout:    10 * time.Second,
		MaxMessageSize: 1 << 20,
		ReadTimeout:    0,
		WriteTimeout:   5 * time.Second,
	}
}

// MessageHandler receives every data frame.
type MessageHandler func(ctx context.Context, msg []byte)

// StateHandler observes state transitions. err is set when the transition was caused by a failure.
type StateHandler func(state State, err error)

// ConnectHandler runs after every successful (re)connection, e.g. to resubscribe.
type ConnectHandler func(ctx context.Context)

type clientMetrics struct {
	messages   metric.Int64Counter
	reconnects metric.Int64Counter
	failures   metric.Int64Counter
}

// Client is a WebSocket client that reconnects with exponential backoff.
type Client struct {
	cfg Config

	mu    sync.RWMutex
	conn  *websocket.Conn
	state State

	handlersMu      sync.RWMutex
	messageHandlers []MessageHandler
	stateHandlers   []StateHandler
	connectHandlers []ConnectHandler

	writeMu sync.Mutex

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	wg        sync.WaitGroup

	metrics *clientMetrics
	attrs   metric.MeasurementOption
}

// New creates a new WebSocket client. It does not connect.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("websocket url is required"))
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		cfg:    cfg,
		state:  StateDisconnected,
		ctx:    ctx,
		cancel: cancel,
		attrs:  metric.WithAttributes(attribute.String("conn", cfg.Name)),
	}

	if err := c.initMetrics(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return c, nil
}

func (c *Client) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	c.metrics = &clientMetrics{}

	c.metrics.messages, err = meter.Int64Counter(
		"ws_messages_received_total",
		metric.WithDescription("Total WebSocket frames received"),
	)
	if err != nil {
		return err
	}

	c.metrics.reconnects, err = meter.Int64Counter(
		"ws_reconnects_total",
		metric.WithDescription("Total successful reconnections"),
	)
	if err != nil {
		return err
	}

	c.metrics.failures, err = meter.Int64Counter(
		"ws_connection_failures_total",
		metric.WithDescription("Total dial or read failures"),
	)
	return err
}

// OnMessage registers a handler for incoming frames.
func (c *Client) OnMessage(h MessageHandler) {
	c.handlersMu.Lock()
	c.messageHandlers = append(c.messageHandlers, h)
	c.handlersMu.Unlock()
}

// OnStateChange registers a state observer.
func (c *Client) OnStateChange(h StateHandler) {
	c.handlersMu.Lock()
	c.stateHandlers = append(c.stateHandlers, h)
	c.handlersMu.Unlock()
}

// OnConnect registers a hook run after each successful connection.
func (c *Client) OnConnect(h ConnectHandler) {
	c.handlersMu.Lock()
	c.connectHandlers = append(c.connectHandlers, h)
	c.handlersMu.Unlock()
}

// Name returns the configured connection name.
func (c *Client) Name() string {
	return c.cfg.Name
}

// Connect dials once. On failure the client stays disconnected.
func (c *Client) Connect(ctx context.Context) error {
	return c.connect(ctx, false)
}

// ConnectWithRetry dials until it succeeds, ctx ends or MaxReconnects attempts are used.
func (c *Client) ConnectWithRetry(ctx context.Context) error {
	backoff := c.cfg.InitialBackoff
	for attempt := 1; ; attempt++ {
		err := c.connect(ctx, false)
		if err == nil {
			return nil
		}
		if c.cfg.MaxReconnects > 0 && attempt >= c.cfg.MaxReconnects {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.ctx.Done():
			return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.cfg.Name))
		case <-time.After(backoff):
		}
		backoff = nextBackoff(backoff, c.cfg.MaxBackoff)
	}
}

func (c *Client) connect(ctx context.Context, reconnecting bool) error {
	if c.ctx.Err() != nil {
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.cfg.Name))
	}
	if !reconnecting {
		c.setState(StateConnecting, nil)
	}

	conn, _, err := websocket.Dial(ctx, c.cfg.URL, nil)
	if err != nil {
		c.metrics.failures.Add(c.ctx, 1, c.attrs)
		wrapped := apperror.New(apperror.CodeWebSocketConnectionError,
			apperror.WithCause(err), apperror.WithContext(c.cfg.Name))
		if !reconnecting {
			c.setState(StateDisconnected, wrapped)
		}
		return wrapped
	}
	if c.cfg.MaxMessageSize > 0 {
		conn.SetReadLimit(c.cfg.MaxMessageSize)
	}

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		conn.CloseNow()
		return apperror.New(apperror.CodeWebSocketClosed, apperror.WithContext(c.cfg.Name))
	}
	c.conn = conn
	c.mu.Unlock()

	c.setState(StateConnected, nil)

	c.wg.Add(1)
	go c.readLoop(conn)

	if c.cfg.PingInterval > 0 {
		c.wg.Add(1)
		go c.pingLoop(conn)
	}

	c.handlersMu.RLock()
	hooks := append([]ConnectHandler(nil), c.connectHandlers...)
	c.handlersMu.RUnlock()
	for _, h := range hooks {
		h(c.ctx)
	}

	return nil
}

func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.wg.Done()

	for {
		ctx := c.ctx
		var cancel context.CancelFunc
		if c.cfg.ReadTimeout > 0 {
			ctx, cancel = context.WithTimeout(c.ctx, c.cfg.ReadTimeout)
		}
		_, data, err := conn.Read(ctx)
		if cancel != nil {
			cancel()
		}
		if err != nil {
			c.handleDisconnect(conn, err)
			return
		}

		c.metrics.messages.Add(c.ctx, 1, c.attrs)

		c.handlersMu.RLock()
		handlers := c.messageHandlers
		c.handlersMu.RUnlock()
		for _, h := range handlers {
			h(c.ctx, data)
		}
	}
}

func (c *Client) pingLoop(conn *websocket.Conn) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if c.currentConn() != conn {
				return
			}
			ctx, cancel := context.WithTimeout(c.ctx, c.cfg.PongTimeout)
			err := conn.Ping(ctx)
			cancel()
			if err != nil {
				// The read loop observes the closed conn and drives reconnection.
				conn.CloseNow()
				return
			}
		}
	}
}

func (c *Client) handleDisconnect(conn *websocket.Conn, cause error) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	closed := c.state == StateClosed
	c.mu.Unlock()

	conn.CloseNow()

	if closed || c.ctx.Err() != nil {
		return
	}

	c.metrics.failures.Add(c.ctx, 1, c.attrs)
	err := apperror.New(apperror.CodeWebSocketReconnecting,
		apperror.WithCause(cause), apperror.WithContext(c.cfg.Name))
	c.setState(StateReconnecting, err)

	c.wg.Add(1)
	go c.reconnectLoop()
}

func (c *Client) reconnectLoop() {
	defer c.wg.Done()

	backoff := c.cfg.InitialBackoff
	for attempt := 1; ; attempt++ {
		select {
		case <-c.ctx.Done():
			return
		case <-time.After(backoff):
		}

		err := c.connect(c.ctx, true)
		if err == nil {
			c.metrics.reconnects.Add(c.ctx, 1, c.attrs)
			return
		}
		if c.ctx.Err() != nil {
			return
		}
		if c.cfg.MaxReconnects > 0 && attempt >= c.cfg.MaxReconnects {
			c.setState(StateDisconnected, err)
			return
		}
		c.setState(StateReconnecting, err)
		backoff = nextBackoff(backoff, c.cfg.MaxBackoff)
	}
}

// Send writes a text frame.
func (c *Client) Send(ctx context.Context, msg []byte) error {
	conn := c.currentConn()
	if conn == nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithCause(errors.New("not connected")), apperror.WithContext(c.cfg.Name))
	}

	if c.cfg.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.WriteTimeout)
		defer cancel()
	}

	c.writeMu.Lock()
	err := conn.Write(ctx, websocket.MessageText, msg)
	c.writeMu.Unlock()
	if err != nil {
		return apperror.New(apperror.CodeWebSocketSendError,
			apperror.WithCause(err), apperror.WithContext(c.cfg.Name))
	}
	return nil
}

// SendJSON marshals v and writes it as a text frame.
func (c *Client) SendJSON(ctx context.Context, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return apperror.New(apperror.CodeInvalidFormat, apperror.WithCause(err))
	}
	return c.Send(ctx, data)
}

// State returns the current connection state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// IsConnected reports whether a live connection exists.
func (c *Client) IsConnected() bool {
	return c.State() == StateConnected
}

// Close shuts the connection down and stops reconnecting. Safe to call repeatedly.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		conn := c.conn
		c.conn = nil
		c.mu.Unlock()

		c.setState(StateClosed, nil)

		if conn != nil {
			_ = conn.Close(websocket.StatusNormalClosure, "client closing")
		}
		c.cancel()
		c.wg.Wait()
	})
	return nil
}

func (c *Client) currentConn() *websocket.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

func (c *Client) setState(state State, err error) {
	c.mu.Lock()
	if c.state == StateClosed || c.state == state && err == nil {
		c.mu.Unlock()
		return
	}
	c.state = state
	c.mu.Unlock()

	c.handlersMu.RLock()
	handlers := c.stateHandlers
	c.handlersMu.RUnlock()
	for _, h := range handlers {
		h(state, err)
	}
}

func nextBackoff(cur, max time.Duration) time.Duration {
	next := cur * 2
	if next > max {
		return max
	}
	return next
}
