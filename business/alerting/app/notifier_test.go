package app

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/fd1az/liquidity-scanner/business/alerting/domain"
	arb "github.com/fd1az/liquidity-scanner/business/arbitrage/domain"
	md "github.com/fd1az/liquidity-scanner/business/marketdata/domain"
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

type fakeSender struct {
	name string
	err  error

	mu   sync.Mutex
	sent []domain.Message
}

func (f *fakeSender) Name() string { return f.name }

func (f *fakeSender) Send(_ context.Context, msg domain.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func evaluation() *arb.TokenEvaluation {
	return &arb.TokenEvaluation{
		Symbol:        "TKN",
		Venue:         md.VenueBitmart,
		ForwardProfit: 10,
		ReverseProfit: math.NaN(),
	}
}

func TestNotifier_FanOut(t *testing.T) {
	a := &fakeSender{name: "discord"}
	b := &fakeSender{name: "telegram", err: errors.New("chat not found")}
	n, err := NewNotifier([]Sender{a, b}, nopLogger{})
	if err != nil {
		t.Fatalf("NewNotifier: %v", err)
	}

	if err := n.SendProfitAlert(context.Background(), evaluation(), arb.DirectionForward, 5); err != nil {
		t.Fatalf("one sender succeeded, got %v", err)
	}
	if len(a.sent) != 1 || len(b.sent) != 1 {
		t.Fatalf("sent = %d/%d, want 1/1", len(a.sent), len(b.sent))
	}
	if a.sent[0].Kind != domain.KindProfit {
		t.Errorf("kind = %s", a.sent[0].Kind)
	}

	if err := n.SendLiquidityAlert(context.Background(), evaluation()); err != nil {
		t.Fatalf("SendLiquidityAlert: %v", err)
	}
	if a.sent[1].Kind != domain.KindLiquidity {
		t.Errorf("kind = %s", a.sent[1].Kind)
	}
}

func TestNotifier_AllFail(t *testing.T) {
	a := &fakeSender{name: "discord", err: errors.New("404")}
	n, err := NewNotifier([]Sender{a}, nopLogger{})
	if err != nil {
		t.Fatalf("NewNotifier: %v", err)
	}
	err = n.SendProfitAlert(context.Background(), evaluation(), arb.DirectionForward, 5)
	if apperror.GetCode(err) != apperror.CodeAlertDeliveryFailed {
		t.Errorf("err = %v, want alert delivery failure", err)
	}
}

func TestNewNotifier_RequiresSender(t *testing.T) {
	_, err := NewNotifier(nil, nopLogger{})
	if apperror.GetCode(err) != apperror.CodeConfigurationError {
		t.Errorf("err = %v", err)
	}
}
