package monolith

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/fd1az/liquidity-scanner/internal/config"
	"github.com/fd1az/liquidity-scanner/internal/di"
	"github.com/fd1az/liquidity-scanner/internal/logger"
)

type recordingModule struct {
	name  string
	calls *[]string
	fail  bool
}

func (m *recordingModule) RegisterServices(c di.Container) error {
	*m.calls = append(*m.calls, "register:"+m.name)
	return nil
}

func (m *recordingModule) Startup(ctx context.Context, mono Monolith) error {
	*m.calls = append(*m.calls, "start:"+m.name)
	mono.OnClose(func() error {
		*m.calls = append(*m.calls, "close:"+m.name)
		return nil
	})
	if m.fail {
		return errors.New("boom")
	}
	return nil
}

func newTestApp(t *testing.T) *app {
	t.Helper()
	// HTTP dials are lazy; nothing listens here.
	cfg := &config.Config{Chain: config.ChainConfig{HTTPURL: "http://127.0.0.1:1"}}
	a, err := New(cfg, logger.New(io.Discard, logger.LevelError, "test", nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestModulesLifecycleOrder(t *testing.T) {
	a := newTestApp(t)
	var calls []string
	first := &recordingModule{name: "a", calls: &calls}
	second := &recordingModule{name: "b", calls: &calls}

	if err := a.RegisterModules(first, second); err != nil {
		t.Fatalf("RegisterModules: %v", err)
	}
	if err := a.StartModules(context.Background()); err != nil {
		t.Fatalf("StartModules: %v", err)
	}
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	want := []string{"register:a", "register:b", "start:a", "start:b", "close:b", "close:a"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestStartModules_StopsOnError(t *testing.T) {
	a := newTestApp(t)
	defer a.Close()
	var calls []string

	if err := a.RegisterModules(
		&recordingModule{name: "a", calls: &calls, fail: true},
		&recordingModule{name: "b", calls: &calls},
	); err != nil {
		t.Fatalf("RegisterModules: %v", err)
	}
	if err := a.StartModules(context.Background()); err == nil {
		t.Fatal("expected start error")
	}
	for _, c := range calls {
		if c == "start:b" {
			t.Error("module after a failed one should not start")
		}
	}
}

func TestSharedServicesRegistered(t *testing.T) {
	a := newTestApp(t)
	defer a.Close()
	for _, name := range []string{"config", "logger", "ethClient", "assetRegistry"} {
		if a.Services().Get(name) == nil {
			t.Errorf("%s not registered", name)
		}
	}
}
