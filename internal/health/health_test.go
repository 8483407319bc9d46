package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
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

func TestHealth_Degraded(t *testing.T) {
	s := NewServer(0, "test", nopLogger{})
	connected := true
	s.RegisterCheck("bitmart", ConnectedCheck(func() bool { return connected }))

	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	connected = false
	resp, err = http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	var st Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Status != "degraded" || st.Checks["bitmart"].Healthy {
		t.Errorf("status = %+v", st)
	}
}

func TestFreshnessCheck(t *testing.T) {
	var last time.Time
	check := FreshnessCheck(func() time.Time { return last }, time.Minute, time.Hour)

	if ok, _ := check(context.Background()); !ok {
		t.Error("zero time within grace should pass")
	}
	last = time.Now().Add(-2 * time.Minute)
	if ok, _ := check(context.Background()); ok {
		t.Error("stale tick should fail")
	}
	last = time.Now()
	if ok, _ := check(context.Background()); !ok {
		t.Error("fresh tick should pass")
	}

	noGrace := FreshnessCheck(func() time.Time { return time.Time{} }, time.Minute, 0)
	if ok, _ := noGrace(context.Background()); ok {
		t.Error("zero time after grace should fail")
	}
}
