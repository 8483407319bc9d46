package apperror

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestNew_UsesCatalogueMessage(t *testing.T) {
	err := New(CodeListingFetchFailed, WithContext("bitmart"))

	if err.Message != messages[CodeListingFetchFailed] {
		t.Errorf("Message = %q, want %q", err.Message, messages[CodeListingFetchFailed])
	}
	if !strings.Contains(err.Error(), "bitmart") {
		t.Errorf("Error() = %q, want context included", err.Error())
	}
}

func TestNew_UnknownCodeFallsBackToCode(t *testing.T) {
	err := New(Code("SOMETHING_ELSE"))
	if err.Message != "SOMETHING_ELSE" {
		t.Errorf("Message = %q, want code as message", err.Message)
	}
}

func TestTransient(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Transient(CodeOnchainPriceFailed, "TKN", cause)

	if !IsTransient(err) {
		t.Error("IsTransient = false, want true")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
	if IsTransient(New(CodeConfigurationError, WithContext("tokens"))) {
		t.Error("fatal error reported as transient")
	}
	if IsTransient(cause) {
		t.Error("plain error reported as transient")
	}
}

func TestIs_ComparesCodes(t *testing.T) {
	a := New(CodeCircuitOpen, WithContext("a"))
	b := New(CodeCircuitOpen, WithContext("b"))
	c := New(CodeCircuitHalfOpen)

	if !errors.Is(a, b) {
		t.Error("same code should match")
	}
	if errors.Is(a, c) {
		t.Error("different code should not match")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, CodeInternalError, "x") != nil {
		t.Fatal("Wrap(nil) should be nil")
	}

	inner := New(CodePairNotFound)
	wrapped := Wrap(inner, CodeInternalError, "TKN")
	if wrapped.Code != CodePairNotFound {
		t.Errorf("Code = %s, want %s", wrapped.Code, CodePairNotFound)
	}
	if wrapped.Context != "TKN" {
		t.Errorf("Context = %q, want TKN", wrapped.Context)
	}

	plain := Wrap(errors.New("boom"), CodeInternalError, "ctx")
	if GetCode(plain) != CodeInternalError {
		t.Errorf("GetCode = %s, want %s", GetCode(plain), CodeInternalError)
	}
	if GetCode(errors.New("x")) != CodeUnknownError {
		t.Error("GetCode of plain error should be unknown")
	}
}

func TestWrap_DoesNotMutateOriginal(t *testing.T) {
	inner := New(CodePairNotFound)
	_ = Wrap(inner, CodeInternalError, "TKN")
	if inner.Context != "" {
		t.Errorf("original context = %q, want empty", inner.Context)
	}
}

func TestLogValue(t *testing.T) {
	var buf strings.Builder
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	log.Error("tick failed", "error", Transient(CodeOnchainPriceFailed, "TKN", errors.New("eof")))

	out := buf.String()
	for _, want := range []string{`"code":"` + string(CodeOnchainPriceFailed) + `"`, `"context":"TKN"`, `"transient":true`, `"cause":"eof"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %s missing %s", out, want)
		}
	}
}
