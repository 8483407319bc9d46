package apperror

import (
	"errors"
	"log/slog"
	"strings"
)

// AppError is a coded error. Context names the token, venue or component
// the failure relates to.
type AppError struct {
	Code      Code
	Message   string
	Context   string
	transient bool
	cause     error
}

var _ slog.LogValuer = (*AppError)(nil)

func (e *AppError) Error() string {
	var sb strings.Builder
	sb.WriteString(string(e.Code))
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Context != "" {
		sb.WriteString(" (" + e.Context + ")")
	}
	if e.cause != nil {
		sb.WriteString(": " + e.cause.Error())
	}
	return sb.String()
}

func (e *AppError) Unwrap() error { return e.cause }

// Is matches any *AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && e.Code == t.Code
}

// Transient reports whether the failure is expected to clear on the next tick.
func (e *AppError) Transient() bool { return e.transient }

// LogValue renders the error as a group when passed to the logger.
func (e *AppError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("code", string(e.Code)),
		slog.String("message", e.Message),
	}
	if e.Context != "" {
		attrs = append(attrs, slog.String("context", e.Context))
	}
	if e.transient {
		attrs = append(attrs, slog.Bool("transient", true))
	}
	if e.cause != nil {
		attrs = append(attrs, slog.String("cause", e.cause.Error()))
	}
	return slog.GroupValue(attrs...)
}

// New builds an error whose message defaults to the catalogue entry for code.
func New(code Code, opts ...Option) *AppError {
	err := &AppError{Code: code, Message: messages[code]}
	for _, opt := range opts {
		opt(err)
	}
	if err.Message == "" {
		err.Message = string(code)
	}
	return err
}

type Option func(*AppError)

func WithMessage(message string) Option {
	return func(e *AppError) { e.Message = message }
}

func WithContext(context string) Option {
	return func(e *AppError) { e.Context = context }
}

func WithCause(cause error) Option {
	return func(e *AppError) { e.cause = cause }
}

// AsTransient marks the error as a per-tick fetch failure.
func AsTransient() Option {
	return func(e *AppError) { e.transient = true }
}

// Transient creates an error for an upstream fetch that failed for this tick only.
func Transient(code Code, context string, cause error) *AppError {
	return New(code, WithContext(context), WithCause(cause), AsTransient())
}

// Wrap converts err to an AppError. An existing AppError keeps its code; a copy
// gains context when it had none.
func Wrap(err error, code Code, context string) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		if context == "" || appErr.Context != "" {
			return appErr
		}
		cp := *appErr
		cp.Context = context
		return &cp
	}
	return New(code, WithContext(context), WithCause(err))
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsTransient reports whether err carries a transient AppError.
func IsTransient(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.transient
}

// GetCode returns the code of the first AppError in err's chain, or CodeUnknownError.
func GetCode(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknownError
}
