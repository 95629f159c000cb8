package correct

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a correction failure. Kinds are stable strings so they
// can be logged, stored in history rows and shown in notifications.
type Kind string

const (
	KindConfig        Kind = "config"
	KindNetwork       Kind = "network"
	KindAuth          Kind = "auth"
	KindQuota         Kind = "quota"
	KindEmptyResponse Kind = "empty_response"
	KindMalformed     Kind = "malformed"
	KindTimeout       Kind = "timeout"
)

// Error is the only error type that crosses the correction boundary.
// Provider backends wrap every failure into one of these so callers can
// branch on Kind without knowing which backend produced it.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the failure kind from an error chain. Unclassified
// errors report as malformed; context deadlines report as timeout.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindMalformed
}

// IsTransient reports whether a failed attempt is worth retrying.
// Only network-class failures qualify; auth, quota and empty responses
// would fail the same way on every attempt.
func IsTransient(err error) bool {
	return KindOf(err) == KindNetwork
}

// statusKind maps an HTTP status from a provider API to a failure kind.
func statusKind(status int) Kind {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return KindAuth
	case status == http.StatusTooManyRequests:
		return KindQuota
	case status >= 500:
		return KindNetwork
	default:
		return KindMalformed
	}
}
