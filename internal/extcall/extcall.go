// Package extcall gives every outbound dependency call a typed outcome so
// callers branch on Kind instead of sentinel values.
package extcall

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Kind classifies the outcome of an external call.
type Kind int

const (
	KindOK Kind = iota
	KindTimeout
	KindInvalidResponse
	KindUnavailable
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "ok"
	case KindTimeout:
		return "timeout"
	case KindInvalidResponse:
		return "invalid_response"
	case KindUnavailable:
		return "unavailable"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Retryable reports whether a second attempt could plausibly succeed.
func (k Kind) Retryable() bool {
	return k == KindTimeout || k == KindUnavailable
}

// Error is returned by dependency wrappers.
type Error struct {
	Dependency string
	Kind       Kind
	Err        error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Dependency, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Dependency, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Timeout builds a KindTimeout error.
func Timeout(dep string, err error) error {
	return &Error{Dependency: dep, Kind: KindTimeout, Err: err}
}

// Invalid builds a KindInvalidResponse error.
func Invalid(dep string, err error) error {
	return &Error{Dependency: dep, Kind: KindInvalidResponse, Err: err}
}

// Unavailable builds a KindUnavailable error.
func Unavailable(dep string, err error) error {
	return &Error{Dependency: dep, Kind: KindUnavailable, Err: err}
}

// NotFound builds a KindNotFound error.
func NotFound(dep string, err error) error {
	return &Error{Dependency: dep, Kind: KindNotFound, Err: err}
}

// KindOf extracts the outcome kind of err. Untyped errors are classified:
// deadline and net timeouts become KindTimeout, anything else KindUnavailable.
func KindOf(err error) Kind {
	if err == nil {
		return KindOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	return KindUnavailable
}

// Classify wraps an untyped error from dep with its inferred kind.
func Classify(dep string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Dependency: dep, Kind: KindOf(err), Err: err}
}

// Do runs fn with a per-attempt timeout. A retryable failure is retried once;
// the parent context still bounds the whole call.
func Do[T any](ctx context.Context, dep string, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, Classify(dep, err)
		}
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		value, err := fn(callCtx)
		timedOut := callCtx.Err() == context.DeadlineExceeded
		cancel()
		if err == nil {
			return value, nil
		}
		if timedOut && KindOf(err) != KindTimeout {
			err = Timeout(dep, err)
		}
		lastErr = Classify(dep, err)
		if !KindOf(lastErr).Retryable() {
			break
		}
	}
	return zero, lastErr
}
