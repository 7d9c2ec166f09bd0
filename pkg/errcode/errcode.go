// Package errcode defines the application error taxonomy and its HTTP mapping.
package errcode

import (
	"context"
	"errors"
	"net/http"
)

type Kind string

const (
	KindUnauthorized    Kind = "unauthorized"
	KindIdentity        Kind = "identity"
	KindValidation      Kind = "validation"
	KindFreeLimit       Kind = "free_limit"
	KindPremiumRequired Kind = "premium_required"
	KindRateLimited     Kind = "rate_limited"
	KindNotFound        Kind = "not_found"
	KindUpstream        Kind = "upstream"
	KindTimeout         Kind = "timeout"
	KindPersistence     Kind = "persistence"
	KindInternal        Kind = "internal"
)

var statusByKind = map[Kind]int{
	KindUnauthorized:    http.StatusUnauthorized,
	KindIdentity:        http.StatusBadRequest,
	KindValidation:      http.StatusBadRequest,
	KindFreeLimit:       http.StatusPaymentRequired,
	KindPremiumRequired: http.StatusForbidden,
	KindRateLimited:     http.StatusTooManyRequests,
	KindNotFound:        http.StatusNotFound,
	KindUpstream:        http.StatusBadGateway,
	KindTimeout:         http.StatusGatewayTimeout,
	KindPersistence:     http.StatusInternalServerError,
	KindInternal:        http.StatusInternalServerError,
}

// Error is returned by services and rendered by response.Error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status for the error kind.
func (e *Error) Status() int {
	if s, ok := statusByKind[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Unauthorized(message string) *Error { return New(KindUnauthorized, message, nil) }

func Identity(err error) *Error {
	return New(KindIdentity, "Failed to resolve identity", err)
}

func Validation(message string) *Error { return New(KindValidation, message, nil) }

func FreeLimit() *Error {
	return New(KindFreeLimit, "Limit Reached Upgrade to continue.", nil)
}

func PremiumRequired() *Error {
	return New(KindPremiumRequired, "This feature is only available for premium subscriptions.", nil)
}

func RateLimited() *Error { return New(KindRateLimited, "Too many requests", nil) }

func NotFound(message string) *Error { return New(KindNotFound, message, nil) }

func Upstream(message string, err error) *Error { return New(KindUpstream, message, err) }

func Persistence(message string, err error) *Error { return New(KindPersistence, message, err) }

func Timeout(err error) *Error { return New(KindTimeout, "Request timed out", err) }

// From normalizes any error into *Error. Deadline errors become timeouts
// regardless of the kind they were wrapped in.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout(err)
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return New(KindInternal, "Internal server error", err)
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
