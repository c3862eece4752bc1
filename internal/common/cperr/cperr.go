// Package cperr defines the error kinds shared by the AC, GC and MC
// services and the generic client-facing message for each.
package cperr

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// Kind is one of the stable error categories every service returns.
type Kind string

const (
	InvalidToken      Kind = "invalid_token"
	PermissionDenied  Kind = "permission_denied"
	NotFound          Kind = "not_found"
	Conflict          Kind = "conflict"
	RateLimited       Kind = "rate_limited"
	CapacityExceeded  Kind = "capacity_exceeded"
	ServiceUnavailable Kind = "service_unavailable"
	SessionBinding    Kind = "session_binding"
	FencedOut         Kind = "fenced_out"
	Internal          Kind = "internal"
	Database          Kind = "database"
	Redis             Kind = "redis"
	Grpc              Kind = "grpc"
	Crypto            Kind = "crypto"
)

// genericMessage is the client-visible text for a kind. Never put a
// cause-specific detail here; detail belongs in the server log only.
var genericMessage = map[Kind]string{
	InvalidToken:       "The access token is invalid or expired",
	PermissionDenied:   "You do not have permission to perform this action",
	NotFound:           "The requested resource was not found",
	Conflict:           "The resource already exists",
	RateLimited:        "Too many requests, try again later",
	CapacityExceeded:   "The service is at capacity, try again later",
	ServiceUnavailable: "The service is temporarily unavailable",
	SessionBinding:     "The access token is invalid or expired",
	FencedOut:          "An internal error occurred",
	Internal:           "An internal error occurred",
	Database:           "An internal error occurred",
	Redis:              "An internal error occurred",
	Grpc:               "An internal error occurred",
	Crypto:             "An internal error occurred",
}

// Error is the typed error every core package returns. Cause is logged
// server-side only and must never be serialized back to a caller.
type Error struct {
	Kind  Kind
	Cause error
}

func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Cause: cause}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Cause: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// ClientMessage is the generic, intentionally uninformative string that may
// cross the wire.
func (e *Error) ClientMessage() string {
	if m, ok := genericMessage[e.Kind]; ok {
		return m
	}
	return "An internal error occurred"
}

// As recovers a *Error from an arbitrary error chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err, defaulting to Internal when err does not
// wrap a *Error.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return Internal
}

// Retryable reports whether the client may usefully retry.
func Retryable(kind Kind) bool {
	switch kind {
	case RateLimited, CapacityExceeded, ServiceUnavailable:
		return true
	case Internal, Database, Redis, Grpc, Crypto:
		return true
	default:
		return false
	}
}

// HTTPStatus maps a Kind to the HTTP status it is reported as.
func HTTPStatus(kind Kind) int {
	switch kind {
	case InvalidToken, SessionBinding:
		return http.StatusUnauthorized
	case PermissionDenied:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case RateLimited:
		return http.StatusTooManyRequests
	case CapacityExceeded, ServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GRPCCode maps a Kind to the gRPC status code it is reported as.
func GRPCCode(kind Kind) codes.Code {
	switch kind {
	case InvalidToken, SessionBinding:
		return codes.Unauthenticated
	case PermissionDenied:
		return codes.PermissionDenied
	case NotFound:
		return codes.NotFound
	case Conflict:
		return codes.AlreadyExists
	case RateLimited, CapacityExceeded:
		return codes.ResourceExhausted
	case ServiceUnavailable:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}
