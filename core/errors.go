package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the framework. Extraction
// defaults are deliberately absent: a missing pattern match is not an error
// (see Intent.Explicit).
type ErrorKind string

const (
	// ErrorKindBackendUnavailable marks transient model backend or tool
	// transport failures. Retryable by the caller; the core embeds no
	// retry loop.
	ErrorKindBackendUnavailable ErrorKind = "backend_unavailable"
	// ErrorKindSchemaViolation marks output that failed declared schema
	// validation after any configured re-prompt.
	ErrorKindSchemaViolation ErrorKind = "schema_violation"
	// ErrorKindNoRouteMatch marks a route dispatch with no eligible agent
	// and no default configured. Fatal to the request.
	ErrorKindNoRouteMatch ErrorKind = "no_route_match"
	// ErrorKindNoValidResult marks aggregation over zero valid agent
	// results. Fatal to the request.
	ErrorKindNoValidResult ErrorKind = "no_valid_result"
)

// Error is the typed error carried across component boundaries. Component
// names the agent or team that produced the failure so callers can retry or
// alert with enough detail.
type Error struct {
	Kind      ErrorKind
	Component string
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s [%s]: %v", e.Kind, e.Component, e.Err)
	}
	return fmt.Sprintf("%s [%s]", e.Kind, e.Component)
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error { return e.Err }

// NewError wraps cause as a typed framework error.
func NewError(kind ErrorKind, component string, cause error) *Error {
	return &Error{Kind: kind, Component: component, Err: cause}
}

// Errorf constructs a typed framework error from a format string.
func Errorf(kind ErrorKind, component, format string, args ...any) *Error {
	return &Error{Kind: kind, Component: component, Err: fmt.Errorf(format, args...)}
}

// IsKind reports whether err (or anything it wraps) is a framework Error of
// the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind == kind
	}
	return false
}
