// Package fetch coordinates outbound requests: one in-flight call per logical
// key, and cooperative cancellation of superseded calls.
package fetch

import "errors"

var (
	// ErrCancelled is returned to callers whose request was superseded or
	// cancelled. Its result must not be committed anywhere.
	ErrCancelled = errors.New("request superseded")

	// ErrClosed is returned when issuing on a closed Coordinator.
	ErrClosed = errors.New("coordinator closed")
)
