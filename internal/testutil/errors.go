// Package testutil provides failure injection for adopt tests.
//
// It should only be imported by test files (*_test.go).
package testutil

import "errors"

// Mock errors returned by the failing doubles in this package.
var (
	// ErrMockStoreUnavailable simulates a plan store that cannot be written.
	ErrMockStoreUnavailable = errors.New("plan store unavailable")

	// ErrMockWriteFailed simulates a log sink that rejects writes.
	ErrMockWriteFailed = errors.New("write failed")

	// ErrMockNetwork simulates a lost connection to a lock server.
	ErrMockNetwork = errors.New("network error")
)
