package config

import "errors"

// Configuration validation errors.
//
// Design decision: package-level sentinel errors rather than new error
// instances in Validate(), so callers can use errors.Is() while still
// getting a human-readable message.
var (
	// ErrNoTarget is returned when no sitemap or page URL is given.
	ErrNoTarget = errors.New("no target specified: provide a sitemap or page URL")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the concurrency is not
	// positive. Zero workers would audit nothing.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
