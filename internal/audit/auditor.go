package audit

import (
	"context"
	"fmt"

	"github.com/BL-Labs/labs-a11y-testing/internal/model"
)

// Auditor is the boundary to the external audit capability. An
// implementation owns its browser resources and must release them on
// Close regardless of how individual audits fared.
type Auditor interface {
	// Audit loads the page at pageURL and runs the accessibility
	// check suite against it, returning the engine's raw result.
	Audit(ctx context.Context, pageURL string) (*model.RawAuditResult, error)

	// Close releases the underlying browser session.
	Close() error
}

// AuditError records a failed audit for a single URL. One page's
// failure never stops the remaining pages; the error is carried in the
// page's outcome instead.
type AuditError struct {
	// URL is the page whose audit failed.
	URL string

	// Err is the underlying failure (navigation timeout, engine
	// error, and so on).
	Err error
}

// Error implements the error interface.
func (e *AuditError) Error() string {
	return fmt.Sprintf("audit %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *AuditError) Unwrap() error {
	return e.Err
}

// AuditorFunc adapts a function to the Auditor interface. Useful in
// tests and for wrapping audit engines that need no cleanup.
type AuditorFunc func(ctx context.Context, pageURL string) (*model.RawAuditResult, error)

// Audit implements Auditor.
func (f AuditorFunc) Audit(ctx context.Context, pageURL string) (*model.RawAuditResult, error) {
	return f(ctx, pageURL)
}

// Close implements Auditor. It is a no-op.
func (f AuditorFunc) Close() error {
	return nil
}
