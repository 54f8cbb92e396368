package audit

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/BL-Labs/labs-a11y-testing/internal/model"
	"github.com/BL-Labs/labs-a11y-testing/internal/storage"
)

// Outcome is the result of auditing one URL. Exactly one of Result and
// Err is set.
type Outcome struct {
	// URL is the audited page URL.
	URL string

	// Result is the raw audit payload on success.
	Result *model.RawAuditResult

	// Err is an *AuditError on failure.
	Err error
}

// Runner audits a batch of URLs through an Auditor and persists each
// success into the run store before moving on, so a crash mid-run
// keeps every already-collected page.
type Runner struct {
	// auditor performs the per-page audits.
	auditor Auditor

	// store persists successful results. Nil disables persistence
	// (used by tests that only care about outcomes).
	store *storage.RunStore

	// concurrency is the number of audits allowed in flight.
	concurrency int

	// timeout bounds one page audit. Zero means no per-page bound
	// beyond the caller's context.
	timeout time.Duration

	// logger for structured logging.
	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithStore sets the run store that persists successful results.
func WithStore(store *storage.RunStore) RunnerOption {
	return func(r *Runner) {
		r.store = store
	}
}

// WithConcurrency sets the number of audits allowed in flight.
//
// The default is 1: the audit capability owns a stateful browser
// session, and sequential execution is the safe assumption. Raising
// this is only sound when the Auditor isolates concurrent audits, as
// the chromedp implementation does with one browser context per page.
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithTimeout sets the per-page audit timeout.
func WithTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.timeout = d
	}
}

// WithRunnerLogger sets a custom logger for the runner.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner over the given auditor.
func NewRunner(auditor Auditor, opts ...RunnerOption) *Runner {
	r := &Runner{
		auditor:     auditor,
		concurrency: 1,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// RunAll audits every URL and returns one outcome per URL in the given
// (discovery) order, regardless of completion order. A failed audit is
// recorded as an *AuditError in its outcome and does not stop the
// batch; only context cancellation ends the run early.
func (r *Runner) RunAll(ctx context.Context, urls []string) ([]Outcome, error) {
	outcomes := make([]Outcome, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, pageURL := range urls {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			r.logger.Info("auditing page",
				"url", pageURL,
				"index", i+1,
				"total", len(urls),
			)

			outcomes[i] = r.auditOne(gctx, pageURL)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

// auditOne audits a single URL and persists the result on success.
func (r *Runner) auditOne(ctx context.Context, pageURL string) Outcome {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	result, err := r.auditor.Audit(ctx, pageURL)
	if err != nil {
		r.logger.Warn("audit failed, continuing with remaining pages",
			"url", pageURL,
			"error", err,
		)
		return Outcome{URL: pageURL, Err: &AuditError{URL: pageURL, Err: err}}
	}

	if r.store != nil {
		if err := r.store.SavePageResult(result); err != nil {
			// A page we cannot persist is a page the aggregation
			// pass will never see; treat it as a failed audit.
			r.logger.Error("failed to persist audit result", "url", pageURL, "error", err)
			return Outcome{URL: pageURL, Err: &AuditError{URL: pageURL, Err: err}}
		}
	}

	return Outcome{URL: pageURL, Result: result}
}
