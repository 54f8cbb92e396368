package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BL-Labs/labs-a11y-testing/internal/aggregate"
	"github.com/BL-Labs/labs-a11y-testing/internal/audit"
	"github.com/BL-Labs/labs-a11y-testing/internal/extract"
	"github.com/BL-Labs/labs-a11y-testing/internal/report"
	"github.com/BL-Labs/labs-a11y-testing/internal/sitemap"
	"github.com/BL-Labs/labs-a11y-testing/internal/storage"
)

// ResolveStep expands the target into the list of page URLs to audit.
// A target that does not look like a sitemap is audited as a single
// page, which keeps one-off page checks cheap.
type ResolveStep struct {
	// resolver expands sitemap documents.
	resolver *sitemap.Resolver

	// logger for structured logging.
	logger *slog.Logger
}

// NewResolveStep creates the resolve step.
func NewResolveStep(resolver *sitemap.Resolver, logger *slog.Logger) *ResolveStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResolveStep{resolver: resolver, logger: logger}
}

// Name returns the step name.
func (s *ResolveStep) Name() string {
	return "resolve_sitemap"
}

// Do executes the resolve step.
func (s *ResolveStep) Do(ctx context.Context, state *State) error {
	if !sitemap.IsSitemapURL(state.Target) {
		s.logger.Info("target is not a sitemap, auditing single page", "url", state.Target)
		state.PageURLs = []string{state.Target}
		return nil
	}

	result, err := s.resolver.Resolve(ctx, state.Target)
	if err != nil {
		return err
	}

	state.PageURLs = result.URLs
	state.ResolveErrors = result.BranchErrors

	for _, branchErr := range result.BranchErrors {
		s.logger.Warn("sitemap branch failed", "error", branchErr)
	}

	if len(result.URLs) == 0 {
		return fmt.Errorf("sitemap %s yielded no page URLs (%d branch failures)",
			state.Target, len(result.BranchErrors))
	}

	s.logger.Info("sitemap resolved", "pages", len(result.URLs))
	return nil
}

// AuditStep runs the accessibility audit against every discovered
// page. Individual failures are carried in the outcomes; the step
// itself fails only on cancellation.
type AuditStep struct {
	// runner executes and persists the per-page audits.
	runner *audit.Runner

	// logger for structured logging.
	logger *slog.Logger
}

// NewAuditStep creates the audit step.
func NewAuditStep(runner *audit.Runner, logger *slog.Logger) *AuditStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditStep{runner: runner, logger: logger}
}

// Name returns the step name.
func (s *AuditStep) Name() string {
	return "audit_pages"
}

// Do executes the audit step.
func (s *AuditStep) Do(ctx context.Context, state *State) error {
	outcomes, err := s.runner.RunAll(ctx, state.PageURLs)
	state.Outcomes = outcomes
	if err != nil {
		return err
	}

	var failed int
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
		}
	}
	s.logger.Info("audits completed",
		"pages", len(outcomes),
		"failed", failed,
	)
	return nil
}

// AggregateStep re-reads the run's persisted artifacts and combines
// them into the site report. Reading back from storage rather than
// from memory means a re-run of aggregation over an old run directory
// produces the identical report.
type AggregateStep struct {
	// aggregator combines page records.
	aggregator *aggregate.Aggregator

	// extractor normalizes raw payloads.
	extractor *extract.Extractor

	// store is the run's artifact store.
	store *storage.RunStore
}

// NewAggregateStep creates the aggregate step.
func NewAggregateStep(aggregator *aggregate.Aggregator, extractor *extract.Extractor, store *storage.RunStore) *AggregateStep {
	return &AggregateStep{
		aggregator: aggregator,
		extractor:  extractor,
		store:      store,
	}
}

// Name returns the step name.
func (s *AggregateStep) Name() string {
	return "aggregate_results"
}

// Do executes the aggregate step. aggregate.ErrNoResults propagates
// when every page failed; no report artifact is written in that case.
func (s *AggregateStep) Do(_ context.Context, state *State) error {
	siteReport, err := s.aggregator.AggregateFromStore(state.Target, state.Run, s.store, s.extractor)
	if err != nil {
		return err
	}
	state.Report = siteReport
	return nil
}

// RenderStep renders the site report to HTML and writes it as the
// run's terminal artifact.
type RenderStep struct {
	// store is the run's artifact store.
	store *storage.RunStore

	// logger for structured logging.
	logger *slog.Logger
}

// NewRenderStep creates the render step.
func NewRenderStep(store *storage.RunStore, logger *slog.Logger) *RenderStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &RenderStep{store: store, logger: logger}
}

// Name returns the step name.
func (s *RenderStep) Name() string {
	return "render_report"
}

// Do executes the render step.
func (s *RenderStep) Do(_ context.Context, state *State) error {
	html, err := report.RenderHTML(state.Report)
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	if err := s.store.WriteReport(html); err != nil {
		return err
	}
	s.logger.Info("report written", "path", s.store.ReportPath())
	return nil
}

// DefaultPipeline assembles the standard four-step run: resolve,
// audit, aggregate, render.
func DefaultPipeline(resolver *sitemap.Resolver, runner *audit.Runner, store *storage.RunStore, logger *slog.Logger, opts ...Option) *Pipeline {
	p := New(opts...)
	p.AddSteps(
		NewResolveStep(resolver, logger),
		NewAuditStep(runner, logger),
		NewAggregateStep(
			aggregate.NewAggregator(aggregate.WithLogger(logger)),
			extract.NewExtractor(extract.WithLogger(logger)),
			store,
		),
		NewRenderStep(store, logger),
	)
	return p
}
