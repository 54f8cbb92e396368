package pipeline

import (
	"context"
	"log/slog"

	"github.com/BL-Labs/labs-a11y-testing/internal/audit"
	"github.com/BL-Labs/labs-a11y-testing/internal/model"
)

// State is the accumulated state of one run, threaded through every
// step. Each step reads what its predecessors produced and fills in
// its own slice of the run.
type State struct {
	// Run identifies this invocation and its artifact directory.
	Run *model.Run

	// Target is the sitemap (or single page) URL being audited.
	Target string

	// PageURLs is the ordered list of pages discovered from the
	// target. Filled by the resolve step.
	PageURLs []string

	// ResolveErrors records sub-sitemaps that failed to resolve.
	ResolveErrors []error

	// Outcomes holds one entry per page URL in discovery order.
	// Filled by the audit step.
	Outcomes []audit.Outcome

	// Report is the aggregated site report. Filled by the aggregate
	// step.
	Report *model.SiteReport
}

// NewState creates the initial state for a run against target.
func NewState(run *model.Run, target string) *State {
	return &State{
		Run:    run,
		Target: target,
	}
}

// Step defines the interface that all pipeline steps implement.
// Steps execute in sequence, each receiving the accumulated state.
type Step interface {
	// Do executes the pipeline step, mutating the state.
	Do(ctx context.Context, state *State) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of steps in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
// Steps are added with AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all pipeline steps in sequence. Every step depends on
// its predecessor's output, so the first failing step ends the run.
// Cancellation is checked between steps; steps handle their own
// timeouts internally.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"reason", ctx.Err(),
			)
			return ctx.Err()
		default:
		}

		p.logger.Info("executing step",
			"step", step.Name(),
			"target", state.Target,
		)

		if err := step.Do(ctx, state); err != nil {
			p.logger.Error("step failed",
				"step", step.Name(),
				"target", state.Target,
				"error", err,
			)
			return err
		}

		p.logger.Debug("step completed",
			"step", step.Name(),
			"target", state.Target,
		)
	}

	return nil
}

// StepCount returns the number of steps in the pipeline.
func (p *Pipeline) StepCount() int {
	return len(p.steps)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
