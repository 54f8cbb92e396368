package extract

import (
	"log/slog"
	"net/url"

	"github.com/BL-Labs/labs-a11y-testing/internal/model"
)

// Extractor converts raw audit results into page records.
type Extractor struct {
	// logger for structural warnings.
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor creates an Extractor with the given options.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e
}

// Extract builds the page record for one raw audit result.
//
// A payload missing the accessibility category (or its score) is a
// structural warning, not an error: the page is still counted with a
// score of 0, which at worst penalizes the site average. Filtering of
// the audits map delegates to Audit.IsFailing so the binary-and-zero
// rule lives in one place.
func (e *Extractor) Extract(raw *model.RawAuditResult) model.PageRecord {
	record := model.PageRecord{
		Path:          pathOf(raw.RequestedURL),
		FailingChecks: make(map[string]model.Audit),
	}

	score, ok := raw.AccessibilityScore()
	if !ok {
		e.logger.Warn("audit result lacks accessibility score, counting page as 0",
			"url", raw.RequestedURL,
		)
	}
	record.Score = score

	for id, audit := range raw.Audits {
		if audit.IsFailing() {
			record.FailingChecks[id] = audit
		}
	}

	return record
}

// pathOf returns the pathname component of a URL, falling back to the
// raw string when it does not parse.
func pathOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}
