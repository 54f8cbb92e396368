package aggregate

import (
	"errors"
	"log/slog"
	"net/url"

	"github.com/BL-Labs/labs-a11y-testing/internal/extract"
	"github.com/BL-Labs/labs-a11y-testing/internal/model"
	"github.com/BL-Labs/labs-a11y-testing/internal/storage"
)

// ErrNoResults is returned when there are zero page records to
// aggregate. Callers must treat this as "no data" and write no report,
// never as a zero-score site.
var ErrNoResults = errors.New("no page records to aggregate")

// Aggregator builds site reports from page records.
type Aggregator struct {
	// logger for structured logging.
	logger *slog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// NewAggregator creates an Aggregator with the given options.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = slog.Default()
	}

	return a
}

// Aggregate combines page records into a site report. The host comes
// from the site URL's authority; the timestamp from the run; the site
// average is the plain arithmetic mean over the distinct pages in the
// report with no per-page weighting. A path that appears more than
// once counts once, with its last score. Records keep their given
// (storage read) order.
func (a *Aggregator) Aggregate(siteURL string, run *model.Run, records []model.PageRecord) (*model.SiteReport, error) {
	if len(records) == 0 {
		return nil, ErrNoResults
	}

	report := model.NewSiteReport(hostOf(siteURL), run.StartedAt)

	for _, record := range records {
		report.AddPage(record)
	}

	// Sum after deduplication so a path audited twice does not skew
	// the mean.
	var sum float64
	for _, score := range report.PageScores {
		sum += score
	}
	report.SiteAverage = sum / float64(report.PageCount())

	a.logger.Debug("aggregated site report",
		"host", report.Host,
		"pages", report.PageCount(),
		"siteAverage", report.SiteAverage,
	)

	return report, nil
}

// AggregateFromStore re-reads a run's persisted page artifacts,
// extracts a record from each, and aggregates them. Malformed
// artifacts are skipped (the store records the failure) and do not
// stop aggregation of the remaining files.
func (a *Aggregator) AggregateFromStore(siteURL string, run *model.Run, store *storage.RunStore, extractor *extract.Extractor) (*model.SiteReport, error) {
	raws, failures := store.LoadPageResults()
	for _, failure := range failures {
		a.logger.Warn("page artifact unusable", "error", failure)
	}

	records := make([]model.PageRecord, 0, len(raws))
	for i := range raws {
		records = append(records, extractor.Extract(&raws[i]))
	}

	return a.Aggregate(siteURL, run, records)
}

// hostOf returns the authority component of a URL, falling back to the
// raw string when it does not parse or has no host.
func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return u.Host
}
