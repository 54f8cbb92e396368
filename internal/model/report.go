package model

import "time"

// SiteReport is the aggregate over all page records of one run.
//
// Design decision: Go maps do not preserve insertion order, so the
// report carries Paths as an explicit ordered slice alongside the two
// lookup maps. Paths preserves the order pages were read from storage;
// renderers must not rely on it and apply their own ordering policy.
type SiteReport struct {
	// Host is the authority component of the audited site's URL.
	Host string `json:"host"`

	// Paths lists page paths in the order their records were read.
	Paths []string `json:"paths"`

	// PageScores maps page path to accessibility score.
	PageScores map[string]float64 `json:"page_scores"`

	// PageFailingChecks maps page path to that page's failing checks.
	PageFailingChecks map[string]map[string]Audit `json:"page_failing_checks"`

	// SiteAverage is the arithmetic mean of all page scores.
	// A report is never built over zero pages, so this is always
	// well defined.
	SiteAverage float64 `json:"site_average"`

	// ReportTimestamp is the run's start time.
	ReportTimestamp time.Time `json:"report_timestamp"`
}

// NewSiteReport creates an empty report for the given host and run
// timestamp. Pages are added via AddPage.
func NewSiteReport(host string, timestamp time.Time) *SiteReport {
	return &SiteReport{
		Host:              host,
		Paths:             make([]string, 0),
		PageScores:        make(map[string]float64),
		PageFailingChecks: make(map[string]map[string]Audit),
		ReportTimestamp:   timestamp,
	}
}

// AddPage records one page record in the report. A path seen twice
// keeps its first position in Paths and its last score; duplicate paths
// only occur when two distinct URLs normalize to the same pathname.
func (r *SiteReport) AddPage(record PageRecord) {
	if _, seen := r.PageScores[record.Path]; !seen {
		r.Paths = append(r.Paths, record.Path)
	}
	r.PageScores[record.Path] = record.Score
	r.PageFailingChecks[record.Path] = record.FailingChecks
}

// PageCount returns the number of distinct pages in the report.
func (r *SiteReport) PageCount() int {
	return len(r.Paths)
}
