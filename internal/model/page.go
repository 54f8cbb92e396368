package model

// PageRecord is the normalized per-page result extracted from a raw
// audit payload. It is the unit the aggregator works with.
type PageRecord struct {
	// Path is the pathname component of the audited URL.
	// The host is carried by the surrounding site report.
	Path string `json:"path"`

	// Score is the page's accessibility score in [0,1].
	// Zero when the raw payload lacked the accessibility category.
	Score float64 `json:"score"`

	// FailingChecks maps check identifiers to the checks that failed
	// on this page (binary display mode with score 0, nothing else).
	FailingChecks map[string]Audit `json:"failing_checks"`
}

// Perfect reports whether the page passed every applicable check.
func (p PageRecord) Perfect() bool {
	return p.Score >= 1.0
}
