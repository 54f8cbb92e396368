package model

// AccessibilityCategory is the key of the accessibility category in a
// raw audit result's categories map.
const AccessibilityCategory = "accessibility"

// DisplayMode describes how an audit engine intends a check's score to
// be interpreted. Only a closed set of values appears in real payloads.
//
// Design decision: We define a named string type with constants rather
// than comparing raw strings at each call site. The pass/fail filtering
// rule is subtle enough that it must live in exactly one auditable place
// (Audit.IsFailing), and a typed enumeration keeps that rule testable.
type DisplayMode string

const (
	// DisplayModeBinary marks a check that either passes or fails.
	// Score 1 means pass, score 0 means fail.
	DisplayModeBinary DisplayMode = "binary"

	// DisplayModeNotApplicable marks a check that did not apply to the
	// page (for example, no images present for an alt-text check).
	DisplayModeNotApplicable DisplayMode = "notApplicable"

	// DisplayModeInformative marks a check that only surfaces
	// information and never counts as a failure.
	DisplayModeInformative DisplayMode = "informative"

	// DisplayModeManual marks a check that requires human review.
	DisplayModeManual DisplayMode = "manual"

	// DisplayModeNumeric marks a check scored on a continuous scale.
	DisplayModeNumeric DisplayMode = "numeric"

	// DisplayModeError marks a check the engine failed to evaluate.
	DisplayModeError DisplayMode = "error"
)

// RawAuditResult is the structured payload returned by the audit
// capability for a single page. The shape mirrors a Lighthouse-style
// result document: a requested URL, a categories map carrying the
// accessibility score, and an audits map keyed by check identifier.
//
// Fields not needed by extraction or rendering are intentionally left
// unmapped; the full payload is preserved verbatim in the run directory
// so nothing is lost by parsing only a subset here.
type RawAuditResult struct {
	// RequestedURL is the URL the audit was asked to load.
	RequestedURL string `json:"requestedUrl"`

	// FinalURL is the URL after redirects, when the engine reports it.
	FinalURL string `json:"finalUrl,omitempty"`

	// FetchTime is the engine's own timestamp for the audit.
	FetchTime string `json:"fetchTime,omitempty"`

	// Categories maps category identifiers (such as "accessibility")
	// to their aggregate scores.
	Categories map[string]Category `json:"categories"`

	// Audits maps check identifiers to individual check results.
	Audits map[string]Audit `json:"audits"`

	// Raw is the engine's verbatim response body. It is what gets
	// persisted to the run directory, so fields this struct does not
	// map survive a round trip. Excluded from re-serialization.
	Raw []byte `json:"-"`
}

// AccessibilityScore returns the accessibility category score and
// whether the category and its score were present in the payload.
func (r *RawAuditResult) AccessibilityScore() (float64, bool) {
	cat, ok := r.Categories[AccessibilityCategory]
	if !ok || cat.Score == nil {
		return 0, false
	}
	return *cat.Score, true
}

// Category is one entry of the categories map.
type Category struct {
	// Title is the human-readable category name.
	Title string `json:"title,omitempty"`

	// Score is the category score in [0,1]. A pointer distinguishes
	// "absent" from a genuine zero; engines omit the score when the
	// category could not be evaluated.
	Score *float64 `json:"score"`
}

// Audit is a single check result from the audits map.
type Audit struct {
	// ID is the check identifier (for example "image-alt").
	ID string `json:"id"`

	// Title is the short human-readable check name.
	Title string `json:"title"`

	// Description explains the check. It may contain one Markdown-style
	// [label](url) link pointing at remediation documentation.
	Description string `json:"description,omitempty"`

	// Score is the check score. For binary checks 0 means fail and
	// 1 means pass; nil means the engine produced no score.
	Score *float64 `json:"score"`

	// ScoreDisplayMode tells how Score is to be interpreted.
	ScoreDisplayMode DisplayMode `json:"scoreDisplayMode"`

	// Details carries the affected DOM nodes, when the engine
	// collected them. May be nil even for failing checks.
	Details *AuditDetails `json:"details,omitempty"`
}

// IsFailing reports whether this check counts as a failure for the page
// record. The rule is deliberately narrow: only binary checks with a
// score of exactly 0 fail. Every other display mode is excluded
// unconditionally, even when its numeric score happens to be 0, because
// notApplicable/informative/manual checks commonly carry a zero score
// without indicating a problem.
func (a Audit) IsFailing() bool {
	if a.ScoreDisplayMode != DisplayModeBinary {
		return false
	}
	return a.Score != nil && *a.Score == 0
}

// AuditDetails holds the detail table attached to a check result.
type AuditDetails struct {
	// Items lists the affected elements. Each item may or may not
	// carry a node reference.
	Items []AuditItem `json:"items,omitempty"`
}

// AuditItem is one row of a check's detail table.
type AuditItem struct {
	// Node identifies the affected DOM element, when present.
	Node *NodeDetail `json:"node,omitempty"`
}

// NodeDetail describes one DOM element affected by a failing check.
type NodeDetail struct {
	// Selector is a CSS selector locating the element.
	Selector string `json:"selector,omitempty"`

	// Snippet is the element's outer HTML. It contains markup and must
	// be escaped before embedding in a rendered report.
	Snippet string `json:"snippet,omitempty"`

	// Explanation is the engine's plain-text reason the element failed.
	Explanation string `json:"explanation,omitempty"`
}
