package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/BL-Labs/labs-a11y-testing/internal/model"
)

// Writer defines the interface for report output. Implementations
// write a site report in various formats.
//
// Design decision: We use an interface so the scan command can write
// the same report to a file, stdout, or both with one API.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.SiteReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously, for example
// the run directory artifact plus a terminal summary.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written; stops on the first error.
func (m *MultiWriter) Write(report *model.SiteReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// FormatPercent renders a [0,1] score as a percentage with two decimal
// places, for example 0.875 -> "87.50%".
func FormatPercent(score float64) string {
	return fmt.Sprintf("%.2f%%", score*100)
}

// sortedPaths returns the report's page paths in ascending order.
// Aggregation preserves storage read order, which is not meaningful to
// a reader; every renderer applies this explicit ordering instead.
func sortedPaths(report *model.SiteReport) []string {
	paths := make([]string, len(report.Paths))
	copy(paths, report.Paths)
	sort.Strings(paths)
	return paths
}

// sortedCheckIDs returns a page's failing-check identifiers in
// ascending order for deterministic output.
func sortedCheckIDs(checks map[string]model.Audit) []string {
	ids := make([]string, 0, len(checks))
	for id := range checks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// anchorFor derives the in-document anchor for a page path by removing
// every path separator. The root path would produce an empty (and thus
// unresolvable) anchor, so it maps to "index".
func anchorFor(path string) string {
	anchor := strings.ReplaceAll(path, "/", "")
	if anchor == "" {
		return "index"
	}
	return anchor
}
