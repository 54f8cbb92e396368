package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/BL-Labs/labs-a11y-testing/internal/model"
)

// MarkdownWriter outputs the site report in Markdown, intended for
// terminals, issue trackers, and documentation.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given
// writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.SiteReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeDetails(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.SiteReport) {
	md.H1("Accessibility Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", "`" + report.Host + "`"},
			{"Generated", report.ReportTimestamp.Format(time.RFC3339)},
			{"Pages Audited", strconv.Itoa(report.PageCount())},
			{"Site Average", FormatPercent(report.SiteAverage)},
		},
	})
	md.PlainText("")
}

// writeSummary writes the table of pages scoring below perfect.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.SiteReport) {
	var rows [][]string
	for _, path := range sortedPaths(report) {
		score := report.PageScores[path]
		if score >= 1.0 {
			continue
		}
		rows = append(rows, []string{path, FormatPercent(score)})
	}

	md.H2("Pages Scoring Below 100%")
	md.PlainText("")

	if len(rows) == 0 {
		md.PlainText("Every audited page scored 100%.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Page", "Score"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeDetails writes one section per page with failing checks.
func (w *MarkdownWriter) writeDetails(md *markdown.Markdown, report *model.SiteReport) {
	for _, path := range sortedPaths(report) {
		checks := report.PageFailingChecks[path]
		if len(checks) == 0 {
			continue
		}

		md.H2(path + " (" + FormatPercent(report.PageScores[path]) + ")")
		md.PlainText("")

		for _, id := range sortedCheckIDs(checks) {
			check := checks[id]
			md.H3(check.Title)
			if check.Description != "" {
				md.PlainText(check.Description)
			}

			if check.Details != nil {
				for _, item := range check.Details.Items {
					if item.Node == nil {
						continue
					}
					md.BulletList("Selector: `" + item.Node.Selector + "`")
					if item.Node.Explanation != "" {
						md.PlainText(item.Node.Explanation)
					}
					if item.Node.Snippet != "" {
						md.CodeBlocks(markdown.SyntaxHighlightHTML, item.Node.Snippet)
					}
				}
			}
			md.PlainText("")
		}
	}
}
