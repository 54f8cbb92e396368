package report

import (
	"bytes"
	_ "embed"
	"html/template"
	"io"
	"regexp"
	"time"

	"github.com/BL-Labs/labs-a11y-testing/internal/model"
)

//go:embed template.html
var htmlTemplate string

// reportTemplate is parsed once at startup; a malformed embedded
// template is a programming error and should fail fast.
var reportTemplate = template.Must(template.New("report").Parse(htmlTemplate))

// markdownLink matches the first Markdown-style [label](url) link in a
// check description. Audit engines embed at most one remediation link
// per description, so converting the first match is sufficient.
var markdownLink = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)

// HTMLWriter renders the site report as a standalone HTML document
// with a summary table cross-linked to per-page detail sections.
//
// Design decision: rendering goes through html/template with a typed
// view model rather than string substitution into a template file.
// Contextual auto-escaping covers every reserved character in check
// snippets, and page content that happens to look like a template
// marker cannot be substituted twice.
type HTMLWriter struct {
	baseWriter
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer) *HTMLWriter {
	return &HTMLWriter{baseWriter: newBaseWriter(output)}
}

// Write renders the report and writes it to the output.
func (w *HTMLWriter) Write(report *model.SiteReport) (int, error) {
	data, err := RenderHTML(report)
	if err != nil {
		return 0, err
	}
	return w.output.Write(data)
}

// RenderHTML renders a site report to a complete HTML document.
func RenderHTML(report *model.SiteReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, newReportView(report)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// reportView is the typed view model handed to the template.
type reportView struct {
	SiteName  string
	Average   string
	Timestamp string
	Summary   []summaryRow
	Details   []detailSection
}

// summaryRow is one line of the summary table.
type summaryRow struct {
	Path   string
	Score  string
	Anchor string
}

// detailSection is the expandable block for one page.
type detailSection struct {
	Path   string
	Score  string
	Anchor string
	Checks []checkView
}

// checkView is one failing check within a detail section.
type checkView struct {
	Title       string
	Description template.HTML
	Nodes       []nodeView
}

// nodeView is one affected DOM element of a failing check.
type nodeView struct {
	Selector    string
	Snippet     string
	Explanation string
}

// newReportView builds the view model. The summary lists every page
// scoring below perfect; detail sections exist only for pages with at
// least one failing check. Pages are ordered by path ascending.
func newReportView(report *model.SiteReport) reportView {
	view := reportView{
		SiteName:  report.Host,
		Average:   FormatPercent(report.SiteAverage),
		Timestamp: report.ReportTimestamp.Format(time.RFC3339),
	}

	for _, path := range sortedPaths(report) {
		score := report.PageScores[path]
		anchor := anchorFor(path)

		if score < 1.0 {
			view.Summary = append(view.Summary, summaryRow{
				Path:   path,
				Score:  FormatPercent(score),
				Anchor: anchor,
			})
		}

		checks := report.PageFailingChecks[path]
		if len(checks) == 0 {
			continue
		}

		section := detailSection{
			Path:   path,
			Score:  FormatPercent(score),
			Anchor: anchor,
		}
		for _, id := range sortedCheckIDs(checks) {
			section.Checks = append(section.Checks, newCheckView(checks[id]))
		}
		view.Details = append(view.Details, section)
	}

	return view
}

// newCheckView converts one audit into its view form, flattening the
// detail table into the nodes that carry an element reference.
// A check without details renders with an empty node list.
func newCheckView(audit model.Audit) checkView {
	cv := checkView{
		Title:       audit.Title,
		Description: descriptionHTML(audit.Description),
	}

	if audit.Details != nil {
		for _, item := range audit.Details.Items {
			if item.Node == nil {
				continue
			}
			cv.Nodes = append(cv.Nodes, nodeView{
				Selector:    item.Node.Selector,
				Snippet:     item.Node.Snippet,
				Explanation: item.Node.Explanation,
			})
		}
	}

	return cv
}

// descriptionHTML converts the first Markdown-style [label](url) link
// in a description into an HTML anchor. All surrounding text, the
// label, and the URL are escaped before assembly, so the resulting
// template.HTML is safe to emit without further escaping.
func descriptionHTML(description string) template.HTML {
	m := markdownLink.FindStringSubmatchIndex(description)
	if m == nil {
		return template.HTML(template.HTMLEscapeString(description))
	}

	before := template.HTMLEscapeString(description[:m[0]])
	label := template.HTMLEscapeString(description[m[2]:m[3]])
	href := template.HTMLEscapeString(description[m[4]:m[5]])
	after := template.HTMLEscapeString(description[m[1]:])

	return template.HTML(before + `<a href="` + href + `" rel="noopener">` + label + `</a>` + after)
}
