package report

import (
	"bytes"
	"strings"
	"testing"
)

// TestMarkdownWriter tests the Markdown rendering of a site report.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := NewMarkdownWriter(&buf).Write(testReport(t))
	if err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if n == 0 {
		t.Fatal("expected non-zero byte count")
	}
	md := buf.String()

	t.Run("header carries run information", func(t *testing.T) {
		t.Parallel()
		if !strings.Contains(md, "# Accessibility Report") {
			t.Error("report title missing")
		}
		if !strings.Contains(md, "example.org") {
			t.Error("site name missing")
		}
		if !strings.Contains(md, "50.00%") {
			t.Error("site average missing")
		}
	})

	t.Run("perfect pages are omitted", func(t *testing.T) {
		t.Parallel()
		if strings.Contains(md, "/collections") {
			t.Error("perfect page must not appear in the report")
		}
	})

	t.Run("failing checks appear with their elements", func(t *testing.T) {
		t.Parallel()
		if !strings.Contains(md, "/about") {
			t.Error("imperfect page missing")
		}
		if !strings.Contains(md, "body > img") {
			t.Error("node selector missing")
		}
		if !strings.Contains(md, `<img src="logo.png">`) {
			t.Error("element snippet missing from code block")
		}
	})
}
