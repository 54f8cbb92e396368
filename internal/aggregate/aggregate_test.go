package aggregate

import (
	"errors"
	"testing"
	"time"

	"github.com/BL-Labs/labs-a11y-testing/internal/extract"
	"github.com/BL-Labs/labs-a11y-testing/internal/model"
	"github.com/BL-Labs/labs-a11y-testing/internal/storage"
)

func floatPtr(f float64) *float64 {
	return &f
}

func testRun(t *testing.T) *model.Run {
	t.Helper()
	run := model.NewRun()
	run.StartedAt = time.Date(2025, 11, 3, 14, 0, 0, 0, time.UTC)
	return run
}

// TestAggregate tests site report construction from page records.
func TestAggregate(t *testing.T) {
	t.Parallel()

	t.Run("empty input is ErrNoResults", func(t *testing.T) {
		t.Parallel()

		_, err := NewAggregator().Aggregate("https://example.org/sitemap.xml", testRun(t), nil)
		if !errors.Is(err, ErrNoResults) {
			t.Errorf("got %v, expected ErrNoResults", err)
		}
	})

	t.Run("site average is the mean of page scores", func(t *testing.T) {
		t.Parallel()

		records := []model.PageRecord{
			{Path: "/", Score: 1.0, FailingChecks: map[string]model.Audit{}},
			{Path: "/collections", Score: 0.5, FailingChecks: map[string]model.Audit{}},
			{Path: "/about", Score: 0.0, FailingChecks: map[string]model.Audit{}},
		}

		report, err := NewAggregator().Aggregate("https://example.org/sitemap.xml", testRun(t), records)
		if err != nil {
			t.Fatalf("failed to aggregate: %v", err)
		}

		if report.SiteAverage != 0.5 {
			t.Errorf("got site average %f, expected 0.5", report.SiteAverage)
		}
		if report.PageCount() != 3 {
			t.Errorf("got %d pages, expected 3", report.PageCount())
		}
	})

	t.Run("host comes from the site URL authority", func(t *testing.T) {
		t.Parallel()

		records := []model.PageRecord{
			{Path: "/", Score: 1.0, FailingChecks: map[string]model.Audit{}},
		}

		report, err := NewAggregator().Aggregate("https://www.example.org/sitemap.xml", testRun(t), records)
		if err != nil {
			t.Fatalf("failed to aggregate: %v", err)
		}
		if report.Host != "www.example.org" {
			t.Errorf("got host %q, expected %q", report.Host, "www.example.org")
		}
	})

	t.Run("duplicate paths do not skew the average", func(t *testing.T) {
		t.Parallel()

		records := []model.PageRecord{
			{Path: "/a", Score: 1.0, FailingChecks: map[string]model.Audit{}},
			{Path: "/a", Score: 0.0, FailingChecks: map[string]model.Audit{}},
		}

		report, err := NewAggregator().Aggregate("https://example.org/sitemap.xml", testRun(t), records)
		if err != nil {
			t.Fatalf("failed to aggregate: %v", err)
		}
		if report.PageCount() != 1 {
			t.Errorf("got %d pages, expected 1", report.PageCount())
		}
		if report.SiteAverage != 0.0 {
			t.Errorf("got site average %f, expected the last score 0.0", report.SiteAverage)
		}
	})

	t.Run("record order is preserved", func(t *testing.T) {
		t.Parallel()

		records := []model.PageRecord{
			{Path: "/zebra", Score: 1.0, FailingChecks: map[string]model.Audit{}},
			{Path: "/apple", Score: 1.0, FailingChecks: map[string]model.Audit{}},
		}

		report, err := NewAggregator().Aggregate("https://example.org/sitemap.xml", testRun(t), records)
		if err != nil {
			t.Fatalf("failed to aggregate: %v", err)
		}
		if report.Paths[0] != "/zebra" || report.Paths[1] != "/apple" {
			t.Errorf("expected input order [/zebra /apple], got %v", report.Paths)
		}
	})
}

// TestAggregateFromStore tests re-reading a run directory and
// aggregating the artifacts found there.
func TestAggregateFromStore(t *testing.T) {
	t.Parallel()

	run := testRun(t)
	store, err := storage.NewRunStore(t.TempDir(), run)
	if err != nil {
		t.Fatalf("failed to create run store: %v", err)
	}

	results := []*model.RawAuditResult{
		{
			RequestedURL: "https://example.org/",
			Categories: map[string]model.Category{
				"accessibility": {Score: floatPtr(1.0)},
			},
		},
		{
			RequestedURL: "https://example.org/about",
			Categories: map[string]model.Category{
				"accessibility": {Score: floatPtr(0.5)},
			},
			Audits: map[string]model.Audit{
				"image-alt": {
					ID:               "image-alt",
					Score:            floatPtr(0),
					ScoreDisplayMode: model.DisplayModeBinary,
				},
			},
		},
	}
	for _, raw := range results {
		if err := store.SavePageResult(raw); err != nil {
			t.Fatalf("failed to save result: %v", err)
		}
	}

	report, err := NewAggregator().AggregateFromStore(
		"https://example.org/sitemap.xml", run, store, extract.NewExtractor())
	if err != nil {
		t.Fatalf("failed to aggregate from store: %v", err)
	}

	if report.PageCount() != 2 {
		t.Fatalf("got %d pages, expected 2", report.PageCount())
	}
	if report.SiteAverage != 0.75 {
		t.Errorf("got site average %f, expected 0.75", report.SiteAverage)
	}
	if len(report.PageFailingChecks["/about"]) != 1 {
		t.Errorf("expected /about to carry its failing check, got %v", report.PageFailingChecks["/about"])
	}
}
