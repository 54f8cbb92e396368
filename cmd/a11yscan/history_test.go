package main

import (
	"testing"
	"time"

	"github.com/BL-Labs/labs-a11y-testing/internal/model"
)

func siteReport(startedAt time.Time, scores map[string]float64) *model.SiteReport {
	report := model.NewSiteReport("example.org", startedAt)
	var sum float64
	for path, score := range scores {
		report.AddPage(model.PageRecord{
			Path:          path,
			Score:         score,
			FailingChecks: map[string]model.Audit{},
		})
		sum += score
	}
	report.SiteAverage = sum / float64(len(scores))
	return report
}

// TestCompareReports tests the run-over-run comparison.
func TestCompareReports(t *testing.T) {
	t.Parallel()

	previousAt := time.Date(2025, 11, 1, 10, 0, 0, 0, time.UTC)
	currentAt := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)

	previous := siteReport(previousAt, map[string]float64{
		"/":        0.8,
		"/about":   0.6,
		"/retired": 1.0,
	})
	current := siteReport(currentAt, map[string]float64{
		"/":      0.8,
		"/about": 0.9,
		"/fresh": 0.7,
	})

	comparison := compareReports("example.org", current, previous)

	if comparison.Host != "example.org" {
		t.Errorf("got host %q", comparison.Host)
	}
	if !comparison.Current.Equal(currentAt) || !comparison.Previous.Equal(previousAt) {
		t.Error("comparison timestamps do not match the reports")
	}

	wantDelta := current.SiteAverage - previous.SiteAverage
	if comparison.AverageDelta != wantDelta {
		t.Errorf("got average delta %f, expected %f", comparison.AverageDelta, wantDelta)
	}

	if len(comparison.PageDeltas) != 2 {
		t.Fatalf("got %d page deltas, expected 2: %v", len(comparison.PageDeltas), comparison.PageDeltas)
	}
	// Deltas are sorted by path.
	if comparison.PageDeltas[0].Path != "/" || comparison.PageDeltas[1].Path != "/about" {
		t.Errorf("unexpected delta paths: %v", comparison.PageDeltas)
	}
	about := comparison.PageDeltas[1]
	if about.Delta != about.Current-about.Previous {
		t.Errorf("inconsistent delta for /about: %+v", about)
	}

	if len(comparison.NewPages) != 1 || comparison.NewPages[0] != "/fresh" {
		t.Errorf("unexpected new pages: %v", comparison.NewPages)
	}
	if len(comparison.RemovedPages) != 1 || comparison.RemovedPages[0] != "/retired" {
		t.Errorf("unexpected removed pages: %v", comparison.RemovedPages)
	}
}
