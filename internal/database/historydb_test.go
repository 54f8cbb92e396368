package database

import (
	"context"
	"testing"
	"time"

	"github.com/BL-Labs/labs-a11y-testing/internal/model"
)

func testReport(host string, average float64, startedAt time.Time) *model.SiteReport {
	report := model.NewSiteReport(host, startedAt)
	report.AddPage(model.PageRecord{
		Path:          "/",
		Score:         average,
		FailingChecks: map[string]model.Audit{},
	})
	report.SiteAverage = average
	return report
}

func saveRun(t *testing.T, hdb *HistoryDB, host string, average float64, startedAt time.Time) {
	t.Helper()
	run := model.NewRun()
	run.StartedAt = startedAt
	if err := hdb.SaveRun(context.Background(), run, testReport(host, average, startedAt)); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}
}

// TestOpen tests database creation behavior.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates the database when allowed", func(t *testing.T) {
		t.Parallel()

		hdb, err := Open(t.TempDir(), DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer hdb.Close()
	})

	t.Run("refuses a missing database otherwise", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if err == nil {
			t.Fatal("expected an error opening a missing database")
		}
	})
}

// TestSaveAndListRuns tests the round trip behind the history command.
func TestSaveAndListRuns(t *testing.T) {
	t.Parallel()

	hdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer hdb.Close()

	older := time.Date(2025, 11, 1, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)
	saveRun(t, hdb, "example.org", 0.8, older)
	saveRun(t, hdb, "example.org", 0.9, newer)
	saveRun(t, hdb, "other.example.net", 0.7, older)

	t.Run("runs list newest first per host", func(t *testing.T) {
		runs, err := hdb.ListRuns(context.Background(), "example.org")
		if err != nil {
			t.Fatalf("failed to list runs: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("got %d runs, expected 2", len(runs))
		}
		if !runs[0].StartedAt.Equal(newer) {
			t.Errorf("got first run at %v, expected the newest", runs[0].StartedAt)
		}
		if runs[0].SiteAverage != 0.9 {
			t.Errorf("got site average %f, expected 0.9", runs[0].SiteAverage)
		}
		if runs[0].PageCount != 1 {
			t.Errorf("got page count %d, expected 1", runs[0].PageCount)
		}
	})

	t.Run("hosts are distinct and sorted", func(t *testing.T) {
		hosts, err := hdb.ListHosts(context.Background())
		if err != nil {
			t.Fatalf("failed to list hosts: %v", err)
		}
		if len(hosts) != 2 || hosts[0] != "example.org" || hosts[1] != "other.example.net" {
			t.Errorf("unexpected hosts: %v", hosts)
		}
	})

	t.Run("latest reports round-trip the full report", func(t *testing.T) {
		reports, err := hdb.LatestReports(context.Background(), "example.org", 2)
		if err != nil {
			t.Fatalf("failed to load reports: %v", err)
		}
		if len(reports) != 2 {
			t.Fatalf("got %d reports, expected 2", len(reports))
		}
		if reports[0].SiteAverage != 0.9 {
			t.Errorf("got site average %f, expected the newest report first", reports[0].SiteAverage)
		}
		if reports[0].PageCount() != 1 {
			t.Errorf("got %d pages, expected 1", reports[0].PageCount())
		}
	})
}
