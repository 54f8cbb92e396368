package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/BL-Labs/labs-a11y-testing/internal/config"
	"github.com/BL-Labs/labs-a11y-testing/internal/database"
	"github.com/BL-Labs/labs-a11y-testing/internal/model"
	"github.com/BL-Labs/labs-a11y-testing/internal/report"
)

// NewHistoryCmd creates the history command.
// It reads past runs from the history database and shows how a site's
// scores moved between the two most recent runs.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [host]",
		Short: "List past runs and compare scores between them",
		Long: `History lists the recorded runs for a host and compares the two most
recent runs: site-average movement and per-page score changes.

Every completed scan is recorded automatically, so comparisons need at
least two scans of the same host.

Examples:
  # List runs for a host
  a11yscan history www.example.org

  # Compare the two most recent runs
  a11yscan history --compare www.example.org

  # List every host in the database
  a11yscan history --list-sites

  # Output the comparison as JSON
  a11yscan history --compare --json www.example.org`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("compare", "c", false,
		"Compare the two most recent runs for the host")
	cmd.Flags().BoolP("list-sites", "L", false,
		"List all hosts in the database")
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison in JSON format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listSites, err := cmd.Flags().GetBool("list-sites")
	if err != nil {
		return err
	}
	compare, err := cmd.Flags().GetBool("compare")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}

	db, err := database.Open(config.XDGDataDir(), database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("no run history available: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	if listSites {
		return printHosts(ctx, cmd, db)
	}

	if len(args) == 0 {
		return fmt.Errorf("host argument required (or use --list-sites)")
	}
	host := args[0]

	if compare {
		return printComparison(ctx, cmd, db, host, asJSON)
	}
	return printRuns(ctx, cmd, db, host)
}

// printHosts lists every host present in the database.
func printHosts(ctx context.Context, cmd *cobra.Command, db *database.HistoryDB) error {
	hosts, err := db.ListHosts(ctx)
	if err != nil {
		return err
	}
	if len(hosts) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
		return nil
	}
	for _, host := range hosts {
		fmt.Fprintln(cmd.OutOrStdout(), host)
	}
	return nil
}

// printRuns lists the recorded runs for a host, most recent first.
func printRuns(ctx context.Context, cmd *cobra.Command, db *database.HistoryDB, host string) error {
	runs, err := db.ListRuns(ctx, host)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No runs recorded for %s.\n", host)
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Runs for %s:\n\n", host)
	for _, run := range runs {
		fmt.Fprintf(out, "  %s  %s  pages=%d  average=%s\n",
			run.StartedAt.Local().Format(time.DateTime),
			run.ID,
			run.PageCount,
			report.FormatPercent(run.SiteAverage),
		)
	}
	return nil
}

// Comparison describes how scores moved between two runs of one host.
type Comparison struct {
	// Host is the compared site.
	Host string `json:"host"`

	// Current and Previous are the run timestamps being compared.
	Current  time.Time `json:"current"`
	Previous time.Time `json:"previous"`

	// AverageDelta is current minus previous site average.
	AverageDelta float64 `json:"average_delta"`

	// PageDeltas holds per-page score movement for pages present in
	// both runs.
	PageDeltas []PageDelta `json:"page_deltas,omitempty"`

	// NewPages lists pages only present in the current run.
	NewPages []string `json:"new_pages,omitempty"`

	// RemovedPages lists pages only present in the previous run.
	RemovedPages []string `json:"removed_pages,omitempty"`
}

// PageDelta is the score movement of one page between two runs.
type PageDelta struct {
	// Path is the page path.
	Path string `json:"path"`

	// Current and Previous are the page's scores in each run.
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`

	// Delta is current minus previous.
	Delta float64 `json:"delta"`
}

// printComparison compares the two most recent runs for a host.
func printComparison(ctx context.Context, cmd *cobra.Command, db *database.HistoryDB, host string, asJSON bool) error {
	reports, err := db.LatestReports(ctx, host, 2)
	if err != nil {
		return err
	}
	if len(reports) < 2 {
		return fmt.Errorf("comparison needs at least two recorded runs for %s (found %d)", host, len(reports))
	}

	comparison := compareReports(host, reports[0], reports[1])

	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(comparison)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Comparing runs for %s\n", host)
	fmt.Fprintf(out, "  previous: %s\n", comparison.Previous.Local().Format(time.DateTime))
	fmt.Fprintf(out, "  current:  %s\n\n", comparison.Current.Local().Format(time.DateTime))
	fmt.Fprintf(out, "Site average: %+.2f points\n\n", comparison.AverageDelta*100)

	for _, delta := range comparison.PageDeltas {
		if delta.Delta == 0 {
			continue
		}
		fmt.Fprintf(out, "  %-40s %s -> %s (%+.2f)\n",
			delta.Path,
			report.FormatPercent(delta.Previous),
			report.FormatPercent(delta.Current),
			delta.Delta*100,
		)
	}
	for _, path := range comparison.NewPages {
		fmt.Fprintf(out, "  %-40s new page\n", path)
	}
	for _, path := range comparison.RemovedPages {
		fmt.Fprintf(out, "  %-40s no longer present\n", path)
	}

	return nil
}

// compareReports builds the comparison between a current and previous
// site report.
func compareReports(host string, current, previous *model.SiteReport) Comparison {
	comparison := Comparison{
		Host:         host,
		Current:      current.ReportTimestamp,
		Previous:     previous.ReportTimestamp,
		AverageDelta: current.SiteAverage - previous.SiteAverage,
	}

	paths := make([]string, 0, len(current.PageScores))
	for path := range current.PageScores {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		currentScore := current.PageScores[path]
		previousScore, ok := previous.PageScores[path]
		if !ok {
			comparison.NewPages = append(comparison.NewPages, path)
			continue
		}
		comparison.PageDeltas = append(comparison.PageDeltas, PageDelta{
			Path:     path,
			Current:  currentScore,
			Previous: previousScore,
			Delta:    currentScore - previousScore,
		})
	}

	removed := make([]string, 0)
	for path := range previous.PageScores {
		if _, ok := current.PageScores[path]; !ok {
			removed = append(removed, path)
		}
	}
	sort.Strings(removed)
	comparison.RemovedPages = removed

	return comparison
}
