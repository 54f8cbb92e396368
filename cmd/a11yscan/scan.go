package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BL-Labs/labs-a11y-testing/internal/aggregate"
	"github.com/BL-Labs/labs-a11y-testing/internal/audit"
	"github.com/BL-Labs/labs-a11y-testing/internal/config"
	"github.com/BL-Labs/labs-a11y-testing/internal/database"
	"github.com/BL-Labs/labs-a11y-testing/internal/log"
	"github.com/BL-Labs/labs-a11y-testing/internal/model"
	"github.com/BL-Labs/labs-a11y-testing/internal/pipeline"
	"github.com/BL-Labs/labs-a11y-testing/internal/report"
	"github.com/BL-Labs/labs-a11y-testing/internal/sitemap"
	"github.com/BL-Labs/labs-a11y-testing/internal/storage"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <sitemap-or-page-url>",
		Short: "Audit every page of a site for accessibility issues",
		Long: `Scan resolves the given sitemap (expanding nested sitemap indexes),
audits every declared page in a headless browser, and writes a site-wide
HTML report into a timestamped run directory.

A URL that does not look like a sitemap is audited as a single page.

Examples:
  # Audit a whole site from its sitemap
  a11yscan scan https://example.org/sitemap.xml

  # Audit a single page
  a11yscan scan https://example.org/collections

  # Audit four pages at a time
  a11yscan scan -n 4 https://example.org/sitemap.xml

  # Print the report as JSON to stdout as well
  a11yscan scan --json https://example.org/sitemap.xml

  # Use a custom configuration file
  a11yscan scan -c myconfig.yaml https://example.org/sitemap.xml

Configuration file (.a11yscan) example:
  sites:
    www.example.org:
      consentSelector: "#accept-cookies"
      settleDelay: 5s`,
		Args: cobra.ExactArgs(1),
		RunE: runScanCmd,
	}

	// Scan behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-page audit timeout")
	cmd.Flags().Duration("fetch-timeout", config.DefaultFetchTimeout,
		"Timeout for each sitemap fetch")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency,
		"Number of page audits in flight (each uses its own browser context)")

	// Browser flags
	cmd.Flags().String("chrome-path", "",
		"Chrome/Chromium executable path (default: discover on PATH)")
	cmd.Flags().StringP("audit-script", "s", "",
		"Audit bundle path (default: a11y-audit.js next to the executable)")
	cmd.Flags().Bool("headless", true,
		"Run the browser without a window")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .a11yscan in current or home directory)")

	// Report flags
	cmd.Flags().StringP("output-dir", "o", config.DefaultOutputDir,
		"Base directory for run directories")
	cmd.Flags().BoolP("json", "j", false,
		"Also print the site report as JSON to stdout (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Also print the site report as Markdown to stdout (mutually exclusive with --json)")

	return cmd
}

// runScanCmd executes the scan command.
func runScanCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging
	verbose := getVerboseFlag(cmd)
	logger := setupLogger(verbose)
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runScan(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.FetchTimeout, err = cmd.Flags().GetDuration("fetch-timeout")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.ChromePath, err = cmd.Flags().GetString("chrome-path")
	if err != nil {
		return nil, err
	}

	cfg.AuditScript, err = cmd.Flags().GetString("audit-script")
	if err != nil {
		return nil, err
	}

	cfg.Headless, err = cmd.Flags().GetBool("headless")
	if err != nil {
		return nil, err
	}

	cfg.OutputDir, err = cmd.Flags().GetString("output-dir")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations. An explicitly named file
	// that does not exist is an error; a missing default file is not.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.Target = args[0]

	return cfg, nil
}

// setupLogger creates a structured logger based on verbosity setting.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewLogger(os.Stderr, verbose)
}

// runScan executes the scan.
func runScan(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting scan",
		"target", cfg.Target,
		"concurrency", cfg.Concurrency,
		"outputDir", cfg.OutputDir,
	)

	// Open the history database
	var db *database.HistoryDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		logger.Info("history database opened", "dir", cfg.DBDir)
	}

	// Create the run and its artifact directory
	run := model.NewRun()
	store, err := storage.NewRunStore(cfg.OutputDir, run, storage.WithLogger(logger))
	if err != nil {
		return err
	}

	// Load the audit bundle and start the browser
	script, err := audit.LoadAuditScript(cfg.AuditScript)
	if err != nil {
		return err
	}

	auditor, err := audit.NewChromeAuditor(ctx, script,
		audit.WithChromePath(cfg.ChromePath),
		audit.WithHeadless(cfg.Headless),
		audit.WithSiteConfigs(cfg.SiteConfigs),
		audit.WithChromeLogger(logger),
	)
	if err != nil {
		return err
	}
	// The browser must go down on every exit path, including when
	// individual page audits failed.
	defer func() {
		if err := auditor.Close(); err != nil {
			logger.Error("failed to close browser", "error", err)
		}
	}()

	resolver := sitemap.NewResolver(
		sitemap.WithHTTPClient(&http.Client{Timeout: cfg.FetchTimeout}),
		sitemap.WithLogger(logger),
	)

	runner := audit.NewRunner(auditor,
		audit.WithStore(store),
		audit.WithConcurrency(cfg.Concurrency),
		audit.WithTimeout(cfg.Timeout),
		audit.WithRunnerLogger(logger),
	)

	p := pipeline.DefaultPipeline(resolver, runner, store, logger,
		pipeline.WithLogger(logger))

	state := pipeline.NewState(run, cfg.Target)

	fmt.Printf("Auditing %s...\n", cfg.Target)
	startTime := time.Now()

	if err := p.Execute(ctx, state); err != nil {
		if errors.Is(err, aggregate.ErrNoResults) {
			return fmt.Errorf("no audit results collected for %s: %w", cfg.Target, err)
		}
		return err
	}

	elapsed := time.Since(startTime)
	fmt.Printf("Audit completed in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("Report: %s\n", store.ReportPath())
	fmt.Printf("Site average: %s over %d pages\n\n",
		report.FormatPercent(state.Report.SiteAverage), state.Report.PageCount())

	// Optional stdout report
	if err := outputReport(cfg, state.Report); err != nil {
		logger.Error("stdout report failed", "error", err)
	}

	// Record the run in the history database
	if db != nil {
		if err := db.SaveRun(ctx, run, state.Report); err != nil {
			logger.Error("failed to save run to history", "error", err)
		} else {
			logger.Info("run saved to history", "id", run.ID)
		}
	}

	return nil
}

// outputReport prints the report to stdout in the requested format.
func outputReport(cfg *config.Config, siteReport *model.SiteReport) error {
	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(os.Stdout, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(os.Stdout)
	default:
		return nil
	}

	_, err := writer.Write(siteReport)
	return err
}
