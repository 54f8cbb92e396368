package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultTimeout is the per-page audit budget. A page audit loads
	// the page in a real browser and runs the full check suite, so the
	// budget is generous compared to a plain HTTP fetch.
	DefaultTimeout = 60 * time.Second

	// DefaultFetchTimeout bounds a single sitemap HTTP request.
	DefaultFetchTimeout = 30 * time.Second

	// DefaultConcurrency is 1 because the audit capability owns a
	// stateful browser session. Values above 1 are supported; each
	// audit then runs in its own isolated browser context.
	DefaultConcurrency = 1

	// DefaultOutputDir is where run directories are created.
	DefaultOutputDir = "reports"

	// DefaultSettleDelay is how long to wait after navigation before
	// auditing, giving client-side rendering a chance to finish.
	DefaultSettleDelay = 2 * time.Second

	// AppName is the application name used for XDG directory paths.
	AppName = "a11yscan"
)

// Config holds all options for one invocation. It is populated from
// CLI flags and passed through the application by value injection
// rather than global state.
type Config struct {
	// Target is the sitemap URL (or single page URL) to audit.
	Target string

	// OutputDir is the base directory under which each run creates
	// its timestamped directory.
	OutputDir string

	// Timeout bounds each per-page audit, navigation included.
	Timeout time.Duration

	// FetchTimeout bounds each sitemap fetch.
	FetchTimeout time.Duration

	// Concurrency is the number of page audits allowed in flight.
	Concurrency int

	// ChromePath overrides the Chrome/Chromium executable discovered
	// on PATH. Empty means use the default discovery.
	ChromePath string

	// AuditScript is the path of the JavaScript audit bundle injected
	// into each page. Empty means use the bundle installed next to
	// the executable.
	AuditScript string

	// Headless controls whether the browser runs without a window.
	Headless bool

	// Verbose enables debug-level log output.
	Verbose bool

	// ConfigFilePath is the site-config file path. Empty triggers the
	// default search (current directory, then home directory).
	ConfigFilePath string

	// SiteConfigs holds per-site overrides loaded from the config file.
	SiteConfigs *File

	// JSONReport additionally prints the site report as JSON to stdout.
	JSONReport bool

	// MarkdownReport additionally prints the site report as Markdown
	// to stdout. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// SaveToDB controls whether the site report is recorded in the
	// run history database.
	SaveToDB bool

	// DBDir is the directory holding the history database.
	DBDir string
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		OutputDir:    DefaultOutputDir,
		Timeout:      DefaultTimeout,
		FetchTimeout: DefaultFetchTimeout,
		Concurrency:  DefaultConcurrency,
		Headless:     true,
		SaveToDB:     true,
		DBDir:        XDGDataDir(),
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if c.Target == "" {
		return ErrNoTarget
	}
	if c.Timeout <= 0 || c.FetchTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}

// XDGDataDir returns the XDG data directory for the application.
// The run history database lives here.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}
