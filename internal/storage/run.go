package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BL-Labs/labs-a11y-testing/internal/model"
)

// ReportFileName is the name of the rendered report inside a run
// directory.
const ReportFileName = "report.html"

// reservedChars are the URL path characters replaced when deriving an
// artifact file name from a page path. These are the RFC 3986 reserved
// characters plus the path separator.
const reservedChars = `/:?#[]@!$&'()*+,;=`

// RunStore owns one run's directory and the artifacts inside it.
// Every method works relative to that directory; nothing in the
// package keeps ambient "current run" state.
type RunStore struct {
	// dir is the run directory (baseDir/<run dir name>).
	dir string

	// logger for structured logging.
	logger *slog.Logger
}

// StoreOption configures a RunStore.
type StoreOption func(*RunStore)

// WithLogger sets a custom logger for the store.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *RunStore) {
		s.logger = logger
	}
}

// NewRunStore creates the run directory under baseDir and returns a
// store bound to it. The directory name is the run's timestamp key,
// so two runs started in different seconds never collide.
func NewRunStore(baseDir string, run *model.Run, opts ...StoreOption) (*RunStore, error) {
	s := &RunStore{
		dir: filepath.Join(baseDir, run.DirName()),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	return s, nil
}

// Dir returns the run directory path.
func (s *RunStore) Dir() string {
	return s.dir
}

// ReportPath returns the path of the rendered report artifact.
func (s *RunStore) ReportPath() string {
	return filepath.Join(s.dir, ReportFileName)
}

// SanitizePath converts a URL path into a filesystem-safe artifact
// name by replacing every reserved character with an underscore.
// The empty path maps to a single underscore.
func SanitizePath(path string) string {
	if path == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(reservedChars, r) {
			return '_'
		}
		return r
	}, path)
}

// FileNameForURL derives the artifact file name for a page URL from
// its sanitized pathname.
func FileNameForURL(pageURL string) string {
	path := pageURL
	if u, err := url.Parse(pageURL); err == nil {
		path = u.Path
	}
	return SanitizePath(path) + ".json"
}

// SavePageResult writes one page's raw audit result into the run
// directory. The engine's verbatim payload is preferred so fields the
// model does not map survive; results built in-process fall back to
// marshalling the struct.
func (s *RunStore) SavePageResult(raw *model.RawAuditResult) error {
	data := raw.Raw
	if data == nil {
		var err error
		data, err = json.MarshalIndent(raw, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize audit result: %w", err)
		}
	}

	name := FileNameForURL(raw.RequestedURL)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write page artifact: %w", err)
	}

	s.logger.Debug("page artifact saved", "url", raw.RequestedURL, "file", name)
	return nil
}

// LoadPageResults re-reads every page artifact in the run directory,
// in directory (file name) order. A file that fails to parse is
// skipped and recorded as a failure; the remaining files still load.
func (s *RunStore) LoadPageResults() ([]model.RawAuditResult, []error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, []error{fmt.Errorf("failed to read run directory: %w", err)}
	}

	var results []model.RawAuditResult
	var failures []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path) //nolint:gosec // Paths come from our own run directory
		if err != nil {
			failures = append(failures, fmt.Errorf("failed to read %s: %w", entry.Name(), err))
			continue
		}

		var raw model.RawAuditResult
		if err := json.Unmarshal(data, &raw); err != nil {
			s.logger.Warn("skipping malformed page artifact", "file", entry.Name(), "error", err)
			failures = append(failures, fmt.Errorf("failed to parse %s: %w", entry.Name(), err))
			continue
		}
		raw.Raw = data
		results = append(results, raw)
	}

	return results, failures
}

// WriteReport writes the rendered report as the run's terminal
// artifact.
func (s *RunStore) WriteReport(html []byte) error {
	if err := os.WriteFile(s.ReportPath(), html, 0600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
