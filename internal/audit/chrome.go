package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/BL-Labs/labs-a11y-testing/internal/config"
	"github.com/BL-Labs/labs-a11y-testing/internal/model"
)

// DefaultAuditScriptName is the audit bundle looked up next to the
// executable when no explicit script path is configured.
const DefaultAuditScriptName = "a11y-audit.js"

// auditEntryPoint is the call evaluated after the bundle is injected.
// The bundle must install this function; it returns (a promise of) the
// raw audit result document.
const auditEntryPoint = `window.runAccessibilityAudit()`

// ChromeAuditor runs accessibility audits in a headless Chrome driven
// over the DevTools protocol. One browser process serves the whole
// run; every page audit gets its own isolated browser context, so
// audits are safe to run concurrently.
type ChromeAuditor struct {
	// allocCancel tears down the exec allocator (and any browser it
	// spawned).
	allocCancel context.CancelFunc

	// browserCtx is the long-lived context owning the browser
	// process. Page audits derive tab contexts from it.
	browserCtx context.Context

	// browserCancel closes the browser.
	browserCancel context.CancelFunc

	// script is the default audit bundle source injected into each
	// page.
	script string

	// scriptMu guards scriptCache; audits may run concurrently.
	scriptMu sync.Mutex

	// scriptCache holds per-site audit bundles, keyed by path, so a
	// site override is read once per run rather than once per page.
	scriptCache map[string]string

	// siteConfigs supplies per-host consent selectors and settle
	// delays. May be nil.
	siteConfigs *config.File

	// settleDelay is the default wait after navigation before the
	// audit runs.
	settleDelay time.Duration

	// logger for structured logging.
	logger *slog.Logger
}

// ChromeOption configures a ChromeAuditor.
type ChromeOption func(*chromeSettings)

// chromeSettings collects construction-time options.
type chromeSettings struct {
	chromePath  string
	headless    bool
	siteConfigs *config.File
	settleDelay time.Duration
	logger      *slog.Logger
}

// WithChromePath sets an explicit Chrome/Chromium executable path.
func WithChromePath(path string) ChromeOption {
	return func(s *chromeSettings) {
		s.chromePath = path
	}
}

// WithHeadless controls whether the browser runs without a window.
func WithHeadless(headless bool) ChromeOption {
	return func(s *chromeSettings) {
		s.headless = headless
	}
}

// WithSiteConfigs supplies per-host overrides.
func WithSiteConfigs(cf *config.File) ChromeOption {
	return func(s *chromeSettings) {
		s.siteConfigs = cf
	}
}

// WithSettleDelay sets the default post-navigation settle delay.
func WithSettleDelay(d time.Duration) ChromeOption {
	return func(s *chromeSettings) {
		s.settleDelay = d
	}
}

// WithChromeLogger sets a custom logger.
func WithChromeLogger(logger *slog.Logger) ChromeOption {
	return func(s *chromeSettings) {
		s.logger = logger
	}
}

// NewChromeAuditor starts a browser and returns an Auditor bound to
// it. The caller must Close the auditor on every exit path; the
// browser process outlives individual audits.
func NewChromeAuditor(ctx context.Context, script string, opts ...ChromeOption) (*ChromeAuditor, error) {
	if script == "" {
		return nil, fmt.Errorf("audit script is empty")
	}

	settings := &chromeSettings{
		headless:    true,
		settleDelay: config.DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(settings)
	}
	if settings.logger == nil {
		settings.logger = slog.Default()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", settings.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("mute-audio", true),
	)
	if settings.chromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(settings.chromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so a missing executable fails here
	// rather than on the first page.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &ChromeAuditor{
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		script:        script,
		scriptCache:   make(map[string]string),
		siteConfigs:   settings.siteConfigs,
		settleDelay:   settings.settleDelay,
		logger:        settings.logger,
	}, nil
}

// Audit loads pageURL in a fresh browser context, dismisses a consent
// dialog when one is configured for the host, injects the audit
// bundle, and returns the engine's raw result.
func (a *ChromeAuditor) Audit(ctx context.Context, pageURL string) (*model.RawAuditResult, error) {
	site := a.siteConfig(pageURL)
	settle := a.settleDelay
	if site.SettleDelay > 0 {
		settle = site.SettleDelay
	}

	script, err := a.scriptFor(site)
	if err != nil {
		return nil, fmt.Errorf("failed to load site audit script: %w", err)
	}

	tabCtx, cancel := chromedp.NewContext(a.browserCtx)
	defer cancel()

	// Honor the caller's deadline while keeping the tab parented to
	// the shared browser.
	if deadline, ok := ctx.Deadline(); ok {
		var dcancel context.CancelFunc
		tabCtx, dcancel = context.WithDeadline(tabCtx, deadline)
		defer dcancel()
	}

	tasks := chromedp.Tasks{
		chromedp.Navigate(pageURL),
		chromedp.Sleep(settle),
	}
	if site.ConsentSelector != "" {
		tasks = append(tasks, a.dismissConsent(site.ConsentSelector))
	}

	if err := chromedp.Run(tabCtx, tasks); err != nil {
		return nil, fmt.Errorf("navigation failed: %w", err)
	}

	var payload []byte
	err = chromedp.Run(tabCtx,
		chromedp.Evaluate(script, nil),
		chromedp.Evaluate(auditEntryPoint, &payload,
			func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
				return p.WithAwaitPromise(true)
			},
		),
	)
	if err != nil {
		return nil, fmt.Errorf("audit script failed: %w", err)
	}

	var raw model.RawAuditResult
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("audit result is not valid JSON: %w", err)
	}
	raw.Raw = payload
	if raw.RequestedURL == "" {
		raw.RequestedURL = pageURL
	}

	return &raw, nil
}

// Close releases the browser process. Safe to call after failed
// audits; the browser is shared state and must go down exactly once.
func (a *ChromeAuditor) Close() error {
	a.browserCancel()
	a.allocCancel()
	return nil
}

// dismissConsent clicks the configured consent selector, best effort.
// A page without the dialog is the common case, so absence of the
// element is not an error.
func (a *ChromeAuditor) dismissConsent(selector string) chromedp.Action {
	script := fmt.Sprintf(
		`(function() { const el = document.querySelector(%q); if (el) { el.click(); return true; } return false; })()`,
		selector,
	)
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var clicked bool
		if err := chromedp.Evaluate(script, &clicked).Do(ctx); err != nil {
			a.logger.Debug("consent dismissal failed", "selector", selector, "error", err)
			return nil
		}
		if clicked {
			a.logger.Debug("consent dialog dismissed", "selector", selector)
		}
		return nil
	})
}

// scriptFor returns the audit bundle to inject for a page's site
// config. A site without an override uses the default bundle; an
// override is read from disk once and cached for the rest of the run.
func (a *ChromeAuditor) scriptFor(site config.SiteConfig) (string, error) {
	if site.AuditScript == "" {
		return a.script, nil
	}

	a.scriptMu.Lock()
	defer a.scriptMu.Unlock()
	if src, ok := a.scriptCache[site.AuditScript]; ok {
		return src, nil
	}
	src, err := LoadAuditScript(site.AuditScript)
	if err != nil {
		return "", err
	}
	a.scriptCache[site.AuditScript] = src
	return src, nil
}

// siteConfig returns the per-host overrides for a page URL.
func (a *ChromeAuditor) siteConfig(pageURL string) config.SiteConfig {
	if a.siteConfigs == nil {
		return config.SiteConfig{}
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return a.siteConfigs.Defaults
	}
	return a.siteConfigs.GetSiteConfig(u.Host)
}

// LoadAuditScript reads the audit bundle from path, or from the
// default location next to the executable when path is empty.
func LoadAuditScript(path string) (string, error) {
	if path == "" {
		execPath, err := os.Executable()
		if err != nil {
			return "", fmt.Errorf("failed to locate executable: %w", err)
		}
		path = filepath.Join(filepath.Dir(execPath), DefaultAuditScriptName)
	}

	data, err := os.ReadFile(path) //nolint:gosec // Script path is operator-controlled
	if err != nil {
		return "", fmt.Errorf("failed to read audit script: %w", err)
	}
	return string(data), nil
}
