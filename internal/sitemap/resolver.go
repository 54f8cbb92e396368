package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html/charset"
)

// Resolver fetches sitemap documents and expands them into page URLs.
// A sitemapindex document is walked depth-first, left-to-right, so the
// resulting order matches document order across nested sitemaps.
type Resolver struct {
	// client performs the HTTP fetches.
	client *http.Client

	// userAgent is sent with each request.
	userAgent string

	// maxBodySize limits how much of a sitemap body is read.
	maxBodySize int64

	// logger for structured logging.
	logger *slog.Logger
}

// Result is the outcome of one resolution call.
type Result struct {
	// URLs are the discovered page URLs in document order.
	URLs []string

	// BranchErrors records sub-sitemaps that failed to fetch or parse.
	// A failed branch never hides its siblings, but the failure is
	// reported here rather than swallowed: a broken sub-sitemap must
	// not silently shrink the audit to zero pages.
	BranchErrors []error
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient sets the HTTP client used for fetching.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) {
		r.client = client
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(r *Resolver) {
		r.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum sitemap body size to read.
func WithMaxBodySize(size int64) Option {
	return func(r *Resolver) {
		r.maxBodySize = size
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		client:      http.DefaultClient,
		userAgent:   "a11yscan/1.0 (+https://github.com/BL-Labs/labs-a11y-testing)",
		maxBodySize: 10 * 1024 * 1024, // 10MB
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// IsSitemapURL reports whether a URL looks like a sitemap reference:
// its path contains the substring "sitemap" and ends with ".xml".
// The same predicate filters sitemapindex entries and decides whether
// a CLI target is a sitemap or a single page.
func IsSitemapURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.Contains(u.Path, "sitemap") && strings.HasSuffix(u.Path, ".xml")
}

// Resolve fetches sitemapURL and returns every page URL it declares,
// recursing into nested sitemap indexes. Fetch or parse failures on
// the root document are returned as an error; the same failures on a
// sub-sitemap abort only that branch and are collected in
// Result.BranchErrors.
func (r *Resolver) Resolve(ctx context.Context, sitemapURL string) (*Result, error) {
	result := &Result{URLs: make([]string, 0)}
	visited := make(map[string]bool)

	if err := r.walk(ctx, sitemapURL, visited, result); err != nil {
		return nil, err
	}
	return result, nil
}

// walk resolves one sitemap document and appends its page URLs to the
// result. The visited set ensures each distinct sitemap URL is fetched
// at most once per Resolve call, which turns a self- or
// ancestor-referencing index into a terminating walk.
func (r *Resolver) walk(ctx context.Context, sitemapURL string, visited map[string]bool, result *Result) error {
	if visited[sitemapURL] {
		r.logger.Debug("skipping already-visited sitemap", "url", sitemapURL)
		return nil
	}
	visited[sitemapURL] = true

	body, err := r.fetch(ctx, sitemapURL)
	if err != nil {
		return err
	}

	doc, err := parseDocument(sitemapURL, body)
	if err != nil {
		return err
	}

	switch {
	case doc.pages != nil:
		result.URLs = append(result.URLs, doc.pages...)

	case doc.sitemaps != nil:
		for _, loc := range doc.sitemaps {
			if !IsSitemapURL(loc) {
				r.logger.Debug("skipping non-sitemap index entry", "url", loc)
				continue
			}
			if err := r.walk(ctx, loc, visited, result); err != nil {
				r.logger.Warn("sub-sitemap failed, continuing with siblings",
					"url", loc,
					"error", err,
				)
				result.BranchErrors = append(result.BranchErrors, err)
			}
		}

	default:
		// Well-formed XML of neither shape yields zero entries.
		r.logger.Debug("document is neither urlset nor sitemapindex", "url", sitemapURL)
	}

	return nil
}

// fetch retrieves a sitemap body, returning a FetchError on transport
// failure or non-success status.
func (r *Resolver) fetch(ctx context.Context, sitemapURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, &FetchError{URL: sitemapURL, Err: err}
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/xml,text/xml;q=0.9,*/*;q=0.8")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: sitemapURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{URL: sitemapURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBodySize))
	if err != nil {
		return nil, &FetchError{URL: sitemapURL, Err: err}
	}
	return body, nil
}

// document is the parsed form of one sitemap body. Exactly one of the
// slices is non-nil for a recognized shape; both nil means the root
// element was something else entirely.
type document struct {
	pages    []string
	sitemaps []string
}

// urlsetDoc matches <urlset><url><loc>…</loc></url>…</urlset>.
type urlsetDoc struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// indexDoc matches <sitemapindex><sitemap><loc>…</loc></sitemap>…</sitemapindex>.
type indexDoc struct {
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// parseDocument decodes a sitemap body, dispatching on the root
// element name. Sitemaps in the wild are served in various encodings,
// so the decoder goes through charset.NewReaderLabel.
func parseDocument(sitemapURL string, body []byte) (*document, error) {
	dec := xml.NewDecoder(strings.NewReader(string(body)))
	dec.CharsetReader = charset.NewReaderLabel

	root, err := rootElement(dec)
	if err != nil {
		return nil, &ParseError{URL: sitemapURL, Err: err}
	}
	if root == nil {
		return nil, &ParseError{URL: sitemapURL, Err: fmt.Errorf("empty document")}
	}

	switch root.Name.Local {
	case "urlset":
		var us urlsetDoc
		if err := dec.DecodeElement(&us, root); err != nil {
			return nil, &ParseError{URL: sitemapURL, Err: err}
		}
		pages := make([]string, 0, len(us.URLs))
		for _, u := range us.URLs {
			if loc := strings.TrimSpace(u.Loc); loc != "" {
				pages = append(pages, loc)
			}
		}
		return &document{pages: pages}, nil

	case "sitemapindex":
		var idx indexDoc
		if err := dec.DecodeElement(&idx, root); err != nil {
			return nil, &ParseError{URL: sitemapURL, Err: err}
		}
		sitemaps := make([]string, 0, len(idx.Sitemaps))
		for _, s := range idx.Sitemaps {
			if loc := strings.TrimSpace(s.Loc); loc != "" {
				sitemaps = append(sitemaps, loc)
			}
		}
		return &document{sitemaps: sitemaps}, nil

	default:
		return &document{}, nil
	}
}

// rootElement advances the decoder to the first start element.
func rootElement(dec *xml.Decoder) (*xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return &start, nil
		}
	}
}
