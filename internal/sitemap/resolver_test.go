package sitemap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// xmlHandler serves a fixed XML body.
func xmlHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprint(w, body)
	}
}

// TestResolveUrlset tests flat urlset resolution.
func TestResolveUrlset(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(xmlHandler(`<?xml version="1.0" encoding="UTF-8"?>
		<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
			<url><loc>https://example.org/</loc></url>
			<url><loc>https://example.org/collections</loc></url>
			<url><loc>https://example.org/about</loc></url>
		</urlset>`))
	defer srv.Close()

	resolver := NewResolver(WithHTTPClient(srv.Client()))
	result, err := resolver.Resolve(context.Background(), srv.URL+"/sitemap.xml")
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}

	want := []string{
		"https://example.org/",
		"https://example.org/collections",
		"https://example.org/about",
	}
	if len(result.URLs) != len(want) {
		t.Fatalf("got %d URLs, expected %d: %v", len(result.URLs), len(want), result.URLs)
	}
	for i, u := range want {
		if result.URLs[i] != u {
			t.Errorf("URL %d: got %q, expected %q (document order must be preserved)", i, result.URLs[i], u)
		}
	}
	if len(result.BranchErrors) != 0 {
		t.Errorf("expected no branch errors, got %v", result.BranchErrors)
	}
}

// TestResolveSitemapIndex tests recursion and entry filtering.
func TestResolveSitemapIndex(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<sitemapindex>
			<sitemap><loc>%s/sitemap-pages.xml</loc></sitemap>
			<sitemap><loc>%s/feed.xml</loc></sitemap>
			<sitemap><loc>%s/sitemap-news</loc></sitemap>
		</sitemapindex>`, srv.URL, srv.URL, srv.URL)
	})
	mux.HandleFunc("/sitemap-pages.xml", xmlHandler(`<urlset>
		<url><loc>https://example.org/one</loc></url>
		<url><loc>https://example.org/two</loc></url>
	</urlset>`))

	resolver := NewResolver(WithHTTPClient(srv.Client()))
	result, err := resolver.Resolve(context.Background(), srv.URL+"/sitemap.xml")
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}

	// feed.xml lacks "sitemap" in its path, sitemap-news lacks the
	// ".xml" suffix; only sitemap-pages.xml is followed.
	if len(result.URLs) != 2 {
		t.Fatalf("got %d URLs, expected 2: %v", len(result.URLs), result.URLs)
	}
	if result.URLs[0] != "https://example.org/one" || result.URLs[1] != "https://example.org/two" {
		t.Errorf("unexpected URLs: %v", result.URLs)
	}
	if len(result.BranchErrors) != 0 {
		t.Errorf("non-matching entries must be skipped silently, got %v", result.BranchErrors)
	}
}

// TestResolveNestedIndex tests depth-first, left-to-right ordering
// across nested sitemap indexes.
func TestResolveNestedIndex(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<sitemapindex>
			<sitemap><loc>%s/sitemap-inner.xml</loc></sitemap>
			<sitemap><loc>%s/sitemap-last.xml</loc></sitemap>
		</sitemapindex>`, srv.URL, srv.URL)
	})
	mux.HandleFunc("/sitemap-inner.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<sitemapindex>
			<sitemap><loc>%s/sitemap-deep.xml</loc></sitemap>
		</sitemapindex>`, srv.URL)
	})
	mux.HandleFunc("/sitemap-deep.xml", xmlHandler(`<urlset>
		<url><loc>https://example.org/deep</loc></url>
	</urlset>`))
	mux.HandleFunc("/sitemap-last.xml", xmlHandler(`<urlset>
		<url><loc>https://example.org/last</loc></url>
	</urlset>`))

	resolver := NewResolver(WithHTTPClient(srv.Client()))
	result, err := resolver.Resolve(context.Background(), srv.URL+"/sitemap.xml")
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}

	if len(result.URLs) != 2 || result.URLs[0] != "https://example.org/deep" || result.URLs[1] != "https://example.org/last" {
		t.Errorf("expected depth-first order [deep last], got %v", result.URLs)
	}
}

// TestResolveCycle tests that a self-referencing index terminates.
func TestResolveCycle(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<sitemapindex>
			<sitemap><loc>%s/sitemap.xml</loc></sitemap>
			<sitemap><loc>%s/sitemap-child.xml</loc></sitemap>
		</sitemapindex>`, srv.URL, srv.URL)
	})
	mux.HandleFunc("/sitemap-child.xml", func(w http.ResponseWriter, _ *http.Request) {
		// References its parent, closing the cycle.
		fmt.Fprintf(w, `<sitemapindex>
			<sitemap><loc>%s/sitemap.xml</loc></sitemap>
		</sitemapindex>`, srv.URL)
	})

	resolver := NewResolver(WithHTTPClient(srv.Client()))
	result, err := resolver.Resolve(context.Background(), srv.URL+"/sitemap.xml")
	if err != nil {
		t.Fatalf("cycle must terminate, got error: %v", err)
	}
	if len(result.URLs) != 0 {
		t.Errorf("expected no page URLs from pure index cycle, got %v", result.URLs)
	}
}

// TestResolveBranchFailure tests that a broken sub-sitemap is reported
// without hiding its siblings.
func TestResolveBranchFailure(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<sitemapindex>
			<sitemap><loc>%s/sitemap-broken.xml</loc></sitemap>
			<sitemap><loc>%s/sitemap-ok.xml</loc></sitemap>
		</sitemapindex>`, srv.URL, srv.URL)
	})
	mux.HandleFunc("/sitemap-broken.xml", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/sitemap-ok.xml", xmlHandler(`<urlset>
		<url><loc>https://example.org/survivor</loc></url>
	</urlset>`))

	resolver := NewResolver(WithHTTPClient(srv.Client()))
	result, err := resolver.Resolve(context.Background(), srv.URL+"/sitemap.xml")
	if err != nil {
		t.Fatalf("sibling failure must not abort resolution: %v", err)
	}

	if len(result.URLs) != 1 || result.URLs[0] != "https://example.org/survivor" {
		t.Errorf("unexpected URLs: %v", result.URLs)
	}
	if len(result.BranchErrors) != 1 {
		t.Fatalf("expected 1 branch error, got %d", len(result.BranchErrors))
	}
	var fetchErr *FetchError
	if !errors.As(result.BranchErrors[0], &fetchErr) {
		t.Errorf("expected *FetchError, got %T", result.BranchErrors[0])
	}
}

// TestResolveRootErrors tests fatal root-document failures.
func TestResolveRootErrors(t *testing.T) {
	t.Parallel()

	t.Run("non-success status is a FetchError", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		resolver := NewResolver(WithHTTPClient(srv.Client()))
		_, err := resolver.Resolve(context.Background(), srv.URL+"/sitemap.xml")

		var fetchErr *FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected *FetchError, got %v", err)
		}
		if fetchErr.StatusCode != http.StatusNotFound {
			t.Errorf("got status %d, expected 404", fetchErr.StatusCode)
		}
	})

	t.Run("malformed XML is a ParseError", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(xmlHandler(`<urlset><url><loc>https://x`))
		defer srv.Close()

		resolver := NewResolver(WithHTTPClient(srv.Client()))
		_, err := resolver.Resolve(context.Background(), srv.URL+"/sitemap.xml")

		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected *ParseError, got %v", err)
		}
	})

	t.Run("unrecognized root yields zero entries without error", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(xmlHandler(`<rss><channel></channel></rss>`))
		defer srv.Close()

		resolver := NewResolver(WithHTTPClient(srv.Client()))
		result, err := resolver.Resolve(context.Background(), srv.URL+"/sitemap.xml")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.URLs) != 0 {
			t.Errorf("expected zero URLs, got %v", result.URLs)
		}
	})
}

// TestIsSitemapURL tests the sitemap-reference predicate.
func TestIsSitemapURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.org/sitemap.xml", true},
		{"https://example.org/sitemap-pages.xml", true},
		{"https://example.org/deep/sitemap_index.xml", true},
		{"https://example.org/feed.xml", false},
		{"https://example.org/sitemap-news", false},
		{"https://example.org/about", false},
		{"https://example.org/?page=sitemap.xml", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()
			if got := IsSitemapURL(tt.url); got != tt.want {
				t.Errorf("IsSitemapURL(%q) = %v, expected %v", tt.url, got, tt.want)
			}
		})
	}
}
