// Package main provides the entry point for the a11yscan CLI.
//
// a11yscan crawls every page declared in a website's sitemap, runs an
// automated accessibility audit against each page in a headless
// browser, and aggregates the per-page results into a single site-wide
// HTML report.
//
// Usage:
//
//	a11yscan scan https://example.org/sitemap.xml
//	a11yscan scan https://example.org/about
//
// See --help for all available options.
package main

// main is the entry point for a11yscan.
func main() {
	Execute()
}
