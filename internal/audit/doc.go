// Package audit wraps the browser-based accessibility audit
// capability: an Auditor boundary interface, a chromedp-backed
// implementation, and a Runner that audits a batch of URLs without
// letting one failure abort the rest.
package audit
