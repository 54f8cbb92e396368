// Package sitemap resolves a sitemap URL into the flat, ordered list
// of page URLs it declares, expanding nested sitemap-index documents
// recursively with cycle protection.
package sitemap
