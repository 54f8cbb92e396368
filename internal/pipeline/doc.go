// Package pipeline orchestrates one audit run as a sequence of steps:
// resolve the sitemap, audit every page, aggregate the persisted
// results, and render the report.
package pipeline
