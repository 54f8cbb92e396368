// Package aggregate combines the page records of one run into a site
// report with per-page scores, per-page failing checks, and the
// site-wide average.
package aggregate
