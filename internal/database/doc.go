// Package database provides SQLite-based storage of completed site
// reports, powering the run-history listing and comparison between
// runs of the same site.
package database
