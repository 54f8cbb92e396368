// Package storage persists run artifacts on the filesystem: one JSON
// file per audited page inside a timestamped run directory, plus the
// rendered report.html as the run's terminal artifact.
package storage
