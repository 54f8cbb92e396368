// Package config provides configuration structures and utilities for
// the accessibility auditor: global options populated from CLI flags,
// per-site overrides loaded from a YAML file, and data-directory
// resolution for the run history database.
package config
