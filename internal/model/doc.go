// Package model defines the core data structures shared across the
// application: raw audit payloads, normalized page records, aggregated
// site reports, and run identity.
package model
