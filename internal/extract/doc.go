// Package extract turns raw audit payloads into normalized page
// records: pathname, accessibility score, and the filtered set of
// failing checks.
package extract
