package sitemap

import "fmt"

// FetchError indicates that retrieving a sitemap document failed,
// either at the network level or with a non-success HTTP status.
type FetchError struct {
	// URL is the sitemap URL that failed to fetch.
	URL string

	// StatusCode is the HTTP status, or 0 for transport failures.
	StatusCode int

	// Err is the underlying transport error, when one exists.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch sitemap %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch sitemap %s: unexpected status %d", e.URL, e.StatusCode)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError indicates that a fetched sitemap body was not well-formed
// XML of either recognized shape.
type ParseError struct {
	// URL is the sitemap URL whose body failed to parse.
	URL string

	// Err is the XML decoder's error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse sitemap %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}
