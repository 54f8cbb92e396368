// Package log provides logger construction for the application, built
// on top of the standard slog package.
//
// Audit payloads carry element snippets and consent selectors whose
// length is unbounded; a single failing page can otherwise dump whole
// documents into the log stream. The TruncatingHandler bounds every
// string attribute so verbose runs stay readable.
//
// # Usage
//
//	// Create a logger writing to stderr
//	logger := log.NewLogger(os.Stderr, true) // verbose=true
//
//	// Use as a standard slog.Logger
//	logger.Debug("page audited",
//	    "url", "https://example.org/",
//	    "snippet", longOuterHTML, // truncated before output
//	)
package log
