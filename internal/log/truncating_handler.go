package log

import (
	"context"
	"io"
	"log/slog"
	"unicode/utf8"
)

// DefaultMaxValueLen is the longest string attribute value emitted
// before truncation.
const DefaultMaxValueLen = 512

// truncationMark is appended to a value that was cut short.
const truncationMark = "...(truncated)"

// TruncatingHandler wraps an slog.Handler and bounds the length of
// every string attribute value. Audit snippets are whole outer-HTML
// fragments, so an unbounded handler can emit kilobytes per record.
//
// Design decision: We use a handler wrapper rather than trimming at
// each call site because:
//  1. It integrates seamlessly with standard slog APIs
//  2. It works with any underlying handler (text, JSON, etc.)
//  3. New log statements are bounded without remembering to trim
type TruncatingHandler struct {
	// handler is the underlying slog handler that receives bounded records.
	handler slog.Handler

	// maxValueLen is the longest string value passed through unchanged.
	maxValueLen int
}

// NewTruncatingHandler creates a TruncatingHandler wrapping the given
// handler. If handler is nil, the returned TruncatingHandler uses
// slog.Default().Handler(). A maxValueLen of 0 or less means
// DefaultMaxValueLen.
func NewTruncatingHandler(handler slog.Handler, maxValueLen int) *TruncatingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if maxValueLen <= 0 {
		maxValueLen = DefaultMaxValueLen
	}
	return &TruncatingHandler{handler: handler, maxValueLen: maxValueLen}
}

// Enabled reports whether the handler handles records at the given level.
// It delegates to the underlying handler.
func (h *TruncatingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle bounds the record's attributes and passes it to the
// underlying handler.
func (h *TruncatingHandler) Handle(ctx context.Context, r slog.Record) error {
	bounded := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		bounded.AddAttrs(h.truncateAttr(a))
		return true
	})

	return h.handler.Handle(ctx, bounded)
}

// WithAttrs returns a new handler with the given attributes added.
// Attributes are bounded before being added.
func (h *TruncatingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	boundedAttrs := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		boundedAttrs[i] = h.truncateAttr(a)
	}
	return &TruncatingHandler{handler: h.handler.WithAttrs(boundedAttrs), maxValueLen: h.maxValueLen}
}

// WithGroup returns a new handler with the given group name.
func (h *TruncatingHandler) WithGroup(name string) slog.Handler {
	return &TruncatingHandler{handler: h.handler.WithGroup(name), maxValueLen: h.maxValueLen}
}

// truncateAttr bounds a single attribute, recursively handling groups.
func (h *TruncatingHandler) truncateAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		boundedAttrs := make([]slog.Attr, len(attrs))
		for i, groupAttr := range attrs {
			boundedAttrs[i] = h.truncateAttr(groupAttr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(boundedAttrs...)}
	}

	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()
		if len(strVal) > h.maxValueLen {
			// Back up to a rune boundary so the cut never splits a
			// multi-byte character.
			cut := h.maxValueLen
			for cut > 0 && !utf8.RuneStart(strVal[cut]) {
				cut--
			}
			return slog.String(a.Key, strVal[:cut]+truncationMark)
		}
	}

	return a
}

// NewLogger creates the application's slog.Logger writing text records
// to w.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Warn
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	textHandler := slog.NewTextHandler(w, opts)
	return slog.New(NewTruncatingHandler(textHandler, DefaultMaxValueLen))
}

// NewJSONLogger creates a logger that outputs JSON records. Useful for
// structured log aggregation.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	jsonHandler := slog.NewJSONHandler(w, opts)
	return slog.New(NewTruncatingHandler(jsonHandler, DefaultMaxValueLen))
}
