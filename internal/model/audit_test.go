package model

import (
	"encoding/json"
	"testing"
)

// floatPtr returns a pointer to the given float64.
func floatPtr(f float64) *float64 {
	return &f
}

// TestAuditIsFailing tests the pass/fail classification rule.
func TestAuditIsFailing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		audit Audit
		want  bool
	}{
		{
			name:  "binary with score 0 fails",
			audit: Audit{ScoreDisplayMode: DisplayModeBinary, Score: floatPtr(0)},
			want:  true,
		},
		{
			name:  "binary with score 1 passes",
			audit: Audit{ScoreDisplayMode: DisplayModeBinary, Score: floatPtr(1)},
			want:  false,
		},
		{
			name:  "binary without score is not a failure",
			audit: Audit{ScoreDisplayMode: DisplayModeBinary, Score: nil},
			want:  false,
		},
		{
			name:  "notApplicable with score 0 is excluded",
			audit: Audit{ScoreDisplayMode: DisplayModeNotApplicable, Score: floatPtr(0)},
			want:  false,
		},
		{
			name:  "informative with score 0 is excluded",
			audit: Audit{ScoreDisplayMode: DisplayModeInformative, Score: floatPtr(0)},
			want:  false,
		},
		{
			name:  "manual with score 0 is excluded",
			audit: Audit{ScoreDisplayMode: DisplayModeManual, Score: floatPtr(0)},
			want:  false,
		},
		{
			name:  "numeric with score 0 is excluded",
			audit: Audit{ScoreDisplayMode: DisplayModeNumeric, Score: floatPtr(0)},
			want:  false,
		},
		{
			name:  "error mode is excluded",
			audit: Audit{ScoreDisplayMode: DisplayModeError, Score: floatPtr(0)},
			want:  false,
		},
		{
			name:  "unknown mode is excluded",
			audit: Audit{ScoreDisplayMode: DisplayMode("somethingElse"), Score: floatPtr(0)},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.audit.IsFailing(); got != tt.want {
				t.Errorf("IsFailing() = %v, expected %v", got, tt.want)
			}
		})
	}
}

// TestAccessibilityScore tests score lookup in the categories map.
func TestAccessibilityScore(t *testing.T) {
	t.Parallel()

	t.Run("returns score when present", func(t *testing.T) {
		t.Parallel()

		raw := RawAuditResult{
			Categories: map[string]Category{
				AccessibilityCategory: {Score: floatPtr(0.87)},
			},
		}

		score, ok := raw.AccessibilityScore()
		if !ok {
			t.Fatal("expected score to be present")
		}
		if score != 0.87 {
			t.Errorf("got %v, expected 0.87", score)
		}
	})

	t.Run("reports absence when category missing", func(t *testing.T) {
		t.Parallel()

		raw := RawAuditResult{Categories: map[string]Category{}}

		score, ok := raw.AccessibilityScore()
		if ok {
			t.Error("expected score to be absent")
		}
		if score != 0 {
			t.Errorf("got %v, expected 0", score)
		}
	})

	t.Run("reports absence when score is null", func(t *testing.T) {
		t.Parallel()

		raw := RawAuditResult{
			Categories: map[string]Category{
				AccessibilityCategory: {Score: nil},
			},
		}

		if _, ok := raw.AccessibilityScore(); ok {
			t.Error("expected score to be absent")
		}
	})
}

// TestRawAuditResultUnmarshal tests parsing of an engine-shaped payload.
func TestRawAuditResultUnmarshal(t *testing.T) {
	t.Parallel()

	payload := `{
		"requestedUrl": "https://example.org/collections",
		"categories": {
			"accessibility": {"title": "Accessibility", "score": 0.5}
		},
		"audits": {
			"image-alt": {
				"id": "image-alt",
				"title": "Image elements have alt attributes",
				"description": "Informative alt text helps. [Learn more](https://example.org/docs/image-alt).",
				"score": 0,
				"scoreDisplayMode": "binary",
				"details": {
					"items": [
						{"node": {"selector": "div > img", "snippet": "<img src=\"x.png\">", "explanation": "Missing alt attribute"}}
					]
				}
			},
			"video-caption": {
				"id": "video-caption",
				"score": null,
				"scoreDisplayMode": "notApplicable"
			}
		}
	}`

	var raw RawAuditResult
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}

	if raw.RequestedURL != "https://example.org/collections" {
		t.Errorf("unexpected requested URL: %q", raw.RequestedURL)
	}

	score, ok := raw.AccessibilityScore()
	if !ok || score != 0.5 {
		t.Errorf("got score %v (present=%v), expected 0.5", score, ok)
	}

	imageAlt, ok := raw.Audits["image-alt"]
	if !ok {
		t.Fatal("expected image-alt audit")
	}
	if !imageAlt.IsFailing() {
		t.Error("expected image-alt to be failing")
	}
	if imageAlt.Details == nil || len(imageAlt.Details.Items) != 1 {
		t.Fatal("expected one detail item")
	}
	node := imageAlt.Details.Items[0].Node
	if node == nil || node.Selector != "div > img" {
		t.Errorf("unexpected node: %+v", node)
	}

	if raw.Audits["video-caption"].IsFailing() {
		t.Error("notApplicable audit must never be failing")
	}
}
