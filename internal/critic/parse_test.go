package critic

import (
	"strings"
	"testing"
)

// #region strip-tests

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain json", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fence with preamble", "Here is the result:\n```json\n{\"a\": 1}\n```\nDone.", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFences(tt.in); got != tt.want {
				t.Errorf("stripFences = %q, want %q", got, tt.want)
			}
		})
	}
}

// #endregion

// #region parse-tests

const validResponse = `{
	"overall_score": 8.2,
	"dimension_scores": [
		{"dimension": "brand_consistency", "score": 8.5, "weight": 0.30, "justification": "palette matches"},
		{"dimension": "technical_quality", "score": 8.0, "weight": 0.25, "justification": "sharp"},
		{"dimension": "etsy_compliance", "score": 9.0, "weight": 0.20, "justification": "compliant"},
		{"dimension": "visual_appeal", "score": 7.5, "weight": 0.25, "justification": "solid"}
	],
	"critical_issues": [],
	"selected_images": {"starting_soon": "starting_soon_02"},
	"deltas": ["prompts.starting_soon -> enhance: 'more glow'"]
}`

func TestParseResponse(t *testing.T) {
	parsed, err := parseResponse(validResponse)
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if parsed.OverallScore != 8.2 {
		t.Errorf("overall = %.1f", parsed.OverallScore)
	}
	if len(parsed.DimensionScores) != 4 {
		t.Errorf("expected 4 dimensions, got %d", len(parsed.DimensionScores))
	}
	if parsed.SelectedImages["starting_soon"] != "starting_soon_02" {
		t.Errorf("selection lost: %v", parsed.SelectedImages)
	}
}

func TestParseResponse_Fenced(t *testing.T) {
	if _, err := parseResponse("```json\n" + validResponse + "\n```"); err != nil {
		t.Errorf("fenced response rejected: %v", err)
	}
}

func TestParseResponse_Invalid(t *testing.T) {
	if _, err := parseResponse("I think the pack looks great!"); err == nil {
		t.Error("prose response accepted")
	}
	if _, err := parseResponse(`{"overall_score": 8.0, "dimension_scores": []}`); err == nil {
		t.Error("response without dimension scores accepted")
	}
	if _, err := parseResponse(""); err == nil {
		t.Error("empty response accepted")
	}
}

func TestParseResponse_ErrorNames(t *testing.T) {
	_, err := parseResponse("not json")
	if err == nil || !strings.Contains(err.Error(), "not valid JSON") {
		t.Errorf("unexpected error: %v", err)
	}
}

// #endregion
