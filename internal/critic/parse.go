package critic

// #region imports
import (
	"encoding/json"
	"fmt"
	"strings"
)

// #endregion

// #region response-schema

// criticResponse is the JSON contract the vision model is asked to return.
type criticResponse struct {
	OverallScore    float64           `json:"overall_score"`
	DimensionScores []dimensionScore  `json:"dimension_scores"`
	CriticalIssues  []string          `json:"critical_issues"`
	SelectedImages  map[string]string `json:"selected_images"`
	Deltas          []string          `json:"deltas"`
}

type dimensionScore struct {
	Dimension     string   `json:"dimension"`
	Score         float64  `json:"score"`
	Weight        float64  `json:"weight"`
	Justification string   `json:"justification"`
	Issues        []string `json:"issues"`
}

// #endregion

// #region parse

// parseResponse decodes the model's reply, stripping markdown code fences
// when present. Anything that is not valid JSON is an error.
func parseResponse(text string) (criticResponse, error) {
	stripped := stripFences(strings.TrimSpace(text))

	var parsed criticResponse
	if err := json.Unmarshal([]byte(stripped), &parsed); err != nil {
		return criticResponse{}, fmt.Errorf("response is not valid JSON: %w", err)
	}
	if len(parsed.DimensionScores) == 0 {
		return criticResponse{}, fmt.Errorf("response missing dimension_scores")
	}
	return parsed, nil
}

// stripFences extracts content from ```json ... ``` or ``` ... ``` blocks.
func stripFences(text string) string {
	for _, fence := range []string{"```json", "```"} {
		if start := strings.Index(text, fence); start != -1 {
			inner := text[start+len(fence):]
			if end := strings.Index(inner, "```"); end != -1 {
				return strings.TrimSpace(inner[:end])
			}
		}
	}
	return text
}

// #endregion
