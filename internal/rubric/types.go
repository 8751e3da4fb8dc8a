package rubric

// #region dimensions

// Canonical dimension names. Every evaluation scores all four.
const (
	DimBrandConsistency = "brand_consistency"
	DimTechnicalQuality = "technical_quality"
	DimEtsyCompliance   = "etsy_compliance"
	DimVisualAppeal     = "visual_appeal"
)

// DimensionSpec describes one rubric dimension.
type DimensionSpec struct {
	Weight      float64
	Description string
}

// Dimensions is the fixed scoring rubric. Weights sum to 1.0.
var Dimensions = map[string]DimensionSpec{
	DimBrandConsistency: {
		Weight:      0.30,
		Description: "Colors match brand palette, texture and feel reflect tokens, composition follows guidelines",
	},
	DimTechnicalQuality: {
		Weight:      0.25,
		Description: "Overlay resolution matches target, no compression artifacts, clarity and sharpness",
	},
	DimEtsyCompliance: {
		Weight:      0.20,
		Description: "Listing images >=2000px, first image landscape or square, file formats correct, ZIPs under 20MB",
	},
	DimVisualAppeal: {
		Weight:      0.25,
		Description: "Professional finish, clear focal point, appropriate margins for overlays",
	},
}

// DimensionOrder is the canonical reporting order.
var DimensionOrder = []string{
	DimBrandConsistency,
	DimTechnicalQuality,
	DimEtsyCompliance,
	DimVisualAppeal,
}

// #endregion

// #region dimension-score

// DimensionScore is a single per-dimension result with supporting rationale.
type DimensionScore struct {
	Dimension string   `json:"dimension"`
	Score     float64  `json:"score"`  // 0-10
	Weight    float64  `json:"weight"` // 0-1
	Rationale string   `json:"rationale"`
	Issues    []string `json:"issues,omitempty"`
}

// #endregion

// #region evaluation

// Evaluation is the complete critic output for one round of a pack.
type Evaluation struct {
	PackName       string            `json:"pack_name"`
	OverallScore   float64           `json:"overall_score"` // 0-10 weighted average
	Dimensions     []DimensionScore  `json:"dimension_scores"`
	CriticalIssues []string          `json:"critical_issues"`
	Selected       map[string]string `json:"selected_assets"` // category -> asset id
	Deltas         []string          `json:"deltas"`          // improvement directives for next round
	ChecksPassed   bool              `json:"automated_checks_passed"`
	Synthetic      bool              `json:"synthetic"` // true when produced by a non-authoritative evaluator
}

// PassesThreshold reports whether the evaluation clears the quality bar.
// Critical issues block acceptance regardless of score.
func (e Evaluation) PassesThreshold(threshold float64) bool {
	return e.OverallScore >= threshold && len(e.CriticalIssues) == 0
}

// #endregion
