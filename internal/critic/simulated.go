package critic

// #region imports
import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/danielpatrickdp/pack-qa/internal/config"
	"github.com/danielpatrickdp/pack-qa/internal/loop"
	"github.com/danielpatrickdp/pack-qa/internal/rubric"
)

// #endregion

// #region simulated

// syntheticTag prefixes every rationale produced without a real assessment,
// so simulated rounds are never mistaken for authoritative ones.
const syntheticTag = "[SIMULATED] "

// Simulated is the offline evaluator for dry runs and tests. It respects
// the same score bounds and selection contract as the real critic, so the
// loop's control logic runs identically in both modes.
type Simulated struct {
	packDir string
	res     config.Resolution

	// BaseScores overrides the per-dimension defaults when non-nil.
	BaseScores map[string]float64
}

// NewSimulated creates a simulated critic. packDir may be empty, in which
// case automated file checks are skipped.
func NewSimulated(packDir string, cfg *config.PackConfig) *Simulated {
	s := &Simulated{}
	if cfg != nil {
		s.res = cfg.Resolution
	}
	s.packDir = packDir
	return s
}

// Authoritative is always false: simulated assessments carry no authority.
func (s *Simulated) Authoritative() bool { return false }

// #endregion

// #region evaluate

// Evaluate produces a synthetic assessment: mid-range fixed sub-scores,
// first variant selected per category, and placeholder deltas.
func (s *Simulated) Evaluate(_ context.Context, batch loop.Batch) (rubric.Evaluation, error) {
	autoScore := 7.0
	var autoIssues, critical []string
	checksPassed := true

	if s.packDir != "" {
		autoScore, autoIssues = rubric.AutomatedScore(s.packDir, s.res)
		critical = rubric.CheckCriticalIssues(s.packDir, s.res)
		checksPassed = len(autoIssues) == 0
	}

	selected := make(map[string]string, len(batch.Assets))
	for cat, assets := range batch.Assets {
		if len(assets) == 0 {
			continue
		}
		ids := make([]string, len(assets))
		for i, a := range assets {
			ids[i] = a.ID
		}
		sort.Strings(ids)
		selected[cat] = ids[0]
	}

	dims := []rubric.DimensionScore{
		{
			Dimension: rubric.DimBrandConsistency,
			Score:     s.score(rubric.DimBrandConsistency, 7.5),
			Weight:    rubric.Dimensions[rubric.DimBrandConsistency].Weight,
			Rationale: syntheticTag + "brand consistency not assessed",
		},
		{
			Dimension: rubric.DimTechnicalQuality,
			Score:     s.score(rubric.DimTechnicalQuality, autoScore*0.7+7.0*0.3),
			Weight:    rubric.Dimensions[rubric.DimTechnicalQuality].Weight,
			Rationale: fmt.Sprintf("%sautomated checks score: %.1f/10", syntheticTag, autoScore),
			Issues:    autoIssues,
		},
		{
			Dimension: rubric.DimEtsyCompliance,
			Score:     s.score(rubric.DimEtsyCompliance, 9.0),
			Weight:    rubric.Dimensions[rubric.DimEtsyCompliance].Weight,
			Rationale: syntheticTag + "compliance not assessed",
		},
		{
			Dimension: rubric.DimVisualAppeal,
			Score:     s.score(rubric.DimVisualAppeal, 7.0),
			Weight:    rubric.Dimensions[rubric.DimVisualAppeal].Weight,
			Rationale: syntheticTag + "visual appeal not assessed",
		},
	}

	ev := rubric.Evaluation{
		PackName:       batch.Pack,
		OverallScore:   rubric.OverallScore(dims),
		Dimensions:     dims,
		CriticalIssues: critical,
		Selected:       selected,
		Deltas: []string{
			syntheticTag + "this is a simulated evaluation",
			syntheticTag + "run without dry-run for a real assessment",
		},
		ChecksPassed: checksPassed,
		Synthetic:    true,
	}

	log.Printf("[CRITIC] %s: simulated evaluation score=%.1f", batch.Pack, ev.OverallScore)
	return ev, nil
}

func (s *Simulated) score(dim string, fallback float64) float64 {
	if s.BaseScores != nil {
		if v, ok := s.BaseScores[dim]; ok {
			return v
		}
	}
	return fallback
}

// #endregion
