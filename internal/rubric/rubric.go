package rubric

// #region overall-score

// OverallScore computes the weighted average of dimension scores.
// Returns 0 for an empty or zero-weight set.
func OverallScore(scores []DimensionScore) float64 {
	if len(scores) == 0 {
		return 0
	}

	var totalWeight, weightedSum float64
	for _, s := range scores {
		totalWeight += s.Weight
		weightedSum += s.Score * s.Weight
	}
	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

// #endregion

// #region bounds

// InBounds reports whether every score in the evaluation sits in [0, 10].
// An evaluator returning out-of-range scores is treated as invalid data.
func InBounds(e Evaluation) bool {
	if e.OverallScore < 0 || e.OverallScore > 10 {
		return false
	}
	for _, s := range e.Dimensions {
		if s.Score < 0 || s.Score > 10 {
			return false
		}
	}
	return true
}

// #endregion
