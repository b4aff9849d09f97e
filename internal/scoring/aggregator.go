// Package scoring computes AI lead scores from weighted factors.
// ComputeScore is a pure function: no I/O, no clock, safe for concurrent
// use from any number of callers.
package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/dynamicaqs/crm-engine/internal/types"
)

// ErrInvalidInput marks malformed factor sets: empty input, negative
// weights, a zero weight sum, or scores outside [0,100].
var ErrInvalidInput = errors.New("invalid scoring input")

// varianceThreshold is the maximum factor-score variance for a "high"
// confidence label. Corresponds to a standard deviation just under 19
// points on the 0–100 scale.
const varianceThreshold = 350.0

// ComputeScore combines weighted factors into an AILeadScore.
//
// Weights are normalized to sum to 1 before combination, so callers may
// pass raw weights. The overall score is the rounded weighted sum of
// factor scores, clamped to [0,100]. Sub-scores are the weighted means of
// the factors in each dimension (see DimensionOf); a dimension with no
// factors inherits the overall score. Deterministic given identical input
// ordering and values; LeadID and UpdatedAt are left for the caller.
func ComputeScore(factors []types.ScoreFactor) (types.AILeadScore, error) {
	if len(factors) == 0 {
		return types.AILeadScore{}, fmt.Errorf("%w: no factors", ErrInvalidInput)
	}

	var weightSum float64
	for _, f := range factors {
		if f.Weight < 0 {
			return types.AILeadScore{}, fmt.Errorf("%w: factor %q has negative weight %v", ErrInvalidInput, f.Name, f.Weight)
		}
		if f.Score < 0 || f.Score > 100 {
			return types.AILeadScore{}, fmt.Errorf("%w: factor %q score %v outside [0,100]", ErrInvalidInput, f.Name, f.Score)
		}
		weightSum += f.Weight
	}
	if weightSum == 0 {
		return types.AILeadScore{}, fmt.Errorf("%w: factor weights sum to zero", ErrInvalidInput)
	}

	// Weighted sum with normalized weights.
	var overall float64
	dimWeighted := make(map[Dimension]float64)
	dimWeights := make(map[Dimension]float64)
	for _, f := range factors {
		w := f.Weight / weightSum
		overall += w * f.Score

		d := DimensionOf(f.Name)
		dimWeighted[d] += w * f.Score
		dimWeights[d] += w
	}

	overallScore := clampScore(int(math.Round(overall)))

	subScore := func(d Dimension) int {
		if dimWeights[d] == 0 {
			return overallScore
		}
		return clampScore(int(math.Round(dimWeighted[d] / dimWeights[d])))
	}

	return types.AILeadScore{
		OverallScore:          overallScore,
		EngagementScore:       subScore(DimensionEngagement),
		BehaviorScore:         subScore(DimensionBehavior),
		DemographicScore:      subScore(DimensionDemographic),
		ConversionProbability: calibrate(overallScore),
		Confidence:            confidence(factors),
		Factors:               factors,
	}, nil
}

// confidence labels the score's reliability from input volume and
// consistency: "high" needs at least 5 factors with low score variance,
// "medium" at least 3 factors, anything less is "low".
func confidence(factors []types.ScoreFactor) types.Confidence {
	if len(factors) >= 5 && scoreVariance(factors) < varianceThreshold {
		return types.ConfidenceHigh
	}
	if len(factors) >= 3 {
		return types.ConfidenceMedium
	}
	return types.ConfidenceLow
}

// scoreVariance is the population variance of the raw factor scores.
func scoreVariance(factors []types.ScoreFactor) float64 {
	var mean float64
	for _, f := range factors {
		mean += f.Score
	}
	mean /= float64(len(factors))

	var sum float64
	for _, f := range factors {
		d := f.Score - mean
		sum += d * d
	}
	return sum / float64(len(factors))
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
