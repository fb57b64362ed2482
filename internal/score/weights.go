package score

import (
	"errors"
	"fmt"
	"math"

	"github.com/ppiankov/truthcore/internal/model"
)

var (
	// ErrZeroWeights means the weight vector cannot be normalized
	ErrZeroWeights = errors.New("weights sum to zero")

	// ErrInvalidWeight means a weight is negative, NaN or infinite
	ErrInvalidWeight = errors.New("weight must be a finite non-negative number")
)

// NormalizeWeights scales the weights so they sum to 1 (L1 normalization)
func NormalizeWeights(w model.Weights) (model.Weights, error) {
	values := []float64{w.Lineage, w.Consistency, w.Reliability, w.Manipulation}

	sum := 0.0
	for _, v := range values {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return model.Weights{}, fmt.Errorf("%w: %v", ErrInvalidWeight, v)
		}
		sum += v
	}
	if sum == 0 {
		return model.Weights{}, ErrZeroWeights
	}

	return model.Weights{
		Lineage:      w.Lineage / sum,
		Consistency:  w.Consistency / sum,
		Reliability:  w.Reliability / sum,
		Manipulation: w.Manipulation / sum,
	}, nil
}

// Combine returns the weighted confidence percentage rounded to two decimals.
// Sub-scores are clamped to [0,1] and weights normalized before use.
func Combine(sub model.SubScores, w model.Weights) (float64, error) {
	normalized, err := NormalizeWeights(w)
	if err != nil {
		return 0, err
	}
	sub = ClampSubScores(sub)

	dot := sub.Lineage*normalized.Lineage +
		sub.Consistency*normalized.Consistency +
		sub.Reliability*normalized.Reliability +
		sub.Manipulation*normalized.Manipulation

	return roundTo2(math.Min(math.Max(dot*100, 0), 100)), nil
}

// ClampSubScores forces every sub-score into [0,1]. NaN becomes neutral.
func ClampSubScores(sub model.SubScores) model.SubScores {
	return model.SubScores{
		Lineage:      clamp01(sub.Lineage),
		Consistency:  clamp01(sub.Consistency),
		Reliability:  clamp01(sub.Reliability),
		Manipulation: clamp01(sub.Manipulation),
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return NeutralScore
	}
	return math.Min(math.Max(v, 0), 1)
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
