// Package ranking provides centralized ranking component calculations
// with calibration support for discovery and search ordering.
package ranking

// FameFloor and FameCeiling are the bounds of the stored fame rating.
// NormalizeFame maps this range onto [0, 1] for composite scoring.
const (
	FameFloor   = 200
	FameCeiling = 1000
)

// NormalizeFame maps a stored fame rating onto [0, 1].
// Ratings below the floor or above the ceiling are clamped first, so a
// malformed stored value never pushes the composite score out of range.
func NormalizeFame(rating int) float64 {
	if rating < FameFloor {
		rating = FameFloor
	}
	if rating > FameCeiling {
		rating = FameCeiling
	}
	return float64(rating-FameFloor) / float64(FameCeiling-FameFloor)
}

// TagAffinityWeight converts a shared-tag count into a score in [0, 1).
// Uses a diminishing-returns curve so a candidate sharing ten tags does not
// drown out fame entirely.
//
// Formula: shared / (shared + 2) - gives 0.0 at 0 shared tags, 0.33 at 1,
// 0.5 at 2, 0.71 at 5, approaching 1.0 asymptotically.
func TagAffinityWeight(shared int) float64 {
	if shared <= 0 {
		return 0.0
	}
	s := float64(shared)
	return s / (s + 2.0)
}

// CandidateParams holds the component scores for a candidate composite score.
type CandidateParams struct {
	Fame        float64 // Normalized fame rating [0, 1]
	TagAffinity float64 // Shared-tag affinity [0, 1]
}

// CompositeScore computes the final composite ranking score for a candidate.
// Uses the calibrated weights to blend normalized fame and tag affinity.
//
// Default formula: composite_score = (fame * 0.6) + (tag_affinity * 0.4)
//
// Parameters:
//   - params: The component scores
//   - weights: The calibrated weight configuration (optional, uses default if nil)
//
// Returns the composite score in [0, Fame+TagAffinity weight sum] range.
func CompositeScore(params CandidateParams, weights *Weights) float64 {
	if weights == nil {
		weights = DefaultWeights()
	}

	return (params.Fame * weights.Fame) +
		(params.TagAffinity * weights.TagAffinity)
}
