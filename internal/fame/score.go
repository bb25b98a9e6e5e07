// Package fame provides fame rating computation for user profiles based on
// like and profile-view signals.
package fame

import (
	"math"
	"time"
)

// Rating bounds. Every stored fame rating lies in [MinRating, MaxRating]:
// the floor keeps new users minimally visible in fame-sorted views, the
// ceiling keeps runaway scores from dominating every ranked list.
const (
	MinRating = 200
	MaxRating = 1000
)

// LikeWeight is the view-equivalent value of a single like.
const LikeWeight = 10

// RecentWindow is the lookback window for the activity bonus. Views inside
// this window can at most double the base score, rewarding currently-active
// users over stale popular ones.
const RecentWindow = 30 * 24 * time.Hour

// Score computes a fame rating from raw behavioral signals.
//
// Formula:
//
//	base  = likes*10 + totalViews
//	bonus = base * (recentViews / totalViews)   when totalViews > 0
//	result = clamp(round(base + bonus), 200, 1000)
//
// recentViews is expected to be a subset of totalViews (recentViews <=
// totalViews); that is an input invariant of the counting queries, not
// enforced here. The function is pure and total over non-negative inputs.
func Score(likes, totalViews, recentViews int) int {
	base := float64(likes*LikeWeight + totalViews)

	var bonus float64
	if totalViews > 0 {
		activityRatio := float64(recentViews) / float64(totalViews)
		bonus = base * activityRatio
	}

	rating := int(math.Round(base + bonus))
	if rating < MinRating {
		return MinRating
	}
	if rating > MaxRating {
		return MaxRating
	}
	return rating
}
