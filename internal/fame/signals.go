package fame

import (
	"context"
	"errors"
	"time"
)

// ErrRatingNotFound is returned when no rating exists for a user.
var ErrRatingNotFound = errors.New("fame rating not found")

// Signals holds the raw behavioral counts a fame rating is derived from.
type Signals struct {
	Likes       int // Likes received
	TotalViews  int // All profile views received
	RecentViews int // Profile views received after the recent-window cutoff
}

// SignalSource provides like and view counts for fame score computation.
type SignalSource interface {
	// ListUserIDs returns the ids of every user subject to fame scoring.
	ListUserIDs(ctx context.Context) ([]string, error)
	// GetSignals returns the behavioral counts for one user. recentSince is
	// the cutoff timestamp for the RecentViews count.
	GetSignals(ctx context.Context, userID string, recentSince time.Time) (Signals, error)
}

// RatingStore persists computed fame ratings.
type RatingStore interface {
	// SaveRating stores a computed rating for a user, bumping the profile's
	// updated_at. Implementations must clamp to [MinRating, MaxRating] at the
	// write site as well, so no store ever holds an out-of-range value.
	SaveRating(ctx context.Context, userID string, rating int) error
	// GetRating retrieves the stored rating for a user.
	// Returns ErrRatingNotFound if the user has no profile.
	GetRating(ctx context.Context, userID string) (int, error)
}

// RatingCache is an optional write-through cache refreshed after each
// persisted rating. Failures are advisory; the store remains authoritative.
type RatingCache interface {
	SetRating(ctx context.Context, userID string, rating int) error
}
