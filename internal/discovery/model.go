// Package discovery selects and orders dating candidates for a
// requesting user. The candidate repository applies the hard exclusion
// rules at the query boundary; the ranker applies compatibility,
// filtering, scoring, and pagination on top.
package discovery

import (
	"errors"
	"fmt"
	"time"

	"github.com/matcha-app/matcha/internal/geo"
	"github.com/matcha-app/matcha/internal/profile"
)

// ErrInvalidCriteria is returned before any storage read when filter
// criteria are malformed. Wrap with detail via fmt.Errorf("%w: ...").
var ErrInvalidCriteria = errors.New("invalid filter criteria")

// Sort keys accepted by Criteria.SortBy.
const (
	SortByDistance   = "distance"
	SortByAge        = "age"
	SortByFameRating = "fame_rating"
	SortByTags       = "tags"
)

// Sort directions accepted by Criteria.SortOrder.
const (
	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)

// Pagination defaults.
const (
	DefaultDiscoveryLimit = 20
	DefaultRandomLimit    = 9
	MaxLimit              = 100
)

// Candidate is one eligible row as the repository returns it: the
// exclusion rules (self, blocked either direction, passed, already
// liked) are already applied, but compatibility and filtering are not.
type Candidate struct {
	ID          string
	Name        string
	Gender      string
	Orientation string
	BirthDate   time.Time
	Location    *geo.Point
	FameRating  int
	Tags        []string
	LastActive  time.Time
}

// Age derives the candidate's age in whole years at the given instant.
func (c *Candidate) Age(now time.Time) int {
	p := profile.Profile{BirthDate: c.BirthDate}
	return p.Age(now)
}

// Criteria are the recognized options of a filtered discovery query.
// Nil pointer fields impose no constraint.
type Criteria struct {
	AgeMin        *int     `json:"age_min,omitempty"`
	AgeMax        *int     `json:"age_max,omitempty"`
	MaxDistanceKm *float64 `json:"max_distance_km,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	MinFameRating *int     `json:"min_fame_rating,omitempty"`
	SortBy        string   `json:"sort_by,omitempty"`
	SortOrder     string   `json:"sort_order,omitempty"`
}

// Validate checks criteria shape without touching storage.
func (c *Criteria) Validate() error {
	if c.AgeMin != nil && *c.AgeMin < 0 {
		return fmt.Errorf("%w: age_min must be non-negative", ErrInvalidCriteria)
	}
	if c.AgeMax != nil && *c.AgeMax < 0 {
		return fmt.Errorf("%w: age_max must be non-negative", ErrInvalidCriteria)
	}
	if c.AgeMin != nil && c.AgeMax != nil && *c.AgeMin > *c.AgeMax {
		return fmt.Errorf("%w: age_min exceeds age_max", ErrInvalidCriteria)
	}
	if c.MaxDistanceKm != nil && *c.MaxDistanceKm < 0 {
		return fmt.Errorf("%w: max_distance_km must be non-negative", ErrInvalidCriteria)
	}
	if c.MinFameRating != nil && *c.MinFameRating < 0 {
		return fmt.Errorf("%w: min_fame_rating must be non-negative", ErrInvalidCriteria)
	}
	switch c.SortBy {
	case "", SortByDistance, SortByAge, SortByFameRating, SortByTags:
	default:
		return fmt.Errorf("%w: unknown sort_by %q", ErrInvalidCriteria, c.SortBy)
	}
	switch c.SortOrder {
	case "", SortOrderAsc, SortOrderDesc:
	default:
		return fmt.Errorf("%w: unknown sort_order %q", ErrInvalidCriteria, c.SortOrder)
	}
	return nil
}

// CandidateSummary is the caller-facing projection of a ranked
// candidate. DistanceKm is nil when either side lacks a location.
type CandidateSummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Age        int       `json:"age"`
	DistanceKm *float64  `json:"distance_km,omitempty"`
	FameRating int       `json:"fame_rating"`
	Tags       []string  `json:"tags"`
	Geohash    string    `json:"geohash,omitempty"`
	LastActive time.Time `json:"last_active"`
	Online     bool      `json:"online"`
}

// Result is one page of candidates plus pagination metadata. Total is
// the number of candidates matching the query before pagination.
type Result struct {
	Candidates []CandidateSummary `json:"candidates"`
	Total      int                `json:"total"`
}

// OnlineWindow is how recently a user must have been active to be shown
// as online.
const OnlineWindow = 5 * time.Minute

// interestedIn reports whether a user with the given orientation and
// gender would be interested in someone of the other gender. An empty
// or unrecognized orientation behaves as bisexual.
func interestedIn(orientation, ownGender, otherGender string) bool {
	switch orientation {
	case profile.OrientationHeterosexual:
		return otherGender != ownGender
	case profile.OrientationHomosexual:
		return otherGender == ownGender
	default:
		return true
	}
}

// Compatible reports bidirectional orientation/gender compatibility:
// the requester is interested in the candidate's gender and the
// candidate's orientation admits the requester's gender.
func Compatible(requester *profile.Profile, candidate *Candidate) bool {
	return interestedIn(requester.Orientation, requester.Gender, candidate.Gender) &&
		interestedIn(candidate.Orientation, candidate.Gender, requester.Gender)
}
