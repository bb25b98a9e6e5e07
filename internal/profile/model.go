// Package profile provides models and repositories for users, profiles,
// locations, and interest tags.
package profile

import (
	"errors"
	"time"

	"github.com/matcha-app/matcha/internal/geo"
)

// Common errors for profile operations.
var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrUserNotFound    = errors.New("user not found")
)

// Location provenance values.
const (
	LocationSourceGPS    = "gps"
	LocationSourceIP     = "ip"
	LocationSourceManual = "manual"
)

// Gender values.
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Orientation values. An empty or unrecognized orientation is treated as
// bisexual by matching code.
const (
	OrientationHeterosexual = "heterosexual"
	OrientationHomosexual   = "homosexual"
	OrientationBisexual     = "bisexual"
)

// User is the identity anchor. It owns exactly one Profile, zero-or-many
// photos (managed elsewhere), and zero-or-one Location.
type User struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile holds the dating-relevant attributes of a user.
// FameRating is exclusively written by the fame recomputer; everything else
// is owned by the profile-editing surfaces.
type Profile struct {
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Bio         string    `json:"bio,omitempty"`
	Gender      string    `json:"gender"`
	Orientation string    `json:"orientation"`
	BirthDate   time.Time `json:"birth_date"`
	FameRating  int       `json:"fame_rating"`
	LastActive  time.Time `json:"last_active"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Age derives the profile's age in whole years at the given instant.
func (p *Profile) Age(now time.Time) int {
	years := now.Year() - p.BirthDate.Year()
	// Subtract one if the birthday hasn't occurred yet this year.
	anniversary := p.BirthDate.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

// Location is a user's single known position. Creating a second location for
// the same user overwrites the first in place (upsert by user id). Absence
// means the user is excluded from any distance-filtered query.
type Location struct {
	UserID    string    `json:"user_id"`
	Point     geo.Point `json:"point"`
	Source    string    `json:"source"` // gps, ip, or manual
	City      string    `json:"city,omitempty"`
	Country   string    `json:"country,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tag is a named interest, globally unique by name. Tags are never deleted
// while referenced.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
