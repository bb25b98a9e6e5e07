// Package relation tracks the directed edges between users: likes,
// passes, blocks, and profile views. A mutual match is derived from two
// opposing likes and is never stored as its own record.
package relation

import (
	"errors"
	"time"
)

var (
	// ErrSelfRelation is returned when a user attempts to create an
	// edge pointing at themselves.
	ErrSelfRelation = errors.New("relation: cannot relate a user to themselves")
)

// Like is a directed interest edge from Actor to Target.
type Like struct {
	ActorID   string    `json:"actor_id"`
	TargetID  string    `json:"target_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Pass records that Actor dismissed Target from discovery.
type Pass struct {
	ActorID   string    `json:"actor_id"`
	TargetID  string    `json:"target_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Block records that Actor blocked Target. Blocks suppress both users
// from each other's discovery results regardless of direction.
type Block struct {
	ActorID   string    `json:"actor_id"`
	TargetID  string    `json:"target_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ProfileView records a single visit of Viewer to Target's profile.
// Views accumulate; each visit is its own row.
type ProfileView struct {
	ViewerID string    `json:"viewer_id"`
	TargetID string    `json:"target_id"`
	ViewedAt time.Time `json:"viewed_at"`
}
