package profile

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository defines the read/write surface for profiles, locations, and
// tags that the discovery engine relies on.
type Repository interface {
	// GetProfile retrieves a user's profile.
	// Returns ErrProfileNotFound if the user has no profile.
	GetProfile(ctx context.Context, userID string) (*Profile, error)

	// GetLocation retrieves a user's location.
	// Returns (nil, nil) when the user has no location; absence is a normal
	// state, not an error.
	GetLocation(ctx context.Context, userID string) (*Location, error)

	// UpsertLocation stores a user's location, overwriting any existing row
	// for the same user in place.
	UpsertLocation(ctx context.Context, loc *Location) error

	// EnsureTag returns the tag with the given name, creating it if absent.
	// Tag names are matched case-insensitively and stored lowercased.
	EnsureTag(ctx context.Context, name string) (*Tag, error)

	// AddUserTag attaches a tag to a user. Idempotent.
	AddUserTag(ctx context.Context, userID, tagID string) error

	// RemoveUserTag detaches a tag from a user. Removing an absent pair is
	// not an error.
	RemoveUserTag(ctx context.Context, userID, tagID string) error

	// ListUserTags returns the tag names attached to a user, sorted.
	ListUserTags(ctx context.Context, userID string) ([]string, error)
}

// InMemoryRepository is an in-memory implementation of Repository.
// Used for testing and development. Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu        sync.RWMutex
	profiles  map[string]*Profile
	locations map[string]*Location
	tags      map[string]*Tag            // tagID -> tag
	tagByName map[string]string          // lowercased name -> tagID
	userTags  map[string]map[string]bool // userID -> set of tagIDs
}

// NewInMemoryRepository creates a new in-memory profile repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		profiles:  make(map[string]*Profile),
		locations: make(map[string]*Location),
		tags:      make(map[string]*Tag),
		tagByName: make(map[string]string),
		userTags:  make(map[string]map[string]bool),
	}
}

// PutProfile stores a profile, for seeding tests and development data.
func (r *InMemoryRepository) PutProfile(p *Profile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profileCopy := *p
	r.profiles[p.UserID] = &profileCopy
}

// GetProfile retrieves a user's profile.
func (r *InMemoryRepository) GetProfile(_ context.Context, userID string) (*Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, ErrProfileNotFound
	}
	profileCopy := *p
	return &profileCopy, nil
}

// GetLocation retrieves a user's location, nil when absent.
func (r *InMemoryRepository) GetLocation(_ context.Context, userID string) (*Location, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	loc, ok := r.locations[userID]
	if !ok {
		return nil, nil
	}
	locCopy := *loc
	return &locCopy, nil
}

// UpsertLocation stores a user's location, overwriting in place.
func (r *InMemoryRepository) UpsertLocation(_ context.Context, loc *Location) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	locCopy := *loc
	locCopy.UpdatedAt = time.Now()
	r.locations[loc.UserID] = &locCopy
	return nil
}

// EnsureTag returns the named tag, creating it if absent.
func (r *InMemoryRepository) EnsureTag(_ context.Context, name string) (*Tag, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.tagByName[normalized]; ok {
		tagCopy := *r.tags[id]
		return &tagCopy, nil
	}

	tag := &Tag{ID: uuid.New().String(), Name: normalized}
	r.tags[tag.ID] = tag
	r.tagByName[normalized] = tag.ID
	tagCopy := *tag
	return &tagCopy, nil
}

// AddUserTag attaches a tag to a user.
func (r *InMemoryRepository) AddUserTag(_ context.Context, userID, tagID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.userTags[userID] == nil {
		r.userTags[userID] = make(map[string]bool)
	}
	r.userTags[userID][tagID] = true
	return nil
}

// RemoveUserTag detaches a tag from a user.
func (r *InMemoryRepository) RemoveUserTag(_ context.Context, userID, tagID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.userTags[userID], tagID)
	return nil
}

// ListUserTags returns the tag names attached to a user, sorted.
func (r *InMemoryRepository) ListUserTags(_ context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.userTags[userID]))
	for tagID := range r.userTags[userID] {
		if tag, ok := r.tags[tagID]; ok {
			names = append(names, tag.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}
