package fame

import (
	"context"
	"sync"
	"time"
)

// InMemorySignalSource is an in-memory implementation of SignalSource for
// testing and development. Thread-safe via RWMutex.
type InMemorySignalSource struct {
	mu      sync.RWMutex
	signals map[string]Signals // userID -> counts
	order   []string
}

// NewInMemorySignalSource creates a new in-memory signal source.
func NewInMemorySignalSource() *InMemorySignalSource {
	return &InMemorySignalSource{
		signals: make(map[string]Signals),
	}
}

// SetSignals records the counts for a user. Recent-window bucketing is the
// caller's concern here; the stored RecentViews is returned as-is.
func (s *InMemorySignalSource) SetSignals(userID string, sig Signals) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.signals[userID]; !exists {
		s.order = append(s.order, userID)
	}
	s.signals[userID] = sig
}

// ListUserIDs returns the ids of every user with recorded signals,
// in insertion order.
func (s *InMemorySignalSource) ListUserIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids, nil
}

// GetSignals returns the behavioral counts for one user.
func (s *InMemorySignalSource) GetSignals(_ context.Context, userID string, _ time.Time) (Signals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signals[userID], nil
}

// InMemoryRatingStore is an in-memory implementation of RatingStore for
// testing and development. Thread-safe via RWMutex.
type InMemoryRatingStore struct {
	mu      sync.RWMutex
	ratings map[string]int
	updated map[string]time.Time
}

// NewInMemoryRatingStore creates a new in-memory rating store.
func NewInMemoryRatingStore() *InMemoryRatingStore {
	return &InMemoryRatingStore{
		ratings: make(map[string]int),
		updated: make(map[string]time.Time),
	}
}

// SaveRating stores a computed rating, clamping to the valid range.
func (s *InMemoryRatingStore) SaveRating(_ context.Context, userID string, rating int) error {
	if rating < MinRating {
		rating = MinRating
	}
	if rating > MaxRating {
		rating = MaxRating
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[userID] = rating
	s.updated[userID] = time.Now()
	return nil
}

// GetRating retrieves the stored rating for a user.
func (s *InMemoryRatingStore) GetRating(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rating, ok := s.ratings[userID]
	if !ok {
		return 0, ErrRatingNotFound
	}
	return rating, nil
}

// UpdatedAt returns when a user's rating was last written, for tests.
func (s *InMemoryRatingStore) UpdatedAt(userID string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.updated[userID]
	return ts, ok
}
