package discovery

import (
	"context"
	"sort"
	"sync"

	"github.com/matcha-app/matcha/internal/geo"
)

// CandidateRepository returns the rows a requester is allowed to see.
// The exclusion rules live in the query itself, never as a post-filter:
// the requester's own row, anyone blocked in either direction, anyone
// the requester has passed, and anyone the requester already likes must
// never be returned.
type CandidateRepository interface {
	ListVisibleCandidates(ctx context.Context, requesterID string) ([]Candidate, error)
}

// EdgeChecker is the slice of the relation repository the in-memory
// candidate repository needs to apply exclusions.
type EdgeChecker interface {
	HasLiked(ctx context.Context, actorID, targetID string) (bool, error)
	HasPassed(ctx context.Context, actorID, targetID string) (bool, error)
	IsBlockedEither(ctx context.Context, userA, userB string) (bool, error)
}

// InMemoryCandidateRepository backs tests and local development. It
// holds candidate rows directly and consults an EdgeChecker for the
// exclusion rules, mirroring how the Postgres query joins edge tables.
type InMemoryCandidateRepository struct {
	mu         sync.RWMutex
	candidates map[string]Candidate
	edges      EdgeChecker
}

func NewInMemoryCandidateRepository(edges EdgeChecker) *InMemoryCandidateRepository {
	return &InMemoryCandidateRepository{
		candidates: make(map[string]Candidate),
		edges:      edges,
	}
}

// Put stores or replaces a candidate row. Test seeder.
func (r *InMemoryCandidateRepository) Put(c Candidate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.Location != nil {
		loc := *c.Location
		c.Location = &loc
	}
	c.Tags = append([]string(nil), c.Tags...)
	r.candidates[c.ID] = c
}

func (r *InMemoryCandidateRepository) ListVisibleCandidates(ctx context.Context, requesterID string) ([]Candidate, error) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.candidates))
	for id := range r.candidates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	rows := make([]Candidate, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, r.candidates[id])
	}
	r.mu.RUnlock()

	out := make([]Candidate, 0, len(rows))
	for _, c := range rows {
		if c.ID == requesterID {
			continue
		}
		if blocked, err := r.edges.IsBlockedEither(ctx, requesterID, c.ID); err != nil {
			return nil, err
		} else if blocked {
			continue
		}
		if passed, err := r.edges.HasPassed(ctx, requesterID, c.ID); err != nil {
			return nil, err
		} else if passed {
			continue
		}
		if liked, err := r.edges.HasLiked(ctx, requesterID, c.ID); err != nil {
			return nil, err
		} else if liked {
			continue
		}
		out = append(out, copyCandidate(c))
	}
	return out, nil
}

func copyCandidate(c Candidate) Candidate {
	if c.Location != nil {
		loc := geo.Point{Lat: c.Location.Lat, Lng: c.Location.Lng}
		c.Location = &loc
	}
	c.Tags = append([]string(nil), c.Tags...)
	return c
}
