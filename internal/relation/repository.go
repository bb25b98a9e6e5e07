package relation

import (
	"context"
	"sync"
	"time"
)

// Repository persists the directed edges between users.
//
// Like, Pass, and Block are idempotent upserts: repeating an edge that
// already exists is a no-op. Their inverses delete the edge and succeed
// even when no edge existed.
type Repository interface {
	// Like records actor's interest in target. It reports whether the
	// like completed a mutual match, i.e. target already likes actor.
	Like(ctx context.Context, actorID, targetID string) (mutual bool, err error)
	// Unlike removes actor's like of target, dissolving any match.
	Unlike(ctx context.Context, actorID, targetID string) error

	// Pass dismisses target from actor's discovery results.
	Pass(ctx context.Context, actorID, targetID string) error
	// Unpass lets target reappear in actor's discovery results.
	Unpass(ctx context.Context, actorID, targetID string) error

	// Block hides both users from each other's discovery results.
	Block(ctx context.Context, actorID, targetID string) error
	// Unblock removes actor's block of target. A block held by target
	// against actor is unaffected.
	Unblock(ctx context.Context, actorID, targetID string) error

	// RecordView appends a profile view. Every visit is recorded.
	RecordView(ctx context.Context, viewerID, targetID string) error

	// IsMutualLike reports whether both users like each other.
	IsMutualLike(ctx context.Context, userA, userB string) (bool, error)
	// HasLiked reports whether actor currently likes target.
	HasLiked(ctx context.Context, actorID, targetID string) (bool, error)

	// CountLikesReceived returns the number of distinct users who
	// currently like the given user.
	CountLikesReceived(ctx context.Context, userID string) (int, error)
	// CountViews returns the total number of profile views the user
	// has received.
	CountViews(ctx context.Context, userID string) (int, error)
	// CountRecentViews returns the number of views received at or
	// after the given instant.
	CountRecentViews(ctx context.Context, userID string, since time.Time) (int, error)
}

type edge struct {
	actor  string
	target string
}

// InMemoryRepository is a mutex-guarded Repository for tests and local
// development.
type InMemoryRepository struct {
	mu     sync.RWMutex
	likes  map[edge]time.Time
	passes map[edge]time.Time
	blocks map[edge]time.Time
	views  []ProfileView
	now    func() time.Time
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		likes:  make(map[edge]time.Time),
		passes: make(map[edge]time.Time),
		blocks: make(map[edge]time.Time),
		now:    time.Now,
	}
}

// SetClock overrides the repository clock. Test helper.
func (r *InMemoryRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *InMemoryRepository) Like(_ context.Context, actorID, targetID string) (bool, error) {
	if actorID == targetID {
		return false, ErrSelfRelation
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e := edge{actorID, targetID}
	if _, ok := r.likes[e]; !ok {
		r.likes[e] = r.now()
	}
	_, mutual := r.likes[edge{targetID, actorID}]
	return mutual, nil
}

func (r *InMemoryRepository) Unlike(_ context.Context, actorID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.likes, edge{actorID, targetID})
	return nil
}

func (r *InMemoryRepository) Pass(_ context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return ErrSelfRelation
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e := edge{actorID, targetID}
	if _, ok := r.passes[e]; !ok {
		r.passes[e] = r.now()
	}
	return nil
}

func (r *InMemoryRepository) Unpass(_ context.Context, actorID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.passes, edge{actorID, targetID})
	return nil
}

func (r *InMemoryRepository) Block(_ context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return ErrSelfRelation
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e := edge{actorID, targetID}
	if _, ok := r.blocks[e]; !ok {
		r.blocks[e] = r.now()
	}
	return nil
}

func (r *InMemoryRepository) Unblock(_ context.Context, actorID, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.blocks, edge{actorID, targetID})
	return nil
}

func (r *InMemoryRepository) RecordView(_ context.Context, viewerID, targetID string) error {
	if viewerID == targetID {
		return ErrSelfRelation
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, ProfileView{
		ViewerID: viewerID,
		TargetID: targetID,
		ViewedAt: r.now(),
	})
	return nil
}

func (r *InMemoryRepository) IsMutualLike(_ context.Context, userA, userB string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ab := r.likes[edge{userA, userB}]
	_, ba := r.likes[edge{userB, userA}]
	return ab && ba, nil
}

func (r *InMemoryRepository) HasLiked(_ context.Context, actorID, targetID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.likes[edge{actorID, targetID}]
	return ok, nil
}

func (r *InMemoryRepository) HasPassed(_ context.Context, actorID, targetID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.passes[edge{actorID, targetID}]
	return ok, nil
}

// IsBlockedEither reports whether either user blocks the other.
func (r *InMemoryRepository) IsBlockedEither(_ context.Context, userA, userB string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ab := r.blocks[edge{userA, userB}]
	_, ba := r.blocks[edge{userB, userA}]
	return ab || ba, nil
}

func (r *InMemoryRepository) CountLikesReceived(_ context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for e := range r.likes {
		if e.target == userID {
			n++
		}
	}
	return n, nil
}

func (r *InMemoryRepository) CountViews(_ context.Context, userID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, v := range r.views {
		if v.TargetID == userID {
			n++
		}
	}
	return n, nil
}

func (r *InMemoryRepository) CountRecentViews(_ context.Context, userID string, since time.Time) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, v := range r.views {
		if v.TargetID == userID && !v.ViewedAt.Before(since) {
			n++
		}
	}
	return n, nil
}
