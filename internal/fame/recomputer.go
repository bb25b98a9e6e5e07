package fame

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultConcurrency bounds the number of in-flight per-user recomputations
// during a full sweep. Each unit of work touches a disjoint profile row, so
// the only shared resource is the connection pool.
const DefaultConcurrency = 8

// RecomputerConfig configures a fame rating recomputer.
type RecomputerConfig struct {
	// Logger for recompute activity.
	Logger *slog.Logger
	// Metrics for performance tracking.
	Metrics *Metrics
	// Concurrency is the worker-pool size for RecomputeAll.
	Concurrency int
	// RecentWindow is the lookback window for the activity bonus.
	RecentWindow time.Duration
	// Cache, when set, is refreshed after every persisted rating.
	Cache RatingCache
}

// Recomputer derives fame ratings from stored signals and persists them.
// It never runs on the request path; discovery reads the last persisted
// rating and accepts the staleness bounded by the recompute schedule.
type Recomputer struct {
	config RecomputerConfig
	source SignalSource
	store  RatingStore
}

// Summary reports the outcome of one RecomputeAll pass.
type Summary struct {
	Processed int
	Failed    int
	Duration  time.Duration
}

// NewRecomputer creates a new fame rating recomputer.
func NewRecomputer(config RecomputerConfig, source SignalSource, store RatingStore) *Recomputer {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}
	if config.RecentWindow <= 0 {
		config.RecentWindow = RecentWindow
	}
	return &Recomputer{
		config: config,
		source: source,
		store:  store,
	}
}

// RecomputeOne reads the signal counts for a single user, scores them, and
// persists the result. Idempotent: re-running with unchanged signals yields
// the identical stored rating. Safe to call concurrently for distinct users.
func (r *Recomputer) RecomputeOne(ctx context.Context, userID string) (int, error) {
	recentSince := time.Now().Add(-r.config.RecentWindow)

	signals, err := r.source.GetSignals(ctx, userID, recentSince)
	if err != nil {
		return 0, fmt.Errorf("failed to read signals for user %s: %w", userID, err)
	}

	rating := Score(signals.Likes, signals.TotalViews, signals.RecentViews)

	if err := r.store.SaveRating(ctx, userID, rating); err != nil {
		return 0, fmt.Errorf("failed to save rating for user %s: %w", userID, err)
	}

	if r.config.Cache != nil {
		if err := r.config.Cache.SetRating(ctx, userID, rating); err != nil {
			// Cache refresh is best-effort; the store is authoritative.
			r.config.Logger.Warn("failed to refresh rating cache",
				"user_id", userID,
				"error", err)
		}
	}

	return rating, nil
}

// RecomputeAll recomputes the fame rating of every known user, running
// per-user recomputations concurrently through a bounded worker pool.
// A failure for one user is logged and skipped, never aborting the batch;
// the next scheduled pass is the retry mechanism.
func (r *Recomputer) RecomputeAll(ctx context.Context) (Summary, error) {
	startTime := time.Now()

	userIDs, err := r.source.ListUserIDs(ctx)
	if err != nil {
		if r.config.Metrics != nil {
			r.config.Metrics.IncRecomputeErrors()
		}
		return Summary{}, fmt.Errorf("failed to list users for recompute: %w", err)
	}

	r.config.Logger.Info("recomputing fame ratings", "user_count", len(userIDs))

	var (
		wg     sync.WaitGroup
		sem    = make(chan struct{}, r.config.Concurrency)
		mu     sync.Mutex
		failed int
	)

	for _, userID := range userIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(userID string) {
			defer wg.Done()
			defer func() { <-sem }()

			if _, err := r.RecomputeOne(ctx, userID); err != nil {
				r.config.Logger.Error("failed to recompute fame rating",
					"user_id", userID,
					"error", err)
				if r.config.Metrics != nil {
					r.config.Metrics.IncRecomputeErrors()
				}
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(userID)
	}

	wg.Wait()

	summary := Summary{
		Processed: len(userIDs) - failed,
		Failed:    failed,
		Duration:  time.Since(startTime),
	}

	if r.config.Metrics != nil {
		r.config.Metrics.IncRecomputeTotal()
		r.config.Metrics.ObserveRecomputeDuration(summary.Duration.Seconds())
		r.config.Metrics.SetLastRecomputeTimestamp(float64(time.Now().Unix()))
		r.config.Metrics.SetLastRecomputeUserCount(float64(summary.Processed))
	}

	r.config.Logger.Info("fame recompute completed",
		"duration_seconds", summary.Duration.Seconds(),
		"users_processed", summary.Processed,
		"users_failed", summary.Failed)

	return summary, nil
}
