package fame

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresSignalSource reads fame signals from the likes and profile_views
// tables.
type PostgresSignalSource struct {
	db *sql.DB
}

// NewPostgresSignalSource creates a new Postgres-backed signal source.
func NewPostgresSignalSource(db *sql.DB) *PostgresSignalSource {
	return &PostgresSignalSource{db: db}
}

// ListUserIDs returns every user id, in creation order for stable sweeps.
func (s *PostgresSignalSource) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user ids: %w", err)
	}
	return ids, nil
}

// GetSignals returns the like and view counts for one user in a single
// round trip.
func (s *PostgresSignalSource) GetSignals(ctx context.Context, userID string, recentSince time.Time) (Signals, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM likes WHERE target_id = $1),
			(SELECT COUNT(*) FROM profile_views WHERE target_id = $1),
			(SELECT COUNT(*) FROM profile_views WHERE target_id = $1 AND viewed_at >= $2)
	`

	var sig Signals
	err := s.db.QueryRowContext(ctx, query, userID, recentSince).
		Scan(&sig.Likes, &sig.TotalViews, &sig.RecentViews)
	if err != nil {
		return Signals{}, fmt.Errorf("failed to count signals: %w", err)
	}
	return sig, nil
}

// PostgresRatingStore persists fame ratings onto the profiles table.
type PostgresRatingStore struct {
	db *sql.DB
}

// NewPostgresRatingStore creates a new Postgres-backed rating store.
func NewPostgresRatingStore(db *sql.DB) *PostgresRatingStore {
	return &PostgresRatingStore{db: db}
}

// SaveRating writes the rating onto the user's profile row, clamping both
// bounds at the write site and bumping updated_at.
func (s *PostgresRatingStore) SaveRating(ctx context.Context, userID string, rating int) error {
	const query = `
		UPDATE profiles
		SET fame_rating = LEAST($2, GREATEST($3, $4)),
		    updated_at = NOW()
		WHERE user_id = $1
	`

	result, err := s.db.ExecContext(ctx, query, userID, MaxRating, MinRating, rating)
	if err != nil {
		return fmt.Errorf("failed to update fame rating: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return ErrRatingNotFound
	}
	return nil
}

// GetRating retrieves the stored fame rating for a user.
func (s *PostgresRatingStore) GetRating(ctx context.Context, userID string) (int, error) {
	var rating int
	err := s.db.QueryRowContext(ctx,
		`SELECT fame_rating FROM profiles WHERE user_id = $1`, userID).Scan(&rating)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrRatingNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read fame rating: %w", err)
	}
	return rating, nil
}
