package relation

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresRepository is the production Repository backed by Postgres.
// Edge writes rely on ON CONFLICT DO NOTHING so repeats are no-ops.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Like(ctx context.Context, actorID, targetID string) (bool, error) {
	if actorID == targetID {
		return false, ErrSelfRelation
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin like tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO likes (actor_id, target_id)
		VALUES ($1, $2)
		ON CONFLICT (actor_id, target_id) DO NOTHING`,
		actorID, targetID,
	); err != nil {
		return false, fmt.Errorf("insert like: %w", err)
	}

	var mutual bool
	if err := tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM likes WHERE actor_id = $1 AND target_id = $2
		)`,
		targetID, actorID,
	).Scan(&mutual); err != nil {
		return false, fmt.Errorf("check mutual like: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit like tx: %w", err)
	}
	return mutual, nil
}

func (r *PostgresRepository) Unlike(ctx context.Context, actorID, targetID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM likes WHERE actor_id = $1 AND target_id = $2`,
		actorID, targetID,
	)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Pass(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return ErrSelfRelation
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO passes (actor_id, target_id)
		VALUES ($1, $2)
		ON CONFLICT (actor_id, target_id) DO NOTHING`,
		actorID, targetID,
	)
	if err != nil {
		return fmt.Errorf("insert pass: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Unpass(ctx context.Context, actorID, targetID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM passes WHERE actor_id = $1 AND target_id = $2`,
		actorID, targetID,
	)
	if err != nil {
		return fmt.Errorf("delete pass: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Block(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return ErrSelfRelation
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO blocks (actor_id, target_id)
		VALUES ($1, $2)
		ON CONFLICT (actor_id, target_id) DO NOTHING`,
		actorID, targetID,
	)
	if err != nil {
		return fmt.Errorf("insert block: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Unblock(ctx context.Context, actorID, targetID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM blocks WHERE actor_id = $1 AND target_id = $2`,
		actorID, targetID,
	)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return nil
}

func (r *PostgresRepository) RecordView(ctx context.Context, viewerID, targetID string) error {
	if viewerID == targetID {
		return ErrSelfRelation
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profile_views (viewer_id, target_id) VALUES ($1, $2)`,
		viewerID, targetID,
	)
	if err != nil {
		return fmt.Errorf("insert profile view: %w", err)
	}
	return nil
}

func (r *PostgresRepository) IsMutualLike(ctx context.Context, userA, userB string) (bool, error) {
	var mutual bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM likes a
			JOIN likes b ON b.actor_id = a.target_id AND b.target_id = a.actor_id
			WHERE a.actor_id = $1 AND a.target_id = $2
		)`,
		userA, userB,
	).Scan(&mutual)
	if err != nil {
		return false, fmt.Errorf("query mutual like: %w", err)
	}
	return mutual, nil
}

func (r *PostgresRepository) HasLiked(ctx context.Context, actorID, targetID string) (bool, error) {
	var liked bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM likes WHERE actor_id = $1 AND target_id = $2)`,
		actorID, targetID,
	).Scan(&liked)
	if err != nil {
		return false, fmt.Errorf("query like: %w", err)
	}
	return liked, nil
}

func (r *PostgresRepository) CountLikesReceived(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM likes WHERE target_id = $1`,
		userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count likes received: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) CountViews(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM profile_views WHERE target_id = $1`,
		userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count views: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) CountRecentViews(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM profile_views WHERE target_id = $1 AND viewed_at >= $2`,
		userID, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count recent views: %w", err)
	}
	return n, nil
}
