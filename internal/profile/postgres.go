package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/matcha-app/matcha/internal/geo"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new Postgres-backed profile repository.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetProfile retrieves a user's profile.
func (r *PostgresRepository) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	const query = `
		SELECT user_id, name, bio, gender, orientation, birth_date,
		       fame_rating, last_active, updated_at
		FROM profiles
		WHERE user_id = $1
	`

	var p Profile
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.Name, &p.Bio, &p.Gender, &p.Orientation, &p.BirthDate,
		&p.FameRating, &p.LastActive, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	return &p, nil
}

// GetLocation retrieves a user's location, nil when absent.
func (r *PostgresRepository) GetLocation(ctx context.Context, userID string) (*Location, error) {
	const query = `
		SELECT user_id, lat, lng, source, city, country, updated_at
		FROM locations
		WHERE user_id = $1
	`

	var loc Location
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&loc.UserID, &loc.Point.Lat, &loc.Point.Lng, &loc.Source,
		&loc.City, &loc.Country, &loc.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read location: %w", err)
	}
	return &loc, nil
}

// UpsertLocation stores a user's location. The unique constraint on user_id
// gives one-location-per-user upsert semantics.
func (r *PostgresRepository) UpsertLocation(ctx context.Context, loc *Location) error {
	const query = `
		INSERT INTO locations (user_id, lat, lng, geohash, source, city, country, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET lat = EXCLUDED.lat,
		    lng = EXCLUDED.lng,
		    geohash = EXCLUDED.geohash,
		    source = EXCLUDED.source,
		    city = EXCLUDED.city,
		    country = EXCLUDED.country,
		    updated_at = NOW()
	`

	geohash := geo.Encode(loc.Point.Lat, loc.Point.Lng, geo.DefaultPrecision)
	_, err := r.db.ExecContext(ctx, query,
		loc.UserID, loc.Point.Lat, loc.Point.Lng, geohash, loc.Source, loc.City, loc.Country)
	if err != nil {
		return fmt.Errorf("failed to upsert location: %w", err)
	}
	return nil
}

// EnsureTag returns the named tag, creating it if absent. The insert races
// benignly with concurrent creators; ON CONFLICT keeps the name unique.
func (r *PostgresRepository) EnsureTag(ctx context.Context, name string) (*Tag, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))

	const insert = `
		INSERT INTO tags (id, name)
		VALUES ($1, $2)
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, insert, uuid.New().String(), normalized); err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	var tag Tag
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM tags WHERE name = $1`, normalized).Scan(&tag.ID, &tag.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to read tag: %w", err)
	}
	return &tag, nil
}

// AddUserTag attaches a tag to a user. Idempotent via the composite key.
func (r *PostgresRepository) AddUserTag(ctx context.Context, userID, tagID string) error {
	const query = `
		INSERT INTO user_tags (user_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, tag_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID, tagID); err != nil {
		return fmt.Errorf("failed to add user tag: %w", err)
	}
	return nil
}

// RemoveUserTag detaches a tag from a user.
func (r *PostgresRepository) RemoveUserTag(ctx context.Context, userID, tagID string) error {
	const query = `DELETE FROM user_tags WHERE user_id = $1 AND tag_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, tagID); err != nil {
		return fmt.Errorf("failed to remove user tag: %w", err)
	}
	return nil
}

// ListUserTags returns the tag names attached to a user, sorted.
func (r *PostgresRepository) ListUserTags(ctx context.Context, userID string) ([]string, error) {
	const query = `
		SELECT t.name
		FROM user_tags ut
		JOIN tags t ON t.id = ut.tag_id
		WHERE ut.user_id = $1
		ORDER BY t.name
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user tags: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	return names, nil
}
