package discovery

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/matcha-app/matcha/internal/geo"
)

// PostgresCandidateRepository reads candidate rows with the exclusion
// rules expressed as NOT EXISTS subqueries, so an excluded user never
// leaves the database.
type PostgresCandidateRepository struct {
	db *sql.DB
}

func NewPostgresCandidateRepository(db *sql.DB) *PostgresCandidateRepository {
	return &PostgresCandidateRepository{db: db}
}

const listVisibleCandidatesQuery = `
	SELECT
		p.user_id,
		p.name,
		p.gender,
		p.orientation,
		p.birth_date,
		l.lat,
		l.lng,
		p.fame_rating,
		COALESCE(array_agg(t.name ORDER BY t.name) FILTER (WHERE t.name IS NOT NULL), '{}'),
		p.last_active
	FROM profiles p
	LEFT JOIN locations l ON l.user_id = p.user_id
	LEFT JOIN user_tags ut ON ut.user_id = p.user_id
	LEFT JOIN tags t ON t.id = ut.tag_id
	WHERE p.user_id <> $1
	  AND NOT EXISTS (
		SELECT 1 FROM blocks b
		WHERE (b.actor_id = $1 AND b.target_id = p.user_id)
		   OR (b.actor_id = p.user_id AND b.target_id = $1)
	  )
	  AND NOT EXISTS (
		SELECT 1 FROM passes ps
		WHERE ps.actor_id = $1 AND ps.target_id = p.user_id
	  )
	  AND NOT EXISTS (
		SELECT 1 FROM likes lk
		WHERE lk.actor_id = $1 AND lk.target_id = p.user_id
	  )
	GROUP BY p.user_id, p.name, p.gender, p.orientation, p.birth_date,
	         l.lat, l.lng, p.fame_rating, p.last_active
	ORDER BY p.user_id`

func (r *PostgresCandidateRepository) ListVisibleCandidates(ctx context.Context, requesterID string) ([]Candidate, error) {
	rows, err := r.db.QueryContext(ctx, listVisibleCandidatesQuery, requesterID)
	if err != nil {
		return nil, fmt.Errorf("query visible candidates: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var (
			c        Candidate
			lat, lng sql.NullFloat64
			tags     []string
		)
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Gender, &c.Orientation, &c.BirthDate,
			&lat, &lng, &c.FameRating, pq.Array(&tags), &c.LastActive,
		); err != nil {
			return nil, fmt.Errorf("scan candidate row: %w", err)
		}
		if lat.Valid && lng.Valid {
			c.Location = &geo.Point{Lat: lat.Float64, Lng: lng.Float64}
		}
		c.Tags = tags
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidate rows: %w", err)
	}
	return out, nil
}
