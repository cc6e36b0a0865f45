package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/raksha/internal/domain"
)

// ProfileStore implements profile persistence backed by PostgreSQL.
type ProfileStore struct {
	pool *pgxpool.Pool
}

// NewProfileStore creates a PostgreSQL-backed profile store.
func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

// Save persists a profile (insert or update).
func (s *ProfileStore) Save(ctx context.Context, p *domain.Profile) error {
	now := time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (learner_id, username, xp, level, rank, streak, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (learner_id) DO UPDATE SET
			username = excluded.username,
			xp = excluded.xp,
			level = excluded.level,
			rank = excluded.rank,
			streak = excluded.streak,
			updated_at = excluded.updated_at`,
		p.LearnerID, p.Username, p.XP, p.Level, string(p.Rank), p.Streak, p.CreatedAt, now,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	p.UpdatedAt = now
	return nil
}

// Get retrieves a profile by learner ID.
func (s *ProfileStore) Get(ctx context.Context, learnerID uuid.UUID) (*domain.Profile, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT learner_id, username, xp, level, rank, streak, created_at, updated_at
		FROM profiles WHERE learner_id = $1`, learnerID)
	return scanProfile(row)
}

// Top returns the highest-XP profiles for the leaderboard view.
func (s *ProfileStore) Top(ctx context.Context, limit int) ([]*domain.Profile, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT learner_id, username, xp, level, rank, streak, created_at, updated_at
		FROM profiles ORDER BY xp DESC, username ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var profiles []*domain.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	var p domain.Profile
	var rank string
	err := row.Scan(&p.LearnerID, &p.Username, &p.XP, &p.Level, &rank, &p.Streak, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	p.Rank = domain.Rank(rank)
	return &p, nil
}
