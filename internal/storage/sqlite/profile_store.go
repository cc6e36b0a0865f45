package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/raksha/internal/domain"
)

// ProfileStore implements profile persistence backed by SQLite.
type ProfileStore struct {
	db *DB
}

// NewProfileStore creates a SQLite-backed profile store.
func NewProfileStore(db *DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// Save persists a profile (insert or update).
func (s *ProfileStore) Save(ctx context.Context, p *domain.Profile) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (learner_id, username, xp, level, rank, streak, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(learner_id) DO UPDATE SET
			username=excluded.username,
			xp=excluded.xp,
			level=excluded.level,
			rank=excluded.rank,
			streak=excluded.streak,
			updated_at=excluded.updated_at`,
		p.LearnerID.String(), p.Username, p.XP, p.Level, string(p.Rank), p.Streak,
		p.CreatedAt, now,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	p.UpdatedAt = now
	return nil
}

// Get retrieves a profile by learner ID.
func (s *ProfileStore) Get(ctx context.Context, learnerID uuid.UUID) (*domain.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT learner_id, username, xp, level, rank, streak, created_at, updated_at
		FROM profiles WHERE learner_id = ?`, learnerID.String())
	return scanProfile(row)
}

// Top returns the highest-XP profiles for the leaderboard view.
func (s *ProfileStore) Top(ctx context.Context, limit int) ([]*domain.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT learner_id, username, xp, level, rank, streak, created_at, updated_at
		FROM profiles ORDER BY xp DESC, username ASC LIMIT ?`, limit)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*domain.Profile, error) {
	var p domain.Profile
	var id, rank string
	err := row.Scan(&id, &p.Username, &p.XP, &p.Level, &rank, &p.Streak, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan profile: %w", err)
	}

	p.LearnerID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse learner id %q: %w", id, err)
	}
	p.Rank = domain.Rank(rank)
	return &p, nil
}
