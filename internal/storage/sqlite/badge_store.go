package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/raksha/internal/domain"
)

// BadgeStore persists earned badges.
type BadgeStore struct {
	db *DB
}

// NewBadgeStore creates a SQLite-backed badge store.
func NewBadgeStore(db *DB) *BadgeStore {
	return &BadgeStore{db: db}
}

// Held returns the set of badge IDs the learner already holds.
func (s *BadgeStore) Held(ctx context.Context, learnerID uuid.UUID) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT badge_id FROM earned_badges WHERE learner_id = ?`, learnerID.String())
	if err != nil {
		return nil, fmt.Errorf("query earned badges: %w", err)
	}
	defer rows.Close()

	held := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan badge id: %w", err)
		}
		held[id] = true
	}
	return held, rows.Err()
}

// Award records an earned badge. Re-awarding is a no-op.
func (s *BadgeStore) Award(ctx context.Context, e domain.EarnedBadge) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO earned_badges (learner_id, badge_id, earned_at)
		VALUES (?, ?, ?)
		ON CONFLICT(learner_id, badge_id) DO NOTHING`,
		e.LearnerID.String(), e.BadgeID, e.EarnedAt,
	)
	if err != nil {
		return fmt.Errorf("award badge: %w", err)
	}
	return nil
}

// ByLearner returns the learner's earned badges, newest first.
func (s *BadgeStore) ByLearner(ctx context.Context, learnerID uuid.UUID) ([]domain.EarnedBadge, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT learner_id, badge_id, earned_at FROM earned_badges
		WHERE learner_id = ? ORDER BY earned_at DESC`, learnerID.String())
	if err != nil {
		return nil, fmt.Errorf("query earned badges: %w", err)
	}
	defer rows.Close()

	var earned []domain.EarnedBadge
	for rows.Next() {
		var e domain.EarnedBadge
		var id string
		if err := rows.Scan(&id, &e.BadgeID, &e.EarnedAt); err != nil {
			return nil, fmt.Errorf("scan earned badge: %w", err)
		}
		e.LearnerID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse learner id %q: %w", id, err)
		}
		earned = append(earned, e)
	}
	return earned, rows.Err()
}
