package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/raksha/internal/domain"
)

// BadgeStore persists earned badges.
type BadgeStore struct {
	pool *pgxpool.Pool
}

// NewBadgeStore creates a PostgreSQL-backed badge store.
func NewBadgeStore(pool *pgxpool.Pool) *BadgeStore {
	return &BadgeStore{pool: pool}
}

// Held returns the set of badge IDs the learner already holds.
func (s *BadgeStore) Held(ctx context.Context, learnerID uuid.UUID) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT badge_id FROM earned_badges WHERE learner_id = $1`, learnerID)
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
	_, err := s.pool.Exec(ctx, `
		INSERT INTO earned_badges (learner_id, badge_id, earned_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (learner_id, badge_id) DO NOTHING`,
		e.LearnerID, e.BadgeID, e.EarnedAt,
	)
	if err != nil {
		return fmt.Errorf("award badge: %w", err)
	}
	return nil
}

// ByLearner returns the learner's earned badges, newest first.
func (s *BadgeStore) ByLearner(ctx context.Context, learnerID uuid.UUID) ([]domain.EarnedBadge, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT learner_id, badge_id, earned_at FROM earned_badges
		WHERE learner_id = $1 ORDER BY earned_at DESC`, learnerID)
	if err != nil {
		return nil, fmt.Errorf("query earned badges: %w", err)
	}
	defer rows.Close()

	var earned []domain.EarnedBadge
	for rows.Next() {
		var e domain.EarnedBadge
		if err := rows.Scan(&e.LearnerID, &e.BadgeID, &e.EarnedAt); err != nil {
			return nil, fmt.Errorf("scan earned badge: %w", err)
		}
		earned = append(earned, e)
	}
	return earned, rows.Err()
}
