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

// ProgressStore persists per-(learner, course) progress records.
type ProgressStore struct {
	pool *pgxpool.Pool
}

// NewProgressStore creates a PostgreSQL-backed progress store.
func NewProgressStore(pool *pgxpool.Pool) *ProgressStore {
	return &ProgressStore{pool: pool}
}

// Get retrieves the progress record for a learner and course.
func (s *ProgressStore) Get(ctx context.Context, learnerID uuid.UUID, courseID string) (*domain.CourseProgress, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT learner_id, course_id, completed_lessons, course_complete, last_accessed_at
		FROM course_progress WHERE learner_id = $1 AND course_id = $2`,
		learnerID, courseID)
	return scanProgress(row)
}

// Upsert writes a progress record.
func (s *ProgressStore) Upsert(ctx context.Context, p *domain.CourseProgress) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO course_progress (learner_id, course_id, completed_lessons, course_complete, last_accessed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (learner_id, course_id) DO UPDATE SET
			completed_lessons = excluded.completed_lessons,
			course_complete = excluded.course_complete,
			last_accessed_at = excluded.last_accessed_at`,
		p.LearnerID, p.CourseID, p.CompletedLessons, p.CourseComplete, p.LastAccessedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert course progress: %w", err)
	}
	return nil
}

// ByLearner returns all progress records for a learner.
func (s *ProgressStore) ByLearner(ctx context.Context, learnerID uuid.UUID) ([]*domain.CourseProgress, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT learner_id, course_id, completed_lessons, course_complete, last_accessed_at
		FROM course_progress WHERE learner_id = $1 ORDER BY last_accessed_at DESC`,
		learnerID)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	defer rows.Close()

	var records []*domain.CourseProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, p)
	}
	return records, rows.Err()
}

func scanProgress(row pgx.Row) (*domain.CourseProgress, error) {
	var p domain.CourseProgress
	err := row.Scan(&p.LearnerID, &p.CourseID, &p.CompletedLessons, &p.CourseComplete, &p.LastAccessedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrProgressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan course progress: %w", err)
	}
	return &p, nil
}

// CompletionLog records honored completions keyed by
// (learner, course, lesson).
type CompletionLog struct {
	pool *pgxpool.Pool
}

// NewCompletionLog creates a PostgreSQL-backed completion log.
func NewCompletionLog(pool *pgxpool.Pool) *CompletionLog {
	return &CompletionLog{pool: pool}
}

// Seen reports whether the completion key was already honored.
func (l *CompletionLog) Seen(ctx context.Context, key domain.CompletionKey) (bool, error) {
	var seen bool
	err := l.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM completion_log
			WHERE learner_id = $1 AND course_id = $2 AND lesson_number = $3
		)`, key.LearnerID, key.CourseID, key.LessonNumber).Scan(&seen)
	if err != nil {
		return false, fmt.Errorf("query completion log: %w", err)
	}
	return seen, nil
}

// Record marks the completion key as honored. Recording an existing key
// is a no-op.
func (l *CompletionLog) Record(ctx context.Context, key domain.CompletionKey, at time.Time) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO completion_log (learner_id, course_id, lesson_number, completed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (learner_id, course_id, lesson_number) DO NOTHING`,
		key.LearnerID, key.CourseID, key.LessonNumber, at,
	)
	if err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	return nil
}
