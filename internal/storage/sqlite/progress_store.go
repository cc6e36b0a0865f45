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

// ProgressStore persists per-(learner, course) progress records.
type ProgressStore struct {
	db *DB
}

// NewProgressStore creates a SQLite-backed progress store.
func NewProgressStore(db *DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// Get retrieves the progress record for a learner and course.
func (s *ProgressStore) Get(ctx context.Context, learnerID uuid.UUID, courseID string) (*domain.CourseProgress, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT learner_id, course_id, completed_lessons, course_complete, last_accessed_at
		FROM course_progress WHERE learner_id = ? AND course_id = ?`,
		learnerID.String(), courseID)
	return scanProgress(row)
}

// Upsert writes a progress record. The write is idempotent: replaying the
// same record leaves the row unchanged.
func (s *ProgressStore) Upsert(ctx context.Context, p *domain.CourseProgress) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO course_progress (learner_id, course_id, completed_lessons, course_complete, last_accessed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(learner_id, course_id) DO UPDATE SET
			completed_lessons=excluded.completed_lessons,
			course_complete=excluded.course_complete,
			last_accessed_at=excluded.last_accessed_at`,
		p.LearnerID.String(), p.CourseID, p.CompletedLessons, p.CourseComplete, p.LastAccessedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert course progress: %w", err)
	}
	return nil
}

// ByLearner returns all progress records for a learner.
func (s *ProgressStore) ByLearner(ctx context.Context, learnerID uuid.UUID) ([]*domain.CourseProgress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT learner_id, course_id, completed_lessons, course_complete, last_accessed_at
		FROM course_progress WHERE learner_id = ? ORDER BY last_accessed_at DESC`,
		learnerID.String())
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

func scanProgress(row rowScanner) (*domain.CourseProgress, error) {
	var p domain.CourseProgress
	var id string
	err := row.Scan(&id, &p.CourseID, &p.CompletedLessons, &p.CourseComplete, &p.LastAccessedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProgressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan course progress: %w", err)
	}

	p.LearnerID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse learner id %q: %w", id, err)
	}
	return &p, nil
}

// CompletionLog records honored completions keyed by
// (learner, course, lesson).
type CompletionLog struct {
	db *DB
}

// NewCompletionLog creates a SQLite-backed completion log.
func NewCompletionLog(db *DB) *CompletionLog {
	return &CompletionLog{db: db}
}

// Seen reports whether the completion key was already honored.
func (l *CompletionLog) Seen(ctx context.Context, key domain.CompletionKey) (bool, error) {
	var count int
	err := l.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM completion_log
		WHERE learner_id = ? AND course_id = ? AND lesson_number = ?`,
		key.LearnerID.String(), key.CourseID, key.LessonNumber).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query completion log: %w", err)
	}
	return count > 0, nil
}

// Record marks the completion key as honored. Recording an existing key
// is a no-op.
func (l *CompletionLog) Record(ctx context.Context, key domain.CompletionKey, at time.Time) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO completion_log (learner_id, course_id, lesson_number, completed_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(learner_id, course_id, lesson_number) DO NOTHING`,
		key.LearnerID.String(), key.CourseID, key.LessonNumber, at,
	)
	if err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	return nil
}
