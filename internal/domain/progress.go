package domain

import (
	"time"

	"github.com/google/uuid"
)

// CourseProgress is the per-(learner, course) completion record, upserted
// by the reward ledger on every lesson completion.
type CourseProgress struct {
	LearnerID        uuid.UUID
	CourseID         string
	CompletedLessons int
	CourseComplete   bool
	LastAccessedAt   time.Time
}

// RecordLesson folds a completed lesson into the record. CompletedLessons
// stores the highest lesson number reached rather than a counter, which
// keeps replays from inflating progress.
func (p *CourseProgress) RecordLesson(lessonNumber, totalLessons int, now time.Time) {
	if lessonNumber > p.CompletedLessons {
		p.CompletedLessons = lessonNumber
	}
	if lessonNumber == totalLessons {
		p.CourseComplete = true
	}
	p.LastAccessedAt = now
}

// CompletionKey identifies one lesson completion for idempotent replay
// detection at the ledger boundary.
type CompletionKey struct {
	LearnerID    uuid.UUID
	CourseID     string
	LessonNumber int
}
