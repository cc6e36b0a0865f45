package lesson

import (
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/raksha/internal/domain"
)

// Status is the visit's completion state. It only ever moves forward:
// NotStarted -> InProgress -> Completed.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// SuccessDisplayDuration is how long the completion celebration stays up
// before the advance affordance takes over.
const SuccessDisplayDuration = 3 * time.Second

// Visit is one learner's pass through one lesson. Entering a lesson
// always creates a fresh visit with empty answer state; a visit is never
// resumed across entries.
type Visit struct {
	ID           string              `json:"id"`
	LearnerID    uuid.UUID           `json:"learner_id"`
	CourseID     string              `json:"course_id"`
	LessonNumber int                 `json:"lesson_number"`
	Status       Status              `json:"status"`
	Answers      *domain.AnswerState `json:"answers"`

	// Attempts counts explicit checks that came back incorrect.
	Attempts int `json:"attempts"`

	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	SuccessUntil *time.Time `json:"success_until,omitempty"`
}

// NewVisit creates a fresh visit in the NotStarted state.
func NewVisit(learnerID uuid.UUID, courseID string, lessonNumber int) *Visit {
	now := time.Now()
	return &Visit{
		ID:           uuid.New().String(),
		LearnerID:    learnerID,
		CourseID:     courseID,
		LessonNumber: lessonNumber,
		Status:       StatusNotStarted,
		Answers:      domain.NewAnswerState(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Touch moves the visit into InProgress once the learner has interacted.
// It never moves a completed visit backwards.
func (v *Visit) Touch() {
	v.UpdatedAt = time.Now()
	if v.Status == StatusNotStarted && v.Answers.Touched() {
		v.Status = StatusInProgress
	}
}

// Completed reports whether the visit has latched.
func (v *Visit) Completed() bool {
	return v.Status == StatusCompleted
}

// Complete latches the visit. It returns true only on the edge into
// Completed; a second call is a no-op and returns false, which is what
// makes the downstream reward event fire at most once per visit.
func (v *Visit) Complete(now time.Time) bool {
	if v.Status == StatusCompleted {
		return false
	}
	v.Status = StatusCompleted
	v.CompletedAt = &now
	until := now.Add(SuccessDisplayDuration)
	v.SuccessUntil = &until
	v.UpdatedAt = now
	return true
}

// RecordAttempt counts an incorrect explicit check.
func (v *Visit) RecordAttempt() {
	v.Attempts++
	v.UpdatedAt = time.Now()
}

// SuccessVisible reports whether the completion celebration should still
// be showing at the given instant.
func (v *Visit) SuccessVisible(now time.Time) bool {
	return v.SuccessUntil != nil && now.Before(*v.SuccessUntil)
}
