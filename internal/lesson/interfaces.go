package lesson

import (
	"context"

	"github.com/felixgeelhaar/raksha/internal/domain"
	"github.com/felixgeelhaar/raksha/internal/reward"
)

// CourseSource resolves course content for visits.
type CourseSource interface {
	Course(ctx context.Context, courseID string) (*domain.Course, error)
}

// RewardLedger consumes the completion event a visit emits on its edge
// into the Completed state.
type RewardLedger interface {
	ApplyCompletion(ctx context.Context, ev domain.LessonCompleted) (*reward.Outcome, error)
}
