package reward

import (
	"context"
	"time"

	"github.com/felixgeelhaar/raksha/internal/domain"
	"github.com/google/uuid"
)

// ProfileStore is the external profile persistence the ledger mutates.
// The ledger only ever does read-modify-write; it never creates or
// deletes a profile.
type ProfileStore interface {
	Get(ctx context.Context, learnerID uuid.UUID) (*domain.Profile, error)
	Save(ctx context.Context, profile *domain.Profile) error
}

// ProgressStore persists per-(learner, course) completion records.
type ProgressStore interface {
	Get(ctx context.Context, learnerID uuid.UUID, courseID string) (*domain.CourseProgress, error)
	Upsert(ctx context.Context, progress *domain.CourseProgress) error
}

// CompletionLog records which (learner, course, lesson) completions the
// ledger has already honored, so replays are no-ops even across process
// restarts. The in-memory completion latch does not survive a reload;
// this does.
type CompletionLog interface {
	Seen(ctx context.Context, key domain.CompletionKey) (bool, error)
	Record(ctx context.Context, key domain.CompletionKey, at time.Time) error
}

// BadgeStore persists earned badges.
type BadgeStore interface {
	Held(ctx context.Context, learnerID uuid.UUID) (map[string]bool, error)
	Award(ctx context.Context, earned domain.EarnedBadge) error
}

// CourseSource resolves course metadata (lesson count) for progress
// bookkeeping. Course content is owned externally.
type CourseSource interface {
	Course(ctx context.Context, courseID string) (*domain.Course, error)
}
