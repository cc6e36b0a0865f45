package reward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/fortify/retry"

	"github.com/felixgeelhaar/raksha/internal/domain"
)

// Outcome reports what a completion event changed.
type Outcome struct {
	// Duplicate is set when the completion key was already honored; no
	// state changed.
	Duplicate bool

	XPAwarded int
	Profile   *domain.Profile
	Progress  *domain.CourseProgress
	Badges    []domain.Badge
}

// Ledger applies lesson-completion events: it computes the XP delta,
// rederives level and rank, upserts course progress, and awards badges.
//
// XP accumulation is an additive read-modify-write and is not naturally
// idempotent, so the ledger keys every completion by
// (learner, course, lesson) in a persisted completion log and no-ops
// replays. The completion controller's in-memory latch is the first
// line of defense; the log is the one that survives a reload.
type Ledger struct {
	profiles   ProfileStore
	progress   ProgressStore
	log        CompletionLog
	badges     BadgeStore
	courses    CourseSource
	catalog    []domain.Badge
	dispatcher *domain.EventDispatcher
	retrier    retry.Retry[struct{}]
}

// NewLedger creates a reward ledger. The dispatcher is optional; when set,
// the ledger publishes AwardApplied and BadgeEarned events after
// persisting.
func NewLedger(profiles ProfileStore, progress ProgressStore, log CompletionLog, badges BadgeStore, courses CourseSource) *Ledger {
	return &Ledger{
		profiles: profiles,
		progress: progress,
		log:      log,
		badges:   badges,
		courses:  courses,
		catalog:  domain.DefaultBadges(),
		retrier: retry.New[struct{}](retry.Config{
			MaxAttempts:   3,
			InitialDelay:  200 * time.Millisecond,
			MaxDelay:      2 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
		}),
	}
}

// SetDispatcher wires an event dispatcher for award notifications.
func (l *Ledger) SetDispatcher(d *domain.EventDispatcher) {
	l.dispatcher = d
}

// SetCatalog replaces the default badge catalog.
func (l *Ledger) SetCatalog(catalog []domain.Badge) {
	l.catalog = catalog
}

// ApplyCompletion processes one lesson-completion event.
//
// Write ordering: the profile XP write happens first and the completion
// key is recorded immediately after it, because the XP delta is the only
// non-idempotent step. Progress and badge writes after that point are
// idempotent upserts; if they fail, the award is already safe and the
// caller may surface the error without risking a double award.
func (l *Ledger) ApplyCompletion(ctx context.Context, ev domain.LessonCompleted) (*Outcome, error) {
	key := ev.Key()

	seen, err := l.log.Seen(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("check completion log: %w", err)
	}
	if seen {
		slog.Warn("duplicate completion event ignored",
			"learner_id", ev.LearnerID,
			"course_id", ev.CourseID,
			"lesson", ev.LessonNumber)
		profile, err := l.profiles.Get(ctx, ev.LearnerID)
		if err != nil {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		return &Outcome{Duplicate: true, Profile: profile}, nil
	}

	course, err := l.courses.Course(ctx, ev.CourseID)
	if err != nil {
		return nil, fmt.Errorf("resolve course %s: %w", ev.CourseID, err)
	}

	profile, err := l.profiles.Get(ctx, ev.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	profile.ApplyAward(ev.XPAward)

	if err := l.persist(ctx, "save profile", func(ctx context.Context) error {
		return l.profiles.Save(ctx, profile)
	}); err != nil {
		return nil, err
	}

	if err := l.persist(ctx, "record completion", func(ctx context.Context) error {
		return l.log.Record(ctx, key, time.Now())
	}); err != nil {
		return nil, err
	}

	progress, err := l.progress.Get(ctx, ev.LearnerID, ev.CourseID)
	if err != nil {
		if !errors.Is(err, domain.ErrProgressNotFound) {
			return nil, fmt.Errorf("load course progress: %w", err)
		}
		progress = &domain.CourseProgress{LearnerID: ev.LearnerID, CourseID: ev.CourseID}
	}
	progress.RecordLesson(ev.LessonNumber, course.TotalLessons(), time.Now())

	if err := l.persist(ctx, "upsert course progress", func(ctx context.Context) error {
		return l.progress.Upsert(ctx, progress)
	}); err != nil {
		return nil, err
	}

	earned, err := l.awardBadges(ctx, profile, progress.CourseComplete)
	if err != nil {
		// Badges are a garnish; a failed badge write must not fail the
		// award itself.
		slog.Error("badge award failed",
			"learner_id", ev.LearnerID,
			"error", err)
	}

	l.publish(ev, profile, earned)

	slog.Info("lesson completion applied",
		"learner_id", ev.LearnerID,
		"course_id", ev.CourseID,
		"lesson", ev.LessonNumber,
		"xp_awarded", ev.XPAward,
		"total_xp", profile.XP,
		"level", profile.Level,
		"rank", profile.Rank)

	return &Outcome{
		XPAwarded: ev.XPAward,
		Profile:   profile,
		Progress:  progress,
		Badges:    earned,
	}, nil
}

// persist runs a store write with retry; exhausted retries surface the
// error distinctly so operators can detect lost awards.
func (l *Ledger) persist(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	_, err := l.retrier.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	if err != nil {
		slog.Error("reward persistence failed after retries", "op", op, "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (l *Ledger) awardBadges(ctx context.Context, profile *domain.Profile, courseComplete bool) ([]domain.Badge, error) {
	held, err := l.badges.Held(ctx, profile.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("load held badges: %w", err)
	}

	earned := domain.NewlyEarned(l.catalog, profile.XP, courseComplete, held)
	for _, b := range earned {
		if err := l.badges.Award(ctx, domain.EarnedBadge{
			LearnerID: profile.LearnerID,
			BadgeID:   b.ID,
			EarnedAt:  time.Now(),
		}); err != nil {
			return nil, fmt.Errorf("award badge %s: %w", b.ID, err)
		}
		slog.Info("badge earned", "learner_id", profile.LearnerID, "badge", b.ID)
	}
	return earned, nil
}

func (l *Ledger) publish(ev domain.LessonCompleted, profile *domain.Profile, earned []domain.Badge) {
	if l.dispatcher == nil {
		return
	}
	l.dispatcher.Publish(domain.AwardApplied{
		BaseEvent: domain.NewBaseEvent(domain.EventAwardApplied),
		LearnerID: ev.LearnerID,
		CourseID:  ev.CourseID,
		XPAwarded: ev.XPAward,
		TotalXP:   profile.XP,
		Level:     profile.Level,
		Rank:      profile.Rank,
	})
	for _, b := range earned {
		l.dispatcher.Publish(domain.BadgeEarned{
			BaseEvent: domain.NewBaseEvent(domain.EventBadgeEarned),
			LearnerID: ev.LearnerID,
			BadgeID:   b.ID,
			BadgeName: b.Name,
		})
	}
}
