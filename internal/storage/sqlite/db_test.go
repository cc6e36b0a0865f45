package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/raksha/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "raksha.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	v, err := db.Version()
	if err != nil {
		t.Fatal(err)
	}
	if v < 1 {
		t.Errorf("version = %d", v)
	}
}

func TestProfileStore_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	store := NewProfileStore(db)
	ctx := context.Background()

	id := uuid.New()
	if _, err := store.Get(ctx, id); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("missing profile err = %v", err)
	}

	p := domain.NewProfile(id, "asha")
	p.XP = 530
	p.Level = 2
	p.Rank = domain.RankSilver
	if err := store.Save(ctx, p); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Username != "asha" || got.XP != 530 || got.Level != 2 || got.Rank != domain.RankSilver {
		t.Errorf("got %+v", got)
	}

	// Save again is an update, not a duplicate row.
	p.XP = 580
	if err := store.Save(ctx, p); err != nil {
		t.Fatal(err)
	}
	got, _ = store.Get(ctx, id)
	if got.XP != 580 {
		t.Errorf("XP after update = %d", got.XP)
	}
}

func TestProfileStore_Top(t *testing.T) {
	db := openTestDB(t)
	store := NewProfileStore(db)
	ctx := context.Background()

	for i, xp := range []int{100, 700, 300} {
		p := domain.NewProfile(uuid.New(), string(rune('a'+i)))
		p.XP = xp
		if err := store.Save(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	top, err := store.Top(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 || top[0].XP != 700 || top[1].XP != 300 {
		t.Errorf("top = %+v", top)
	}
}

func TestProgressStore_Upsert(t *testing.T) {
	db := openTestDB(t)
	store := NewProgressStore(db)
	ctx := context.Background()

	learner := uuid.New()
	if _, err := store.Get(ctx, learner, "safe-upi-payments"); !errors.Is(err, domain.ErrProgressNotFound) {
		t.Fatalf("missing progress err = %v", err)
	}

	p := &domain.CourseProgress{
		LearnerID:        learner,
		CourseID:         "safe-upi-payments",
		CompletedLessons: 2,
		LastAccessedAt:   time.Now(),
	}
	if err := store.Upsert(ctx, p); err != nil {
		t.Fatal(err)
	}
	// Replaying the identical record is harmless.
	if err := store.Upsert(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(ctx, learner, "safe-upi-payments")
	if err != nil {
		t.Fatal(err)
	}
	if got.CompletedLessons != 2 || got.CourseComplete {
		t.Errorf("got %+v", got)
	}

	p.CompletedLessons = 4
	p.CourseComplete = true
	if err := store.Upsert(ctx, p); err != nil {
		t.Fatal(err)
	}
	got, _ = store.Get(ctx, learner, "safe-upi-payments")
	if got.CompletedLessons != 4 || !got.CourseComplete {
		t.Errorf("after update: %+v", got)
	}

	all, err := store.ByLearner(ctx, learner)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Errorf("ByLearner returned %d records", len(all))
	}
}

func TestCompletionLog(t *testing.T) {
	db := openTestDB(t)
	log := NewCompletionLog(db)
	ctx := context.Background()

	key := domain.CompletionKey{LearnerID: uuid.New(), CourseID: "safe-upi-payments", LessonNumber: 1}

	seen, err := log.Seen(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if seen {
		t.Fatal("fresh key reported seen")
	}

	if err := log.Record(ctx, key, time.Now()); err != nil {
		t.Fatal(err)
	}
	// Recording twice must not error.
	if err := log.Record(ctx, key, time.Now()); err != nil {
		t.Fatalf("duplicate record: %v", err)
	}

	seen, _ = log.Seen(ctx, key)
	if !seen {
		t.Error("recorded key not seen")
	}

	other := key
	other.LessonNumber = 2
	if seen, _ = log.Seen(ctx, other); seen {
		t.Error("different lesson reported seen")
	}
}

func TestBadgeStore(t *testing.T) {
	db := openTestDB(t)
	store := NewBadgeStore(db)
	ctx := context.Background()

	learner := uuid.New()
	held, err := store.Held(ctx, learner)
	if err != nil {
		t.Fatal(err)
	}
	if len(held) != 0 {
		t.Fatalf("fresh learner holds %v", held)
	}

	e := domain.EarnedBadge{LearnerID: learner, BadgeID: "first-steps", EarnedAt: time.Now()}
	if err := store.Award(ctx, e); err != nil {
		t.Fatal(err)
	}
	if err := store.Award(ctx, e); err != nil {
		t.Fatalf("re-award: %v", err)
	}

	held, _ = store.Held(ctx, learner)
	if !held["first-steps"] || len(held) != 1 {
		t.Errorf("held = %v", held)
	}

	earned, err := store.ByLearner(ctx, learner)
	if err != nil {
		t.Fatal(err)
	}
	if len(earned) != 1 || earned[0].BadgeID != "first-steps" {
		t.Errorf("earned = %+v", earned)
	}
}
