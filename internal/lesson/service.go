package lesson

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/raksha/internal/domain"
	"github.com/felixgeelhaar/raksha/internal/reward"
)

var (
	ErrWrongExercise     = errors.New("operation does not apply to this exercise")
	ErrLessonNotComplete = errors.New("lesson not completed")
)

// Advance actions returned by the navigation gate.
const (
	ActionNextLesson     = "next_lesson"
	ActionCompleteCourse = "complete_course"
)

// Service orchestrates lesson visits: it owns evaluation timing, the
// completion latch, and the handoff to the reward ledger.
type Service struct {
	visits  *Store
	courses CourseSource
	ledger  RewardLedger
}

// NewService creates a lesson service.
func NewService(visits *Store, courses CourseSource, ledger RewardLedger) *Service {
	return &Service{visits: visits, courses: courses, ledger: ledger}
}

// Result reports the outcome of one interaction with a visit.
type Result struct {
	Visit *Visit `json:"visit"`

	// JustCompleted is set only on the interaction that latched the visit.
	JustCompleted bool `json:"just_completed"`

	// Correct carries per-item feedback where the variant defines it
	// (the placed item, the chosen side). Nil when not applicable.
	Correct *bool `json:"correct,omitempty"`

	// Hint is the retry affordance for an incorrect numeric check. It
	// describes the expected value's structure, never the value itself.
	Hint string `json:"hint,omitempty"`

	// Award is the reward outcome when this interaction completed the
	// lesson and the ledger write succeeded.
	Award *reward.Outcome `json:"award,omitempty"`
}

// Enter begins a fresh visit for the lesson. Re-entering a lesson always
// resets: any prior visit for the same (learner, course, lesson) is
// discarded along with its answer state and in-memory latch. Earned XP is
// unaffected; the durable completion log is what keeps a replayed
// completion from paying twice.
func (s *Service) Enter(ctx context.Context, learnerID uuid.UUID, courseID string, lessonNumber int) (*Visit, error) {
	course, err := s.courses.Course(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("resolve course %s: %w", courseID, err)
	}
	lsn, err := course.Lesson(lessonNumber)
	if err != nil {
		return nil, err
	}
	if err := lsn.Exercise.Validate(); err != nil {
		return nil, fmt.Errorf("lesson %d of %s: %w", lessonNumber, courseID, err)
	}

	if prior, ok := s.visits.Find(learnerID, courseID, lessonNumber); ok {
		s.visits.Delete(prior.ID)
	}

	v := NewVisit(learnerID, courseID, lessonNumber)
	s.visits.Save(v)

	slog.Info("lesson entered",
		"visit_id", v.ID,
		"learner_id", learnerID,
		"course_id", courseID,
		"lesson", lessonNumber)

	return v, nil
}

// Get retrieves a visit by ID.
func (s *Service) Get(ctx context.Context, visitID string) (*Visit, error) {
	return s.visits.Get(visitID)
}

// Assign places an item into a category and re-evaluates immediately;
// categorization is the one variant that completes without an explicit
// check.
func (s *Service) Assign(ctx context.Context, visitID, itemID, category string) (*Result, error) {
	v, lsn, err := s.resolveKind(ctx, visitID, domain.KindCategorization)
	if err != nil {
		return nil, err
	}
	if v.Completed() {
		return &Result{Visit: v}, nil
	}

	body := lsn.Exercise.Body.(*domain.CategorizationExercise)
	v.Answers.Assign(itemID, category)
	v.Touch()

	_, correct := body.ItemCorrect(v.Answers, itemID)
	res := &Result{Visit: v, Correct: &correct}

	done, err := lsn.Exercise.Evaluate(v.Answers)
	if err != nil {
		return nil, err
	}
	if done {
		res.JustCompleted, res.Award = s.latch(ctx, v)
	}
	s.visits.Save(v)
	return res, nil
}

// Unassign removes an item from its category. It never completes a visit
// but it also never un-completes one.
func (s *Service) Unassign(ctx context.Context, visitID, itemID string) (*Result, error) {
	v, _, err := s.resolveKind(ctx, visitID, domain.KindCategorization)
	if err != nil {
		return nil, err
	}
	if v.Completed() {
		return &Result{Visit: v}, nil
	}
	v.Answers.Unassign(itemID)
	v.Touch()
	s.visits.Save(v)
	return &Result{Visit: v}, nil
}

// Toggle flips a message in or out of the flagged set.
func (s *Service) Toggle(ctx context.Context, visitID, messageID string) (*Result, error) {
	v, _, err := s.resolveKind(ctx, visitID, domain.KindMultiSelect)
	if err != nil {
		return nil, err
	}
	if v.Completed() {
		return &Result{Visit: v}, nil
	}
	v.Answers.Toggle(messageID)
	v.Touch()
	s.visits.Save(v)
	return &Result{Visit: v}, nil
}

// Choose records a side for a binary scenario, replacing any prior
// choice for that scenario.
func (s *Service) Choose(ctx context.Context, visitID, scenarioID string, side domain.Side) (*Result, error) {
	v, lsn, err := s.resolveKind(ctx, visitID, domain.KindBinaryScenario)
	if err != nil {
		return nil, err
	}
	if v.Completed() {
		return &Result{Visit: v}, nil
	}

	body := lsn.Exercise.Body.(*domain.BinaryScenarioExercise)
	v.Answers.SetChoice(scenarioID, side)
	v.Touch()
	s.visits.Save(v)

	_, correct := body.ScenarioCorrect(v.Answers, scenarioID)
	return &Result{Visit: v, Correct: &correct}, nil
}

// Input stores the raw numeric answer as typed. Parsing waits for Check.
func (s *Service) Input(ctx context.Context, visitID, raw string) (*Result, error) {
	v, _, err := s.resolveKind(ctx, visitID, domain.KindNumericAnswer)
	if err != nil {
		return nil, err
	}
	if v.Completed() {
		return &Result{Visit: v}, nil
	}
	v.Answers.SetRaw(raw)
	v.Touch()
	s.visits.Save(v)
	return &Result{Visit: v}, nil
}

// SelectOption records the chosen option for the choice variants.
func (s *Service) SelectOption(ctx context.Context, visitID, optionID string) (*Result, error) {
	v, lsn, err := s.resolve(ctx, visitID)
	if err != nil {
		return nil, err
	}
	kind := lsn.Exercise.Kind()
	if kind != domain.KindSingleChoice && kind != domain.KindFreeformScenario {
		return nil, ErrWrongExercise
	}
	if v.Completed() {
		return &Result{Visit: v}, nil
	}
	v.Answers.SelectOption(optionID)
	v.Touch()
	s.visits.Save(v)
	return &Result{Visit: v}, nil
}

// Check runs the completion predicate on demand. An incorrect check
// leaves the visit where it is; for the numeric variant it also surfaces
// a retry hint describing the expected value's structure.
func (s *Service) Check(ctx context.Context, visitID string) (*Result, error) {
	v, lsn, err := s.resolve(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if v.Completed() {
		return &Result{Visit: v}, nil
	}

	done, err := lsn.Exercise.Evaluate(v.Answers)
	if err != nil {
		return nil, err
	}
	if !done {
		v.RecordAttempt()
		res := &Result{Visit: v}
		if num, ok := lsn.Exercise.Body.(*domain.NumericAnswerExercise); ok {
			res.Hint = num.RetryHint()
		}
		s.visits.Save(v)
		return res, nil
	}

	res := &Result{Visit: v}
	res.JustCompleted, res.Award = s.latch(ctx, v)
	s.visits.Save(v)
	return res, nil
}

// Advancement is the navigation gate's verdict for a completed visit.
type Advancement struct {
	Action     string `json:"action"`
	NextLesson int    `json:"next_lesson,omitempty"`
}

// Advance is the navigation gate: it refuses until the visit has
// latched, then routes to the next lesson or, on the final lesson, to
// course completion.
func (s *Service) Advance(ctx context.Context, visitID string) (*Advancement, error) {
	v, err := s.visits.Get(visitID)
	if err != nil {
		return nil, err
	}
	if !v.Completed() {
		return nil, ErrLessonNotComplete
	}

	course, err := s.courses.Course(ctx, v.CourseID)
	if err != nil {
		return nil, fmt.Errorf("resolve course %s: %w", v.CourseID, err)
	}

	if course.IsFinalLesson(v.LessonNumber) {
		return &Advancement{Action: ActionCompleteCourse}, nil
	}
	return &Advancement{Action: ActionNextLesson, NextLesson: v.LessonNumber + 1}, nil
}

// latch flips the visit to Completed and, on the edge only, hands the
// completion to the reward ledger. A ledger failure keeps the latch: the
// learner is not blocked on a persistence problem, and the error is
// logged distinctly so the lost award is visible to operators.
func (s *Service) latch(ctx context.Context, v *Visit) (bool, *reward.Outcome) {
	if !v.Complete(time.Now()) {
		return false, nil
	}

	course, err := s.courses.Course(ctx, v.CourseID)
	if err != nil {
		slog.Error("xp award skipped, course unresolved",
			"visit_id", v.ID,
			"course_id", v.CourseID,
			"error", err)
		return true, nil
	}

	ev := domain.NewLessonCompleted(v.LearnerID, v.CourseID, v.LessonNumber, course.XPPerLesson)
	out, err := s.ledger.ApplyCompletion(ctx, ev)
	if err != nil {
		slog.Error("xp award failed, completion latched",
			"visit_id", v.ID,
			"learner_id", v.LearnerID,
			"course_id", v.CourseID,
			"lesson", v.LessonNumber,
			"error", err)
		return true, nil
	}
	return true, out
}

func (s *Service) resolve(ctx context.Context, visitID string) (*Visit, *domain.Lesson, error) {
	v, err := s.visits.Get(visitID)
	if err != nil {
		return nil, nil, err
	}
	course, err := s.courses.Course(ctx, v.CourseID)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve course %s: %w", v.CourseID, err)
	}
	lsn, err := course.Lesson(v.LessonNumber)
	if err != nil {
		return nil, nil, err
	}
	return v, lsn, nil
}

func (s *Service) resolveKind(ctx context.Context, visitID string, kind domain.ExerciseKind) (*Visit, *domain.Lesson, error) {
	v, lsn, err := s.resolve(ctx, visitID)
	if err != nil {
		return nil, nil, err
	}
	if lsn.Exercise.Kind() != kind {
		return nil, nil, ErrWrongExercise
	}
	return v, lsn, nil
}
