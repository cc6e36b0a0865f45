package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ExerciseKind identifies the shape of a lesson's interactive exercise
type ExerciseKind string

const (
	KindCategorization   ExerciseKind = "categorization"
	KindSingleChoice     ExerciseKind = "single_choice"
	KindMultiSelect      ExerciseKind = "multi_select"
	KindBinaryScenario   ExerciseKind = "binary_scenario"
	KindNumericAnswer    ExerciseKind = "numeric_answer"
	KindFreeformScenario ExerciseKind = "freeform_scenario"
)

// Exercise is the interactive part of a lesson. Body carries the
// variant-specific data; it is immutable for the duration of a lesson visit.
type Exercise struct {
	Title       string
	Instruction string
	Body        Body
}

// Body is the closed set of exercise variants. Every variant must provide
// its own completion predicate, so adding a variant without implementing
// its evaluator is a build error rather than a silent runtime fallback.
type Body interface {
	Kind() ExerciseKind
	Validate() error

	// Complete reports whether the answer state fully and correctly
	// satisfies the exercise. It must be total: malformed input is
	// incorrect, never an error.
	Complete(ans *AnswerState) bool

	isExerciseBody()
}

// Evaluate runs the completion predicate for the exercise.
// A missing or unrecognized variant is a configuration error: the lesson
// data is malformed and the exercise cannot be evaluated.
func (e *Exercise) Evaluate(ans *AnswerState) (bool, error) {
	if e.Body == nil {
		return false, ErrUnknownExerciseKind
	}
	return e.Body.Complete(ans), nil
}

// Validate checks the exercise's structural invariants.
func (e *Exercise) Validate() error {
	if e.Body == nil {
		return ErrUnknownExerciseKind
	}
	return e.Body.Validate()
}

// Kind returns the variant tag, or "" for a malformed exercise.
func (e *Exercise) Kind() ExerciseKind {
	if e.Body == nil {
		return ""
	}
	return e.Body.Kind()
}

// -----------------------------------------------------------------------------
// Categorization
// -----------------------------------------------------------------------------

// CategorizationItem is one draggable item with its expected category.
type CategorizationItem struct {
	ID              string
	Text            string
	CorrectCategory string
}

// CategorizationExercise asks the learner to sort items into categories.
type CategorizationExercise struct {
	Items      []CategorizationItem
	Categories []string
}

func (c *CategorizationExercise) Kind() ExerciseKind { return KindCategorization }
func (c *CategorizationExercise) isExerciseBody()    {}

func (c *CategorizationExercise) Validate() error {
	if len(c.Items) == 0 || len(c.Categories) == 0 {
		return fmt.Errorf("%w: categorization needs items and categories", ErrInvalidExercise)
	}
	valid := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		valid[cat] = true
	}
	for _, item := range c.Items {
		if !valid[item.CorrectCategory] {
			return fmt.Errorf("%w: item %q expects unknown category %q",
				ErrInvalidExercise, item.ID, item.CorrectCategory)
		}
	}
	return nil
}

// Complete requires every item to be assigned before any correctness is
// considered: a board with unassigned items is never complete.
func (c *CategorizationExercise) Complete(ans *AnswerState) bool {
	for _, item := range c.Items {
		cat, assigned := ans.Assignments[item.ID]
		if !assigned {
			return false
		}
		if cat != item.CorrectCategory {
			return false
		}
	}
	return true
}

// ItemCorrect reports per-item feedback: whether the item is assigned at
// all, and if so whether it sits in its correct category.
func (c *CategorizationExercise) ItemCorrect(ans *AnswerState, itemID string) (assigned, correct bool) {
	cat, ok := ans.Assignments[itemID]
	if !ok {
		return false, false
	}
	for _, item := range c.Items {
		if item.ID == itemID {
			return true, cat == item.CorrectCategory
		}
	}
	return true, false
}

// CategoryCorrect reports whether every item currently placed in the
// category belongs there. An empty category is vacuously correct; the
// whole-exercise predicate still requires full assignment.
func (c *CategorizationExercise) CategoryCorrect(ans *AnswerState, category string) bool {
	for _, item := range c.Items {
		if ans.Assignments[item.ID] == category && item.CorrectCategory != category {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------
// Single choice
// -----------------------------------------------------------------------------

// ChoiceOption is one selectable answer with an optional explanation shown
// as inline feedback.
type ChoiceOption struct {
	ID          string
	Text        string
	Correct     bool
	Explanation string
}

// SingleChoiceExercise asks the learner to pick the one correct option.
// Exactly one option carries Correct = true; multiple legitimate answers
// would need their own variant, not loose data.
type SingleChoiceExercise struct {
	Options []ChoiceOption
}

func (s *SingleChoiceExercise) Kind() ExerciseKind { return KindSingleChoice }
func (s *SingleChoiceExercise) isExerciseBody()    {}

func (s *SingleChoiceExercise) Validate() error {
	return validateSingleCorrect(s.Options)
}

func (s *SingleChoiceExercise) Complete(ans *AnswerState) bool {
	return optionCorrect(s.Options, ans.OptionID)
}

// -----------------------------------------------------------------------------
// Multi-select detection
// -----------------------------------------------------------------------------

// DetectionMessage is one message the learner inspects; Target marks the
// ones that should be flagged (e.g. the phishing messages in a batch).
type DetectionMessage struct {
	ID          string
	Text        string
	Target      bool
	Explanation string
}

// MultiSelectExercise asks the learner to flag exactly the target messages.
type MultiSelectExercise struct {
	Messages []DetectionMessage
}

func (m *MultiSelectExercise) Kind() ExerciseKind { return KindMultiSelect }
func (m *MultiSelectExercise) isExerciseBody()    {}

func (m *MultiSelectExercise) Validate() error {
	if len(m.Messages) == 0 {
		return fmt.Errorf("%w: multi-select needs messages", ErrInvalidExercise)
	}
	return nil
}

// Complete requires the selected set to equal the target set exactly:
// a missed target and a false positive are both incorrect.
func (m *MultiSelectExercise) Complete(ans *AnswerState) bool {
	for _, msg := range m.Messages {
		if msg.Target != ans.Selected[msg.ID] {
			return false
		}
	}
	return true
}

// -----------------------------------------------------------------------------
// Binary scenario
// -----------------------------------------------------------------------------

// Side is one of the two answers in a binary scenario.
type Side string

const (
	SideA Side = "A"
	SideB Side = "B"
)

// BinaryScenario is one two-way decision (e.g. "safe" vs. "scam").
type BinaryScenario struct {
	ID            string
	Text          string
	CorrectAnswer Side
	Explanation   string
}

// BinaryScenarioExercise presents a series of two-way decisions; every
// scenario must be answered, and answered correctly.
type BinaryScenarioExercise struct {
	Scenarios []BinaryScenario
}

func (b *BinaryScenarioExercise) Kind() ExerciseKind { return KindBinaryScenario }
func (b *BinaryScenarioExercise) isExerciseBody()    {}

func (b *BinaryScenarioExercise) Validate() error {
	if len(b.Scenarios) == 0 {
		return fmt.Errorf("%w: binary scenario needs scenarios", ErrInvalidExercise)
	}
	for _, sc := range b.Scenarios {
		if sc.CorrectAnswer != SideA && sc.CorrectAnswer != SideB {
			return fmt.Errorf("%w: scenario %q has answer %q", ErrInvalidExercise, sc.ID, sc.CorrectAnswer)
		}
	}
	return nil
}

func (b *BinaryScenarioExercise) Complete(ans *AnswerState) bool {
	for _, sc := range b.Scenarios {
		side, answered := ans.Choices[sc.ID]
		if !answered || side != sc.CorrectAnswer {
			return false
		}
	}
	return true
}

// ScenarioCorrect reports per-scenario feedback.
func (b *BinaryScenarioExercise) ScenarioCorrect(ans *AnswerState, scenarioID string) (answered, correct bool) {
	side, ok := ans.Choices[scenarioID]
	if !ok {
		return false, false
	}
	for _, sc := range b.Scenarios {
		if sc.ID == scenarioID {
			return true, side == sc.CorrectAnswer
		}
	}
	return true, false
}

// -----------------------------------------------------------------------------
// Numeric answer
// -----------------------------------------------------------------------------

// NumericAnswerExercise asks the learner to compute a value (e.g. split a
// bill between participants) and type it in.
type NumericAnswerExercise struct {
	TotalAmount      float64
	ParticipantCount int
	CorrectAnswer    float64
}

func (n *NumericAnswerExercise) Kind() ExerciseKind { return KindNumericAnswer }
func (n *NumericAnswerExercise) isExerciseBody()    {}

func (n *NumericAnswerExercise) Validate() error {
	if n.ParticipantCount <= 0 {
		return fmt.Errorf("%w: numeric answer needs participants", ErrInvalidExercise)
	}
	return nil
}

// Complete parses the raw input and compares it against the expected value
// exactly. Unparsable input is incorrect, not an error. An integral target
// must be entered as an integer: "125.0" does not satisfy 125.
func (n *NumericAnswerExercise) Complete(ans *AnswerState) bool {
	raw := strings.TrimSpace(ans.RawInput)
	if raw == "" {
		return false
	}
	if n.CorrectAnswer == float64(int64(n.CorrectAnswer)) {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return false
		}
		return float64(v) == n.CorrectAnswer
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return false
	}
	return v == n.CorrectAnswer
}

// RetryHint describes the structure of the expected value without giving
// it away, so an incorrect attempt can surface a retry affordance.
func (n *NumericAnswerExercise) RetryHint() string {
	return fmt.Sprintf("divide the total of %g between %d participants", n.TotalAmount, n.ParticipantCount)
}

// -----------------------------------------------------------------------------
// Freeform scenario choice
// -----------------------------------------------------------------------------

// FreeformScenarioExercise presents a narrative scenario and a set of
// possible reactions; the learner picks one.
type FreeformScenarioExercise struct {
	Scenario string
	Options  []ChoiceOption
}

func (f *FreeformScenarioExercise) Kind() ExerciseKind { return KindFreeformScenario }
func (f *FreeformScenarioExercise) isExerciseBody()    {}

func (f *FreeformScenarioExercise) Validate() error {
	if f.Scenario == "" {
		return fmt.Errorf("%w: freeform scenario needs a scenario", ErrInvalidExercise)
	}
	return validateSingleCorrect(f.Options)
}

func (f *FreeformScenarioExercise) Complete(ans *AnswerState) bool {
	return optionCorrect(f.Options, ans.OptionID)
}

// -----------------------------------------------------------------------------
// Shared option helpers
// -----------------------------------------------------------------------------

func validateSingleCorrect(options []ChoiceOption) error {
	if len(options) == 0 {
		return fmt.Errorf("%w: choice exercise needs options", ErrInvalidExercise)
	}
	correct := 0
	for _, opt := range options {
		if opt.Correct {
			correct++
		}
	}
	if correct != 1 {
		return fmt.Errorf("%w: expected exactly one correct option, found %d", ErrInvalidExercise, correct)
	}
	return nil
}

// optionCorrect reports whether the selected option is the correct one.
// No selection is always incomplete.
func optionCorrect(options []ChoiceOption, selected string) bool {
	if selected == "" {
		return false
	}
	for _, opt := range options {
		if opt.ID == selected {
			return opt.Correct
		}
	}
	return false
}
