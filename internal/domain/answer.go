package domain

// AnswerState holds the learner's in-progress selections for the active
// exercise variant. It is created empty when a lesson is entered and
// discarded when the lesson changes; a single interaction thread mutates
// it, so no locking is needed.
type AnswerState struct {
	// Assignments maps item ID to category. Keying by item guarantees an
	// item is never in two categories at once.
	Assignments map[string]string

	// Selected is the multi-select detection set.
	Selected map[string]bool

	// Choices maps scenario ID to the chosen side, last write wins.
	Choices map[string]Side

	// RawInput is the unparsed numeric answer; parsing is deferred to
	// evaluation so any input is representable.
	RawInput string

	// OptionID is the single selected option for choice variants.
	OptionID string
}

// NewAnswerState returns an empty answer state for a fresh lesson visit.
func NewAnswerState() *AnswerState {
	return &AnswerState{
		Assignments: make(map[string]string),
		Selected:    make(map[string]bool),
		Choices:     make(map[string]Side),
	}
}

// Assign places an item into a category. If the item was already placed
// somewhere, this is a move: the previous placement is replaced, so the
// caller never has to pre-clear.
func (a *AnswerState) Assign(itemID, category string) {
	a.Assignments[itemID] = category
}

// Unassign removes an item from whichever category holds it.
func (a *AnswerState) Unassign(itemID string) {
	delete(a.Assignments, itemID)
}

// ItemsIn returns the IDs currently assigned to a category.
func (a *AnswerState) ItemsIn(category string) []string {
	var ids []string
	for id, cat := range a.Assignments {
		if cat == category {
			ids = append(ids, id)
		}
	}
	return ids
}

// Toggle flips a message in or out of the selected set.
func (a *AnswerState) Toggle(id string) {
	if a.Selected[id] {
		delete(a.Selected, id)
	} else {
		a.Selected[id] = true
	}
}

// SetChoice records the chosen side for a scenario, replacing any prior
// choice for that scenario.
func (a *AnswerState) SetChoice(scenarioID string, side Side) {
	a.Choices[scenarioID] = side
}

// SetRaw stores the numeric input as typed.
func (a *AnswerState) SetRaw(value string) {
	a.RawInput = value
}

// SelectOption records the selected option, replacing any prior selection.
func (a *AnswerState) SelectOption(id string) {
	a.OptionID = id
}

// Touched reports whether the learner has interacted with the exercise at
// all; it drives the informational NotStarted -> InProgress transition.
func (a *AnswerState) Touched() bool {
	return len(a.Assignments) > 0 || len(a.Selected) > 0 || len(a.Choices) > 0 ||
		a.RawInput != "" || a.OptionID != ""
}
