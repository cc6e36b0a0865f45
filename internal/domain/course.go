package domain

import "fmt"

// Difficulty represents course difficulty level
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// Lesson is one unit of content plus exactly one exercise within a course.
type Lesson struct {
	ID       string // slug: "safe-upi-payments/lesson-1"
	Number   int    // 1-based position within the course
	Title    string
	Story    string // narrative framing
	Concept  string // educational content
	Exercise Exercise
}

// Course owns an ordered sequence of lessons and the flat XP award each
// lesson pays out. Course data is inert: it is authored externally and
// immutable at runtime.
type Course struct {
	ID          string // slug: "safe-upi-payments"
	Title       string
	Description string
	Difficulty  Difficulty
	Icon        string
	XPPerLesson int
	Lessons     []Lesson
}

// TotalLessons returns the lesson count.
func (c *Course) TotalLessons() int {
	return len(c.Lessons)
}

// Lesson returns the lesson at the given 1-based number.
func (c *Course) Lesson(number int) (*Lesson, error) {
	if number < 1 || number > len(c.Lessons) {
		return nil, ErrLessonNotFound
	}
	return &c.Lessons[number-1], nil
}

// IsFinalLesson reports whether the lesson number is the course's last.
func (c *Course) IsFinalLesson(number int) bool {
	return number == len(c.Lessons)
}

// Validate checks the course's structural invariants, including every
// lesson's exercise.
func (c *Course) Validate() error {
	if c.ID == "" || c.Title == "" {
		return fmt.Errorf("%w: course needs id and title", ErrInvalidInput)
	}
	if c.XPPerLesson <= 0 {
		return fmt.Errorf("%w: course %q needs a positive xp award", ErrInvalidInput, c.ID)
	}
	if len(c.Lessons) == 0 {
		return fmt.Errorf("%w: course %q has no lessons", ErrInvalidInput, c.ID)
	}
	for i := range c.Lessons {
		lesson := &c.Lessons[i]
		if lesson.Number != i+1 {
			return fmt.Errorf("%w: lesson %q numbered %d at position %d",
				ErrInvalidInput, lesson.ID, lesson.Number, i+1)
		}
		if err := lesson.Exercise.Validate(); err != nil {
			return fmt.Errorf("lesson %q: %w", lesson.ID, err)
		}
	}
	return nil
}
