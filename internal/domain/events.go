package domain

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Event Interface and Base Event
// -----------------------------------------------------------------------------

// Event represents a domain event
type Event interface {
	// EventID returns the unique identifier for this event
	EventID() uuid.UUID
	// EventType returns the type name of this event
	EventType() string
	// OccurredAt returns when this event occurred
	OccurredAt() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent creates a new BaseEvent
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now(),
	}
}

func (e BaseEvent) EventID() uuid.UUID    { return e.ID }
func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// Event type names
const (
	EventLessonCompleted = "lesson.completed"
	EventAwardApplied    = "award.applied"
	EventBadgeEarned     = "badge.earned"
)

// LessonCompleted fires exactly once per lesson visit, on the edge into
// the Completed state. It is the input to the reward ledger.
type LessonCompleted struct {
	BaseEvent
	LearnerID    uuid.UUID `json:"learner_id"`
	CourseID     string    `json:"course_id"`
	LessonNumber int       `json:"lesson_number"`
	XPAward      int       `json:"xp_award"`
}

// NewLessonCompleted creates a completion event for the reward ledger.
func NewLessonCompleted(learnerID uuid.UUID, courseID string, lessonNumber, xpAward int) LessonCompleted {
	return LessonCompleted{
		BaseEvent:    NewBaseEvent(EventLessonCompleted),
		LearnerID:    learnerID,
		CourseID:     courseID,
		LessonNumber: lessonNumber,
		XPAward:      xpAward,
	}
}

// Key returns the idempotency key for this completion.
func (e LessonCompleted) Key() CompletionKey {
	return CompletionKey{
		LearnerID:    e.LearnerID,
		CourseID:     e.CourseID,
		LessonNumber: e.LessonNumber,
	}
}

// AwardApplied fires after the ledger persists an award; collaborators
// such as the presentation layer and the event feed consume it.
type AwardApplied struct {
	BaseEvent
	LearnerID uuid.UUID `json:"learner_id"`
	CourseID  string    `json:"course_id"`
	XPAwarded int       `json:"xp_awarded"`
	TotalXP   int       `json:"total_xp"`
	Level     int       `json:"level"`
	Rank      Rank      `json:"rank"`
}

// BadgeEarned fires when the ledger grants a badge.
type BadgeEarned struct {
	BaseEvent
	LearnerID uuid.UUID `json:"learner_id"`
	BadgeID   string    `json:"badge_id"`
	BadgeName string    `json:"badge_name"`
}

// -----------------------------------------------------------------------------
// Event Handler and Dispatcher
// -----------------------------------------------------------------------------

// EventHandler processes domain events
type EventHandler func(event Event)

// EventDispatcher manages event subscriptions and publishing
type EventDispatcher struct {
	mu          sync.RWMutex
	handlers    map[string][]EventHandler
	allHandlers []EventHandler // handlers for all events
}

// NewEventDispatcher creates a new event dispatcher
func NewEventDispatcher() *EventDispatcher {
	return &EventDispatcher{
		handlers: make(map[string][]EventHandler),
	}
}

// Subscribe registers a handler for a specific event type
func (d *EventDispatcher) Subscribe(eventType string, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// SubscribeAll registers a handler for all event types
func (d *EventDispatcher) SubscribeAll(handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.allHandlers = append(d.allHandlers, handler)
}

// Publish dispatches an event to all registered handlers
func (d *EventDispatcher) Publish(event Event) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if handlers, ok := d.handlers[event.EventType()]; ok {
		for _, h := range handlers {
			h(event)
		}
	}

	for _, h := range d.allHandlers {
		h(event)
	}
}
