package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/raksha/internal/domain"
)

// jsonPublisher is the slice of Connection the publisher needs.
type jsonPublisher interface {
	PublishJSON(ctx context.Context, queue string, data any) error
}

// Publisher forwards reward events onto the broker. Publishing is best
// effort: a broker outage must never fail or delay an award, so failures
// are logged and dropped.
type Publisher struct {
	conn    jsonPublisher
	timeout time.Duration
}

// NewPublisher creates a reward event publisher.
func NewPublisher(conn jsonPublisher) *Publisher {
	return &Publisher{conn: conn, timeout: 5 * time.Second}
}

// PublishAward publishes an AwardApplied event.
func (p *Publisher) PublishAward(ctx context.Context, ev domain.AwardApplied) error {
	if err := p.conn.PublishJSON(ctx, AwardQueueName, ev); err != nil {
		return err
	}
	slog.Info("published award event",
		"learner_id", ev.LearnerID,
		"course_id", ev.CourseID,
		"xp_awarded", ev.XPAwarded)
	return nil
}

// PublishBadge publishes a BadgeEarned event.
func (p *Publisher) PublishBadge(ctx context.Context, ev domain.BadgeEarned) error {
	if err := p.conn.PublishJSON(ctx, BadgeQueueName, ev); err != nil {
		return err
	}
	slog.Info("published badge event",
		"learner_id", ev.LearnerID,
		"badge", ev.BadgeID)
	return nil
}

// Attach subscribes the publisher to a dispatcher so every reward event
// the ledger emits ends up on the broker.
func (p *Publisher) Attach(d *domain.EventDispatcher) {
	d.Subscribe(domain.EventAwardApplied, func(e domain.Event) {
		ev, ok := e.(domain.AwardApplied)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.PublishAward(ctx, ev); err != nil {
			slog.Error("publish award event failed", "error", err)
		}
	})

	d.Subscribe(domain.EventBadgeEarned, func(e domain.Event) {
		ev, ok := e.(domain.BadgeEarned)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.PublishBadge(ctx, ev); err != nil {
			slog.Error("publish badge event failed", "error", err)
		}
	})
}
