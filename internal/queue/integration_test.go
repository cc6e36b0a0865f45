//go:build integration

package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"

	"github.com/felixgeelhaar/raksha/internal/domain"
	"github.com/felixgeelhaar/raksha/internal/queue"
)

func setupRabbitMQ(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := rabbitmq.Run(ctx, "rabbitmq:3.12-management")
	if err != nil {
		t.Fatalf("start RabbitMQ container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	amqpURL, err := container.AmqpURL(ctx)
	if err != nil {
		t.Fatalf("get AMQP URL: %v", err)
	}
	return amqpURL
}

func TestIntegration_ConnectAndClose(t *testing.T) {
	conn, err := queue.NewConnection(setupRabbitMQ(t))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !conn.IsConnected() {
		t.Error("expected connection to be active")
	}
	if err := conn.Close(); err != nil {
		t.Errorf("close: %v", err)
	}
}

func TestIntegration_InvalidURL(t *testing.T) {
	if _, err := queue.NewConnection("amqp://invalid:5672"); err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestIntegration_PublishAwardAndBadge(t *testing.T) {
	conn, err := queue.NewConnection(setupRabbitMQ(t))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close()

	pub := queue.NewPublisher(conn)
	ctx := context.Background()
	learner := uuid.New()

	award := domain.AwardApplied{
		BaseEvent: domain.NewBaseEvent(domain.EventAwardApplied),
		LearnerID: learner,
		CourseID:  "safe-upi-payments",
		XPAwarded: 50,
		TotalXP:   50,
		Level:     1,
		Rank:      domain.RankBronze,
	}
	if err := pub.PublishAward(ctx, award); err != nil {
		t.Fatalf("publish award: %v", err)
	}

	badge := domain.BadgeEarned{
		BaseEvent: domain.NewBaseEvent(domain.EventBadgeEarned),
		LearnerID: learner,
		BadgeID:   "first-steps",
		BadgeName: "First Steps",
	}
	if err := pub.PublishBadge(ctx, badge); err != nil {
		t.Fatalf("publish badge: %v", err)
	}

	// Give the broker a moment before inspecting.
	time.Sleep(100 * time.Millisecond)

	ch := conn.Channel()
	if q, err := ch.QueueInspect(queue.AwardQueueName); err != nil || q.Messages != 1 {
		t.Errorf("award queue: err=%v messages=%d", err, q.Messages)
	}
	if q, err := ch.QueueInspect(queue.BadgeQueueName); err != nil || q.Messages != 1 {
		t.Errorf("badge queue: err=%v messages=%d", err, q.Messages)
	}
}

func TestIntegration_DispatcherBridge(t *testing.T) {
	conn, err := queue.NewConnection(setupRabbitMQ(t))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close()

	dispatcher := domain.NewEventDispatcher()
	queue.NewPublisher(conn).Attach(dispatcher)

	dispatcher.Publish(domain.AwardApplied{
		BaseEvent: domain.NewBaseEvent(domain.EventAwardApplied),
		LearnerID: uuid.New(),
		CourseID:  "social-media-safety",
		XPAwarded: 75,
	})

	time.Sleep(100 * time.Millisecond)

	q, err := conn.Channel().QueueInspect(queue.AwardQueueName)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if q.Messages != 1 {
		t.Errorf("award queue messages = %d", q.Messages)
	}
}
