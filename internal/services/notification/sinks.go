package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"civicreward/internal/models"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// DefaultChannel is the Redis pub/sub channel events are published on.
const DefaultChannel = "rewards:notifications"

// LogSink writes events to the process log.
type LogSink struct{}

func (LogSink) Name() string { return "log" }

func (LogSink) Deliver(_ context.Context, event Event) error {
	log.Printf("🔔 %s → users=%v roles=%v: %s", event.Kind, event.Audience.UserIDs, event.Audience.Roles, event.Message)
	return nil
}

// RedisSink publishes events as JSON for the push-delivery service.
type RedisSink struct {
	client  *redis.Client
	channel string
}

func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) Deliver(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return s.client.Publish(ctx, s.channel, data).Err()
}

// OutboxSink appends events to the notification_outbox table.
type OutboxSink struct {
	db *gorm.DB
}

func NewOutboxSink(db *gorm.DB) *OutboxSink {
	return &OutboxSink{db: db}
}

func (s *OutboxSink) Name() string { return "outbox" }

func (s *OutboxSink) Deliver(ctx context.Context, event Event) error {
	row := models.NotificationOutbox{
		Kind:      string(event.Kind),
		Title:     event.Title,
		Message:   event.Message,
		Payload:   models.NewJSON(event.Payload),
		UserIDs:   pq.StringArray(event.Audience.UserIDs),
		Roles:     pq.StringArray(event.Audience.Roles),
		CreatedAt: event.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to write outbox: %w", err)
	}
	return nil
}
