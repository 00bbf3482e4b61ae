package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const EventProjectCreated = "project_created"

// ActivityEvent records something that happened in the dashboard for
// downstream consumers of the activity stream.
type ActivityEvent struct {
	Type           string
	ProjectID      string
	OrganizationID string
	Slug           string
	ActorID        string
	TraceID        *string
	OccurredAt     time.Time
}

type Producer interface {
	Publish(ctx context.Context, event ActivityEvent) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

// NewRedisProducerFromURL parses a redis:// URL and checks the connection.
func NewRedisProducerFromURL(ctx context.Context, redisURL, stream string, logger *slog.Logger) (Producer, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisProducer(client, stream, logger), nil
}

func (p *redisProducer) Publish(ctx context.Context, event ActivityEvent) error {
	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: eventFields(event),
	}).Err(); err != nil {
		return fmt.Errorf("publish activity: %w", err)
	}

	p.logger.DebugContext(ctx, "published activity event", "type", event.Type, "project_id", event.ProjectID)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}

func eventFields(event ActivityEvent) map[string]any {
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	fields := map[string]any{
		"type":            event.Type,
		"project_id":      event.ProjectID,
		"organization_id": event.OrganizationID,
		"slug":            event.Slug,
		"occurred_at":     occurredAt.UTC().Format(time.RFC3339Nano),
	}
	if event.ActorID != "" {
		fields["actor_id"] = event.ActorID
	}
	if event.TraceID != nil && *event.TraceID != "" {
		fields["trace_id"] = *event.TraceID
	}
	return fields
}
