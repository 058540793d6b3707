package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"creatorflow/internal/config"

	"cloud.google.com/go/pubsub"
)

// Publisher defines an interface for publishing analytics events.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, event Event) (string, error)
}

// Event is the analytics envelope published when something notable happens
// (a post gets published, an AI call is logged, a trial converts).
type Event struct {
	Type       string            `json:"type"`
	UserID     string            `json:"user_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Event types.
const (
	EventPostPublished  = "post.published"
	EventPostFailed     = "post.failed"
	EventAICallLogged   = "ai_call.logged"
	EventTrialConverted = "trial.converted"
)

// PubSubPublisher is an implementation of Publisher using Google Pub/Sub.
type PubSubPublisher struct {
	client *pubsub.Client
}

// NewPublisher creates a new PubSubPublisher using the GCP project from config.
func NewPublisher(ctx context.Context, cfg *config.Config) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}
	return &PubSubPublisher{client: client}, nil
}

// PublishEvent marshals the event and sends it to the given topic, returning
// the message ID.
func (p *PubSubPublisher) PublishEvent(ctx context.Context, topic string, event Event) (string, error) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event %s: %w", event.Type, err)
	}
	t := p.client.Topic(topic)
	result := t.Publish(ctx, &pubsub.Message{Data: payload})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to publish event to topic %s: %w", topic, err)
	}
	return id, nil
}
