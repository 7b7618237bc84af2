package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"complianceai/internal/config"

	"cloud.google.com/go/pubsub"
)

const (
	EventDocumentGenerated     = "document.generated"
	EventDocumentStatusChanged = "document.status_changed"
	EventSubscriptionActivated = "subscription.activated"
)

// Publisher defines an interface for publishing messages.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) (string, error)
}

// Event is the JSON body of every domain event.
type Event struct {
	Type       string            `json:"type"`
	CompanyID  string            `json:"company_id"`
	UserID     string            `json:"user_id,omitempty"`
	EntityID   string            `json:"entity_id,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// PublishEvent encodes e and publishes it to topic. A nil publisher or an
// empty topic is a no-op.
func PublishEvent(ctx context.Context, p Publisher, topic string, e Event) (string, error) {
	if p == nil || topic == "" {
		return "", nil
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encoding %s event: %w", e.Type, err)
	}
	return p.Publish(ctx, topic, payload)
}

// PubSubPublisher is an implementation of Publisher using Google Pub/Sub.
type PubSubPublisher struct {
	client *pubsub.Client
}

// NewPublisher creates a new PubSubPublisher using the GCP project from config.
func NewPublisher(ctx context.Context, cfg *config.Config) (*PubSubPublisher, error) {
	if cfg.GCPProjectID == "" {
		return nil, errors.New("GCP project ID is not set")
	}
	client, err := pubsub.NewClient(ctx, cfg.GCPProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}
	return &PubSubPublisher{client: client}, nil
}

// Publish sends the payload to the given Pub/Sub topic and returns the message ID.
func (p *PubSubPublisher) Publish(ctx context.Context, topic string, payload []byte) (string, error) {
	t := p.client.Topic(topic)
	result := t.Publish(ctx, &pubsub.Message{
		Data:       payload,
		Attributes: map[string]string{"content-type": "application/json"},
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to publish message to topic %s: %w", topic, err)
	}
	return id, nil
}

func (p *PubSubPublisher) Close() error {
	return p.client.Close()
}
