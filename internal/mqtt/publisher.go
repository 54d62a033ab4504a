package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ukydev/proworkshop/internal/models"
)

// AlertPublisher publishes alerts as JSON to <prefix>/alerts/<kind>.
type AlertPublisher struct {
	client Client
	prefix string
}

// NewAlertPublisher creates a publisher on an already connected client.
func NewAlertPublisher(client Client, prefix string) *AlertPublisher {
	return &AlertPublisher{client: client, prefix: prefix}
}

// AlertTopic returns the topic alerts of kind are published on.
func AlertTopic(prefix, kind string) string {
	return prefix + "/alerts/" + kind
}

// Notify publishes the alert and waits for the broker to accept it or ctx to
// end.
func (p *AlertPublisher) Notify(ctx context.Context, alert models.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("encode alert: %w", err)
	}

	token := p.client.Publish(AlertTopic(p.prefix, alert.Kind), qosAtLeastOnce, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReadingTopic returns the topic a sensor publishes readings for assetID on.
func ReadingTopic(prefix string, assetID int64) string {
	return fmt.Sprintf("%s/assets/%d/condition", prefix, assetID)
}

// ReadingPublisher sends condition readings the way field sensors do.
type ReadingPublisher struct {
	client Client
	prefix string
}

// NewReadingPublisher creates a reading publisher on a connected client.
func NewReadingPublisher(client Client, prefix string) *ReadingPublisher {
	return &ReadingPublisher{client: client, prefix: prefix}
}

// Publish sends the reading to its asset topic and waits for the broker to
// accept it or ctx to end.
func (p *ReadingPublisher) Publish(ctx context.Context, reading models.ConditionReading) error {
	body := conditionPayload{Vibration: &reading.Vibration, Temperature: &reading.Temperature}
	if !reading.RecordedAt.IsZero() {
		body.RecordedAt = &reading.RecordedAt
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode reading: %w", err)
	}

	token := p.client.Publish(ReadingTopic(p.prefix, reading.AssetID), qosAtLeastOnce, false, payload)
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
