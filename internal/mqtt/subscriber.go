package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/proworkshop/internal/models"
)

// ReadingRecorder stores a condition reading and reports the alerts it raised.
type ReadingRecorder interface {
	RecordReading(ctx context.Context, reading models.ConditionReading) (models.ConditionReading, []models.Alert, error)
}

// ConditionTopic returns the wildcard topic sensors publish readings on.
func ConditionTopic(prefix string) string {
	return prefix + "/assets/+/condition"
}

// conditionPayload is what a sensor sends. Both measurements are required.
type conditionPayload struct {
	Vibration   *float64   `json:"vibration"`
	Temperature *float64   `json:"temperature"`
	RecordedAt  *time.Time `json:"recorded_at,omitempty"`
}

// ConditionSubscriber feeds sensor readings from the broker into a recorder.
type ConditionSubscriber struct {
	client   Client
	prefix   string
	recorder ReadingRecorder
	log      logrus.FieldLogger
	timeout  time.Duration
}

// NewConditionSubscriber creates a subscriber; call Start to begin receiving.
func NewConditionSubscriber(client Client, prefix string, recorder ReadingRecorder, log logrus.FieldLogger) *ConditionSubscriber {
	return &ConditionSubscriber{
		client:   client,
		prefix:   prefix,
		recorder: recorder,
		log:      log,
		timeout:  5 * time.Second,
	}
}

// Start subscribes to the condition topic.
func (s *ConditionSubscriber) Start() error {
	topic := ConditionTopic(s.prefix)
	if err := wait(s.client.Subscribe(topic, qosAtLeastOnce, s.handle), connectTimeout); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	s.log.WithField("topic", topic).Info("Listening for condition readings")
	return nil
}

// Stop unsubscribes from the condition topic.
func (s *ConditionSubscriber) Stop() error {
	return wait(s.client.Unsubscribe(ConditionTopic(s.prefix)), connectTimeout)
}

func (s *ConditionSubscriber) handle(_ paho.Client, msg paho.Message) {
	entry := s.log.WithField("topic", msg.Topic())

	reading, err := s.parse(msg.Topic(), msg.Payload())
	if err != nil {
		entry.WithError(err).Warn("Dropping condition reading")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	stored, alerts, err := s.recorder.RecordReading(ctx, reading)
	if err != nil {
		entry.WithError(err).Error("Failed to record condition reading")
		return
	}
	entry.WithFields(logrus.Fields{
		"asset_id":   stored.AssetID,
		"reading_id": stored.ID,
		"alerts":     len(alerts),
	}).Debug("Recorded condition reading")
}

// parse extracts the asset id from <prefix>/assets/<id>/condition and
// decodes the payload.
func (s *ConditionSubscriber) parse(topic string, payload []byte) (models.ConditionReading, error) {
	rest, ok := strings.CutPrefix(topic, s.prefix+"/assets/")
	if !ok {
		return models.ConditionReading{}, fmt.Errorf("unexpected topic %q", topic)
	}
	idText, ok := strings.CutSuffix(rest, "/condition")
	if !ok {
		return models.ConditionReading{}, fmt.Errorf("unexpected topic %q", topic)
	}
	assetID, err := strconv.ParseInt(idText, 10, 64)
	if err != nil || assetID <= 0 {
		return models.ConditionReading{}, fmt.Errorf("invalid asset id %q", idText)
	}

	var p conditionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return models.ConditionReading{}, fmt.Errorf("decode payload: %w", err)
	}
	if p.Vibration == nil || p.Temperature == nil {
		return models.ConditionReading{}, errors.New("vibration and temperature are required")
	}

	reading := models.ConditionReading{
		AssetID:     assetID,
		Vibration:   *p.Vibration,
		Temperature: *p.Temperature,
	}
	if p.RecordedAt != nil {
		reading.RecordedAt = *p.RecordedAt
	}
	return reading, nil
}
