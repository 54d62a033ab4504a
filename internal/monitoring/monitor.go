// Package monitoring records asset condition readings and raises alerts for
// exceeded thresholds and low stock.
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/proworkshop/internal/db"
	"github.com/ukydev/proworkshop/internal/metrics"
	"github.com/ukydev/proworkshop/internal/models"
)

// ErrInvalidReading is returned for readings with non-finite values.
var ErrInvalidReading = errors.New("invalid condition reading")

// Notifier delivers alerts to whoever listens for them.
type Notifier interface {
	Notify(ctx context.Context, alert models.Alert) error
}

// NopNotifier drops every alert.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, models.Alert) error { return nil }

// Monitor checks incoming readings and stock levels against their limits.
type Monitor struct {
	assets   db.AssetCollection
	readings db.ConditionCollection
	notifier Notifier
	log      logrus.FieldLogger
	now      func() time.Time
}

// New creates a monitor. A nil notifier discards alerts.
func New(assets db.AssetCollection, readings db.ConditionCollection, notifier Notifier, log logrus.FieldLogger) *Monitor {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Monitor{
		assets:   assets,
		readings: readings,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// RecordReading stores a reading for an existing asset and returns the alerts
// it raised. A zero RecordedAt is stamped with the current time. Delivery
// failures are logged and do not fail the call.
func (m *Monitor) RecordReading(ctx context.Context, reading models.ConditionReading) (models.ConditionReading, []models.Alert, error) {
	if !finite(reading.Vibration) || !finite(reading.Temperature) {
		return reading, nil, ErrInvalidReading
	}
	asset, err := m.assets.FindByID(ctx, reading.AssetID)
	if err != nil {
		return reading, nil, err
	}
	if reading.RecordedAt.IsZero() {
		reading.RecordedAt = m.now()
	}
	reading.RecordedAt = reading.RecordedAt.UTC()

	id, err := m.readings.InsertReading(ctx, reading)
	if err != nil {
		return reading, nil, fmt.Errorf("store reading: %w", err)
	}
	reading.ID = id

	alerts := metrics.ConditionAlerts(*asset, reading)
	for _, alert := range alerts {
		m.notify(ctx, alert)
	}
	return reading, alerts, nil
}

// CheckStock raises a low stock alert when the item is at or below its
// reorder level. It reports whether an alert was raised.
func (m *Monitor) CheckStock(ctx context.Context, item models.InventoryItem) bool {
	alert, ok := metrics.LowStockAlert(item)
	if !ok {
		return false
	}
	alert.RaisedAt = m.now().UTC()
	m.notify(ctx, alert)
	return true
}

func (m *Monitor) notify(ctx context.Context, alert models.Alert) {
	entry := m.log.WithFields(logrus.Fields{"kind": alert.Kind, "entity_id": alert.EntityID})
	if err := m.notifier.Notify(ctx, alert); err != nil {
		entry.WithError(err).Warn("Failed to deliver alert")
		return
	}
	entry.Info(alert.Message)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
