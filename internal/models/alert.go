package models

import "time"

// Alert kinds published to subscribers.
const (
	AlertLowStock  = "low_stock"
	AlertCondition = "condition"
)

// Alert is a notification raised by a threshold check.
type Alert struct {
	Kind     string    `json:"kind"`
	EntityID int64     `json:"entity_id"`
	Message  string    `json:"message"`
	Value    float64   `json:"value,omitempty"`
	Limit    float64   `json:"limit,omitempty"`
	RaisedAt time.Time `json:"raised_at"`
}
