package models

import "time"

// ConditionReading is a vibration/temperature sample reported for an asset.
type ConditionReading struct {
	ID          int64     `bson:"_id" json:"id"`
	AssetID     int64     `bson:"asset_id" json:"asset_id"`
	Vibration   float64   `bson:"vibration" json:"vibration"`     // mm/s RMS
	Temperature float64   `bson:"temperature" json:"temperature"` // degrees Celsius
	RecordedAt  time.Time `bson:"recorded_at" json:"recorded_at"`
}
