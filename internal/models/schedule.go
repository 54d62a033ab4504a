package models

import "time"

// Schedule statuses.
const (
	SchedulePending   = "Pending"
	ScheduleCompleted = "Completed"
	ScheduleCancelled = "Cancelled"
)

// Schedule represents a planned maintenance task for an asset.
type Schedule struct {
	ID              int64     `bson:"_id" json:"id"`
	AssetID         *int64    `bson:"asset_id,omitempty" json:"asset_id"`
	MaintenanceType string    `bson:"maintenance_type" json:"maintenance_type"`
	ScheduledDate   string    `bson:"scheduled_date" json:"scheduled_date"`
	Status          string    `bson:"status" json:"status"`
	Recurring       string    `bson:"recurring" json:"recurring,omitempty"` // "", "weekly", "monthly", ...
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}
