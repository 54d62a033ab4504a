package models

import "time"

// Work order statuses used by the dashboard. Status is free text; only
// "Completed" has meaning for the metrics.
const (
	WorkOrderOpen       = "Open"
	WorkOrderInProgress = "In Progress"
	WorkOrderCompleted  = "Completed"
)

// WorkOrder represents a unit of maintenance work on one asset.
type WorkOrder struct {
	ID            int64     `bson:"_id" json:"id"`
	AssetID       *int64    `bson:"asset_id,omitempty" json:"asset_id"`
	TechnicianID  *int64    `bson:"technician_id,omitempty" json:"technician_id"`
	Description   string    `bson:"description" json:"description"`
	Status        string    `bson:"status" json:"status"`
	Priority      string    `bson:"priority" json:"priority"` // "Low", "Medium", "High"
	DueDate       string    `bson:"due_date" json:"due_date,omitempty"`
	CreatedDate   string    `bson:"created_date" json:"created_date,omitempty"`
	CompletedDate string    `bson:"completed_date" json:"completed_date,omitempty"`
	PartsNeeded   string    `bson:"parts_needed" json:"parts_needed,omitempty"`
	Notes         string    `bson:"notes" json:"notes,omitempty"`
	Cost          *float64  `bson:"cost,omitempty" json:"cost"` // in USD
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}
