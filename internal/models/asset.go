package models

import "time"

// Asset represents a piece of equipment, vehicle or facility under maintenance.
type Asset struct {
	ID                   int64     `bson:"_id" json:"id"`
	Name                 string    `bson:"name" json:"name"`
	Type                 string    `bson:"type" json:"type"`
	Status               string    `bson:"status" json:"status"` // "Active", "Inactive", "Under Maintenance"
	Location             string    `bson:"location" json:"location,omitempty"`
	LastMaintenance      string    `bson:"last_maintenance" json:"last_maintenance,omitempty"`
	NextDue              string    `bson:"next_due" json:"next_due,omitempty"`
	QRCode               string    `bson:"qr_code" json:"qr_code,omitempty"`
	Mileage              *int64    `bson:"mileage,omitempty" json:"mileage,omitempty"`
	FuelLogs             []FuelLog `bson:"fuel_logs" json:"fuel_logs"`
	Photos               string    `bson:"photos" json:"photos,omitempty"`
	VibrationThreshold   *float64  `bson:"vibration_threshold,omitempty" json:"vibration_threshold,omitempty"`
	TemperatureThreshold *float64  `bson:"temperature_threshold,omitempty" json:"temperature_threshold,omitempty"`
	ParentID             *int64    `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	CriticalityScore     *int      `bson:"criticality_score,omitempty" json:"criticality_score,omitempty"`
	CreatedAt            time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt            time.Time `bson:"updated_at" json:"updated_at"`
}
