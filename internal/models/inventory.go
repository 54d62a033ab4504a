package models

import "time"

// InventoryItem represents a stocked spare part.
type InventoryItem struct {
	ID           int64     `bson:"_id" json:"id"`
	ItemName     string    `bson:"item_name" json:"item_name"`
	PartNumber   string    `bson:"part_number" json:"part_number,omitempty"`
	Quantity     int       `bson:"quantity" json:"quantity"`
	Location     string    `bson:"location" json:"location,omitempty"`
	ReorderLevel *int      `bson:"reorder_level,omitempty" json:"reorder_level,omitempty"`
	Supplier     string    `bson:"supplier" json:"supplier,omitempty"`
	UnitPrice    *float64  `bson:"unit_price,omitempty" json:"unit_price,omitempty"` // in USD
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}
