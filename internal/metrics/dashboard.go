package metrics

import (
	"time"

	"github.com/ukydev/proworkshop/internal/models"
)

// Snapshot is the set of collections a dashboard is computed from.
type Snapshot struct {
	Assets      []models.Asset
	WorkOrders  []models.WorkOrder
	Technicians []models.Technician
	Inventory   []models.InventoryItem
	Schedules   []models.Schedule
	// LatestReadings holds at most one recent reading per asset.
	LatestReadings []models.ConditionReading
}

// Options tunes the dashboard computation.
type Options struct {
	FuelPricePerGallon float64
	UpcomingWindowDays int
}

// DefaultOptions returns the stock fuel price and upcoming window.
func DefaultOptions() Options {
	return Options{
		FuelPricePerGallon: DefaultFuelPricePerGallon,
		UpcomingWindowDays: DefaultUpcomingWindowDays,
	}
}

// AssetMetrics are the derived figures shown next to an asset.
type AssetMetrics struct {
	AssetID         int64       `json:"asset_id"`
	Name            string      `json:"name"`
	MaintenanceCost float64     `json:"maintenance_cost"`
	Utilization     float64     `json:"utilization"`
	FuelCostPerMile CostPerMile `json:"fuel_cost_per_mile"`
}

// ComputeAssetMetrics derives the per-asset figures.
func ComputeAssetMetrics(asset models.Asset, workOrders []models.WorkOrder, now time.Time, pricePerGallon float64) AssetMetrics {
	return AssetMetrics{
		AssetID:         asset.ID,
		Name:            asset.Name,
		MaintenanceCost: MaintenanceCost(asset.ID, workOrders),
		Utilization:     Utilization(asset.ID, workOrders, now),
		FuelCostPerMile: FuelCostPerMile(asset, pricePerGallon),
	}
}

// FuelEfficiency is one row of the dashboard fuel table.
type FuelEfficiency struct {
	AssetID     int64       `json:"asset_id"`
	Name        string      `json:"name"`
	CostPerMile CostPerMile `json:"cost_per_mile"`
}

// Dashboard is the aggregate view rendered on the landing page.
type Dashboard struct {
	TotalAssets         int                    `json:"total_assets"`
	OpenWorkOrders      int                    `json:"open_work_orders"`
	ActiveTechnicians   int                    `json:"active_technicians"`
	OverdueCount        int                    `json:"overdue_schedules"`
	LowInventoryCount   int                    `json:"low_inventory_items"`
	TechnicianWorkload  float64                `json:"technician_workload"`
	Overdue             []models.Schedule      `json:"overdue_schedule_list"`
	LowInventory        []models.InventoryItem `json:"low_inventory_list"`
	TechnicianStats     []TechnicianSummary    `json:"technician_stats"`
	UpcomingMaintenance []models.Asset         `json:"upcoming_maintenance"`
	FuelEfficiency      []FuelEfficiency       `json:"fuel_efficiency"`
	ConditionAlerts     []models.Alert         `json:"condition_alerts"`
}

// Summarize computes the dashboard for the snapshot at now.
func Summarize(s Snapshot, now time.Time, opts Options) Dashboard {
	d := Dashboard{
		TotalAssets:         len(s.Assets),
		OpenWorkOrders:      OpenWorkOrders(s.WorkOrders),
		ActiveTechnicians:   len(s.Technicians),
		Overdue:             []models.Schedule{},
		LowInventory:        []models.InventoryItem{},
		TechnicianStats:     make([]TechnicianSummary, 0, len(s.Technicians)),
		UpcomingMaintenance: []models.Asset{},
		FuelEfficiency:      make([]FuelEfficiency, 0, len(s.Assets)),
		ConditionAlerts:     []models.Alert{},
	}
	d.TechnicianWorkload = TechnicianWorkload(d.OpenWorkOrders, d.ActiveTechnicians)

	for _, sched := range s.Schedules {
		if OverdueSchedule(sched, now) {
			d.Overdue = append(d.Overdue, sched)
		}
	}
	d.OverdueCount = len(d.Overdue)

	for _, item := range s.Inventory {
		if LowStock(item) {
			d.LowInventory = append(d.LowInventory, item)
		}
	}
	d.LowInventoryCount = len(d.LowInventory)

	for _, tech := range s.Technicians {
		d.TechnicianStats = append(d.TechnicianStats, TechnicianStats(tech, s.WorkOrders))
	}

	for asset := range UpcomingMaintenance(s.Assets, now, opts.UpcomingWindowDays) {
		d.UpcomingMaintenance = append(d.UpcomingMaintenance, asset)
	}

	byID := make(map[int64]models.Asset, len(s.Assets))
	for _, asset := range s.Assets {
		byID[asset.ID] = asset
		d.FuelEfficiency = append(d.FuelEfficiency, FuelEfficiency{
			AssetID:     asset.ID,
			Name:        asset.Name,
			CostPerMile: FuelCostPerMile(asset, opts.FuelPricePerGallon),
		})
	}

	for _, reading := range s.LatestReadings {
		asset, ok := byID[reading.AssetID]
		if !ok {
			continue
		}
		d.ConditionAlerts = append(d.ConditionAlerts, ConditionAlerts(asset, reading)...)
	}

	return d
}
