package metrics

import (
	"iter"
	"math"
	"time"

	"github.com/ukydev/proworkshop/internal/models"
)

const (
	// DefaultFuelPricePerGallon is the fuel price assumed when none is configured.
	DefaultFuelPricePerGallon = 3.50
	// DefaultUpcomingWindowDays is how far ahead UpcomingMaintenance looks.
	DefaultUpcomingWindowDays = 7
	// UtilizationWindowDays is the trailing window used by Utilization.
	UtilizationWindowDays = 30
)

// MaintenanceCost sums the cost of every work order raised against the asset.
// Missing or non-finite costs count as zero.
func MaintenanceCost(assetID int64, workOrders []models.WorkOrder) float64 {
	total := 0.0
	for _, wo := range workOrders {
		if !refersTo(wo.AssetID, assetID) || wo.Cost == nil {
			continue
		}
		total += finite(*wo.Cost)
	}
	return round2(total)
}

// Utilization reports the share of the trailing 30 days the asset was not
// down for maintenance. Only work orders whose whole [created, completed]
// interval lies inside [now-30d, now] count; each contributes its length
// rounded up to whole days. Downtime is not capped, so heavily overlapping
// orders push the result below zero.
func Utilization(assetID int64, workOrders []models.WorkOrder, now time.Time) float64 {
	windowStart := now.AddDate(0, 0, -UtilizationWindowDays)

	downtime := 0.0
	for _, wo := range workOrders {
		if !refersTo(wo.AssetID, assetID) {
			continue
		}
		start, ok := parseDate(wo.CreatedDate)
		if !ok {
			continue
		}
		end, ok := parseDate(wo.CompletedDate)
		if !ok {
			continue
		}
		if start.Before(windowStart) || end.After(now) {
			continue
		}
		downtime += math.Ceil(math.Abs(days(end.Sub(start))))
	}

	return round2((UtilizationWindowDays - downtime) / UtilizationWindowDays * 100)
}

// FuelCostPerMile estimates fuel spend per mile from the asset's fuel logs.
// It needs at least two log entries and a positive mileage; otherwise the
// result has OK == false.
func FuelCostPerMile(asset models.Asset, pricePerGallon float64) CostPerMile {
	if len(asset.FuelLogs) < 2 || asset.Mileage == nil || *asset.Mileage <= 0 {
		return CostPerMile{}
	}

	gallons := 0.0
	for _, entry := range asset.FuelLogs {
		gallons += finite(entry.Gallons)
	}

	cost := gallons * pricePerGallon / float64(*asset.Mileage)
	if math.IsNaN(cost) || math.IsInf(cost, 0) {
		return CostPerMile{}
	}
	return CostPerMile{Value: round2(cost), OK: true}
}

// OverdueSchedule reports whether a pending schedule's date has passed.
func OverdueSchedule(schedule models.Schedule, now time.Time) bool {
	if schedule.Status != models.SchedulePending {
		return false
	}
	scheduled, ok := parseDate(schedule.ScheduledDate)
	if !ok {
		return false
	}
	return scheduled.Before(now)
}

// LowStock reports whether an item is at or below its reorder level.
// Items without a reorder level are never low.
func LowStock(item models.InventoryItem) bool {
	if item.ReorderLevel == nil {
		return false
	}
	return item.Quantity <= *item.ReorderLevel
}

// UpcomingMaintenance yields, in input order, the assets whose next due date
// falls between today and windowDays ahead (days rounded up). The sequence
// reads the slice lazily and may be ranged over more than once.
func UpcomingMaintenance(assets []models.Asset, now time.Time, windowDays int) iter.Seq[models.Asset] {
	return func(yield func(models.Asset) bool) {
		for _, asset := range assets {
			if !dueWithin(asset, now, windowDays) {
				continue
			}
			if !yield(asset) {
				return
			}
		}
	}
}

func dueWithin(asset models.Asset, now time.Time, windowDays int) bool {
	due, ok := parseDate(asset.NextDue)
	if !ok {
		return false
	}
	diff := math.Ceil(days(due.Sub(now)))
	return diff >= 0 && diff <= float64(windowDays)
}

// TechnicianSummary is the workload view of one technician, recomputed from
// work order history.
type TechnicianSummary struct {
	TechnicianID       int64   `json:"technician_id"`
	Name               string  `json:"name"`
	OpenTasks          int     `json:"open_tasks"`
	CompletedTasks     int     `json:"completed_tasks"`
	AvgCompletionHours float64 `json:"avg_completion_hours"`
}

// TechnicianStats counts the technician's open and completed work orders and
// averages completion time, in hours, over completed orders carrying both
// dates.
func TechnicianStats(technician models.Technician, workOrders []models.WorkOrder) TechnicianSummary {
	summary := TechnicianSummary{TechnicianID: technician.ID, Name: technician.Name}

	var totalHours float64
	var timed int
	for _, wo := range workOrders {
		if !refersTo(wo.TechnicianID, technician.ID) {
			continue
		}
		if wo.Status != models.WorkOrderCompleted {
			summary.OpenTasks++
			continue
		}
		summary.CompletedTasks++

		start, ok := parseDate(wo.CreatedDate)
		if !ok {
			continue
		}
		end, ok := parseDate(wo.CompletedDate)
		if !ok {
			continue
		}
		totalHours += end.Sub(start).Hours()
		timed++
	}

	if timed > 0 {
		summary.AvgCompletionHours = round2(totalHours / float64(timed))
	}
	return summary
}

// TechnicianWorkload is the number of open work orders per technician, or 0
// when there are no technicians.
func TechnicianWorkload(openWorkOrders, technicians int) float64 {
	if technicians <= 0 {
		return 0
	}
	return round2(float64(openWorkOrders) / float64(technicians))
}

// OpenWorkOrders counts work orders that are not completed.
func OpenWorkOrders(workOrders []models.WorkOrder) int {
	open := 0
	for _, wo := range workOrders {
		if wo.Status != models.WorkOrderCompleted {
			open++
		}
	}
	return open
}

func refersTo(ref *int64, id int64) bool {
	return ref != nil && *ref == id
}
