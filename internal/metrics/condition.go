package metrics

import (
	"fmt"

	"github.com/ukydev/proworkshop/internal/models"
)

// ConditionAlerts checks a reading against the asset's vibration and
// temperature thresholds and returns one alert per threshold strictly
// exceeded. Unset thresholds are never exceeded.
func ConditionAlerts(asset models.Asset, reading models.ConditionReading) []models.Alert {
	var alerts []models.Alert
	if asset.VibrationThreshold != nil && reading.Vibration > *asset.VibrationThreshold {
		alerts = append(alerts, models.Alert{
			Kind:     models.AlertCondition,
			EntityID: asset.ID,
			Message:  fmt.Sprintf("vibration %.2f exceeds threshold %.2f on %s", reading.Vibration, *asset.VibrationThreshold, asset.Name),
			Value:    reading.Vibration,
			Limit:    *asset.VibrationThreshold,
			RaisedAt: reading.RecordedAt,
		})
	}
	if asset.TemperatureThreshold != nil && reading.Temperature > *asset.TemperatureThreshold {
		alerts = append(alerts, models.Alert{
			Kind:     models.AlertCondition,
			EntityID: asset.ID,
			Message:  fmt.Sprintf("temperature %.2f exceeds threshold %.2f on %s", reading.Temperature, *asset.TemperatureThreshold, asset.Name),
			Value:    reading.Temperature,
			Limit:    *asset.TemperatureThreshold,
			RaisedAt: reading.RecordedAt,
		})
	}
	return alerts
}

// LowStockAlert builds the alert raised for an item at or below its reorder
// level. ok is false when the item is not low.
func LowStockAlert(item models.InventoryItem) (alert models.Alert, ok bool) {
	if !LowStock(item) {
		return models.Alert{}, false
	}
	return models.Alert{
		Kind:     models.AlertLowStock,
		EntityID: item.ID,
		Message:  fmt.Sprintf("%s stock %d at or below reorder level %d", item.ItemName, item.Quantity, *item.ReorderLevel),
		Value:    float64(item.Quantity),
		Limit:    float64(*item.ReorderLevel),
	}, true
}
