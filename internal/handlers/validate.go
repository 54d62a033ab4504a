package handlers

import (
	"errors"
	"strings"

	"github.com/ukydev/proworkshop/internal/models"
)

// Validators normalize a decoded record in place and reject unusable input.

func validateAsset(a *models.Asset) error {
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return errors.New("name is required")
	}
	if a.Mileage != nil && *a.Mileage < 0 {
		return errors.New("mileage must not be negative")
	}
	for _, l := range a.FuelLogs {
		if l.Gallons < 0 {
			return errors.New("fuel log gallons must not be negative")
		}
	}
	if a.FuelLogs == nil {
		a.FuelLogs = []models.FuelLog{}
	}
	return nil
}

func validateWorkOrder(wo *models.WorkOrder) error {
	wo.Description = strings.TrimSpace(wo.Description)
	if wo.Description == "" {
		return errors.New("description is required")
	}
	if wo.Cost == nil {
		zero := 0.0
		wo.Cost = &zero
	}
	if *wo.Cost < 0 {
		return errors.New("cost must not be negative")
	}
	if wo.Status == "" {
		wo.Status = models.WorkOrderOpen
	}
	return nil
}

func validateTechnician(t *models.Technician) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func validateInventoryItem(item *models.InventoryItem) error {
	item.ItemName = strings.TrimSpace(item.ItemName)
	if item.ItemName == "" {
		return errors.New("item_name is required")
	}
	if item.Quantity < 0 {
		return errors.New("quantity must not be negative")
	}
	return nil
}

func validateSchedule(s *models.Schedule) error {
	s.MaintenanceType = strings.TrimSpace(s.MaintenanceType)
	if s.MaintenanceType == "" {
		return errors.New("maintenance_type is required")
	}
	if strings.TrimSpace(s.ScheduledDate) == "" {
		return errors.New("scheduled_date is required")
	}
	if s.Status == "" {
		s.Status = models.SchedulePending
	}
	return nil
}
