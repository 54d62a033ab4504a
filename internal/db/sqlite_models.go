package db

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/proworkshop/internal/models"
)

// tableRow is implemented by every gorm row type so the generic table can
// read back the generated key.
type tableRow interface {
	rowID() int64
}

type assetRow struct {
	ID                   int64  `gorm:"primaryKey"`
	Name                 string `gorm:"not null"`
	Type                 string
	Status               string
	Location             string
	LastMaintenance      string
	NextDue              string
	QRCode               string `gorm:"column:qr_code"`
	Mileage              *int64
	FuelLogs             string `gorm:"column:fuel_logs"`
	Photos               string
	VibrationThreshold   *float64
	TemperatureThreshold *float64
	ParentID             *int64
	CriticalityScore     *int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (assetRow) TableName() string { return "assets" }
func (r assetRow) rowID() int64    { return r.ID }

func assetToRow(a models.Asset) (assetRow, error) {
	logs, err := models.EncodeFuelLogs(a.FuelLogs)
	if err != nil {
		return assetRow{}, err
	}
	return assetRow{
		Name:                 a.Name,
		Type:                 a.Type,
		Status:               a.Status,
		Location:             a.Location,
		LastMaintenance:      a.LastMaintenance,
		NextDue:              a.NextDue,
		QRCode:               a.QRCode,
		Mileage:              a.Mileage,
		FuelLogs:             logs,
		Photos:               a.Photos,
		VibrationThreshold:   a.VibrationThreshold,
		TemperatureThreshold: a.TemperatureThreshold,
		ParentID:             a.ParentID,
		CriticalityScore:     a.CriticalityScore,
	}, nil
}

// assetFromRow decodes a stored asset. A corrupt fuel log blob is reported
// and read as an empty list.
func assetFromRow(log logrus.FieldLogger) func(assetRow) models.Asset {
	return func(r assetRow) models.Asset {
		logs, err := models.DecodeFuelLogs(r.FuelLogs)
		if err != nil {
			log.WithError(err).WithField("asset_id", r.ID).Warn("Ignoring malformed fuel logs")
		}
		return models.Asset{
			ID:                   r.ID,
			Name:                 r.Name,
			Type:                 r.Type,
			Status:               r.Status,
			Location:             r.Location,
			LastMaintenance:      r.LastMaintenance,
			NextDue:              r.NextDue,
			QRCode:               r.QRCode,
			Mileage:              r.Mileage,
			FuelLogs:             logs,
			Photos:               r.Photos,
			VibrationThreshold:   r.VibrationThreshold,
			TemperatureThreshold: r.TemperatureThreshold,
			ParentID:             r.ParentID,
			CriticalityScore:     r.CriticalityScore,
			CreatedAt:            r.CreatedAt,
			UpdatedAt:            r.UpdatedAt,
		}
	}
}

type workOrderRow struct {
	ID            int64 `gorm:"primaryKey"`
	AssetID       *int64
	TechnicianID  *int64
	Description   string
	Status        string
	Priority      string
	DueDate       string
	CreatedDate   string
	CompletedDate string
	PartsNeeded   string
	Notes         string
	Cost          *float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (workOrderRow) TableName() string { return "work_orders" }
func (r workOrderRow) rowID() int64    { return r.ID }

func workOrderToRow(w models.WorkOrder) (workOrderRow, error) {
	return workOrderRow{
		AssetID:       w.AssetID,
		TechnicianID:  w.TechnicianID,
		Description:   w.Description,
		Status:        w.Status,
		Priority:      w.Priority,
		DueDate:       w.DueDate,
		CreatedDate:   w.CreatedDate,
		CompletedDate: w.CompletedDate,
		PartsNeeded:   w.PartsNeeded,
		Notes:         w.Notes,
		Cost:          w.Cost,
	}, nil
}

func workOrderFromRow(r workOrderRow) models.WorkOrder {
	return models.WorkOrder{
		ID:            r.ID,
		AssetID:       r.AssetID,
		TechnicianID:  r.TechnicianID,
		Description:   r.Description,
		Status:        r.Status,
		Priority:      r.Priority,
		DueDate:       r.DueDate,
		CreatedDate:   r.CreatedDate,
		CompletedDate: r.CompletedDate,
		PartsNeeded:   r.PartsNeeded,
		Notes:         r.Notes,
		Cost:          r.Cost,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type technicianRow struct {
	ID                int64  `gorm:"primaryKey"`
	Name              string `gorm:"not null"`
	Email             string
	Phone             string
	Specialty         string
	Skills            string
	Availability      string
	Certifications    string
	TasksCompleted    *int
	AvgCompletionTime *float64
	QualityRating     *float64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (technicianRow) TableName() string { return "technicians" }
func (r technicianRow) rowID() int64    { return r.ID }

func technicianToRow(t models.Technician) (technicianRow, error) {
	return technicianRow{
		Name:              t.Name,
		Email:             t.Email,
		Phone:             t.Phone,
		Specialty:         t.Specialty,
		Skills:            t.Skills,
		Availability:      t.Availability,
		Certifications:    t.Certifications,
		TasksCompleted:    t.TasksCompleted,
		AvgCompletionTime: t.AvgCompletionTime,
		QualityRating:     t.QualityRating,
	}, nil
}

func technicianFromRow(r technicianRow) models.Technician {
	return models.Technician{
		ID:                r.ID,
		Name:              r.Name,
		Email:             r.Email,
		Phone:             r.Phone,
		Specialty:         r.Specialty,
		Skills:            r.Skills,
		Availability:      r.Availability,
		Certifications:    r.Certifications,
		TasksCompleted:    r.TasksCompleted,
		AvgCompletionTime: r.AvgCompletionTime,
		QualityRating:     r.QualityRating,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type inventoryRow struct {
	ID           int64  `gorm:"primaryKey"`
	ItemName     string `gorm:"not null"`
	PartNumber   string
	Quantity     int
	Location     string
	ReorderLevel *int
	Supplier     string
	UnitPrice    *float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (inventoryRow) TableName() string { return "inventory" }
func (r inventoryRow) rowID() int64    { return r.ID }

func inventoryToRow(i models.InventoryItem) (inventoryRow, error) {
	return inventoryRow{
		ItemName:     i.ItemName,
		PartNumber:   i.PartNumber,
		Quantity:     i.Quantity,
		Location:     i.Location,
		ReorderLevel: i.ReorderLevel,
		Supplier:     i.Supplier,
		UnitPrice:    i.UnitPrice,
	}, nil
}

func inventoryFromRow(r inventoryRow) models.InventoryItem {
	return models.InventoryItem{
		ID:           r.ID,
		ItemName:     r.ItemName,
		PartNumber:   r.PartNumber,
		Quantity:     r.Quantity,
		Location:     r.Location,
		ReorderLevel: r.ReorderLevel,
		Supplier:     r.Supplier,
		UnitPrice:    r.UnitPrice,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type scheduleRow struct {
	ID              int64 `gorm:"primaryKey"`
	AssetID         *int64
	MaintenanceType string
	ScheduledDate   string
	Status          string
	Recurring       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (scheduleRow) TableName() string { return "schedules" }
func (r scheduleRow) rowID() int64    { return r.ID }

func scheduleToRow(s models.Schedule) (scheduleRow, error) {
	return scheduleRow{
		AssetID:         s.AssetID,
		MaintenanceType: s.MaintenanceType,
		ScheduledDate:   s.ScheduledDate,
		Status:          s.Status,
		Recurring:       s.Recurring,
	}, nil
}

func scheduleFromRow(r scheduleRow) models.Schedule {
	return models.Schedule{
		ID:              r.ID,
		AssetID:         r.AssetID,
		MaintenanceType: r.MaintenanceType,
		ScheduledDate:   r.ScheduledDate,
		Status:          r.Status,
		Recurring:       r.Recurring,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type conditionRow struct {
	ID          int64 `gorm:"primaryKey"`
	AssetID     int64 `gorm:"not null;index"`
	Vibration   float64
	Temperature float64
	RecordedAt  time.Time
}

func (conditionRow) TableName() string { return "condition_readings" }

func (r conditionRow) reading() models.ConditionReading {
	return models.ConditionReading{
		ID:          r.ID,
		AssetID:     r.AssetID,
		Vibration:   r.Vibration,
		Temperature: r.Temperature,
		RecordedAt:  r.RecordedAt.UTC(),
	}
}

type userRow struct {
	ID           int64  `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	Email        string
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null"`
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	RefreshTokenHash      string `gorm:"index"`
	RefreshTokenExpiresAt *time.Time
}

func (userRow) TableName() string { return "users" }

func (r userRow) user() *models.User {
	return &models.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         models.Role(r.Role),
		IsActive:     r.IsActive,
		LastLogin:    r.LastLogin,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,

		RefreshTokenHash:      r.RefreshTokenHash,
		RefreshTokenExpiresAt: r.RefreshTokenExpiresAt,
	}
}
