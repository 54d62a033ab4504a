package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/proworkshop/internal/models"
)

var (
	// ErrNotFound is returned when no record has the requested id.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("record already exists")
)

// Collection is the CRUD surface shared by every maintenance record type.
// Find returns all records in id order. Update replaces every editable
// field of the record.
type Collection[T any] interface {
	Insert(ctx context.Context, record T) (int64, error)
	Find(ctx context.Context) ([]T, error)
	FindByID(ctx context.Context, id int64) (*T, error)
	Update(ctx context.Context, id int64, record T) error
	Delete(ctx context.Context, id int64) error
}

type (
	AssetCollection      = Collection[models.Asset]
	WorkOrderCollection  = Collection[models.WorkOrder]
	TechnicianCollection = Collection[models.Technician]
	InventoryCollection  = Collection[models.InventoryItem]
	ScheduleCollection   = Collection[models.Schedule]
)

// ConditionCollection stores sensor readings reported for assets.
type ConditionCollection interface {
	InsertReading(ctx context.Context, reading models.ConditionReading) (int64, error)
	// FindReadings returns the newest readings for an asset first.
	FindReadings(ctx context.Context, assetID int64, limit int) ([]models.ConditionReading, error)
	// LatestReadings returns the most recent reading of every asset.
	LatestReadings(ctx context.Context) ([]models.ConditionReading, error)
}

// UserCollection defines the interface for user database operations
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) (int64, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id int64, user models.User) error
	UpdateLastLogin(ctx context.Context, id int64) error
	CountUsers(ctx context.Context) (int64, error)
	// FindUsers returns every account in id order.
	FindUsers(ctx context.Context) ([]models.User, error)
	// SetRefreshToken stores the digest of a user's current refresh token.
	// An empty digest revokes it.
	SetRefreshToken(ctx context.Context, id int64, digest string, expiresAt *time.Time) error
	// FindUserByRefreshToken returns ErrNotFound for an empty or unknown digest.
	FindUserByRefreshToken(ctx context.Context, digest string) (*models.User, error)
}

// Store bundles the collections backing the service.
type Store interface {
	Assets() AssetCollection
	WorkOrders() WorkOrderCollection
	Technicians() TechnicianCollection
	Inventory() InventoryCollection
	Schedules() ScheduleCollection
	Conditions() ConditionCollection
	Users() UserCollection
	Close(ctx context.Context) error
}
