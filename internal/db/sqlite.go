package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/proworkshop/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// OpenSQLite opens (creating if needed) the SQLite database at path. Call
// Migrate before use on a fresh file.
func OpenSQLite(path string, log logrus.FieldLogger) (*SQLiteStore, error) {
	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&_pragma=busy_timeout(5000)"
	} else {
		dsn += "?_pragma=busy_timeout(5000)"
	}

	gdb, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        dsn,
	}, &gorm.Config{
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	return NewSQLiteStore(gdb, log), nil
}

// SQLiteStore implements Store on top of gorm and SQLite.
type SQLiteStore struct {
	db          *gorm.DB
	log         logrus.FieldLogger
	assets      *sqliteTable[models.Asset, assetRow]
	workOrders  *sqliteTable[models.WorkOrder, workOrderRow]
	technicians *sqliteTable[models.Technician, technicianRow]
	inventory   *sqliteTable[models.InventoryItem, inventoryRow]
	schedules   *sqliteTable[models.Schedule, scheduleRow]
	conditions  *sqliteConditions
	users       *SQLiteUserCollection
}

// NewSQLiteStore wraps an open gorm connection.
func NewSQLiteStore(gdb *gorm.DB, log logrus.FieldLogger) *SQLiteStore {
	return &SQLiteStore{
		db:          gdb,
		log:         log,
		assets:      &sqliteTable[models.Asset, assetRow]{db: gdb, toRow: assetToRow, fromRow: assetFromRow(log)},
		workOrders:  &sqliteTable[models.WorkOrder, workOrderRow]{db: gdb, toRow: workOrderToRow, fromRow: workOrderFromRow},
		technicians: &sqliteTable[models.Technician, technicianRow]{db: gdb, toRow: technicianToRow, fromRow: technicianFromRow},
		inventory:   &sqliteTable[models.InventoryItem, inventoryRow]{db: gdb, toRow: inventoryToRow, fromRow: inventoryFromRow},
		schedules:   &sqliteTable[models.Schedule, scheduleRow]{db: gdb, toRow: scheduleToRow, fromRow: scheduleFromRow},
		conditions:  &sqliteConditions{db: gdb},
		users:       &SQLiteUserCollection{db: gdb},
	}
}

// Migrate brings the schema up to date.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.db, s.log)
}

func (s *SQLiteStore) Assets() AssetCollection           { return s.assets }
func (s *SQLiteStore) WorkOrders() WorkOrderCollection   { return s.workOrders }
func (s *SQLiteStore) Technicians() TechnicianCollection { return s.technicians }
func (s *SQLiteStore) Inventory() InventoryCollection    { return s.inventory }
func (s *SQLiteStore) Schedules() ScheduleCollection     { return s.schedules }
func (s *SQLiteStore) Conditions() ConditionCollection   { return s.conditions }
func (s *SQLiteStore) Users() UserCollection             { return s.users }

// Close releases the underlying connection pool.
func (s *SQLiteStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// sqliteTable maps a record type T onto the gorm row type R of its table.
// Row conversion never copies id or timestamps; gorm assigns those.
type sqliteTable[T any, R tableRow] struct {
	db      *gorm.DB
	toRow   func(T) (R, error)
	fromRow func(R) T
}

func (t *sqliteTable[T, R]) Insert(ctx context.Context, record T) (int64, error) {
	row, err := t.toRow(record)
	if err != nil {
		return 0, err
	}
	if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("insert: %w", err)
	}
	return row.rowID(), nil
}

func (t *sqliteTable[T, R]) Find(ctx context.Context) ([]T, error) {
	rows := make([]R, 0)
	if err := t.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		out = append(out, t.fromRow(r))
	}
	return out, nil
}

func (t *sqliteTable[T, R]) FindByID(ctx context.Context, id int64) (*T, error) {
	var row R
	err := t.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %d: %w", id, err)
	}
	record := t.fromRow(row)
	return &record, nil
}

func (t *sqliteTable[T, R]) Update(ctx context.Context, id int64, record T) error {
	row, err := t.toRow(record)
	if err != nil {
		return err
	}
	var model R
	res := t.db.WithContext(ctx).Model(&model).Where("id = ?", id).
		Select("*").Omit("id", "created_at").Updates(&row)
	if res.Error != nil {
		return fmt.Errorf("update %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *sqliteTable[T, R]) Delete(ctx context.Context, id int64) error {
	var model R
	res := t.db.WithContext(ctx).Where("id = ?", id).Delete(&model)
	if res.Error != nil {
		return fmt.Errorf("delete %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type sqliteConditions struct {
	db *gorm.DB
}

func (c *sqliteConditions) InsertReading(ctx context.Context, reading models.ConditionReading) (int64, error) {
	row := conditionRow{
		AssetID:     reading.AssetID,
		Vibration:   reading.Vibration,
		Temperature: reading.Temperature,
		RecordedAt:  reading.RecordedAt.UTC(),
	}
	if err := c.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("insert reading: %w", err)
	}
	return row.ID, nil
}

func (c *sqliteConditions) FindReadings(ctx context.Context, assetID int64, limit int) ([]models.ConditionReading, error) {
	q := c.db.WithContext(ctx).Where("asset_id = ?", assetID).Order("recorded_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	rows := make([]conditionRow, 0)
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find readings: %w", err)
	}
	return readings(rows), nil
}

func (c *sqliteConditions) LatestReadings(ctx context.Context) ([]models.ConditionReading, error) {
	rows := make([]conditionRow, 0)
	err := c.db.WithContext(ctx).Raw(`
		SELECT r.* FROM condition_readings r
		WHERE r.id = (
			SELECT l.id FROM condition_readings l
			WHERE l.asset_id = r.asset_id
			ORDER BY l.recorded_at DESC, l.id DESC
			LIMIT 1
		)
		ORDER BY r.asset_id`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("latest readings: %w", err)
	}
	return readings(rows), nil
}

func readings(rows []conditionRow) []models.ConditionReading {
	out := make([]models.ConditionReading, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.reading())
	}
	return out
}

// SQLiteUserCollection implements UserCollection for SQLite
type SQLiteUserCollection struct {
	db *gorm.DB
}

// InsertUser inserts a new, active user
func (c *SQLiteUserCollection) InsertUser(ctx context.Context, user models.User) (int64, error) {
	row := userRow{
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		IsActive:     true,
	}
	if err := c.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return row.ID, nil
}

func (c *SQLiteUserCollection) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var row userRow
	err := c.db.WithContext(ctx).Where(query, arg).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.user(), nil
}

// FindUserByID finds a user by their ID
func (c *SQLiteUserCollection) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	return c.findOne(ctx, "id = ?", id)
}

// FindUserByUsername finds a user by their username
func (c *SQLiteUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return c.findOne(ctx, "username = ?", username)
}

// FindUserByEmail finds a user by their email
func (c *SQLiteUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return c.findOne(ctx, "email = ?", email)
}

// UpdateUser replaces the editable fields of a user
func (c *SQLiteUserCollection) UpdateUser(ctx context.Context, id int64, user models.User) error {
	res := c.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).Updates(map[string]any{
		"username":      user.Username,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
		"role":          string(user.Role),
		"is_active":     user.IsActive,
		"updated_at":    time.Now(),
	})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLastLogin updates the last login time for a user
func (c *SQLiteUserCollection) UpdateLastLogin(ctx context.Context, id int64) error {
	now := time.Now()
	res := c.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).
		Updates(map[string]any{"last_login": now, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindUsers lists every account
func (c *SQLiteUserCollection) FindUsers(ctx context.Context) ([]models.User, error) {
	var rows []userRow
	if err := c.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(rows))
	for _, r := range rows {
		out = append(out, *r.user())
	}
	return out, nil
}

// SetRefreshToken replaces or, with an empty digest, clears the stored refresh token
func (c *SQLiteUserCollection) SetRefreshToken(ctx context.Context, id int64, digest string, expiresAt *time.Time) error {
	if digest == "" {
		expiresAt = nil
	}
	res := c.db.WithContext(ctx).Model(&userRow{}).Where("id = ?", id).Updates(map[string]any{
		"refresh_token_hash":       digest,
		"refresh_token_expires_at": expiresAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// FindUserByRefreshToken finds the user holding a refresh token digest
func (c *SQLiteUserCollection) FindUserByRefreshToken(ctx context.Context, digest string) (*models.User, error) {
	if digest == "" {
		return nil, ErrNotFound
	}
	return c.findOne(ctx, "refresh_token_hash = ?", digest)
}

// CountUsers returns the number of registered users
func (c *SQLiteUserCollection) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(&userRow{}).Count(&n).Error
	return n, err
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}
