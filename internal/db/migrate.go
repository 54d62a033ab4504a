package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// gooseLogger sends goose's own output through logrus.
type gooseLogger struct {
	log logrus.FieldLogger
}

func (l gooseLogger) Printf(format string, v ...any) { l.log.Infof(format, v...) }
func (l gooseLogger) Fatalf(format string, v ...any) { l.log.Fatalf(format, v...) }

// RunMigrations applies every pending schema migration to the SQLite store
// and logs each applied file.
func RunMigrations(ctx context.Context, db *gorm.DB, log logrus.FieldLogger) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	log = log.WithField("component", "migrate")
	provider, err := goose.NewProvider(goose.DialectSQLite3, sqlDB, migrations, goose.WithLogger(gooseLogger{log: log}))
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		log.WithFields(logrus.Fields{
			"version":  r.Source.Version,
			"file":     filepath.Base(r.Source.Path),
			"duration": r.Duration.String(),
		}).Info("Applied migration")
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	log.WithField("version", version).Debug("Schema up to date")
	return nil
}
