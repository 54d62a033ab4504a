package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/proworkshop/internal/auth"
	"github.com/ukydev/proworkshop/internal/config"
	"github.com/ukydev/proworkshop/internal/db"
	"github.com/ukydev/proworkshop/internal/handlers"
	"github.com/ukydev/proworkshop/internal/metrics"
	"github.com/ukydev/proworkshop/internal/middleware"
	"github.com/ukydev/proworkshop/internal/models"
	"github.com/ukydev/proworkshop/internal/monitoring"
	"github.com/ukydev/proworkshop/internal/mqtt"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		logrus.WithError(err).Fatal("proworkshop exited")
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "proworkshop",
		Usage: "Workshop maintenance API server",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			createUserCommand(),
		},
		Action: func(ctx context.Context, _ *cli.Command) error {
			return serve(ctx)
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API (default)",
		Action: func(ctx context.Context, _ *cli.Command) error {
			return serve(ctx)
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply schema migrations (sqlite) or create indexes (mongo) and exit",
		Action: func(ctx context.Context, _ *cli.Command) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg.Store, log)
			if err != nil {
				return err
			}
			defer closeStore(store, log)
			log.WithField("driver", cfg.Store.Driver).Info("Store is up to date")
			return nil
		},
	}
}

func createUserCommand() *cli.Command {
	return &cli.Command{
		Name:  "create-user",
		Usage: "Create a user account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Required: true},
			&cli.StringFlag{Name: "password", Required: true},
			&cli.StringFlag{Name: "email"},
			&cli.StringFlag{Name: "role", Value: string(models.RoleViewer), Usage: "admin, manager, technician or viewer"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			authService, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, auth.WithRefreshExpiry(cfg.Auth.RefreshExpiry))
			if err != nil {
				return err
			}
			store, err := openStore(ctx, cfg.Store, log)
			if err != nil {
				return err
			}
			defer closeStore(store, log)

			id, err := createUser(ctx, authService, store.Users(), c.String("username"), c.String("email"), c.String("password"), models.Role(c.String("role")))
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"user_id": id, "username": c.String("username")}).Info("User created")
			return nil
		},
	}
}

func setup() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, cfg.NewLogger(), nil
}

// openStore connects the configured store and brings its schema up to date.
func openStore(ctx context.Context, cfg config.StoreConfig, log logrus.FieldLogger) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err := db.OpenSQLite(cfg.SQLitePath, log)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		return store, nil
	case config.DriverMongo:
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		store := db.NewMongoStore(client, cfg.MongoDB)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func closeStore(store db.Store, log logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := store.Close(ctx); err != nil {
		log.WithError(err).Warn("Failed to close store")
	}
}

func createUser(ctx context.Context, authService *auth.Service, users db.UserCollection, username, email, password string, role models.Role) (int64, error) {
	username = strings.TrimSpace(username)
	if err := authService.ValidateUsername(username); err != nil {
		return 0, err
	}
	if email != "" {
		if err := authService.ValidateEmail(email); err != nil {
			return 0, err
		}
	}
	if err := authService.ValidatePassword(password); err != nil {
		return 0, err
	}
	if !models.IsValidRole(role) {
		return 0, fmt.Errorf("invalid role %q", role)
	}

	hash, err := authService.HashPassword(password)
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	id, err := users.InsertUser(ctx, models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if errors.Is(err, db.ErrDuplicate) {
		return 0, fmt.Errorf("username %q already exists", username)
	}
	return id, err
}

func serve(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	authService, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, auth.WithRefreshExpiry(cfg.Auth.RefreshExpiry))
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer closeStore(store, log)
	log.WithField("driver", cfg.Store.Driver).Info("Store ready")

	created, err := authService.EnsureAdmin(ctx, store.Users(), cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		log.WithField("username", cfg.Auth.AdminUsername).Warn("Created default admin account; change its password")
	}

	var notifier monitoring.Notifier
	var broker paho.Client
	if cfg.MQTT.Enabled {
		broker, err = mqtt.Connect(cfg.MQTT, log)
		if err != nil {
			return err
		}
		defer broker.Disconnect(250)
		notifier = mqtt.NewAlertPublisher(broker, cfg.MQTT.TopicPrefix)
	}
	monitor := monitoring.New(store.Assets(), store.Conditions(), notifier, log)

	if broker != nil {
		subscriber := mqtt.NewConditionSubscriber(broker, cfg.MQTT.TopicPrefix, monitor, log)
		if err := subscriber.Start(); err != nil {
			return err
		}
		defer func() {
			if err := subscriber.Stop(); err != nil {
				log.WithError(err).Warn("Failed to unsubscribe")
			}
		}()
	}

	router := handlers.NewRouter(handlers.Deps{
		Auth:    authService,
		Store:   store,
		Monitor: monitor,
		Options: metrics.Options{
			FuelPricePerGallon: cfg.FuelPricePerGallon,
			UpcomingWindowDays: cfg.UpcomingWindowDays,
		},
		Logger:    log,
		RateLimit: middleware.NewRateLimitMiddleware(cfg.Rates.Requests, cfg.Rates.Window(), middleware.TrustProxy(cfg.Rates.TrustProxy)),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
