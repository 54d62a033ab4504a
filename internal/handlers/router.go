package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/proworkshop/internal/auth"
	"github.com/ukydev/proworkshop/internal/db"
	"github.com/ukydev/proworkshop/internal/metrics"
	"github.com/ukydev/proworkshop/internal/middleware"
	"github.com/ukydev/proworkshop/internal/models"
	"github.com/ukydev/proworkshop/internal/monitoring"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Auth    *auth.Service
	Store   db.Store
	Monitor *monitoring.Monitor
	Options metrics.Options
	Logger  logrus.FieldLogger
	// RateLimit is optional; nil disables rate limiting.
	RateLimit *middleware.RateLimitMiddleware
}

// NewRouter wires every route of the maintenance API.
func NewRouter(d Deps) http.Handler {
	log := d.Logger
	guard := middleware.NewAuthMiddleware(d.Auth)
	authHandler := NewAuthHandler(d.Auth, d.Store.Users(), log)
	metricsHandler := NewMetricsHandler(d.Store, d.Options, log)
	userHandler := NewUserHandler(d.Store.Users(), log)
	conditionHandler := NewConditionHandler(d.Store.Assets(), d.Store.Conditions(), d.Monitor, log)

	assets := &resource[models.Asset]{noun: "Asset", records: d.Store.Assets(), validate: validateAsset, log: log}
	workOrders := &resource[models.WorkOrder]{noun: "Work order", records: d.Store.WorkOrders(), validate: validateWorkOrder, log: log}
	technicians := &resource[models.Technician]{noun: "Technician", records: d.Store.Technicians(), validate: validateTechnician, log: log}
	schedules := &resource[models.Schedule]{noun: "Schedule", records: d.Store.Schedules(), validate: validateSchedule, log: log}
	inventory := &resource[models.InventoryItem]{
		noun:     "Inventory item",
		records:  d.Store.Inventory(),
		validate: validateInventoryItem,
		afterWrite: func(ctx context.Context, id int64, item models.InventoryItem) {
			item.ID = id
			d.Monitor.CheckStock(ctx, item)
		},
		log: log,
	}

	perm := guard.RequirePermission

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(log))
	if d.RateLimit != nil {
		r.Use(d.RateLimit.RateLimit)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/login", authHandler.Login)
		api.Post("/auth/register", authHandler.Register)
		api.Post("/auth/refresh", authHandler.Refresh)

		api.Group(func(p chi.Router) {
			p.Use(guard.Authenticate)

			p.Get("/auth/verify", authHandler.Verify)
			p.Get("/auth/profile", authHandler.GetProfile)
			p.Put("/auth/profile", authHandler.UpdateProfile)
			p.Post("/auth/change-password", authHandler.ChangePassword)
			p.Post("/auth/logout", authHandler.Logout)

			p.Route("/users", func(r chi.Router) {
				r.Use(perm(models.ManageUsers))
				r.Get("/", userHandler.List)
				r.Get("/{id}", userHandler.Get)
				r.Put("/{id}", userHandler.Update)
			})

			p.Route("/assets", func(r chi.Router) {
				r.With(perm(models.ViewAssets)).Get("/upcoming", metricsHandler.UpcomingMaintenance)
				r.With(perm(models.ViewAssets)).Get("/{id}/metrics", metricsHandler.AssetMetrics)
				r.With(perm(models.ViewAssets)).Get("/{id}/conditions", conditionHandler.List)
				r.With(perm(models.ManageAssets)).Post("/{id}/conditions", conditionHandler.Create)
				assets.routes(r, perm(models.ViewAssets), perm(models.ManageAssets))
			})
			p.Route("/work_orders", func(r chi.Router) {
				r.With(perm(models.ViewWorkOrders)).Get("/board", metricsHandler.WorkOrderBoard)
				workOrders.routes(r, perm(models.ViewWorkOrders), perm(models.ManageWorkOrders))
			})
			p.Route("/technicians", func(r chi.Router) {
				technicians.routes(r, perm(models.ViewTechnicians), perm(models.ManageTechnicians))
			})
			p.Route("/inventory", func(r chi.Router) {
				inventory.routes(r, perm(models.ViewInventory), perm(models.ManageInventory))
			})
			p.Route("/schedules", func(r chi.Router) {
				r.With(perm(models.ViewSchedules)).Get("/board", metricsHandler.ScheduleBoard)
				schedules.routes(r, perm(models.ViewSchedules), perm(models.ManageSchedules))
			})

			p.With(perm(models.ViewAssets)).Get("/metrics/assets", metricsHandler.AllAssetMetrics)
			p.With(perm(models.ViewDashboard)).Get("/dashboard", metricsHandler.Dashboard)
		})
	})

	return r
}
