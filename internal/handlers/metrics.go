package handlers

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/proworkshop/internal/db"
	"github.com/ukydev/proworkshop/internal/metrics"
	"github.com/ukydev/proworkshop/internal/models"
	"golang.org/x/sync/errgroup"
)

// MetricsHandler serves the derived views: per-asset figures, boards and
// the dashboard. Every response is computed from a fresh read of the store.
type MetricsHandler struct {
	store db.Store
	opts  metrics.Options
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewMetricsHandler creates a metrics handler.
func NewMetricsHandler(store db.Store, opts metrics.Options, log logrus.FieldLogger) *MetricsHandler {
	return &MetricsHandler{store: store, opts: opts, log: log, now: time.Now}
}

// loadSnapshot fetches every collection concurrently.
func (h *MetricsHandler) loadSnapshot(ctx context.Context) (metrics.Snapshot, error) {
	var s metrics.Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		s.Assets, err = h.store.Assets().Find(gctx)
		return wrapLoad("assets", err)
	})
	g.Go(func() (err error) {
		s.WorkOrders, err = h.store.WorkOrders().Find(gctx)
		return wrapLoad("work orders", err)
	})
	g.Go(func() (err error) {
		s.Technicians, err = h.store.Technicians().Find(gctx)
		return wrapLoad("technicians", err)
	})
	g.Go(func() (err error) {
		s.Inventory, err = h.store.Inventory().Find(gctx)
		return wrapLoad("inventory", err)
	})
	g.Go(func() (err error) {
		s.Schedules, err = h.store.Schedules().Find(gctx)
		return wrapLoad("schedules", err)
	})
	g.Go(func() (err error) {
		s.LatestReadings, err = h.store.Conditions().LatestReadings(gctx)
		return wrapLoad("condition readings", err)
	})
	if err := g.Wait(); err != nil {
		return metrics.Snapshot{}, err
	}
	return s, nil
}

func wrapLoad(what string, err error) error {
	if err != nil {
		return fmt.Errorf("load %s: %w", what, err)
	}
	return nil
}

// Dashboard returns the aggregate landing page figures.
func (h *MetricsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.loadSnapshot(r.Context())
	if err != nil {
		storageError(w, r, h.log, err, "Not found")
		return
	}
	writeJSON(w, http.StatusOK, metrics.Summarize(snapshot, h.now(), h.opts))
}

// AssetMetrics returns maintenance cost, utilization and fuel cost per mile
// for one asset.
func (h *MetricsHandler) AssetMetrics(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	asset, err := h.store.Assets().FindByID(r.Context(), id)
	if err != nil {
		storageError(w, r, h.log, err, "Asset not found")
		return
	}
	workOrders, err := h.store.WorkOrders().Find(r.Context())
	if err != nil {
		storageError(w, r, h.log, err, "Asset not found")
		return
	}
	writeJSON(w, http.StatusOK, metrics.ComputeAssetMetrics(*asset, workOrders, h.now(), h.opts.FuelPricePerGallon))
}

// AllAssetMetrics returns the per-asset figures for every asset.
func (h *MetricsHandler) AllAssetMetrics(w http.ResponseWriter, r *http.Request) {
	assets, err := h.store.Assets().Find(r.Context())
	if err != nil {
		storageError(w, r, h.log, err, "Asset not found")
		return
	}
	workOrders, err := h.store.WorkOrders().Find(r.Context())
	if err != nil {
		storageError(w, r, h.log, err, "Asset not found")
		return
	}
	now := h.now()
	out := make([]metrics.AssetMetrics, 0, len(assets))
	for _, asset := range assets {
		out = append(out, metrics.ComputeAssetMetrics(asset, workOrders, now, h.opts.FuelPricePerGallon))
	}
	writeJSON(w, http.StatusOK, out)
}

// UpcomingMaintenance lists assets due within the configured window.
func (h *MetricsHandler) UpcomingMaintenance(w http.ResponseWriter, r *http.Request) {
	assets, err := h.store.Assets().Find(r.Context())
	if err != nil {
		storageError(w, r, h.log, err, "Asset not found")
		return
	}
	due := slices.Collect(metrics.UpcomingMaintenance(assets, h.now(), h.opts.UpcomingWindowDays))
	if due == nil {
		due = []models.Asset{}
	}
	writeJSON(w, http.StatusOK, due)
}

type workOrderBoardRow struct {
	models.WorkOrder
	AssetName      string `json:"asset_name"`
	TechnicianName string `json:"technician_name"`
}

// WorkOrderBoard lists work orders with their asset and technician names.
func (h *MetricsHandler) WorkOrderBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	workOrders, err := h.store.WorkOrders().Find(ctx)
	if err != nil {
		storageError(w, r, h.log, err, "Work order not found")
		return
	}
	assets, err := h.store.Assets().Find(ctx)
	if err != nil {
		storageError(w, r, h.log, err, "Asset not found")
		return
	}
	technicians, err := h.store.Technicians().Find(ctx)
	if err != nil {
		storageError(w, r, h.log, err, "Technician not found")
		return
	}

	assetNames := metrics.AssetNames(assets)
	technicianNames := metrics.TechnicianNames(technicians)
	rows := make([]workOrderBoardRow, 0, len(workOrders))
	for _, wo := range workOrders {
		rows = append(rows, workOrderBoardRow{
			WorkOrder:      wo,
			AssetName:      assetNames.Resolve(wo.AssetID),
			TechnicianName: technicianNames.Resolve(wo.TechnicianID),
		})
	}
	writeJSON(w, http.StatusOK, rows)
}

type scheduleBoardRow struct {
	models.Schedule
	AssetName string `json:"asset_name"`
	Overdue   bool   `json:"overdue"`
}

// ScheduleBoard lists schedules with their asset name and overdue flag.
func (h *MetricsHandler) ScheduleBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	schedules, err := h.store.Schedules().Find(ctx)
	if err != nil {
		storageError(w, r, h.log, err, "Schedule not found")
		return
	}
	assets, err := h.store.Assets().Find(ctx)
	if err != nil {
		storageError(w, r, h.log, err, "Asset not found")
		return
	}

	names := metrics.AssetNames(assets)
	now := h.now()
	rows := make([]scheduleBoardRow, 0, len(schedules))
	for _, s := range schedules {
		rows = append(rows, scheduleBoardRow{
			Schedule:  s,
			AssetName: names.Resolve(s.AssetID),
			Overdue:   metrics.OverdueSchedule(s, now),
		})
	}
	writeJSON(w, http.StatusOK, rows)
}
