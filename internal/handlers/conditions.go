package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/proworkshop/internal/db"
	"github.com/ukydev/proworkshop/internal/models"
	"github.com/ukydev/proworkshop/internal/monitoring"
)

const (
	defaultReadingLimit = 50
	maxReadingLimit     = 500
)

// ReadingRecorder stores a condition reading and reports the alerts it raised.
type ReadingRecorder interface {
	RecordReading(ctx context.Context, reading models.ConditionReading) (models.ConditionReading, []models.Alert, error)
}

// ConditionHandler serves the condition readings of an asset.
type ConditionHandler struct {
	assets   db.AssetCollection
	readings db.ConditionCollection
	recorder ReadingRecorder
	log      logrus.FieldLogger
}

// NewConditionHandler creates a condition handler.
func NewConditionHandler(assets db.AssetCollection, readings db.ConditionCollection, recorder ReadingRecorder, log logrus.FieldLogger) *ConditionHandler {
	return &ConditionHandler{assets: assets, readings: readings, recorder: recorder, log: log}
}

// List returns the newest readings of an asset, limited by ?limit=.
func (h *ConditionHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit := defaultReadingLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(limit, maxReadingLimit)
	}

	if _, err := h.assets.FindByID(r.Context(), id); err != nil {
		storageError(w, r, h.log, err, "Asset not found")
		return
	}

	readings, err := h.readings.FindReadings(r.Context(), id, limit)
	if err != nil {
		storageError(w, r, h.log, err, "Asset not found")
		return
	}
	if readings == nil {
		readings = []models.ConditionReading{}
	}
	writeJSON(w, http.StatusOK, readings)
}

type conditionRequest struct {
	Vibration   *float64   `json:"vibration"`
	Temperature *float64   `json:"temperature"`
	RecordedAt  *time.Time `json:"recorded_at"`
}

type conditionResponse struct {
	Reading models.ConditionReading `json:"reading"`
	Alerts  []models.Alert          `json:"alerts"`
}

// Create records a reading for an asset and returns any alerts it raised.
func (h *ConditionHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req conditionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Vibration == nil || req.Temperature == nil {
		writeError(w, http.StatusBadRequest, "vibration and temperature are required")
		return
	}

	reading := models.ConditionReading{
		AssetID:     id,
		Vibration:   *req.Vibration,
		Temperature: *req.Temperature,
	}
	if req.RecordedAt != nil {
		reading.RecordedAt = *req.RecordedAt
	}

	reading, alerts, err := h.recorder.RecordReading(r.Context(), reading)
	if errors.Is(err, monitoring.ErrInvalidReading) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		storageError(w, r, h.log, err, "Asset not found")
		return
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}
	writeJSON(w, http.StatusCreated, conditionResponse{Reading: reading, Alerts: alerts})
}
