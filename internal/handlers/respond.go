package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/proworkshop/internal/db"
	"github.com/ukydev/proworkshop/internal/middleware"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

// decodeJSON reads a single JSON document from the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// idParam parses the {id} path parameter as a positive integer.
func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// requestLog tags log with the id RequestLogger gave the request.
func requestLog(r *http.Request, log logrus.FieldLogger) logrus.FieldLogger {
	if id := middleware.RequestID(r.Context()); id != "" {
		return log.WithField("request_id", id)
	}
	return log
}

// storageError answers a failed storage call: 404 for missing records and
// 500 for everything else, which is also logged.
func storageError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error, notFound string) {
	if errors.Is(err, db.ErrNotFound) {
		writeError(w, http.StatusNotFound, notFound)
		return
	}
	requestLog(r, log).WithError(err).Error("Storage operation failed")
	writeError(w, http.StatusInternalServerError, "Internal server error")
}
