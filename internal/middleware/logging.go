package middleware

import (
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the request id to and from clients.
const RequestIDHeader = "X-Request-ID"

const requestIDKey contextKey = "request_id"

// RequestLogger tags each request with an id, echoes it in the response and
// logs the outcome once the handler returns.
func RequestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			entry := logger.WithFields(logrus.Fields{
				"request_id": id,
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     status,
				"duration":   time.Since(start).String(),
			})
			switch {
			case status >= http.StatusInternalServerError:
				entry.Error("Request failed")
			case status >= http.StatusBadRequest:
				entry.Warn("Request rejected")
			default:
				entry.Info("Request served")
			}
		})
	}
}

// RequestID returns the id assigned by RequestLogger, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
