package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()

	t.Run("assigns id and logs status", func(t *testing.T) {
		hook.Reset()
		var seen string
		handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = RequestID(r.Context())
			w.WriteHeader(http.StatusCreated)
		}))

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/assets", nil))

		id := w.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.Equal(t, id, seen)

		entry := hook.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, logrus.InfoLevel, entry.Level)
		assert.Equal(t, http.StatusCreated, entry.Data["status"])
		assert.Equal(t, "/api/assets", entry.Data["path"])
		assert.Equal(t, id, entry.Data["request_id"])
	})

	t.Run("keeps a valid incoming id", func(t *testing.T) {
		hook.Reset()
		incoming := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, incoming)
		w := httptest.NewRecorder()

		RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(w, req)
		assert.Equal(t, incoming, w.Header().Get(RequestIDHeader))
		assert.Equal(t, http.StatusOK, hook.LastEntry().Data["status"])
	})

	t.Run("replaces a malformed incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "<script>")
		w := httptest.NewRecorder()

		RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(w, req)
		assert.NotEqual(t, "<script>", w.Header().Get(RequestIDHeader))
	})

	t.Run("server errors log at error level", func(t *testing.T) {
		hook.Reset()
		handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
		assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	})
}
