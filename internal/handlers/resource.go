package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/proworkshop/internal/db"
)

// resource serves list/get/create/update/delete for one record type.
type resource[T any] struct {
	// noun names the record in messages, e.g. "Work order".
	noun     string
	records  db.Collection[T]
	validate func(*T) error
	// afterWrite runs after a successful create or update.
	afterWrite func(ctx context.Context, id int64, record T)
	log        logrus.FieldLogger
}

func (rs *resource[T]) notFound() string { return rs.noun + " not found" }

// routes registers the CRUD endpoints, reads guarded by view and writes by manage.
func (rs *resource[T]) routes(r chi.Router, view, manage func(http.Handler) http.Handler) {
	r.With(view).Get("/", rs.list)
	r.With(view).Get("/{id}", rs.get)
	r.With(manage).Post("/", rs.create)
	r.With(manage).Put("/{id}", rs.update)
	r.With(manage).Delete("/{id}", rs.delete)
}

func (rs *resource[T]) list(w http.ResponseWriter, r *http.Request) {
	records, err := rs.records.Find(r.Context())
	if err != nil {
		storageError(w, r, rs.log, err, rs.notFound())
		return
	}
	if records == nil {
		records = []T{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (rs *resource[T]) get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	record, err := rs.records.FindByID(r.Context(), id)
	if err != nil {
		storageError(w, r, rs.log, err, rs.notFound())
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (rs *resource[T]) create(w http.ResponseWriter, r *http.Request) {
	record, ok := rs.decode(w, r)
	if !ok {
		return
	}
	id, err := rs.records.Insert(r.Context(), record)
	if err != nil {
		storageError(w, r, rs.log, err, rs.notFound())
		return
	}
	if rs.afterWrite != nil {
		rs.afterWrite(r.Context(), id, record)
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (rs *resource[T]) update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	record, ok := rs.decode(w, r)
	if !ok {
		return
	}
	if err := rs.records.Update(r.Context(), id, record); err != nil {
		storageError(w, r, rs.log, err, rs.notFound())
		return
	}
	if rs.afterWrite != nil {
		rs.afterWrite(r.Context(), id, record)
	}
	writeMessage(w, rs.noun+" updated")
}

func (rs *resource[T]) delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := rs.records.Delete(r.Context(), id); err != nil {
		storageError(w, r, rs.log, err, rs.notFound())
		return
	}
	writeMessage(w, rs.noun+" deleted")
}

func (rs *resource[T]) decode(w http.ResponseWriter, r *http.Request) (T, bool) {
	var record T
	if err := decodeJSON(w, r, &record); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return record, false
	}
	if rs.validate != nil {
		if err := rs.validate(&record); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return record, false
		}
	}
	return record, true
}
