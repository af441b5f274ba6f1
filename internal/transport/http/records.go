// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opentrusty/rentals/internal/form"
	"github.com/opentrusty/rentals/internal/observability/logger"
	"github.com/opentrusty/rentals/internal/rental"
)

const maxBodyBytes = 1 << 20

// resource binds one record collection of the store to CRUD routes.
type resource[T any] struct {
	kind   rental.Kind
	label  string
	list   http.HandlerFunc
	get    func(id string) (T, bool)
	add    func(ctx context.Context, rec T) T
	update func(ctx context.Context, id string, patch rental.Patch) error
	remove func(ctx context.Context, id string) error
	// fill derives reference ids before a new record is stored
	fill func(rec *T)
}

func mountRecords[T any](r chi.Router, res resource[T]) {
	r.Get("/", res.list)
	r.Post("/", res.create)
	r.Get("/{id}", res.show)
	r.Patch("/{id}", res.patch)
	r.Delete("/{id}", res.destroy)
}

func (res resource[T]) notFound(w http.ResponseWriter) {
	respondError(w, http.StatusNotFound, res.label+" not found")
}

func (res resource[T]) create(w http.ResponseWriter, r *http.Request) {
	values, ok := decodeObject(w, r)
	if !ok {
		return
	}
	if !validate(w, res.kind, values, false) {
		return
	}

	rec, err := rental.Decode[T](values)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid "+res.label)
		return
	}
	if res.fill != nil {
		res.fill(&rec)
	}
	respondJSON(w, http.StatusCreated, res.add(r.Context(), rec))
}

func (res resource[T]) show(w http.ResponseWriter, r *http.Request) {
	rec, ok := res.get(chi.URLParam(r, "id"))
	if !ok {
		res.notFound(w)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (res resource[T]) patch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := res.get(id); !ok {
		res.notFound(w)
		return
	}

	values, ok := decodeObject(w, r)
	if !ok {
		return
	}
	if !validate(w, res.kind, values, true) {
		return
	}

	if err := res.update(r.Context(), id, values); err != nil {
		slog.WarnContext(r.Context(), "record update rejected",
			logger.Entity(string(res.kind)), logger.RecordID(id), logger.Error(err))
		respondError(w, http.StatusBadRequest, "Failed to update "+string(res.kind))
		return
	}

	rec, ok := res.get(id)
	if !ok {
		res.notFound(w)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (res resource[T]) destroy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := res.get(id); !ok {
		res.notFound(w)
		return
	}
	if err := res.remove(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete "+string(res.kind))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeObject(w http.ResponseWriter, r *http.Request) (rental.Patch, bool) {
	var values rental.Patch
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&values); err != nil || values == nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}
	return values, true
}

// validate answers 422 with per-field messages when values break the
// kind's form.
func validate(w http.ResponseWriter, kind rental.Kind, values rental.Patch, partial bool) bool {
	schema, ok := rental.FormFor(kind)
	if !ok {
		return true
	}
	err := schema.Validate(values, partial)
	if err == nil {
		return true
	}

	var fields form.Errors
	if errors.As(err, &fields) {
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"fields": fields,
		})
		return false
	}
	respondError(w, http.StatusUnprocessableEntity, "validation failed")
	return false
}
