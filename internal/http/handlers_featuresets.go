// Package httpx provides HTTP handlers and utilities for the featureset API.
package httpx

import (
	"errors"
	"net/http"

	"github.com/timescope/featureset-api/internal/data"
	"github.com/timescope/featureset-api/internal/domain/model"
	"github.com/timescope/featureset-api/internal/flow"
	"github.com/timescope/featureset-api/internal/service"
)

// FeaturesetHandlers provides HTTP handlers for featureset operations.
type FeaturesetHandlers struct {
	Svc *service.FeaturesetService
}

// featuresetResponse mirrors the wire shape clients expect: the record plus
// an action hint telling connected clients to re-fetch their listings.
type featuresetResponse struct {
	Data   any    `json:"data,omitempty"`
	Action string `json:"action,omitempty"`
}

// CreateFeatureset handles POST /api/featuresets. It returns as soon as the
// pipeline is submitted; the created record is still pending.
func (h *FeaturesetHandlers) CreateFeatureset(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req model.CreateFeaturesetRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	fs, err := h.Svc.Create(r.Context(), user.ID, &req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, featuresetResponse{
		Data:   fs,
		Action: flow.ActionFetchFeaturesets,
	})
}

// ListFeaturesets handles GET /api/featuresets.
func (h *FeaturesetHandlers) ListFeaturesets(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	sets, err := h.Svc.List(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, featuresetResponse{Data: sets})
}

// GetFeatureset handles GET /api/featuresets/{id}.
func (h *FeaturesetHandlers) GetFeatureset(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id := r.PathValue("id")

	fs, err := h.Svc.Get(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, featuresetResponse{Data: fs})
}

// DeleteFeatureset handles DELETE /api/featuresets/{id}.
func (h *FeaturesetHandlers) DeleteFeatureset(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id := r.PathValue("id")

	if err := h.Svc.Delete(r.Context(), user.ID, id); err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, featuresetResponse{
		Action: flow.ActionFetchFeaturesets,
	})
}

// GetFeaturesetMatrix handles GET /api/featuresets/{id}/matrix. Only completed
// featuresets have a matrix to serve.
func (h *FeaturesetHandlers) GetFeaturesetMatrix(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id := r.PathValue("id")

	m, err := h.Svc.Matrix(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, featuresetResponse{Data: m})
}

// writeServiceError maps service-layer errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNoFeaturesSelected):
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "no_features_selected", Err: err})
	case errors.Is(err, model.ErrDatasetRequired):
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "dataset_required", Err: err})
	case errors.Is(err, service.ErrDatasetEmpty):
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "dataset_empty", Err: err})
	case errors.Is(err, service.ErrNotOwned):
		WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "forbidden", Err: err})
	case errors.Is(err, data.ErrFeaturesetNotFound),
		errors.Is(err, data.ErrDatasetNotFound),
		errors.Is(err, data.ErrProjectNotFound):
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: err})
	default:
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal_error", Err: err})
	}
}
