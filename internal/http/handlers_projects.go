package httpx

import (
	"net/http"

	"github.com/timescope/featureset-api/internal/service"
)

// ProjectHandlers provides HTTP handlers for project and dataset lookups.
type ProjectHandlers struct {
	Svc *service.ProjectService
}

// ListProjects handles GET /api/projects.
func (h *ProjectHandlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	projects, err := h.Svc.List(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, featuresetResponse{Data: projects})
}

// GetProject handles GET /api/projects/{id}.
func (h *ProjectHandlers) GetProject(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id := r.PathValue("id")

	project, err := h.Svc.Get(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, featuresetResponse{Data: project})
}

// ListProjectDatasets handles GET /api/projects/{id}/datasets.
func (h *ProjectHandlers) ListProjectDatasets(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	id := r.PathValue("id")

	datasets, err := h.Svc.Datasets(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, featuresetResponse{Data: datasets})
}
