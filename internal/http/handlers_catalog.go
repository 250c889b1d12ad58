package httpx

import (
	"net/http"

	"github.com/timescope/featureset-api/internal/domain/features"
)

// GetFeatureCatalog handles GET /api/features. The catalog is static, so no
// service dependency is needed.
func GetFeatureCatalog(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string][]string{"features": features.Catalog()})
}
