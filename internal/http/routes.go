package httpx

import (
	"log/slog"
	"net/http"

	"github.com/timescope/featureset-api/internal/core"
	"github.com/timescope/featureset-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Featuresets *service.FeaturesetService
	Projects    *service.ProjectService
	Users       core.UserRepository
	Flow        FlowSubscriber // Optional: websocket flow bridge

	// Configuration
	CompressionEnabled bool
	CompressionLevel   int
	Logger             *slog.Logger // Optional: request logging
}

// NewRouter creates and configures a new HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	featuresetHandlers := &FeaturesetHandlers{Svc: services.Featuresets}
	projectHandlers := &ProjectHandlers{Svc: services.Projects}

	auth := RequireToken(services.Users)

	mux.Handle("POST /api/featuresets", auth(http.HandlerFunc(featuresetHandlers.CreateFeatureset)))
	mux.Handle("GET /api/featuresets", auth(http.HandlerFunc(featuresetHandlers.ListFeaturesets)))
	mux.Handle("GET /api/featuresets/{id}", auth(http.HandlerFunc(featuresetHandlers.GetFeatureset)))
	mux.Handle("DELETE /api/featuresets/{id}", auth(http.HandlerFunc(featuresetHandlers.DeleteFeatureset)))
	mux.Handle("GET /api/featuresets/{id}/matrix", auth(http.HandlerFunc(featuresetHandlers.GetFeaturesetMatrix)))

	mux.Handle("GET /api/features", auth(http.HandlerFunc(GetFeatureCatalog)))

	mux.Handle("GET /api/projects", auth(http.HandlerFunc(projectHandlers.ListProjects)))
	mux.Handle("GET /api/projects/{id}", auth(http.HandlerFunc(projectHandlers.GetProject)))
	mux.Handle("GET /api/projects/{id}/datasets", auth(http.HandlerFunc(projectHandlers.ListProjectDatasets)))

	if services.Flow != nil {
		flowHandlers := &FlowHandlers{Subscriber: services.Flow, Logger: services.Logger}
		mux.Handle("GET /ws/flow", auth(http.HandlerFunc(flowHandlers.ServeFlow)))
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	var handler http.Handler = mux
	if services.CompressionEnabled {
		handler = Compression(CompressionOptions{Level: services.CompressionLevel})(handler)
	}
	if services.Logger != nil {
		handler = Logging(services.Logger)(handler)
		handler = Recover(services.Logger)(handler)
	}

	return handler
}
