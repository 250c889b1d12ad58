// Package core provides the service-layer contracts for the featureset system.
package core

import (
	"context"
	"time"

	"github.com/timescope/featureset-api/internal/domain/features"
	"github.com/timescope/featureset-api/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// Service implementations depend on these interfaces, not concrete implementations.

// CreateFeaturesetParams groups the fields persisted when a new extraction
// job is submitted.
type CreateFeaturesetParams struct {
	Name                 string
	ProjectID            string
	FileURI              string
	FeaturesList         []string
	CustomFeaturesScript *string
	TaskID               string
}

// DeleteStalePendingParams groups parameters for the reaper sweep.
type DeleteStalePendingParams struct {
	MaxAge    time.Duration
	BatchSize int
}

// FeaturesetRepository defines the interface for featureset record operations.
type FeaturesetRepository interface {
	Create(ctx context.Context, params CreateFeaturesetParams) (*model.Featureset, error)
	GetByID(ctx context.Context, id string) (*model.Featureset, error)
	// ListByOwner walks the ownership chain: every featureset in any project
	// owned by the user.
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Featureset, error)
	// MarkCompleted clears the task id and stamps finished_at in one update.
	// Returns false when the record no longer exists or is already terminal.
	MarkCompleted(ctx context.Context, id string, finishedAt time.Time) (bool, error)
	// Delete removes the record outright. A deleted record is the failure
	// signal: it must not appear in subsequent listings.
	Delete(ctx context.Context, id string) (bool, error)
	// DeleteStalePending removes pending records older than MaxAge whose task
	// was lost (e.g. across a process restart). Returns rows removed.
	DeleteStalePending(ctx context.Context, params DeleteStalePendingParams) (int64, error)
}

// DatasetRepository defines the interface for dataset lookups.
type DatasetRepository interface {
	GetByID(ctx context.Context, id string) (*model.Dataset, error)
	ListByProject(ctx context.Context, projectID string) ([]*model.Dataset, error)
}

// ProjectRepository defines the interface for project lookups.
type ProjectRepository interface {
	GetByID(ctx context.Context, id string) (*model.Project, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Project, error)
}

// UserRepository resolves API tokens to principals.
type UserRepository interface {
	GetByToken(ctx context.Context, token string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// ArtifactStore persists pipeline outputs and reads stored series documents.
type ArtifactStore interface {
	SaveMatrix(ctx context.Context, uri string, matrix *features.FeatureMatrix) error
	LoadMatrix(ctx context.Context, uri string) (*features.FeatureMatrix, error)
	ReadSeries(ctx context.Context, uri string) ([]byte, error)
	Remove(ctx context.Context, uri string) error
}
