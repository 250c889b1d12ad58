package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/timescope/featureset-api/internal/core"
	"github.com/timescope/featureset-api/internal/domain/features"
	"github.com/timescope/featureset-api/internal/domain/model"
)

// FeaturesetServiceOptions groups dependencies for FeaturesetService.
type FeaturesetServiceOptions struct {
	Repo           core.FeaturesetRepository // Required: featureset repository
	Datasets       core.DatasetRepository    // Required: dataset lookups
	Projects       core.ProjectRepository    // Required: project lookups for ownership checks
	Submitter      *Submitter                // Required: pipeline submission
	Watcher        *Watcher                  // Required: completion reconciliation
	Artifacts      core.ArtifactStore        // Required: matrix retrieval and cleanup
	FeaturesFolder string                    // Required: directory for output artifacts
	Logger         *slog.Logger              // Optional: structured logger
}

// FeaturesetService provides business logic for featureset operations.
//
// Create is the asynchronous entry point: it validates the request, submits
// the extraction graph, persists a pending record carrying the pipeline's
// correlation token, and hands the future to the watcher. The call returns
// while extraction is still running.
type FeaturesetService struct {
	repo           core.FeaturesetRepository
	datasets       core.DatasetRepository
	projects       core.ProjectRepository
	submitter      *Submitter
	watcher        *Watcher
	artifacts      core.ArtifactStore
	featuresFolder string
	logger         *slog.Logger
}

// NewFeaturesetService constructs a new FeaturesetService.
func NewFeaturesetService(opts FeaturesetServiceOptions) (*FeaturesetService, error) {
	if opts.Repo == nil {
		return nil, errors.New("FeaturesetRepository is required")
	}
	if opts.Datasets == nil {
		return nil, errors.New("DatasetRepository is required")
	}
	if opts.Projects == nil {
		return nil, errors.New("ProjectRepository is required")
	}
	if opts.Submitter == nil {
		return nil, errors.New("Submitter is required")
	}
	if opts.Watcher == nil {
		return nil, errors.New("Watcher is required")
	}
	if opts.Artifacts == nil {
		return nil, errors.New("ArtifactStore is required")
	}
	if opts.FeaturesFolder == "" {
		return nil, errors.New("FeaturesFolder is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "featureset_service")
	}

	return &FeaturesetService{
		repo:           opts.Repo,
		datasets:       opts.Datasets,
		projects:       opts.Projects,
		submitter:      opts.Submitter,
		watcher:        opts.Watcher,
		artifacts:      opts.Artifacts,
		featuresFolder: opts.FeaturesFolder,
		logger:         logger,
	}, nil
}

// MustNewFeaturesetService constructs a new FeaturesetService and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewFeaturesetService(opts FeaturesetServiceOptions) *FeaturesetService {
	svc, err := NewFeaturesetService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create FeaturesetService: %v", err))
	}
	return svc
}

// Create validates the request, submits the extraction pipeline, and persists
// a pending featureset record. The returned record has a non-empty TaskID and
// no FinishedAt; the watcher reconciles it once the pipeline resolves.
func (s *FeaturesetService) Create(
	ctx context.Context,
	userID string,
	req *model.CreateFeaturesetRequest,
) (*model.Featureset, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	selected := req.SelectedFeatures(features.Catalog())
	if len(selected) == 0 {
		return nil, model.ErrNoFeaturesSelected
	}

	dataset, err := s.datasets.GetByID(ctx, req.DatasetID)
	if err != nil {
		return nil, fmt.Errorf("get dataset %s: %w", req.DatasetID, err)
	}

	project, err := s.projects.GetByID(ctx, dataset.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", dataset.ProjectID, err)
	}
	if project.OwnerID != userID {
		return nil, ErrNotOwned
	}

	fileURIs := dataset.FileURIs()
	if len(fileURIs) == 0 {
		return nil, ErrDatasetEmpty
	}

	outputURI := filepath.Join(s.featuresFolder, "features_"+uuid.NewString()+".csv.gz")

	fut, err := s.submitter.Submit(ctx, PipelineSpec{
		FileURIs:     fileURIs,
		Features:     selected,
		CustomScript: req.CustomScript(),
		OutputURI:    outputURI,
	})
	if err != nil {
		return nil, fmt.Errorf("submit pipeline: %w", err)
	}

	fs, err := s.repo.Create(ctx, core.CreateFeaturesetParams{
		Name:                 req.FeaturesetName,
		ProjectID:            dataset.ProjectID,
		FileURI:              outputURI,
		FeaturesList:         selected,
		CustomFeaturesScript: req.CustomScript(),
		TaskID:               fut.Key(),
	})
	if err != nil {
		return nil, fmt.Errorf("create featureset record: %w", err)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "featureset submitted",
			"featureset_id", fs.ID,
			"name", fs.Name,
			"task_id", fs.TaskID,
			"dataset_id", req.DatasetID,
			"feature_count", len(selected),
		)
	}

	s.watcher.Watch(ctx, fs, userID, fut)

	return fs, nil
}

// Get returns a featureset by id after verifying the caller owns its project.
func (s *FeaturesetService) Get(ctx context.Context, userID, id string) (*model.Featureset, error) {
	fs, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get featureset %s: %w", id, err)
	}

	if err := s.checkOwnership(ctx, userID, fs.ProjectID); err != nil {
		return nil, err
	}

	return fs, nil
}

// List returns all featuresets across the caller's projects, newest first.
func (s *FeaturesetService) List(ctx context.Context, userID string) ([]*model.Featureset, error) {
	sets, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list featuresets: %w", err)
	}
	return sets, nil
}

// Delete removes a featureset record and its persisted matrix, if any.
func (s *FeaturesetService) Delete(ctx context.Context, userID, id string) error {
	fs, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get featureset %s: %w", id, err)
	}

	if err := s.checkOwnership(ctx, userID, fs.ProjectID); err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete featureset %s: %w", id, err)
	}
	if !deleted {
		return nil
	}

	if err := s.artifacts.Remove(ctx, fs.FileURI); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to remove featureset artifact",
			"featureset_id", id,
			"file_uri", fs.FileURI,
			"error", err,
		)
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "featureset deleted", "featureset_id", id)
	}

	return nil
}

// Matrix loads the persisted feature matrix for a completed featureset.
func (s *FeaturesetService) Matrix(ctx context.Context, userID, id string) (*features.FeatureMatrix, error) {
	fs, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if fs.Status() != model.FeaturesetStatusCompleted {
		return nil, fmt.Errorf("featureset %s is still %s", id, fs.Status())
	}

	m, err := s.artifacts.LoadMatrix(ctx, fs.FileURI)
	if err != nil {
		return nil, fmt.Errorf("load feature matrix %s: %w", fs.FileURI, err)
	}
	return m, nil
}

func (s *FeaturesetService) checkOwnership(ctx context.Context, userID, projectID string) error {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("get project %s: %w", projectID, err)
	}
	if project.OwnerID != userID {
		return ErrNotOwned
	}
	return nil
}
