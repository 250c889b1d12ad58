package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/timescope/featureset-api/internal/core"
	"github.com/timescope/featureset-api/internal/domain/model"
)

// ProjectServiceOptions groups dependencies for ProjectService.
type ProjectServiceOptions struct {
	Projects core.ProjectRepository // Required: project repository
	Datasets core.DatasetRepository // Required: dataset repository
	Logger   *slog.Logger           // Optional: structured logger
}

// ProjectService provides read access to projects and their datasets, scoped
// to the owning user.
type ProjectService struct {
	projects core.ProjectRepository
	datasets core.DatasetRepository
	logger   *slog.Logger
}

// NewProjectService constructs a new ProjectService.
func NewProjectService(opts ProjectServiceOptions) (*ProjectService, error) {
	if opts.Projects == nil {
		return nil, errors.New("ProjectRepository is required")
	}
	if opts.Datasets == nil {
		return nil, errors.New("DatasetRepository is required")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "project_service")
	}

	return &ProjectService{
		projects: opts.Projects,
		datasets: opts.Datasets,
		logger:   logger,
	}, nil
}

// MustNewProjectService constructs a new ProjectService and panics on error.
func MustNewProjectService(opts ProjectServiceOptions) *ProjectService {
	svc, err := NewProjectService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create ProjectService: %v", err))
	}
	return svc
}

// List returns the caller's projects.
func (s *ProjectService) List(ctx context.Context, userID string) ([]*model.Project, error) {
	projects, err := s.projects.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// Get returns a project by id after verifying ownership.
func (s *ProjectService) Get(ctx context.Context, userID, id string) (*model.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	if project.OwnerID != userID {
		return nil, ErrNotOwned
	}
	return project, nil
}

// Datasets returns the datasets of one of the caller's projects.
func (s *ProjectService) Datasets(ctx context.Context, userID, projectID string) ([]*model.Dataset, error) {
	if _, err := s.Get(ctx, userID, projectID); err != nil {
		return nil, err
	}

	datasets, err := s.datasets.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list datasets for project %s: %w", projectID, err)
	}
	return datasets, nil
}
