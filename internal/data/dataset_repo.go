package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/timescope/featureset-api/internal/core"
	"github.com/timescope/featureset-api/internal/domain/model"
)

// DatasetRepo provides read access to datasets and their files.
type DatasetRepo struct {
	DB *sql.DB
}

var _ core.DatasetRepository = (*DatasetRepo)(nil)

// NewDatasetRepo creates a new DatasetRepo.
func NewDatasetRepo(db *sql.DB) *DatasetRepo {
	return &DatasetRepo{DB: db}
}

// GetByID retrieves a dataset with its files.
func (r *DatasetRepo) GetByID(ctx context.Context, id string) (*model.Dataset, error) {
	ds := &model.Dataset{}
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, name, project_id, created_at, updated_at
		FROM datasets
		WHERE id = $1
	`, id).Scan(&ds.ID, &ds.Name, &ds.ProjectID, &ds.CreatedAt, &ds.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDatasetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get dataset: %w", err)
	}

	files, err := r.filesFor(ctx, ds.ID)
	if err != nil {
		return nil, err
	}
	ds.Files = files
	return ds, nil
}

// ListByProject returns the project's datasets with their files.
func (r *DatasetRepo) ListByProject(ctx context.Context, projectID string) ([]*model.Dataset, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, name, project_id, created_at, updated_at
		FROM datasets
		WHERE project_id = $1
		ORDER BY created_at DESC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			_ = cerr
		}
	}()

	var out []*model.Dataset
	for rows.Next() {
		ds := &model.Dataset{}
		if scanErr := rows.Scan(&ds.ID, &ds.Name, &ds.ProjectID, &ds.CreatedAt, &ds.UpdatedAt); scanErr != nil {
			return nil, fmt.Errorf("scan dataset: %w", scanErr)
		}
		out = append(out, ds)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("list datasets: %w", rowsErr)
	}

	for _, ds := range out {
		files, filesErr := r.filesFor(ctx, ds.ID)
		if filesErr != nil {
			return nil, filesErr
		}
		ds.Files = files
	}
	return out, nil
}

func (r *DatasetRepo) filesFor(ctx context.Context, datasetID string) ([]model.DatasetFile, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, dataset_id, name, uri
		FROM dataset_files
		WHERE dataset_id = $1
		ORDER BY name ASC
	`, datasetID)
	if err != nil {
		return nil, fmt.Errorf("list dataset files: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			_ = cerr
		}
	}()

	var files []model.DatasetFile
	for rows.Next() {
		var f model.DatasetFile
		if scanErr := rows.Scan(&f.ID, &f.DatasetID, &f.Name, &f.URI); scanErr != nil {
			return nil, fmt.Errorf("scan dataset file: %w", scanErr)
		}
		files = append(files, f)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("list dataset files: %w", rowsErr)
	}
	return files, nil
}
