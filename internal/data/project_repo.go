package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/timescope/featureset-api/internal/core"
	"github.com/timescope/featureset-api/internal/domain/model"
)

// ProjectRepo provides read access to projects.
type ProjectRepo struct {
	DB *sql.DB
}

var _ core.ProjectRepository = (*ProjectRepo)(nil)

// NewProjectRepo creates a new ProjectRepo.
func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{DB: db}
}

const projectColumns = `id, name, description, owner_id, created_at, updated_at`

// GetByID retrieves a project by its ID.
func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*model.Project, error) {
	p := &model.Project{}
	err := r.DB.QueryRowContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

// ListByOwner returns the user's projects, newest first.
func (r *ProjectRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Project, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			_ = cerr
		}
	}()

	var out []*model.Project
	for rows.Next() {
		p := &model.Project{}
		if scanErr := rows.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.CreatedAt, &p.UpdatedAt); scanErr != nil {
			return nil, fmt.Errorf("scan project: %w", scanErr)
		}
		out = append(out, p)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("list projects: %w", rowsErr)
	}
	return out, nil
}
