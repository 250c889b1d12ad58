// Package data implements the PostgreSQL repositories for the featureset system.
package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/timescope/featureset-api/internal/core"
	"github.com/timescope/featureset-api/internal/data/pgxutil"
	"github.com/timescope/featureset-api/internal/domain/model"
)

// RepoConfig holds shared configuration for repositories.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// FeaturesetRepo provides database operations for featureset records.
type FeaturesetRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

var _ core.FeaturesetRepository = (*FeaturesetRepo)(nil)

// NewFeaturesetRepo creates a new FeaturesetRepo.
func NewFeaturesetRepo(db *sql.DB, cfg RepoConfig) *FeaturesetRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &FeaturesetRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

const featuresetColumns = `
  id,
  name,
  project_id,
  file_uri,
  features_list,
  custom_features_script,
  task_id,
  finished_at,
  created_at,
  updated_at
`

// Create inserts a new pending featureset record. The task id is stored in
// the same transaction, so a listing that observes the new row always sees
// its correlation token.
func (r *FeaturesetRepo) Create(
	ctx context.Context,
	params core.CreateFeaturesetParams,
) (*model.Featureset, error) {
	if params.ProjectID == "" {
		return nil, errors.New("project id is required")
	}
	if params.TaskID == "" {
		return nil, errors.New("task id is required")
	}
	if len(params.FeaturesList) == 0 {
		return nil, model.ErrNoFeaturesSelected
	}

	featuresJSON, err := json.Marshal(params.FeaturesList)
	if err != nil {
		return nil, fmt.Errorf("marshal features list: %w", err)
	}

	now := r.timeProvider.Now().UTC()

	var fset *model.Featureset
	txErr := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			rows, qerr := tx.Query(ctx, `
				INSERT INTO featuresets(name, project_id, file_uri, features_list, custom_features_script, task_id, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
				RETURNING `+featuresetColumns,
				params.Name,
				params.ProjectID,
				params.FileURI,
				featuresJSON,
				params.CustomFeaturesScript,
				params.TaskID,
				now,
			)
			if qerr != nil {
				return fmt.Errorf("insert featureset: %w", qerr)
			}
			var collectErr error
			fset, collectErr = collectFeaturesetFromRows(rows)
			rows.Close()
			if collectErr != nil {
				return fmt.Errorf("collect featureset: %w", collectErr)
			}
			return nil
		},
	})
	if txErr != nil {
		if isForeignKeyViolation(txErr) {
			return nil, ErrProjectNotFound
		}
		return nil, txErr
	}
	return fset, nil
}

// GetByID retrieves a featureset record by its ID.
func (r *FeaturesetRepo) GetByID(ctx context.Context, id string) (*model.Featureset, error) {
	var fset *model.Featureset
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, qerr := conn.Query(ctx, `
			SELECT `+featuresetColumns+`
			FROM featuresets
			WHERE id = $1
		`, id)
		if qerr != nil {
			return qerr
		}
		defer rows.Close()
		var collectErr error
		fset, collectErr = collectFeaturesetFromRows(rows)
		return collectErr
	})

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFeaturesetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get featureset: %w", err)
	}
	return fset, nil
}

// ListByOwner returns all featuresets reachable through the ownership chain
// user -> project -> featureset, newest first.
func (r *FeaturesetRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Featureset, error) {
	if ownerID == "" {
		return nil, errors.New("owner id is required")
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT f.id, f.name, f.project_id, f.file_uri, f.features_list,
		       f.custom_features_script, f.task_id, f.finished_at,
		       f.created_at, f.updated_at
		FROM featuresets f
		JOIN projects p ON p.id = f.project_id
		WHERE p.owner_id = $1
		ORDER BY f.created_at DESC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list featuresets by owner: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			_ = cerr
		}
	}()

	var out []*model.Featureset
	for rows.Next() {
		fset, scanErr := scanFeaturesetFromRow(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan featureset: %w", scanErr)
		}
		out = append(out, fset)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("list featuresets by owner: %w", rowsErr)
	}
	return out, nil
}

// MarkCompleted atomically clears the task id and stamps finished_at. The
// guard on task_id makes the transition idempotent: a record that already
// reached a terminal state is left untouched.
func (r *FeaturesetRepo) MarkCompleted(ctx context.Context, id string, finishedAt time.Time) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE featuresets
		SET task_id = '',
		    finished_at = $2,
		    updated_at = $3
		WHERE id = $1 AND task_id <> ''
	`, id, finishedAt.UTC(), r.timeProvider.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("mark featureset completed: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark completed rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Delete removes the record. Returns false when it was already gone.
func (r *FeaturesetRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM featuresets WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete featureset: %w", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// DeleteStalePending removes pending records whose submission is older than
// MaxAge. A pending row that old has lost its watcher (the process restarted
// mid-pipeline), and the failure policy is that such jobs leave no trace.
func (r *FeaturesetRepo) DeleteStalePending(
	ctx context.Context,
	params core.DeleteStalePendingParams,
) (int64, error) {
	if params.MaxAge <= 0 {
		return 0, errors.New("max age must be positive")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = 100
	}

	cutoff := r.timeProvider.Now().Add(-params.MaxAge).UTC()
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM featuresets
		WHERE id IN (
			SELECT id FROM featuresets
			WHERE task_id <> '' AND finished_at IS NULL AND created_at < $1
			LIMIT $2
		)
	`, cutoff, batch)
	if err != nil {
		return 0, fmt.Errorf("delete stale pending featuresets: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("stale pending rows affected: %w", err)
	}

	if rowsAffected > 0 && r.logger != nil {
		r.logger.InfoContext(ctx, "reaped stale pending featuresets",
			"count", rowsAffected,
			"cutoff", cutoff,
		)
	}
	return rowsAffected, nil
}

func collectFeaturesetFromRows(rows pgx.Rows) (*model.Featureset, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}
	fset, err := scanFeaturesetFromRow(rows)
	if err != nil {
		return nil, err
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, rowsErr
	}
	return fset, nil
}

type featuresetRowScanner interface {
	Scan(dest ...any) error
}

func scanFeaturesetFromRow(scanner featuresetRowScanner) (*model.Featureset, error) {
	fset := &model.Featureset{}
	var (
		featuresJSON []byte
		customScript sql.NullString
		finishedAt   sql.NullTime
		taskID       sql.NullString
	)
	if err := scanner.Scan(
		&fset.ID,
		&fset.Name,
		&fset.ProjectID,
		&fset.FileURI,
		&featuresJSON,
		&customScript,
		&taskID,
		&finishedAt,
		&fset.CreatedAt,
		&fset.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if len(featuresJSON) > 0 {
		if err := json.Unmarshal(featuresJSON, &fset.FeaturesList); err != nil {
			return nil, fmt.Errorf("decode features list: %w", err)
		}
	}
	if customScript.Valid {
		s := customScript.String
		fset.CustomFeaturesScript = &s
	}
	if taskID.Valid {
		fset.TaskID = taskID.String
	}
	if finishedAt.Valid {
		t := finishedAt.Time.UTC()
		fset.FinishedAt = &t
	}
	return fset, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.ForeignKeyViolation
	}
	return false
}
