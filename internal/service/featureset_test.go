package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/timescope/featureset-api/internal/core"
	"github.com/timescope/featureset-api/internal/domain/features"
	"github.com/timescope/featureset-api/internal/domain/model"
	"github.com/timescope/featureset-api/internal/flow"
	"github.com/timescope/featureset-api/internal/mocks"
)

type featuresetFixture struct {
	svc       *FeaturesetService
	repo      *mocks.MockFeaturesetRepository
	datasets  *mocks.MockDatasetRepository
	projects  *mocks.MockProjectRepository
	artifacts *mocks.MockArtifactStore
	watcher   *Watcher
	recorder  *flow.Recorder
}

func newFeaturesetFixture(t *testing.T) *featuresetFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &featuresetFixture{
		repo:      mocks.NewMockFeaturesetRepository(ctrl),
		datasets:  mocks.NewMockDatasetRepository(ctrl),
		projects:  mocks.NewMockProjectRepository(ctrl),
		artifacts: mocks.NewMockArtifactStore(ctrl),
		recorder:  flow.NewRecorder(),
	}

	submitter := MustNewSubmitter(SubmitterOptions{
		Pool:      newTestPool(t),
		Artifacts: f.artifacts,
	})
	f.watcher = MustNewWatcher(WatcherOptions{
		Repo:    f.repo,
		Emitter: f.recorder,
	})
	f.svc = MustNewFeaturesetService(FeaturesetServiceOptions{
		Repo:           f.repo,
		Datasets:       f.datasets,
		Projects:       f.projects,
		Submitter:      submitter,
		Watcher:        f.watcher,
		Artifacts:      f.artifacts,
		FeaturesFolder: "/var/featuresets",
	})
	return f
}

func testDataset(projectID string, uris ...string) *model.Dataset {
	files := make([]model.DatasetFile, len(uris))
	for i, uri := range uris {
		files[i] = model.DatasetFile{ID: "f" + uri, DatasetID: "ds-1", URI: uri}
	}
	return &model.Dataset{ID: "ds-1", Name: "survey", ProjectID: projectID, Files: files}
}

func TestFeaturesetCreateSubmitsAndRecords(t *testing.T) {
	f := newFeaturesetFixture(t)

	f.datasets.EXPECT().GetByID(gomock.Any(), "ds-1").
		Return(testDataset("proj-1", "/data/a.json"), nil)
	f.projects.EXPECT().GetByID(gomock.Any(), "proj-1").
		Return(&model.Project{ID: "proj-1", OwnerID: "user-1"}, nil)

	f.artifacts.EXPECT().ReadSeries(gomock.Any(), "/data/a.json").
		Return(seriesDoc("a", "rrlyr", 1, 2, 3), nil)
	f.artifacts.EXPECT().SaveMatrix(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	var recorded core.CreateFeaturesetParams
	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p core.CreateFeaturesetParams) (*model.Featureset, error) {
			recorded = p
			return &model.Featureset{
				ID:        "fs-1",
				Name:      p.Name,
				ProjectID: p.ProjectID,
				FileURI:   p.FileURI,
				TaskID:    p.TaskID,
			}, nil
		})
	f.repo.EXPECT().MarkCompleted(gomock.Any(), "fs-1", gomock.Any()).Return(true, nil)

	fs, err := f.svc.Create(context.Background(), "user-1", &model.CreateFeaturesetRequest{
		FeaturesetName: "bright stars",
		DatasetID:      "ds-1",
		FeatureFlags:   map[string]bool{"mean": true, "maximum": true},
	})
	require.NoError(t, err)

	assert.Equal(t, "bright stars", fs.Name)
	assert.Equal(t, model.FeaturesetStatusPending, fs.Status())
	assert.True(t, strings.HasPrefix(fs.TaskID, StagePersist+"-"))

	assert.Equal(t, []string{"maximum", "mean"}, recorded.FeaturesList)
	assert.True(t, strings.HasPrefix(recorded.FileURI, "/var/featuresets/features_"))
	assert.True(t, strings.HasSuffix(recorded.FileURI, ".csv.gz"))
	assert.Nil(t, recorded.CustomFeaturesScript)

	// The detached watcher finishes the lifecycle: completion mark plus the
	// notification and refresh push.
	f.watcher.Wait()
	msgs := f.recorder.Messages("user-1")
	require.Len(t, msgs, 2)
	assert.Equal(t, "Calculation of featureset 'bright stars' completed.", msgs[0].Payload.Note)
	assert.Equal(t, flow.ActionFetchFeaturesets, msgs[1].Action)
}

func TestFeaturesetCreateFailedPipelineDeletesRecord(t *testing.T) {
	f := newFeaturesetFixture(t)

	f.datasets.EXPECT().GetByID(gomock.Any(), "ds-1").
		Return(testDataset("proj-1", "/data/a.json"), nil)
	f.projects.EXPECT().GetByID(gomock.Any(), "proj-1").
		Return(&model.Project{ID: "proj-1", OwnerID: "user-1"}, nil)
	f.artifacts.EXPECT().ReadSeries(gomock.Any(), "/data/a.json").
		Return(nil, errors.New("storage unavailable"))

	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p core.CreateFeaturesetParams) (*model.Featureset, error) {
			return &model.Featureset{ID: "fs-1", Name: p.Name, TaskID: p.TaskID}, nil
		})
	f.repo.EXPECT().Delete(gomock.Any(), "fs-1").Return(true, nil)

	_, err := f.svc.Create(context.Background(), "user-1", &model.CreateFeaturesetRequest{
		FeaturesetName: "doomed",
		DatasetID:      "ds-1",
		FeatureFlags:   map[string]bool{"mean": true},
	})
	require.NoError(t, err)

	f.watcher.Wait()
	msgs := f.recorder.Messages("user-1")
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Payload.Note, "Cannot featurize doomed:")
	assert.Equal(t, flow.ActionFetchFeaturesets, msgs[1].Action)
}

func TestFeaturesetCreateValidation(t *testing.T) {
	f := newFeaturesetFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, "user-1", &model.CreateFeaturesetRequest{
		FeaturesetName: "x",
		FeatureFlags:   map[string]bool{"mean": true},
	})
	assert.ErrorIs(t, err, model.ErrDatasetRequired)

	_, err = f.svc.Create(ctx, "user-1", &model.CreateFeaturesetRequest{
		FeaturesetName: "x",
		DatasetID:      "ds-1",
		FeatureFlags:   map[string]bool{"no_such_feature": true},
	})
	assert.ErrorIs(t, err, model.ErrNoFeaturesSelected)
}

func TestFeaturesetCreateRejectsForeignProject(t *testing.T) {
	f := newFeaturesetFixture(t)

	f.datasets.EXPECT().GetByID(gomock.Any(), "ds-1").
		Return(testDataset("proj-1", "/data/a.json"), nil)
	f.projects.EXPECT().GetByID(gomock.Any(), "proj-1").
		Return(&model.Project{ID: "proj-1", OwnerID: "someone-else"}, nil)

	_, err := f.svc.Create(context.Background(), "user-1", &model.CreateFeaturesetRequest{
		FeaturesetName: "x",
		DatasetID:      "ds-1",
		FeatureFlags:   map[string]bool{"mean": true},
	})
	assert.ErrorIs(t, err, ErrNotOwned)
}

func TestFeaturesetCreateRejectsEmptyDataset(t *testing.T) {
	f := newFeaturesetFixture(t)

	f.datasets.EXPECT().GetByID(gomock.Any(), "ds-1").
		Return(testDataset("proj-1"), nil)
	f.projects.EXPECT().GetByID(gomock.Any(), "proj-1").
		Return(&model.Project{ID: "proj-1", OwnerID: "user-1"}, nil)

	_, err := f.svc.Create(context.Background(), "user-1", &model.CreateFeaturesetRequest{
		FeaturesetName: "x",
		DatasetID:      "ds-1",
		FeatureFlags:   map[string]bool{"mean": true},
	})
	assert.ErrorIs(t, err, ErrDatasetEmpty)
}

func TestFeaturesetGetChecksOwnership(t *testing.T) {
	f := newFeaturesetFixture(t)

	fs := &model.Featureset{ID: "fs-1", ProjectID: "proj-1"}
	f.repo.EXPECT().GetByID(gomock.Any(), "fs-1").Return(fs, nil).Times(2)
	f.projects.EXPECT().GetByID(gomock.Any(), "proj-1").
		Return(&model.Project{ID: "proj-1", OwnerID: "user-1"}, nil)
	f.projects.EXPECT().GetByID(gomock.Any(), "proj-1").
		Return(&model.Project{ID: "proj-1", OwnerID: "someone-else"}, nil)

	got, err := f.svc.Get(context.Background(), "user-1", "fs-1")
	require.NoError(t, err)
	assert.Same(t, fs, got)

	_, err = f.svc.Get(context.Background(), "user-1", "fs-1")
	assert.ErrorIs(t, err, ErrNotOwned)
}

func TestFeaturesetDeleteRemovesArtifact(t *testing.T) {
	f := newFeaturesetFixture(t)

	fs := &model.Featureset{ID: "fs-1", ProjectID: "proj-1", FileURI: "/var/featuresets/features_x.csv.gz"}
	f.repo.EXPECT().GetByID(gomock.Any(), "fs-1").Return(fs, nil)
	f.projects.EXPECT().GetByID(gomock.Any(), "proj-1").
		Return(&model.Project{ID: "proj-1", OwnerID: "user-1"}, nil)
	f.repo.EXPECT().Delete(gomock.Any(), "fs-1").Return(true, nil)
	f.artifacts.EXPECT().Remove(gomock.Any(), "/var/featuresets/features_x.csv.gz").Return(nil)

	err := f.svc.Delete(context.Background(), "user-1", "fs-1")
	require.NoError(t, err)
}

func TestFeaturesetDeleteAlreadyGoneSkipsArtifact(t *testing.T) {
	f := newFeaturesetFixture(t)

	fs := &model.Featureset{ID: "fs-1", ProjectID: "proj-1", FileURI: "/var/x.csv.gz"}
	f.repo.EXPECT().GetByID(gomock.Any(), "fs-1").Return(fs, nil)
	f.projects.EXPECT().GetByID(gomock.Any(), "proj-1").
		Return(&model.Project{ID: "proj-1", OwnerID: "user-1"}, nil)
	f.repo.EXPECT().Delete(gomock.Any(), "fs-1").Return(false, nil)

	err := f.svc.Delete(context.Background(), "user-1", "fs-1")
	require.NoError(t, err)
}

func TestFeaturesetMatrix(t *testing.T) {
	f := newFeaturesetFixture(t)
	finished := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	pending := &model.Featureset{ID: "fs-1", ProjectID: "proj-1", TaskID: "persist-abc"}
	completed := &model.Featureset{
		ID: "fs-2", ProjectID: "proj-1",
		FileURI: "/var/m.csv.gz", FinishedAt: &finished,
	}
	f.repo.EXPECT().GetByID(gomock.Any(), "fs-1").Return(pending, nil)
	f.repo.EXPECT().GetByID(gomock.Any(), "fs-2").Return(completed, nil)
	f.projects.EXPECT().GetByID(gomock.Any(), "proj-1").
		Return(&model.Project{ID: "proj-1", OwnerID: "user-1"}, nil).Times(2)

	want := &features.FeatureMatrix{FeatureNames: []string{"mean"}}
	f.artifacts.EXPECT().LoadMatrix(gomock.Any(), "/var/m.csv.gz").Return(want, nil)

	_, err := f.svc.Matrix(context.Background(), "user-1", "fs-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "still pending")

	got, err := f.svc.Matrix(context.Background(), "user-1", "fs-2")
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestFeaturesetList(t *testing.T) {
	f := newFeaturesetFixture(t)

	sets := []*model.Featureset{{ID: "fs-1"}, {ID: "fs-2"}}
	f.repo.EXPECT().ListByOwner(gomock.Any(), "user-1").Return(sets, nil)

	got, err := f.svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, sets, got)
}
