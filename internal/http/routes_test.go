package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	localpool "github.com/timescope/featureset-api/internal/adapters/pool"
	"github.com/timescope/featureset-api/internal/core"
	"github.com/timescope/featureset-api/internal/data"
	"github.com/timescope/featureset-api/internal/domain/features"
	"github.com/timescope/featureset-api/internal/domain/model"
	"github.com/timescope/featureset-api/internal/flow"
	"github.com/timescope/featureset-api/internal/mocks"
	"github.com/timescope/featureset-api/internal/service"
)

// routerFixture wires the real service layer over mocked repositories so
// handler tests exercise the same path production requests take.
type routerFixture struct {
	handler   http.Handler
	repo      *mocks.MockFeaturesetRepository
	datasets  *mocks.MockDatasetRepository
	projects  *mocks.MockProjectRepository
	users     *mocks.MockUserRepository
	artifacts *mocks.MockArtifactStore
	watcher   *service.Watcher
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &routerFixture{
		repo:      mocks.NewMockFeaturesetRepository(ctrl),
		datasets:  mocks.NewMockDatasetRepository(ctrl),
		projects:  mocks.NewMockProjectRepository(ctrl),
		users:     mocks.NewMockUserRepository(ctrl),
		artifacts: mocks.NewMockArtifactStore(ctrl),
	}

	p := localpool.NewLocal(localpool.LocalOptions{Workers: 2})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = p.Shutdown(ctx)
	})

	submitter := service.MustNewSubmitter(service.SubmitterOptions{
		Pool:      p,
		Artifacts: f.artifacts,
	})
	f.watcher = service.MustNewWatcher(service.WatcherOptions{
		Repo:    f.repo,
		Emitter: flow.NewRecorder(),
	})
	featuresets := service.MustNewFeaturesetService(service.FeaturesetServiceOptions{
		Repo:           f.repo,
		Datasets:       f.datasets,
		Projects:       f.projects,
		Submitter:      submitter,
		Watcher:        f.watcher,
		Artifacts:      f.artifacts,
		FeaturesFolder: "/var/featuresets",
	})
	projects := service.MustNewProjectService(service.ProjectServiceOptions{
		Projects: f.projects,
		Datasets: f.datasets,
	})

	f.handler = NewRouter(RouterServices{
		Featuresets: featuresets,
		Projects:    projects,
		Users:       f.users,
		Logger:      testLogger(),
	})
	return f
}

func (f *routerFixture) expectUser(userID string) {
	f.users.EXPECT().GetByToken(gomock.Any(), "tok").
		Return(&model.User{ID: userID}, nil)
}

func (f *routerFixture) do(t *testing.T, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer tok")
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestCreateFeaturesetEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	f.expectUser("user-1")

	f.datasets.EXPECT().GetByID(gomock.Any(), "7").Return(&model.Dataset{
		ID:        "7",
		ProjectID: "proj-1",
		Files:     []model.DatasetFile{{URI: "/data/a.json"}},
	}, nil)
	f.projects.EXPECT().GetByID(gomock.Any(), "proj-1").
		Return(&model.Project{ID: "proj-1", OwnerID: "user-1"}, nil)

	ts := &features.TimeSeries{Name: "a", Values: []float64{1, 2, 3}}
	doc, err := ts.Encode()
	require.NoError(t, err)
	f.artifacts.EXPECT().ReadSeries(gomock.Any(), "/data/a.json").Return(doc, nil)
	f.artifacts.EXPECT().SaveMatrix(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p core.CreateFeaturesetParams) (*model.Featureset, error) {
			return &model.Featureset{ID: "fs-1", Name: p.Name, TaskID: p.TaskID}, nil
		})
	f.repo.EXPECT().MarkCompleted(gomock.Any(), "fs-1", gomock.Any()).Return(true, nil)

	rec := f.do(t, http.MethodPost, "/api/featuresets",
		`{"featuresetName": "bright stars", "datasetID": 7, "mean": true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data   model.Featureset `json:"data"`
		Action string           `json:"action"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "bright stars", body.Data.Name)
	assert.NotEmpty(t, body.Data.TaskID)
	assert.Equal(t, flow.ActionFetchFeaturesets, body.Action)

	f.watcher.Wait()
}

func TestCreateFeaturesetEndpointRejectsBadFlag(t *testing.T) {
	f := newRouterFixture(t)
	f.expectUser("user-1")

	rec := f.do(t, http.MethodPost, "/api/featuresets",
		`{"featuresetName": "x", "datasetID": "7", "mean": "yes please"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_json", body["error"])
}

func TestCreateFeaturesetEndpointNoFeatures(t *testing.T) {
	f := newRouterFixture(t)
	f.expectUser("user-1")

	rec := f.do(t, http.MethodPost, "/api/featuresets",
		`{"featuresetName": "x", "datasetID": "7"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "no_features_selected", body["error"])
}

func TestListFeaturesetsEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	f.expectUser("user-1")

	f.repo.EXPECT().ListByOwner(gomock.Any(), "user-1").
		Return([]*model.Featureset{{ID: "fs-1"}, {ID: "fs-2"}}, nil)

	rec := f.do(t, http.MethodGet, "/api/featuresets", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []model.Featureset `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
}

func TestGetFeaturesetEndpointNotFound(t *testing.T) {
	f := newRouterFixture(t)
	f.expectUser("user-1")

	f.repo.EXPECT().GetByID(gomock.Any(), "nope").
		Return(nil, data.ErrFeaturesetNotFound)

	rec := f.do(t, http.MethodGet, "/api/featuresets/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not_found", body["error"])
}

func TestGetFeaturesetEndpointForbidden(t *testing.T) {
	f := newRouterFixture(t)
	f.expectUser("user-1")

	f.repo.EXPECT().GetByID(gomock.Any(), "fs-1").
		Return(&model.Featureset{ID: "fs-1", ProjectID: "proj-1"}, nil)
	f.projects.EXPECT().GetByID(gomock.Any(), "proj-1").
		Return(&model.Project{ID: "proj-1", OwnerID: "someone-else"}, nil)

	rec := f.do(t, http.MethodGet, "/api/featuresets/fs-1", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteFeaturesetEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	f.expectUser("user-1")

	f.repo.EXPECT().GetByID(gomock.Any(), "fs-1").
		Return(&model.Featureset{ID: "fs-1", ProjectID: "proj-1", FileURI: "/var/m.csv.gz"}, nil)
	f.projects.EXPECT().GetByID(gomock.Any(), "proj-1").
		Return(&model.Project{ID: "proj-1", OwnerID: "user-1"}, nil)
	f.repo.EXPECT().Delete(gomock.Any(), "fs-1").Return(true, nil)
	f.artifacts.EXPECT().Remove(gomock.Any(), "/var/m.csv.gz").Return(nil)

	rec := f.do(t, http.MethodDelete, "/api/featuresets/fs-1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, flow.ActionFetchFeaturesets, body["action"])
}

func TestGetFeaturesetMatrixEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	f.expectUser("user-1")

	finished := time.Now()
	f.repo.EXPECT().GetByID(gomock.Any(), "fs-1").Return(&model.Featureset{
		ID: "fs-1", ProjectID: "proj-1",
		FileURI: "/var/m.csv.gz", FinishedAt: &finished,
	}, nil)
	f.projects.EXPECT().GetByID(gomock.Any(), "proj-1").
		Return(&model.Project{ID: "proj-1", OwnerID: "user-1"}, nil)
	f.artifacts.EXPECT().LoadMatrix(gomock.Any(), "/var/m.csv.gz").Return(&features.FeatureMatrix{
		FeatureNames: []string{"mean"},
		SeriesNames:  []string{"a"},
		Labels:       []string{""},
		Rows:         [][]float64{{2}},
	}, nil)

	rec := f.do(t, http.MethodGet, "/api/featuresets/fs-1/matrix", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data features.FeatureMatrix `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"mean"}, body.Data.FeatureNames)
}

func TestFeatureCatalogEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	f.expectUser("user-1")

	rec := f.do(t, http.MethodGet, "/api/features", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, features.Catalog(), body["features"])
}

func TestProjectEndpoints(t *testing.T) {
	f := newRouterFixture(t)
	f.expectUser("user-1")

	f.projects.EXPECT().GetByID(gomock.Any(), "proj-1").
		Return(&model.Project{ID: "proj-1", OwnerID: "user-1"}, nil)
	f.datasets.EXPECT().ListByProject(gomock.Any(), "proj-1").
		Return([]*model.Dataset{{ID: "ds-1", ProjectID: "proj-1"}}, nil)

	rec := f.do(t, http.MethodGet, "/api/projects/proj-1/datasets", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data []model.Dataset `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "ds-1", body.Data[0].ID)
}

func TestHealthzSkipsAuthentication(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"featureset-api"}`, rec.Body.String())
}

func TestEndpointsRequireAuthentication(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/featuresets", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
