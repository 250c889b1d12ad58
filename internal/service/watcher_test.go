package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/timescope/featureset-api/internal/data"
	"github.com/timescope/featureset-api/internal/domain/model"
	"github.com/timescope/featureset-api/internal/flow"
	"github.com/timescope/featureset-api/internal/mocks"
	"github.com/timescope/featureset-api/internal/pool"
)

func TestWatcherReconcilesSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	clock := data.NewFixedTimeProvider(now)

	fs := &model.Featureset{ID: "fs-1", Name: "bright stars", TaskID: "persist-abc"}

	repo := mocks.NewMockFeaturesetRepository(ctrl)
	repo.EXPECT().MarkCompleted(gomock.Any(), "fs-1", now).Return(true, nil)

	rec := flow.NewRecorder()
	w := MustNewWatcher(WatcherOptions{
		Repo:         repo,
		Emitter:      rec,
		TimeProvider: clock,
	})

	fut := pool.NewFuture(pool.NewKey("persist"))
	fut.Resolve(nil, nil)

	w.Watch(context.Background(), fs, "user-1", fut)
	w.Wait()

	msgs := rec.Messages("user-1")
	require.Len(t, msgs, 2)
	assert.Equal(t, flow.ActionShowNotification, msgs[0].Action)
	assert.Equal(t, "Calculation of featureset 'bright stars' completed.", msgs[0].Payload.Note)
	assert.Equal(t, flow.SeverityInfo, msgs[0].Payload.Type)
	assert.Equal(t, flow.ActionFetchFeaturesets, msgs[1].Action)
}

func TestWatcherReconcilesFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fs := &model.Featureset{ID: "fs-2", Name: "dim stars", TaskID: "persist-def"}

	repo := mocks.NewMockFeaturesetRepository(ctrl)
	repo.EXPECT().Delete(gomock.Any(), "fs-2").Return(true, nil)

	rec := flow.NewRecorder()
	w := MustNewWatcher(WatcherOptions{Repo: repo, Emitter: rec})

	fut := pool.NewFuture(pool.NewKey("persist"))
	fut.Resolve(nil, errors.New("read series /data/a.json: storage unavailable"))

	w.Watch(context.Background(), fs, "user-2", fut)
	w.Wait()

	msgs := rec.Messages("user-2")
	require.Len(t, msgs, 2)
	assert.Equal(t, flow.ActionShowNotification, msgs[0].Action)
	assert.Equal(t, "Cannot featurize dim stars: read series /data/a.json: storage unavailable", msgs[0].Payload.Note)
	assert.Equal(t, flow.SeverityError, msgs[0].Payload.Type)
	assert.Equal(t, flow.ActionFetchFeaturesets, msgs[1].Action)
}

func TestWatcherVanishedRecordSkipsNotification(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fs := &model.Featureset{ID: "fs-3", Name: "gone", TaskID: "persist-ghi"}

	repo := mocks.NewMockFeaturesetRepository(ctrl)
	repo.EXPECT().MarkCompleted(gomock.Any(), "fs-3", gomock.Any()).Return(false, nil)

	rec := flow.NewRecorder()
	w := MustNewWatcher(WatcherOptions{Repo: repo, Emitter: rec})

	fut := pool.NewFuture(pool.NewKey("persist"))
	fut.Resolve(nil, nil)

	w.Watch(context.Background(), fs, "user-3", fut)
	w.Wait()

	// The record was deleted mid-flight, so there is nothing to announce,
	// but the client still gets its refresh.
	msgs := rec.Messages("user-3")
	require.Len(t, msgs, 1)
	assert.Equal(t, flow.ActionFetchFeaturesets, msgs[0].Action)
}

func TestWatcherMarkCompletedErrorStillRefreshes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fs := &model.Featureset{ID: "fs-4", Name: "flaky", TaskID: "persist-jkl"}

	repo := mocks.NewMockFeaturesetRepository(ctrl)
	repo.EXPECT().MarkCompleted(gomock.Any(), "fs-4", gomock.Any()).
		Return(false, errors.New("connection reset"))

	rec := flow.NewRecorder()
	w := MustNewWatcher(WatcherOptions{Repo: repo, Emitter: rec})

	fut := pool.NewFuture(pool.NewKey("persist"))
	fut.Resolve(nil, nil)

	w.Watch(context.Background(), fs, "user-4", fut)
	w.Wait()

	msgs := rec.Messages("user-4")
	require.Len(t, msgs, 1)
	assert.Equal(t, flow.ActionFetchFeaturesets, msgs[0].Action)
}

func TestWatcherAwaitTimeoutFailsPipeline(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fs := &model.Featureset{ID: "fs-5", Name: "stuck", TaskID: "persist-mno"}

	repo := mocks.NewMockFeaturesetRepository(ctrl)
	repo.EXPECT().Delete(gomock.Any(), "fs-5").Return(true, nil)

	rec := flow.NewRecorder()
	w := MustNewWatcher(WatcherOptions{
		Repo:         repo,
		Emitter:      rec,
		AwaitTimeout: 20 * time.Millisecond,
	})

	// Never resolved: the watcher's await deadline has to fire.
	fut := pool.NewFuture(pool.NewKey("persist"))

	w.Watch(context.Background(), fs, "user-5", fut)
	w.Wait()

	msgs := rec.Messages("user-5")
	require.Len(t, msgs, 2)
	assert.Equal(t, flow.ActionShowNotification, msgs[0].Action)
	assert.Contains(t, msgs[0].Payload.Note, "Cannot featurize stuck:")
	assert.Equal(t, flow.ActionFetchFeaturesets, msgs[1].Action)
}

func TestWatcherSurvivesCanceledRequestContext(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	fs := &model.Featureset{ID: "fs-6", Name: "detached", TaskID: "persist-pqr"}

	repo := mocks.NewMockFeaturesetRepository(ctrl)
	repo.EXPECT().MarkCompleted(gomock.Any(), "fs-6", gomock.Any()).Return(true, nil)

	rec := flow.NewRecorder()
	w := MustNewWatcher(WatcherOptions{Repo: repo, Emitter: rec})

	ctx, cancel := context.WithCancel(context.Background())
	fut := pool.NewFuture(pool.NewKey("persist"))

	w.Watch(ctx, fs, "user-6", fut)
	cancel()
	fut.Resolve(nil, nil)
	w.Wait()

	require.Len(t, rec.Messages("user-6"), 2)
}

func TestNewWatcherRequiresRepo(t *testing.T) {
	_, err := NewWatcher(WatcherOptions{})
	assert.Error(t, err)
}
