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

	localpool "github.com/timescope/featureset-api/internal/adapters/pool"
	"github.com/timescope/featureset-api/internal/domain/features"
	"github.com/timescope/featureset-api/internal/mocks"
)

func newTestPool(t *testing.T) *localpool.Local {
	t.Helper()
	p := localpool.NewLocal(localpool.LocalOptions{Workers: 4})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = p.Shutdown(ctx)
	})
	return p
}

func seriesDoc(name, label string, values ...float64) []byte {
	ts := &features.TimeSeries{Name: name, Values: values, Label: label}
	data, err := ts.Encode()
	if err != nil {
		panic(err)
	}
	return data
}

func TestSubmitterRunsFullGraph(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	artifacts := mocks.NewMockArtifactStore(ctrl)
	artifacts.EXPECT().ReadSeries(gomock.Any(), "/data/a.json").
		Return(seriesDoc("a", "rrlyr", 1, 3, 5), nil)
	artifacts.EXPECT().ReadSeries(gomock.Any(), "/data/b.json").
		Return(seriesDoc("b", "cepheid", 2, 4, 6), nil)

	var saved *features.FeatureMatrix
	artifacts.EXPECT().SaveMatrix(gomock.Any(), "/out/features.csv.gz", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, m *features.FeatureMatrix) error {
			saved = m
			return nil
		})

	s := MustNewSubmitter(SubmitterOptions{
		Pool:      newTestPool(t),
		Artifacts: artifacts,
	})

	fut, err := s.Submit(context.Background(), PipelineSpec{
		FileURIs:  []string{"/data/a.json", "/data/b.json"},
		Features:  []string{"mean", "maximum"},
		OutputURI: "/out/features.csv.gz",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fut.Key(), StagePersist+"-"))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	value, err := fut.Await(ctx)
	require.NoError(t, err)

	m, ok := value.(*features.FeatureMatrix)
	require.True(t, ok)
	assert.Same(t, saved, m)

	assert.Equal(t, []string{"mean", "maximum"}, m.FeatureNames)
	assert.Equal(t, []string{"a", "b"}, m.SeriesNames)
	assert.Equal(t, []string{"rrlyr", "cepheid"}, m.Labels)
	require.Equal(t, 2, m.NumRows())
	assert.InDelta(t, 3, m.Rows[0][0], 1e-9)
	assert.InDelta(t, 5, m.Rows[0][1], 1e-9)
	assert.InDelta(t, 4, m.Rows[1][0], 1e-9)
	assert.InDelta(t, 6, m.Rows[1][1], 1e-9)
	assert.False(t, m.HasMissing())
}

func TestSubmitterImputesFailedFeatures(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	artifacts := mocks.NewMockArtifactStore(ctrl)
	// One series with a time axis, one without: total_time fails for the
	// second and must be imputed from the first.
	withTimes := &features.TimeSeries{Name: "a", Times: []float64{0, 1, 2}, Values: []float64{1, 2, 3}}
	docA, err := withTimes.Encode()
	require.NoError(t, err)
	artifacts.EXPECT().ReadSeries(gomock.Any(), "/data/a.json").Return(docA, nil)
	artifacts.EXPECT().ReadSeries(gomock.Any(), "/data/b.json").
		Return(seriesDoc("b", "", 4, 5, 6), nil)
	artifacts.EXPECT().SaveMatrix(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	s := MustNewSubmitter(SubmitterOptions{
		Pool:      newTestPool(t),
		Artifacts: artifacts,
	})

	fut, err := s.Submit(context.Background(), PipelineSpec{
		FileURIs:  []string{"/data/a.json", "/data/b.json"},
		Features:  []string{"total_time"},
		OutputURI: "/out/m.csv.gz",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	value, err := fut.Await(ctx)
	require.NoError(t, err)

	m := value.(*features.FeatureMatrix)
	assert.InDelta(t, 2, m.Rows[0][0], 1e-9)
	assert.InDelta(t, 2, m.Rows[1][0], 1e-9)
	assert.False(t, m.HasMissing())
}

func TestSubmitterPropagatesLoadFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	readErr := errors.New("storage unavailable")
	artifacts := mocks.NewMockArtifactStore(ctrl)
	artifacts.EXPECT().ReadSeries(gomock.Any(), "/data/a.json").Return(nil, readErr)

	s := MustNewSubmitter(SubmitterOptions{
		Pool:      newTestPool(t),
		Artifacts: artifacts,
	})

	fut, err := s.Submit(context.Background(), PipelineSpec{
		FileURIs:  []string{"/data/a.json"},
		Features:  []string{"mean"},
		OutputURI: "/out/m.csv.gz",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = fut.Await(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, readErr)
}

func TestSubmitterPropagatesPersistFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	saveErr := errors.New("disk full")
	artifacts := mocks.NewMockArtifactStore(ctrl)
	artifacts.EXPECT().ReadSeries(gomock.Any(), gomock.Any()).
		Return(seriesDoc("a", "", 1, 2), nil)
	artifacts.EXPECT().SaveMatrix(gomock.Any(), gomock.Any(), gomock.Any()).Return(saveErr)

	s := MustNewSubmitter(SubmitterOptions{
		Pool:      newTestPool(t),
		Artifacts: artifacts,
	})

	fut, err := s.Submit(context.Background(), PipelineSpec{
		FileURIs:  []string{"/data/a.json"},
		Features:  []string{"mean"},
		OutputURI: "/out/m.csv.gz",
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err = fut.Await(ctx)
	assert.ErrorIs(t, err, saveErr)
}

func TestSubmitterValidation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	s := MustNewSubmitter(SubmitterOptions{
		Pool:      newTestPool(t),
		Artifacts: mocks.NewMockArtifactStore(ctrl),
	})

	_, err := s.Submit(context.Background(), PipelineSpec{
		Features:  []string{"mean"},
		OutputURI: "/out/m.csv.gz",
	})
	assert.ErrorIs(t, err, ErrDatasetEmpty)

	_, err = s.Submit(context.Background(), PipelineSpec{
		FileURIs:  []string{"/data/a.json"},
		OutputURI: "/out/m.csv.gz",
	})
	assert.Error(t, err)

	_, err = s.Submit(context.Background(), PipelineSpec{
		FileURIs: []string{"/data/a.json"},
		Features: []string{"mean"},
	})
	assert.Error(t, err)
}

func TestNewSubmitterRequiresDependencies(t *testing.T) {
	_, err := NewSubmitter(SubmitterOptions{})
	assert.Error(t, err)

	_, err = NewSubmitter(SubmitterOptions{Pool: newTestPool(t)})
	assert.Error(t, err)
}

func TestNewSubmitterRejectsBadLabelExpression(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, err := NewSubmitter(SubmitterOptions{
		Pool:            newTestPool(t),
		Artifacts:       mocks.NewMockArtifactStore(ctrl),
		LabelExpression: "meta[",
	})
	assert.Error(t, err)
}
