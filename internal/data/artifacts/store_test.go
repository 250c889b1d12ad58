package artifacts

import (
	"context"
	"math"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timescope/featureset-api/internal/domain/features"
)

func newMemStore() *Store {
	return NewStore(afero.NewMemMapFs())
}

func sampleMatrix() *features.FeatureMatrix {
	return &features.FeatureMatrix{
		FeatureNames: []string{"mean", "std"},
		SeriesNames:  []string{"star-1", "star-2"},
		Labels:       []string{"rrlyr", ""},
		Rows: [][]float64{
			{1.5, 0.25},
			{-3, 12},
		},
	}
}

func TestSaveAndLoadMatrix(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	uri := "/var/lib/featureset/features/features_abc.csv.gz"
	require.NoError(t, store.SaveMatrix(ctx, uri, sampleMatrix()))

	loaded, err := store.LoadMatrix(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, sampleMatrix(), loaded)
}

func TestSaveMatrixCreatesParentDirectories(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	uri := "/deep/nested/dir/out.csv.gz"
	require.NoError(t, store.SaveMatrix(ctx, uri, sampleMatrix()))

	exists, err := afero.Exists(store.Fs(), uri)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSaveMatrixNil(t *testing.T) {
	store := newMemStore()
	assert.Error(t, store.SaveMatrix(context.Background(), "/x.csv.gz", nil))
}

func TestSaveMatrixCanceledContext(t *testing.T) {
	store := newMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, store.SaveMatrix(ctx, "/x.csv.gz", sampleMatrix()), context.Canceled)
}

func TestLoadMatrixRoundTripsNaN(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	m := sampleMatrix()
	m.Rows[0][1] = math.NaN()
	require.NoError(t, store.SaveMatrix(ctx, "/nan.csv.gz", m))

	loaded, err := store.LoadMatrix(ctx, "/nan.csv.gz")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(loaded.Rows[0][1]))
	assert.Equal(t, m.Rows[1], loaded.Rows[1])
}

func TestLoadMatrixMissingFile(t *testing.T) {
	store := newMemStore()
	_, err := store.LoadMatrix(context.Background(), "/absent.csv.gz")
	assert.Error(t, err)
}

func TestReadSeries(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	doc := []byte(`{"name":"star-1","values":[1,2,3]}`)
	require.NoError(t, afero.WriteFile(store.Fs(), "/data/star-1.json", doc, 0o644))

	data, err := store.ReadSeries(ctx, "/data/star-1.json")
	require.NoError(t, err)
	assert.Equal(t, doc, data)
}

func TestReadSeriesMissing(t *testing.T) {
	store := newMemStore()
	_, err := store.ReadSeries(context.Background(), "/nope.json")
	assert.Error(t, err)
}

func TestRemove(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()

	require.NoError(t, store.SaveMatrix(ctx, "/out.csv.gz", sampleMatrix()))
	require.NoError(t, store.Remove(ctx, "/out.csv.gz"))

	exists, err := afero.Exists(store.Fs(), "/out.csv.gz")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRemoveMissingIsNotAnError(t *testing.T) {
	store := newMemStore()
	assert.NoError(t, store.Remove(context.Background(), "/never-existed.csv.gz"))
}
