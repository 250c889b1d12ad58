package features

import (
	"errors"
	"fmt"
	"math"
)

// FeatureMatrix is the assembled tabular output of an extraction run: one row
// per series, one column per requested feature, plus the per-series labels.
type FeatureMatrix struct {
	FeatureNames []string    `json:"feature_names"`
	SeriesNames  []string    `json:"series_names"`
	Labels       []string    `json:"labels"`
	Rows         [][]float64 `json:"rows"`
}

// NumRows returns the number of series rows.
func (m *FeatureMatrix) NumRows() int {
	return len(m.Rows)
}

// Assemble pairs the per-series feature vectors with their source series and
// labels into a single matrix. Every input series produces a row, including
// series whose features all failed (all-NaN rows); imputation deals with
// those later.
func Assemble(names []string, vectors [][]float64, series []*TimeSeries, labels []string) (*FeatureMatrix, error) {
	if len(vectors) != len(series) {
		return nil, fmt.Errorf("have %d feature vectors for %d series", len(vectors), len(series))
	}
	if len(labels) != len(series) {
		return nil, fmt.Errorf("have %d labels for %d series", len(labels), len(series))
	}
	if len(names) == 0 {
		return nil, errors.New("feature names are required")
	}

	m := &FeatureMatrix{
		FeatureNames: append([]string(nil), names...),
		SeriesNames:  make([]string, len(series)),
		Labels:       append([]string(nil), labels...),
		Rows:         make([][]float64, len(vectors)),
	}
	for i, vec := range vectors {
		if len(vec) != len(names) {
			return nil, fmt.Errorf("row %d has %d values for %d features", i, len(vec), len(names))
		}
		m.Rows[i] = append([]float64(nil), vec...)
		m.SeriesNames[i] = series[i].Name
	}
	return m, nil
}

// Impute returns a copy of the matrix with NaN entries replaced by the median
// of the remaining values in the same column. Columns with no finite values
// fall back to zero. The input matrix is not modified.
func Impute(m *FeatureMatrix) (*FeatureMatrix, error) {
	if m == nil {
		return nil, errors.New("matrix is required")
	}

	out := &FeatureMatrix{
		FeatureNames: append([]string(nil), m.FeatureNames...),
		SeriesNames:  append([]string(nil), m.SeriesNames...),
		Labels:       append([]string(nil), m.Labels...),
		Rows:         make([][]float64, len(m.Rows)),
	}
	for i, row := range m.Rows {
		out.Rows[i] = append([]float64(nil), row...)
	}

	for col := range out.FeatureNames {
		fill := columnMedian(out.Rows, col)
		for _, row := range out.Rows {
			if math.IsNaN(row[col]) {
				row[col] = fill
			}
		}
	}
	return out, nil
}

func columnMedian(rows [][]float64, col int) float64 {
	finite := make([]float64, 0, len(rows))
	for _, row := range rows {
		if !math.IsNaN(row[col]) && !math.IsInf(row[col], 0) {
			finite = append(finite, row[col])
		}
	}
	if len(finite) == 0 {
		return 0
	}
	return medianOf(finite)
}

// HasMissing reports whether any entry of the matrix is NaN.
func (m *FeatureMatrix) HasMissing() bool {
	for _, row := range m.Rows {
		for _, v := range row {
			if math.IsNaN(v) {
				return true
			}
		}
	}
	return false
}
