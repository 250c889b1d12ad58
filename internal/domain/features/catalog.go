package features

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Func computes one scalar feature from a series.
type Func func(ts *TimeSeries) (float64, error)

// graph is the pre-registered catalog of computable features. A request may
// only select names present here; everything else is dropped during
// validation.
var graph = map[string]Func{
	"amplitude":        amplitude,
	"percent_amplitude": percentAmplitude,
	"maximum":          maximum,
	"minimum":          minimum,
	"mean":             mean,
	"median":           median,
	"std":              std,
	"skew":             skew,
	"weighted_average": weightedAverage,
	"n_epochs":         nEpochs,
	"total_time":       totalTime,
	"avg_time_gap":     avgTimeGap,
	"period":           period,
}

// Catalog returns the sorted names of all registered features.
func Catalog() []string {
	names := make([]string, 0, len(graph))
	for name := range graph {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the registered feature function for name.
func Lookup(name string) (Func, bool) {
	fn, ok := graph[name]
	return fn, ok
}

// Known reports whether name is a registered feature.
func Known(name string) bool {
	_, ok := graph[name]
	return ok
}

// ComputeSingle evaluates the requested features for one series and returns a
// vector aligned with names. A failing feature contributes a NaN missing
// value instead of aborting: one bad series must not take down the whole
// pipeline. The custom script path is carried for provenance only; executing
// user scripts is out of scope, so its features also come back as NaN.
func ComputeSingle(ts *TimeSeries, names []string, customScriptPath *string) []float64 {
	_ = customScriptPath

	vec := make([]float64, len(names))
	for i, name := range names {
		vec[i] = computeOne(ts, name)
	}
	return vec
}

func computeOne(ts *TimeSeries, name string) (result float64) {
	defer func() {
		if r := recover(); r != nil {
			result = math.NaN()
		}
	}()

	fn, ok := graph[name]
	if !ok {
		return math.NaN()
	}
	v, err := fn(ts)
	if err != nil {
		return math.NaN()
	}
	return v
}

var errEmptySeries = errors.New("series has no values")

func amplitude(ts *TimeSeries) (float64, error) {
	maxV, err := maximum(ts)
	if err != nil {
		return 0, err
	}
	minV, _ := minimum(ts)
	return (maxV - minV) / 2, nil
}

func percentAmplitude(ts *TimeSeries) (float64, error) {
	med, err := median(ts)
	if err != nil {
		return 0, err
	}
	if med == 0 {
		return 0, errors.New("median is zero")
	}
	maxDist := 0.0
	for _, v := range ts.Values {
		if d := math.Abs(v - med); d > maxDist {
			maxDist = d
		}
	}
	return maxDist / math.Abs(med), nil
}

func maximum(ts *TimeSeries) (float64, error) {
	if len(ts.Values) == 0 {
		return 0, errEmptySeries
	}
	maxV := ts.Values[0]
	for _, v := range ts.Values[1:] {
		if v > maxV {
			maxV = v
		}
	}
	return maxV, nil
}

func minimum(ts *TimeSeries) (float64, error) {
	if len(ts.Values) == 0 {
		return 0, errEmptySeries
	}
	minV := ts.Values[0]
	for _, v := range ts.Values[1:] {
		if v < minV {
			minV = v
		}
	}
	return minV, nil
}

func mean(ts *TimeSeries) (float64, error) {
	if len(ts.Values) == 0 {
		return 0, errEmptySeries
	}
	sum := 0.0
	for _, v := range ts.Values {
		sum += v
	}
	return sum / float64(len(ts.Values)), nil
}

func median(ts *TimeSeries) (float64, error) {
	if len(ts.Values) == 0 {
		return 0, errEmptySeries
	}
	return medianOf(ts.Values), nil
}

func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func std(ts *TimeSeries) (float64, error) {
	m, err := mean(ts)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, v := range ts.Values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(ts.Values))), nil
}

func skew(ts *TimeSeries) (float64, error) {
	m, err := mean(ts)
	if err != nil {
		return 0, err
	}
	s, _ := std(ts)
	if s == 0 {
		return 0, errors.New("zero variance")
	}
	sum := 0.0
	for _, v := range ts.Values {
		d := (v - m) / s
		sum += d * d * d
	}
	return sum / float64(len(ts.Values)), nil
}

// weightedAverage weights each value by the inverse of its local time gap, so
// densely sampled regions do not dominate.
func weightedAverage(ts *TimeSeries) (float64, error) {
	if len(ts.Times) != len(ts.Values) || len(ts.Values) < 2 {
		return mean(ts)
	}
	var weightSum, total float64
	for i := 1; i < len(ts.Values); i++ {
		gap := ts.Times[i] - ts.Times[i-1]
		if gap <= 0 {
			return 0, fmt.Errorf("non-increasing times at index %d", i)
		}
		w := 1 / gap
		weightSum += w
		total += w * ts.Values[i]
	}
	return total / weightSum, nil
}

func nEpochs(ts *TimeSeries) (float64, error) {
	return float64(len(ts.Values)), nil
}

func totalTime(ts *TimeSeries) (float64, error) {
	if len(ts.Times) < 2 {
		return 0, errors.New("series has no time span")
	}
	return ts.Times[len(ts.Times)-1] - ts.Times[0], nil
}

func avgTimeGap(ts *TimeSeries) (float64, error) {
	span, err := totalTime(ts)
	if err != nil {
		return 0, err
	}
	return span / float64(len(ts.Times)-1), nil
}

// period is a coarse variability-period estimate: twice the average interval
// between successive mean crossings. Good enough for ranking candidates; a
// proper periodogram lives with the science code, not here.
func period(ts *TimeSeries) (float64, error) {
	if len(ts.Times) != len(ts.Values) || len(ts.Values) < 3 {
		return 0, errors.New("series too short for period estimate")
	}
	m, err := mean(ts)
	if err != nil {
		return 0, err
	}

	var crossings int
	var first, last float64
	prevAbove := ts.Values[0] > m
	for i := 1; i < len(ts.Values); i++ {
		above := ts.Values[i] > m
		if above != prevAbove {
			if crossings == 0 {
				first = ts.Times[i]
			}
			last = ts.Times[i]
			crossings++
			prevAbove = above
		}
	}
	if crossings < 2 {
		return 0, errors.New("too few mean crossings")
	}
	return 2 * (last - first) / float64(crossings-1), nil
}
