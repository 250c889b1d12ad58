// Package features holds the time-series document model, the catalog of
// computable feature functions, and the feature-matrix operations the
// extraction pipeline is built from.
package features

import (
	"encoding/json"
	"errors"
	"fmt"

	jmespath "github.com/jmespath-community/go-jmespath"
)

// TimeSeries is one parsed series document: sampling times, measured values,
// and an optional class label, plus the raw document for expression-based
// field access.
type TimeSeries struct {
	Name   string
	Times  []float64
	Values []float64
	Label  string

	doc map[string]any
}

type seriesDocument struct {
	Name   string    `json:"name"`
	Times  []float64 `json:"times"`
	Values []float64 `json:"values"`
	Label  string    `json:"label,omitempty"`
}

// ParseSeries decodes a stored series document.
func ParseSeries(data []byte) (*TimeSeries, error) {
	var doc seriesDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode series document: %w", err)
	}
	if len(doc.Values) == 0 {
		return nil, errors.New("series has no values")
	}
	if len(doc.Times) != 0 && len(doc.Times) != len(doc.Values) {
		return nil, fmt.Errorf("series has %d times but %d values", len(doc.Times), len(doc.Values))
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode series document: %w", err)
	}

	return &TimeSeries{
		Name:   doc.Name,
		Times:  doc.Times,
		Values: doc.Values,
		Label:  doc.Label,
		doc:    raw,
	}, nil
}

// Document returns the raw decoded series document.
func (ts *TimeSeries) Document() map[string]any {
	return ts.doc
}

// Encode serialises the series back to its stored form. Used by tests and the
// dev seeder; the service itself only reads series documents.
func (ts *TimeSeries) Encode() ([]byte, error) {
	return json.Marshal(seriesDocument{
		Name:   ts.Name,
		Times:  ts.Times,
		Values: ts.Values,
		Label:  ts.Label,
	})
}

// DefaultLabelExpression selects the conventional label field of a series
// document.
const DefaultLabelExpression = "label"

// LabelExtractor pulls the class label out of a series document using a
// JMESPath expression, so datasets with non-standard layouts can still be
// labelled without re-ingesting.
type LabelExtractor struct {
	expr string
}

// NewLabelExtractor validates the expression and returns an extractor.
func NewLabelExtractor(expression string) (*LabelExtractor, error) {
	if expression == "" {
		expression = DefaultLabelExpression
	}
	if _, err := jmespath.Compile(expression); err != nil {
		return nil, fmt.Errorf("compile label expression %q: %w", expression, err)
	}
	return &LabelExtractor{expr: expression}, nil
}

// Extract evaluates the expression against the series document. A missing or
// null result yields an empty label, not an error; unlabelled series are
// legitimate.
func (e *LabelExtractor) Extract(ts *TimeSeries) (string, error) {
	if ts == nil {
		return "", errors.New("series is required")
	}

	doc := ts.Document()
	if doc == nil {
		return ts.Label, nil
	}

	result, err := jmespath.Search(e.expr, doc)
	if err != nil {
		return "", fmt.Errorf("evaluate label expression: %w", err)
	}
	if result == nil {
		return "", nil
	}

	switch v := result.(type) {
	case string:
		return v, nil
	case float64:
		return fmt.Sprintf("%g", v), nil
	default:
		return fmt.Sprint(v), nil
	}
}
