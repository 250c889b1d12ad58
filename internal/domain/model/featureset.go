// Package model defines the core data types and structures used throughout the featureset system.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// FeaturesetStatus describes the lifecycle state of a featureset record.
type FeaturesetStatus string

const (
	// FeaturesetStatusPending indicates the extraction pipeline is still in flight.
	FeaturesetStatusPending FeaturesetStatus = "pending"
	// FeaturesetStatusCompleted indicates the pipeline resolved and the artifact was persisted.
	FeaturesetStatusCompleted FeaturesetStatus = "completed"
)

// Featureset represents one submitted feature-extraction computation.
//
// TaskID is the correlation token assigned by the worker pool at submission
// time; it is cleared once the record reaches a terminal state. FinishedAt is
// set only on successful completion. A failed pipeline deletes the record
// outright, so a row always satisfies: TaskID != "" iff still pending.
type Featureset struct {
	ID                   string     `json:"id"                               db:"id"`
	Name                 string     `json:"name"                             db:"name"`
	ProjectID            string     `json:"project_id"                       db:"project_id"`
	FileURI              string     `json:"file_uri"                         db:"file_uri"`
	FeaturesList         []string   `json:"features_list"                    db:"features_list"`
	CustomFeaturesScript *string    `json:"custom_features_script,omitempty" db:"custom_features_script"`
	TaskID               string     `json:"task_id"                          db:"task_id"`
	FinishedAt           *time.Time `json:"finished_at,omitempty"            db:"finished_at"`
	CreatedAt            time.Time  `json:"created_at"                       db:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"                       db:"updated_at"`
}

// Status derives the lifecycle state from the record's fields.
func (f *Featureset) Status() FeaturesetStatus {
	if f.FinishedAt != nil {
		return FeaturesetStatusCompleted
	}
	return FeaturesetStatusPending
}

// CreateFeaturesetRequest is the wire shape for submitting a new extraction
// job. The client sends a flat JSON object: a handful of known fields plus one
// boolean per selectable feature name, e.g.
//
//	{"featuresetName": "x", "datasetID": 3, "customFeatsCode": "",
//	 "amplitude": true, "period": false}
type CreateFeaturesetRequest struct {
	FeaturesetName  string
	DatasetID       string
	CustomFeatsCode string
	FeatureFlags    map[string]bool
}

// knownRequestFields are the non-feature keys of the flat wire object.
var knownRequestFields = map[string]bool{
	"featuresetName":  true,
	"datasetID":       true,
	"customFeatsCode": true,
}

// UnmarshalJSON splits the flat wire object into known fields and per-feature
// selection flags. Non-boolean unknown keys are rejected.
func (r *CreateFeaturesetRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.FeatureFlags = make(map[string]bool)
	for key, val := range raw {
		switch key {
		case "featuresetName":
			if err := json.Unmarshal(val, &r.FeaturesetName); err != nil {
				return fmt.Errorf("featuresetName: %w", err)
			}
		case "datasetID":
			if err := unmarshalDatasetID(val, &r.DatasetID); err != nil {
				return err
			}
		case "customFeatsCode":
			if err := json.Unmarshal(val, &r.CustomFeatsCode); err != nil {
				return fmt.Errorf("customFeatsCode: %w", err)
			}
		default:
			var flag bool
			if err := json.Unmarshal(val, &flag); err != nil {
				return fmt.Errorf("feature flag %q must be a boolean: %w", key, err)
			}
			r.FeatureFlags[key] = flag
		}
	}
	return nil
}

// unmarshalDatasetID accepts either a JSON number or a string identifier.
func unmarshalDatasetID(val json.RawMessage, dst *string) error {
	var s string
	if err := json.Unmarshal(val, &s); err == nil {
		*dst = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(val, &n); err != nil {
		return fmt.Errorf("datasetID: %w", err)
	}
	*dst = n.String()
	return nil
}

// SelectedFeatures returns the requested feature names that exist in the given
// catalog, preserving catalog order for deterministic output. Unknown names
// are silently dropped rather than rejected.
func (r *CreateFeaturesetRequest) SelectedFeatures(catalog []string) []string {
	selected := make([]string, 0, len(catalog))
	for _, name := range catalog {
		if r.FeatureFlags[name] {
			selected = append(selected, name)
		}
	}
	return selected
}

// CustomScript returns the trimmed custom-feature code, or nil when absent.
func (r *CreateFeaturesetRequest) CustomScript() *string {
	code := strings.TrimSpace(r.CustomFeatsCode)
	if code == "" {
		return nil
	}
	return &code
}

// Validate checks the fields that can be rejected before any catalog lookup.
func (r *CreateFeaturesetRequest) Validate() error {
	if strings.TrimSpace(r.DatasetID) == "" {
		return ErrDatasetRequired
	}
	return nil
}

// ErrNoFeaturesSelected is returned when filtering the requested features
// against the catalog leaves nothing to compute.
var ErrNoFeaturesSelected = errors.New("at least one feature must be selected")

// ErrDatasetRequired is returned when a create request carries no dataset id.
var ErrDatasetRequired = errors.New("datasetID is required")
