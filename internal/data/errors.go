package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	ErrFeaturesetNotFound = errors.New("featureset not found")
	ErrDatasetNotFound    = errors.New("dataset not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrUserNotFound       = errors.New("user not found")
)
