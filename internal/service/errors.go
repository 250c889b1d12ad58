package service

import "errors"

// Service-level sentinel errors. Handlers map these onto HTTP statuses.
var (
	// ErrNotOwned is returned when the requested resource belongs to a
	// project the caller does not own.
	ErrNotOwned = errors.New("resource does not belong to an accessible project")

	// ErrDatasetEmpty is returned when a dataset has no time series files to
	// featurize.
	ErrDatasetEmpty = errors.New("dataset contains no time series files")
)
