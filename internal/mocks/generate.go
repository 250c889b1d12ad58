// Package mocks provides mock implementations for testing the featureset job system.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the
// repository and storage interfaces in internal/core. The mocks are generated using
// go:generate directives and provide a fluent API for setting up test expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := mocks.NewMockFeaturesetRepository(ctrl)
//	mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(fs, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=featureset_repository_mock.go github.com/timescope/featureset-api/internal/core FeaturesetRepository

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=dataset_repository_mock.go github.com/timescope/featureset-api/internal/core DatasetRepository

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=project_repository_mock.go github.com/timescope/featureset-api/internal/core ProjectRepository

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=user_repository_mock.go github.com/timescope/featureset-api/internal/core UserRepository

//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=artifact_store_mock.go github.com/timescope/featureset-api/internal/core ArtifactStore
