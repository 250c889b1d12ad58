package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/timescope/featureset-api/internal/core"
	"github.com/timescope/featureset-api/internal/data"
	"github.com/timescope/featureset-api/internal/domain/model"
	"github.com/timescope/featureset-api/internal/flow"
	obserrors "github.com/timescope/featureset-api/internal/observability/errors"
	"github.com/timescope/featureset-api/internal/observability/metrics"
	"github.com/timescope/featureset-api/internal/observability/notify"
	"github.com/timescope/featureset-api/internal/observability/statsd"
	"github.com/timescope/featureset-api/internal/pool"
	"github.com/timescope/featureset-api/internal/service/failurenotifier"
)

// WatcherOptions groups dependencies for Watcher.
type WatcherOptions struct {
	Repo            core.FeaturesetRepository // Required: featureset repository
	Emitter         flow.Emitter              // Optional: client notification channel
	Logger          *slog.Logger              // Optional: structured logger
	Metrics         statsd.Sink               // Optional: metrics sink
	FailureNotifier *failurenotifier.Service  // Optional: failure notification fan-out
	TimeProvider    data.TimeProvider         // Optional: clock override for tests
	AwaitTimeout    time.Duration             // Optional: cap on how long a pipeline may run
}

// Watcher observes submitted pipelines to completion and reconciles the
// featureset record with the outcome.
//
// On success the record transitions to completed: the task id is cleared and
// the finish time stamped. On failure the record is deleted outright, so a
// failed submission leaves no trace in listings. Either way the owning user
// is notified over the flow channel, always followed by a refresh action so
// connected clients re-fetch their featureset list.
type Watcher struct {
	repo            core.FeaturesetRepository
	emitter         flow.Emitter
	logger          *slog.Logger
	metrics         statsd.Sink
	failureNotifier *failurenotifier.Service
	clock           data.TimeProvider
	awaitTimeout    time.Duration

	wg sync.WaitGroup
}

// NewWatcher constructs a new Watcher.
func NewWatcher(opts WatcherOptions) (*Watcher, error) {
	if opts.Repo == nil {
		return nil, errors.New("FeaturesetRepository is required")
	}

	clock := opts.TimeProvider
	if clock == nil {
		clock = &data.RealTimeProvider{}
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "completion_watcher")
	}

	return &Watcher{
		repo:            opts.Repo,
		emitter:         opts.Emitter,
		logger:          logger,
		metrics:         opts.Metrics,
		failureNotifier: opts.FailureNotifier,
		clock:           clock,
		awaitTimeout:    opts.AwaitTimeout,
	}, nil
}

// MustNewWatcher constructs a new Watcher and panics on error.
func MustNewWatcher(opts WatcherOptions) *Watcher {
	w, err := NewWatcher(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create Watcher: %v", err))
	}
	return w
}

// Watch spawns a detached goroutine that awaits the pipeline future and
// reconciles the record. It returns immediately. The goroutine survives
// cancellation of the submitting request's context; only process shutdown
// (via Wait) bounds it.
func (w *Watcher) Watch(ctx context.Context, fs *model.Featureset, userID string, fut *pool.Future) {
	detached := context.WithoutCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.await(detached, fs, userID, fut)
	}()
}

// Wait blocks until all in-flight watch goroutines finish.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

func (w *Watcher) await(ctx context.Context, fs *model.Featureset, userID string, fut *pool.Future) {
	awaitCtx := ctx
	if w.awaitTimeout > 0 {
		var cancel context.CancelFunc
		awaitCtx, cancel = context.WithTimeout(ctx, w.awaitTimeout)
		defer cancel()
	}

	start := w.clock.Now()
	_, err := fut.Await(awaitCtx)
	elapsed := w.clock.Now().Sub(start)

	if err != nil {
		w.reconcileFailure(ctx, fs, userID, err, elapsed)
	} else {
		w.reconcileSuccess(ctx, fs, userID, elapsed)
	}

	// Clients always re-fetch after an outcome, success or failure.
	w.push(ctx, userID, flow.Refresh())
}

func (w *Watcher) reconcileSuccess(ctx context.Context, fs *model.Featureset, userID string, elapsed time.Duration) {
	updated, err := w.repo.MarkCompleted(ctx, fs.ID, w.clock.Now())
	if err != nil {
		if w.logger != nil {
			w.logger.ErrorContext(ctx, "failed to mark featureset completed",
				"featureset_id", fs.ID,
				"error", err,
			)
		}
		return
	}

	if !updated {
		// Deleted or reaped while the pipeline ran. Nothing to announce.
		if w.logger != nil {
			w.logger.DebugContext(ctx, "featureset vanished before completion",
				"featureset_id", fs.ID,
			)
		}
		return
	}

	if w.logger != nil {
		w.logger.InfoContext(ctx, "featureset completed",
			"featureset_id", fs.ID,
			"name", fs.Name,
			"elapsed", elapsed,
		)
	}

	metrics.EmitPipeline(w.metrics, metrics.PipelineMetric{
		Stage:    "watch",
		Result:   metrics.ResultSuccess,
		Duration: elapsed,
	})

	note := fmt.Sprintf("Calculation of featureset '%s' completed.", fs.Name)
	w.push(ctx, userID, flow.Notification(note, flow.SeverityInfo))
}

func (w *Watcher) reconcileFailure(ctx context.Context, fs *model.Featureset, userID string, cause error, elapsed time.Duration) {
	deleted, err := w.repo.Delete(ctx, fs.ID)
	if err != nil && w.logger != nil {
		w.logger.ErrorContext(ctx, "failed to delete featureset after pipeline failure",
			"featureset_id", fs.ID,
			"error", err,
		)
	}

	if w.logger != nil {
		w.logger.WarnContext(ctx, "featureset pipeline failed",
			"featureset_id", fs.ID,
			"name", fs.Name,
			"deleted", deleted,
			"elapsed", elapsed,
			"error", cause,
		)
	}

	metrics.EmitPipeline(w.metrics, metrics.PipelineMetric{
		Stage:    "watch",
		Result:   metrics.ResultError,
		Duration: elapsed,
		Err:      cause,
	})

	if w.failureNotifier != nil && w.failureNotifier.Enabled() {
		w.failureNotifier.NotifyPipelineFailure(ctx, notify.PipelineFailurePayload{
			FeaturesetID:   fs.ID,
			FeaturesetName: fs.Name,
			ProjectID:      fs.ProjectID,
			UserID:         userID,
			Error:          cause.Error(),
			ErrorClass:     obserrors.Classify(cause),
			OccurredAt:     w.clock.Now(),
		})
	}

	note := fmt.Sprintf("Cannot featurize %s: %v", fs.Name, cause)
	w.push(ctx, userID, flow.Notification(note, flow.SeverityError))
}

func (w *Watcher) push(ctx context.Context, userID string, msg flow.Message) {
	if w.emitter == nil {
		return
	}
	if err := w.emitter.Push(ctx, userID, msg); err != nil && w.logger != nil {
		w.logger.WarnContext(ctx, "failed to push flow message",
			"user_id", userID,
			"action", msg.Action,
			"error", err,
		)
	}
}
