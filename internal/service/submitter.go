package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/timescope/featureset-api/internal/core"
	"github.com/timescope/featureset-api/internal/domain/features"
	"github.com/timescope/featureset-api/internal/observability/metrics"
	"github.com/timescope/featureset-api/internal/observability/statsd"
	"github.com/timescope/featureset-api/internal/pool"
)

// Pipeline stage names. Each stage's task keys are prefixed with these, so a
// record's task id reveals which stage it is waiting on.
const (
	StageLoad      = "load"
	StageLabels    = "extract-labels"
	StageFeaturize = "featurize"
	StageAssemble  = "assemble"
	StageImpute    = "impute"
	StagePersist   = "persist"
)

// PipelineSpec describes one feature extraction run.
type PipelineSpec struct {
	FileURIs     []string
	Features     []string
	CustomScript *string
	OutputURI    string
}

// SubmitterOptions groups dependencies for Submitter.
type SubmitterOptions struct {
	Pool            pool.Client        // Required: worker pool client
	Artifacts       core.ArtifactStore // Required: series input and matrix output storage
	LabelExpression string             // Optional: JMESPath expression for labels
	Logger          *slog.Logger       // Optional: structured logger
	Metrics         statsd.Sink        // Optional: metrics sink
}

// Submitter wires the six-stage extraction graph onto a worker pool.
//
// Stages: load each series file, extract labels, featurize each series,
// assemble the matrix, impute missing cells, persist the result. Each stage
// awaits the futures of the stages it consumes, so the graph executes in
// dependency order regardless of worker scheduling.
type Submitter struct {
	pool      pool.Client
	artifacts core.ArtifactStore
	labels    *features.LabelExtractor
	logger    *slog.Logger
	metrics   statsd.Sink
}

// NewSubmitter constructs a new Submitter.
func NewSubmitter(opts SubmitterOptions) (*Submitter, error) {
	if opts.Pool == nil {
		return nil, errors.New("pool Client is required")
	}
	if opts.Artifacts == nil {
		return nil, errors.New("ArtifactStore is required")
	}

	expr := opts.LabelExpression
	if expr == "" {
		expr = features.DefaultLabelExpression
	}
	extractor, err := features.NewLabelExtractor(expr)
	if err != nil {
		return nil, fmt.Errorf("compile label expression: %w", err)
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "pipeline_submitter")
	}

	return &Submitter{
		pool:      opts.Pool,
		artifacts: opts.Artifacts,
		labels:    extractor,
		logger:    logger,
		metrics:   opts.Metrics,
	}, nil
}

// MustNewSubmitter constructs a new Submitter and panics on error.
// Use this when you're certain the options are valid (e.g., in main.go).
func MustNewSubmitter(opts SubmitterOptions) *Submitter {
	s, err := NewSubmitter(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor fails fast when dependencies are invalid during startup
		panic(fmt.Sprintf("failed to create Submitter: %v", err))
	}
	return s
}

// Submit builds the extraction graph and returns the future of the final
// persist stage. The future's key is the correlation token recorded on the
// featureset row. Submit returns as soon as the graph is accepted; it never
// waits for completion.
func (s *Submitter) Submit(ctx context.Context, spec PipelineSpec) (*pool.Future, error) {
	if len(spec.FileURIs) == 0 {
		return nil, ErrDatasetEmpty
	}
	if len(spec.Features) == 0 {
		return nil, errors.New("no features to compute")
	}
	if spec.OutputURI == "" {
		return nil, errors.New("output uri is required")
	}

	n := len(spec.FileURIs)
	start := time.Now()

	loads := s.pool.Map(StageLoad, n, func(ctx context.Context, i int) (any, error) {
		raw, err := s.artifacts.ReadSeries(ctx, spec.FileURIs[i])
		if err != nil {
			return nil, fmt.Errorf("read series %s: %w", spec.FileURIs[i], err)
		}
		ts, err := features.ParseSeries(raw)
		if err != nil {
			return nil, fmt.Errorf("parse series %s: %w", spec.FileURIs[i], err)
		}
		return ts, nil
	})

	labels := s.pool.Submit(StageLabels, func(ctx context.Context) (any, error) {
		out := make([]string, n)
		for i, fut := range loads {
			v, err := fut.Await(ctx)
			if err != nil {
				return nil, err
			}
			ts := v.(*features.TimeSeries)
			label, err := s.labels.Extract(ts)
			if err != nil {
				return nil, fmt.Errorf("extract label for %s: %w", ts.Name, err)
			}
			out[i] = label
		}
		return out, nil
	}, loads...)

	vectors := s.pool.Map(StageFeaturize, n, func(ctx context.Context, i int) (any, error) {
		v, err := loads[i].Await(ctx)
		if err != nil {
			return nil, err
		}
		ts := v.(*features.TimeSeries)
		return features.ComputeSingle(ts, spec.Features, spec.CustomScript), nil
	}, loads...)

	assembleDeps := make([]*pool.Future, 0, 2*n+1)
	assembleDeps = append(assembleDeps, loads...)
	assembleDeps = append(assembleDeps, vectors...)
	assembleDeps = append(assembleDeps, labels)

	assembled := s.pool.Submit(StageAssemble, func(ctx context.Context) (any, error) {
		series := make([]*features.TimeSeries, n)
		rows := make([][]float64, n)
		for i := range n {
			v, err := loads[i].Await(ctx)
			if err != nil {
				return nil, err
			}
			series[i] = v.(*features.TimeSeries)

			v, err = vectors[i].Await(ctx)
			if err != nil {
				return nil, err
			}
			rows[i] = v.([]float64)
		}

		v, err := labels.Await(ctx)
		if err != nil {
			return nil, err
		}

		m, err := features.Assemble(spec.Features, rows, series, v.([]string))
		if err != nil {
			return nil, fmt.Errorf("assemble feature matrix: %w", err)
		}
		return m, nil
	}, assembleDeps...)

	imputed := s.pool.Submit(StageImpute, func(ctx context.Context) (any, error) {
		v, err := assembled.Await(ctx)
		if err != nil {
			return nil, err
		}
		m, err := features.Impute(v.(*features.FeatureMatrix))
		if err != nil {
			return nil, fmt.Errorf("impute feature matrix: %w", err)
		}
		return m, nil
	}, assembled)

	persisted := s.pool.Submit(StagePersist, func(ctx context.Context) (any, error) {
		v, err := imputed.Await(ctx)
		if err != nil {
			return nil, err
		}
		m := v.(*features.FeatureMatrix)
		if err := s.artifacts.SaveMatrix(ctx, spec.OutputURI, m); err != nil {
			return nil, fmt.Errorf("persist feature matrix %s: %w", spec.OutputURI, err)
		}
		metrics.EmitPipeline(s.metrics, metrics.PipelineMetric{
			Stage:    StagePersist,
			Result:   metrics.ResultSuccess,
			Duration: time.Since(start),
		})
		return m, nil
	}, imputed)

	if s.logger != nil {
		s.logger.DebugContext(ctx, "pipeline submitted",
			"task_id", persisted.Key(),
			"series_count", n,
			"feature_count", len(spec.Features),
			"output_uri", spec.OutputURI,
		)
	}

	return persisted, nil
}
