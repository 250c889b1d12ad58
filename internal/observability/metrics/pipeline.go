package metrics

import (
	"time"

	obserrors "github.com/timescope/featureset-api/internal/observability/errors"
	"github.com/timescope/featureset-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// PipelineMetric captures details about a feature extraction pipeline run
// for metric emission.
type PipelineMetric struct {
	Stage    string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitPipeline emits standardised pipeline lifecycle metrics.
func EmitPipeline(sink statsd.Sink, in PipelineMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"stage":  in.Stage,
		"result": in.Result,
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("pipeline.run", 1, tags)

	if in.Duration > 0 {
		sink.Timing("pipeline.duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
