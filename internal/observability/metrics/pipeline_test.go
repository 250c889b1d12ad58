package metrics

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedMetric struct {
	name  string
	value any
	tags  map[string]string
}

type captureSink struct {
	mu     sync.Mutex
	counts []capturedMetric
	times  []capturedMetric
	gauges []capturedMetric
}

func (s *captureSink) Count(name string, value int64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = append(s.counts, capturedMetric{name, value, tags})
}

func (s *captureSink) Timing(name string, value time.Duration, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.times = append(s.times, capturedMetric{name, value, tags})
}

func (s *captureSink) Gauge(name string, value float64, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gauges = append(s.gauges, capturedMetric{name, value, tags})
}

func TestEmitPipelineSuccess(t *testing.T) {
	sink := &captureSink{}
	EmitPipeline(sink, PipelineMetric{
		Stage:    "persist",
		Result:   ResultSuccess,
		Duration: 250 * time.Millisecond,
	})

	require.Len(t, sink.counts, 1)
	assert.Equal(t, "pipeline.run", sink.counts[0].name)
	assert.Equal(t, map[string]string{"stage": "persist", "result": "success"}, sink.counts[0].tags)

	require.Len(t, sink.times, 1)
	assert.Equal(t, "pipeline.duration", sink.times[0].name)
	assert.Equal(t, 250*time.Millisecond, sink.times[0].value)
}

func TestEmitPipelineErrorCarriesClass(t *testing.T) {
	sink := &captureSink{}
	EmitPipeline(sink, PipelineMetric{
		Stage:  "watch",
		Result: ResultError,
		Err:    fmt.Errorf("read series: %w", errors.New("boom")),
	})

	require.Len(t, sink.counts, 1)
	tags := sink.counts[0].tags
	assert.Equal(t, "watch", tags["stage"])
	assert.Equal(t, "error", tags["result"])
	assert.NotEmpty(t, tags["error_class"])

	// Zero duration suppresses the timing metric.
	assert.Empty(t, sink.times)
}

func TestEmitPipelineNilSinkIsNoop(t *testing.T) {
	// Must not panic.
	EmitPipeline(nil, PipelineMetric{Stage: "load", Result: ResultSuccess})
}

func TestCloneTags(t *testing.T) {
	assert.Nil(t, CloneTags(nil))
	assert.Nil(t, CloneTags(map[string]string{}))

	src := map[string]string{"a": "1"}
	clone := CloneTags(src)
	clone["a"] = "2"
	assert.Equal(t, "1", src["a"])
}
