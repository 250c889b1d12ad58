package pagerduty

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timescope/featureset-api/internal/observability/notify"
)

// captureTransport intercepts requests to the Events API without hitting the
// network.
type captureTransport struct {
	mu       sync.Mutex
	statuses []int
	bodies   [][]byte
	calls    int
}

func (tr *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, err
	}
	tr.bodies = append(tr.bodies, body)

	status := http.StatusAccepted
	if tr.calls < len(tr.statuses) {
		status = tr.statuses[tr.calls]
	}
	tr.calls++

	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(nil)),
		Header:     make(http.Header),
		Request:    req,
	}, nil
}

func newTestClient(t *testing.T, tr *captureTransport, retries int) *Client {
	t.Helper()
	client, err := NewClient(Config{
		RoutingKey: "rk-123",
		RetryLimit: retries,
		Client:     &http.Client{Transport: tr},
	})
	require.NoError(t, err)
	return client
}

func TestSendPipelineFailureSubmitsTriggerEvent(t *testing.T) {
	tr := &captureTransport{}
	client := newTestClient(t, tr, 0)

	err := client.SendPipelineFailure(context.Background(), notify.PipelineFailurePayload{
		FeaturesetID:   "fs-1",
		FeaturesetName: "bright stars",
		ProjectID:      "proj-1",
		Stage:          "persist",
		Error:          "disk full",
		ErrorClass:     "errors_errorstring",
		Severity:       "CRITICAL",
		OccurredAt:     time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		Metadata:       map[string]string{"region": "eu-west-1"},
	})
	require.NoError(t, err)
	require.Len(t, tr.bodies, 1)

	var event map[string]any
	require.NoError(t, json.Unmarshal(tr.bodies[0], &event))

	assert.Equal(t, "rk-123", event["routing_key"])
	assert.Equal(t, "trigger", event["event_action"])
	assert.Equal(t, "featureset:fs-1", event["dedup_key"])

	payload, _ := event["payload"].(map[string]any)
	require.NotNil(t, payload)
	assert.Equal(t, "Featureset bright stars pipeline failed at stage persist", payload["summary"])
	assert.Equal(t, "critical", payload["severity"])
	assert.Equal(t, "featureset-api", payload["source"])
	assert.Equal(t, "2026-03-14T12:00:00Z", payload["timestamp"])

	details, _ := payload["custom_details"].(map[string]any)
	require.NotNil(t, details)
	assert.Equal(t, "disk full", details["error"])
	assert.Equal(t, "eu-west-1", details["region"])
}

func TestSendPipelineFailureRetriesOnServerError(t *testing.T) {
	tr := &captureTransport{statuses: []int{http.StatusBadGateway, http.StatusAccepted}}
	client := newTestClient(t, tr, 2)

	err := client.SendPipelineFailure(context.Background(), notify.PipelineFailurePayload{
		FeaturesetID: "fs-1",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, tr.calls)
}

func TestSendPipelineFailureExhaustsRetries(t *testing.T) {
	tr := &captureTransport{statuses: []int{
		http.StatusBadRequest, http.StatusBadRequest,
	}}
	client := newTestClient(t, tr, 1)

	err := client.SendPipelineFailure(context.Background(), notify.PipelineFailurePayload{
		FeaturesetID: "fs-1",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pagerduty returned 400")
	assert.Equal(t, 2, tr.calls)
}

func TestNewClientRequiresRoutingKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestBuildEventFallbacks(t *testing.T) {
	client := newTestClient(t, &captureTransport{}, 0)

	event := client.buildEvent(notify.PipelineFailurePayload{FeaturesetID: "fs-1"})
	payload := event["payload"].(map[string]any)
	assert.Equal(t, "Featureset fs-1 pipeline failed at stage unknown", payload["summary"])
	assert.Equal(t, notify.SeverityCritical, payload["severity"])
}
