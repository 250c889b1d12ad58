package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[ServiceMode]bool
		wantErr bool
	}{
		{name: "single http", input: "http", want: map[ServiceMode]bool{ServiceModeHTTP: true}},
		{name: "single reaper", input: "reaper", want: map[ServiceMode]bool{ServiceModeReaper: true}},
		{
			name:  "both with spaces",
			input: " http , reaper ",
			want:  map[ServiceMode]bool{ServiceModeHTTP: true, ServiceModeReaper: true},
		},
		{name: "trailing comma", input: "http,", want: map[ServiceMode]bool{ServiceModeHTTP: true}},
		{name: "empty string", input: "", wantErr: true},
		{name: "only commas", input: ",,", wantErr: true},
		{name: "unknown service", input: "http,scheduler", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseServices(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestServiceModeHelpers(t *testing.T) {
	cfg := AppConfig{Services: "http,reaper"}
	assert.True(t, cfg.IsHTTPServerEnabled())
	assert.True(t, cfg.IsReaperEnabled())

	cfg = AppConfig{Services: "reaper"}
	assert.False(t, cfg.IsHTTPServerEnabled())
	assert.True(t, cfg.IsReaperEnabled())

	cfg = AppConfig{Services: "bogus"}
	assert.False(t, cfg.IsHTTPServerEnabled())
	assert.False(t, cfg.IsReaperEnabled())
}

func TestReaperConfigSanitize(t *testing.T) {
	cfg := ReaperConfig{
		Interval:      time.Second,
		PendingMaxAge: time.Second,
		BatchSize:     0,
	}
	cfg.Sanitize()
	assert.Equal(t, time.Minute, cfg.Interval)
	assert.Equal(t, 5*time.Minute, cfg.PendingMaxAge)
	assert.Equal(t, 1, cfg.BatchSize)

	cfg = ReaperConfig{
		Interval:      time.Hour,
		PendingMaxAge: 48 * time.Hour,
		BatchSize:     50000,
	}
	cfg.Sanitize()
	assert.Equal(t, time.Hour, cfg.Interval)
	assert.Equal(t, 48*time.Hour, cfg.PendingMaxAge)
	assert.Equal(t, 10000, cfg.BatchSize)
}

func TestPipelineConfigSanitize(t *testing.T) {
	cfg := PipelineConfig{Workers: 0, AwaitTimeout: -time.Minute}
	cfg.Sanitize()
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, time.Duration(0), cfg.AwaitTimeout)

	cfg = PipelineConfig{Workers: 16, AwaitTimeout: time.Hour}
	cfg.Sanitize()
	assert.Equal(t, 16, cfg.Workers)
	assert.Equal(t, time.Hour, cfg.AwaitTimeout)
}

func TestHTTPConfigSanitizeClampsCompressionLevel(t *testing.T) {
	cfg := HTTPConfig{CompressionLevel: 0}
	cfg.Sanitize()
	assert.Equal(t, 1, cfg.CompressionLevel)

	cfg = HTTPConfig{CompressionLevel: 42}
	cfg.Sanitize()
	assert.Equal(t, 9, cfg.CompressionLevel)

	cfg = HTTPConfig{CompressionLevel: 6}
	cfg.Sanitize()
	assert.Equal(t, 6, cfg.CompressionLevel)
}

func TestMetricsConfigSanitize(t *testing.T) {
	cfg := ObservabilityMetricsConfig{Enabled: true, StatsdAddress: "   "}
	cfg.Sanitize()
	assert.False(t, cfg.IsEnabled())

	cfg = ObservabilityMetricsConfig{Enabled: true, StatsdAddress: "statsd:8125"}
	cfg.Sanitize()
	assert.True(t, cfg.IsEnabled())
}

func TestNotificationsSanitizeCascade(t *testing.T) {
	// A disabled parent forces the per-channel toggles off even when set.
	cfg := ObservabilityNotificationsConfig{
		Enabled:   false,
		Slack:     SlackNotificationConfig{Enabled: true, WebhookURL: "https://hooks.example.com/x"},
		PagerDuty: PagerDutyNotificationConfig{Enabled: true, RoutingKey: "rk"},
	}
	cfg.Sanitize()
	assert.False(t, cfg.Slack.Enabled)
	assert.False(t, cfg.PagerDuty.Enabled)

	// Channels without credentials turn themselves off.
	cfg = ObservabilityNotificationsConfig{
		Enabled:   true,
		Slack:     SlackNotificationConfig{Enabled: true},
		PagerDuty: PagerDutyNotificationConfig{Enabled: true},
	}
	cfg.Sanitize()
	assert.False(t, cfg.Slack.Enabled)
	assert.False(t, cfg.PagerDuty.Enabled)

	cfg = ObservabilityNotificationsConfig{
		Enabled:    true,
		Timeout:    -time.Second,
		RetryLimit: -1,
		Slack:      SlackNotificationConfig{Enabled: true, WebhookURL: " https://hooks.example.com/x "},
		PagerDuty:  PagerDutyNotificationConfig{Enabled: true, RoutingKey: " rk "},
	}
	cfg.Sanitize()
	assert.True(t, cfg.Slack.Enabled)
	assert.Equal(t, "https://hooks.example.com/x", cfg.Slack.WebhookURL)
	assert.True(t, cfg.PagerDuty.Enabled)
	assert.Equal(t, "rk", cfg.PagerDuty.RoutingKey)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 0, cfg.RetryLimit)
	assert.Equal(t, "featureset-api", cfg.Slack.Username)
	assert.Equal(t, "featureset-api", cfg.PagerDuty.Source)
}

func TestDetectDevModeFromNodeEnv(t *testing.T) {
	t.Setenv("NODE_ENV", "development")
	cfg := AppConfig{Services: "http"}
	cfg.Sanitize()
	assert.True(t, cfg.IsDev)

	t.Setenv("NODE_ENV", "production")
	cfg = AppConfig{Services: "http"}
	cfg.Sanitize()
	assert.False(t, cfg.IsDev)
}
