package config

import "time"

// PipelineConfig contains worker pool and extraction pipeline configuration.
type PipelineConfig struct {
	// Workers is the number of concurrent pipeline tasks.
	Workers int `env:"PIPELINE_WORKERS" envDefault:"4"`

	// FeaturesFolder is the directory where computed feature matrices are written.
	FeaturesFolder string `env:"PIPELINE_FEATURES_FOLDER" envDefault:"/var/lib/featureset/features"`

	// LabelExpression is the JMESPath expression evaluated against each series
	// document to extract its label.
	LabelExpression string `env:"PIPELINE_LABEL_EXPRESSION" envDefault:"label"`

	// AwaitTimeout caps how long a submitted pipeline may run before the
	// watcher treats it as failed. Zero means no cap.
	AwaitTimeout time.Duration `env:"PIPELINE_AWAIT_TIMEOUT" envDefault:"1h"`
}

// Sanitize applies guardrails to pipeline configuration values.
func (p *PipelineConfig) Sanitize() {
	if p.Workers < 1 {
		p.Workers = 1
	}
	if p.AwaitTimeout < 0 {
		p.AwaitTimeout = 0
	}
}
