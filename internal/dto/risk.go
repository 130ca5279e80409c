package dto

import "time"

// RiskModelInfo describes the currently published risk scorer.
type RiskModelInfo struct {
	Scorer      string     `json:"scorer"`
	Trees       int        `json:"trees,omitempty"`
	Accuracy    *float64   `json:"accuracy,omitempty"`
	SampleCount int        `json:"sample_count,omitempty"`
	TrainedAt   *time.Time `json:"trained_at,omitempty"`
}

// TrainRequest triggers an offline training run.
type TrainRequest struct {
	// Publish controls whether a successful run replaces the active scorer.
	Publish bool `json:"publish"`
}

// TrainAccepted acknowledges an enqueued training job.
type TrainAccepted struct {
	JobID string `json:"job_id"`
}
