package dto

import "time"

// Narrative is a generated prose summary of a dashboard or student report.
type Narrative struct {
	Narrative   string    `json:"narrative"`
	GeneratedAt time.Time `json:"generated_at"`
}
