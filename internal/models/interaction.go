package models

import "time"

// InteractionLogin is the interaction type carrying a session duration.
const InteractionLogin = "Login"

// InteractionEvent is one append-only platform activity log row.
type InteractionEvent struct {
	StudentID       string    `json:"student_id"`
	Timestamp       time.Time `json:"timestamp"`
	Type            string    `json:"interaction_type"`
	CourseCode      *string   `json:"course_code"`
	DurationMinutes *float64  `json:"duration_minutes"`
}
