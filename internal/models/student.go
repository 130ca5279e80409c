package models

import "time"

// Student is one row of the students snapshot table.
type Student struct {
	StudentID        string    `json:"student_id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	EnrollmentDate   time.Time `json:"enrollment_date"`
	CurrentTrimester int       `json:"current_trimester"`
	CGPA             float64   `json:"cgpa"`
}
