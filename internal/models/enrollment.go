package models

// Enrollment status values.
const (
	StatusOngoing   = "Ongoing"
	StatusCompleted = "Completed"
)

// Enrollment ties a student to a course offering for one trimester. A student
// has at most one enrollment row per (course code, trimester) pair.
type Enrollment struct {
	StudentID  string `json:"student_id"`
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
	Trimester  string `json:"trimester"`
	Instructor string `json:"instructor"`
	Year       int    `json:"year"`
	Status     string `json:"status"`
}
