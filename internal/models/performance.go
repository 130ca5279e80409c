package models

// AssignmentCount is the number of assignment slots per course.
const AssignmentCount = 12

// PerformanceRecord holds one student's assessment results for one course.
// Nil pointers mean "not recorded yet"; ongoing courses carry only a prefix of
// populated fields. Absent values are excluded from aggregates, never coerced
// to zero.
type PerformanceRecord struct {
	StudentID            string     `json:"student_id"`
	CourseCode           string     `json:"course_code"`
	Quiz1                *float64   `json:"quiz1"`
	Quiz2                *float64   `json:"quiz2"`
	Endterm              *float64   `json:"endterm"`
	Assignments          []*float64 `json:"assignments"`
	TotalScore           *float64   `json:"total_score"`
	Grade                *string    `json:"grade"`
	GradePoint           *float64   `json:"grade_point"`
	AttendancePercentage *float64   `json:"attendance_percentage"`
}

// Assignment returns the score of assignment n (1-based), nil when absent.
func (p *PerformanceRecord) Assignment(n int) *float64 {
	if n < 1 || n > len(p.Assignments) {
		return nil
	}
	return p.Assignments[n-1]
}
