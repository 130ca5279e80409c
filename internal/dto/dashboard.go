package dto

// AtRiskStudent is one entry of the instructor's at-risk list.
type AtRiskStudent struct {
	StudentID        string   `json:"student_id"`
	Name             string   `json:"name"`
	RiskScore        float64  `json:"risk_score"`
	CurrentTrimester int      `json:"current_trimester"`
	CGPA             float64  `json:"cgpa"`
	AvgAttendance    float64  `json:"avg_attendance"`
	KeyFactors       []string `json:"key_factors"`
}

// DashboardOverallMetrics aggregates ratings across an instructor's courses.
type DashboardOverallMetrics struct {
	AvgInstructorRating *float64 `json:"avg_instructor_rating,omitempty"`
}

// Dashboard is the composed instructor dashboard payload.
type Dashboard struct {
	InstructorName string `json:"instructor_name,omitempty"`
	Error          string `json:"error,omitempty"`

	TotalCourses  int `json:"total_courses,omitempty"`
	TotalStudents int `json:"total_students,omitempty"`

	Courses        map[string]*CourseMetrics `json:"courses,omitempty"`
	OverallMetrics DashboardOverallMetrics   `json:"overall_metrics"`

	AtRiskStudentsCount int             `json:"at_risk_students_count"`
	AtRiskStudents      []AtRiskStudent `json:"at_risk_students"`

	Insights []string `json:"insights"`
}
