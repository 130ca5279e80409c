package dto

// StudentCourseRecord merges one enrollment with its performance row.
type StudentCourseRecord struct {
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
	Trimester  string `json:"trimester"`
	Instructor string `json:"instructor"`
	Status     string `json:"status"`

	Quiz1                *float64   `json:"quiz1"`
	Quiz2                *float64   `json:"quiz2"`
	Endterm              *float64   `json:"endterm"`
	Assignments          []*float64 `json:"assignments"`
	TotalScore           *float64   `json:"total_score"`
	Grade                *string    `json:"grade"`
	GradePoint           *float64   `json:"grade_point"`
	AttendancePercentage *float64   `json:"attendance_percentage"`
}

// StudentMetrics is the personal performance report for one student.
// Dates serialize as plain strings; no native time types cross this boundary.
type StudentMetrics struct {
	StudentID        string   `json:"student_id"`
	Name             string   `json:"name,omitempty"`
	Email            string   `json:"email,omitempty"`
	EnrollmentDate   string   `json:"enrollment_date,omitempty"`
	CurrentTrimester int      `json:"current_trimester,omitempty"`
	CGPA             *float64 `json:"cgpa,omitempty"`

	// Error carries the NotFound / PartialData condition while basic profile
	// fields stay valid.
	Error string `json:"error,omitempty"`

	Courses          map[string]*StudentCourseRecord `json:"courses,omitempty"`
	OngoingCourses   []*StudentCourseRecord          `json:"ongoing_courses,omitempty"`
	CompletedCourses []*StudentCourseRecord          `json:"completed_courses,omitempty"`

	CalculatedGPA    *float64 `json:"calculated_gpa,omitempty"`
	PerformanceTrend string   `json:"performance_trend,omitempty"`
	AvgAttendance    *float64 `json:"avg_attendance,omitempty"`

	TotalInteractions   *int     `json:"total_interactions,omitempty"`
	LoginCount          *int     `json:"login_count,omitempty"`
	RecentActivityCount *int     `json:"recent_activity_count,omitempty"`
	AvgSessionMinutes   *float64 `json:"avg_session_minutes,omitempty"`

	Insights  []string `json:"insights,omitempty"`
	RiskScore *float64 `json:"risk_score,omitempty"`
}
