package dto

// CourseMetrics is the aggregated performance report for a single course, or
// for an instructor's union of courses. Pointer fields are omitted from the
// payload when the underlying data is absent; they are never zero-filled.
type CourseMetrics struct {
	CourseCode  string `json:"course_code,omitempty"`
	CourseName  string `json:"course_name,omitempty"`
	Instructor  string `json:"instructor,omitempty"`
	NumStudents int    `json:"num_students"`

	// Error flags the PartialData shape: the course exists but carries no
	// performance rows.
	Error string `json:"error,omitempty"`

	AvgQuiz1   *float64 `json:"avg_quiz1,omitempty"`
	AvgQuiz2   *float64 `json:"avg_quiz2,omitempty"`
	AvgEndterm *float64 `json:"avg_endterm,omitempty"`

	// AssignmentAverages holds the per-assignment mean at index n-1 for
	// assignment n; nil entries mean no scores were present.
	AssignmentAverages []*float64 `json:"assignment_averages,omitempty"`
	AvgAssignmentScore *float64   `json:"avg_assignment_score,omitempty"`

	GradeDistribution map[string]int `json:"grade_distribution,omitempty"`
	PassRate          *float64       `json:"pass_rate,omitempty"`

	AvgAttendance           *float64 `json:"avg_attendance,omitempty"`
	LowAttendanceCount      *int     `json:"low_attendance_count,omitempty"`
	LowAttendancePercentage *float64 `json:"low_attendance_percentage,omitempty"`

	FeedbackCount       int      `json:"feedback_count,omitempty"`
	AvgCourseRating     *float64 `json:"avg_course_rating,omitempty"`
	AvgInstructorRating *float64 `json:"avg_instructor_rating,omitempty"`
	AvgContentRating    *float64 `json:"avg_content_rating,omitempty"`
	AvgDifficultyRating *float64 `json:"avg_difficulty_rating,omitempty"`
	Sentiment           string   `json:"sentiment,omitempty"`

	Insights []string `json:"insights,omitempty"`
}

// IsEmpty reports whether the metrics carry no data at all, the contract when
// neither a course code nor an instructor filter was supplied.
func (m *CourseMetrics) IsEmpty() bool {
	return m != nil && m.CourseCode == "" && m.CourseName == "" && m.Instructor == "" &&
		m.NumStudents == 0 && m.Error == ""
}
