package models

// DefaultCourseCredits is assumed for every course when weighting GPA.
const DefaultCourseCredits = 4

// Course is one row of the course catalog table.
type Course struct {
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
	Trimester  int    `json:"trimester"`
	Instructor string `json:"instructor"`
	Credits    int    `json:"credits"`
}
