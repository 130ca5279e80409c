package models

// FeedbackRecord is one student's end-of-course feedback submission. Ratings
// run 1-5; nil means the dimension was not answered.
type FeedbackRecord struct {
	StudentID        string   `json:"student_id"`
	CourseCode       string   `json:"course_code"`
	CourseName       string   `json:"course_name"`
	Instructor       string   `json:"instructor"`
	CourseRating     *float64 `json:"course_rating"`
	InstructorRating *float64 `json:"instructor_rating"`
	ContentRating    *float64 `json:"content_rating"`
	DifficultyRating *float64 `json:"difficulty_rating"`
	Comment          string   `json:"comment"`
	SubmissionYear   int      `json:"submission_date"`
}
