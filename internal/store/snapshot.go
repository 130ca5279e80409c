package store

import (
	"time"

	"github.com/noah-isme/lms-insight-api/internal/models"
)

// Snapshot is the full in-memory set of the six loaded tables. It is immutable
// after construction and shared by reference across concurrent requests.
type Snapshot struct {
	Students     []models.Student
	Enrollments  []models.Enrollment
	Performance  []models.PerformanceRecord
	Interactions []models.InteractionEvent
	Feedback     []models.FeedbackRecord
	Courses      []models.Course

	LoadedAt time.Time

	studentByID             map[string]*models.Student
	enrollmentsByStudent    map[string][]*models.Enrollment
	enrollmentsByCourse     map[string][]*models.Enrollment
	enrollmentsByInstructor map[string][]*models.Enrollment
	performanceByStudent    map[string][]*models.PerformanceRecord
	performanceByCourse     map[string][]*models.PerformanceRecord
	interactionsByStudent   map[string][]*models.InteractionEvent
	feedbackByCourse        map[string][]*models.FeedbackRecord
	feedbackByInstructor    map[string][]*models.FeedbackRecord
}

// NewSnapshot assembles a snapshot and builds its lookup indexes.
func NewSnapshot(
	students []models.Student,
	enrollments []models.Enrollment,
	performance []models.PerformanceRecord,
	interactions []models.InteractionEvent,
	feedback []models.FeedbackRecord,
	courses []models.Course,
) *Snapshot {
	s := &Snapshot{
		Students:     students,
		Enrollments:  enrollments,
		Performance:  performance,
		Interactions: interactions,
		Feedback:     feedback,
		Courses:      courses,
		LoadedAt:     time.Now().UTC(),

		studentByID:             make(map[string]*models.Student, len(students)),
		enrollmentsByStudent:    make(map[string][]*models.Enrollment),
		enrollmentsByCourse:     make(map[string][]*models.Enrollment),
		enrollmentsByInstructor: make(map[string][]*models.Enrollment),
		performanceByStudent:    make(map[string][]*models.PerformanceRecord),
		performanceByCourse:     make(map[string][]*models.PerformanceRecord),
		interactionsByStudent:   make(map[string][]*models.InteractionEvent),
		feedbackByCourse:        make(map[string][]*models.FeedbackRecord),
		feedbackByInstructor:    make(map[string][]*models.FeedbackRecord),
	}

	for i := range s.Students {
		st := &s.Students[i]
		s.studentByID[st.StudentID] = st
	}
	for i := range s.Enrollments {
		en := &s.Enrollments[i]
		s.enrollmentsByStudent[en.StudentID] = append(s.enrollmentsByStudent[en.StudentID], en)
		s.enrollmentsByCourse[en.CourseCode] = append(s.enrollmentsByCourse[en.CourseCode], en)
		s.enrollmentsByInstructor[en.Instructor] = append(s.enrollmentsByInstructor[en.Instructor], en)
	}
	for i := range s.Performance {
		p := &s.Performance[i]
		s.performanceByStudent[p.StudentID] = append(s.performanceByStudent[p.StudentID], p)
		s.performanceByCourse[p.CourseCode] = append(s.performanceByCourse[p.CourseCode], p)
	}
	for i := range s.Interactions {
		ev := &s.Interactions[i]
		s.interactionsByStudent[ev.StudentID] = append(s.interactionsByStudent[ev.StudentID], ev)
	}
	for i := range s.Feedback {
		f := &s.Feedback[i]
		s.feedbackByCourse[f.CourseCode] = append(s.feedbackByCourse[f.CourseCode], f)
		s.feedbackByInstructor[f.Instructor] = append(s.feedbackByInstructor[f.Instructor], f)
	}

	return s
}

// StudentByID returns the student row for the identifier, nil when unknown.
func (s *Snapshot) StudentByID(id string) *models.Student {
	return s.studentByID[id]
}

// EnrollmentsByStudent returns all enrollments of one student.
func (s *Snapshot) EnrollmentsByStudent(studentID string) []*models.Enrollment {
	return s.enrollmentsByStudent[studentID]
}

// EnrollmentsByCourse returns all enrollments into one course.
func (s *Snapshot) EnrollmentsByCourse(courseCode string) []*models.Enrollment {
	return s.enrollmentsByCourse[courseCode]
}

// EnrollmentsByInstructor returns all enrollments into any of the instructor's
// courses.
func (s *Snapshot) EnrollmentsByInstructor(instructor string) []*models.Enrollment {
	return s.enrollmentsByInstructor[instructor]
}

// PerformanceByStudent returns all performance rows of one student.
func (s *Snapshot) PerformanceByStudent(studentID string) []*models.PerformanceRecord {
	return s.performanceByStudent[studentID]
}

// PerformanceByCourse returns all performance rows of one course.
func (s *Snapshot) PerformanceByCourse(courseCode string) []*models.PerformanceRecord {
	return s.performanceByCourse[courseCode]
}

// PerformanceByStudentCourse returns the performance row for one (student,
// course) pair, nil when absent.
func (s *Snapshot) PerformanceByStudentCourse(studentID, courseCode string) *models.PerformanceRecord {
	for _, p := range s.performanceByStudent[studentID] {
		if p.CourseCode == courseCode {
			return p
		}
	}
	return nil
}

// InteractionsByStudent returns the activity log rows of one student.
func (s *Snapshot) InteractionsByStudent(studentID string) []*models.InteractionEvent {
	return s.interactionsByStudent[studentID]
}

// FeedbackByCourse returns the feedback rows submitted for one course.
func (s *Snapshot) FeedbackByCourse(courseCode string) []*models.FeedbackRecord {
	return s.feedbackByCourse[courseCode]
}

// FeedbackByInstructor returns the feedback rows naming one instructor.
func (s *Snapshot) FeedbackByInstructor(instructor string) []*models.FeedbackRecord {
	return s.feedbackByInstructor[instructor]
}
