package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/lms-insight-api/internal/models"
)

// Snapshot table names, matching the CSV file names under the data directory.
const (
	TableStudents     = "students"
	TableEnrollments  = "enrollments"
	TablePerformance  = "performance"
	TableInteractions = "interactions"
	TableFeedback     = "feedback"
	TableCourses      = "courses"
)

// DataLoadError reports which table failed to load. A missing or corrupt table
// is fatal for the snapshot; the engines are never left half-populated.
type DataLoadError struct {
	Table string
	Err   error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("load table %q: %v", e.Table, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

// LoadSnapshot reads the six tables from dir and returns an immutable snapshot.
func LoadSnapshot(dir string) (*Snapshot, error) {
	students, err := loadStudents(dir)
	if err != nil {
		return nil, err
	}
	enrollments, err := loadEnrollments(dir)
	if err != nil {
		return nil, err
	}
	performance, err := loadPerformance(dir)
	if err != nil {
		return nil, err
	}
	interactions, err := loadInteractions(dir)
	if err != nil {
		return nil, err
	}
	feedback, err := loadFeedback(dir)
	if err != nil {
		return nil, err
	}
	courses, err := loadCourses(dir)
	if err != nil {
		return nil, err
	}

	return NewSnapshot(students, enrollments, performance, interactions, feedback, courses), nil
}

// table is a parsed CSV file with column positions resolved by header name.
// Columns beyond the known set are ignored; a known column that is missing
// resolves every cell to absent rather than failing the load.
type table struct {
	name    string
	columns map[string]int
	rows    [][]string
}

func readTable(dir, name string) (*table, error) {
	path := filepath.Join(dir, name+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, &DataLoadError{Table: name, Err: err}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, &DataLoadError{Table: name, Err: err}
	}
	if len(records) == 0 {
		return nil, &DataLoadError{Table: name, Err: fmt.Errorf("missing header row")}
	}

	columns := make(map[string]int, len(records[0]))
	for i, header := range records[0] {
		columns[strings.TrimSpace(header)] = i
	}

	return &table{name: name, columns: columns, rows: records[1:]}, nil
}

func (t *table) cell(row []string, column string) string {
	idx, ok := t.columns[column]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func (t *table) str(row []string, column string) string {
	return t.cell(row, column)
}

func (t *table) optStr(row []string, column string) *string {
	v := t.cell(row, column)
	if v == "" {
		return nil
	}
	return &v
}

func (t *table) optFloat(row []string, column string) (*float64, error) {
	raw := t.cell(row, column)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &DataLoadError{Table: t.name, Err: fmt.Errorf("column %q: %w", column, err)}
	}
	return &v, nil
}

func (t *table) intOr(row []string, column string, fallback int) int {
	raw := t.cell(row, column)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		// Generated year/trimester cells occasionally carry a float rendering.
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			return fallback
		}
		return int(f)
	}
	return v
}

func (t *table) floatOr(row []string, column string, fallback float64) float64 {
	raw := t.cell(row, column)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func (t *table) timeOr(row []string, column string) (time.Time, error) {
	raw := t.cell(row, column)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, &DataLoadError{Table: t.name, Err: fmt.Errorf("column %q: unparsable timestamp %q", column, raw)}
}

func loadStudents(dir string) ([]models.Student, error) {
	t, err := readTable(dir, TableStudents)
	if err != nil {
		return nil, err
	}
	students := make([]models.Student, 0, len(t.rows))
	for _, row := range t.rows {
		enrolled, err := t.timeOr(row, "enrollment_date")
		if err != nil {
			return nil, err
		}
		students = append(students, models.Student{
			StudentID:        t.str(row, "student_id"),
			Name:             t.str(row, "name"),
			Email:            t.str(row, "email"),
			EnrollmentDate:   enrolled,
			CurrentTrimester: t.intOr(row, "current_trimester", 0),
			CGPA:             t.floatOr(row, "cgpa", 0),
		})
	}
	return students, nil
}

func loadEnrollments(dir string) ([]models.Enrollment, error) {
	t, err := readTable(dir, TableEnrollments)
	if err != nil {
		return nil, err
	}
	enrollments := make([]models.Enrollment, 0, len(t.rows))
	for _, row := range t.rows {
		enrollments = append(enrollments, models.Enrollment{
			StudentID:  t.str(row, "student_id"),
			CourseCode: t.str(row, "course_code"),
			CourseName: t.str(row, "course_name"),
			Trimester:  t.str(row, "trimester"),
			Instructor: t.str(row, "instructor"),
			Year:       t.intOr(row, "year", 0),
			Status:     t.str(row, "status"),
		})
	}
	return enrollments, nil
}

func loadPerformance(dir string) ([]models.PerformanceRecord, error) {
	t, err := readTable(dir, TablePerformance)
	if err != nil {
		return nil, err
	}
	records := make([]models.PerformanceRecord, 0, len(t.rows))
	for _, row := range t.rows {
		rec := models.PerformanceRecord{
			StudentID:   t.str(row, "student_id"),
			CourseCode:  t.str(row, "course_code"),
			Assignments: make([]*float64, models.AssignmentCount),
		}
		if rec.Quiz1, err = t.optFloat(row, "quiz1"); err != nil {
			return nil, err
		}
		if rec.Quiz2, err = t.optFloat(row, "quiz2"); err != nil {
			return nil, err
		}
		if rec.Endterm, err = t.optFloat(row, "endterm"); err != nil {
			return nil, err
		}
		for i := 1; i <= models.AssignmentCount; i++ {
			if rec.Assignments[i-1], err = t.optFloat(row, fmt.Sprintf("assignment%d", i)); err != nil {
				return nil, err
			}
		}
		if rec.TotalScore, err = t.optFloat(row, "total_score"); err != nil {
			return nil, err
		}
		rec.Grade = t.optStr(row, "grade")
		if rec.GradePoint, err = t.optFloat(row, "grade_point"); err != nil {
			return nil, err
		}
		if rec.AttendancePercentage, err = t.optFloat(row, "attendance_percentage"); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func loadInteractions(dir string) ([]models.InteractionEvent, error) {
	t, err := readTable(dir, TableInteractions)
	if err != nil {
		return nil, err
	}
	events := make([]models.InteractionEvent, 0, len(t.rows))
	for _, row := range t.rows {
		ts, err := t.timeOr(row, "timestamp")
		if err != nil {
			return nil, err
		}
		duration, err := t.optFloat(row, "duration_minutes")
		if err != nil {
			return nil, err
		}
		events = append(events, models.InteractionEvent{
			StudentID:       t.str(row, "student_id"),
			Timestamp:       ts,
			Type:            t.str(row, "interaction_type"),
			CourseCode:      t.optStr(row, "course_code"),
			DurationMinutes: duration,
		})
	}
	return events, nil
}

func loadFeedback(dir string) ([]models.FeedbackRecord, error) {
	t, err := readTable(dir, TableFeedback)
	if err != nil {
		return nil, err
	}
	feedback := make([]models.FeedbackRecord, 0, len(t.rows))
	for _, row := range t.rows {
		rec := models.FeedbackRecord{
			StudentID:      t.str(row, "student_id"),
			CourseCode:     t.str(row, "course_code"),
			CourseName:     t.str(row, "course_name"),
			Instructor:     t.str(row, "instructor"),
			Comment:        t.str(row, "comment"),
			SubmissionYear: t.intOr(row, "submission_date", 0),
		}
		if rec.CourseRating, err = t.optFloat(row, "course_rating"); err != nil {
			return nil, err
		}
		if rec.InstructorRating, err = t.optFloat(row, "instructor_rating"); err != nil {
			return nil, err
		}
		if rec.ContentRating, err = t.optFloat(row, "content_rating"); err != nil {
			return nil, err
		}
		if rec.DifficultyRating, err = t.optFloat(row, "difficulty_rating"); err != nil {
			return nil, err
		}
		feedback = append(feedback, rec)
	}
	return feedback, nil
}

func loadCourses(dir string) ([]models.Course, error) {
	t, err := readTable(dir, TableCourses)
	if err != nil {
		return nil, err
	}
	courses := make([]models.Course, 0, len(t.rows))
	for _, row := range t.rows {
		courses = append(courses, models.Course{
			CourseCode: t.str(row, "course_code"),
			CourseName: t.str(row, "course_name"),
			Trimester:  t.intOr(row, "trimester", 0),
			Instructor: t.str(row, "instructor"),
			Credits:    t.intOr(row, "credits", models.DefaultCourseCredits),
		})
	}
	return courses, nil
}
