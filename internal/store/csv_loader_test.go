package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, table, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, table+".csv"), []byte(content), 0o644))
}

// writeFixtureDir lays down a minimal but complete six-table data directory.
// Individual tests overwrite single tables to exercise failure modes.
func writeFixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	writeCSV(t, dir, TableStudents,
		"student_id,name,email,enrollment_date,current_trimester,cgpa\n"+
			"S001,Asha Rao,asha@example.edu,2023-07-15,3,8.2\n"+
			"S002,Ravi Kumar,ravi@example.edu,2024-01-10 09:30:00,2,5.5\n")

	writeCSV(t, dir, TableEnrollments,
		"student_id,course_code,course_name,trimester,instructor,year,status\n"+
			"S001,CS101,Intro to Programming,T1,Dr. Sharma,2023,Completed\n"+
			"S002,CS101,Intro to Programming,T1,Dr. Sharma,2024,Ongoing\n")

	writeCSV(t, dir, TablePerformance,
		"student_id,course_code,quiz1,quiz2,endterm,assignment1,assignment2,total_score,grade,grade_point,attendance_percentage\n"+
			"S001,CS101,85,80,88,80,85,86.5,A,9,92\n"+
			"S002,CS101,,35,,50,,,,,65\n")

	writeCSV(t, dir, TableInteractions,
		"student_id,timestamp,interaction_type,course_code,duration_minutes\n"+
			"S001,2024-03-01T10:00:00Z,login,,45\n"+
			"S001,2024-03-01 11:00:00,material_view,CS101,\n")

	writeCSV(t, dir, TableFeedback,
		"student_id,course_code,course_name,instructor,course_rating,instructor_rating,content_rating,difficulty_rating,comment,submission_date\n"+
			"S001,CS101,Intro to Programming,Dr. Sharma,4.5,4.8,4.0,3.0,Great course,2023\n")

	writeCSV(t, dir, TableCourses,
		"course_code,course_name,trimester,instructor,credits\n"+
			"CS101,Intro to Programming,1,Dr. Sharma,4\n")

	return dir
}

func TestLoadSnapshotParsesAllTables(t *testing.T) {
	dir := writeFixtureDir(t)

	snap, err := LoadSnapshot(dir)
	require.NoError(t, err)

	require.Len(t, snap.Students, 2)
	asha := snap.StudentByID("S001")
	require.NotNil(t, asha)
	assert.Equal(t, "Asha Rao", asha.Name)
	assert.Equal(t, "asha@example.edu", asha.Email)
	assert.Equal(t, 3, asha.CurrentTrimester)
	assert.InDelta(t, 8.2, asha.CGPA, 1e-9)
	assert.Equal(t, time.Date(2023, 7, 15, 0, 0, 0, 0, time.UTC), asha.EnrollmentDate)

	ravi := snap.StudentByID("S002")
	require.NotNil(t, ravi)
	assert.Equal(t, time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC), ravi.EnrollmentDate)

	require.Len(t, snap.EnrollmentsByCourse("CS101"), 2)
	assert.Len(t, snap.EnrollmentsByInstructor("Dr. Sharma"), 2)

	perf := snap.PerformanceByStudentCourse("S001", "CS101")
	require.NotNil(t, perf)
	require.NotNil(t, perf.Quiz1)
	assert.InDelta(t, 85, *perf.Quiz1, 1e-9)
	require.NotNil(t, perf.Grade)
	assert.Equal(t, "A", *perf.Grade)
	require.Len(t, perf.Assignments, 12)
	require.NotNil(t, perf.Assignments[1])
	assert.InDelta(t, 85, *perf.Assignments[1], 1e-9)
	assert.Nil(t, perf.Assignments[2])

	sparse := snap.PerformanceByStudentCourse("S002", "CS101")
	require.NotNil(t, sparse)
	assert.Nil(t, sparse.Quiz1)
	assert.Nil(t, sparse.Grade)
	assert.Nil(t, sparse.GradePoint)
	require.NotNil(t, sparse.AttendancePercentage)
	assert.InDelta(t, 65, *sparse.AttendancePercentage, 1e-9)

	events := snap.InteractionsByStudent("S001")
	require.Len(t, events, 2)
	assert.Equal(t, "login", events[0].Type)
	require.NotNil(t, events[0].DurationMinutes)
	assert.InDelta(t, 45, *events[0].DurationMinutes, 1e-9)
	assert.Nil(t, events[0].CourseCode)
	require.NotNil(t, events[1].CourseCode)
	assert.Equal(t, "CS101", *events[1].CourseCode)
	assert.Nil(t, events[1].DurationMinutes)

	fb := snap.FeedbackByCourse("CS101")
	require.Len(t, fb, 1)
	require.NotNil(t, fb[0].InstructorRating)
	assert.InDelta(t, 4.8, *fb[0].InstructorRating, 1e-9)
	assert.Equal(t, 2023, fb[0].SubmissionYear)

	require.Len(t, snap.Courses, 1)
	assert.Equal(t, 4, snap.Courses[0].Credits)
}

func TestLoadSnapshotMissingColumnsResolveAbsent(t *testing.T) {
	dir := writeFixtureDir(t)
	writeCSV(t, dir, TablePerformance,
		"student_id,course_code,quiz1\n"+
			"S001,CS101,70\n")

	snap, err := LoadSnapshot(dir)
	require.NoError(t, err)

	perf := snap.PerformanceByStudentCourse("S001", "CS101")
	require.NotNil(t, perf)
	require.NotNil(t, perf.Quiz1)
	assert.InDelta(t, 70, *perf.Quiz1, 1e-9)
	assert.Nil(t, perf.Quiz2)
	assert.Nil(t, perf.Endterm)
	assert.Nil(t, perf.Grade)
	for _, a := range perf.Assignments {
		assert.Nil(t, a)
	}
}

func TestLoadSnapshotMissingTable(t *testing.T) {
	dir := writeFixtureDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, TableFeedback+".csv")))

	_, err := LoadSnapshot(dir)
	require.Error(t, err)

	var loadErr *DataLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, TableFeedback, loadErr.Table)
}

func TestLoadSnapshotCorruptNumericCell(t *testing.T) {
	dir := writeFixtureDir(t)
	writeCSV(t, dir, TablePerformance,
		"student_id,course_code,quiz1\n"+
			"S001,CS101,not-a-number\n")

	_, err := LoadSnapshot(dir)
	require.Error(t, err)

	var loadErr *DataLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, TablePerformance, loadErr.Table)
	assert.Contains(t, err.Error(), "quiz1")
}

func TestLoadSnapshotUnparsableTimestamp(t *testing.T) {
	dir := writeFixtureDir(t)
	writeCSV(t, dir, TableStudents,
		"student_id,name,email,enrollment_date,current_trimester,cgpa\n"+
			"S001,Asha Rao,asha@example.edu,15/07/2023,3,8.2\n")

	_, err := LoadSnapshot(dir)
	require.Error(t, err)

	var loadErr *DataLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, TableStudents, loadErr.Table)
}

func TestLoadSnapshotEmptyFile(t *testing.T) {
	dir := writeFixtureDir(t)
	writeCSV(t, dir, TableCourses, "")

	_, err := LoadSnapshot(dir)
	require.Error(t, err)

	var loadErr *DataLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, TableCourses, loadErr.Table)
}

func TestLoadSnapshotNumericFallbacks(t *testing.T) {
	dir := writeFixtureDir(t)
	writeCSV(t, dir, TableStudents,
		"student_id,name,email,enrollment_date,current_trimester,cgpa\n"+
			"S001,Asha Rao,asha@example.edu,2023-07-15,3.0,\n")

	snap, err := LoadSnapshot(dir)
	require.NoError(t, err)

	asha := snap.StudentByID("S001")
	require.NotNil(t, asha)
	assert.Equal(t, 3, asha.CurrentTrimester)
	assert.Zero(t, asha.CGPA)
}
