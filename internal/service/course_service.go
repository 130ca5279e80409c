package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-insight-api/internal/dto"
	"github.com/noah-isme/lms-insight-api/internal/models"
	"github.com/noah-isme/lms-insight-api/internal/store"
)

const errNoCoursePerformance = "No performance data found for this course"

// SnapshotProvider yields the currently published data snapshot.
type SnapshotProvider interface {
	Current() *store.Snapshot
}

// CourseService computes aggregated course reports with cache integration.
type CourseService struct {
	snapshots SnapshotProvider
	cache     *CacheService
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewCourseService constructs a course metrics service.
func NewCourseService(snapshots SnapshotProvider, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *CourseService {
	return &CourseService{snapshots: snapshots, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Metrics returns the report for one course, or the union of an instructor's
// courses when only the instructor filter is set. A set course code wins over
// the instructor filter; neither filter yields an empty report. The boolean
// indicates whether data originated from cache.
func (s *CourseService) Metrics(ctx context.Context, courseCode, instructor string) (*dto.CourseMetrics, bool, error) {
	if courseCode == "" && instructor == "" {
		return &dto.CourseMetrics{}, false, nil
	}

	cacheKey := fmt.Sprintf("course:metrics:%s:%s", courseCode, instructor)
	var cached dto.CourseMetrics
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get course metrics cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	snap := s.snapshots.Current()
	var metrics *dto.CourseMetrics
	if courseCode != "" {
		metrics = courseMetrics(snap, courseCode)
	} else {
		metrics = instructorCourseMetrics(snap, instructor)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, metrics, s.cacheTTL); err != nil && s.logger != nil {
			s.logger.Warn("cache course metrics", zap.Error(err))
		}
	}
	return metrics, false, nil
}

// courseMetrics builds the report for a single course code.
func courseMetrics(snap *store.Snapshot, courseCode string) *dto.CourseMetrics {
	enrollments := snap.EnrollmentsByCourse(courseCode)
	courseName := "Unknown Course"
	instructor := "Unknown Instructor"
	if len(enrollments) > 0 {
		courseName = enrollments[0].CourseName
		instructor = enrollments[0].Instructor
	}

	rows := snap.PerformanceByCourse(courseCode)
	feedback := snap.FeedbackByCourse(courseCode)
	return buildCourseMetrics(courseCode, courseName, instructor, rows, feedback)
}

// instructorCourseMetrics builds one combined report over every course the
// instructor teaches.
func instructorCourseMetrics(snap *store.Snapshot, instructor string) *dto.CourseMetrics {
	seen := make(map[string]bool)
	var rows []*models.PerformanceRecord
	for _, en := range snap.EnrollmentsByInstructor(instructor) {
		if seen[en.CourseCode] {
			continue
		}
		seen[en.CourseCode] = true
		rows = append(rows, snap.PerformanceByCourse(en.CourseCode)...)
	}

	feedback := snap.FeedbackByInstructor(instructor)
	return buildCourseMetrics("", "All Courses", instructor, rows, feedback)
}

func buildCourseMetrics(courseCode, courseName, instructor string, rows []*models.PerformanceRecord, feedback []*models.FeedbackRecord) *dto.CourseMetrics {
	if len(rows) == 0 {
		return &dto.CourseMetrics{
			CourseCode: courseCode,
			CourseName: courseName,
			Instructor: instructor,
			Error:      errNoCoursePerformance,
		}
	}

	m := &dto.CourseMetrics{
		CourseCode:  courseCode,
		CourseName:  courseName,
		Instructor:  instructor,
		NumStudents: len(rows),
	}

	quiz1 := make([]*float64, 0, len(rows))
	quiz2 := make([]*float64, 0, len(rows))
	endterm := make([]*float64, 0, len(rows))
	attendance := make([]*float64, 0, len(rows))
	for _, row := range rows {
		quiz1 = append(quiz1, row.Quiz1)
		quiz2 = append(quiz2, row.Quiz2)
		endterm = append(endterm, row.Endterm)
		attendance = append(attendance, row.AttendancePercentage)
	}
	m.AvgQuiz1 = meanOf(quiz1)
	m.AvgQuiz2 = meanOf(quiz2)
	m.AvgEndterm = meanOf(endterm)

	m.AssignmentAverages = make([]*float64, models.AssignmentCount)
	for n := 1; n <= models.AssignmentCount; n++ {
		scores := make([]*float64, 0, len(rows))
		for _, row := range rows {
			scores = append(scores, row.Assignment(n))
		}
		m.AssignmentAverages[n-1] = meanOf(scores)
	}
	m.AvgAssignmentScore = meanOfMeans(m.AssignmentAverages)

	m.GradeDistribution = make(map[string]int)
	graded := 0
	passing := 0
	for _, row := range rows {
		if row.Grade == nil {
			continue
		}
		m.GradeDistribution[*row.Grade]++
		graded++
		if *row.Grade != "F" {
			passing++
		}
	}
	passRate := 0.0
	if graded > 0 {
		passRate = float64(passing) / float64(graded) * 100
	}
	m.PassRate = floatPtr(passRate)

	m.AvgAttendance = meanOf(attendance)
	lowAttendance := 0
	for _, v := range attendance {
		if v != nil && *v < 75 {
			lowAttendance++
		}
	}
	m.LowAttendanceCount = intPtr(lowAttendance)
	m.LowAttendancePercentage = floatPtr(float64(lowAttendance) / float64(len(rows)) * 100)

	if len(feedback) > 0 {
		m.FeedbackCount = len(feedback)
		courseRatings := make([]*float64, 0, len(feedback))
		instructorRatings := make([]*float64, 0, len(feedback))
		contentRatings := make([]*float64, 0, len(feedback))
		difficultyRatings := make([]*float64, 0, len(feedback))
		for _, f := range feedback {
			courseRatings = append(courseRatings, f.CourseRating)
			instructorRatings = append(instructorRatings, f.InstructorRating)
			contentRatings = append(contentRatings, f.ContentRating)
			difficultyRatings = append(difficultyRatings, f.DifficultyRating)
		}
		m.AvgCourseRating = meanOf(courseRatings)
		m.AvgInstructorRating = meanOf(instructorRatings)
		m.AvgContentRating = meanOf(contentRatings)
		m.AvgDifficultyRating = meanOf(difficultyRatings)

		if m.AvgCourseRating != nil {
			switch {
			case *m.AvgCourseRating >= 4:
				m.Sentiment = "Positive"
			case *m.AvgCourseRating >= 3:
				m.Sentiment = "Neutral"
			default:
				m.Sentiment = "Negative"
			}
		}
	}

	m.Insights = courseInsights(m)
	return m
}

// courseInsights derives advisory messages from the aggregates. Absent
// aggregates never trigger an insight.
func courseInsights(m *dto.CourseMetrics) []string {
	var insights []string

	if m.AvgAttendance != nil && *m.AvgAttendance < 80 {
		insights = append(insights, "Low overall attendance detected. Consider engagement strategies.")
	}
	if m.AvgQuiz1 != nil && m.AvgQuiz2 != nil && *m.AvgQuiz1-*m.AvgQuiz2 > 10 {
		insights = append(insights, "Significant performance drop between Quiz 1 and Quiz 2. Review teaching materials for middle part of the course.")
	}
	if m.AvgAssignmentScore != nil && *m.AvgAssignmentScore < 65 {
		insights = append(insights, "Students are struggling with assignments. Consider providing additional practice or resources.")
	}
	if m.AvgEndterm != nil && *m.AvgEndterm < 60 {
		insights = append(insights, "End-term exam results are concerning. Review exam structure and preparation materials.")
	}
	if m.AvgInstructorRating != nil && m.AvgCourseRating != nil && *m.AvgInstructorRating < *m.AvgCourseRating-0.5 {
		insights = append(insights, "Instructor ratings are lower than course content ratings. Consider reviewing teaching methods.")
	}

	firstFive := true
	for i := 0; i < 5 && i < len(m.AssignmentAverages); i++ {
		if m.AssignmentAverages[i] == nil {
			firstFive = false
			break
		}
	}
	if firstFive && len(m.AssignmentAverages) >= 5 && *m.AssignmentAverages[0] > *m.AssignmentAverages[4]+5 {
		insights = append(insights, "Declining performance trend across assignments. Consider adjusting difficulty curve.")
	}

	return insights
}
