package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-insight-api/internal/dto"
	"github.com/noah-isme/lms-insight-api/internal/models"
	"github.com/noah-isme/lms-insight-api/internal/store"
)

const (
	errStudentNotFound      = "Student not found"
	errNoStudentPerformance = "No performance data found for this student"

	recentActivityWindow = 30 * 24 * time.Hour
)

// StudentService computes per-student performance reports with cache
// integration.
type StudentService struct {
	snapshots SnapshotProvider
	risk      RiskScorerProvider
	cache     *CacheService
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewStudentService constructs a student metrics service.
func NewStudentService(snapshots SnapshotProvider, risk RiskScorerProvider, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *StudentService {
	return &StudentService{snapshots: snapshots, risk: risk, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Metrics returns the performance report for one student. Unknown students and
// students without performance rows come back as payloads with the Error field
// set, not as Go errors. The boolean indicates a cache hit.
func (s *StudentService) Metrics(ctx context.Context, studentID string) (*dto.StudentMetrics, bool, error) {
	cacheKey := fmt.Sprintf("student:metrics:%s", studentID)
	var cached dto.StudentMetrics
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get student metrics cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	snap := s.snapshots.Current()
	metrics := studentMetrics(snap, studentID, s.risk.Scorer(), time.Now())

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, metrics, s.cacheTTL); err != nil && s.logger != nil {
			s.logger.Warn("cache student metrics", zap.Error(err))
		}
	}
	return metrics, false, nil
}

// studentMetrics assembles the full report from a snapshot. The clock is a
// parameter because the recent-activity window is relative to now.
func studentMetrics(snap *store.Snapshot, studentID string, scorer RiskScorer, now time.Time) *dto.StudentMetrics {
	student := snap.StudentByID(studentID)
	if student == nil {
		return &dto.StudentMetrics{StudentID: studentID, Error: errStudentNotFound}
	}

	enrollments := snap.EnrollmentsByStudent(studentID)
	performance := snap.PerformanceByStudent(studentID)
	if len(enrollments) == 0 || len(performance) == 0 {
		return &dto.StudentMetrics{
			StudentID:        studentID,
			Name:             student.Name,
			Email:            student.Email,
			CurrentTrimester: student.CurrentTrimester,
			Error:            errNoStudentPerformance,
		}
	}

	m := &dto.StudentMetrics{
		StudentID:        studentID,
		Name:             student.Name,
		Email:            student.Email,
		EnrollmentDate:   student.EnrollmentDate.Format("2006-01-02"),
		CurrentTrimester: student.CurrentTrimester,
		CGPA:             floatPtr(student.CGPA),
		Courses:          make(map[string]*dto.StudentCourseRecord),
	}

	var totalGradePoints, totalCredits float64
	for _, en := range enrollments {
		perf := snap.PerformanceByStudentCourse(studentID, en.CourseCode)
		if perf == nil {
			continue
		}
		record := &dto.StudentCourseRecord{
			CourseCode:           en.CourseCode,
			CourseName:           en.CourseName,
			Trimester:            en.Trimester,
			Instructor:           en.Instructor,
			Status:               en.Status,
			Quiz1:                perf.Quiz1,
			Quiz2:                perf.Quiz2,
			Endterm:              perf.Endterm,
			Assignments:          perf.Assignments,
			TotalScore:           perf.TotalScore,
			Grade:                perf.Grade,
			GradePoint:           perf.GradePoint,
			AttendancePercentage: perf.AttendancePercentage,
		}

		if en.Status == models.StatusOngoing {
			m.OngoingCourses = append(m.OngoingCourses, record)
		} else {
			m.CompletedCourses = append(m.CompletedCourses, record)
			if perf.GradePoint != nil {
				totalGradePoints += *perf.GradePoint * models.DefaultCourseCredits
				totalCredits += models.DefaultCourseCredits
			}
		}
		m.Courses[en.CourseCode] = record
	}

	gpa := 0.0
	if totalCredits > 0 {
		gpa = totalGradePoints / totalCredits
	}
	m.CalculatedGPA = floatPtr(gpa)

	m.PerformanceTrend = performanceTrend(performance)

	attendance := make([]*float64, 0, len(performance))
	for _, p := range performance {
		attendance = append(attendance, p.AttendancePercentage)
	}
	m.AvgAttendance = meanOf(attendance)

	if interactions := snap.InteractionsByStudent(studentID); len(interactions) > 0 {
		m.TotalInteractions = intPtr(len(interactions))

		logins := 0
		recent := 0
		cutoff := now.Add(-recentActivityWindow)
		var sessionMinutes []*float64
		for _, ev := range interactions {
			if ev.Type == models.InteractionLogin {
				logins++
				sessionMinutes = append(sessionMinutes, ev.DurationMinutes)
			}
			if !ev.Timestamp.Before(cutoff) {
				recent++
			}
		}
		m.LoginCount = intPtr(logins)
		m.RecentActivityCount = intPtr(recent)
		m.AvgSessionMinutes = meanOf(sessionMinutes)
	}

	m.Insights = studentInsights(m)

	score := scorer.Score(RiskInput{
		AvgAttendance:       m.AvgAttendance,
		CalculatedGPA:       m.CalculatedGPA,
		CGPA:                m.CGPA,
		RecentActivityCount: m.RecentActivityCount,
		Performance:         performance,
	})
	m.RiskScore = floatPtr(score)

	if score > 0.7 {
		m.Insights = append(m.Insights, "High risk of academic underperformance. Immediate intervention recommended.")
	} else if score > 0.4 {
		m.Insights = append(m.Insights, "Moderate risk of academic challenges. Proactive support recommended.")
	}

	return m
}

// performanceTrend compares grade points of early versus late completed
// courses. Course codes stand in for chronology since higher codes are taken
// later in the program.
func performanceTrend(performance []*models.PerformanceRecord) string {
	completed := make([]*models.PerformanceRecord, 0, len(performance))
	for _, p := range performance {
		if p.GradePoint != nil {
			completed = append(completed, p)
		}
	}
	if len(completed) < 2 {
		return "Not enough data to determine trend"
	}

	sort.Slice(completed, func(i, j int) bool {
		return completed[i].CourseCode < completed[j].CourseCode
	})

	points := make([]float64, len(completed))
	for i, p := range completed {
		points[i] = *p.GradePoint
	}

	var firstAvg, lastAvg float64
	if len(points) >= 3 {
		firstAvg = (points[0] + points[1] + points[2]) / 3
		n := len(points)
		lastAvg = (points[n-3] + points[n-2] + points[n-1]) / 3
	} else {
		firstAvg = points[0]
		lastAvg = points[len(points)-1]
	}

	switch {
	case lastAvg > firstAvg+0.5:
		return "Improving"
	case firstAvg > lastAvg+0.5:
		return "Declining"
	default:
		return "Stable"
	}
}

// studentInsights derives advisory messages from the report. Absent aggregates
// never trigger an insight.
func studentInsights(m *dto.StudentMetrics) []string {
	var insights []string

	if m.AvgAttendance != nil && *m.AvgAttendance < 75 {
		insights = append(insights, "Low attendance detected. This may impact academic performance.")
	}
	if m.CalculatedGPA != nil && *m.CalculatedGPA < 6 {
		insights = append(insights, "Overall performance is below average. Consider academic support.")
	}

	if len(m.OngoingCourses) > 0 {
		quiz1Done := 0
		for _, c := range m.OngoingCourses {
			if c.Quiz1 != nil {
				quiz1Done++
			}
		}
		if float64(quiz1Done)/float64(len(m.OngoingCourses)) < 0.5 {
			insights = append(insights, "Student is falling behind in current trimester assessments.")
		}
	}

	if m.RecentActivityCount != nil && *m.RecentActivityCount < 5 {
		insights = append(insights, "Low platform engagement in the last 30 days. Outreach recommended.")
	}

	return insights
}
