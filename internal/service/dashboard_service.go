package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-insight-api/internal/dto"
	"github.com/noah-isme/lms-insight-api/internal/store"
)

const errNoInstructorCourses = "No courses found for this instructor"

// DashboardService composes the instructor dashboard from per-course reports
// and the at-risk student list.
type DashboardService struct {
	snapshots SnapshotProvider
	risk      RiskScorerProvider
	cache     *CacheService
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewDashboardService constructs a dashboard service.
func NewDashboardService(snapshots SnapshotProvider, risk RiskScorerProvider, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	return &DashboardService{snapshots: snapshots, risk: risk, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// ForInstructor returns the dashboard for one instructor. Unknown instructors
// come back as a payload with the Error field set. The boolean indicates a
// cache hit.
func (s *DashboardService) ForInstructor(ctx context.Context, instructor string) (*dto.Dashboard, bool, error) {
	cacheKey := fmt.Sprintf("dashboard:instructor:%s", instructor)
	var cached dto.Dashboard
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get dashboard cache: %w", err)
		} else if hit {
			return &cached, true, nil
		}
	}

	snap := s.snapshots.Current()
	dashboard := buildDashboard(snap, instructor, s.risk.Scorer(), time.Now())

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, dashboard, s.cacheTTL); err != nil && s.logger != nil {
			s.logger.Warn("cache dashboard", zap.Error(err))
		}
	}
	return dashboard, false, nil
}

// AtRiskStudents lists students above the moderate-risk threshold, scoped to a
// course, to an instructor, or to the whole cohort when neither filter is set.
// The course filter wins when both are given. The boolean indicates a cache hit.
func (s *DashboardService) AtRiskStudents(ctx context.Context, courseCode, instructor string) ([]dto.AtRiskStudent, bool, error) {
	cacheKey := fmt.Sprintf("dashboard:at-risk:%s:%s", courseCode, instructor)
	var cached []dto.AtRiskStudent
	if s.cache != nil {
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err != nil {
			return nil, false, fmt.Errorf("get at-risk cache: %w", err)
		} else if hit {
			return cached, true, nil
		}
	}

	snap := s.snapshots.Current()

	var studentIDs []string
	seen := make(map[string]bool)
	switch {
	case courseCode != "":
		for _, en := range snap.EnrollmentsByCourse(courseCode) {
			if !seen[en.StudentID] {
				seen[en.StudentID] = true
				studentIDs = append(studentIDs, en.StudentID)
			}
		}
	case instructor != "":
		for _, en := range snap.EnrollmentsByInstructor(instructor) {
			if !seen[en.StudentID] {
				seen[en.StudentID] = true
				studentIDs = append(studentIDs, en.StudentID)
			}
		}
	default:
		for i := range snap.Students {
			studentIDs = append(studentIDs, snap.Students[i].StudentID)
		}
	}

	atRisk := atRiskStudents(snap, studentIDs, s.risk.Scorer(), time.Now())

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, atRisk, s.cacheTTL); err != nil && s.logger != nil {
			s.logger.Warn("cache at-risk list", zap.Error(err))
		}
	}
	return atRisk, false, nil
}

func buildDashboard(snap *store.Snapshot, instructor string, scorer RiskScorer, now time.Time) *dto.Dashboard {
	enrollments := snap.EnrollmentsByInstructor(instructor)
	if len(enrollments) == 0 {
		return &dto.Dashboard{Error: errNoInstructorCourses}
	}

	var courseCodes []string
	seenCourses := make(map[string]bool)
	var studentIDs []string
	seenStudents := make(map[string]bool)
	for _, en := range enrollments {
		if !seenCourses[en.CourseCode] {
			seenCourses[en.CourseCode] = true
			courseCodes = append(courseCodes, en.CourseCode)
		}
		if !seenStudents[en.StudentID] {
			seenStudents[en.StudentID] = true
			studentIDs = append(studentIDs, en.StudentID)
		}
	}

	d := &dto.Dashboard{
		InstructorName: instructor,
		TotalCourses:   len(courseCodes),
		TotalStudents:  len(studentIDs),
		Courses:        make(map[string]*dto.CourseMetrics, len(courseCodes)),
	}

	ratings := make([]*float64, 0, len(courseCodes))
	for _, code := range courseCodes {
		metrics := courseMetrics(snap, code)
		d.Courses[code] = metrics
		ratings = append(ratings, metrics.AvgInstructorRating)
	}
	d.OverallMetrics.AvgInstructorRating = meanOfMeans(ratings)

	d.AtRiskStudents = atRiskStudents(snap, studentIDs, scorer, now)
	d.AtRiskStudentsCount = len(d.AtRiskStudents)

	d.Insights = dashboardInsights(d, courseCodes)
	return d
}

// atRiskStudents scores every student and keeps those above the moderate-risk
// threshold, highest risk first.
func atRiskStudents(snap *store.Snapshot, studentIDs []string, scorer RiskScorer, now time.Time) []dto.AtRiskStudent {
	atRisk := make([]dto.AtRiskStudent, 0)
	for _, id := range studentIDs {
		m := studentMetrics(snap, id, scorer, now)
		if m.RiskScore == nil || *m.RiskScore <= 0.4 {
			continue
		}

		entry := dto.AtRiskStudent{
			StudentID:        id,
			Name:             m.Name,
			RiskScore:        *m.RiskScore,
			CurrentTrimester: m.CurrentTrimester,
			KeyFactors:       riskFactors(m),
		}
		if m.CGPA != nil {
			entry.CGPA = *m.CGPA
		}
		if m.AvgAttendance != nil {
			entry.AvgAttendance = *m.AvgAttendance
		}
		atRisk = append(atRisk, entry)
	}

	sort.SliceStable(atRisk, func(i, j int) bool {
		return atRisk[i].RiskScore > atRisk[j].RiskScore
	})
	return atRisk
}

// riskFactors names the signals behind a student's risk score. Missing signals
// assume the same healthy baselines as the rule-based scorer.
func riskFactors(m *dto.StudentMetrics) []string {
	var factors []string

	attendance := 95.0
	if m.AvgAttendance != nil {
		attendance = *m.AvgAttendance
	}
	if attendance < 80 {
		factors = append(factors, "Low attendance")
	}

	gpa := 8.0
	if m.CalculatedGPA != nil {
		gpa = *m.CalculatedGPA
	} else if m.CGPA != nil {
		gpa = *m.CGPA
	}
	if gpa < 7 {
		factors = append(factors, "Low grades")
	}

	activity := 20
	if m.RecentActivityCount != nil {
		activity = *m.RecentActivityCount
	}
	if activity < 10 {
		factors = append(factors, "Low engagement")
	}

	for _, insight := range m.Insights {
		if strings.Contains(strings.ToLower(insight), "falling behind") {
			factors = append(factors, "Behind on assessments")
			break
		}
	}
	return factors
}

func dashboardInsights(d *dto.Dashboard, courseCodes []string) []string {
	var insights []string

	if rating := d.OverallMetrics.AvgInstructorRating; rating != nil {
		if *rating > 4.5 {
			insights = append(insights, "Your teaching is highly rated by students. Keep up the excellent work!")
		} else if *rating < 3.5 {
			insights = append(insights, "Consider reviewing your teaching methods based on student feedback.")
		}
	}

	if d.TotalStudents > 0 {
		atRiskPercentage := float64(d.AtRiskStudentsCount) / float64(d.TotalStudents) * 100
		if atRiskPercentage > 20 {
			insights = append(insights, fmt.Sprintf("A significant portion (%.1f%%) of your students are at risk. Consider implementing support strategies.", atRiskPercentage))
		} else if d.AtRiskStudentsCount > 0 {
			insights = append(insights, fmt.Sprintf("You have %d students who may need additional support.", d.AtRiskStudentsCount))
		}
	}

	var courseInsights []string
	for _, code := range courseCodes {
		metrics := d.Courses[code]
		if metrics == nil {
			continue
		}
		name := metrics.CourseName
		if name == "" {
			name = code
		}
		for _, insight := range metrics.Insights {
			courseInsights = append(courseInsights, fmt.Sprintf("[%s] %s", name, insight))
		}
	}
	if len(courseInsights) > 3 {
		insights = append(insights, courseInsights[:3]...)
		insights = append(insights, fmt.Sprintf("Plus %d more course-specific insights. View individual course reports for details.", len(courseInsights)-3))
	} else {
		insights = append(insights, courseInsights...)
	}

	return insights
}
