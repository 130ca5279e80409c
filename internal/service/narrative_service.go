package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-insight-api/internal/dto"
	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
)

// TextGenerator produces prose from a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// DashboardProvider yields instructor dashboards for narrative generation.
type DashboardProvider interface {
	ForInstructor(ctx context.Context, instructor string) (*dto.Dashboard, bool, error)
}

// StudentMetricsProvider yields student reports for narrative generation.
type StudentMetricsProvider interface {
	Metrics(ctx context.Context, studentID string) (*dto.StudentMetrics, bool, error)
}

// NarrativeService turns analytics payloads into human-friendly prose via an
// LLM. Generation failures surface as a typed unavailability error so callers
// degrade gracefully.
type NarrativeService struct {
	generator  TextGenerator
	dashboards DashboardProvider
	students   StudentMetricsProvider
	timeout    time.Duration
	logger     *zap.Logger
}

// NewNarrativeService constructs a narrative service. A nil generator means
// the feature is disabled and every call reports unavailability.
func NewNarrativeService(generator TextGenerator, dashboards DashboardProvider, students StudentMetricsProvider, timeout time.Duration, logger *zap.Logger) *NarrativeService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &NarrativeService{generator: generator, dashboards: dashboards, students: students, timeout: timeout, logger: logger}
}

// InstructorNarrative generates a prose summary of an instructor's dashboard.
func (s *NarrativeService) InstructorNarrative(ctx context.Context, instructor string) (*dto.Narrative, error) {
	if s.generator == nil {
		return nil, appErrors.ErrNarrativeUnavailable
	}

	dashboard, _, err := s.dashboards.ForInstructor(ctx, instructor)
	if err != nil {
		return nil, err
	}
	if dashboard.Error != "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, dashboard.Error)
	}

	return s.generate(ctx, instructorPrompt(dashboard))
}

// StudentNarrative generates a motivational summary for one student.
func (s *NarrativeService) StudentNarrative(ctx context.Context, studentID string) (*dto.Narrative, error) {
	if s.generator == nil {
		return nil, appErrors.ErrNarrativeUnavailable
	}

	metrics, _, err := s.students.Metrics(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if metrics.Error != "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, metrics.Error)
	}

	return s.generate(ctx, studentPrompt(metrics))
}

// CourseRecommendations suggests next-trimester courses based on the
// student's subject-area performance.
func (s *NarrativeService) CourseRecommendations(ctx context.Context, studentID string) (*dto.Narrative, error) {
	if s.generator == nil {
		return nil, appErrors.ErrNarrativeUnavailable
	}

	metrics, _, err := s.students.Metrics(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if metrics.Error != "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, metrics.Error)
	}

	return s.generate(ctx, recommendationPrompt(metrics))
}

func (s *NarrativeService) generate(ctx context.Context, prompt string) (*dto.Narrative, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("narrative generation failed", zap.Error(err))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrNarrativeUnavailable.Code, appErrors.ErrNarrativeUnavailable.Status, appErrors.ErrNarrativeUnavailable.Message)
	}
	return &dto.Narrative{Narrative: text, GeneratedAt: time.Now().UTC()}, nil
}

// jsonBlock renders a value as indented JSON for prompt embedding.
func jsonBlock(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "[]"
	}
	return string(b)
}

func orNA(v *float64) interface{} {
	if v == nil {
		return "N/A"
	}
	return *v
}

func instructorPrompt(d *dto.Dashboard) string {
	courses := make([]map[string]interface{}, 0, len(d.Courses))
	for code, c := range d.Courses {
		name := c.CourseName
		if name == "" {
			name = code
		}
		courses = append(courses, map[string]interface{}{
			"course_name":    name,
			"pass_rate":      orNA(c.PassRate),
			"avg_quiz1":      orNA(c.AvgQuiz1),
			"avg_quiz2":      orNA(c.AvgQuiz2),
			"avg_endterm":    orNA(c.AvgEndterm),
			"avg_attendance": orNA(c.AvgAttendance),
		})
	}

	atRisk := d.AtRiskStudents
	if len(atRisk) > 5 {
		atRisk = atRisk[:5]
	}
	atRiskSummary := make([]map[string]interface{}, 0, len(atRisk))
	for _, st := range atRisk {
		atRiskSummary = append(atRiskSummary, map[string]interface{}{
			"name":        st.Name,
			"risk_score":  st.RiskScore,
			"key_factors": st.KeyFactors,
		})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a concise, helpful narrative for %s based on their teaching dashboard data.\n\n", d.InstructorName)
	fmt.Fprintf(&b, "Dashboard Summary:\n- Teaching %d courses with %d students total\n- %d students identified as potentially at risk\n\n", d.TotalCourses, d.TotalStudents, d.AtRiskStudentsCount)
	fmt.Fprintf(&b, "Key Insights:\n%s\n\n", jsonBlock(d.Insights))
	fmt.Fprintf(&b, "Course Performance:\n%s\n\n", jsonBlock(courses))
	fmt.Fprintf(&b, "At-Risk Students:\n%s\n\n", jsonBlock(atRiskSummary))
	b.WriteString(`Based on this data, generate:
1. A personalized greeting
2. A summary of their teaching performance
3. Specific suggestions for improvement
4. Suggestions for helping at-risk students
5. A positive and encouraging conclusion

The tone should be professional, supportive, and actionable. Focus on practical insights rather than generic advice.
Keep it around 300-400 words.`)
	return b.String()
}

func studentPrompt(m *dto.StudentMetrics) string {
	ongoing := make([]map[string]interface{}, 0, len(m.OngoingCourses))
	for _, c := range m.OngoingCourses {
		ongoing = append(ongoing, map[string]interface{}{
			"course_name":           c.CourseName,
			"quiz1":                 orNA(c.Quiz1),
			"attendance_percentage": orNA(c.AttendancePercentage),
		})
	}

	completed := m.CompletedCourses
	if len(completed) > 3 {
		completed = completed[len(completed)-3:]
	}
	recent := make([]map[string]interface{}, 0, len(completed))
	for _, c := range completed {
		grade := "N/A"
		if c.Grade != nil {
			grade = *c.Grade
		}
		recent = append(recent, map[string]interface{}{
			"course_name": c.CourseName,
			"grade":       grade,
			"total_score": orNA(c.TotalScore),
		})
	}

	cgpa := "N/A"
	if m.CGPA != nil {
		cgpa = fmt.Sprintf("%.2f", *m.CGPA)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate a personalized, motivational narrative for %s based on their academic performance data.\n\n", m.Name)
	fmt.Fprintf(&b, "Student Summary:\n- Currently in Trimester %d\n- CGPA: %s\n- Performance trend: %s\n\n", m.CurrentTrimester, cgpa, m.PerformanceTrend)
	fmt.Fprintf(&b, "Key Insights:\n%s\n\n", jsonBlock(m.Insights))
	fmt.Fprintf(&b, "Current Courses:\n%s\n\n", jsonBlock(ongoing))
	fmt.Fprintf(&b, "Recent Completed Courses:\n%s\n\n", jsonBlock(recent))
	b.WriteString(`Based on this data, generate:
1. A personalized greeting
2. A summary of their academic performance
3. Recognition of strengths and areas for improvement
4. Specific suggestions for current courses
5. A motivational conclusion

The tone should be supportive, encouraging, and personalized. Focus on growth mindset and specific actionable advice.
Keep it around 250-300 words.`)
	return b.String()
}

// recommendationPrompt groups completed-course grade points into broad subject
// areas before asking for next-trimester suggestions.
func recommendationPrompt(m *dto.StudentMetrics) string {
	var math, stats, programming, ml []*float64
	var completedNames []string
	for _, c := range m.CompletedCourses {
		completedNames = append(completedNames, c.CourseName)
		name := strings.ToLower(c.CourseName)
		switch {
		case strings.Contains(name, "math"):
			math = append(math, c.GradePoint)
		case strings.Contains(name, "stat"):
			stats = append(stats, c.GradePoint)
		case strings.Contains(name, "program") || strings.Contains(name, "java") || strings.Contains(name, "data structure"):
			programming = append(programming, c.GradePoint)
		case strings.Contains(name, "machine") || strings.Contains(name, "learning") || strings.Contains(name, "ml"):
			ml = append(ml, c.GradePoint)
		}
	}

	area := func(points []*float64) string {
		if avg := meanOf(points); avg != nil {
			return fmt.Sprintf("%.2f", *avg)
		}
		return "No data"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Generate personalized course recommendations for %s who is about to enter Trimester %d.\n\n", m.Name, m.CurrentTrimester+1)
	fmt.Fprintf(&b, "Student's Performance by Subject Area:\n- Mathematics: %s\n- Statistics: %s\n- Programming: %s\n- Machine Learning: %s\n\n",
		area(math), area(stats), area(programming), area(ml))
	fmt.Fprintf(&b, "Completed Courses:\n%s\n\n", jsonBlock(completedNames))
	b.WriteString(`Based on this student's performance pattern:
1. Recommend 2-3 specific courses that would be most suitable for their next trimester
2. Explain why each course is recommended (based on their strengths or areas needing improvement)
3. Suggest one complementary skill they might want to develop outside of coursework

Keep recommendations specific to data science curriculum and relevant to their performance pattern.
Limit the response to 200 words.`)
	return b.String()
}
