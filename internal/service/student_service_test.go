package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-insight-api/internal/models"
)

type stubScorerProvider struct {
	scorer RiskScorer
}

func (s stubScorerProvider) Scorer() RiskScorer {
	if s.scorer != nil {
		return s.scorer
	}
	return RuleBasedScorer{}
}

func newStudentService(now time.Time) *StudentService {
	snap := testSnapshot(now)
	return NewStudentService(stubSnapshots{snap}, stubScorerProvider{}, nil, time.Minute, zap.NewNop())
}

func TestStudentMetricsFullReport(t *testing.T) {
	svc := newStudentService(time.Now())

	m, hit, err := svc.Metrics(context.Background(), "S001")
	require.NoError(t, err)
	assert.False(t, hit)

	assert.Equal(t, "S001", m.StudentID)
	assert.Equal(t, "Asha Rao", m.Name)
	assert.Equal(t, 3, m.CurrentTrimester)
	require.NotNil(t, m.CGPA)
	assert.InDelta(t, 8.2, *m.CGPA, 0.001)
	assert.Empty(t, m.Error)

	require.Len(t, m.CompletedCourses, 2)
	require.Len(t, m.OngoingCourses, 1)
	assert.Equal(t, "ML201", m.OngoingCourses[0].CourseCode)
	assert.Len(t, m.Courses, 3)

	// Two completed four-credit courses at grade points 9 and 8.
	require.NotNil(t, m.CalculatedGPA)
	assert.InDelta(t, 8.5, *m.CalculatedGPA, 0.001)

	// CS101 (9) sorts before MA102 (8); a full point drop reads as declining.
	assert.Equal(t, "Declining", m.PerformanceTrend)

	require.NotNil(t, m.AvgAttendance)
	assert.InDelta(t, 90, *m.AvgAttendance, 0.001)

	require.NotNil(t, m.TotalInteractions)
	assert.Equal(t, 6, *m.TotalInteractions)
	require.NotNil(t, m.LoginCount)
	assert.Equal(t, 3, *m.LoginCount)
	require.NotNil(t, m.RecentActivityCount)
	assert.Equal(t, 6, *m.RecentActivityCount)
	require.NotNil(t, m.AvgSessionMinutes)
	assert.InDelta(t, 40, *m.AvgSessionMinutes, 0.001)

	// Healthy attendance, GPA and engagement leave only the mild activity
	// bump from fewer than ten recent events.
	require.NotNil(t, m.RiskScore)
	assert.InDelta(t, 0.1, *m.RiskScore, 0.001)
	assert.Empty(t, m.Insights)
}

func TestStudentMetricsAtRiskStudent(t *testing.T) {
	svc := newStudentService(time.Now())

	m, _, err := svc.Metrics(context.Background(), "S002")
	require.NoError(t, err)

	require.NotNil(t, m.CalculatedGPA)
	assert.InDelta(t, 0, *m.CalculatedGPA, 0.001)
	assert.Equal(t, "Not enough data to determine trend", m.PerformanceTrend)

	require.NotNil(t, m.AvgAttendance)
	assert.InDelta(t, 62.5, *m.AvgAttendance, 0.001)

	// No interaction rows at all, so the engagement fields stay absent.
	assert.Nil(t, m.TotalInteractions)
	assert.Nil(t, m.RecentActivityCount)

	require.NotNil(t, m.RiskScore)
	assert.InDelta(t, 0.7, *m.RiskScore, 0.001)

	assert.Equal(t, []string{
		"Low attendance detected. This may impact academic performance.",
		"Overall performance is below average. Consider academic support.",
		"Student is falling behind in current trimester assessments.",
		"Moderate risk of academic challenges. Proactive support recommended.",
	}, m.Insights)
}

func TestStudentMetricsNotFound(t *testing.T) {
	svc := newStudentService(time.Now())

	m, _, err := svc.Metrics(context.Background(), "S999")
	require.NoError(t, err)

	assert.Equal(t, "S999", m.StudentID)
	assert.Equal(t, "Student not found", m.Error)
	assert.Empty(t, m.Name)
}

func TestStudentMetricsWithoutPerformance(t *testing.T) {
	svc := newStudentService(time.Now())

	m, _, err := svc.Metrics(context.Background(), "S003")
	require.NoError(t, err)

	assert.Equal(t, "S003", m.StudentID)
	assert.Equal(t, "Meena Iyer", m.Name)
	assert.Equal(t, 1, m.CurrentTrimester)
	assert.Equal(t, "No performance data found for this student", m.Error)
	assert.Nil(t, m.CGPA)
	assert.Nil(t, m.RiskScore)
	assert.Empty(t, m.Courses)
}

func TestStudentMetricsCaching(t *testing.T) {
	snap := testSnapshot(time.Now())
	cacheSvc := NewCacheService(&stubCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewStudentService(stubSnapshots{snap}, stubScorerProvider{}, cacheSvc, time.Minute, zap.NewNop())

	ctx := context.Background()
	first, hit, err := svc.Metrics(ctx, "S001")
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := svc.Metrics(ctx, "S001")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.CalculatedGPA, second.CalculatedGPA)
	assert.Equal(t, first.PerformanceTrend, second.PerformanceTrend)
}

func TestPerformanceTrendWindows(t *testing.T) {
	record := func(code string, point float64) *models.PerformanceRecord {
		return &models.PerformanceRecord{CourseCode: code, GradePoint: floatPtr(point)}
	}

	tests := []struct {
		name string
		rows []*models.PerformanceRecord
		want string
	}{
		{
			name: "too few completed courses",
			rows: []*models.PerformanceRecord{record("CS101", 8)},
			want: "Not enough data to determine trend",
		},
		{
			name: "two courses improving",
			rows: []*models.PerformanceRecord{record("MA102", 9), record("CS101", 7)},
			want: "Improving",
		},
		{
			name: "two courses stable",
			rows: []*models.PerformanceRecord{record("CS101", 8), record("MA102", 8.4)},
			want: "Stable",
		},
		{
			name: "moving average declining",
			rows: []*models.PerformanceRecord{
				record("CS101", 9), record("CS102", 9), record("CS103", 9),
				record("MA201", 7), record("MA202", 7), record("MA203", 7),
			},
			want: "Declining",
		},
		{
			name: "ungraded rows ignored",
			rows: []*models.PerformanceRecord{
				record("CS101", 8),
				{CourseCode: "ML201"},
			},
			want: "Not enough data to determine trend",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, performanceTrend(tt.rows))
		})
	}
}
