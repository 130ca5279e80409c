package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-insight-api/internal/dto"
	"github.com/noah-isme/lms-insight-api/internal/models"
	"github.com/noah-isme/lms-insight-api/internal/store"
	"github.com/noah-isme/lms-insight-api/pkg/config"
	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
	"github.com/noah-isme/lms-insight-api/pkg/jobs"
)

type stubQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *stubQueue) Enqueue(job jobs.Job) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	job.ID = "job-1"
	q.jobs = append(q.jobs, job)
	return job.ID, nil
}

func TestRuleBasedScorerThresholds(t *testing.T) {
	scorer := RuleBasedScorer{}

	tests := []struct {
		name string
		in   RiskInput
		want float64
	}{
		{
			name: "no signals assumes healthy defaults",
			in:   RiskInput{},
			want: 0,
		},
		{
			name: "slightly weak attendance",
			in:   RiskInput{AvgAttendance: floatPtr(85)},
			want: 0.2,
		},
		{
			name: "all factors at worst",
			in:   RiskInput{AvgAttendance: floatPtr(50), CalculatedGPA: floatPtr(4), RecentActivityCount: intPtr(1)},
			want: 0.9,
		},
		{
			name: "cgpa fallback when no calculated gpa",
			in:   RiskInput{CGPA: floatPtr(6.5)},
			want: 0.2,
		},
		{
			name: "calculated gpa wins over cgpa",
			in:   RiskInput{CalculatedGPA: floatPtr(8.5), CGPA: floatPtr(5)},
			want: 0,
		},
		{
			name: "moderate everything",
			in:   RiskInput{AvgAttendance: floatPtr(75), CalculatedGPA: floatPtr(6.5), RecentActivityCount: intPtr(7)},
			want: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scorer.Score(tt.in), 0.001)
		})
	}
}

func TestRuleBasedScorerCapsAtOne(t *testing.T) {
	score := RuleBasedScorer{}.Score(RiskInput{
		AvgAttendance:       floatPtr(10),
		CalculatedGPA:       floatPtr(1),
		RecentActivityCount: intPtr(0),
	})
	assert.InDelta(t, 0.9, score, 0.001)
	assert.LessOrEqual(t, score, 1.0)
}

// trainingPerformance builds a cleanly separable set of graded rows: strong
// students earn an A, weak students fail.
func trainingPerformance() []models.PerformanceRecord {
	var rows []models.PerformanceRecord
	for i := 0; i < 20; i++ {
		rows = append(rows, models.PerformanceRecord{
			StudentID: fmt.Sprintf("G%02d", i), CourseCode: "CS101",
			Quiz1:                floatPtr(80 + float64(i%10)),
			Assignments:          firstAssignments(85, 88, 90),
			Grade:                strPtr("A"),
			AttendancePercentage: floatPtr(90 + float64(i%5)),
		})
		rows = append(rows, models.PerformanceRecord{
			StudentID: fmt.Sprintf("B%02d", i), CourseCode: "CS101",
			Quiz1:                floatPtr(30 + float64(i%10)),
			Assignments:          firstAssignments(40, 42, 45),
			Grade:                strPtr("F"),
			AttendancePercentage: floatPtr(50 + float64(i%5)),
		})
	}
	return rows
}

func TestTrainRiskModelSeparatesClasses(t *testing.T) {
	trained, err := trainRiskModel(trainingPerformance(), trainerConfig{Trees: 25, MaxDepth: 6, Seed: 42})
	require.NoError(t, err)

	assert.Equal(t, 40, trained.sampleCount)
	assert.GreaterOrEqual(t, trained.accuracy, 0.75)

	weak := RiskInput{Performance: []*models.PerformanceRecord{{
		Quiz1:                floatPtr(32),
		Assignments:          firstAssignments(41, 43, 40),
		AttendancePercentage: floatPtr(52),
	}}}
	strong := RiskInput{Performance: []*models.PerformanceRecord{{
		Quiz1:                floatPtr(88),
		Assignments:          firstAssignments(86, 90, 87),
		AttendancePercentage: floatPtr(93),
	}}}

	weakScore := trained.Score(weak)
	strongScore := trained.Score(strong)
	assert.Greater(t, weakScore, strongScore)
	assert.Greater(t, weakScore, 0.5)
	assert.Less(t, strongScore, 0.5)

	info := trained.Info()
	assert.Equal(t, "random-forest", info.Scorer)
	assert.Equal(t, 25, info.Trees)
	assert.Equal(t, 40, info.SampleCount)
	require.NotNil(t, info.Accuracy)
	require.NotNil(t, info.TrainedAt)
}

func TestTrainRiskModelDeterministicForSeed(t *testing.T) {
	first, err := trainRiskModel(trainingPerformance(), trainerConfig{Trees: 10, MaxDepth: 5, Seed: 7})
	require.NoError(t, err)
	second, err := trainRiskModel(trainingPerformance(), trainerConfig{Trees: 10, MaxDepth: 5, Seed: 7})
	require.NoError(t, err)

	assert.Equal(t, first.accuracy, second.accuracy)

	in := RiskInput{Performance: []*models.PerformanceRecord{{
		Quiz1:                floatPtr(55),
		Assignments:          firstAssignments(60, 58, 62),
		AttendancePercentage: floatPtr(72),
	}}}
	assert.Equal(t, first.Score(in), second.Score(in))
}

func TestTrainRiskModelInsufficientData(t *testing.T) {
	rows := trainingPerformance()[:4]
	_, err := trainRiskModel(rows, trainerConfig{Trees: 5, MaxDepth: 4, Seed: 1})
	assert.ErrorIs(t, err, appErrors.ErrInsufficientTraining)
}

func TestTrainedScorerFallsBackWithoutUsableRows(t *testing.T) {
	trained, err := trainRiskModel(trainingPerformance(), trainerConfig{Trees: 10, MaxDepth: 5, Seed: 42})
	require.NoError(t, err)

	in := RiskInput{AvgAttendance: floatPtr(60), CalculatedGPA: floatPtr(5)}
	assert.InDelta(t, RuleBasedScorer{}.Score(in), trained.Score(in), 0.001)
}

func TestRiskServiceTrainDisabled(t *testing.T) {
	snap := store.NewSnapshot(nil, nil, trainingPerformance(), nil, nil, nil)
	svc := NewRiskService(stubSnapshots{snap}, config.RiskConfig{TrainingEnabled: false}, &stubQueue{}, NewMetricsService(), zap.NewNop())

	_, err := svc.Train(context.Background(), dto.TrainRequest{})
	assert.ErrorIs(t, err, appErrors.ErrTrainingDisabled)
}

func TestRiskServiceTrainSingleFlight(t *testing.T) {
	snap := store.NewSnapshot(nil, nil, trainingPerformance(), nil, nil, nil)
	queue := &stubQueue{}
	svc := NewRiskService(stubSnapshots{snap}, config.RiskConfig{TrainingEnabled: true, Trees: 5, MaxDepth: 4, Seed: 1}, queue, NewMetricsService(), zap.NewNop())

	accepted, err := svc.Train(context.Background(), dto.TrainRequest{Publish: true})
	require.NoError(t, err)
	assert.Equal(t, "job-1", accepted.JobID)
	require.Len(t, queue.jobs, 1)
	assert.Equal(t, JobTypeTrainRiskModel, queue.jobs[0].Type)

	_, err = svc.Train(context.Background(), dto.TrainRequest{})
	assert.ErrorIs(t, err, appErrors.ErrTrainingInProgress)
}

func TestRiskServiceHandleTrainingJobPublishes(t *testing.T) {
	snap := store.NewSnapshot(nil, nil, trainingPerformance(), nil, nil, nil)
	queue := &stubQueue{}
	svc := NewRiskService(stubSnapshots{snap}, config.RiskConfig{TrainingEnabled: true, Trees: 10, MaxDepth: 5, Seed: 42}, queue, NewMetricsService(), zap.NewNop())

	assert.Equal(t, "rule-based", svc.ModelInfo().Scorer)

	accepted, err := svc.Train(context.Background(), dto.TrainRequest{Publish: true})
	require.NoError(t, err)

	err = svc.HandleTrainingJob(context.Background(), jobs.Job{ID: accepted.JobID, Type: JobTypeTrainRiskModel, Payload: dto.TrainRequest{Publish: true}})
	require.NoError(t, err)

	info := svc.ModelInfo()
	assert.Equal(t, "random-forest", info.Scorer)
	assert.Equal(t, 40, info.SampleCount)

	// The in-flight flag is released, so a new run may start.
	_, err = svc.Train(context.Background(), dto.TrainRequest{})
	require.NoError(t, err)
}

func TestRiskServiceHandleTrainingJobWithoutPublish(t *testing.T) {
	snap := store.NewSnapshot(nil, nil, trainingPerformance(), nil, nil, nil)
	svc := NewRiskService(stubSnapshots{snap}, config.RiskConfig{TrainingEnabled: true, Trees: 10, MaxDepth: 5, Seed: 42}, &stubQueue{}, NewMetricsService(), zap.NewNop())

	err := svc.HandleTrainingJob(context.Background(), jobs.Job{ID: "job-x", Type: JobTypeTrainRiskModel, Payload: dto.TrainRequest{Publish: false}})
	require.NoError(t, err)
	assert.Equal(t, "rule-based", svc.ModelInfo().Scorer)
}
