package service

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-insight-api/internal/dto"
	"github.com/noah-isme/lms-insight-api/internal/models"
	"github.com/noah-isme/lms-insight-api/pkg/config"
	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
	"github.com/noah-isme/lms-insight-api/pkg/jobs"
)

// JobTypeTrainRiskModel identifies the offline training job.
const JobTypeTrainRiskModel = "risk.train"

// RiskInput carries the per-student signals a scorer needs. Nil pointers mean
// the signal is absent and the scorer falls back to its defaults.
type RiskInput struct {
	AvgAttendance       *float64
	CalculatedGPA       *float64
	CGPA                *float64
	RecentActivityCount *int
	Performance         []*models.PerformanceRecord
}

// RiskScorer maps a student's signals to a risk score in [0, 1].
type RiskScorer interface {
	Score(input RiskInput) float64
	Info() dto.RiskModelInfo
}

// RiskScorerProvider yields the currently published scorer.
type RiskScorerProvider interface {
	Scorer() RiskScorer
}

// RuleBasedScorer is the default heuristic scorer. Each missing signal assumes
// a healthy baseline so sparse data never inflates risk.
type RuleBasedScorer struct{}

// Score applies fixed attendance, GPA and engagement thresholds.
func (RuleBasedScorer) Score(in RiskInput) float64 {
	score := 0.0

	attendance := 95.0
	if in.AvgAttendance != nil {
		attendance = *in.AvgAttendance
	}
	switch {
	case attendance < 70:
		score += 0.3
	case attendance < 80:
		score += 0.2
	case attendance < 90:
		score += 0.1
	}

	gpa := 8.0
	if in.CalculatedGPA != nil {
		gpa = *in.CalculatedGPA
	} else if in.CGPA != nil {
		gpa = *in.CGPA
	}
	switch {
	case gpa < 6:
		score += 0.4
	case gpa < 7:
		score += 0.2
	case gpa < 8:
		score += 0.1
	}

	activity := 20
	if in.RecentActivityCount != nil {
		activity = *in.RecentActivityCount
	}
	switch {
	case activity < 5:
		score += 0.2
	case activity < 10:
		score += 0.1
	}

	return math.Min(1.0, score)
}

// Info describes the scorer for the model-info endpoint.
func (RuleBasedScorer) Info() dto.RiskModelInfo {
	return dto.RiskModelInfo{Scorer: "rule-based"}
}

// TrainingQueue is the background dispatcher training runs are pushed onto.
type TrainingQueue interface {
	Enqueue(job jobs.Job) (string, error)
}

// scorerBox keeps the dynamic type stored in the atomic.Value constant across
// publishes.
type scorerBox struct {
	scorer RiskScorer
}

// RiskService owns the published scorer and orchestrates offline training.
// Scorer swaps are atomic so in-flight requests keep a consistent model.
type RiskService struct {
	snapshots SnapshotProvider
	cfg       config.RiskConfig
	queue     TrainingQueue
	metrics   *MetricsService
	logger    *zap.Logger

	scorer   atomic.Value // scorerBox
	training atomic.Bool
}

// NewRiskService constructs a risk service publishing the rule-based scorer.
func NewRiskService(snapshots SnapshotProvider, cfg config.RiskConfig, queue TrainingQueue, metrics *MetricsService, logger *zap.Logger) *RiskService {
	s := &RiskService{snapshots: snapshots, cfg: cfg, queue: queue, metrics: metrics, logger: logger}
	s.scorer.Store(scorerBox{scorer: RuleBasedScorer{}})
	return s
}

// Scorer returns the currently published scorer.
func (s *RiskService) Scorer() RiskScorer {
	return s.scorer.Load().(scorerBox).scorer
}

// ModelInfo describes the currently published scorer.
func (s *RiskService) ModelInfo() dto.RiskModelInfo {
	return s.Scorer().Info()
}

// Train enqueues an offline training run. At most one run may be in flight.
func (s *RiskService) Train(ctx context.Context, req dto.TrainRequest) (*dto.TrainAccepted, error) {
	if !s.cfg.TrainingEnabled {
		return nil, appErrors.ErrTrainingDisabled
	}
	if !s.training.CompareAndSwap(false, true) {
		return nil, appErrors.ErrTrainingInProgress
	}

	jobID, err := s.queue.Enqueue(jobs.Job{Type: JobTypeTrainRiskModel, Payload: req})
	if err != nil {
		s.training.Store(false)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "enqueue training job")
	}
	return &dto.TrainAccepted{JobID: jobID}, nil
}

// HandleTrainingJob is the queue handler for training runs.
func (s *RiskService) HandleTrainingJob(ctx context.Context, job jobs.Job) error {
	defer s.training.Store(false)

	req, _ := job.Payload.(dto.TrainRequest)
	start := time.Now()

	snap := s.snapshots.Current()
	trained, err := trainRiskModel(snap.Performance, trainerConfig{
		Trees:    s.cfg.Trees,
		MaxDepth: s.cfg.MaxDepth,
		Seed:     s.cfg.Seed,
	})
	if err != nil {
		s.metrics.RecordTrainingRun("failed")
		s.logger.Error("risk model training failed", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}

	s.metrics.RecordTrainingRun("succeeded")
	s.logger.Info("risk model trained",
		zap.String("job_id", job.ID),
		zap.Int("samples", trained.sampleCount),
		zap.Float64("accuracy", trained.accuracy),
		zap.Duration("elapsed", time.Since(start)),
	)

	if req.Publish {
		s.scorer.Store(scorerBox{scorer: trained})
		s.logger.Info("trained risk scorer published", zap.String("job_id", job.ID))
	}
	return nil
}
