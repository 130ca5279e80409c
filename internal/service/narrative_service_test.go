package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
)

type stubGenerator struct {
	prompts []string
	text    string
	err     error
}

func (g *stubGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

func newNarrativeService(gen TextGenerator) *NarrativeService {
	snap := testSnapshot(time.Now())
	dashboards := NewDashboardService(stubSnapshots{snap}, stubScorerProvider{}, nil, time.Minute, zap.NewNop())
	students := NewStudentService(stubSnapshots{snap}, stubScorerProvider{}, nil, time.Minute, zap.NewNop())
	return NewNarrativeService(gen, dashboards, students, time.Second, zap.NewNop())
}

func TestInstructorNarrative(t *testing.T) {
	gen := &stubGenerator{text: "A thoughtful summary."}
	svc := newNarrativeService(gen)

	narrative, err := svc.InstructorNarrative(context.Background(), "Dr. Sharma")
	require.NoError(t, err)
	assert.Equal(t, "A thoughtful summary.", narrative.Narrative)
	assert.False(t, narrative.GeneratedAt.IsZero())

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "Dr. Sharma")
	assert.Contains(t, prompt, "Teaching 2 courses with 2 students total")
	assert.Contains(t, prompt, "1 students identified as potentially at risk")
	assert.Contains(t, prompt, "Ravi Kumar")
}

func TestStudentNarrative(t *testing.T) {
	gen := &stubGenerator{text: "Keep it up."}
	svc := newNarrativeService(gen)

	narrative, err := svc.StudentNarrative(context.Background(), "S001")
	require.NoError(t, err)
	assert.Equal(t, "Keep it up.", narrative.Narrative)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "Asha Rao")
	assert.Contains(t, prompt, "Currently in Trimester 3")
	assert.Contains(t, prompt, "Performance trend: Declining")
	assert.Contains(t, prompt, "Machine Learning Basics")
}

func TestCourseRecommendationsPrompt(t *testing.T) {
	gen := &stubGenerator{text: "Take MLT next."}
	svc := newNarrativeService(gen)

	_, err := svc.CourseRecommendations(context.Background(), "S001")
	require.NoError(t, err)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "about to enter Trimester 4")
	// Completed Mathematics 1 (8.0) and Programming Basics (9.0).
	assert.Contains(t, prompt, "Mathematics: 8.00")
	assert.Contains(t, prompt, "Programming: 9.00")
	assert.Contains(t, prompt, "Statistics: No data")
}

func TestNarrativeUnavailableWhenDisabled(t *testing.T) {
	svc := newNarrativeService(nil)

	_, err := svc.InstructorNarrative(context.Background(), "Dr. Sharma")
	assert.ErrorIs(t, err, appErrors.ErrNarrativeUnavailable)
}

func TestNarrativeGenerationFailure(t *testing.T) {
	gen := &stubGenerator{err: errors.New("backend down")}
	svc := newNarrativeService(gen)

	_, err := svc.StudentNarrative(context.Background(), "S001")
	require.Error(t, err)
	typed := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNarrativeUnavailable.Code, typed.Code)
}

func TestNarrativeUnknownSubjects(t *testing.T) {
	gen := &stubGenerator{text: "unused"}
	svc := newNarrativeService(gen)

	_, err := svc.InstructorNarrative(context.Background(), "Dr. Nobody")
	require.Error(t, err)
	assert.Equal(t, "No courses found for this instructor", appErrors.FromError(err).Message)

	_, err = svc.StudentNarrative(context.Background(), "S999")
	require.Error(t, err)
	assert.Equal(t, "Student not found", appErrors.FromError(err).Message)

	assert.Empty(t, gen.prompts)
}
