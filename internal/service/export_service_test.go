package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
)

func newExportService(now time.Time) *ExportService {
	snap := testSnapshot(now)
	courses := NewCourseService(stubSnapshots{snap}, nil, time.Minute, zap.NewNop())
	return NewExportService(courses, stubSnapshots{snap}, nil, nil, zap.NewNop())
}

func TestCourseReportCSV(t *testing.T) {
	svc := newExportService(time.Now())

	result, err := svc.CourseReport(context.Background(), "CS101", FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "text/csv", result.ContentType)
	assert.Contains(t, result.Filename, "course-CS101-")

	records, err := csv.NewReader(bytes.NewReader(result.Data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, courseReportHeaders, records[0])

	assert.Equal(t, "S001", records[1][0])
	assert.Equal(t, "Asha Rao", records[1][1])
	assert.Equal(t, "85.0", records[1][2])
	assert.Equal(t, "A", records[1][6])

	assert.Equal(t, "S002", records[2][0])
	assert.Equal(t, "F", records[2][6])
	assert.Equal(t, "65.0", records[2][7])
}

func TestCourseReportPDF(t *testing.T) {
	svc := newExportService(time.Now())

	result, err := svc.CourseReport(context.Background(), "CS101", FormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", result.ContentType)
	assert.Contains(t, result.Filename, ".pdf")
	assert.True(t, bytes.HasPrefix(result.Data, []byte("%PDF")))
}

func TestCourseReportUnknownCourse(t *testing.T) {
	svc := newExportService(time.Now())

	_, err := svc.CourseReport(context.Background(), "XX999", FormatCSV)
	require.Error(t, err)
	typed := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, typed.Code)
	assert.Equal(t, "No performance data found for this course", typed.Message)
}

func TestCourseReportUnsupportedFormat(t *testing.T) {
	svc := newExportService(time.Now())

	_, err := svc.CourseReport(context.Background(), "CS101", ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
