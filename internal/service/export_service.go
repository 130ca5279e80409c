package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lms-insight-api/internal/dto"
	appErrors "github.com/noah-isme/lms-insight-api/pkg/errors"
	"github.com/noah-isme/lms-insight-api/pkg/export"
)

// ExportFormat selects the rendered report type.
type ExportFormat string

// Supported export formats.
const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// CourseMetricsProvider yields course reports for export.
type CourseMetricsProvider interface {
	Metrics(ctx context.Context, courseCode, instructor string) (*dto.CourseMetrics, bool, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string, notes []string) ([]byte, error)
}

// ExportResult carries a rendered report ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders course performance reports as CSV or PDF downloads.
type ExportService struct {
	courses   CourseMetricsProvider
	snapshots SnapshotProvider
	csv       csvRenderer
	pdf       pdfRenderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(courses CourseMetricsProvider, snapshots SnapshotProvider, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{courses: courses, snapshots: snapshots, csv: csv, pdf: pdf, logger: logger}
}

var courseReportHeaders = []string{
	"Student ID", "Name", "Quiz 1", "Quiz 2", "End Term", "Total Score", "Grade", "Attendance %",
}

// CourseReport renders the per-student breakdown of one course, with the
// aggregated insights appended to PDF output.
func (s *ExportService) CourseReport(ctx context.Context, courseCode string, format ExportFormat) (*ExportResult, error) {
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	metrics, _, err := s.courses.Metrics(ctx, courseCode, "")
	if err != nil {
		return nil, err
	}
	if metrics.Error != "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, metrics.Error)
	}

	snap := s.snapshots.Current()
	rows := make([]map[string]string, 0, metrics.NumStudents)
	for _, perf := range snap.PerformanceByCourse(courseCode) {
		name := ""
		if st := snap.StudentByID(perf.StudentID); st != nil {
			name = st.Name
		}
		grade := ""
		if perf.Grade != nil {
			grade = *perf.Grade
		}
		rows = append(rows, map[string]string{
			"Student ID":   perf.StudentID,
			"Name":         name,
			"Quiz 1":       formatScore(perf.Quiz1),
			"Quiz 2":       formatScore(perf.Quiz2),
			"End Term":     formatScore(perf.Endterm),
			"Total Score":  formatScore(perf.TotalScore),
			"Grade":        grade,
			"Attendance %": formatScore(perf.AttendancePercentage),
		})
	}

	dataset := export.Dataset{Headers: courseReportHeaders, Rows: rows}
	stamp := time.Now().UTC().Format("20060102-150405")

	switch format {
	case FormatPDF:
		title := fmt.Sprintf("Course Report - %s (%s)", metrics.CourseName, courseCode)
		data, err := s.pdf.Render(dataset, title, metrics.Insights)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render pdf report")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("course-%s-%s.pdf", courseCode, stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render csv report")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("course-%s-%s.csv", courseCode, stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	}
}

func formatScore(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.1f", *v)
}
