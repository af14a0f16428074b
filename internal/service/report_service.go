package service

import (
	"context"
	"fmt"

	"github.com/lucena-edu/frequencia-api/internal/models"
	appErrors "github.com/lucena-edu/frequencia-api/pkg/errors"
	"github.com/lucena-edu/frequencia-api/pkg/export"
)

// ReportFormat selects the rendered output.
type ReportFormat string

const (
	ReportCSV ReportFormat = "csv"
	ReportPDF ReportFormat = "pdf"
)

// Report is a rendered attendance report ready to be served.
type Report struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ReportService renders per-classroom attendance reports, respecting the
// caller's visibility like every other read.
type ReportService struct {
	attendance *AttendanceService
	access     *AccessService
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
}

// NewReportService constructs the service.
func NewReportService(attendance *AttendanceService, access *AccessService) *ReportService {
	return &ReportService{
		attendance: attendance,
		access:     access,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
	}
}

// ClassroomAttendance renders the classroom's attendance table.
func (s *ReportService) ClassroomAttendance(ctx context.Context, user models.User, classroomID string, format ReportFormat) (*Report, error) {
	if !s.access.CanSeeClassroom(user, classroomID) {
		return nil, appErrors.ErrForbidden
	}

	summary, err := s.attendance.ClassroomSummary(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	students, err := s.attendance.StudentsWithAttendance(ctx, classroomID)
	if err != nil {
		return nil, err
	}

	table := export.Table{
		Title:   fmt.Sprintf("Frequência %s (%s)", summary.Name, summary.Grade),
		Headers: []string{"Matrícula", "Aluno", "Presente", "Chegada", "Frequência (%)"},
		Rows:    make([][]string, 0, len(students)),
	}
	for _, st := range students {
		// The rendered roster honors per-student visibility, same as the
		// classroom detail view.
		if !s.access.CanSeeStudent(user, st.ID) {
			continue
		}
		present := "não"
		if st.Present {
			present = "sim"
		}
		arrival := ""
		if st.ArrivalTime != nil {
			arrival = *st.ArrivalTime
		}
		table.Rows = append(table.Rows, []string{
			st.Matricula,
			st.Name,
			present,
			arrival,
			fmt.Sprintf("%.1f", st.AttendancePercent),
		})
	}

	switch format {
	case ReportCSV:
		content, err := s.csv.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render csv report")
		}
		return &Report{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("frequencia-%s.csv", classroomID),
		}, nil
	case ReportPDF:
		content, err := s.pdf.Render(table)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render pdf report")
		}
		return &Report{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("frequencia-%s.pdf", classroomID),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
