package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lucena-edu/frequencia-api/internal/models"
	"github.com/lucena-edu/frequencia-api/internal/store"
	appErrors "github.com/lucena-edu/frequencia-api/pkg/errors"
)

func reportFixture(t *testing.T) *ReportService {
	t.Helper()
	st := store.New(zap.NewNop())
	_, err := st.CreateClassroom(models.ClassRoom{ID: "c1", Name: "Turma 101", Grade: "1º ano"})
	require.NoError(t, err)
	for _, s := range []models.Student{
		{ID: "s1", Name: "Ana Souza", Matricula: "2026001", ClassroomID: "c1"},
		{ID: "s2", Name: "Bruno Lima", Matricula: "2026002", ClassroomID: "c1"},
	} {
		_, err := st.CreateStudent(s)
		require.NoError(t, err)
	}
	attendance := NewAttendanceService(st, nil, zap.NewNop())
	access := NewAccessService(st)
	return NewReportService(attendance, access)
}

func TestReportCSVRendersRoster(t *testing.T) {
	svc := reportFixture(t)
	admin := models.User{ID: "u1", Role: models.RoleAdmin}

	report, err := svc.ClassroomAttendance(context.Background(), admin, "c1", ReportCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", report.ContentType)
	assert.Equal(t, "frequencia-c1.csv", report.Filename)

	body := string(report.Content)
	assert.Contains(t, body, "2026001")
	assert.Contains(t, body, "2026002")
}

func TestReportRowsHonorStudentScope(t *testing.T) {
	svc := reportFixture(t)
	guardian := models.User{ID: "u5", Role: models.RoleResponsavel, AlunoIDs: []string{"s1"}}

	report, err := svc.ClassroomAttendance(context.Background(), guardian, "c1", ReportCSV)
	require.NoError(t, err)

	body := string(report.Content)
	assert.Contains(t, body, "Ana Souza")
	assert.NotContains(t, body, "Bruno Lima")
	assert.Equal(t, 2, len(strings.Split(strings.TrimSpace(body), "\n")))
}

func TestReportForbiddenOutsideClassroomScope(t *testing.T) {
	svc := reportFixture(t)
	professor := models.User{ID: "u4", Role: models.RoleProfessor, TurmaIDs: []string{"c9"}}

	_, err := svc.ClassroomAttendance(context.Background(), professor, "c1", ReportCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReportUnknownFormat(t *testing.T) {
	svc := reportFixture(t)
	admin := models.User{ID: "u1", Role: models.RoleAdmin}

	_, err := svc.ClassroomAttendance(context.Background(), admin, "c1", ReportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
