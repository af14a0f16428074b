package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lucena-edu/frequencia-api/internal/middleware"
	"github.com/lucena-edu/frequencia-api/internal/models"
	"github.com/lucena-edu/frequencia-api/internal/service"
	"github.com/lucena-edu/frequencia-api/internal/store"
)

func classroomFixture(t *testing.T) *ClassroomHandler {
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
	access := service.NewAccessService(st)
	attendance := service.NewAttendanceService(st, nil, zap.NewNop())
	return NewClassroomHandler(st, access, attendance)
}

type classroomDetail struct {
	Data struct {
		Classroom models.ClassroomSummary   `json:"classroom"`
		Students  []models.StudentAttendance `json:"students"`
	} `json:"data"`
}

func classroomGet(t *testing.T, handler *ClassroomHandler, claims *models.JWTClaims) (*httptest.ResponseRecorder, classroomDetail) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/classrooms/c1", nil)
	c.Params = gin.Params{{Key: "id", Value: "c1"}}
	c.Set(middleware.ContextUserKey, claims)

	handler.Get(c)

	var detail classroomDetail
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	}
	return rec, detail
}

func TestClassroomGetGuardianSeesOnlyLinkedStudents(t *testing.T) {
	handler := classroomFixture(t)

	rec, detail := classroomGet(t, handler, &models.JWTClaims{UserID: "u1", Role: models.RoleResponsavel, AlunoIDs: []string{"s1"}})

	require.Equal(t, http.StatusOK, rec.Code)
	// Aggregates still describe the whole classroom.
	assert.Equal(t, 2, detail.Data.Classroom.TotalStudents)
	// The roster carries only the linked student.
	require.Len(t, detail.Data.Students, 1)
	assert.Equal(t, "s1", detail.Data.Students[0].ID)
}

func TestClassroomGetDirectorSeesFullRoster(t *testing.T) {
	handler := classroomFixture(t)

	rec, detail := classroomGet(t, handler, &models.JWTClaims{UserID: "u1", Role: models.RoleDiretor})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, detail.Data.Students, 2)
}

func TestClassroomGetForbiddenOutsideScope(t *testing.T) {
	handler := classroomFixture(t)

	rec, _ := classroomGet(t, handler, &models.JWTClaims{UserID: "u1", Role: models.RoleProfessor, TurmaIDs: []string{"c9"}})

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
