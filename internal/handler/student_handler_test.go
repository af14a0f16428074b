package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lucena-edu/frequencia-api/internal/middleware"
	"github.com/lucena-edu/frequencia-api/internal/models"
	"github.com/lucena-edu/frequencia-api/internal/service"
	"github.com/lucena-edu/frequencia-api/internal/store"
)

func studentFixture(t *testing.T) (*StudentHandler, *store.Store) {
	t.Helper()
	st := store.New(zap.NewNop())
	_, err := st.CreateClassroom(models.ClassRoom{ID: "c1", Name: "Turma 101", Grade: "1º ano"})
	require.NoError(t, err)
	_, err = st.CreateStudent(models.Student{ID: "s1", Name: "Ana Souza", Matricula: "2026001", ClassroomID: "c1"})
	require.NoError(t, err)

	access := service.NewAccessService(st)
	attendance := service.NewAttendanceService(st, nil, zap.NewNop())
	return NewStudentHandler(st, access, attendance), st
}

func studentContext(t *testing.T, claims *models.JWTClaims, method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, path, nil)
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

func TestStudentLogsForbiddenOutsideScope(t *testing.T) {
	handler, _ := studentFixture(t)

	c, rec := studentContext(t, &models.JWTClaims{UserID: "u1", Role: models.RoleResponsavel, AlunoIDs: []string{"s99"}}, http.MethodGet, "/students/s1/logs")
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.Logs(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStudentLogsNewestFirst(t *testing.T) {
	handler, st := studentFixture(t)

	first, _ := time.Parse(models.DateLayout+" "+models.TimeLayout, "2026-02-19 07:05")
	second, _ := time.Parse(models.DateLayout+" "+models.TimeLayout, "2026-02-20 07:10")
	_, err := st.RecordEvent("s1", models.FrequencyEntrada, first)
	require.NoError(t, err)
	_, err = st.RecordEvent("s1", models.FrequencyEntrada, second)
	require.NoError(t, err)

	c, rec := studentContext(t, &models.JWTClaims{UserID: "u1", Role: models.RoleDiretor}, http.MethodGet, "/students/s1/logs")
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.Logs(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data []models.FrequencyLog `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	assert.Equal(t, "2026-02-20", envelope.Data[0].Date)
}

func TestStudentGetUnauthenticated(t *testing.T) {
	handler, _ := studentFixture(t)

	c, rec := studentContext(t, nil, http.MethodGet, "/students/s1")
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.Get(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestStudentGetIncludesPercentage(t *testing.T) {
	handler, _ := studentFixture(t)

	c, rec := studentContext(t, &models.JWTClaims{UserID: "u1", Role: models.RoleAdmin}, http.MethodGet, "/students/s1")
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.StudentAttendance `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "s1", envelope.Data.ID)
	assert.Equal(t, 100.0, envelope.Data.AttendancePercent)
}
