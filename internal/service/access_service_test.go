package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lucena-edu/frequencia-api/internal/models"
	"github.com/lucena-edu/frequencia-api/internal/store"
	appErrors "github.com/lucena-edu/frequencia-api/pkg/errors"
)

func seededAccessStore(t *testing.T) *store.Store {
	t.Helper()
	st := store.New(zap.NewNop())
	for _, room := range []models.ClassRoom{
		{ID: "c1", Name: "Turma 101", Grade: "1º ano"},
		{ID: "c2", Name: "Turma 201", Grade: "2º ano"},
	} {
		_, err := st.CreateClassroom(room)
		require.NoError(t, err)
	}
	for _, s := range []models.Student{
		{ID: "s1", Name: "Ana Souza", Matricula: "2026001", ClassroomID: "c1"},
		{ID: "s2", Name: "Bruno Lima", Matricula: "2026002", ClassroomID: "c2"},
	} {
		_, err := st.CreateStudent(s)
		require.NoError(t, err)
	}
	return st
}

func TestUnknownRoleSeesNothing(t *testing.T) {
	svc := NewAccessService(seededAccessStore(t))
	user := models.User{ID: "u1", Role: models.UserRole("COORDENADOR")}

	assert.Empty(t, svc.VisibleClassrooms(user))
	assert.Empty(t, svc.VisibleStudents(user))
	assert.False(t, svc.CanSeeStudent(user, "s1"))
	assert.False(t, svc.CanSeeClassroom(user, "c1"))

	_, err := svc.VisibleLogs(user, "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestProfessorScopedToOwnedClassrooms(t *testing.T) {
	svc := NewAccessService(seededAccessStore(t))
	user := models.User{ID: "u1", Role: models.RoleProfessor, TurmaIDs: []string{"c1"}}

	rooms := svc.VisibleClassrooms(user)
	require.Len(t, rooms, 1)
	assert.Equal(t, "c1", rooms[0].ID)

	students := svc.VisibleStudents(user)
	require.Len(t, students, 1)
	assert.Equal(t, "s1", students[0].ID)

	assert.True(t, svc.CanSeeStudent(user, "s1"))
	assert.False(t, svc.CanSeeStudent(user, "s2"))
}

func TestResponsavelScopedToLinkedStudents(t *testing.T) {
	svc := NewAccessService(seededAccessStore(t))
	user := models.User{ID: "u1", Role: models.RoleResponsavel, AlunoIDs: []string{"s1"}}

	rooms := svc.VisibleClassrooms(user)
	require.Len(t, rooms, 1)
	assert.Equal(t, "c1", rooms[0].ID)

	_, err := svc.VisibleLogs(user, "s2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	logs, err := svc.VisibleLogs(user, "s1")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestAdminLogsSurfaceUnknownStudent(t *testing.T) {
	svc := NewAccessService(seededAccessStore(t))
	user := models.User{ID: "u1", Role: models.RoleAdmin}

	_, err := svc.VisibleLogs(user, "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnknownStudent.Code, appErrors.FromError(err).Code)
}
