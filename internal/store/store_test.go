package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lucena-edu/frequencia-api/internal/models"
	appErrors "github.com/lucena-edu/frequencia-api/pkg/errors"
)

func newTestStore(t *testing.T) (*Store, *models.Student) {
	t.Helper()
	s := New(zap.NewNop())
	room, err := s.CreateClassroom(models.ClassRoom{ID: "c1", Name: "Turma 101", Grade: "1º ano"})
	require.NoError(t, err)
	student, err := s.CreateStudent(models.Student{ID: "s1", Name: "Ana Souza", Matricula: "2026001", ClassroomID: room.ID})
	require.NoError(t, err)
	return s, student
}

func at(day string, hhmm string) time.Time {
	ts, err := time.Parse(models.DateLayout+" "+models.TimeLayout, day+" "+hhmm)
	if err != nil {
		panic(err)
	}
	return ts
}

func TestRecordEventIdempotent(t *testing.T) {
	s, student := newTestStore(t)

	first, err := s.RecordEvent(student.ID, models.FrequencyEntrada, at("2026-02-20", "07:12"))
	require.NoError(t, err)

	second, err := s.RecordEvent(student.ID, models.FrequencyEntrada, at("2026-02-20", "07:12"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, s.Logs(), 1)
}

func TestRecordEventUnknownStudent(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.RecordEvent("ghost", models.FrequencyEntrada, at("2026-02-20", "07:12"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnknownStudent.Code, appErrors.FromError(err).Code)
}

func TestRecordEventUpdatesPresence(t *testing.T) {
	s, student := newTestStore(t)

	_, err := s.RecordEvent(student.ID, models.FrequencyAtraso, at("2026-02-20", "07:40"))
	require.NoError(t, err)

	got, err := s.Student(student.ID)
	require.NoError(t, err)
	assert.True(t, got.Present)
	require.NotNil(t, got.ArrivalTime)
	assert.Equal(t, "07:40", *got.ArrivalTime)

	_, err = s.RecordEvent(student.ID, models.FrequencySaida, at("2026-02-20", "12:00"))
	require.NoError(t, err)

	got, err = s.Student(student.ID)
	require.NoError(t, err)
	assert.False(t, got.Present)
	assert.Nil(t, got.ArrivalTime)
}

func TestLogsByStudentOrdering(t *testing.T) {
	s, student := newTestStore(t)

	_, err := s.RecordEvent(student.ID, models.FrequencyEntrada, at("2026-02-19", "07:05"))
	require.NoError(t, err)
	_, err = s.RecordEvent(student.ID, models.FrequencySaida, at("2026-02-19", "12:00"))
	require.NoError(t, err)
	_, err = s.RecordEvent(student.ID, models.FrequencyEntrada, at("2026-02-20", "07:10"))
	require.NoError(t, err)

	logs, err := s.LogsByStudent(student.ID)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "2026-02-20", logs[0].Date)
	assert.Equal(t, "2026-02-19", logs[1].Date)
	assert.Equal(t, "12:00", logs[1].Time)
	assert.Equal(t, "07:05", logs[2].Time)
}

func TestPresenceListenerFiresOnTransitionsOnly(t *testing.T) {
	s, student := newTestStore(t)

	var changes []models.PresenceChange
	s.OnPresenceChange(func(c models.PresenceChange) { changes = append(changes, c) })

	_, err := s.RecordEvent(student.ID, models.FrequencyEntrada, at("2026-02-20", "07:10"))
	require.NoError(t, err)
	_, err = s.RecordEvent(student.ID, models.FrequencyEntrada, at("2026-02-20", "07:30"))
	require.NoError(t, err)
	_, err = s.RecordEvent(student.ID, models.FrequencySaida, at("2026-02-20", "12:00"))
	require.NoError(t, err)

	require.Len(t, changes, 2)
	assert.True(t, changes[0].After)
	assert.False(t, changes[1].After)
}

func TestCreateStudentDuplicateMatricula(t *testing.T) {
	s, student := newTestStore(t)

	_, err := s.CreateStudent(models.Student{Name: "Bruno Lima", Matricula: student.Matricula, ClassroomID: student.ClassroomID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestDeleteClassroomWithStudents(t *testing.T) {
	s, student := newTestStore(t)

	err := s.DeleteClassroom(student.ClassroomID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	require.NoError(t, s.DeleteStudent(student.ID))
	require.NoError(t, s.DeleteClassroom(student.ClassroomID))
}

func TestTerminalPlacementInvariant(t *testing.T) {
	s, student := newTestStore(t)

	classroomID := student.ClassroomID
	_, err := s.CreateTerminal(models.Terminal{Name: "Portão", IP: "10.0.0.2", Placement: models.PlacementPortaria, ClassroomID: &classroomID, Function: models.FunctionEntradaSaida})
	require.Error(t, err)

	_, err = s.CreateTerminal(models.Terminal{Name: "Sala 101", IP: "10.0.0.3", Placement: models.PlacementSala, Function: models.FunctionEntrada})
	require.Error(t, err)

	terminal, err := s.CreateTerminal(models.Terminal{Name: "Sala 101", IP: "10.0.0.3", Placement: models.PlacementSala, ClassroomID: &classroomID, Function: models.FunctionEntrada})
	require.NoError(t, err)
	assert.Equal(t, models.TerminalOnline, terminal.Status)
}

func TestLogVersionBumpsOnAppendOnly(t *testing.T) {
	s, student := newTestStore(t)

	before := s.LogVersion()
	_, err := s.RecordEvent(student.ID, models.FrequencyEntrada, at("2026-02-20", "07:12"))
	require.NoError(t, err)
	assert.Equal(t, before+1, s.LogVersion())

	_, err = s.RecordEvent(student.ID, models.FrequencyEntrada, at("2026-02-20", "07:12"))
	require.NoError(t, err)
	assert.Equal(t, before+1, s.LogVersion())
}
