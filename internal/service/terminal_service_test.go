package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lucena-edu/frequencia-api/internal/models"
	appErrors "github.com/lucena-edu/frequencia-api/pkg/errors"
)

type mockTerminalStore struct {
	terminal *models.Terminal
	student  *models.Student
	statuses []models.TerminalStatus
	recorded []models.FrequencyKind
}

func (m *mockTerminalStore) Terminal(id string) (*models.Terminal, error) {
	if m.terminal == nil || m.terminal.ID != id {
		return nil, appErrors.ErrUnknownTerminal
	}
	cp := *m.terminal
	return &cp, nil
}

func (m *mockTerminalStore) SetTerminalStatus(_ string, status models.TerminalStatus) error {
	m.statuses = append(m.statuses, status)
	m.terminal.Status = status
	return nil
}

func (m *mockTerminalStore) StudentByMatricula(matricula string) (*models.Student, error) {
	if m.student == nil || m.student.Matricula != matricula {
		return nil, appErrors.ErrUnknownStudent
	}
	cp := *m.student
	return &cp, nil
}

func (m *mockTerminalStore) RecordEvent(studentID string, kind models.FrequencyKind, ts time.Time) (*models.FrequencyLog, error) {
	m.recorded = append(m.recorded, kind)
	return &models.FrequencyLog{
		ID:        "log1",
		StudentID: studentID,
		Kind:      kind,
		Date:      ts.Format(models.DateLayout),
		Time:      ts.Format(models.TimeLayout),
	}, nil
}

type mockBridge struct {
	err   error
	calls int
}

func (b *mockBridge) SendEvent(_ context.Context, _ models.Terminal, _ string, _ models.FrequencyKind) error {
	b.calls++
	return b.err
}

func (b *mockBridge) EnrollBiometry(_ context.Context, _ models.Terminal, _ string) error {
	b.calls++
	return b.err
}

func newTerminalFixture(function models.TerminalFunction) *mockTerminalStore {
	return &mockTerminalStore{
		terminal: &models.Terminal{ID: "t1", Name: "Portão", IP: "10.0.0.2", Status: models.TerminalOnline, Placement: models.PlacementPortaria, Function: function},
		student:  &models.Student{ID: "s1", Name: "Ana Souza", Matricula: "2026001", ClassroomID: "c1"},
	}
}

func TestSendEventRecordsOnAck(t *testing.T) {
	st := newTerminalFixture(models.FunctionEntradaSaida)
	svc := NewTerminalService(st, &mockBridge{}, nil, zap.NewNop(), TerminalConfig{})

	log, err := svc.SendEvent(context.Background(), "t1", "2026001", models.FrequencyEntrada)
	require.NoError(t, err)
	assert.Equal(t, "s1", log.StudentID)
	assert.Equal(t, []models.FrequencyKind{models.FrequencyEntrada}, st.recorded)
}

func TestSendEventRejectsWrongFunction(t *testing.T) {
	st := newTerminalFixture(models.FunctionSaida)
	svc := NewTerminalService(st, &mockBridge{}, nil, zap.NewNop(), TerminalConfig{})

	_, err := svc.SendEvent(context.Background(), "t1", "2026001", models.FrequencyEntrada)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, st.recorded)
}

func TestUnreachableStreakFlipsTerminalOffline(t *testing.T) {
	st := newTerminalFixture(models.FunctionEntradaSaida)
	bridge := &mockBridge{err: errors.New("connection refused")}
	svc := NewTerminalService(st, bridge, nil, zap.NewNop(), TerminalConfig{OfflineThreshold: 3})

	for i := 0; i < 3; i++ {
		_, err := svc.SendEvent(context.Background(), "t1", "2026001", models.FrequencyEntrada)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrTerminalUnreachable.Code, appErrors.FromError(err).Code)
	}
	require.NotEmpty(t, st.statuses)
	assert.Equal(t, models.TerminalOffline, st.terminal.Status)
	assert.Empty(t, st.recorded)
}

func TestRejectionKeepsTerminalOnline(t *testing.T) {
	st := newTerminalFixture(models.FunctionEntradaSaida)
	bridge := &mockBridge{err: appErrors.Clone(appErrors.ErrRejectedByTerminal, "fingerprint not enrolled")}
	svc := NewTerminalService(st, bridge, nil, zap.NewNop(), TerminalConfig{OfflineThreshold: 3})

	for i := 0; i < 5; i++ {
		_, err := svc.SendEvent(context.Background(), "t1", "2026001", models.FrequencyEntrada)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrRejectedByTerminal.Code, appErrors.FromError(err).Code)
	}
	assert.Empty(t, st.statuses)
	assert.Equal(t, models.TerminalOnline, st.terminal.Status)
}

func TestSuccessRestoresOfflineTerminal(t *testing.T) {
	st := newTerminalFixture(models.FunctionEntradaSaida)
	st.terminal.Status = models.TerminalOffline
	svc := NewTerminalService(st, &mockBridge{}, nil, zap.NewNop(), TerminalConfig{})

	_, err := svc.SendEvent(context.Background(), "t1", "2026001", models.FrequencyEntrada)
	require.NoError(t, err)
	assert.Equal(t, models.TerminalOnline, st.terminal.Status)
}

func TestIngestEventMarksReachable(t *testing.T) {
	st := newTerminalFixture(models.FunctionEntrada)
	st.terminal.Status = models.TerminalOffline
	svc := NewTerminalService(st, &mockBridge{err: errors.New("unused")}, nil, zap.NewNop(), TerminalConfig{})

	reported := time.Date(2026, 2, 20, 7, 15, 0, 0, time.Local)
	log, err := svc.IngestEvent(context.Background(), "t1", "2026001", models.FrequencyAtraso, reported)
	require.NoError(t, err)
	assert.Equal(t, "07:15", log.Time)
	assert.Equal(t, models.TerminalOnline, st.terminal.Status)
}
