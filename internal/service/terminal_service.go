package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/lucena-edu/frequencia-api/internal/gateway"
	"github.com/lucena-edu/frequencia-api/internal/models"
	appErrors "github.com/lucena-edu/frequencia-api/pkg/errors"
)

type terminalStore interface {
	Terminal(id string) (*models.Terminal, error)
	SetTerminalStatus(id string, status models.TerminalStatus) error
	StudentByMatricula(matricula string) (*models.Student, error)
	RecordEvent(studentID string, kind models.FrequencyKind, ts time.Time) (*models.FrequencyLog, error)
}

// TerminalConfig tunes the hardware bridge interaction.
type TerminalConfig struct {
	BridgeTimeout    time.Duration
	OfflineThreshold int
}

// TerminalService is the orchestration around the hardware bridge: it
// resolves matriculas to students, records accepted events, and tracks
// consecutive bridge failures so unreachable terminals get flipped offline.
type TerminalService struct {
	store   terminalStore
	bridge  gateway.Bridge
	metrics *MetricsService
	logger  *zap.Logger
	cfg     TerminalConfig

	mu       sync.Mutex
	failures map[string]int
}

// NewTerminalService constructs the service.
func NewTerminalService(store terminalStore, bridge gateway.Bridge, metrics *MetricsService, logger *zap.Logger, cfg TerminalConfig) *TerminalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BridgeTimeout <= 0 {
		cfg.BridgeTimeout = 5 * time.Second
	}
	if cfg.OfflineThreshold <= 0 {
		cfg.OfflineThreshold = 3
	}
	return &TerminalService{
		store:    store,
		bridge:   bridge,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		failures: make(map[string]int),
	}
}

// SendEvent pushes an attendance command through the bridge and, once the
// terminal acknowledges it, records the resulting frequency log.
func (s *TerminalService) SendEvent(ctx context.Context, terminalID, matricula string, kind models.FrequencyKind) (*models.FrequencyLog, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown event kind")
	}
	terminal, err := s.store.Terminal(terminalID)
	if err != nil {
		return nil, err
	}
	if !terminal.Accepts(kind) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "terminal does not capture this event kind")
	}
	student, err := s.store.StudentByMatricula(matricula)
	if err != nil {
		return nil, err
	}

	bridgeCtx, cancel := context.WithTimeout(ctx, s.cfg.BridgeTimeout)
	defer cancel()

	if err := s.bridge.SendEvent(bridgeCtx, *terminal, matricula, kind); err != nil {
		return nil, s.classifyBridgeFailure(terminal.ID, err)
	}
	s.markReachable(terminal.ID, terminal.Status)

	log, err := s.store.RecordEvent(student.ID, kind, time.Now())
	if err != nil {
		return nil, err
	}
	s.metrics.RecordEventIngested(string(kind))
	return log, nil
}

// IngestEvent accepts an attendance event reported by the terminal itself.
// A device that reports is reachable, so its record is flipped online.
func (s *TerminalService) IngestEvent(ctx context.Context, terminalID, matricula string, kind models.FrequencyKind, at time.Time) (*models.FrequencyLog, error) {
	_ = ctx
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown event kind")
	}
	terminal, err := s.store.Terminal(terminalID)
	if err != nil {
		return nil, err
	}
	if !terminal.Accepts(kind) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "terminal does not capture this event kind")
	}
	student, err := s.store.StudentByMatricula(matricula)
	if err != nil {
		return nil, err
	}
	s.markReachable(terminal.ID, terminal.Status)

	if at.IsZero() {
		at = time.Now()
	}
	log, err := s.store.RecordEvent(student.ID, kind, at)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordEventIngested(string(kind))
	return log, nil
}

// EnrollBiometry registers the student's matricula on the terminal.
func (s *TerminalService) EnrollBiometry(ctx context.Context, terminalID, matricula string) error {
	terminal, err := s.store.Terminal(terminalID)
	if err != nil {
		return err
	}
	if _, err := s.store.StudentByMatricula(matricula); err != nil {
		return err
	}

	bridgeCtx, cancel := context.WithTimeout(ctx, s.cfg.BridgeTimeout)
	defer cancel()

	if err := s.bridge.EnrollBiometry(bridgeCtx, *terminal, matricula); err != nil {
		return s.classifyBridgeFailure(terminal.ID, err)
	}
	s.markReachable(terminal.ID, terminal.Status)
	return nil
}

// classifyBridgeFailure tracks consecutive unreachable errors per terminal
// and flips the terminal offline at the configured threshold. Rejections
// leave the terminal online and reset the streak.
func (s *TerminalService) classifyBridgeFailure(terminalID string, err error) error {
	if errors.Is(err, appErrors.ErrRejectedByTerminal) {
		s.mu.Lock()
		s.failures[terminalID] = 0
		s.mu.Unlock()
		return err
	}
	if !errors.Is(err, appErrors.ErrTerminalUnreachable) {
		// Context deadline from a stalled terminal counts as unreachable.
		err = appErrors.Wrap(err, appErrors.ErrTerminalUnreachable.Code, appErrors.ErrTerminalUnreachable.Status, "terminal did not respond")
	}

	s.mu.Lock()
	s.failures[terminalID]++
	count := s.failures[terminalID]
	s.mu.Unlock()

	if count >= s.cfg.OfflineThreshold {
		if markErr := s.store.SetTerminalStatus(terminalID, models.TerminalOffline); markErr != nil {
			s.logger.Warn("failed to mark terminal offline", zap.String("terminal_id", terminalID), zap.Error(markErr))
		} else {
			s.logger.Warn("terminal marked offline after repeated failures",
				zap.String("terminal_id", terminalID), zap.Int("failures", count))
		}
	}
	return err
}

// markReachable resets the failure streak and restores online status.
func (s *TerminalService) markReachable(terminalID string, current models.TerminalStatus) {
	s.mu.Lock()
	s.failures[terminalID] = 0
	s.mu.Unlock()
	if current != models.TerminalOnline {
		if err := s.store.SetTerminalStatus(terminalID, models.TerminalOnline); err != nil {
			s.logger.Warn("failed to mark terminal online", zap.String("terminal_id", terminalID), zap.Error(err))
		}
	}
}
