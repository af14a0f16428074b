package gateway

import (
	"context"

	"go.uber.org/zap"

	"github.com/lucena-edu/frequencia-api/internal/models"
)

// Detached is the bridge used when no hardware is connected. Every command
// is acknowledged locally so the rest of the system behaves normally.
type Detached struct {
	logger *zap.Logger
}

// NewDetached builds a detached bridge.
func NewDetached(logger *zap.Logger) *Detached {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detached{logger: logger}
}

func (d *Detached) SendEvent(_ context.Context, terminal models.Terminal, matricula string, kind models.FrequencyKind) error {
	d.logger.Debug("detached bridge: event acknowledged",
		zap.String("terminal_id", terminal.ID),
		zap.String("matricula", matricula),
		zap.String("kind", string(kind)),
	)
	return nil
}

func (d *Detached) EnrollBiometry(_ context.Context, terminal models.Terminal, matricula string) error {
	d.logger.Debug("detached bridge: enrollment acknowledged",
		zap.String("terminal_id", terminal.ID),
		zap.String("matricula", matricula),
	)
	return nil
}
