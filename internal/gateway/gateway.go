// Package gateway is the only place hardware-specific behaviour enters the
// core. Implementations are injected at startup; the core knows this
// contract and nothing about the terminal protocol.
package gateway

import (
	"context"

	"github.com/lucena-edu/frequencia-api/internal/models"
)

// Bridge is the command channel to a physical attendance terminal. Both
// calls must be time-bounded through ctx; a stalled terminal must never
// stall the caller. Failures are reported as ErrTerminalUnreachable (the
// device did not answer, retry later) or ErrRejectedByTerminal (the device
// answered and refused, no state change).
type Bridge interface {
	SendEvent(ctx context.Context, terminal models.Terminal, matricula string, kind models.FrequencyKind) error
	EnrollBiometry(ctx context.Context, terminal models.Terminal, matricula string) error
}
