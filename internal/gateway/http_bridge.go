package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lucena-edu/frequencia-api/internal/models"
	appErrors "github.com/lucena-edu/frequencia-api/pkg/errors"
)

// HTTPBridge talks to terminals over their embedded HTTP endpoint.
type HTTPBridge struct {
	client *http.Client
	logger *zap.Logger
}

// NewHTTPBridge builds an HTTP bridge. The timeout bounds every command in
// addition to whatever deadline the caller's context carries.
func NewHTTPBridge(timeout time.Duration, logger *zap.Logger) *HTTPBridge {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPBridge{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

type bridgeCommand struct {
	Matricula string `json:"matricula"`
	Kind      string `json:"kind,omitempty"`
}

func (b *HTTPBridge) SendEvent(ctx context.Context, terminal models.Terminal, matricula string, kind models.FrequencyKind) error {
	return b.post(ctx, terminal, "event", bridgeCommand{Matricula: matricula, Kind: string(kind)})
}

func (b *HTTPBridge) EnrollBiometry(ctx context.Context, terminal models.Terminal, matricula string) error {
	return b.post(ctx, terminal, "enroll", bridgeCommand{Matricula: matricula})
}

func (b *HTTPBridge) post(ctx context.Context, terminal models.Terminal, action string, cmd bridgeCommand) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode bridge command")
	}

	url := fmt.Sprintf("http://%s/api/%s", terminal.IP, action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build bridge request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		b.logger.Warn("terminal unreachable",
			zap.String("terminal_id", terminal.ID), zap.String("action", action), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrTerminalUnreachable.Code, appErrors.ErrTerminalUnreachable.Status, "terminal did not respond")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b.logger.Warn("terminal rejected command",
		zap.String("terminal_id", terminal.ID), zap.String("action", action), zap.Int("status", resp.StatusCode))
	return appErrors.Clone(appErrors.ErrRejectedByTerminal, fmt.Sprintf("terminal answered %d", resp.StatusCode))
}
