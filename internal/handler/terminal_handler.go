package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lucena-edu/frequencia-api/internal/models"
	"github.com/lucena-edu/frequencia-api/internal/service"
	"github.com/lucena-edu/frequencia-api/internal/store"
	appErrors "github.com/lucena-edu/frequencia-api/pkg/errors"
	"github.com/lucena-edu/frequencia-api/pkg/response"
)

// TerminalHandler exposes the terminal registry and the event/enroll
// operations that go through the hardware bridge.
type TerminalHandler struct {
	store     *store.Store
	terminals *service.TerminalService
}

// NewTerminalHandler constructs the handler.
func NewTerminalHandler(st *store.Store, terminals *service.TerminalService) *TerminalHandler {
	return &TerminalHandler{store: st, terminals: terminals}
}

// List returns every registered terminal.
func (h *TerminalHandler) List(c *gin.Context) {
	response.OK(c, h.store.Terminals())
}

// Get returns one terminal.
func (h *TerminalHandler) Get(c *gin.Context) {
	terminal, err := h.store.Terminal(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, terminal)
}

type terminalRequest struct {
	Name        string  `json:"name" binding:"required"`
	IP          string  `json:"ip" binding:"required"`
	Placement   string  `json:"placement" binding:"required"`
	ClassroomID *string `json:"classroom_id"`
	Function    string  `json:"function" binding:"required"`
}

// Create registers a terminal.
func (h *TerminalHandler) Create(c *gin.Context) {
	var req terminalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid terminal payload"))
		return
	}
	terminal, err := h.store.CreateTerminal(models.Terminal{
		Name:        req.Name,
		IP:          req.IP,
		Placement:   models.TerminalPlacement(req.Placement),
		ClassroomID: req.ClassroomID,
		Function:    models.TerminalFunction(req.Function),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, terminal)
}

// Update replaces a terminal's registration fields.
func (h *TerminalHandler) Update(c *gin.Context) {
	var req terminalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid terminal payload"))
		return
	}
	terminal, err := h.store.UpdateTerminal(models.Terminal{
		ID:          c.Param("id"),
		Name:        req.Name,
		IP:          req.IP,
		Placement:   models.TerminalPlacement(req.Placement),
		ClassroomID: req.ClassroomID,
		Function:    models.TerminalFunction(req.Function),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, terminal)
}

// Delete removes a terminal.
func (h *TerminalHandler) Delete(c *gin.Context) {
	if err := h.store.DeleteTerminal(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type terminalEventRequest struct {
	Matricula string `json:"matricula" binding:"required"`
	Kind      string `json:"kind" binding:"required"`
	// At is set when the terminal itself reports a capture it already made.
	// Absent, the event is a command pushed to the device.
	At       *string `json:"at"`
	Reported bool    `json:"reported"`
}

// Event either pushes an attendance command to the terminal or ingests an
// event the terminal captured on its own.
func (h *TerminalHandler) Event(c *gin.Context) {
	var req terminalEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid event payload"))
		return
	}
	kind := models.FrequencyKind(req.Kind)

	if req.Reported {
		var at time.Time
		if req.At != nil {
			parsed, err := time.Parse(time.RFC3339, *req.At)
			if err != nil {
				response.Error(c, appErrors.Clone(appErrors.ErrValidation, "at must be RFC 3339"))
				return
			}
			at = parsed
		}
		log, err := h.terminals.IngestEvent(c.Request.Context(), c.Param("id"), req.Matricula, kind, at)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, log)
		return
	}

	log, err := h.terminals.SendEvent(c.Request.Context(), c.Param("id"), req.Matricula, kind)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, log)
}

type enrollRequest struct {
	Matricula string `json:"matricula" binding:"required"`
}

// Enroll registers a student's biometry on the terminal.
func (h *TerminalHandler) Enroll(c *gin.Context) {
	var req enrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid enroll payload"))
		return
	}
	if err := h.terminals.EnrollBiometry(c.Request.Context(), c.Param("id"), req.Matricula); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"enrolled": true})
}
