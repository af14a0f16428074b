package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lucena-edu/frequencia-api/internal/models"
	"github.com/lucena-edu/frequencia-api/internal/service"
	appErrors "github.com/lucena-edu/frequencia-api/pkg/errors"
	"github.com/lucena-edu/frequencia-api/pkg/response"
)

// ConnectivityHandler exposes the connectivity toggle and the guardian
// notification queue.
type ConnectivityHandler struct {
	notifications *service.NotificationService
}

// NewConnectivityHandler constructs the handler.
func NewConnectivityHandler(notifications *service.NotificationService) *ConnectivityHandler {
	return &ConnectivityHandler{notifications: notifications}
}

// Get returns the current connectivity state and the queue depth.
func (h *ConnectivityHandler) Get(c *gin.Context) {
	response.OK(c, gin.H{
		"state":   h.notifications.Connectivity(),
		"pending": h.notifications.PendingCount(),
	})
}

type connectivityRequest struct {
	State string `json:"state" binding:"required"`
}

// Set updates the connectivity state. Coming back online drains the queue.
func (h *ConnectivityHandler) Set(c *gin.Context) {
	var req connectivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid connectivity payload"))
		return
	}
	if err := h.notifications.SetConnectivity(c.Request.Context(), models.ConnectivityState(req.State)); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"state": h.notifications.Connectivity()})
}

// Notifications lists the queued guardian notification tasks.
func (h *ConnectivityHandler) Notifications(c *gin.Context) {
	response.OK(c, h.notifications.Tasks())
}

type closeWindowRequest struct {
	Date string `json:"date" binding:"required"`
}

// CloseWindow settles the attendance window for a date, turning unresolved
// absences into queued tasks.
func (h *ConnectivityHandler) CloseWindow(c *gin.Context) {
	var req closeWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid window payload"))
		return
	}
	if _, err := time.Parse(models.DateLayout, req.Date); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	created := h.notifications.CloseWindow(c.Request.Context(), req.Date)
	response.OK(c, gin.H{"tasks_created": created})
}

// CancelNotification removes a queued task for a student and date.
func (h *ConnectivityHandler) CancelNotification(c *gin.Context) {
	if err := h.notifications.CancelTask(c.Param("studentId"), c.Param("date")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
