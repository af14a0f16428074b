package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/lucena-edu/frequencia-api/internal/models"
	"github.com/lucena-edu/frequencia-api/internal/service"
	appErrors "github.com/lucena-edu/frequencia-api/pkg/errors"
	"github.com/lucena-edu/frequencia-api/pkg/response"
)

// AuthHandler exposes the login endpoint.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Login authenticates credentials and issues an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid login payload"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
