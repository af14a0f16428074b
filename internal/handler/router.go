package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lucena-edu/frequencia-api/internal/middleware"
	"github.com/lucena-edu/frequencia-api/internal/models"
	"github.com/lucena-edu/frequencia-api/internal/service"
)

// Handlers groups everything RegisterRoutes needs.
type Handlers struct {
	Auth         *AuthHandler
	Classrooms   *ClassroomHandler
	Students     *StudentHandler
	Terminals    *TerminalHandler
	Connectivity *ConnectivityHandler
	Reports      *ReportHandler

	AuthService *service.AuthService
	Metrics     *service.MetricsService
}

// RegisterRoutes wires the HTTP surface onto the engine. Everything past
// /auth/login requires a valid token; writes are additionally role-gated.
func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))
	}

	r.POST("/auth/login", h.Auth.Login)

	api := r.Group("/")
	api.Use(middleware.JWT(h.AuthService))

	adminOnly := middleware.RequireRoles(models.RoleAdmin, models.RoleDiretor)
	staffOnly := middleware.RequireRoles(models.RoleAdmin, models.RoleDiretor, models.RoleProfessor)

	classrooms := api.Group("/classrooms")
	{
		classrooms.GET("", h.Classrooms.List)
		classrooms.GET("/:id", h.Classrooms.Get)
		classrooms.POST("", adminOnly, h.Classrooms.Create)
		classrooms.PUT("/:id", adminOnly, h.Classrooms.Update)
		classrooms.DELETE("/:id", adminOnly, h.Classrooms.Delete)
	}

	students := api.Group("/students")
	{
		students.GET("", h.Students.List)
		students.GET("/:id", h.Students.Get)
		students.GET("/:id/logs", h.Students.Logs)
		students.POST("", adminOnly, h.Students.Create)
		students.PUT("/:id", adminOnly, h.Students.Update)
		students.DELETE("/:id", adminOnly, h.Students.Delete)
	}

	terminals := api.Group("/terminals")
	terminals.Use(staffOnly)
	{
		terminals.GET("", h.Terminals.List)
		terminals.GET("/:id", h.Terminals.Get)
		terminals.POST("", middleware.RequireRoles(models.RoleAdmin), h.Terminals.Create)
		terminals.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), h.Terminals.Update)
		terminals.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), h.Terminals.Delete)
		terminals.POST("/:id/events", h.Terminals.Event)
		terminals.POST("/:id/enroll", h.Terminals.Enroll)
	}

	connectivity := api.Group("/connectivity")
	connectivity.Use(staffOnly)
	{
		connectivity.GET("", h.Connectivity.Get)
		connectivity.PUT("", h.Connectivity.Set)
	}

	notifications := api.Group("/notifications")
	notifications.Use(staffOnly)
	{
		notifications.GET("", h.Connectivity.Notifications)
		notifications.POST("/close-window", h.Connectivity.CloseWindow)
		notifications.DELETE("/:studentId/:date", h.Connectivity.CancelNotification)
	}

	if h.Reports != nil {
		reports := api.Group("/reports")
		reports.GET("/classrooms/:id/attendance", h.Reports.ClassroomAttendance)
	}
}
