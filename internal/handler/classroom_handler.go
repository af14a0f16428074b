package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/lucena-edu/frequencia-api/internal/models"
	"github.com/lucena-edu/frequencia-api/internal/service"
	"github.com/lucena-edu/frequencia-api/internal/store"
	appErrors "github.com/lucena-edu/frequencia-api/pkg/errors"
	"github.com/lucena-edu/frequencia-api/pkg/response"
)

// ClassroomHandler exposes classroom reads and administrative writes.
type ClassroomHandler struct {
	store      *store.Store
	access     *service.AccessService
	attendance *service.AttendanceService
}

// NewClassroomHandler constructs the handler.
func NewClassroomHandler(st *store.Store, access *service.AccessService, attendance *service.AttendanceService) *ClassroomHandler {
	return &ClassroomHandler{store: st, access: access, attendance: attendance}
}

// List returns the classrooms visible to the caller with derived summaries.
func (h *ClassroomHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	rooms := h.access.VisibleClassrooms(claims.User())
	summaries, err := h.attendance.Summarize(c.Request.Context(), rooms)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, summaries)
}

// Get returns one classroom summary plus its students with percentages.
func (h *ClassroomHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	classroomID := c.Param("id")
	if !h.access.CanSeeClassroom(claims.User(), classroomID) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	summary, err := h.attendance.ClassroomSummary(c.Request.Context(), classroomID)
	if err != nil {
		response.Error(c, err)
		return
	}
	students, err := h.attendance.StudentsWithAttendance(c.Request.Context(), classroomID)
	if err != nil {
		response.Error(c, err)
		return
	}
	// Classroom visibility does not widen student visibility: a guardian
	// sees the aggregate counts but only their own linked students.
	visible := make([]models.StudentAttendance, 0, len(students))
	for _, sa := range students {
		if h.access.CanSeeStudent(claims.User(), sa.ID) {
			visible = append(visible, sa)
		}
	}

	response.OK(c, gin.H{"classroom": summary, "students": visible})
}

type classroomRequest struct {
	Name  string `json:"name" binding:"required"`
	Grade string `json:"grade"`
}

// Create registers a classroom.
func (h *ClassroomHandler) Create(c *gin.Context) {
	var req classroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid classroom payload"))
		return
	}
	room, err := h.store.CreateClassroom(models.ClassRoom{Name: req.Name, Grade: req.Grade})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, room)
}

// Update replaces a classroom's display fields.
func (h *ClassroomHandler) Update(c *gin.Context) {
	var req classroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid classroom payload"))
		return
	}
	room, err := h.store.UpdateClassroom(models.ClassRoom{ID: c.Param("id"), Name: req.Name, Grade: req.Grade})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, room)
}

// Delete removes an empty classroom.
func (h *ClassroomHandler) Delete(c *gin.Context) {
	if err := h.store.DeleteClassroom(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
