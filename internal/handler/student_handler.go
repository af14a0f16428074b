package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/lucena-edu/frequencia-api/internal/models"
	"github.com/lucena-edu/frequencia-api/internal/service"
	"github.com/lucena-edu/frequencia-api/internal/store"
	appErrors "github.com/lucena-edu/frequencia-api/pkg/errors"
	"github.com/lucena-edu/frequencia-api/pkg/response"
)

// StudentHandler exposes student reads, their frequency history and the
// administrative CRUD surface.
type StudentHandler struct {
	store      *store.Store
	access     *service.AccessService
	attendance *service.AttendanceService
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(st *store.Store, access *service.AccessService, attendance *service.AttendanceService) *StudentHandler {
	return &StudentHandler{store: st, access: access, attendance: attendance}
}

// List returns the students visible to the caller.
func (h *StudentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.OK(c, h.access.VisibleStudents(claims.User()))
}

// Get returns a single student with the derived attendance percentage.
func (h *StudentHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	studentID := c.Param("id")
	if !h.access.CanSeeStudent(claims.User(), studentID) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	student, err := h.store.Student(studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	percent, err := h.attendance.StudentPercentage(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, models.StudentAttendance{Student: *student, AttendancePercent: percent})
}

// Logs returns the student's frequency history, newest first.
func (h *StudentHandler) Logs(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	logs, err := h.access.VisibleLogs(claims.User(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, logs)
}

type studentRequest struct {
	Name            string   `json:"name" binding:"required"`
	Matricula       string   `json:"matricula" binding:"required"`
	GuardianPhone   string   `json:"guardian_phone"`
	PhotoBase64     *string  `json:"photo_base64"`
	ClassroomID     string   `json:"classroom_id" binding:"required"`
	GuardianUserIDs []string `json:"guardian_user_ids"`
}

// Create registers a student.
func (h *StudentHandler) Create(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid student payload"))
		return
	}
	student, err := h.store.CreateStudent(models.Student{
		Name:            req.Name,
		Matricula:       req.Matricula,
		GuardianPhone:   req.GuardianPhone,
		PhotoBase64:     req.PhotoBase64,
		ClassroomID:     req.ClassroomID,
		GuardianUserIDs: req.GuardianUserIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update replaces a student's registration fields. Presence state and the
// arrival time stay derived from the frequency log.
func (h *StudentHandler) Update(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid student payload"))
		return
	}
	student, err := h.store.UpdateStudent(models.Student{
		ID:              c.Param("id"),
		Name:            req.Name,
		Matricula:       req.Matricula,
		GuardianPhone:   req.GuardianPhone,
		PhotoBase64:     req.PhotoBase64,
		ClassroomID:     req.ClassroomID,
		GuardianUserIDs: req.GuardianUserIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// Delete removes a student.
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.store.DeleteStudent(c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
