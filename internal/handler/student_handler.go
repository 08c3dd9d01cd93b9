package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/rollbook/internal/model"
	"github.com/stemsi/rollbook/internal/response"
	"github.com/stemsi/rollbook/internal/service"
	"github.com/stemsi/rollbook/internal/validator"
)

// StudentHandler exposes the roster intents.
type StudentHandler struct {
	studentService *service.StudentService
	log            zerolog.Logger
}

// NewStudentHandler creates a new StudentHandler.
func NewStudentHandler(studentService *service.StudentService, log zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		studentService: studentService,
		log:            log.With().Str("component", "student_handler").Logger(),
	}
}

// List godoc
// GET /api/v1/students
// Reloads the roster from the store and returns the refreshed state.
func (h *StudentHandler) List(c *gin.Context) {
	state, err := h.studentService.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, state)
}

// State godoc
// GET /api/v1/students/state
// Returns the cached roster without contacting the store.
func (h *StudentHandler) State(c *gin.Context) {
	response.Success(c, http.StatusOK, h.studentService.Snapshot())
}

// Create godoc
// POST /api/v1/students
// Adds a student and an empty attendance record for the current month.
func (h *StudentHandler) Create(c *gin.Context) {
	var req model.Student
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	created, err := h.studentService.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrAttendanceInit) {
			h.log.Warn().Err(err).Str("student_id", created.ID).Msg("Student created without attendance record")
		}
		fail(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"student": created})
}

// Update godoc
// PATCH /api/v1/students/:id
// Applies a partial update; omitted fields keep their values.
func (h *StudentHandler) Update(c *gin.Context) {
	var patch model.StudentPatch
	if fields := validator.Bind(c, &patch); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if patch.Empty() {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	patch.ID = c.Param("id")

	updated, err := h.studentService.Update(c.Request.Context(), patch)
	if err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"student": updated})
}

// Delete godoc
// DELETE /api/v1/students/:id
// Removes a student from the roster.
func (h *StudentHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.studentService.Delete(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"id": id})
}
