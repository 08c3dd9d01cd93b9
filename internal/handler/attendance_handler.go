package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/rollbook/internal/model"
	"github.com/stemsi/rollbook/internal/response"
	"github.com/stemsi/rollbook/internal/service"
	"github.com/stemsi/rollbook/internal/validator"
)

// AttendanceHandler serves the monthly attendance sheet.
type AttendanceHandler struct {
	attendanceService *service.AttendanceService
	now               func() time.Time
	log               zerolog.Logger
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(attendanceService *service.AttendanceService, log zerolog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		attendanceService: attendanceService,
		now:               time.Now,
		log:               log.With().Str("component", "attendance_handler").Logger(),
	}
}

// saveSheetRequest is the client-edited sheet sent back for saving.
type saveSheetRequest struct {
	Month struct {
		Year  int        `json:"year" binding:"required,min=1"`
		Month time.Month `json:"month" binding:"required,min=1,max=12"`
	} `json:"month"`
	Rows []model.AttendanceRow `json:"rows" binding:"required"`
}

// Sheet godoc
// GET /api/v1/attendance
// Returns the roster merged with its marks for the current month.
func (h *AttendanceHandler) Sheet(c *gin.Context) {
	sheet, err := h.attendanceService.Load(c.Request.Context(), h.now())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, sheet)
}

// Save godoc
// PUT /api/v1/attendance
// Writes every row of the sheet back as a full record.
func (h *AttendanceHandler) Save(c *gin.Context) {
	var req saveSheetRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sheet, fields := sheetFromRequest(req)
	if fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.attendanceService.SaveAll(c.Request.Context(), sheet); err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"rows": len(sheet.Rows), "month": sheet.Month})
}

// sheetFromRequest recomputes the month length and fits every row to it.
// Rows without a student ID or with unknown mark values are reported.
func sheetFromRequest(req saveSheetRequest) (*model.AttendanceSheet, map[string]string) {
	month := model.Month{
		Year:  req.Month.Year,
		Month: req.Month.Month,
		Days:  model.DaysInMonth(req.Month.Year, req.Month.Month),
	}

	fields := make(map[string]string)
	rows := make([]model.AttendanceRow, 0, len(req.Rows))
	for i, row := range req.Rows {
		if row.Student.ID == "" {
			fields[fmt.Sprintf("rows[%d].student.id", i)] = "id is a required field"
			continue
		}
		for day, m := range row.Attendance {
			if !m.Valid() {
				fields[fmt.Sprintf("rows[%d].attendance[%d]", i, day)] = fmt.Sprintf("%q is not a valid mark", string(m))
			}
		}
		row.Attendance = row.Attendance.Fit(month.Days)
		rows = append(rows, row)
	}
	if len(fields) > 0 {
		return nil, fields
	}
	return &model.AttendanceSheet{Month: month, Rows: rows}, nil
}
