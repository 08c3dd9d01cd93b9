package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/rollbook/internal/response"
	"github.com/stemsi/rollbook/internal/service"
)

// SystemHandler reports process liveness.
type SystemHandler struct {
	studentService *service.StudentService
	startTime      time.Time
}

func NewSystemHandler(studentService *service.StudentService) *SystemHandler {
	return &SystemHandler{
		studentService: studentService,
		startTime:      time.Now(),
	}
}

// Health godoc
// GET /health
// Liveness probe. It never calls the remote store.
func (h *SystemHandler) Health(c *gin.Context) {
	state := h.studentService.Snapshot()
	response.Success(c, http.StatusOK, gin.H{
		"status":         "ok",
		"uptime":         formatUptime(time.Since(h.startTime)),
		"go_version":     runtime.Version(),
		"goroutines":     runtime.NumGoroutine(),
		"roster_status":  state.Status,
		"roster_entries": len(state.Students),
	})
}

func formatUptime(d time.Duration) string {
	return d.Truncate(time.Second).String()
}
