package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tup-vms/vms-backend/internal/database"
)

// AttendanceHandler handles attendance listing endpoints
type AttendanceHandler struct {
	attendanceRepository *database.AttendanceRepository
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(attendanceRepository *database.AttendanceRepository) *AttendanceHandler {
	return &AttendanceHandler{
		attendanceRepository: attendanceRepository,
	}
}

// ListAttendance handles GET /api/attendance
func (h *AttendanceHandler) ListAttendance(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)

	rows, err := h.attendanceRepository.ListAttendance(from, to, limit, offset)
	if err != nil {
		logrus.WithError(err).Error("Failed to list attendance")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"attendance": rows})
}
