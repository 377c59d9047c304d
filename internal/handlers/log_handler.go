package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/tup-vms/vms-backend/internal/database"
	"github.com/tup-vms/vms-backend/internal/middleware"
	"github.com/tup-vms/vms-backend/internal/models"
	"github.com/tup-vms/vms-backend/internal/services"
)

// LogHandler handles log listing and activity endpoints
type LogHandler struct {
	logRepository      *database.LogRepository
	activityRepository *database.ActivityRepository
	credentialService  *services.CredentialService
}

// NewLogHandler creates a new log handler
func NewLogHandler(
	logRepository *database.LogRepository,
	activityRepository *database.ActivityRepository,
	credentialService *services.CredentialService,
) *LogHandler {
	return &LogHandler{
		logRepository:      logRepository,
		activityRepository: activityRepository,
		credentialService:  credentialService,
	}
}

// ListLogs handles GET /api/logs
func (h *LogHandler) ListLogs(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}
	limit, offset := pagination(c)

	logs, err := h.logRepository.ListLogs(from, to, limit, offset)
	if err != nil {
		logrus.WithError(err).Error("Failed to list logs")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// RecordActivity handles POST /api/activities. The caller scans another
// user's QR and records a free-form activity between them.
func (h *LogHandler) RecordActivity(c *gin.Context) {
	var req models.RecordActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	userCtx := middleware.MustGetUserContext(c)

	fromCredential, err := h.credentialService.GetForUser(userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	toCredential, err := h.credentialService.Resolve(req.ToQR)
	if err != nil {
		respondError(c, err)
		return
	}

	activity := &models.Activity{
		FromUserID:   userCtx.UserID,
		ToUserID:     toCredential.UserID,
		FromQR:       fromCredential.QRString,
		ToQR:         toCredential.QRString,
		ActivityType: req.ActivityType,
	}
	if err := h.activityRepository.CreateActivity(activity); err != nil {
		logrus.WithError(err).Error("Failed to record activity")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Activity recorded",
		"activity": activity,
	})
}

// ListActivities handles GET /api/activities
func (h *LogHandler) ListActivities(c *gin.Context) {
	limit, offset := pagination(c)
	userCtx := middleware.MustGetUserContext(c)

	activities, err := h.activityRepository.ListByFromUser(userCtx.UserID, limit, offset)
	if err != nil {
		logrus.WithError(err).Error("Failed to list activities")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

// dateRange reads optional from/to query params as YYYY-MM-DD. Writes the
// error response itself when a bound is malformed.
func dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	var from, to time.Time

	if s := c.Query("from"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid from date, use YYYY-MM-DD"})
			return from, to, false
		}
		from = parsed
	}
	if s := c.Query("to"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid to date, use YYYY-MM-DD"})
			return from, to, false
		}
		// inclusive upper bound
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}

	return from, to, true
}
