package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tup-vms/vms-backend/internal/services"
)

// respondError maps a service error to its HTTP status and message
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch services.KindOf(err) {
	case services.KindValidation, services.KindConflict:
		status = http.StatusBadRequest
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindAuthorization:
		status = http.StatusForbidden
	}

	if status == http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		}).Error("Request failed")
	}

	c.JSON(status, gin.H{"message": services.MessageOf(err)})
}
