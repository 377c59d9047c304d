package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tup-vms/vms-backend/internal/database"
	"github.com/tup-vms/vms-backend/internal/middleware"
	"github.com/tup-vms/vms-backend/internal/services"
)

// UserHandler handles user profile and QR change request endpoints
type UserHandler struct {
	userRepository    *database.UserRepository
	credentialService *services.CredentialService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userRepository *database.UserRepository, credentialService *services.CredentialService) *UserHandler {
	return &UserHandler{
		userRepository:    userRepository,
		credentialService: credentialService,
	}
}

// QRChangeRequest is the body for filing a QR change request
type QRChangeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Profile handles GET /api/users/me
func (h *UserHandler) Profile(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	user, err := h.userRepository.GetUserByID(userCtx.UserID)
	if err != nil {
		logrus.WithError(err).Error("Failed to look up user")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	response := gin.H{"user": user}
	if credential, err := h.credentialService.GetForUser(user.ID); err == nil {
		response["credential"] = credential
	}

	c.JSON(http.StatusOK, response)
}

// ListUsers handles GET /api/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	limit, offset := pagination(c)

	users, err := h.userRepository.ListUsers(limit, offset)
	if err != nil {
		logrus.WithError(err).Error("Failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	total, err := h.userRepository.CountUsers()
	if err != nil {
		logrus.WithError(err).Error("Failed to count users")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": total,
	})
}

// RequestQRChange handles POST /api/users/me/qr-change-request
func (h *UserHandler) RequestQRChange(c *gin.Context) {
	var req QRChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Reason is required"})
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	request, err := h.credentialService.RequestChange(userCtx.UserID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Change request filed",
		"request": request,
	})
}

// ListQRRequests handles GET /api/qr-requests
func (h *UserHandler) ListQRRequests(c *gin.Context) {
	limit, offset := pagination(c)

	requests, err := h.credentialService.ListRequests(limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ApproveQRRequest handles POST /api/qr-requests/:id/approve
func (h *UserHandler) ApproveQRRequest(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request ID"})
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	request, err := h.credentialService.Approve(requestID, userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Change request approved",
		"request": request,
	})
}

// RejectQRRequest handles POST /api/qr-requests/:id/reject
func (h *UserHandler) RejectQRRequest(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request ID"})
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	request, err := h.credentialService.Reject(requestID, userCtx.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Change request rejected",
		"request": request,
	})
}

// pagination reads limit/offset query params with sane defaults
func pagination(c *gin.Context) (int, int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
