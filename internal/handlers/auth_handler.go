package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/tup-vms/vms-backend/internal/config"
	"github.com/tup-vms/vms-backend/internal/database"
	"github.com/tup-vms/vms-backend/internal/models"
	"github.com/tup-vms/vms-backend/internal/services"
	"github.com/tup-vms/vms-backend/pkg/jwt"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	jwtService        *jwt.Service
	credentialService *services.CredentialService
	userRepository    *database.UserRepository
	config            *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	jwtService *jwt.Service,
	credentialService *services.CredentialService,
	userRepository *database.UserRepository,
	cfg *config.Config,
) *AuthHandler {
	return &AuthHandler{
		jwtService:        jwtService,
		credentialService: credentialService,
		userRepository:    userRepository,
		config:            cfg,
	}
}

// RegisterResponse represents the response after registration
type RegisterResponse struct {
	Message    string             `json:"message"`
	User       *models.User       `json:"user"`
	Credential *models.Credential `json:"credential,omitempty"`
}

// LoginResponse represents the response after login
type LoginResponse struct {
	Message      string       `json:"message"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int          `json:"expires_in_seconds"`
	User         *models.User `json:"user"`
}

// RefreshRequest represents the request to refresh an access token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	existing, err := h.userRepository.GetUserByEmail(req.Email)
	if err != nil {
		logrus.WithError(err).Error("Failed to check existing user")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email is already registered"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.config.Security.BcryptCost)
	if err != nil {
		logrus.WithError(err).Error("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	birthdate, _ := time.Parse("2006-01-02", req.Birthdate)
	user := &models.User{
		FirstName:    req.FirstName,
		Surname:      req.Surname,
		Birthdate:    birthdate,
		Role:         models.Role(req.Role),
		PhotoURL:     req.PhotoURL,
		Email:        req.Email,
		PasswordHash: string(hash),
		Status:       models.UserStatusActive,
	}
	if req.StaffType != "" {
		user.StaffType = models.NewNullString(req.StaffType)
	}

	if err := h.userRepository.CreateUser(user); err != nil {
		logrus.WithError(err).Error("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	// TUP operators log in with email/password and never get scanned
	var credential *models.Credential
	if user.Role != models.RoleTUP {
		credential, err = h.credentialService.Issue(user.ID, string(user.Role))
		if err != nil {
			respondError(c, err)
			return
		}
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User registered")

	c.JSON(http.StatusCreated, RegisterResponse{
		Message:    "Registration successful",
		User:       user,
		Credential: credential,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	user, err := h.userRepository.GetUserByEmail(req.Email)
	if err != nil {
		logrus.WithError(err).Error("Failed to look up user")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}

	accessToken, err := h.jwtService.GenerateAccessToken(user.ID, user.Email, string(user.Role), user.StaffType.String)
	if err != nil {
		logrus.WithError(err).Error("Failed to generate access token")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		logrus.WithError(err).Error("Failed to generate refresh token")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Message:      "Login successful",
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(h.config.JWT.AccessTokenExpiry.Seconds()),
		User:         user,
	})
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid refresh token"})
		return
	}

	user, err := h.userRepository.GetUserByID(claims.UserID)
	if err != nil {
		logrus.WithError(err).Error("Failed to look up user")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "User no longer exists"})
		return
	}

	accessToken, err := h.jwtService.GenerateAccessToken(user.ID, user.Email, string(user.Role), user.StaffType.String)
	if err != nil {
		logrus.WithError(err).Error("Failed to generate access token")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":       accessToken,
		"expires_in_seconds": int(h.config.JWT.AccessTokenExpiry.Seconds()),
	})
}
