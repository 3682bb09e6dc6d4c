package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jmpboard/jmp-tracker-backend/internal/config"
	"github.com/jmpboard/jmp-tracker-backend/internal/i18n"
	"github.com/jmpboard/jmp-tracker-backend/internal/middleware"
	"github.com/jmpboard/jmp-tracker-backend/internal/utils"
	"github.com/jmpboard/jmp-tracker-backend/pkg/jwt"
)

// AuthHandler handles management authentication HTTP requests
type AuthHandler struct {
	jwtService *jwt.Service
	config     *config.Config
	logger     *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(jwtService *jwt.Service, cfg *config.Config, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		jwtService: jwtService,
		config:     cfg,
		logger:     logger,
	}
}

// LoginRequest represents the management login request
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
	Locale   string `json:"locale"`
}

// LoginResponse represents the response after a successful login
type LoginResponse struct {
	Message      string `json:"message"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in_seconds"`
	Locale       string `json:"locale"`
}

// RefreshRequest represents the token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	clientIP := utils.GetRealIP(c)
	device := utils.ParseUserAgent(utils.GetUserAgent(c))

	if !utils.CheckPassword(h.config.Auth.PasswordHash, req.Password) {
		h.logger.WithFields(logrus.Fields{
			"ip":     clientIP,
			"device": device.Summary(),
			"bot":    device.IsBot,
		}).Warn("Management login rejected")

		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Incorrect management password",
			Code:    "INVALID_CREDENTIALS",
		})
		return
	}

	locale := req.Locale
	if locale == "" {
		locale = i18n.DefaultLocale
	}

	sessionID := uuid.New()
	accessToken, err := h.jwtService.GenerateAccessToken(sessionID, middleware.RoleManagement, locale)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate access token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to create session",
		})
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(sessionID, middleware.RoleManagement)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate refresh token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to create session",
		})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"ip":         clientIP,
		"device":     device.Summary(),
	}).Info("Management login")

	c.JSON(http.StatusOK, LoginResponse{
		Message:      "Login successful",
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(h.config.Auth.AccessTokenExpiry.Seconds()),
		Locale:       locale,
	})
}

// Refresh handles POST /api/v1/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
		})
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired refresh token",
			Code:    "INVALID_REFRESH_TOKEN",
		})
		return
	}

	accessToken, err := h.jwtService.GenerateAccessToken(claims.SessionID, claims.Role, claims.Locale)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate access token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to refresh session",
		})
		return
	}

	refreshToken, err := h.jwtService.GenerateRefreshToken(claims.SessionID, claims.Role)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate refresh token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to refresh session",
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Message:      "Token refreshed",
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(h.config.Auth.AccessTokenExpiry.Seconds()),
		Locale:       claims.Locale,
	})
}
