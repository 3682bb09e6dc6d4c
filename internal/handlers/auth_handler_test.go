package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmpboard/jmp-tracker-backend/internal/config"
	"github.com/jmpboard/jmp-tracker-backend/internal/utils"
	"github.com/jmpboard/jmp-tracker-backend/pkg/jwt"
)

// setupAuthTestHandler builds an AuthHandler with the given management password.
func setupAuthTestHandler(t *testing.T, password string) *AuthHandler {
	t.Helper()

	hash, err := utils.HashPassword(password)
	require.NoError(t, err)

	cfg := &config.Config{
		Auth: config.AuthConfig{
			PasswordHash:       hash,
			AccessTokenExpiry:  1 * time.Hour,
			RefreshTokenExpiry: 7 * 24 * time.Hour,
		},
	}
	jwtService := jwt.NewService("test-secret", "test-refresh-secret", cfg.Auth.AccessTokenExpiry, cfg.Auth.RefreshTokenExpiry)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	return NewAuthHandler(jwtService, cfg, logger)
}

func performLogin(handler *AuthHandler, body interface{}) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/v1/auth/login", handler.Login)
	router.POST("/api/v1/auth/refresh", handler.Refresh)

	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLogin_Success(t *testing.T) {
	handler := setupAuthTestHandler(t, "correct horse battery")

	w := performLogin(handler, LoginRequest{Password: "correct horse battery", Locale: "fr"})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Login successful", resp.Message)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, 3600, resp.ExpiresIn)
	assert.Equal(t, "fr", resp.Locale)
}

func TestLogin_DefaultsLocale(t *testing.T) {
	handler := setupAuthTestHandler(t, "pw")

	w := performLogin(handler, LoginRequest{Password: "pw"})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "en", resp.Locale)
}

func TestLogin_WrongPassword(t *testing.T) {
	handler := setupAuthTestHandler(t, "correct horse battery")

	w := performLogin(handler, LoginRequest{Password: "guess"})

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_credentials", resp.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", resp.Code)
}

func TestLogin_MissingPassword(t *testing.T) {
	handler := setupAuthTestHandler(t, "pw")

	w := performLogin(handler, gin.H{"locale": "en"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRefresh_Success(t *testing.T) {
	handler := setupAuthTestHandler(t, "pw")

	login := performLogin(handler, LoginRequest{Password: "pw", Locale: "fr"})
	require.Equal(t, http.StatusOK, login.Code)

	var loginResp LoginResponse
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &loginResp))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/v1/auth/refresh", handler.Refresh)

	payload, _ := json.Marshal(RefreshRequest{RefreshToken: loginResp.RefreshToken})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Token refreshed", resp.Message)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "fr", resp.Locale)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	handler := setupAuthTestHandler(t, "pw")

	login := performLogin(handler, LoginRequest{Password: "pw"})
	require.Equal(t, http.StatusOK, login.Code)

	var loginResp LoginResponse
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &loginResp))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/v1/auth/refresh", handler.Refresh)

	// An access token must not be usable as a refresh token.
	payload, _ := json.Marshal(RefreshRequest{RefreshToken: loginResp.AccessToken})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_REFRESH_TOKEN", resp.Code)
}
