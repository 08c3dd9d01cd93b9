package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/rollbook/internal/middleware"
	"github.com/stemsi/rollbook/internal/model"
	"github.com/stemsi/rollbook/internal/response"
	"github.com/stemsi/rollbook/internal/service"
	"github.com/stemsi/rollbook/internal/validator"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	log         zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		log:         log.With().Str("component", "auth_handler").Logger(),
	}
}

// Login godoc
// POST /api/v1/auth/login
// Signs in with email + password and returns a JWT. A previous session of
// the same teacher is replaced.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.log.Warn().Err(err).Str("email", req.Email).Msg("Login failed")
		fail(c, err)
		return
	}

	h.log.Info().Str("uid", result.Teacher.UID).Msg("Teacher signed in")
	response.Success(c, http.StatusOK, result)
}

// Google godoc
// POST /api/v1/auth/google
// Exchanges a Google/Firebase ID token for a JWT.
func (h *AuthHandler) Google(c *gin.Context) {
	var req model.GoogleLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.authService.LoginWithIDToken(c.Request.Context(), req.IDToken)
	if err != nil {
		h.log.Warn().Err(err).Msg("Google sign-in failed")
		fail(c, err)
		return
	}

	h.log.Info().Str("uid", result.Teacher.UID).Msg("Teacher signed in with Google")
	response.Success(c, http.StatusOK, result)
}

// Logout godoc
// POST /api/v1/auth/logout
// Ends the current teacher's session.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims.Subject); err != nil {
		fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the profile of the currently authenticated teacher.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"teacher": gin.H{
			"uid":          claims.Subject,
			"email":        claims.Email,
			"display_name": claims.Name,
		},
		"expires_at": claims.ExpiresAt.Time,
	})
}
