package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/appdev-aems/portal-api/internal/models"
	"github.com/appdev-aems/portal-api/internal/service"
	"github.com/appdev-aems/portal-api/internal/session"
	appErrors "github.com/appdev-aems/portal-api/pkg/errors"
	"github.com/appdev-aems/portal-api/pkg/response"
)

// AuthHandler exposes login, registration and password reset endpoints.
type AuthHandler struct {
	auth     *service.AuthService
	sessions *session.Registry
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *service.AuthService, sessions *session.Registry) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions}
}

// Login godoc
// @Summary Authenticate and open a session
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body service.LoginRequest true "Credentials"
// @Success 200 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload"))
		return
	}
	result, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	// Student logins open a session manager so persisted state is
	// restored before the first state read.
	if result.Role == models.RoleStudent {
		if _, err := h.sessions.Login(c.Request.Context(), result.UserID); err != nil {
			response.Error(c, err)
			return
		}
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Register godoc
// @Summary Create an account
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body service.RegisterRequest true "Account details"
// @Success 201 {object} response.Envelope
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload"))
		return
	}
	result, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ForgotPassword godoc
// @Summary Start a password reset
// @Tags Auth
// @Accept json
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	if err := h.auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"status": "reset email sent"}, nil)
}

// ResetPassword godoc
// @Summary Complete a password reset
// @Tags Auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "password updated"}, nil)
}
