package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/srCredoftn/dao-dash/internal/transport/http/middleware"
	"github.com/srCredoftn/dao-dash/internal/usecase"
)

// AuthHandler exposes the login, logout, and identity endpoints.
type AuthHandler struct {
	auth *usecase.AuthService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRoutes binds authentication routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/login", h.login)
	r.POST("/logout", h.logout)
	r.GET("/me", middleware.RequireAuth(h.auth), h.me)
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email and password are required"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid email or password"},
		}, http.StatusInternalServerError, "login failed")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:                  result.Token,
		User:                   NewUserSummary(result.User),
		RequiresPasswordChange: result.RequiresPasswordChange,
	})
}

// logout deliberately skips authentication: a missing, expired, or already
// revoked token means the caller is logged out either way.
func (h *AuthHandler) logout(c *gin.Context) {
	token, _ := middleware.BearerToken(c)

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "logout failed"))
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) me(c *gin.Context) {
	user, ok := middleware.AuthenticatedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	c.JSON(http.StatusOK, NewUserSummary(user))
}
