package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/srCredoftn/dao-dash/internal/transport/http/middleware"
	"github.com/srCredoftn/dao-dash/internal/usecase"
)

// PasswordHandler exposes the credential and profile self-service endpoints.
type PasswordHandler struct {
	auth  *usecase.AuthService
	users *usecase.UserService
	reset *usecase.PasswordResetService
}

// NewPasswordHandler constructs PasswordHandler.
func NewPasswordHandler(auth *usecase.AuthService, users *usecase.UserService, reset *usecase.PasswordResetService) *PasswordHandler {
	return &PasswordHandler{auth: auth, users: users, reset: reset}
}

// RegisterRoutes binds the password and profile routes. The reset flow is
// anonymous; change-password and profile edits require a session.
func (h *PasswordHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/forgot-password", h.forgotPassword)
	r.POST("/verify-reset-code", h.verifyResetCode)
	r.POST("/reset-password", h.resetPassword)
	r.POST("/change-password", middleware.RequireAuth(h.auth), h.changePassword)
	r.PUT("/profile", middleware.RequireAuth(h.auth), h.updateProfile)
}

func (h *PasswordHandler) forgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email is required"))
		return
	}

	if err := h.reset.Forgot(c.Request.Context(), req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "reset request failed"))
		return
	}

	// Identical response whether or not the address exists.
	c.JSON(http.StatusOK, MessageResponse{Message: "if the address exists, a reset code has been sent"})
}

func (h *PasswordHandler) verifyResetCode(c *gin.Context) {
	var req VerifyResetCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email and code are required"))
		return
	}

	if err := h.reset.VerifyCode(c.Request.Context(), req.Email, req.Code); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidResetCode, Status: http.StatusBadRequest, Message: "invalid or expired reset code"},
		}, http.StatusInternalServerError, "verification failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "code valid"})
}

func (h *PasswordHandler) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email, code, and new password are required"))
		return
	}

	if err := h.reset.Reset(c.Request.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidResetCode, Status: http.StatusBadRequest, Message: "invalid or expired reset code"},
		}, http.StatusInternalServerError, "password reset failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password updated"})
}

func (h *PasswordHandler) changePassword(c *gin.Context) {
	user, ok := middleware.AuthenticatedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "new password is required"))
		return
	}

	if err := h.users.ChangePassword(c.Request.Context(), user.ID, req.NewPassword); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "password change failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password updated"})
}

func (h *PasswordHandler) updateProfile(c *gin.Context) {
	user, ok := middleware.AuthenticatedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid profile payload"))
		return
	}

	updated, err := h.users.UpdateProfile(c.Request.Context(), user.ID, req.Name, req.Email)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
			{Err: usecase.ErrEmailTaken, Status: http.StatusConflict, Message: "email already in use"},
		}, http.StatusInternalServerError, "profile update failed")
		return
	}

	c.JSON(http.StatusOK, NewUserSummary(*updated))
}
