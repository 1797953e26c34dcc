package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/srCredoftn/dao-dash/internal/core/domain"
	"github.com/srCredoftn/dao-dash/internal/core/port"
	"github.com/srCredoftn/dao-dash/internal/transport/http/middleware"
	"github.com/srCredoftn/dao-dash/internal/usecase"
)

// UserHandler exposes administrative account management endpoints.
type UserHandler struct {
	auth  *usecase.AuthService
	users *usecase.UserService
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(auth *usecase.AuthService, users *usecase.UserService) *UserHandler {
	return &UserHandler{auth: auth, users: users}
}

// RegisterRoutes binds the admin user routes. Every route requires an
// authenticated admin.
func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/users", middleware.RequireAuth(h.auth), middleware.RequireCapability(domain.CapManageUsers))
	admin.POST("", h.create)
	admin.GET("", h.list)
	admin.GET("/:id", h.get)
	admin.PUT("/:id/role", h.updateRole)
	admin.DELETE("/:id", h.deactivate)
	admin.POST("/:id/reactivate", h.reactivate)
}

func (h *UserHandler) create(c *gin.Context) {
	actor, _ := middleware.AuthenticatedUser(c)

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "name, email, and role are required"))
		return
	}

	created, err := h.users.Create(c.Request.Context(), actor, usecase.CreateUserInput{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrEmailTaken, Status: http.StatusConflict, Message: "email already in use"},
			{Err: usecase.ErrInvalidRole, Status: http.StatusBadRequest, Message: "unknown role"},
		}, http.StatusInternalServerError, "user creation failed")
		return
	}

	c.JSON(http.StatusCreated, CreateUserResponse{
		User:         NewUserSummary(created.User),
		TempPassword: created.TempPassword,
	})
}

func (h *UserHandler) list(c *gin.Context) {
	actor, _ := middleware.AuthenticatedUser(c)

	filter := port.UserFilter{}
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.IsActive = &active
		}
	}
	if raw := c.Query("role"); raw != "" {
		role, err := domain.ParseRole(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown role"))
			return
		}
		filter.Role = role
	}
	if raw := c.Query("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil && offset > 0 {
			filter.Offset = offset
		}
	}

	users, err := h.users.List(c.Request.Context(), actor, filter)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
		}, http.StatusInternalServerError, "user listing failed")
		return
	}

	summaries := make([]UserSummary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, NewUserSummary(user))
	}

	c.JSON(http.StatusOK, gin.H{"users": summaries})
}

func (h *UserHandler) get(c *gin.Context) {
	actor, _ := middleware.AuthenticatedUser(c)

	user, err := h.users.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "user lookup failed")
		return
	}

	c.JSON(http.StatusOK, NewUserSummary(*user))
}

func (h *UserHandler) updateRole(c *gin.Context) {
	actor, _ := middleware.AuthenticatedUser(c)

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "role is required"))
		return
	}

	updated, err := h.users.UpdateRole(c.Request.Context(), actor, c.Param("id"), req.Role)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
			{Err: usecase.ErrInvalidRole, Status: http.StatusBadRequest, Message: "unknown role"},
		}, http.StatusInternalServerError, "role update failed")
		return
	}

	c.JSON(http.StatusOK, NewUserSummary(*updated))
}

func (h *UserHandler) deactivate(c *gin.Context) {
	actor, _ := middleware.AuthenticatedUser(c)

	err := h.users.Deactivate(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
			{Err: usecase.ErrSelfDeactivation, Status: http.StatusConflict, Message: "cannot deactivate own account"},
		}, http.StatusInternalServerError, "deactivation failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "user deactivated"})
}

func (h *UserHandler) reactivate(c *gin.Context) {
	actor, _ := middleware.AuthenticatedUser(c)

	err := h.users.Reactivate(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "reactivation failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "user reactivated"})
}
