package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/srCredoftn/dao-dash/internal/core/domain"
	"github.com/srCredoftn/dao-dash/internal/transport/http/middleware"
)

// ErrorResponse represents a generic error payload with a request identifier
// for correlation.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// NewErrorResponse creates an error response bound to the current request.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	return ErrorResponse{
		Error:     errorMsg,
		RequestID: middleware.GetRequestID(c),
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserSummary is the API view of an account. Credential material never
// appears here.
type UserSummary struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"is_active"`
	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewUserSummary maps a domain user to its API view.
func NewUserSummary(user domain.User) UserSummary {
	return UserSummary{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		IsActive:  user.IsActive,
		LastLogin: user.LastLogin,
		CreatedAt: user.CreatedAt,
	}
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse describes the response returned for a successful login.
type LoginResponse struct {
	Token                  string      `json:"token"`
	User                   UserSummary `json:"user"`
	RequiresPasswordChange bool        `json:"requires_password_change"`
}

// CreateUserRequest defines the payload for account provisioning.
type CreateUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
	Role  string `json:"role" binding:"required"`
}

// CreateUserResponse returns the account plus its one-time temporary password.
type CreateUserResponse struct {
	User         UserSummary `json:"user"`
	TempPassword string      `json:"temp_password"`
}

// UpdateRoleRequest defines the payload for role changes.
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UpdateProfileRequest defines the payload for profile edits. Empty fields
// are left unchanged.
type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ChangePasswordRequest defines the payload for the change-password endpoint.
type ChangePasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required"`
}

// ForgotPasswordRequest defines the payload starting a reset flow.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// VerifyResetCodeRequest defines the payload checking a reset code.
type VerifyResetCodeRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// ResetPasswordRequest defines the payload spending a reset code.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// RegisterDossierRequest defines the payload opening a dossier.
type RegisterDossierRequest struct {
	Reference string     `json:"reference" binding:"required"`
	Title     string     `json:"title" binding:"required"`
	Authority string     `json:"authority"`
	Deadline  *time.Time `json:"deadline"`
	Tasks     []string   `json:"tasks"`
}

// UpdateDossierStatusRequest defines the payload advancing a dossier.
type UpdateDossierStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AssignRequest defines the payload linking a user to a dossier.
type AssignRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// AddTaskRequest defines the payload appending a dossier task.
type AddTaskRequest struct {
	Label string `json:"label" binding:"required"`
}

// TaskProgressRequest defines the payload reporting task completion.
type TaskProgressRequest struct {
	Completion int `json:"completion"`
}

// TaskView is the API view of a dossier task.
type TaskView struct {
	ID         string    `json:"id"`
	Label      string    `json:"label"`
	Completion int       `json:"completion"`
	AssignedTo *string   `json:"assigned_to,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DossierView is the API view of a dossier.
type DossierView struct {
	ID        string     `json:"id"`
	Reference string     `json:"reference"`
	Title     string     `json:"title"`
	Authority string     `json:"authority,omitempty"`
	Status    string     `json:"status"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Assignees []string   `json:"assignees,omitempty"`
	Tasks     []TaskView `json:"tasks,omitempty"`
}

// NewDossierView maps a domain dossier to its API view.
func NewDossierView(dossier domain.Dossier) DossierView {
	view := DossierView{
		ID:        dossier.ID,
		Reference: dossier.Reference,
		Title:     dossier.Title,
		Authority: dossier.Authority,
		Status:    string(dossier.Status),
		Deadline:  dossier.Deadline,
		CreatedBy: dossier.CreatedBy,
		CreatedAt: dossier.CreatedAt,
		UpdatedAt: dossier.UpdatedAt,
		Assignees: dossier.Assignees,
	}

	for _, task := range dossier.Tasks {
		view.Tasks = append(view.Tasks, TaskView{
			ID:         task.ID,
			Label:      task.Label,
			Completion: task.Completion,
			AssignedTo: task.AssignedTo,
			UpdatedAt:  task.UpdatedAt,
		})
	}

	return view
}

// SummaryView is the API view of aggregate dossier completion.
type SummaryView struct {
	DossierID         string `json:"dossier_id"`
	Reference         string `json:"reference"`
	Title             string `json:"title"`
	Status            string `json:"status"`
	TaskCount         int    `json:"task_count"`
	CompletedTasks    int    `json:"completed_tasks"`
	AverageCompletion int    `json:"average_completion"`
	AssigneeCount     int    `json:"assignee_count"`
}
