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

// DossierHandler exposes the dossier management endpoints.
type DossierHandler struct {
	auth     *usecase.AuthService
	dossiers *usecase.DossierService
}

// NewDossierHandler constructs DossierHandler.
func NewDossierHandler(auth *usecase.AuthService, dossiers *usecase.DossierService) *DossierHandler {
	return &DossierHandler{auth: auth, dossiers: dossiers}
}

// RegisterRoutes binds the dossier routes. Capability checks happen in the
// service layer, so the group only requires authentication.
func (h *DossierHandler) RegisterRoutes(r *gin.RouterGroup) {
	grp := r.Group("/dossiers", middleware.RequireAuth(h.auth))
	grp.POST("", h.register)
	grp.GET("", h.list)
	grp.GET("/:id", h.get)
	grp.GET("/:id/summary", h.summary)
	grp.PUT("/:id/status", h.updateStatus)
	grp.POST("/:id/assignees", h.assign)
	grp.DELETE("/:id/assignees/:userID", h.unassign)
	grp.POST("/:id/tasks", h.addTask)
	grp.PUT("/:id/tasks/:taskID/progress", h.taskProgress)
}

func (h *DossierHandler) register(c *gin.Context) {
	actor, _ := middleware.AuthenticatedUser(c)

	var req RegisterDossierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "reference and title are required"))
		return
	}

	dossier, err := h.dossiers.Register(c.Request.Context(), actor, usecase.RegisterDossierInput{
		Reference: req.Reference,
		Title:     req.Title,
		Authority: req.Authority,
		Deadline:  req.Deadline,
		Tasks:     req.Tasks,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrReferenceTaken, Status: http.StatusConflict, Message: "reference already in use"},
		}, http.StatusInternalServerError, "dossier registration failed")
		return
	}

	c.JSON(http.StatusCreated, NewDossierView(*dossier))
}

func (h *DossierHandler) list(c *gin.Context) {
	actor, _ := middleware.AuthenticatedUser(c)

	filter := port.DossierFilter{
		AssignedTo: c.Query("assigned_to"),
	}
	if raw := c.Query("status"); raw != "" {
		filter.Status = domain.DossierStatus(raw)
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

	dossiers, err := h.dossiers.List(c.Request.Context(), actor, filter)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
		}, http.StatusInternalServerError, "dossier listing failed")
		return
	}

	views := make([]DossierView, 0, len(dossiers))
	for _, dossier := range dossiers {
		views = append(views, NewDossierView(dossier))
	}

	c.JSON(http.StatusOK, gin.H{"dossiers": views})
}

func (h *DossierHandler) get(c *gin.Context) {
	actor, _ := middleware.AuthenticatedUser(c)

	dossier, err := h.dossiers.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrDossierNotFound, Status: http.StatusNotFound, Message: "dossier not found"},
		}, http.StatusInternalServerError, "dossier lookup failed")
		return
	}

	c.JSON(http.StatusOK, NewDossierView(*dossier))
}

func (h *DossierHandler) summary(c *gin.Context) {
	actor, _ := middleware.AuthenticatedUser(c)

	summary, err := h.dossiers.Summary(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrDossierNotFound, Status: http.StatusNotFound, Message: "dossier not found"},
		}, http.StatusInternalServerError, "summary failed")
		return
	}

	c.JSON(http.StatusOK, SummaryView{
		DossierID:         summary.DossierID,
		Reference:         summary.Reference,
		Title:             summary.Title,
		Status:            string(summary.Status),
		TaskCount:         summary.TaskCount,
		CompletedTasks:    summary.CompletedTasks,
		AverageCompletion: summary.AverageCompletion,
		AssigneeCount:     summary.AssigneeCount,
	})
}

func (h *DossierHandler) updateStatus(c *gin.Context) {
	actor, _ := middleware.AuthenticatedUser(c)

	var req UpdateDossierStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "status is required"))
		return
	}

	err := h.dossiers.UpdateStatus(c.Request.Context(), actor, c.Param("id"), domain.DossierStatus(req.Status))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrDossierNotFound, Status: http.StatusNotFound, Message: "dossier not found"},
		}, http.StatusBadRequest, "status update failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "status updated"})
}

func (h *DossierHandler) assign(c *gin.Context) {
	actor, _ := middleware.AuthenticatedUser(c)

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "user_id is required"))
		return
	}

	err := h.dossiers.Assign(c.Request.Context(), actor, c.Param("id"), req.UserID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrDossierNotFound, Status: http.StatusNotFound, Message: "dossier not found"},
			{Err: usecase.ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
		}, http.StatusInternalServerError, "assignment failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "assignee added"})
}

func (h *DossierHandler) unassign(c *gin.Context) {
	actor, _ := middleware.AuthenticatedUser(c)

	err := h.dossiers.Unassign(c.Request.Context(), actor, c.Param("id"), c.Param("userID"))
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrDossierNotFound, Status: http.StatusNotFound, Message: "dossier not found"},
		}, http.StatusInternalServerError, "unassignment failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "assignee removed"})
}

func (h *DossierHandler) addTask(c *gin.Context) {
	actor, _ := middleware.AuthenticatedUser(c)

	var req AddTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "label is required"))
		return
	}

	task, err := h.dossiers.AddTask(c.Request.Context(), actor, c.Param("id"), req.Label)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrDossierNotFound, Status: http.StatusNotFound, Message: "dossier not found"},
		}, http.StatusInternalServerError, "task creation failed")
		return
	}

	c.JSON(http.StatusCreated, TaskView{
		ID:         task.ID,
		Label:      task.Label,
		Completion: task.Completion,
		AssignedTo: task.AssignedTo,
		UpdatedAt:  task.UpdatedAt,
	})
}

func (h *DossierHandler) taskProgress(c *gin.Context) {
	actor, _ := middleware.AuthenticatedUser(c)

	var req TaskProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "completion is required"))
		return
	}

	err := h.dossiers.UpdateTaskProgress(c.Request.Context(), actor, c.Param("id"), c.Param("taskID"), req.Completion)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
			{Err: usecase.ErrDossierNotFound, Status: http.StatusNotFound, Message: "dossier not found"},
			{Err: usecase.ErrTaskNotFound, Status: http.StatusNotFound, Message: "task not found"},
		}, http.StatusInternalServerError, "progress update failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "progress recorded"})
}
