// Package handler provides the HTTP handlers of the tasks feature.
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	"task_backend/internal/api"
	"task_backend/internal/feature/tasks/domain/entity"
	"task_backend/internal/feature/tasks/transport/http/dto"
	"task_backend/internal/feature/tasks/usecase"
	jwtmw "task_backend/internal/platform/jwt"
	"task_backend/internal/shared/apperr"
)

// TaskUsecase defines the task operations used by the handlers.
// Following Go convention: interfaces are defined by the consumer (handler), not the provider (usecase).
type TaskUsecase interface {
	Create(ctx context.Context, owner, description string, completed bool) (*entity.Task, error)
	List(ctx context.Context, owner string, params usecase.ListParams) ([]entity.Task, error)
	Get(ctx context.Context, owner, id string) (*entity.Task, error)
	Update(ctx context.Context, owner, id string, patch usecase.TaskPatch) (*entity.Task, error)
	Delete(ctx context.Context, owner, id string) (*entity.Task, error)
}

// TaskHandler handles the /tasks endpoints. Every operation is scoped to the
// authenticated user.
type TaskHandler struct {
	tasks TaskUsecase
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(tasks TaskUsecase) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var req dto.CreateTaskReq
	if err := c.ShouldBindJSON(&req); err != nil {
		api.Abort(c, http.StatusBadRequest, api.MsgInvalidBody)
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), owner, req.Description, req.Completed)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task.View())
}

// List handles GET /tasks?completed=&limit=&skip=&sortBy=field:asc|desc.
func (h *TaskHandler) List(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	params, err := bindListParams(c)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	tasks, err := h.tasks.List(c.Request.Context(), owner, usecase.ListParams{
		Completed: params.Completed,
		Limit:     params.Limit,
		Skip:      params.Skip,
		SortBy:    params.SortBy,
	})
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.Views(tasks))
}

// Get handles GET /tasks/:id.
func (h *TaskHandler) Get(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task.View())
}

// Update handles PATCH /tasks/:id. Only description and completed may be sent.
func (h *TaskHandler) Update(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	var req dto.UpdateTaskReq
	if err := api.BindPatch(c, dto.UpdatableTaskFields, &req); err != nil {
		api.RespondError(c, err)
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), owner, c.Param("id"), usecase.TaskPatch{
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task.View())
}

// Delete handles DELETE /tasks/:id and returns the removed task.
func (h *TaskHandler) Delete(c *gin.Context) {
	owner, ok := ownerID(c)
	if !ok {
		return
	}

	task, err := h.tasks.Delete(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task.View())
}

func bindListParams(c *gin.Context) (dto.ListTasksParams, error) {
	var p dto.ListTasksParams
	query := c.Request.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "completed", query, &p.Completed); err != nil {
		return p, apperr.Validation("invalid format for parameter completed")
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", query, &p.Limit); err != nil {
		return p, apperr.Validation("limit must be an integer")
	}
	if err := runtime.BindQueryParameter("form", true, false, "skip", query, &p.Skip); err != nil {
		return p, apperr.Validation("skip must be an integer")
	}
	if err := runtime.BindQueryParameter("form", true, false, "sortBy", query, &p.SortBy); err != nil {
		return p, apperr.Validation("invalid format for parameter sortBy")
	}
	return p, nil
}

func ownerID(c *gin.Context) (string, bool) {
	user, ok := jwtmw.CurrentUser(c)
	if !ok {
		api.Abort(c, http.StatusUnauthorized, "please authenticate")
		return "", false
	}
	return user.ID, true
}
