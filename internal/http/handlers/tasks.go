package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskcal/taskcal/internal/authz"
	"github.com/taskcal/taskcal/internal/config"
	"github.com/taskcal/taskcal/internal/domain/task"
	"github.com/taskcal/taskcal/internal/http/middlewares"
)

type TasksStore interface {
	Create(ctx context.Context, ownerID int64, req task.CreateTaskRequest) (task.Task, error)
	GetByID(ctx context.Context, id int64) (task.Task, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]task.Task, error)
	Update(ctx context.Context, id int64, req task.UpdateTaskRequest) (task.Task, error)
	Delete(ctx context.Context, id int64) error
}

type TasksHandler struct {
	repo TasksStore
}

func NewTasksHandler(repo TasksStore) *TasksHandler {
	return &TasksHandler{repo: repo}
}

// GET /api/tasks
//
// Always scoped to the caller, admins included. An admin manages
// other users through the admin endpoints, not by browsing their
// task lists.
func (h *TasksHandler) ListTasks(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	items, err := h.repo.ListByOwner(cctx, actor.ID)

	if err != nil {
		RespondInternal(ctx, "Could not list tasks")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, items)
}

// POST /api/tasks
func (h *TasksHandler) CreateTask(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req task.CreateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	created, err := h.repo.Create(cctx, actor.ID, req)

	if err != nil {
		RespondInternal(ctx, "Could not create task")
		return
	}

	ctx.JSON(http.StatusCreated, created)
}

// PUT /api/tasks/:id
func (h *TasksHandler) UpdateTask(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	// the body is validated before any storage access; only then is
	// existence reported, and ownership after that, so a caller with a
	// bad payload learns nothing about which ids exist
	var req task.UpdateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	id, ok := taskIDParam(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	existing, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}

		RespondInternal(ctx, "Could not update task")
		return
	}

	if !authz.CanMutateTask(actor, existing) {
		RespondForbidden(ctx, "You do not own this task")
		return
	}

	// The read and the write are separate statements. A concurrent
	// delete between them surfaces as a 404 here.
	updated, err := h.repo.Update(cctx, id, req)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}

		RespondInternal(ctx, "Could not update task")
		return
	}

	ctx.JSON(http.StatusOK, updated)
}

// DELETE /api/tasks/:id
func (h *TasksHandler) DeleteTask(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id, ok := taskIDParam(ctx)

	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	existing, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}

		RespondInternal(ctx, "Could not delete task")
		return
	}

	if !authz.CanMutateTask(actor, existing) {
		RespondForbidden(ctx, "You do not own this task")
		return
	}

	if err := h.repo.Delete(cctx, id); err != nil {
		if errors.Is(err, task.ErrNotFound) {
			RespondNotFound(ctx, "Task not found")
			return
		}

		RespondInternal(ctx, "Could not delete task")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// A non-numeric id cannot match any row, so it reports the same 404
// the lookup would.
func taskIDParam(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err != nil || id <= 0 {
		RespondNotFound(ctx, "Task not found")
		return 0, false
	}

	return id, true
}
