package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskcal/taskcal/internal/authz"
	"github.com/taskcal/taskcal/internal/cache"
	"github.com/taskcal/taskcal/internal/config"
	"github.com/taskcal/taskcal/internal/domain/user"
	"github.com/taskcal/taskcal/internal/http/middlewares"
)

type AdminUsersStore interface {
	List(ctx context.Context) ([]user.User, error)
	UpdateRole(ctx context.Context, id int64, role string) error
	DeleteCascade(ctx context.Context, id int64) error
	CountAll(ctx context.Context) (int, error)
}

type TasksCounter interface {
	CountAll(ctx context.Context) (int, error)
}

type SharesCounter interface {
	CountAll(ctx context.Context) (int, error)
}

type AdminHandler struct {
	users  AdminUsersStore
	tasks  TasksCounter
	shares SharesCounter

	statsCache *cache.Cache
}

const statsCacheKey = "admin_stats"

func NewAdminHandler(users AdminUsersStore, tasks TasksCounter, shares SharesCounter) *AdminHandler {
	return &AdminHandler{
		users:      users,
		tasks:      tasks,
		shares:     shares,
		statsCache: cache.New(5 * time.Second),
	}
}

type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user admin"`
}

type StatsResponse struct {
	TotalUsers  int `json:"totalUsers"`
	TotalTasks  int `json:"totalTasks"`
	TotalShares int `json:"totalShares"`
}

// GET /api/admin/users
func (h *AdminHandler) ListUsers(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	items, err := h.users.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	ctx.JSON(http.StatusOK, items)
}

// PUT /api/admin/users/:id/role
func (h *AdminHandler) UpdateRole(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req UpdateRoleRequest

	if !BindJSON(ctx, &req) {
		return
	}

	id, ok := userIDParam(ctx)

	if !ok {
		return
	}

	if err := authz.CanChangeRole(actor, id); err != nil {
		if errors.Is(err, authz.ErrSelfAction) {
			RespondBadRequest(ctx, "self_role_change", "You cannot change your own role.", nil)
			return
		}

		RespondForbidden(ctx, "Admin role required")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	if err := h.users.UpdateRole(cctx, id, req.Role); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not update role")
		return
	}

	h.statsCache.Delete(statsCacheKey)

	ctx.JSON(http.StatusOK, gin.H{"message": "Role updated"})
}

// DELETE /api/admin/users/:id
func (h *AdminHandler) DeleteUser(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	id, ok := userIDParam(ctx)

	if !ok {
		return
	}

	if err := authz.CanDeleteUser(actor, id); err != nil {
		if errors.Is(err, authz.ErrSelfAction) {
			RespondBadRequest(ctx, "self_delete", "You cannot delete your own account.", nil)
			return
		}

		RespondForbidden(ctx, "Admin role required")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.users.DeleteCascade(cctx, id); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}

		RespondInternal(ctx, "Could not delete user")
		return
	}

	h.statsCache.Delete(statsCacheKey)

	ctx.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

// GET /api/admin/stats
func (h *AdminHandler) Stats(ctx *gin.Context) {
	if cached, ok := h.statsCache.Get(statsCacheKey); ok {
		if stats, ok := cached.(StatsResponse); ok {
			ctx.JSON(http.StatusOK, stats)
			return
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	totalUsers, err := h.users.CountAll(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not load stats")
		return
	}

	totalTasks, err := h.tasks.CountAll(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not load stats")
		return
	}

	totalShares, err := h.shares.CountAll(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not load stats")
		return
	}

	stats := StatsResponse{
		TotalUsers:  totalUsers,
		TotalTasks:  totalTasks,
		TotalShares: totalShares,
	}

	h.statsCache.Set(statsCacheKey, stats)

	ctx.JSON(http.StatusOK, stats)
}

// Same treatment as taskIDParam: a non-numeric id matches no row.
func userIDParam(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)

	if err != nil || id <= 0 {
		RespondNotFound(ctx, "User not found")
		return 0, false
	}

	return id, true
}
