package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskcal/taskcal/internal/config"
	"github.com/taskcal/taskcal/internal/domain/share"
	"github.com/taskcal/taskcal/internal/http/middlewares"
	"github.com/taskcal/taskcal/internal/observability"
)

type SharesStore interface {
	Create(ctx context.Context, fromUserID int64, toEmail, message string) (share.ShareRecord, error)
	ListByUser(ctx context.Context, userID int64) ([]share.ShareRecord, error)
}

type Enqueuer interface {
	EnqueueShareNotification(ctx context.Context, shareID, userID int64) error
}

type ShareHandler struct {
	repo     SharesStore
	enqueuer Enqueuer
	prom     *observability.Prom
}

func NewShareHandler(repo SharesStore, enqueuer Enqueuer, prom *observability.Prom) *ShareHandler {
	return &ShareHandler{repo: repo, enqueuer: enqueuer, prom: prom}
}

// POST /api/share
//
// The share record is the durable fact; the email is a best-effort
// side effect. Enqueue failures are logged and never surfaced to the
// caller.
func (h *ShareHandler) Share(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	var req share.CreateShareRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	rec, err := h.repo.Create(cctx, actor.ID, req.Email, req.Message)

	if err != nil {
		RespondInternal(ctx, "Could not share schedule")
		return
	}

	if h.prom != nil {
		h.prom.SharesCreated.Inc()
	}

	if h.enqueuer != nil {
		if err := h.enqueuer.EnqueueShareNotification(ctx.Request.Context(), rec.ID, actor.ID); err != nil {
			slog.Default().WarnContext(ctx.Request.Context(), "share notification enqueue failed",
				"share_id", rec.ID,
				"err", err,
			)
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"shareId": rec.ID})
}

// GET /api/shared
func (h *ShareHandler) ListShared(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)

	if !ok {
		RespondUnAuthorized(ctx, "unauthorized", "Missing identity")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	items, err := h.repo.ListByUser(cctx, actor.ID)

	if err != nil {
		RespondInternal(ctx, "Could not list shares")
		return
	}

	ctx.JSON(http.StatusOK, items)
}
