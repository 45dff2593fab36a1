// Package queue connects the request path to the background worker:
// jobs are durable rows in Postgres, redis only carries the wake-up.
package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/taskcal/taskcal/internal/actorctx"
	"github.com/taskcal/taskcal/internal/domain/job"
	"github.com/taskcal/taskcal/internal/jobs"
	"github.com/taskcal/taskcal/internal/queue/redisclient"
)

type JobsCreator interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

type Producer struct {
	jobs JobsCreator
	wake *redisclient.Client
	log  *slog.Logger
}

func NewProducer(jobsRepo JobsCreator, wake *redisclient.Client, log *slog.Logger) *Producer {
	return &Producer{jobs: jobsRepo, wake: wake, log: log}
}

// EnqueueShareNotification records a delivery job for the share. The
// redis ping after the insert is best-effort; the worker polls anyway.
func (p *Producer) EnqueueShareNotification(ctx context.Context, shareID, userID int64) error {
	payload, err := jobs.EncodePayload(jobs.JobShareNotification, jobs.ShareNotificationPayload{
		ShareID: shareID,
		UserID:  userID,
	})

	if err != nil {
		return err
	}

	created, err := p.jobs.Create(ctx, job.CreateRequest{
		Type:    string(jobs.JobShareNotification),
		Payload: payload,
	})

	if err != nil {
		return err
	}

	if actor, ok := actorctx.UserIDFrom(ctx); ok {
		p.log.Info("share notification enqueued",
			"job_id", created.ID, "share_id", shareID, "actor_id", actor)
	} else {
		p.log.Info("share notification enqueued",
			"job_id", created.ID, "share_id", shareID)
	}

	if p.wake != nil {
		wakeCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := p.wake.Wake(wakeCtx); err != nil {
			p.log.Warn("worker wake signal failed", "err", err)
		}
	}

	return nil
}
