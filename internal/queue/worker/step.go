package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/taskcal/taskcal/internal/domain/job"
	"github.com/taskcal/taskcal/internal/domain/share"
	"github.com/taskcal/taskcal/internal/domain/user"
	"github.com/taskcal/taskcal/internal/jobs"
	"github.com/taskcal/taskcal/internal/notifications"
)

// ProcessOne claims and processes a single job. The bool reports
// whether a job was claimed; false with a nil error means the queue
// was empty.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	j, err := w.repo.ClaimNext(ctx, w.cfg.WorkerID)

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("claim next job: %w", err)
	}

	w.metrics.IncClaimed()

	if w.cfg.Prom != nil {
		w.cfg.Prom.JobsInFlight.Inc()
	}

	start := time.Now()
	procErr := w.process(ctx, j)
	elapsed := time.Since(start)
	w.metrics.ObserveDuration(elapsed)

	if w.cfg.Prom != nil {
		w.cfg.Prom.JobsInFlight.Dec()
		w.cfg.Prom.JobDuration.WithLabelValues(j.Type, jobResult(j, procErr)).Observe(elapsed.Seconds())
		w.cfg.Prom.JobResults.WithLabelValues(j.Type, jobResult(j, procErr)).Inc()
	}

	if procErr == nil {
		if err := w.repo.MarkDone(ctx, j.ID); err != nil {
			return true, fmt.Errorf("mark job %s done: %w", j.ID, err)
		}

		w.metrics.IncDone()
		w.log.Info("job done", "job_id", j.ID, "type", j.Type, "attempt", j.Attempts)

		return true, nil
	}

	return true, w.handleFailure(ctx, j, procErr)
}

func (w *Worker) process(ctx context.Context, j job.Job) error {
	switch jobs.JobType(j.Type) {
	case jobs.JobShareNotification:
		return w.processShareNotification(ctx, j)
	default:
		// unknown types never succeed on retry
		return fmt.Errorf("%w: %q", jobs.ErrInvalidJobType, j.Type)
	}
}

func (w *Worker) processShareNotification(ctx context.Context, j job.Job) error {
	decoded, err := jobs.DecodePayload(jobs.JobShareNotification, j.Payload)

	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}

	p := decoded.(jobs.ShareNotificationPayload)

	rec, err := w.shares.GetByID(ctx, p.ShareID)

	if err != nil {
		if errors.Is(err, share.ErrNotFound) {
			// share row deleted after enqueue, nothing to send
			w.log.Warn("share vanished before notify", "job_id", j.ID, "share_id", p.ShareID)
			return nil
		}

		return fmt.Errorf("load share %d: %w", p.ShareID, err)
	}

	sender, err := w.users.GetByID(ctx, p.UserID)

	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			w.log.Warn("sender vanished before notify", "job_id", j.ID, "user_id", p.UserID)
			return nil
		}

		return fmt.Errorf("load sender %d: %w", p.UserID, err)
	}

	tasks, err := w.tasks.ListByOwner(ctx, sender.ID)

	if err != nil {
		return fmt.Errorf("list tasks for %d: %w", sender.ID, err)
	}

	if w.ledger != nil {
		err := w.ledger.TryStart(ctx, j.ID, rec.ID, rec.ToEmail)

		if errors.Is(err, notifications.ErrAlreadySent) {
			w.log.Info("share already delivered, skipping", "job_id", j.ID, "share_id", rec.ID)
			return nil
		}

		if err != nil {
			return fmt.Errorf("claim delivery for share %d: %w", rec.ID, err)
		}
	}

	input := notifications.ShareSummaryInput{
		ShareID:      rec.ID,
		ToEmail:      rec.ToEmail,
		FromUsername: sender.Username,
		Message:      rec.Message,
		Tasks:        tasks,
	}

	if err := w.notifier.SendShareSummary(ctx, input); err != nil {
		if w.cfg.Prom != nil {
			w.cfg.Prom.ShareEmailsTotal.WithLabelValues("failed").Inc()
		}

		if w.ledger != nil {
			if lerr := w.ledger.MarkFailed(ctx, rec.ID, err.Error()); lerr != nil {
				w.log.Error("delivery ledger update failed", "share_id", rec.ID, "err", lerr)
			}
		}

		return fmt.Errorf("send share summary: %w", err)
	}

	if w.cfg.Prom != nil {
		w.cfg.Prom.ShareEmailsTotal.WithLabelValues("sent").Inc()
	}

	if w.ledger != nil {
		if err := w.ledger.MarkSent(ctx, rec.ID, nil); err != nil {
			w.log.Error("delivery ledger update failed", "share_id", rec.ID, "err", err)
		}
	}

	return nil
}

func (w *Worker) handleFailure(ctx context.Context, j job.Job, procErr error) error {
	// payload and type errors are permanent, retrying cannot help
	permanent := errors.Is(procErr, jobs.ErrInvalidJobType) ||
		errors.Is(procErr, jobs.ErrInvalidJobPayload)

	if permanent || j.Attempts >= j.MaxAttempts {
		if err := w.repo.MarkFailed(ctx, j.ID, procErr.Error()); err != nil {
			return fmt.Errorf("mark job %s failed: %w", j.ID, err)
		}

		w.metrics.IncFailed()
		w.metrics.IncDeadLettered()
		w.log.Error("job dead-lettered",
			"job_id", j.ID,
			"type", j.Type,
			"attempt", j.Attempts,
			"err", procErr,
		)

		return nil
	}

	runAt := time.Now().Add(ExponentialBackoff(j.Attempts))

	if err := w.repo.Reschedule(ctx, j.ID, runAt, procErr.Error()); err != nil {
		return fmt.Errorf("reschedule job %s: %w", j.ID, err)
	}

	w.metrics.IncRetried()
	w.log.Warn("job rescheduled",
		"job_id", j.ID,
		"type", j.Type,
		"attempt", j.Attempts,
		"run_at", runAt,
		"err", procErr,
	)

	return nil
}

func jobResult(j job.Job, procErr error) string {
	if procErr == nil {
		return "done"
	}

	permanent := errors.Is(procErr, jobs.ErrInvalidJobType) ||
		errors.Is(procErr, jobs.ErrInvalidJobPayload)

	if permanent || j.Attempts >= j.MaxAttempts {
		return "failed"
	}

	return "retry"
}
