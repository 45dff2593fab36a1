package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/taskcal/taskcal/internal/domain/job"
	"github.com/taskcal/taskcal/internal/domain/share"
	"github.com/taskcal/taskcal/internal/domain/task"
	"github.com/taskcal/taskcal/internal/domain/user"
	"github.com/taskcal/taskcal/internal/notifications"
	"github.com/taskcal/taskcal/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
}

type ShareReader interface {
	GetByID(ctx context.Context, id int64) (share.ShareRecord, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

type TaskLister interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]task.Task, error)
}

// Waker lets the loop sleep until the API signals a fresh job. Nil is
// fine; the loop then falls back to pure polling.
type Waker interface {
	WaitWake(ctx context.Context, timeout time.Duration) (bool, error)
}

// DeliveryLedger tracks which shares already had their email sent, so
// a retried job does not send twice. Nil disables the check.
type DeliveryLedger interface {
	TryStart(ctx context.Context, jobID string, shareID int64, recipient string) error
	MarkSent(ctx context.Context, shareID int64, providerMessageID *string) error
	MarkFailed(ctx context.Context, shareID int64, errMsg string) error
}

type Config struct {
	PollInterval  time.Duration
	WorkerID      string
	Concurrency   int
	ShutdownGrace time.Duration

	// Prom is optional; nil skips the Prometheus counters and keeps
	// only the in-process JobMetrics.
	Prom *observability.Prom
}

type Worker struct {
	cfg      Config
	repo     JobsRepository
	shares   ShareReader
	users    UserReader
	tasks    TaskLister
	notifier notifications.Notifier
	ledger   DeliveryLedger
	waker    Waker
	metrics  *observability.JobMetrics
	log      *slog.Logger

	readyMu sync.RWMutex
	ready   bool
}

func New(
	cfg Config,
	repo JobsRepository,
	shares ShareReader,
	users UserReader,
	tasks TaskLister,
	notifier notifications.Notifier,
	ledger DeliveryLedger,
	waker Waker,
	log *slog.Logger,
) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}

	return &Worker{
		cfg:      cfg,
		repo:     repo,
		shares:   shares,
		users:    users,
		tasks:    tasks,
		notifier: notifier,
		ledger:   ledger,
		waker:    waker,
		metrics:  observability.NewJobMetrics(),
		log:      log,
	}
}

func (w *Worker) Metrics() *observability.JobMetrics {
	return w.metrics
}

func (w *Worker) Ready() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()

	return w.ready
}

// Run drives Concurrency claim loops until ctx is cancelled, then
// waits up to ShutdownGrace for in-flight jobs.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	var wg sync.WaitGroup

	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}

	<-ctx.Done()
	w.setReady(false)

	done := make(chan struct{})

	go func() {
		defer close(done)
		wg.Wait()
	}()

	grace := w.cfg.ShutdownGrace

	if grace <= 0 {
		grace = 10 * time.Second
	}

	select {
	case <-done:
		return nil
	case <-time.After(grace):
		w.log.Error("worker shutdown grace exceeded")
		return nil
	}
}

func (w *Worker) loop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		processed, err := w.ProcessOne(ctx)

		if err != nil && ctx.Err() == nil {
			w.log.Error("job processing error", "err", err)
		}

		if processed {
			// drain the queue before sleeping
			continue
		}

		w.idle(ctx)
	}
}

func (w *Worker) idle(ctx context.Context) {
	if w.waker != nil {
		woke, err := w.waker.WaitWake(ctx, w.cfg.PollInterval)

		if err == nil && woke {
			return
		}

		if err != nil && ctx.Err() == nil {
			w.log.Warn("wake wait failed, falling back to polling", "err", err)
		} else if err == nil {
			return // timed out, poll once
		}
	}

	select {
	case <-ctx.Done():
	case <-time.After(w.cfg.PollInterval):
	}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}
