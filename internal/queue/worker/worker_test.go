package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/taskcal/taskcal/internal/domain/job"
	"github.com/taskcal/taskcal/internal/domain/share"
	"github.com/taskcal/taskcal/internal/domain/task"
	"github.com/taskcal/taskcal/internal/domain/user"
	"github.com/taskcal/taskcal/internal/jobs"
	"github.com/taskcal/taskcal/internal/notifications"
)

type fakeJobsRepo struct {
	queue []job.Job

	doneIDs     []string
	failedIDs   []string
	failedErrs  []string
	rescheduled []string
	runAts      []time.Time
}

func (f *fakeJobsRepo) ClaimNext(ctx context.Context, workerID string) (job.Job, error) {
	if len(f.queue) == 0 {
		return job.Job{}, job.ErrJobNotFound
	}

	j := f.queue[0]
	f.queue = f.queue[1:]
	j.Attempts++
	j.Status = job.StatusProcessing

	return j, nil
}

func (f *fakeJobsRepo) MarkDone(ctx context.Context, id string) error {
	f.doneIDs = append(f.doneIDs, id)
	return nil
}

func (f *fakeJobsRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	f.failedIDs = append(f.failedIDs, id)
	f.failedErrs = append(f.failedErrs, errMsg)
	return nil
}

func (f *fakeJobsRepo) Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error {
	f.rescheduled = append(f.rescheduled, id)
	f.runAts = append(f.runAts, runAt)
	return nil
}

type fakeShareReader struct {
	shares map[int64]share.ShareRecord
}

func (f *fakeShareReader) GetByID(ctx context.Context, id int64) (share.ShareRecord, error) {
	rec, ok := f.shares[id]
	if !ok {
		return share.ShareRecord{}, share.ErrNotFound
	}
	return rec, nil
}

type fakeUserReader struct {
	users map[int64]user.User
}

func (f *fakeUserReader) GetByID(ctx context.Context, id int64) (user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

type fakeTaskLister struct {
	tasks []task.Task
	err   error
}

func (f *fakeTaskLister) ListByOwner(ctx context.Context, ownerID int64) ([]task.Task, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tasks, nil
}

type fakeNotifier struct {
	sent []notifications.ShareSummaryInput
	err  error
}

func (f *fakeNotifier) SendShareSummary(ctx context.Context, in notifications.ShareSummaryInput) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, in)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func shareJob(t *testing.T, id string, shareID, userID int64, attempts, maxAttempts int) job.Job {
	t.Helper()

	payload, err := jobs.EncodePayload(jobs.JobShareNotification, jobs.ShareNotificationPayload{
		ShareID: shareID,
		UserID:  userID,
	})
	if err != nil {
		t.Fatalf("encode payload: %v", err)
	}

	return job.Job{
		ID:          id,
		Type:        string(jobs.JobShareNotification),
		Payload:     payload,
		Status:      job.StatusPending,
		Attempts:    attempts,
		MaxAttempts: maxAttempts,
	}
}

func newTestWorker(repo *fakeJobsRepo, shares *fakeShareReader, users *fakeUserReader, tasks *fakeTaskLister, n *fakeNotifier) *Worker {
	return New(Config{WorkerID: "test-worker"}, repo, shares, users, tasks, n, nil, nil, testLogger())
}

func TestProcessOneSuccess(t *testing.T) {
	repo := &fakeJobsRepo{queue: []job.Job{shareJob(t, "j1", 7, 3, 0, 5)}}
	shares := &fakeShareReader{shares: map[int64]share.ShareRecord{
		7: {ID: 7, FromUserID: 3, ToEmail: "friend@example.com", Message: "my week"},
	}}
	users := &fakeUserReader{users: map[int64]user.User{
		3: {ID: 3, Username: "alice", Email: "alice@example.com", Role: user.RoleUser},
	}}
	taskList := &fakeTaskLister{tasks: []task.Task{
		{ID: 1, OwnerID: 3, Title: "standup", Date: "2026-09-01", Time: "09:00"},
	}}
	notifier := &fakeNotifier{}

	w := newTestWorker(repo, shares, users, taskList, notifier)

	processed, err := w.ProcessOne(context.Background())

	if err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}

	if !processed {
		t.Fatal("expected a job to be processed")
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.sent))
	}

	sent := notifier.sent[0]

	if sent.ToEmail != "friend@example.com" || sent.FromUsername != "alice" {
		t.Fatalf("unexpected notification: %+v", sent)
	}

	if len(sent.Tasks) != 1 {
		t.Fatalf("expected 1 task in summary, got %d", len(sent.Tasks))
	}

	if len(repo.doneIDs) != 1 || repo.doneIDs[0] != "j1" {
		t.Fatalf("expected j1 marked done, got %v", repo.doneIDs)
	}

	snap := w.Metrics().Snapshot()

	if snap.Claimed != 1 || snap.Done != 1 {
		t.Fatalf("unexpected metrics: %+v", snap)
	}
}

func TestProcessOneEmptyQueue(t *testing.T) {
	repo := &fakeJobsRepo{}
	w := newTestWorker(repo, &fakeShareReader{}, &fakeUserReader{}, &fakeTaskLister{}, &fakeNotifier{})

	processed, err := w.ProcessOne(context.Background())

	if err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}

	if processed {
		t.Fatal("expected no job on empty queue")
	}
}

func TestProcessOneRetriesOnNotifierError(t *testing.T) {
	repo := &fakeJobsRepo{queue: []job.Job{shareJob(t, "j1", 7, 3, 0, 5)}}
	shares := &fakeShareReader{shares: map[int64]share.ShareRecord{
		7: {ID: 7, FromUserID: 3, ToEmail: "friend@example.com"},
	}}
	users := &fakeUserReader{users: map[int64]user.User{
		3: {ID: 3, Username: "alice", Role: user.RoleUser},
	}}
	notifier := &fakeNotifier{err: errors.New("smtp down")}

	w := newTestWorker(repo, shares, users, &fakeTaskLister{}, notifier)

	processed, err := w.ProcessOne(context.Background())

	if err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}

	if !processed {
		t.Fatal("expected a job to be claimed")
	}

	if len(repo.rescheduled) != 1 || repo.rescheduled[0] != "j1" {
		t.Fatalf("expected j1 rescheduled, got %v", repo.rescheduled)
	}

	if len(repo.failedIDs) != 0 {
		t.Fatalf("did not expect dead-letter, got %v", repo.failedIDs)
	}

	if !repo.runAts[0].After(time.Now()) {
		t.Fatalf("expected run_at in the future, got %v", repo.runAts[0])
	}

	snap := w.Metrics().Snapshot()

	if snap.Retried != 1 {
		t.Fatalf("unexpected metrics: %+v", snap)
	}
}

func TestProcessOneDeadLettersAtMaxAttempts(t *testing.T) {
	// attempts starts at 4, the claim bumps it to max
	repo := &fakeJobsRepo{queue: []job.Job{shareJob(t, "j1", 7, 3, 4, 5)}}
	shares := &fakeShareReader{shares: map[int64]share.ShareRecord{
		7: {ID: 7, FromUserID: 3, ToEmail: "friend@example.com"},
	}}
	users := &fakeUserReader{users: map[int64]user.User{
		3: {ID: 3, Username: "alice", Role: user.RoleUser},
	}}
	notifier := &fakeNotifier{err: errors.New("smtp down")}

	w := newTestWorker(repo, shares, users, &fakeTaskLister{}, notifier)

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}

	if len(repo.failedIDs) != 1 || repo.failedIDs[0] != "j1" {
		t.Fatalf("expected j1 dead-lettered, got %v", repo.failedIDs)
	}

	if len(repo.rescheduled) != 0 {
		t.Fatalf("did not expect reschedule, got %v", repo.rescheduled)
	}

	snap := w.Metrics().Snapshot()

	if snap.Failed != 1 || snap.DeadLettered != 1 {
		t.Fatalf("unexpected metrics: %+v", snap)
	}
}

func TestProcessOneDeadLettersBadPayload(t *testing.T) {
	bad := job.Job{
		ID:          "j1",
		Type:        string(jobs.JobShareNotification),
		Payload:     []byte(`{"shareId":0,"userId":0}`),
		Status:      job.StatusPending,
		MaxAttempts: 5,
	}
	repo := &fakeJobsRepo{queue: []job.Job{bad}}

	w := newTestWorker(repo, &fakeShareReader{}, &fakeUserReader{}, &fakeTaskLister{}, &fakeNotifier{})

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}

	if len(repo.failedIDs) != 1 {
		t.Fatalf("expected immediate dead-letter on bad payload, got %v", repo.failedIDs)
	}
}

func TestProcessOneSkipsVanishedShare(t *testing.T) {
	repo := &fakeJobsRepo{queue: []job.Job{shareJob(t, "j1", 99, 3, 0, 5)}}
	notifier := &fakeNotifier{}

	w := newTestWorker(repo, &fakeShareReader{shares: map[int64]share.ShareRecord{}}, &fakeUserReader{}, &fakeTaskLister{}, notifier)

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}

	if len(notifier.sent) != 0 {
		t.Fatal("expected no notification for vanished share")
	}

	if len(repo.doneIDs) != 1 {
		t.Fatalf("expected job marked done, got %v", repo.doneIDs)
	}
}

type fakeLedger struct {
	started  []int64
	sent     []int64
	failed   []int64
	startErr error
}

func (f *fakeLedger) TryStart(ctx context.Context, jobID string, shareID int64, recipient string) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.started = append(f.started, shareID)
	return nil
}

func (f *fakeLedger) MarkSent(ctx context.Context, shareID int64, providerMessageID *string) error {
	f.sent = append(f.sent, shareID)
	return nil
}

func (f *fakeLedger) MarkFailed(ctx context.Context, shareID int64, errMsg string) error {
	f.failed = append(f.failed, shareID)
	return nil
}

func TestProcessOneSkipsAlreadySentDelivery(t *testing.T) {
	repo := &fakeJobsRepo{queue: []job.Job{shareJob(t, "j1", 7, 3, 0, 5)}}
	shares := &fakeShareReader{shares: map[int64]share.ShareRecord{
		7: {ID: 7, FromUserID: 3, ToEmail: "friend@example.com"},
	}}
	users := &fakeUserReader{users: map[int64]user.User{
		3: {ID: 3, Username: "alice", Role: user.RoleUser},
	}}
	notifier := &fakeNotifier{}
	ledger := &fakeLedger{startErr: notifications.ErrAlreadySent}

	w := New(Config{WorkerID: "test-worker"}, repo, shares, users, &fakeTaskLister{}, notifier, ledger, nil, testLogger())

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}

	if len(notifier.sent) != 0 {
		t.Fatal("expected no resend for an already delivered share")
	}

	if len(repo.doneIDs) != 1 {
		t.Fatalf("expected job marked done, got %v", repo.doneIDs)
	}
}

func TestProcessOneRecordsDeliveryOutcome(t *testing.T) {
	repo := &fakeJobsRepo{queue: []job.Job{shareJob(t, "j1", 7, 3, 0, 5)}}
	shares := &fakeShareReader{shares: map[int64]share.ShareRecord{
		7: {ID: 7, FromUserID: 3, ToEmail: "friend@example.com"},
	}}
	users := &fakeUserReader{users: map[int64]user.User{
		3: {ID: 3, Username: "alice", Role: user.RoleUser},
	}}
	ledger := &fakeLedger{}

	w := New(Config{WorkerID: "test-worker"}, repo, shares, users, &fakeTaskLister{}, &fakeNotifier{}, ledger, nil, testLogger())

	if _, err := w.ProcessOne(context.Background()); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}

	if len(ledger.started) != 1 || len(ledger.sent) != 1 {
		t.Fatalf("ledger not updated: started=%v sent=%v", ledger.started, ledger.sent)
	}

	failRepo := &fakeJobsRepo{queue: []job.Job{shareJob(t, "j2", 7, 3, 0, 5)}}
	failLedger := &fakeLedger{}
	failing := New(Config{WorkerID: "test-worker"}, failRepo, shares, users, &fakeTaskLister{}, &fakeNotifier{err: errors.New("smtp down")}, failLedger, nil, testLogger())

	if _, err := failing.ProcessOne(context.Background()); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}

	if len(failLedger.failed) != 1 {
		t.Fatalf("expected failed mark, got %v", failLedger.failed)
	}
}
