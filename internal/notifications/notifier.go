package notifications

import (
	"context"
	"errors"

	"github.com/taskcal/taskcal/internal/domain/task"
)

// ShareSummaryInput carries everything needed to deliver one schedule
// summary email. Delivery is best-effort: the share record was already
// persisted and the API response already sent by the time this runs.
type ShareSummaryInput struct {
	ShareID      int64
	ToEmail      string
	FromUsername string
	Message      string
	Tasks        []task.Task
}

type Notifier interface {
	SendShareSummary(ctx context.Context, input ShareSummaryInput) error
}

// Delivery ledger outcomes. A ledger guards against double sends when
// a job retries after the email already went out.
var (
	ErrAlreadySent = errors.New("notification already sent")
	ErrInProgress  = errors.New("notification delivery in progress")
)
