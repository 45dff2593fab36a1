package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskcal/taskcal/internal/notifications"
)

const deliveryKindShare = "share.notification"

// DeliveriesRepo is the send ledger for outbound email. Jobs retry,
// so without it a share summary could go out twice when MarkDone
// fails after a successful send.
type DeliveriesRepo struct {
	pool *pgxpool.Pool
}

func NewDeliveriesRepo(pool *pgxpool.Pool) *DeliveriesRepo {
	return &DeliveriesRepo{pool: pool}
}

func (r *DeliveriesRepo) TryStart(ctx context.Context, jobID string, shareID int64, recipient string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notification_deliveries (kind, share_id, job_id, recipient, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'sending', NOW(), NOW())
	`, deliveryKindShare, shareID, jobID, recipient)

	if err == nil {
		return nil
	}
	if !IsUniqueViolation(err) {
		return err
	}

	// Row exists. A failed delivery may be claimed for retry; the
	// status flip is atomic so only one worker wins.
	tag, uErr := r.pool.Exec(ctx, `
		UPDATE notification_deliveries
		SET status = 'sending',
		    job_id = $3,
		    recipient = $4,
		    last_error = NULL,
		    updated_at = NOW()
		WHERE kind = $1 AND share_id = $2 AND status = 'failed'
	`, deliveryKindShare, shareID, jobID, recipient)

	if uErr != nil {
		return uErr
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var status string
	var sentAt *time.Time

	qErr := r.pool.QueryRow(ctx, `
		SELECT status, sent_at
		FROM notification_deliveries
		WHERE kind = $1 AND share_id = $2
	`, deliveryKindShare, shareID).Scan(&status, &sentAt)

	if qErr != nil {
		if errors.Is(qErr, pgx.ErrNoRows) {
			// row disappeared; let the caller retry
			return nil
		}
		return qErr
	}

	if sentAt != nil || status == "sent" {
		return notifications.ErrAlreadySent
	}

	return notifications.ErrInProgress
}

func (r *DeliveriesRepo) MarkSent(ctx context.Context, shareID int64, providerMessageID *string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_deliveries
		SET status = 'sent',
		    sent_at = NOW(),
		    provider_message_id = $3,
		    last_error = NULL,
		    updated_at = NOW()
		WHERE kind = $1 AND share_id = $2
	`, deliveryKindShare, shareID, providerMessageID)

	return err
}

func (r *DeliveriesRepo) MarkFailed(ctx context.Context, shareID int64, errMsg string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE notification_deliveries
		SET status = 'failed',
		    last_error = $3,
		    updated_at = NOW()
		WHERE kind = $1 AND share_id = $2
	`, deliveryKindShare, shareID, errMsg)

	return err
}
