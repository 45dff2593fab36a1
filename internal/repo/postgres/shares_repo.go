package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskcal/taskcal/internal/domain/share"
)

type SharesRepo struct {
	pool *pgxpool.Pool
}

func NewSharesRepo(pool *pgxpool.Pool) *SharesRepo {
	return &SharesRepo{pool: pool}
}

func (r *SharesRepo) Create(ctx context.Context, fromUserID int64, toEmail, message string) (share.ShareRecord, error) {
	var s share.ShareRecord

	err := r.pool.QueryRow(
		ctx,
		`INSERT INTO shared_calendars (from_user_id, to_email, message)
         VALUES ($1, $2, $3)
         RETURNING id, from_user_id, to_email, message, shared_at`,
		fromUserID, toEmail, message,
	).Scan(&s.ID, &s.FromUserID, &s.ToEmail, &s.Message, &s.SharedAt)

	if err != nil {
		return share.ShareRecord{}, err
	}

	return s, nil
}

func (r *SharesRepo) GetByID(ctx context.Context, id int64) (share.ShareRecord, error) {
	var s share.ShareRecord

	err := r.pool.QueryRow(
		ctx,
		`SELECT id, from_user_id, to_email, message, shared_at
         FROM shared_calendars
         WHERE id = $1`,
		id,
	).Scan(&s.ID, &s.FromUserID, &s.ToEmail, &s.Message, &s.SharedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return share.ShareRecord{}, share.ErrNotFound
		}

		return share.ShareRecord{}, err
	}

	return s, nil
}

func (r *SharesRepo) ListByUser(ctx context.Context, userID int64) ([]share.ShareRecord, error) {
	rows, err := r.pool.Query(
		ctx,
		`SELECT id, from_user_id, to_email, message, shared_at
         FROM shared_calendars
         WHERE from_user_id = $1
         ORDER BY shared_at DESC, id DESC`,
		userID,
	)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	out := make([]share.ShareRecord, 0)

	for rows.Next() {
		var s share.ShareRecord

		err = rows.Scan(&s.ID, &s.FromUserID, &s.ToEmail, &s.Message, &s.SharedAt)

		if err != nil {
			return nil, err
		}

		out = append(out, s)
	}

	return out, rows.Err()
}

func (r *SharesRepo) CountAll(ctx context.Context) (int, error) {
	var n int

	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM shared_calendars`).Scan(&n)

	return n, err
}
