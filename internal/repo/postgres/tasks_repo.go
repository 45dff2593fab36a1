package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskcal/taskcal/internal/domain/task"
	"github.com/taskcal/taskcal/internal/observability"
)

type TasksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{pool: pool, prom: prom}
}

func (r *TasksRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

const taskColumns = `id, owner_id, title, description, date, time, priority, status, created_at, updated_at`

func scanTask(row pgx.Row) (task.Task, error) {
	var t task.Task

	err := row.Scan(
		&t.ID,
		&t.OwnerID,
		&t.Title,
		&t.Description,
		&t.Date,
		&t.Time,
		&t.Priority,
		&t.Status,
		&t.CreatedAt,
		&t.UpdatedAt,
	)

	return t, err
}

func (r *TasksRepo) Create(ctx context.Context, ownerID int64, req task.CreateTaskRequest) (task.Task, error) {
	var t task.Task
	var err error

	err = r.observe("tasks.create", func() error {
		t, err = scanTask(r.pool.QueryRow(
			ctx,
			`INSERT INTO tasks (owner_id, title, description, date, time, priority, status)
             VALUES ($1, $2, $3, $4, $5, $6, $7)
             RETURNING `+taskColumns,
			ownerID, req.Title, req.Description, req.Date, req.Time, req.Priority, req.Status,
		))
		return err
	})

	if err != nil {
		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, id int64) (task.Task, error) {
	var t task.Task
	var err error

	err = r.observe("tasks.get_by_id", func() error {
		t, err = scanTask(r.pool.QueryRow(
			ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE id = $1`,
			id,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}

		return task.Task{}, err
	}

	return t, nil
}

// ListByOwner imposes no display ordering; the calendar layer sorts
// for rendering. The (date, time) order here just keeps results
// deterministic.
func (r *TasksRepo) ListByOwner(ctx context.Context, ownerID int64) ([]task.Task, error) {
	var out []task.Task

	err := r.observe("tasks.list_by_owner", func() error {
		rows, err := r.pool.Query(
			ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE owner_id = $1 ORDER BY date ASC, time ASC, id ASC`,
			ownerID,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		out = make([]task.Task, 0)

		for rows.Next() {
			t, err := scanTask(rows)

			if err != nil {
				return err
			}

			out = append(out, t)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

// Update replaces the named fields and refreshes updated_at. owner_id
// is deliberately absent from the SET list; ownership is immutable.
func (r *TasksRepo) Update(ctx context.Context, id int64, req task.UpdateTaskRequest) (task.Task, error) {
	var t task.Task
	var err error

	err = r.observe("tasks.update", func() error {
		t, err = scanTask(r.pool.QueryRow(
			ctx,
			`UPDATE tasks
               SET title = $2,
                   description = $3,
                   date = $4,
                   time = $5,
                   priority = $6,
                   status = $7,
                   updated_at = NOW()
             WHERE id = $1
             RETURNING `+taskColumns,
			id, req.Title, req.Description, req.Date, req.Time, req.Priority, req.Status,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}

		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) Delete(ctx context.Context, id int64) error {
	return r.observe("tasks.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return task.ErrNotFound
		}

		return nil
	})
}

func (r *TasksRepo) CountAll(ctx context.Context) (int, error) {
	var n int

	err := r.observe("tasks.count_all", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n)
	})

	return n, err
}
