package memory

import (
	"context"

	"github.com/taskcal/taskcal/internal/domain/share"
	"github.com/taskcal/taskcal/internal/domain/task"
)

// Tasks and Shares expose per-entity views over the shared store so
// the method sets line up with the Postgres repos.

func (s *Store) Tasks() *TasksView { return &TasksView{s: s} }

func (s *Store) Shares() *SharesView { return &SharesView{s: s} }

type TasksView struct{ s *Store }

func (v *TasksView) Create(ctx context.Context, ownerID int64, req task.CreateTaskRequest) (task.Task, error) {
	return v.s.CreateTask(ctx, ownerID, req)
}

func (v *TasksView) GetByID(ctx context.Context, id int64) (task.Task, error) {
	return v.s.GetTaskByID(ctx, id)
}

func (v *TasksView) ListByOwner(ctx context.Context, ownerID int64) ([]task.Task, error) {
	return v.s.ListTasksByOwner(ctx, ownerID)
}

func (v *TasksView) Update(ctx context.Context, id int64, req task.UpdateTaskRequest) (task.Task, error) {
	return v.s.UpdateTask(ctx, id, req)
}

func (v *TasksView) Delete(ctx context.Context, id int64) error {
	return v.s.DeleteTask(ctx, id)
}

func (v *TasksView) CountAll(ctx context.Context) (int, error) {
	return v.s.CountAllTasks(ctx)
}

type SharesView struct{ s *Store }

func (v *SharesView) Create(ctx context.Context, fromUserID int64, toEmail, message string) (share.ShareRecord, error) {
	return v.s.CreateShare(ctx, fromUserID, toEmail, message)
}

func (v *SharesView) GetByID(ctx context.Context, id int64) (share.ShareRecord, error) {
	return v.s.GetShareByID(ctx, id)
}

func (v *SharesView) ListByUser(ctx context.Context, userID int64) ([]share.ShareRecord, error) {
	return v.s.ListSharesByUser(ctx, userID)
}

func (v *SharesView) CountAll(ctx context.Context) (int, error) {
	return v.s.CountAllShares(ctx)
}
