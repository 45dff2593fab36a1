// Package memory holds a map-backed store implementing the same
// operations as the Postgres repos. It backs handler and integration
// tests and can run the API without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/taskcal/taskcal/internal/domain/share"
	"github.com/taskcal/taskcal/internal/domain/task"
	"github.com/taskcal/taskcal/internal/domain/user"
)

type Store struct {
	mu sync.RWMutex

	users  map[int64]user.User
	tasks  map[int64]task.Task
	shares map[int64]share.ShareRecord

	nextUserID  int64
	nextTaskID  int64
	nextShareID int64
}

func NewStore() *Store {
	return &Store{
		users:  make(map[int64]user.User),
		tasks:  make(map[int64]task.Task),
		shares: make(map[int64]share.ShareRecord),
	}
}

// --- users ---

func (s *Store) Create(ctx context.Context, username, email, passwordHash, role string) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username || u.Email == email {
			return user.User{}, user.ErrDuplicateIdentity
		}
	}

	s.nextUserID++
	now := time.Now().UTC()

	u := user.User{
		ID:           s.nextUserID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.users[u.ID] = u

	return u, nil
}

func (s *Store) GetByUsername(ctx context.Context, username string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}

	return user.User{}, user.ErrNotFound
}

func (s *Store) GetByID(ctx context.Context, id int64) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (s *Store) List(ctx context.Context) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]user.User, 0, len(s.users))

	// newest first, same contract as the SQL repo
	for id := s.nextUserID; id >= 1; id-- {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}

	return out, nil
}

func (s *Store) UpdateRole(ctx context.Context, id int64, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]

	if !ok {
		return user.ErrNotFound
	}

	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	s.users[id] = u

	return nil
}

func (s *Store) DeleteCascade(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return user.ErrNotFound
	}

	for tid, t := range s.tasks {
		if t.OwnerID == id {
			delete(s.tasks, tid)
		}
	}

	for sid, sr := range s.shares {
		if sr.FromUserID == id {
			delete(s.shares, sid)
		}
	}

	delete(s.users, id)

	return nil
}

func (s *Store) CountAll(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.users), nil
}

// --- tasks ---

func (s *Store) CreateTask(ctx context.Context, ownerID int64, req task.CreateTaskRequest) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTaskID++
	now := time.Now().UTC()

	t := task.Task{
		ID:          s.nextTaskID,
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Priority:    req.Priority,
		Status:      req.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tasks[t.ID] = t

	return t, nil
}

func (s *Store) GetTaskByID(ctx context.Context, id int64) (task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]

	if !ok {
		return task.Task{}, task.ErrNotFound
	}

	return t, nil
}

func (s *Store) ListTasksByOwner(ctx context.Context, ownerID int64) ([]task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]task.Task, 0)

	for id := int64(1); id <= s.nextTaskID; id++ {
		t, ok := s.tasks[id]

		if ok && t.OwnerID == ownerID {
			out = append(out, t)
		}
	}

	return out, nil
}

func (s *Store) UpdateTask(ctx context.Context, id int64, req task.UpdateTaskRequest) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]

	if !ok {
		return task.Task{}, task.ErrNotFound
	}

	t.Title = req.Title
	t.Description = req.Description
	t.Date = req.Date
	t.Time = req.Time
	t.Priority = req.Priority
	t.Status = req.Status
	t.UpdatedAt = time.Now().UTC()
	s.tasks[id] = t

	return t, nil
}

func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return task.ErrNotFound
	}

	delete(s.tasks, id)

	return nil
}

func (s *Store) CountAllTasks(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.tasks), nil
}

// --- shares ---

func (s *Store) CreateShare(ctx context.Context, fromUserID int64, toEmail, message string) (share.ShareRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextShareID++

	sr := share.ShareRecord{
		ID:         s.nextShareID,
		FromUserID: fromUserID,
		ToEmail:    toEmail,
		Message:    message,
		SharedAt:   time.Now().UTC(),
	}
	s.shares[sr.ID] = sr

	return sr, nil
}

func (s *Store) GetShareByID(ctx context.Context, id int64) (share.ShareRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sr, ok := s.shares[id]

	if !ok {
		return share.ShareRecord{}, share.ErrNotFound
	}

	return sr, nil
}

func (s *Store) ListSharesByUser(ctx context.Context, userID int64) ([]share.ShareRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]share.ShareRecord, 0)

	for id := s.nextShareID; id >= 1; id-- {
		sr, ok := s.shares[id]

		if ok && sr.FromUserID == userID {
			out = append(out, sr)
		}
	}

	return out, nil
}

func (s *Store) CountAllShares(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.shares), nil
}
