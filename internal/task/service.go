package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taskflow/client-core-go/internal/api"
	"github.com/taskflow/client-core-go/pkg/observe"
)

// Service owns the in-memory task collection and is the only mutator
// of it. Writes are never optimistic: the cache changes only after the
// backend confirms, and a failed write leaves the last-known-good
// snapshot untouched. Snapshots published on the stream are fresh
// slices, so subscribers never observe later mutation.
type Service struct {
	api    *api.Client
	logger *zap.SugaredLogger
	now    func() time.Time

	mu     sync.Mutex
	tasks  []Task
	stream *observe.Subject[[]Task]
}

func NewService(client *api.Client, logger *zap.SugaredLogger) *Service {
	return &Service{
		api:    client,
		logger: logger,
		now:    time.Now,
		stream: observe.NewSubjectValue[[]Task](nil),
	}
}

// Tasks is the observable collection stream with current-snapshot
// replay for late subscribers.
func (s *Service) Tasks() *observe.Subject[[]Task] { return s.stream }

// List fetches tasks matching the filters and replaces the entire
// local collection with the response.
func (s *Service) List(ctx context.Context, f Filters) ([]Task, error) {
	var tasks []Task
	if err := s.api.Get(ctx, "/api/tasks", f.query(), &tasks); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	s.mu.Lock()
	s.tasks = tasks
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.stream.Publish(snapshot)
	s.logger.Debugw("task cache replaced", "count", len(tasks))
	return snapshot, nil
}

// Get fetches one task by id directly from the backend. The cache is
// not consulted or modified.
func (s *Service) Get(ctx context.Context, id int64) (*Task, error) {
	var t Task
	if err := s.api.Get(ctx, fmt.Sprintf("/api/tasks/%d", id), nil, &t); err != nil {
		return nil, fmt.Errorf("get task %d: %w", id, err)
	}
	return &t, nil
}

// Create posts a new task and appends the backend's created entity to
// the collection.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Task, error) {
	var created Task
	if err := s.api.Post(ctx, "/api/tasks", req, &created); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.mu.Lock()
	s.tasks = append(s.tasks, created)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.stream.Publish(snapshot)
	return &created, nil
}

// Update puts a partial update and replaces the matching cached entry
// with the returned entity. If the id is not cached locally (a stale
// snapshot), the cache is deliberately left as is: the next full List
// reconciles, and the caller still gets the server's entity.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*Task, error) {
	var updated Task
	if err := s.api.Put(ctx, fmt.Sprintf("/api/tasks/%d", id), req, &updated); err != nil {
		return nil, fmt.Errorf("update task %d: %w", id, err)
	}
	s.patch(updated)
	return &updated, nil
}

// Assign sets the task's assignee and patches the cache like Update.
func (s *Service) Assign(ctx context.Context, taskID, userID int64) (*Task, error) {
	body := struct {
		UserID int64 `json:"user_id"`
	}{UserID: userID}
	var updated Task
	if err := s.api.Post(ctx, fmt.Sprintf("/api/tasks/%d/assign", taskID), body, &updated); err != nil {
		return nil, fmt.Errorf("assign task %d: %w", taskID, err)
	}
	s.patch(updated)
	return &updated, nil
}

// AddComment posts a comment on a task. Comments are not mirrored in
// the collection; callers wanting them fetch the task.
func (s *Service) AddComment(ctx context.Context, taskID int64, text string) (*Comment, error) {
	body := struct {
		Text string `json:"text"`
	}{Text: text}
	var c Comment
	if err := s.api.Post(ctx, fmt.Sprintf("/api/tasks/%d/comments", taskID), body, &c); err != nil {
		return nil, fmt.Errorf("comment on task %d: %w", taskID, err)
	}
	return &c, nil
}

// Delete removes the task on the backend, then drops it locally.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.api.Delete(ctx, fmt.Sprintf("/api/tasks/%d", id)); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	s.mu.Lock()
	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.stream.Publish(snapshot)
	return nil
}

func (s *Service) patch(updated Task) {
	s.mu.Lock()
	found := false
	for i := range s.tasks {
		if s.tasks[i].ID == updated.ID {
			s.tasks[i] = updated
			found = true
			break
		}
	}
	var snapshot []Task
	if found {
		snapshot = s.snapshotLocked()
	}
	s.mu.Unlock()
	if found {
		s.stream.Publish(snapshot)
	} else {
		s.logger.Debugw("updated task not in local cache, skipping patch", "task_id", updated.ID)
	}
}

// snapshotLocked copies the collection; callers hold s.mu.
func (s *Service) snapshotLocked() []Task {
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// ByStatus filters the current snapshot. No network, no blocking.
func (s *Service) ByStatus(status Status) []Task {
	return s.filter(func(t Task) bool { return t.Status == status })
}

// Overdue returns tasks with a due date in the past that are not
// completed.
func (s *Service) Overdue() []Task {
	now := s.now()
	return s.filter(func(t Task) bool {
		return t.DueDate != nil && !t.DueDate.IsZero() &&
			t.DueDate.Time.Before(now) && t.Status != StatusCompleted
	})
}

// ByAssignee returns tasks assigned to the given user.
func (s *Service) ByAssignee(userID int64) []Task {
	return s.filter(func(t Task) bool { return t.AssignedTo != nil && *t.AssignedTo == userID })
}

// ByCreator returns tasks created by the given user.
func (s *Service) ByCreator(userID int64) []Task {
	return s.filter(func(t Task) bool { return t.CreatedBy == userID })
}

func (s *Service) filter(keep func(Task) bool) []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Task
	for _, t := range s.tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
