// Package task mirrors the backend task collection in memory and keeps
// the mirror consistent with confirmed writes.
package task

import (
	"net/url"
	"strconv"

	"github.com/taskflow/client-core-go/internal/api"
	"github.com/taskflow/client-core-go/internal/session"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Priority orders tasks by urgency.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Task is the backend's task record. The server is authoritative; the
// local copy is advisory and rebuilt on each list fetch.
type Task struct {
	ID          int64         `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      Status        `json:"status"`
	Priority    Priority      `json:"priority"`
	AssignedTo  *int64        `json:"assigned_to"`
	CreatedBy   int64         `json:"created_by"`
	DueDate     *api.Time     `json:"due_date"`
	CreatedAt   api.Time      `json:"created_at"`
	UpdatedAt   api.Time      `json:"updated_at"`
	Assignee    *session.User `json:"assignee,omitempty"`
	Creator     *session.User `json:"creator,omitempty"`
	Comments    []Comment     `json:"comments,omitempty"`
}

// Comment is a note attached to a task.
type Comment struct {
	ID        int64         `json:"id"`
	TaskID    int64         `json:"task_id"`
	UserID    int64         `json:"user_id"`
	Comment   string        `json:"comment"`
	CreatedAt api.Time      `json:"created_at"`
	Author    *session.User `json:"author,omitempty"`
}

// CreateRequest is the payload for POST /api/tasks. The backend
// assigns the identity.
type CreateRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	AssigneeID  *int64   `json:"assigneeId,omitempty"`
	DueDate     *string  `json:"due_date,omitempty"`
}

// UpdateRequest is the partial payload for PUT /api/tasks/{id}. Nil
// fields are omitted and left unchanged server-side.
type UpdateRequest struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	AssignedTo  *int64    `json:"assigned_to,omitempty"`
	DueDate     *string   `json:"due_date,omitempty"`
}

// Filters narrows a list fetch; zero fields are not sent.
type Filters struct {
	Status    Status
	Assignee  int64
	CreatedBy int64
	Priority  Priority
}

func (f Filters) query() url.Values {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Assignee != 0 {
		q.Set("assignee", strconv.FormatInt(f.Assignee, 10))
	}
	if f.CreatedBy != 0 {
		q.Set("created_by", strconv.FormatInt(f.CreatedBy, 10))
	}
	if f.Priority != "" {
		q.Set("priority", string(f.Priority))
	}
	if len(q) == 0 {
		return nil
	}
	return q
}
