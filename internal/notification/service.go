// Package notification mirrors the user's notification feed and the
// derived unread count.
package notification

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"go.uber.org/zap"

	"github.com/taskflow/client-core-go/internal/api"
	"github.com/taskflow/client-core-go/pkg/observe"
)

// Notification is one feed entry for the current user.
type Notification struct {
	ID        int64    `json:"id"`
	UserID    int64    `json:"user_id"`
	TaskID    int64    `json:"task_id"`
	Message   string   `json:"message"`
	Read      bool     `json:"read"`
	CreatedAt api.Time `json:"created_at"`
}

// ListResponse is the envelope of GET /api/notifications.
type ListResponse struct {
	Notifications []Notification `json:"notifications"`
	Total         int            `json:"total"`
	UnreadCount   int            `json:"unread_count"`
}

// Service owns the notification collection and the unread count, each
// observable with current-value replay. The unread count is a locally
// recomputed aggregate after each confirmed write; the server's figure
// is only taken verbatim on a full list fetch.
type Service struct {
	api    *api.Client
	logger *zap.SugaredLogger

	mu     sync.Mutex
	items  []Notification
	stream *observe.Subject[[]Notification]
	unread *observe.Subject[int]
}

func NewService(client *api.Client, logger *zap.SugaredLogger) *Service {
	return &Service{
		api:    client,
		logger: logger,
		stream: observe.NewSubjectValue[[]Notification](nil),
		unread: observe.NewSubjectValue(0),
	}
}

// Notifications is the observable feed stream.
func (s *Service) Notifications() *observe.Subject[[]Notification] { return s.stream }

// Unread is the observable unread-count stream.
func (s *Service) Unread() *observe.Subject[int] { return s.unread }

// UnreadCount returns the current unread count snapshot.
func (s *Service) UnreadCount() int { return s.unread.Value() }

// List fetches the feed, optionally unread entries only, and replaces
// the local collection with the response.
func (s *Service) List(ctx context.Context, unreadOnly bool) (*ListResponse, error) {
	var q url.Values
	if unreadOnly {
		q = url.Values{"unread_only": {"true"}}
	}
	var resp ListResponse
	if err := s.api.Get(ctx, "/api/notifications", q, &resp); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	s.mu.Lock()
	s.items = resp.Notifications
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.stream.Publish(snapshot)
	s.unread.Publish(resp.UnreadCount)
	return &resp, nil
}

// MarkRead flags one notification as read on the backend, then flips
// the local copy and recomputes the unread count.
func (s *Service) MarkRead(ctx context.Context, id int64) error {
	if err := s.api.Post(ctx, fmt.Sprintf("/api/notifications/%d/read", id), nil, nil); err != nil {
		return fmt.Errorf("mark notification %d read: %w", id, err)
	}
	s.mutate(func(items []Notification) []Notification {
		for i := range items {
			if items[i].ID == id {
				items[i].Read = true
			}
		}
		return items
	})
	return nil
}

// MarkAllRead flags every notification as read.
func (s *Service) MarkAllRead(ctx context.Context) error {
	if err := s.api.Post(ctx, "/api/notifications/read-all", nil, nil); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	s.mutate(func(items []Notification) []Notification {
		for i := range items {
			items[i].Read = true
		}
		return items
	})
	return nil
}

// Delete removes a notification on the backend, then locally.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.api.Delete(ctx, fmt.Sprintf("/api/notifications/%d", id)); err != nil {
		return fmt.Errorf("delete notification %d: %w", id, err)
	}
	s.mutate(func(items []Notification) []Notification {
		kept := items[:0]
		for _, n := range items {
			if n.ID != id {
				kept = append(kept, n)
			}
		}
		return kept
	})
	return nil
}

// mutate applies a confirmed local change, then republishes the
// snapshot and the recomputed unread count. Counting unread entries
// directly can never go negative.
func (s *Service) mutate(apply func([]Notification) []Notification) {
	s.mu.Lock()
	s.items = apply(s.items)
	snapshot := s.snapshotLocked()
	count := 0
	for _, n := range s.items {
		if !n.Read {
			count++
		}
	}
	s.mu.Unlock()
	s.stream.Publish(snapshot)
	s.unread.Publish(count)
}

func (s *Service) snapshotLocked() []Notification {
	out := make([]Notification, len(s.items))
	copy(out, s.items)
	return out
}
