package view

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/taskflow/client-core-go/internal/notification"
	"github.com/taskflow/client-core-go/internal/session"
	"github.com/taskflow/client-core-go/pkg/observe"
)

// Header mirrors the current user and the unread notification count
// for the persistent chrome.
type Header struct {
	session       *session.Manager
	notifications *notification.Service
	logger        *zap.SugaredLogger

	bag observe.Bag

	mu     sync.Mutex
	user   *session.User
	unread int
}

func NewHeader(sess *session.Manager, notifications *notification.Service, logger *zap.SugaredLogger) *Header {
	h := &Header{
		session:       sess,
		notifications: notifications,
		logger:        logger,
	}
	h.bag.Add(sess.CurrentUser().Subscribe(func(u *session.User) {
		h.mu.Lock()
		h.user = u
		h.mu.Unlock()
	}))
	h.bag.Add(notifications.Unread().Subscribe(func(count int) {
		h.mu.Lock()
		h.unread = count
		h.mu.Unlock()
	}))
	return h
}

// Refresh loads the notification feed so the unread badge is current.
func (h *Header) Refresh(ctx context.Context) error {
	_, err := h.notifications.List(ctx, false)
	return err
}

// User returns the session user the header last observed.
func (h *Header) User() *session.User {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.user
}

// UnreadCount returns the unread badge value the header last observed.
func (h *Header) UnreadCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.unread
}

// IsManager reports whether the observed user can see manager-only
// navigation entries.
func (h *Header) IsManager() bool {
	return h.session.IsManager()
}

// Close severs the header's subscriptions.
func (h *Header) Close() {
	h.bag.Close()
}
