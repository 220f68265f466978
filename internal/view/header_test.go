package view

import (
	"testing"

	"go.uber.org/zap"

	"github.com/taskflow/client-core-go/internal/notification"
)

func TestHeaderMirrorsUnreadCount(t *testing.T) {
	notifications := notification.NewService(nil, zap.NewNop().Sugar())
	h := NewHeader(newAnonymousSession(t), notifications, zap.NewNop().Sugar())
	t.Cleanup(h.Close)

	if h.UnreadCount() != 0 {
		t.Fatalf("initial unread = %d", h.UnreadCount())
	}

	notifications.Unread().Publish(4)
	if h.UnreadCount() != 4 {
		t.Fatalf("unread = %d, want 4", h.UnreadCount())
	}

	notifications.Unread().Publish(0)
	if h.UnreadCount() != 0 {
		t.Fatalf("unread = %d, want 0", h.UnreadCount())
	}
}

func TestHeaderAnonymousUser(t *testing.T) {
	notifications := notification.NewService(nil, zap.NewNop().Sugar())
	h := NewHeader(newAnonymousSession(t), notifications, zap.NewNop().Sugar())
	t.Cleanup(h.Close)

	if h.User() != nil {
		t.Fatalf("user = %+v, want nil", h.User())
	}
	if h.IsManager() {
		t.Fatal("anonymous session reported manager")
	}
}

func TestHeaderTeardown(t *testing.T) {
	notifications := notification.NewService(nil, zap.NewNop().Sugar())
	h := NewHeader(newAnonymousSession(t), notifications, zap.NewNop().Sugar())

	notifications.Unread().Publish(2)
	h.Close()
	notifications.Unread().Publish(9)

	if h.UnreadCount() != 2 {
		t.Fatalf("closed header observed emission: %d", h.UnreadCount())
	}
}
