package helper

import (
	"context"
	"sync"

	"github.com/kapitoshk4/library-service-api/library/shared/core"
	"github.com/kapitoshk4/library-service-api/library/shared/shell"
)

// NotifierSpy captures notifications in the order they were sent.
type NotifierSpy struct {
	notifications []core.Notification
	mu            sync.Mutex
}

// NewNotifierSpy creates a NotifierSpy.
func NewNotifierSpy() *NotifierSpy {
	return &NotifierSpy{}
}

func (s *NotifierSpy) Notify(_ context.Context, notification core.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = append(s.notifications, notification)
}

// Notifications returns a copy of the captured notifications.
func (s *NotifierSpy) Notifications() []core.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	notifications := make([]core.Notification, len(s.notifications))
	copy(notifications, s.notifications)

	return notifications
}

// CountOfType counts the captured notifications of one type.
func (s *NotifierSpy) CountOfType(notificationType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, notification := range s.notifications {
		if notification.NotificationType() == notificationType {
			count++
		}
	}

	return count
}

var _ shell.Notifier = (*NotifierSpy)(nil)
