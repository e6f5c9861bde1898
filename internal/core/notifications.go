package core

import (
	"sync"
	"time"
)

type NotificationLevel string

const (
	LevelInfo  NotificationLevel = "info"
	LevelError NotificationLevel = "error"
)

// Notification is one transient, user-facing operation outcome. Exactly one
// notification is produced per operation, success or failure, never both.
type Notification struct {
	Message   string            `json:"message"`
	Level     NotificationLevel `json:"level"`
	CreatedAt time.Time         `json:"createdAt"`
}

const notificationCapacity = 32

// notificationLog is a bounded buffer of recent notifications; old entries
// are dropped once the capacity is reached.
type notificationLog struct {
	mu      sync.Mutex
	entries []Notification
}

func (l *notificationLog) add(level NotificationLevel, message string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, Notification{
		Message:   message,
		Level:     level,
		CreatedAt: time.Now().UTC(),
	})
	if len(l.entries) > notificationCapacity {
		l.entries = l.entries[len(l.entries)-notificationCapacity:]
	}
}

// recent returns a copy of the buffered notifications, oldest first.
func (l *notificationLog) recent() []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Notification, len(l.entries))
	copy(out, l.entries)
	return out
}
