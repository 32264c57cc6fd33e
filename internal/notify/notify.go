// Package notify carries user-facing notifications out of the core. Sending
// is fire-and-forget: a Notifier never reports failure back to the caller.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Queue buffers notifications until the view drains them. When full, the
// oldest notification is discarded.
type Queue struct {
	mu      sync.Mutex
	pending []Notification
	limit   int
}

func NewQueue(limit int) *Queue {
	return &Queue{limit: limit}
}

func (q *Queue) Notify(_ context.Context, n Notification) {
	if n.At.IsZero() {
		n.At = time.Now()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, n)
	if q.limit > 0 && len(q.pending) > q.limit {
		q.pending = q.pending[len(q.pending)-q.limit:]
	}
}

// Drain returns and forgets everything queued so far, oldest first.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// Logged forwards to next and writes every notification to the log.
type Logged struct {
	next   Notifier
	logger *slog.Logger
}

func NewLogged(next Notifier, logger *slog.Logger) *Logged {
	return &Logged{next: next, logger: logger}
}

func (l *Logged) Notify(ctx context.Context, n Notification) {
	l.logger.InfoContext(ctx, "user notification",
		slog.String("severity", string(n.Level)),
		slog.String("message", n.Message),
	)
	if l.next != nil {
		l.next.Notify(ctx, n)
	}
}
