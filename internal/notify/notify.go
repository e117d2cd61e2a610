// Package notify turns operation outcomes into toasts: a log line and an
// SSE "toast" event for the browser page.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/brandoo/console/internal/sse"
)

// Toast levels.
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelError   = "error"
)

// EventType is the SSE event type of a toast.
const EventType = "toast"

// Toast is the payload of a toast event.
type Toast struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}

// Publisher delivers events to connected pages.
type Publisher interface {
	Publish(event sse.Event)
}

// Notifier emits toasts. A nil publisher only logs.
type Notifier struct {
	logger *slog.Logger
	pub    Publisher
	now    func() time.Time
}

// New returns a Notifier logging to logger and publishing to pub.
func New(logger *slog.Logger, pub Publisher) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{logger: logger, pub: pub, now: time.Now}
}

// Success reports a completed operation.
func (n *Notifier) Success(ctx context.Context, msg string) {
	n.emit(ctx, slog.LevelInfo, Toast{Level: LevelSuccess, Message: msg})
}

// Info reports something worth showing that is neither success nor failure.
func (n *Notifier) Info(ctx context.Context, msg string) {
	n.emit(ctx, slog.LevelInfo, Toast{Level: LevelInfo, Message: msg})
}

// Error reports a failed operation. Nothing is retried or rolled back.
func (n *Notifier) Error(ctx context.Context, msg string, err error) {
	t := Toast{Level: LevelError, Message: msg}
	if err != nil {
		t.Detail = err.Error()
	}
	n.emit(ctx, slog.LevelError, t)
}

func (n *Notifier) emit(ctx context.Context, level slog.Level, t Toast) {
	if n == nil {
		return
	}
	t.At = n.now()
	attrs := []slog.Attr{slog.String("toast", t.Level)}
	if t.Detail != "" {
		attrs = append(attrs, slog.String("error", t.Detail))
	}
	n.logger.LogAttrs(ctx, level, t.Message, attrs...)
	if n.pub != nil {
		n.pub.Publish(sse.Event{Type: EventType, Data: t, Sticky: true})
	}
}
