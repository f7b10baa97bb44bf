// Package audit records security relevant account events
//
// Sinks never return errors: a broken sink must not fail the operation that emitted the event
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/vidtube/internal/logger"
)

type EventType string

const (
	EventRegister       EventType = "register"
	EventLogin          EventType = "login"
	EventLogout         EventType = "logout"
	EventRefresh        EventType = "refresh"
	EventTokenReuse     EventType = "token_reuse"
	EventPasswordChange EventType = "password_change"
	EventAccountUpdate  EventType = "account_update"
)

type Event struct {
	Type    EventType `json:"type"`
	UserID  uuid.UUID `json:"userId"`
	Success bool      `json:"success"`
	Reason  string    `json:"reason,omitempty"`
	Time    time.Time `json:"time"`
}

type Sink interface {
	Record(ctx context.Context, event Event)
}

type NoOp struct{}

func (NoOp) Record(context.Context, Event) {}

// Multi fans out every event to all sinks in order
type Multi []Sink

func (m Multi) Record(ctx context.Context, event Event) {
	for _, s := range m {
		s.Record(ctx, event)
	}
}

// LogSink writes events to the service log
// Failed events and token reuse are logged at warn level
type LogSink struct {
	log logger.Logger
}

func NewLogSink(l logger.Logger) *LogSink {
	return &LogSink{log: l.With("component", "audit")}
}

func (s *LogSink) Record(_ context.Context, event Event) {
	args := []any{
		"type", string(event.Type),
		"user_id", event.UserID.String(),
		"success", event.Success,
	}
	if event.Reason != "" {
		args = append(args, "reason", event.Reason)
	}

	if !event.Success || event.Type == EventTokenReuse {
		s.log.Warn("audit event", args...)
		return
	}
	s.log.Info("audit event", args...)
}
