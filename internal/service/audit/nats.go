package audit

import (
	"context"
	"encoding/json"

	"github.com/nkiryanov/vidtube/internal/logger"
)

const DefaultSubjectPrefix = "vidtube.audit"

// Publisher is the part of *nats.Conn the sink needs
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes events as JSON to "<prefix>.<event type>"
type NATSSink struct {
	conn   Publisher
	prefix string
	log    logger.Logger
}

func NewNATSSink(conn Publisher, prefix string, l logger.Logger) *NATSSink {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSSink{conn: conn, prefix: prefix, log: l}
}

func (s *NATSSink) Subject(t EventType) string {
	return s.prefix + "." + string(t)
}

func (s *NATSSink) Record(_ context.Context, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		s.log.Error("can't encode audit event", "type", string(event.Type), "error", err)
		return
	}

	if err := s.conn.Publish(s.Subject(event.Type), data); err != nil {
		s.log.Error("can't publish audit event", "type", string(event.Type), "error", err)
	}
}
