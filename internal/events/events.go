// Package events publishes build-completed notifications to NATS when
// configured. Publishing is best effort; a broken broker never fails a build.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// BuildEvent is the payload published after each build attempt.
type BuildEvent struct {
	BuildID     string    `json:"build_id"`
	Status      string    `json:"status"` // "completed" or "failed"
	Pages       int       `json:"pages"`
	DurationMS  int64     `json:"duration_ms"`
	CompletedAt time.Time `json:"completed_at"`
}

// Publisher publishes build events to one NATS subject.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// Connect dials the NATS server. Callers should treat a connect failure as a
// disabled publisher, not a fatal error.
func Connect(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("sitebuilder"))
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	return &Publisher{conn: conn, subject: subject}, nil
}

// Publish sends one build event.
func (p *Publisher) Publish(event BuildEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal build event: %w", err)
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish build event: %w", err)
	}
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}
