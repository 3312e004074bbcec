// Package messaging publishes verification outcomes to NATS.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/titantech/kyc-gateway/internal/core/ports"
)

const DefaultSubject = "kyc.verification.completed"

// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	Publish(subj string, data []byte) error
	Status() nats.Status
	Drain() error
}

// NATSPublisher implements ports.EventPublisher on a core NATS subject.
type NATSPublisher struct {
	conn    conn
	subject string
	log     zerolog.Logger
}

var _ ports.EventPublisher = (*NATSPublisher)(nil)

// Connect dials NATS and returns a publisher for subject.
func Connect(url, subject string, log zerolog.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("kyc-gateway"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Info().Str("url", url).Str("subject", subject).Msg("connected to NATS")
	return newPublisher(nc, subject, log), nil
}

func newPublisher(c conn, subject string, log zerolog.Logger) *NATSPublisher {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSPublisher{conn: c, subject: subject, log: log}
}

// PublishVerificationCompleted sends the event as JSON. Delivery is at most once.
func (p *NATSPublisher) PublishVerificationCompleted(_ context.Context, event ports.VerificationCompleted) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal verification event: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		p.log.Error().Err(err).Str("user_id", event.UserID).Msg("failed to publish verification event")
		return fmt.Errorf("failed to publish verification event: %w", err)
	}

	p.log.Debug().Str("user_id", event.UserID).Str("subject", p.subject).Msg("verification event published")
	return nil
}

// Ping reports an error unless the connection is established.
func (p *NATSPublisher) Ping(_ context.Context) error {
	if s := p.conn.Status(); s != nats.CONNECTED {
		return fmt.Errorf("nats status %s", s)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// NopPublisher is used when NATS is not configured.
type NopPublisher struct{}

var _ ports.EventPublisher = NopPublisher{}

func (NopPublisher) PublishVerificationCompleted(context.Context, ports.VerificationCompleted) error {
	return nil
}
