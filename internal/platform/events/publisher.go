package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	stan "github.com/nats-io/stan.go"
)

// Publisher sends an event payload to the bus.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload any) error
}

// Envelope wraps every published payload.
type Envelope struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// StanPublisher publishes events on a NATS Streaming subject.
type StanPublisher struct {
	conn    stan.Conn
	subject string
	now     func() time.Time
}

// StanOptions configures the streaming connection.
type StanOptions struct {
	URL       string
	ClusterID string
	ClientID  string
	Subject   string
}

// NewStanPublisher connects to the NATS Streaming cluster.
func NewStanPublisher(opts StanOptions) (*StanPublisher, error) {
	clientID := opts.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("marketplace-api-%d", time.Now().UnixNano())
	}
	sc, err := stan.Connect(opts.ClusterID, clientID, stan.NatsURL(opts.URL))
	if err != nil {
		return nil, fmt.Errorf("stan connect: %w", err)
	}
	return &StanPublisher{conn: sc, subject: opts.Subject, now: time.Now}, nil
}

// Publish blocks until the streaming server acknowledges the message.
func (p *StanPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(Envelope{Type: eventType, OccurredAt: p.now().UTC(), Data: payload})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", eventType, err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}
	return nil
}

// Close releases the streaming connection.
func (p *StanPublisher) Close() error {
	return p.conn.Close()
}

// Nop discards events. Used when no bus is configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }

var (
	_ Publisher = (*StanPublisher)(nil)
	_ Publisher = Nop{}
)
