// Package events publishes scorecard change notifications.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sankalp-ai/sankalp/internal/types"
)

// SubjectScorecardUpdated carries the full scorecard after every successful write.
const SubjectScorecardUpdated = "sankalp.scorecard.updated"

// ScorecardUpdated is the message published on SubjectScorecardUpdated.
type ScorecardUpdated struct {
	ProposalID string           `json:"proposal_id"`
	Field      string           `json:"field"` // dimension name or "remarks"
	Scorecard  *types.Scorecard `json:"scorecard"`
	At         time.Time        `json:"at"`
}

// Publisher delivers scorecard events.
type Publisher interface {
	PublishScorecardUpdated(ctx context.Context, event *ScorecardUpdated) error
	Close() error
}

// Noop discards every event. It is used when no broker is configured.
type Noop struct{}

// PublishScorecardUpdated implements Publisher.
func (Noop) PublishScorecardUpdated(context.Context, *ScorecardUpdated) error { return nil }

// Close implements Publisher.
func (Noop) Close() error { return nil }

// NATSPublisher publishes events as JSON on core NATS subjects.
type NATSPublisher struct {
	conn *nats.Conn
}

// NewNATSPublisher connects to url.
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("sankalp"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn}, nil
}

// NewNATSPublisherFromConn wraps an existing connection.
func NewNATSPublisherFromConn(conn *nats.Conn) *NATSPublisher {
	return &NATSPublisher{conn: conn}
}

// PublishScorecardUpdated implements Publisher.
func (p *NATSPublisher) PublishScorecardUpdated(ctx context.Context, event *ScorecardUpdated) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode scorecard event: %w", err)
	}
	if err := p.conn.Publish(SubjectScorecardUpdated, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", SubjectScorecardUpdated, err)
	}
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	err := p.conn.Drain()
	p.conn.Close()
	return err
}

// Recorder keeps published events in memory. Tests use it to observe writes.
type Recorder struct {
	events chan *ScorecardUpdated
}

// NewRecorder creates a Recorder buffering up to size events.
func NewRecorder(size int) *Recorder {
	return &Recorder{events: make(chan *ScorecardUpdated, size)}
}

// PublishScorecardUpdated implements Publisher. It never blocks; events beyond the buffer are dropped.
func (r *Recorder) PublishScorecardUpdated(_ context.Context, event *ScorecardUpdated) error {
	select {
	case r.events <- event:
	default:
	}
	return nil
}

// Close implements Publisher.
func (r *Recorder) Close() error { return nil }

// Drain returns every event recorded so far.
func (r *Recorder) Drain() []*ScorecardUpdated {
	var out []*ScorecardUpdated
	for {
		select {
		case e := <-r.events:
			out = append(out, e)
		default:
			return out
		}
	}
}
