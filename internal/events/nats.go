// ABOUTME: NATS sink publishing pipeline events as JSON envelopes
// ABOUTME: One subject per event kind under a configurable prefix
package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/harper/chunkstream/internal/models"
)

// natsConn is the subset of *nats.Conn the sink needs
type natsConn interface {
	Publish(subj string, data []byte) error
}

// NATSSender publishes envelopes to <prefix>.<kind>
type NATSSender struct {
	conn   natsConn
	prefix string
}

// NewNATSSender wraps an established connection
func NewNATSSender(conn natsConn, prefix string) *NATSSender {
	if prefix == "" {
		prefix = "chunkstream"
	}
	return &NATSSender{conn: conn, prefix: prefix}
}

// Subject returns the subject events of kind are published on
func (s *NATSSender) Subject(kind models.EventKind) string {
	return s.prefix + "." + string(kind)
}

// SendEnvelope publishes env on its kind's subject
func (s *NATSSender) SendEnvelope(env *models.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return s.conn.Publish(s.Subject(env.Kind), payload)
}

// ConnectNATS dials url with a client name suitable for the event sink
func ConnectNATS(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url, nats.Name("chunkstream"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return nc, nil
}
