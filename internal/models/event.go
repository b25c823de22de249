// ABOUTME: Event payloads published by the pipeline
// ABOUTME: Four kinds (chunk, topics, research, error) plus a JSON wire envelope
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind names one of the four outbound event categories
type EventKind string

const (
	EventChunk    EventKind = "chunk"
	EventTopics   EventKind = "topics"
	EventResearch EventKind = "research"
	EventError    EventKind = "error"
)

// ChunkEvent announces a freshly cut chunk
type ChunkEvent struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// TopicsEvent carries a non-empty topic extraction result
type TopicsEvent struct {
	Topics    []string  `json:"topics"`
	Questions []string  `json:"questions"`
	Terms     []string  `json:"terms"`
	ChunkText string    `json:"chunkText"`
	Timestamp time.Time `json:"timestamp"`
}

// ResearchEvent carries the summaries of one research call
type ResearchEvent struct {
	Summaries []ResearchResult `json:"summaries"`
	Timestamp time.Time        `json:"timestamp"`
}

// ErrorEvent is the wire form of an enrichment error
type ErrorEvent struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Envelope wraps any event payload for transport (NATS, WebSocket, MCP)
type Envelope struct {
	Kind      EventKind       `json:"kind"`
	SessionID string          `json:"session_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// NewEnvelope marshals payload into an envelope of the given kind
func NewEnvelope(kind EventKind, sessionID string, payload any) (*Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return &Envelope{Kind: kind, SessionID: sessionID, Payload: raw}, nil
}

// NewErrorEvent converts an error into its wire form
func NewErrorEvent(err error) ErrorEvent {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return ErrorEvent{Message: msg, Timestamp: time.Now().UTC()}
}
