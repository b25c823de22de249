// ABOUTME: Adapter from the typed Publisher to envelope-based transports
// ABOUTME: Shared by the NATS, WebSocket and MCP notification sinks
package events

import (
	"errors"

	"github.com/charmbracelet/log"

	"github.com/harper/chunkstream/internal/models"
)

var errUnknownEvent = errors.New("unknown event type")

// EnvelopeSender delivers one encoded event
type EnvelopeSender interface {
	SendEnvelope(env *models.Envelope) error
}

// EnvelopePublisher encodes each event and hands it to a sender. Send errors
// are logged and never propagated back into the pipeline.
type EnvelopePublisher struct {
	sender    EnvelopeSender
	sessionID func() string
	logger    *log.Logger
}

// NewEnvelopePublisher wraps sender. sessionID may be nil.
func NewEnvelopePublisher(sender EnvelopeSender, sessionID func() string, logger *log.Logger) *EnvelopePublisher {
	if logger == nil {
		logger = log.Default()
	}
	return &EnvelopePublisher{sender: sender, sessionID: sessionID, logger: logger}
}

func (p *EnvelopePublisher) PublishChunk(e models.ChunkEvent)       { p.send(e) }
func (p *EnvelopePublisher) PublishTopics(e models.TopicsEvent)     { p.send(e) }
func (p *EnvelopePublisher) PublishResearch(e models.ResearchEvent) { p.send(e) }
func (p *EnvelopePublisher) PublishError(err error)                 { p.send(err) }

func (p *EnvelopePublisher) send(event any) {
	sid := ""
	if p.sessionID != nil {
		sid = p.sessionID()
	}
	env, err := Encode(sid, event)
	if err != nil {
		p.logger.Error("encoding event", "error", err)
		return
	}
	if err := p.sender.SendEnvelope(env); err != nil {
		p.logger.Warn("delivering event", "kind", env.Kind, "error", err)
	}
}
