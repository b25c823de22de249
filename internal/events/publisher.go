// ABOUTME: Publisher is the typed outbound surface of the chunk pipeline
// ABOUTME: One method per event kind, plus fan-out and callback adapters
package events

import (
	"github.com/harper/chunkstream/internal/models"
)

// Publisher receives the four event kinds in the order the pipeline produces
// them. Implementations must not drop or coalesce events and should return
// quickly; slow consumers need their own buffering.
type Publisher interface {
	PublishChunk(models.ChunkEvent)
	PublishTopics(models.TopicsEvent)
	PublishResearch(models.ResearchEvent)
	PublishError(error)
}

// Funcs adapts optional callbacks to a Publisher. Nil callbacks are skipped.
type Funcs struct {
	OnChunk    func(models.ChunkEvent)
	OnTopics   func(models.TopicsEvent)
	OnResearch func(models.ResearchEvent)
	OnError    func(error)
}

func (f Funcs) PublishChunk(e models.ChunkEvent) {
	if f.OnChunk != nil {
		f.OnChunk(e)
	}
}

func (f Funcs) PublishTopics(e models.TopicsEvent) {
	if f.OnTopics != nil {
		f.OnTopics(e)
	}
}

func (f Funcs) PublishResearch(e models.ResearchEvent) {
	if f.OnResearch != nil {
		f.OnResearch(e)
	}
}

func (f Funcs) PublishError(err error) {
	if f.OnError != nil {
		f.OnError(err)
	}
}

// Discard is a Publisher that ignores everything
var Discard Publisher = Funcs{}

// Multi fans every event out to each publisher in order
type Multi []Publisher

// NewMulti builds a Multi, skipping nil publishers
func NewMulti(pubs ...Publisher) Multi {
	m := make(Multi, 0, len(pubs))
	for _, p := range pubs {
		if p != nil {
			m = append(m, p)
		}
	}
	return m
}

func (m Multi) PublishChunk(e models.ChunkEvent) {
	for _, p := range m {
		p.PublishChunk(e)
	}
}

func (m Multi) PublishTopics(e models.TopicsEvent) {
	for _, p := range m {
		p.PublishTopics(e)
	}
}

func (m Multi) PublishResearch(e models.ResearchEvent) {
	for _, p := range m {
		p.PublishResearch(e)
	}
}

func (m Multi) PublishError(err error) {
	for _, p := range m {
		p.PublishError(err)
	}
}

// Encode converts an event into its wire envelope. Unknown payload types
// return an error.
func Encode(sessionID string, event any) (*models.Envelope, error) {
	switch e := event.(type) {
	case models.ChunkEvent:
		return models.NewEnvelope(models.EventChunk, sessionID, e)
	case models.TopicsEvent:
		return models.NewEnvelope(models.EventTopics, sessionID, e)
	case models.ResearchEvent:
		return models.NewEnvelope(models.EventResearch, sessionID, e)
	case models.ErrorEvent:
		return models.NewEnvelope(models.EventError, sessionID, e)
	case error:
		return models.NewEnvelope(models.EventError, sessionID, models.NewErrorEvent(e))
	default:
		return nil, errUnknownEvent
	}
}
