// ABOUTME: LogPublisher writes every pipeline event to a structured logger
// ABOUTME: Used by the CLI and as the default sink when nothing else is wired
package events

import (
	"strings"

	"github.com/charmbracelet/log"

	"github.com/harper/chunkstream/internal/models"
)

// LogPublisher logs events at info level and errors at error level
type LogPublisher struct {
	logger *log.Logger
}

// NewLogPublisher creates a LogPublisher. A nil logger uses log.Default().
func NewLogPublisher(logger *log.Logger) *LogPublisher {
	if logger == nil {
		logger = log.Default()
	}
	return &LogPublisher{logger: logger.WithPrefix("events")}
}

func (p *LogPublisher) PublishChunk(e models.ChunkEvent) {
	p.logger.Info("chunk", "words", len(strings.Fields(e.Text)), "text", e.Text)
}

func (p *LogPublisher) PublishTopics(e models.TopicsEvent) {
	p.logger.Info("topics", "topics", e.Topics, "questions", e.Questions, "terms", e.Terms)
}

func (p *LogPublisher) PublishResearch(e models.ResearchEvent) {
	topics := make([]string, len(e.Summaries))
	for i, s := range e.Summaries {
		topics[i] = s.Topic
	}
	p.logger.Info("research", "summaries", len(e.Summaries), "topics", topics)
}

func (p *LogPublisher) PublishError(err error) {
	p.logger.Error("enrichment failed", "error", err)
}
