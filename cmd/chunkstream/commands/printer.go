// ABOUTME: Terminal sinks for pipeline events
// ABOUTME: Styled text lines for people, JSON envelope lines for scripts
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/harper/chunkstream/internal/models"
)

const maxPrintedChunk = 160

// textPrinter writes one labelled line per event
type textPrinter struct {
	w        io.Writer
	chunk    lipgloss.Style
	topics   lipgloss.Style
	research lipgloss.Style
	err      lipgloss.Style
	muted    lipgloss.Style
}

func newTextPrinter(w io.Writer) *textPrinter {
	r := lipgloss.NewRenderer(w)
	label := r.NewStyle().Bold(true).Width(9)
	return &textPrinter{
		w:        w,
		chunk:    label.Foreground(lipgloss.Color("12")),
		topics:   label.Foreground(lipgloss.Color("13")),
		research: label.Foreground(lipgloss.Color("10")),
		err:      label.Foreground(lipgloss.Color("9")),
		muted:    r.NewStyle().Faint(true),
	}
}

func (p *textPrinter) PublishChunk(e models.ChunkEvent) {
	fmt.Fprintf(p.w, "%s%s\n", p.chunk.Render("chunk"), truncate(e.Text, maxPrintedChunk))
}

func (p *textPrinter) PublishTopics(e models.TopicsEvent) {
	fmt.Fprintf(p.w, "%s%s\n", p.topics.Render("topics"), strings.Join(e.Topics, ", "))
	if len(e.Questions) > 0 {
		fmt.Fprintf(p.w, "%s%s\n", p.topics.Render(""), p.muted.Render("? "+strings.Join(e.Questions, " | ")))
	}
	if len(e.Terms) > 0 {
		fmt.Fprintf(p.w, "%s%s\n", p.topics.Render(""), p.muted.Render("terms: "+strings.Join(e.Terms, ", ")))
	}
}

func (p *textPrinter) PublishResearch(e models.ResearchEvent) {
	for _, s := range e.Summaries {
		fmt.Fprintf(p.w, "%s%s: %s\n", p.research.Render("research"), s.Topic, s.Summary)
	}
}

func (p *textPrinter) PublishError(err error) {
	fmt.Fprintf(p.w, "%s%v\n", p.err.Render("error"), err)
}

// jsonLines writes each envelope as one JSON line
type jsonLines struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newJSONLines(w io.Writer) *jsonLines {
	return &jsonLines{enc: json.NewEncoder(w)}
}

func (j *jsonLines) SendEnvelope(env *models.Envelope) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(env)
}
