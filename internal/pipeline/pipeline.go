// ABOUTME: Pipeline turns a live transcript stream into chunks and enriches them one at a time
// ABOUTME: Owns the buffer, chunk queue, context window, idle trigger and single-flight worker
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/harper/chunkstream/internal/config"
	"github.com/harper/chunkstream/internal/events"
	"github.com/harper/chunkstream/internal/models"
)

// ErrClosed is returned by operations on a closed pipeline
var ErrClosed = errors.New("pipeline closed")

// TopicExtractor finds topics, questions and terms in a chunk of text
type TopicExtractor interface {
	ExtractTopics(ctx context.Context, text string) (models.TopicResult, error)
}

// ResearchFetcher looks up summaries for topics, given the live transcript
// and the most recent prior results
type ResearchFetcher interface {
	FetchResearch(ctx context.Context, topics []string, liveContext string, prior []models.ResearchResult) ([]models.ResearchResult, error)
}

// Options tunes chunking and enrichment
type Options struct {
	MinWordsPerChunk      int
	MaxBufferWords        int
	IdleTimeout           time.Duration // 0 disables the idle trigger
	QueueCapacity         int
	QueueTrimTo           int
	ContextWindowCapacity int
	Cooldown              time.Duration
	CycleTimeout          time.Duration // 0 means enrichment calls are unbounded
	Logger                *log.Logger
}

// DefaultOptions returns the standard chunking and enrichment settings
func DefaultOptions() Options {
	return OptionsFromConfig(config.Default())
}

// OptionsFromConfig maps the loaded configuration onto pipeline options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MinWordsPerChunk:      cfg.MinWordsPerChunk,
		MaxBufferWords:        cfg.MaxBufferWords,
		IdleTimeout:           cfg.IdleTimeout,
		QueueCapacity:         cfg.QueueCapacity,
		QueueTrimTo:           cfg.QueueTrimTo,
		ContextWindowCapacity: cfg.ContextWindowCapacity,
		Cooldown:              cfg.Cooldown,
		CycleTimeout:          cfg.CycleTimeout,
	}
}

func (o Options) validate() error {
	if o.MinWordsPerChunk <= 0 || o.MaxBufferWords <= 0 {
		return fmt.Errorf("word thresholds must be positive (min=%d max=%d)", o.MinWordsPerChunk, o.MaxBufferWords)
	}
	if o.QueueCapacity <= 0 || o.QueueTrimTo <= 0 || o.QueueTrimTo > o.QueueCapacity {
		return fmt.Errorf("queue trim target must be 1-%d, got %d", o.QueueCapacity, o.QueueTrimTo)
	}
	if o.ContextWindowCapacity <= 0 {
		return fmt.Errorf("context window capacity must be positive, got %d", o.ContextWindowCapacity)
	}
	if o.IdleTimeout < 0 || o.Cooldown < 0 || o.CycleTimeout < 0 {
		return errors.New("durations must not be negative")
	}
	return nil
}

// Pipeline is scoped to one conversation session at a time. Create one with
// New and pass it to the transcription and event layers.
//
// Lock order: feedMu, then pubMu, then mu. mu is never held across a call
// to the extractor, the fetcher or the publisher.
type Pipeline struct {
	opts      Options
	extractor TopicExtractor
	fetcher   ResearchFetcher
	publisher events.Publisher
	logger    *log.Logger

	// feedMu serializes producer-side operations so chunk events and queue
	// order follow cut order
	feedMu sync.Mutex
	// pubMu serializes publisher calls
	pubMu sync.Mutex

	mu            sync.Mutex
	state         models.ProcessingState
	buffer        *accumulator
	queue         *chunkQueue
	sessionID     string
	sequence      int
	lastProcessed time.Time
	dropped       int
	cycleGen      uint64
	cancelCycle   context.CancelFunc
	changed       chan struct{}
	closed        bool

	window *ContextWindow
	idle   *idleTrigger

	baseCtx    context.Context
	baseCancel context.CancelFunc
	done       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

// New creates a pipeline with a fresh session. fetcher may be nil, in which
// case research lookups are skipped. A nil publisher discards events.
func New(extractor TopicExtractor, fetcher ResearchFetcher, publisher events.Publisher, opts Options) (*Pipeline, error) {
	if extractor == nil {
		return nil, errors.New("topic extractor is required")
	}
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline options: %w", err)
	}
	if publisher == nil {
		publisher = events.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		opts:       opts,
		extractor:  extractor,
		fetcher:    fetcher,
		publisher:  publisher,
		logger:     logger.WithPrefix("pipeline"),
		state:      models.StateIdle,
		buffer:     newAccumulator(opts.MinWordsPerChunk, opts.MaxBufferWords),
		queue:      newChunkQueue(opts.QueueCapacity, opts.QueueTrimTo),
		sessionID:  uuid.New().String(),
		changed:    make(chan struct{}),
		window:     NewContextWindow(opts.ContextWindowCapacity),
		baseCtx:    ctx,
		baseCancel: cancel,
		done:       make(chan struct{}),
	}
	p.idle = newIdleTrigger(opts.IdleTimeout, p.onIdle)
	return p, nil
}

// AddFragment appends a fragment of final transcript text. Blank fragments
// are ignored. A chunk is cut when either word threshold is reached, and the
// idle trigger is re-armed either way.
func (p *Pipeline) AddFragment(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	p.feedMu.Lock()
	defer p.feedMu.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.buffer.add(text)
	var chunk *models.Chunk
	if p.buffer.ready() {
		chunk = p.cutLocked()
	}
	p.refreshStateLocked()
	p.mu.Unlock()

	p.idle.Reset()

	if chunk != nil {
		p.dispatch(chunk)
	}
}

// AddTranscript feeds a typed fragment. Only final (or untyped) fragments are
// accumulated; interim and system fragments are ignored.
func (p *Pipeline) AddTranscript(t models.Transcript) {
	if !t.Accumulates() {
		return
	}
	p.AddFragment(t.Text)
}

// Flush cuts the buffer into a chunk regardless of threshold. It reports
// whether a chunk was produced; an empty buffer produces nothing.
func (p *Pipeline) Flush() bool {
	p.feedMu.Lock()
	defer p.feedMu.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	chunk := p.cutLocked()
	p.refreshStateLocked()
	p.mu.Unlock()

	p.idle.Stop()

	if chunk == nil {
		return false
	}
	p.dispatch(chunk)
	return true
}

// Clear empties the buffer, the queue and the context window, stops the idle
// trigger and abandons any in-flight cycle. Results of an abandoned cycle are
// never published.
func (p *Pipeline) Clear() {
	p.feedMu.Lock()
	defer p.feedMu.Unlock()
	p.pubMu.Lock()
	defer p.pubMu.Unlock()

	p.mu.Lock()
	p.resetLocked()
	p.mu.Unlock()

	p.idle.Stop()
	p.logger.Debug("cleared")
}

// StartSession clears all state and begins a new session, returning its ID
func (p *Pipeline) StartSession() string {
	p.Clear()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessionID = uuid.New().String()
	p.sequence = 0
	p.logger.Info("session started", "session", p.sessionID)
	return p.sessionID
}

// EndSession flushes remaining buffer content into a final chunk and waits
// for the queue to drain
func (p *Pipeline) EndSession(ctx context.Context) error {
	if p.isClosed() {
		return ErrClosed
	}
	p.Flush()
	if err := p.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for enrichment to drain: %w", err)
	}
	p.logger.Info("session ended", "session", p.SessionID())
	return nil
}

// Wait blocks until the queue is empty and no cycle is in flight
func (p *Pipeline) Wait(ctx context.Context) error {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return ErrClosed
		}
		if p.state != models.StateEnriching && p.queue.len() == 0 {
			p.mu.Unlock()
			return nil
		}
		changed := p.changed
		p.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops the idle trigger, abandons any in-flight cycle and waits for
// worker goroutines to exit. Later operations are no-ops.
func (p *Pipeline) Close() error {
	p.closeOnce.Do(func() {
		p.feedMu.Lock()
		p.pubMu.Lock()
		p.mu.Lock()
		p.resetLocked()
		p.closed = true
		p.mu.Unlock()
		p.pubMu.Unlock()
		p.feedMu.Unlock()

		p.idle.Stop()
		close(p.done)
		p.baseCancel()
	})
	p.wg.Wait()
	return nil
}

// Status returns a snapshot of buffer, queue and processing state
func (p *Pipeline) Status() models.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := models.Status{
		SessionID:         p.sessionID,
		State:             p.state,
		BufferWordCount:   p.buffer.wordCount,
		QueueLength:       p.queue.len(),
		IsProcessing:      p.state == models.StateEnriching,
		ContextWindowSize: p.window.Len(),
		DroppedChunks:     p.dropped,
	}
	if !p.lastProcessed.IsZero() {
		last := p.lastProcessed
		st.LastProcessedTime = &last
	}
	return st
}

// SessionID returns the current session's ID
func (p *Pipeline) SessionID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionID
}

// ContextWindow returns the recent research results, most recent last
func (p *Pipeline) ContextWindow() []models.ResearchResult {
	return p.window.Snapshot()
}

// onIdle runs when no fragment arrived within the idle timeout. Producers
// reset the trigger under feedMu, so a fire that lost the race for feedMu to
// a new fragment sees a stale generation and leaves the buffer alone.
func (p *Pipeline) onIdle(gen uint64) {
	p.feedMu.Lock()
	defer p.feedMu.Unlock()

	if !p.idle.current(gen) {
		return
	}

	p.mu.Lock()
	if p.closed || p.buffer.empty() {
		p.mu.Unlock()
		return
	}
	chunk := p.cutLocked()
	p.refreshStateLocked()
	p.mu.Unlock()

	if chunk != nil {
		p.logger.Debug("idle timeout, cut buffer", "chunk", chunk.ChunkID)
		p.dispatch(chunk)
	}
}

// cutLocked moves the buffer into a new chunk, or returns nil if it is empty
func (p *Pipeline) cutLocked() *models.Chunk {
	text := p.buffer.cut()
	if text == "" {
		return nil
	}
	p.sequence++
	chunk, err := models.NewChunk(text, p.sequence)
	if err != nil {
		return nil
	}
	return chunk
}

// dispatch publishes the chunk event, enqueues the chunk and wakes the
// worker. Callers hold feedMu.
func (p *Pipeline) dispatch(chunk *models.Chunk) {
	p.pubMu.Lock()
	p.publisher.PublishChunk(models.ChunkEvent{Text: chunk.Text, Timestamp: chunk.CreatedAt})
	p.pubMu.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	evicted := p.queue.push(chunk)
	p.dropped += evicted
	queued := p.queue.len()
	p.notifyLocked()
	p.mu.Unlock()

	if evicted > 0 {
		p.logger.Warn("chunk queue overflow, dropped oldest chunks", "dropped", evicted, "queued", queued)
	}
	p.logger.Debug("chunk queued", "chunk", chunk.ChunkID, "seq", chunk.Sequence, "queued", queued)

	p.kick()
}

// kick starts a cycle for the head chunk unless one is already in flight
func (p *Pipeline) kick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.queue.len() == 0 {
		return
	}
	next, err := p.state.Transition(models.StateEnriching)
	if err != nil {
		return
	}
	chunk, _ := p.queue.pop()
	p.state = next

	ctx, cancel := context.WithCancel(p.baseCtx)
	if p.opts.CycleTimeout > 0 {
		var timeoutCancel context.CancelFunc
		ctx, timeoutCancel = context.WithTimeout(ctx, p.opts.CycleTimeout)
		parentCancel := cancel
		cancel = func() {
			timeoutCancel()
			parentCancel()
		}
	}
	p.cycleGen++
	p.cancelCycle = cancel
	p.notifyLocked()

	p.wg.Add(1)
	go p.runCycle(ctx, cancel, p.cycleGen, chunk)
}

func (p *Pipeline) runCycle(ctx context.Context, cancel context.CancelFunc, gen uint64, chunk *models.Chunk) {
	defer p.wg.Done()
	defer cancel()

	start := time.Now()
	p.logger.Debug("enrichment started", "chunk", chunk.ChunkID)
	p.enrich(ctx, gen, chunk)

	if !p.finishCycle(gen) {
		return
	}
	p.logger.Debug("enrichment finished", "chunk", chunk.ChunkID, "took", time.Since(start))

	if p.opts.Cooldown > 0 {
		t := time.NewTimer(p.opts.Cooldown)
		select {
		case <-t.C:
		case <-p.done:
			t.Stop()
			return
		}
	}
	p.kick()
}

// enrich runs topic extraction and, when topics were found, research lookup.
// Errors and panics from either collaborator become error events.
func (p *Pipeline) enrich(ctx context.Context, gen uint64, chunk *models.Chunk) {
	defer func() {
		if r := recover(); r != nil {
			p.emitError(gen, fmt.Errorf("enrichment panic for %s: %v", chunk.ChunkID, r))
		}
	}()

	topics, err := p.extractor.ExtractTopics(ctx, chunk.Text)
	if err != nil {
		p.emitError(gen, fmt.Errorf("extracting topics for %s: %w", chunk.ChunkID, err))
		return
	}
	if topics.IsEmpty() {
		return
	}

	published := p.emit(gen, func() {
		p.publisher.PublishTopics(models.TopicsEvent{
			Topics:    topics.Topics,
			Questions: topics.Questions,
			Terms:     topics.Terms,
			ChunkText: chunk.Text,
			Timestamp: time.Now().UTC(),
		})
	})
	if !published || p.fetcher == nil {
		return
	}

	candidates := filterCandidates(topics.ResearchCandidates())
	if len(candidates) == 0 {
		return
	}

	p.mu.Lock()
	live := p.buffer.peek()
	p.mu.Unlock()

	results, err := p.fetcher.FetchResearch(ctx, candidates, live, p.window.Snapshot())
	if err != nil {
		p.emitError(gen, fmt.Errorf("fetching research for %s: %w", chunk.ChunkID, err))
		return
	}
	if len(results) == 0 {
		return
	}

	now := time.Now().UTC()
	for i := range results {
		if results[i].Timestamp.IsZero() {
			results[i].Timestamp = now
		}
	}
	p.emit(gen, func() {
		p.window.Append(results...)
		p.publisher.PublishResearch(models.ResearchEvent{Summaries: results, Timestamp: now})
	})
}

// emit runs fn under pubMu if cycle gen is still current. It reports whether
// fn ran.
func (p *Pipeline) emit(gen uint64, fn func()) bool {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()

	p.mu.Lock()
	current := !p.closed && gen == p.cycleGen
	p.mu.Unlock()

	if current {
		fn()
	}
	return current
}

func (p *Pipeline) emitError(gen uint64, err error) {
	if !p.emit(gen, func() { p.publisher.PublishError(err) }) {
		p.logger.Debug("dropping error from abandoned cycle", "error", err)
	}
}

// finishCycle leaves StateEnriching. It returns false if the cycle was
// abandoned by Clear or Close, in which case state is left untouched.
func (p *Pipeline) finishCycle(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || gen != p.cycleGen || p.state != models.StateEnriching {
		return false
	}
	p.state = models.StateIdle
	p.refreshStateLocked()
	p.lastProcessed = time.Now().UTC()
	p.cancelCycle = nil
	p.notifyLocked()
	return true
}

// resetLocked returns every session-scoped field to empty
func (p *Pipeline) resetLocked() {
	p.buffer.reset()
	p.queue.clear()
	p.window.Clear()
	if p.cancelCycle != nil {
		p.cancelCycle()
		p.cancelCycle = nil
	}
	p.cycleGen++
	p.dropped = 0
	p.state = models.StateIdle
	p.notifyLocked()
}

// refreshStateLocked moves between Idle and Accumulating outside a cycle
func (p *Pipeline) refreshStateLocked() {
	if p.state == models.StateEnriching {
		return
	}
	if p.buffer.empty() {
		p.state = models.StateIdle
	} else {
		p.state = models.StateAccumulating
	}
}

// notifyLocked wakes everything blocked in Wait
func (p *Pipeline) notifyLocked() {
	close(p.changed)
	p.changed = make(chan struct{})
}

func (p *Pipeline) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
