// ABOUTME: ContextWindow keeps the most recent research results
// ABOUTME: Passed to the research fetcher so lookups have continuity
package pipeline

import (
	"sync"

	"github.com/harper/chunkstream/internal/models"
)

// ContextWindow is a bounded, ordered history of research results.
// No deduplication is performed.
type ContextWindow struct {
	mu       sync.Mutex
	capacity int
	results  []models.ResearchResult
}

// NewContextWindow creates a window holding at most capacity results
func NewContextWindow(capacity int) *ContextWindow {
	if capacity <= 0 {
		capacity = 1
	}
	return &ContextWindow{capacity: capacity}
}

// Append adds results then evicts from the front down to capacity
func (w *ContextWindow) Append(results ...models.ResearchResult) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.results = append(w.results, results...)
	if over := len(w.results) - w.capacity; over > 0 {
		kept := make([]models.ResearchResult, w.capacity)
		copy(kept, w.results[over:])
		w.results = kept
	}
}

// Clear empties the window
func (w *ContextWindow) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.results = nil
}

// Snapshot returns a copy of the window, most recent last
func (w *ContextWindow) Snapshot() []models.ResearchResult {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]models.ResearchResult, len(w.results))
	copy(out, w.results)
	return out
}

// Len returns the number of results held
func (w *ContextWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.results)
}
