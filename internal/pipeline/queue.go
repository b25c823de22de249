// ABOUTME: Bounded FIFO of chunks awaiting enrichment
// ABOUTME: Overflow evicts the oldest chunks so the newest work survives
package pipeline

import "github.com/harper/chunkstream/internal/models"

// chunkQueue is not safe for concurrent use; Pipeline guards it with its mutex.
//
// Pushing past capacity trims the queue to the newest trimTo chunks and puts
// it in overflow mode, where the limit stays at trimTo until the worker pops
// the queue below trimTo.
type chunkQueue struct {
	capacity   int
	trimTo     int
	overflowed bool
	items      []*models.Chunk
}

func newChunkQueue(capacity, trimTo int) *chunkQueue {
	if trimTo <= 0 || trimTo > capacity {
		trimTo = capacity
	}
	return &chunkQueue{capacity: capacity, trimTo: trimTo}
}

// limit is the length above which a push evicts
func (q *chunkQueue) limit() int {
	if q.overflowed {
		return q.trimTo
	}
	return q.capacity
}

// push appends to the tail, evicting from the head if the limit is exceeded.
// It returns how many chunks were evicted.
func (q *chunkQueue) push(c *models.Chunk) int {
	q.items = append(q.items, c)
	if len(q.items) <= q.limit() {
		return 0
	}
	q.overflowed = true
	evicted := len(q.items) - q.trimTo
	kept := make([]*models.Chunk, q.trimTo)
	copy(kept, q.items[evicted:])
	q.items = kept
	return evicted
}

// pop removes the head (oldest) chunk
func (q *chunkQueue) pop() (*models.Chunk, bool) {
	if len(q.items) == 0 {
		return nil, false
	}
	c := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	if len(q.items) < q.trimTo {
		q.overflowed = false
	}
	return c, true
}

func (q *chunkQueue) len() int {
	return len(q.items)
}

func (q *chunkQueue) clear() {
	q.items = nil
	q.overflowed = false
}

// snapshot returns the queued chunks oldest first
func (q *chunkQueue) snapshot() []*models.Chunk {
	out := make([]*models.Chunk, len(q.items))
	copy(out, q.items)
	return out
}
