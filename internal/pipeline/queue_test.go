// ABOUTME: Tests for the chunk queue, context window and candidate filter
// ABOUTME: Verifies bounded eviction policies and research topic filtering
package pipeline

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/harper/chunkstream/internal/models"
)

func mustChunk(t *testing.T, seq int) *models.Chunk {
	t.Helper()
	c, err := models.NewChunk(fmt.Sprintf("chunk number %d", seq), seq)
	if err != nil {
		t.Fatalf("NewChunk() failed: %v", err)
	}
	return c
}

func sequences(chunks []*models.Chunk) []int {
	out := make([]int, len(chunks))
	for i, c := range chunks {
		out[i] = c.Sequence
	}
	return out
}

func TestChunkQueue_FIFO(t *testing.T) {
	q := newChunkQueue(20, 10)
	for i := 1; i <= 3; i++ {
		q.push(mustChunk(t, i))
	}
	for want := 1; want <= 3; want++ {
		c, ok := q.pop()
		if !ok || c.Sequence != want {
			t.Fatalf("pop() = %v, %v; want seq %d", c, ok, want)
		}
	}
	if _, ok := q.pop(); ok {
		t.Error("pop() on empty queue should report false")
	}
}

func TestChunkQueue_OverflowKeepsNewest(t *testing.T) {
	q := newChunkQueue(20, 10)

	totalEvicted := 0
	for i := 1; i <= 25; i++ {
		totalEvicted += q.push(mustChunk(t, i))
		if q.len() > 20 {
			t.Fatalf("queue length %d exceeds capacity after push %d", q.len(), i)
		}
	}

	if q.len() != 10 {
		t.Fatalf("len = %d, want 10", q.len())
	}
	want := []int{16, 17, 18, 19, 20, 21, 22, 23, 24, 25}
	if got := sequences(q.snapshot()); !reflect.DeepEqual(got, want) {
		t.Errorf("retained = %v, want %v", got, want)
	}
	if totalEvicted != 15 {
		t.Errorf("evicted = %d, want 15", totalEvicted)
	}
}

func TestChunkQueue_OverflowModeEndsBelowTrimTarget(t *testing.T) {
	q := newChunkQueue(4, 2)
	for i := 1; i <= 5; i++ {
		q.push(mustChunk(t, i))
	}
	if got := sequences(q.snapshot()); !reflect.DeepEqual(got, []int{4, 5}) {
		t.Fatalf("retained = %v, want [4 5]", got)
	}

	// One pop takes the queue below the trim target
	q.pop()
	if q.overflowed {
		t.Fatal("overflow mode should end once the queue is below the trim target")
	}

	// Full capacity is available again
	for i := 6; i <= 8; i++ {
		if evicted := q.push(mustChunk(t, i)); evicted != 0 {
			t.Fatalf("push %d evicted %d after leaving overflow mode", i, evicted)
		}
	}
	if got := sequences(q.snapshot()); !reflect.DeepEqual(got, []int{5, 6, 7, 8}) {
		t.Errorf("retained = %v, want [5 6 7 8]", got)
	}
}

func TestChunkQueue_SteadyBackpressure(t *testing.T) {
	q := newChunkQueue(20, 10)
	next := 1
	push := func() int {
		evicted := q.push(mustChunk(t, next))
		next++
		return evicted
	}

	for i := 0; i < 25; i++ {
		push()
	}
	if q.len() != 10 {
		t.Fatalf("len = %d after burst, want 10", q.len())
	}

	// A worker popping one chunk for every two arriving keeps the queue
	// between the trim target and capacity, never stuck at the trim target
	maxLen := 0
	for round := 0; round < 30; round++ {
		q.pop()
		push()
		push()
		if q.len() > 20 {
			t.Fatalf("round %d: len %d exceeds capacity", round, q.len())
		}
		maxLen = max(maxLen, q.len())
	}
	if maxLen <= 10 {
		t.Errorf("max len under steady load = %d, want the queue to grow past the trim target", maxLen)
	}

	// Retained chunks are always the newest, in order
	got := sequences(q.snapshot())
	for i := 1; i < len(got); i++ {
		if got[i] != got[i-1]+1 {
			t.Fatalf("retained chunks not contiguous: %v", got)
		}
	}
	if got[len(got)-1] != next-1 {
		t.Errorf("newest retained = %d, want %d", got[len(got)-1], next-1)
	}
}

func TestChunkQueue_Clear(t *testing.T) {
	q := newChunkQueue(2, 1)
	for i := 1; i <= 3; i++ {
		q.push(mustChunk(t, i))
	}
	q.clear()
	if q.len() != 0 || q.overflowed {
		t.Errorf("clear() left len=%d overflowed=%v", q.len(), q.overflowed)
	}
}

func TestContextWindow_EvictsOldest(t *testing.T) {
	w := NewContextWindow(5)
	for i := 1; i <= 4; i++ {
		w.Append(models.ResearchResult{Topic: fmt.Sprintf("t%d", i)})
	}
	w.Append(
		models.ResearchResult{Topic: "t5"},
		models.ResearchResult{Topic: "t6"},
		models.ResearchResult{Topic: "t7"},
	)

	if w.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", w.Len())
	}
	var got []string
	for _, r := range w.Snapshot() {
		got = append(got, r.Topic)
	}
	want := []string{"t3", "t4", "t5", "t6", "t7"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Snapshot() = %v, want %v", got, want)
	}
}

func TestContextWindow_NoDeduplication(t *testing.T) {
	w := NewContextWindow(5)
	r := models.ResearchResult{Topic: "same", Summary: "same", Timestamp: time.Unix(1, 0)}
	w.Append(r, r)
	if w.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (duplicates are kept)", w.Len())
	}
}

func TestContextWindow_SnapshotIsCopy(t *testing.T) {
	w := NewContextWindow(5)
	w.Append(models.ResearchResult{Topic: "a"})
	snap := w.Snapshot()
	snap[0].Topic = "mutated"
	if w.Snapshot()[0].Topic != "a" {
		t.Error("mutating a snapshot changed the window")
	}
	w.Clear()
	if w.Len() != 0 {
		t.Errorf("Len() after Clear = %d", w.Len())
	}
}

func TestFilterCandidates(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "keeps normal topics in order",
			in:   []string{"budget", "hiring plan"},
			want: []string{"budget", "hiring plan"},
		},
		{
			name: "drops empty and short",
			in:   []string{"", "  ", "ai", "GPU"},
			want: []string{"GPU"},
		},
		{
			name: "drops noise markers case-insensitively",
			in:   []string{"[BLANK_AUDIO]", "talk [Music] intro", "(inaudible) words", "real topic"},
			want: []string{"real topic"},
		},
		{
			name: "removes duplicates",
			in:   []string{"budget", " budget ", "forecast"},
			want: []string{"budget", "forecast"},
		},
		{
			name: "all filtered",
			in:   []string{"[NOISE]", "ok"},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := filterCandidates(tt.in)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("filterCandidates(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
