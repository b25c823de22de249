// ABOUTME: Chunk is an immutable snapshot of accumulated transcript text
// ABOUTME: Created when the fragment buffer is cut, consumed by one enrichment cycle
package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Chunk is the unit of work handed to enrichment
type Chunk struct {
	ChunkID   string    `json:"chunk_id"`
	Sequence  int       `json:"sequence"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// NewChunk creates a chunk from buffer text. Empty text is rejected so that an
// empty chunk can never be produced.
func NewChunk(text string, sequence int) (*Chunk, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("cannot create chunk from empty text")
	}
	return &Chunk{
		ChunkID:   generateChunkID(),
		Sequence:  sequence,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// WordCount returns the whitespace-delimited token count of the chunk text
func (c *Chunk) WordCount() int {
	return len(strings.Fields(c.Text))
}

// generateChunkID generates a unique chunk ID
func generateChunkID() string {
	return "chunk_" + uuid.New().String()
}
