// ABOUTME: Status is a point-in-time view of the pipeline
// ABOUTME: Returned by Pipeline.Status and the get_status MCP tool
package models

import "time"

// Status reports buffer, queue and processing state. LastProcessedTime is nil
// until the first enrichment cycle finishes.
type Status struct {
	SessionID         string          `json:"session_id"`
	State             ProcessingState `json:"state"`
	BufferWordCount   int             `json:"buffer_word_count"`
	QueueLength       int             `json:"queue_length"`
	IsProcessing      bool            `json:"is_processing"`
	LastProcessedTime *time.Time      `json:"last_processed_time,omitempty"`
	ContextWindowSize int             `json:"context_window_size"`
	DroppedChunks     int             `json:"dropped_chunks"`
}

// LastProcessed returns the time the last cycle finished, or the zero time
func (s Status) LastProcessed() time.Time {
	if s.LastProcessedTime == nil {
		return time.Time{}
	}
	return *s.LastProcessedTime
}
