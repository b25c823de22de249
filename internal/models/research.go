// ABOUTME: ResearchResult is one summary returned by the research fetcher
// ABOUTME: Recent results form the context window passed back to the fetcher
package models

import "time"

// ResearchResult is a summary keyed loosely by topic
type ResearchResult struct {
	Topic     string    `json:"topic"`
	Summary   string    `json:"summary"`
	Timestamp time.Time `json:"timestamp"`
}
