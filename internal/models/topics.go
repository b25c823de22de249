// ABOUTME: TopicResult holds what the topic extractor found in a chunk
// ABOUTME: Three sets of short strings: topics, questions and terms
package models

// TopicResult is the structured output of topic extraction
type TopicResult struct {
	Topics    []string `json:"topics"`
	Questions []string `json:"questions"`
	Terms     []string `json:"terms"`
}

// IsEmpty returns true when nothing at all was extracted
func (r TopicResult) IsEmpty() bool {
	return len(r.Topics) == 0 && len(r.Questions) == 0 && len(r.Terms) == 0
}

// ResearchCandidates assembles the research query list: every topic, then at
// most the first question and the first term. No filtering is applied here.
func (r TopicResult) ResearchCandidates() []string {
	candidates := make([]string, 0, len(r.Topics)+2)
	candidates = append(candidates, r.Topics...)
	if len(r.Questions) > 0 {
		candidates = append(candidates, r.Questions[0])
	}
	if len(r.Terms) > 0 {
		candidates = append(candidates, r.Terms[0])
	}
	return candidates
}
