// ABOUTME: Transcript is one fragment of speech-to-text output
// ABOUTME: Only final transcripts are accumulated into chunks
package models

import "strings"

// TranscriptKind classifies a transcript fragment
type TranscriptKind string

const (
	TranscriptFinal   TranscriptKind = "final"
	TranscriptInterim TranscriptKind = "interim"
	TranscriptSystem  TranscriptKind = "system"
)

// IsValid returns true if the kind is one of the known kinds
func (k TranscriptKind) IsValid() bool {
	switch k {
	case TranscriptFinal, TranscriptInterim, TranscriptSystem:
		return true
	default:
		return false
	}
}

// Transcript is a typed fragment from the transcription layer
type Transcript struct {
	Kind TranscriptKind `json:"type"`
	Text string         `json:"text"`
}

// Accumulates reports whether the fragment should be fed into the buffer.
// An empty kind is treated like a bare string fragment.
func (t Transcript) Accumulates() bool {
	if strings.TrimSpace(t.Text) == "" {
		return false
	}
	return t.Kind == "" || t.Kind == TranscriptFinal
}

// ParseTranscriptLine parses "final: text", "interim: text", "system: text"
// or bare text into a Transcript. Unknown prefixes are kept as part of the
// text of a bare fragment.
func ParseTranscriptLine(line string) Transcript {
	line = strings.TrimSpace(line)
	if prefix, rest, ok := strings.Cut(line, ":"); ok {
		kind := TranscriptKind(strings.ToLower(strings.TrimSpace(prefix)))
		if kind.IsValid() {
			return Transcript{Kind: kind, Text: strings.TrimSpace(rest)}
		}
	}
	return Transcript{Text: line}
}
