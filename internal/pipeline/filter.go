// ABOUTME: Filters research candidates extracted from a chunk
// ABOUTME: Drops blanks, very short strings and transcription noise markers
package pipeline

import (
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
)

const minCandidateLength = 3

// noiseMarkers are tokens speech-to-text engines emit for non-speech audio.
// Matched case-insensitively anywhere in a candidate.
var noiseMarkers = []string{
	"[blank_audio]",
	"[inaudible]",
	"(inaudible)",
	"[music]",
	"(music)",
	"[noise]",
	"[silence]",
	"[laughter]",
	"[applause]",
	"[no speech]",
}

// filterCandidates returns the usable research topics in their original order
// with duplicates removed
func filterCandidates(candidates []string) []string {
	cleaned := lo.FilterMap(candidates, func(c string, _ int) (string, bool) {
		c = strings.TrimSpace(c)
		if utf8.RuneCountInString(c) < minCandidateLength {
			return "", false
		}
		return c, !containsNoise(c)
	})
	return lo.Uniq(cleaned)
}

func containsNoise(s string) bool {
	lower := strings.ToLower(s)
	return lo.ContainsBy(noiseMarkers, func(marker string) bool {
		return strings.Contains(lower, marker)
	})
}
