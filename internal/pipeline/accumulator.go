// ABOUTME: Accumulator appends transcript fragments into a running buffer
// ABOUTME: Tracks the word count and decides when the buffer is ready to be cut
package pipeline

import "strings"

// accumulator is not safe for concurrent use; Pipeline guards it with its mutex
type accumulator struct {
	minWords  int
	maxWords  int
	text      string
	wordCount int
}

func newAccumulator(minWords, maxWords int) *accumulator {
	return &accumulator{minWords: minWords, maxWords: maxWords}
}

// add appends the fragment and recomputes the word count. Blank fragments are
// ignored and reported as not added.
func (a *accumulator) add(fragment string) bool {
	if strings.TrimSpace(fragment) == "" {
		return false
	}
	a.text += " " + fragment
	a.wordCount = len(strings.Fields(a.text))
	return true
}

// ready reports whether the buffer crossed either cut threshold
func (a *accumulator) ready() bool {
	return a.wordCount >= a.minWords || a.wordCount >= a.maxWords
}

// cut returns the trimmed buffer text and resets the buffer. An empty buffer
// returns "".
func (a *accumulator) cut() string {
	text := strings.TrimSpace(a.text)
	a.reset()
	return text
}

// peek returns the trimmed buffer text without resetting it
func (a *accumulator) peek() string {
	return strings.TrimSpace(a.text)
}

func (a *accumulator) empty() bool {
	return a.wordCount == 0
}

func (a *accumulator) reset() {
	a.text = ""
	a.wordCount = 0
}
