// ABOUTME: Idle trigger is a resettable single-shot timer
// ABOUTME: Forces a chunk cut after a period with no incoming fragments
package pipeline

import (
	"sync"
	"time"
)

// idleTrigger calls fire once delay has elapsed since the last Reset. fire
// receives the generation it was armed under so the callee can re-check it
// with current after taking its own locks. A zero delay disables the trigger.
type idleTrigger struct {
	delay time.Duration
	fire  func(gen uint64)

	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

func newIdleTrigger(delay time.Duration, fire func(gen uint64)) *idleTrigger {
	return &idleTrigger{delay: delay, fire: fire}
}

// Reset cancels any pending fire and arms a new one
func (t *idleTrigger) Reset() {
	if t.delay <= 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = time.AfterFunc(t.delay, func() {
		// A fire that raced a Reset or Stop belongs to an older arm
		t.mu.Lock()
		current := gen == t.gen
		if current {
			t.timer = nil
		}
		t.mu.Unlock()
		if current {
			t.fire(gen)
		}
	})
}

// Stop cancels any pending fire
func (t *idleTrigger) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

// Pending reports whether a fire is armed
func (t *idleTrigger) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

// current reports whether gen is still the latest arm, i.e. no Reset or Stop
// happened since
func (t *idleTrigger) current(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return gen == t.gen
}
