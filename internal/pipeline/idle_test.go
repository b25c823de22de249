// ABOUTME: Tests for the resettable idle trigger
// ABOUTME: Verifies firing, re-arming on reset, stop and the disabled mode
package pipeline

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIdleTrigger_Fires(t *testing.T) {
	var fired atomic.Int32
	trig := newIdleTrigger(20*time.Millisecond, func(uint64) { fired.Add(1) })

	trig.Reset()
	require.True(t, trig.Pending())
	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.False(t, trig.Pending())
}

func TestIdleTrigger_ResetPostpones(t *testing.T) {
	var fired atomic.Int32
	trig := newIdleTrigger(60*time.Millisecond, func(uint64) { fired.Add(1) })
	defer trig.Stop()

	trig.Reset()
	for i := 0; i < 4; i++ {
		time.Sleep(20 * time.Millisecond)
		trig.Reset()
	}
	require.Equal(t, int32(0), fired.Load(), "trigger fired while being reset")

	require.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(1), fired.Load(), "single-shot trigger fired more than once")
}

func TestIdleTrigger_Stop(t *testing.T) {
	var fired atomic.Int32
	trig := newIdleTrigger(20*time.Millisecond, func(uint64) { fired.Add(1) })

	trig.Reset()
	trig.Stop()
	require.False(t, trig.Pending())
	time.Sleep(60 * time.Millisecond)
	require.Equal(t, int32(0), fired.Load())
}

func TestIdleTrigger_ZeroDelayDisabled(t *testing.T) {
	trig := newIdleTrigger(0, func(uint64) { t.Error("disabled trigger fired") })
	trig.Reset()
	require.False(t, trig.Pending())
}

func TestIdleTrigger_CurrentTracksResets(t *testing.T) {
	var armed atomic.Uint64
	trig := newIdleTrigger(10*time.Millisecond, func(gen uint64) { armed.Store(gen) })

	trig.Reset()
	require.Eventually(t, func() bool { return armed.Load() != 0 }, time.Second, time.Millisecond)
	gen := armed.Load()
	require.True(t, trig.current(gen))

	trig.Reset()
	defer trig.Stop()
	require.False(t, trig.current(gen), "a fire from before Reset must be stale")
}
