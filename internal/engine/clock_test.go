package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2026, time.June, 13, 20, 0, 0, 0, time.UTC)

func TestManualSchedulerFiresInTimeOrder(t *testing.T) {
	s := NewManualScheduler(t0)

	var order []string
	s.AfterFunc(300*time.Millisecond, func() { order = append(order, "b") })
	s.AfterFunc(100*time.Millisecond, func() { order = append(order, "a") })
	s.AfterFunc(500*time.Millisecond, func() { order = append(order, "c") })

	s.Advance(400 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 1, s.PendingCount())

	s.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Equal(t, 0, s.PendingCount())
}

func TestManualSchedulerArmOrderBreaksTies(t *testing.T) {
	s := NewManualScheduler(t0)

	var order []string
	s.AfterFunc(time.Second, func() { order = append(order, "first") })
	s.AfterFunc(time.Second, func() { order = append(order, "second") })

	s.Advance(time.Second)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestManualSchedulerStoppedTimerNeverFires(t *testing.T) {
	s := NewManualScheduler(t0)

	fired := false
	timer := s.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second Stop should report already stopped")

	s.Advance(2 * time.Second)
	assert.False(t, fired)
}

func TestManualSchedulerNestedTimersFireWithinWindow(t *testing.T) {
	s := NewManualScheduler(t0)

	var order []string
	s.AfterFunc(100*time.Millisecond, func() {
		order = append(order, "outer")
		s.AfterFunc(100*time.Millisecond, func() {
			order = append(order, "inner")
		})
	})

	// One Advance spans both stages, like an open's expand-then-flip chain.
	s.Advance(time.Second)
	assert.Equal(t, []string{"outer", "inner"}, order)
	assert.Equal(t, t0.Add(time.Second), s.Now())
}

func TestManualSchedulerClockAdvancesToFireInstant(t *testing.T) {
	s := NewManualScheduler(t0)

	var seen time.Time
	s.AfterFunc(250*time.Millisecond, func() { seen = s.Now() })

	s.Advance(time.Second)
	assert.Equal(t, t0.Add(250*time.Millisecond), seen,
		"callback should observe its own fire instant, not the window end")
}
