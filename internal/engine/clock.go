package engine

import (
	"sort"
	"time"
)

// Timer is the handle for a pending scheduled callback.
type Timer interface {
	// Stop cancels the pending fire. Returns false when the callback has
	// already run or the timer was already stopped.
	Stop() bool
}

// Scheduler arms cancellable one-shot timers. Callbacks fire in
// non-decreasing time order relative to the same reference instant and are
// serialized with all other engine work.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

// WallScheduler schedules against the wall clock. Every callback is routed
// through the dispatch function so it runs on the engine's logical thread.
type WallScheduler struct {
	dispatch func(fn func())
}

// NewWallScheduler creates a wall-clock scheduler. dispatch must serialize
// the given function with all other engine mutation.
func NewWallScheduler(dispatch func(fn func())) *WallScheduler {
	return &WallScheduler{dispatch: dispatch}
}

func (s *WallScheduler) Now() time.Time {
	return time.Now()
}

func (s *WallScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	wt := &wallTimer{}
	wt.t = time.AfterFunc(d, func() {
		s.dispatch(func() {
			// Stop and fire are both serialized by dispatch, so a plain
			// flag is enough to suppress a fire that lost the race.
			if wt.stopped {
				return
			}
			wt.fired = true
			fn()
		})
	})
	return wt
}

type wallTimer struct {
	t       *time.Timer
	stopped bool
	fired   bool
}

func (wt *wallTimer) Stop() bool {
	if wt.stopped || wt.fired {
		return false
	}
	wt.stopped = true
	wt.t.Stop()
	return true
}

// ManualScheduler is a deterministic scheduler for tests and scripted
// scenario runs. Time only moves when Advance is called; due callbacks run
// synchronously in (fire time, arm order) sequence.
type ManualScheduler struct {
	now     time.Time
	seq     int
	pending []*manualTimer
}

// NewManualScheduler creates a manual scheduler starting at the given instant.
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

func (s *ManualScheduler) Now() time.Time {
	return s.now
}

func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	s.seq++
	mt := &manualTimer{at: s.now.Add(d), seq: s.seq, fn: fn}
	s.pending = append(s.pending, mt)
	return mt
}

// Advance moves time forward by d, firing every due timer in order. Callbacks
// may arm new timers; those fire too when they fall within the window.
func (s *ManualScheduler) Advance(d time.Duration) {
	target := s.now.Add(d)
	for {
		next := s.nextDue(target)
		if next == nil {
			break
		}
		s.now = next.at
		next.fired = true
		next.fn()
	}
	s.now = target
	s.compact()
}

// PendingCount returns the number of armed, unfired timers.
func (s *ManualScheduler) PendingCount() int {
	n := 0
	for _, mt := range s.pending {
		if !mt.fired && !mt.stopped {
			n++
		}
	}
	return n
}

func (s *ManualScheduler) nextDue(target time.Time) *manualTimer {
	var due *manualTimer
	for _, mt := range s.pending {
		if mt.fired || mt.stopped || mt.at.After(target) {
			continue
		}
		if due == nil || mt.at.Before(due.at) || (mt.at.Equal(due.at) && mt.seq < due.seq) {
			due = mt
		}
	}
	return due
}

func (s *ManualScheduler) compact() {
	live := s.pending[:0]
	for _, mt := range s.pending {
		if !mt.fired && !mt.stopped {
			live = append(live, mt)
		}
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].at.Equal(live[j].at) {
			return live[i].seq < live[j].seq
		}
		return live[i].at.Before(live[j].at)
	})
	s.pending = live
}

type manualTimer struct {
	at      time.Time
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func (mt *manualTimer) Stop() bool {
	if mt.stopped || mt.fired {
		return false
	}
	mt.stopped = true
	return true
}
