package daemon

import "time"

type Timer interface {
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

func nowMillis(clock Clock) int64 {
	return clock.Now().UnixMilli()
}

// singleSlotTimer holds at most one pending callback. Scheduling replaces
// the pending one. Callbacks run on the event loop and a generation counter
// drops fires that were superseded after the underlying timer had already
// expired. All methods must be called from the loop.
type singleSlotTimer struct {
	clock   Clock
	loop    *EventLoop
	timer   Timer
	gen     uint64
	pending bool
}

func newSingleSlotTimer(clock Clock, loop *EventLoop) *singleSlotTimer {
	return &singleSlotTimer{clock: clock, loop: loop}
}

func (t *singleSlotTimer) Schedule(d time.Duration, fn func()) {
	t.Cancel()
	if d < 0 {
		d = 0
	}
	t.gen++
	gen := t.gen
	t.pending = true
	t.timer = t.clock.AfterFunc(d, func() {
		t.loop.Post(func() {
			if gen != t.gen || !t.pending {
				return
			}
			t.pending = false
			t.timer = nil
			fn()
		})
	})
}

func (t *singleSlotTimer) Cancel() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.pending = false
	t.gen++
}

func (t *singleSlotTimer) Pending() bool {
	return t.pending
}
