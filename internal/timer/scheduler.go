package timer

import (
	"container/heap"
	"time"
)

// Handle identifies a scheduled callback. Zero is never issued.
type Handle uint64

// Scheduler is a virtual-clock timer wheel driven by Advance.
// Due callbacks fire in ascending due time; callbacks sharing a due time fire
// in the order they were scheduled.
//
// Not safe for concurrent use: the combat pipeline runs on one logic goroutine.
type Scheduler struct {
	now    time.Duration
	seq    uint64
	next   Handle
	queue  timerHeap
	active map[Handle]*entry
}

type entry struct {
	handle   Handle
	due      time.Duration
	seq      uint64
	interval time.Duration
	fn       func()
	index    int
}

// New creates a Scheduler with the clock at zero.
func New() *Scheduler {
	return &Scheduler{
		queue:  make(timerHeap, 0, 64),
		active: make(map[Handle]*entry, 64),
	}
}

// Now returns the current virtual time.
func (s *Scheduler) Now() time.Duration {
	return s.now
}

// Pending returns the number of callbacks waiting to fire.
func (s *Scheduler) Pending() int {
	return len(s.active)
}

// ScheduleOnce fires fn once after delay. Negative delays are treated as zero.
func (s *Scheduler) ScheduleOnce(delay time.Duration, fn func()) Handle {
	if fn == nil {
		return 0
	}
	return s.push(max(delay, 0), 0, fn)
}

// ScheduleRepeating fires fn every interval until cancelled.
// Returns zero (and schedules nothing) when interval is not positive.
func (s *Scheduler) ScheduleRepeating(interval time.Duration, fn func()) Handle {
	if fn == nil || interval <= 0 {
		return 0
	}
	return s.push(interval, interval, fn)
}

// Cancel removes a pending callback. Returns false if the handle is unknown
// or already fired.
func (s *Scheduler) Cancel(h Handle) bool {
	e, ok := s.active[h]
	if !ok {
		return false
	}
	delete(s.active, h)
	if e.index >= 0 {
		heap.Remove(&s.queue, e.index)
	}
	return true
}

// Advance moves the clock forward by dt, firing every callback that becomes due.
// A repeating timer fires once per elapsed interval.
func (s *Scheduler) Advance(dt time.Duration) {
	target := s.now + max(dt, 0)

	for len(s.queue) > 0 && s.queue[0].due <= target {
		e := heap.Pop(&s.queue).(*entry)
		s.now = e.due

		if e.interval > 0 {
			// Rescheduled before the callback so it may cancel itself.
			s.seq++
			e.seq = s.seq
			e.due += e.interval
			heap.Push(&s.queue, e)
		} else {
			delete(s.active, e.handle)
		}

		e.fn()
	}

	s.now = target
}

func (s *Scheduler) push(delay, interval time.Duration, fn func()) Handle {
	s.next++
	s.seq++
	e := &entry{
		handle:   s.next,
		due:      s.now + delay,
		seq:      s.seq,
		interval: interval,
		fn:       fn,
	}
	s.active[e.handle] = e
	heap.Push(&s.queue, e)
	return e.handle
}

// timerHeap orders entries by (due, seq).
type timerHeap []*entry

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].seq < h[j].seq
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}
