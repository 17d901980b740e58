package dispatch

import (
	"container/heap"
	"time"

	"github.com/dirpx/cobject/kernel"
)

// timerRecord is one armed timer: an id, its repeat interval, the next
// deadline it fires at, and the object that owns it.
type timerRecord struct {
	id         int
	intervalMs int
	deadline   time.Time
	receiver   *kernel.Object
	index      int
}

// timerTable is a deadline-ordered min-heap of timerRecord, grounded on
// momentics-hioload-ws/internal/concurrency/scheduler.go's container/heap
// taskHeap (pack repo) and structurally parallel to the teacher's own
// internal/heap.go bucket-heap — same insert/remove/drain trio, keyed here
// by wall-clock deadline instead of dependency height. Every Dispatcher
// owns exactly one timerTable, guarded by the Dispatcher's own mutex
// rather than one of its own.
type timerTable struct {
	records []*timerRecord
	nextID  int
}

func newTimerTable() *timerTable { return &timerTable{} }

func (t *timerTable) Len() int { return len(t.records) }
func (t *timerTable) Less(i, j int) bool {
	return t.records[i].deadline.Before(t.records[j].deadline)
}
func (t *timerTable) Swap(i, j int) {
	t.records[i], t.records[j] = t.records[j], t.records[i]
	t.records[i].index = i
	t.records[j].index = j
}
func (t *timerTable) Push(x any) {
	r := x.(*timerRecord)
	r.index = len(t.records)
	t.records = append(t.records, r)
}
func (t *timerTable) Pop() any {
	n := len(t.records)
	r := t.records[n-1]
	t.records[n-1] = nil
	t.records = t.records[:n-1]
	return r
}

// add arms a new repeating timer and returns its id.
func (t *timerTable) add(intervalMs int, receiver *kernel.Object) int {
	t.nextID++
	rec := &timerRecord{
		id:         t.nextID,
		intervalMs: intervalMs,
		deadline:   time.Now().Add(time.Duration(intervalMs) * time.Millisecond),
		receiver:   receiver,
	}
	heap.Push(t, rec)
	return rec.id
}

// remove cancels the timer with the given id, if present.
func (t *timerTable) remove(id int) bool {
	for i, r := range t.records {
		if r.id == id {
			heap.Remove(t, i)
			return true
		}
	}
	return false
}

// removeReceiver cancels every timer owned by receiver.
func (t *timerTable) removeReceiver(receiver *kernel.Object) {
	for i := 0; i < len(t.records); {
		if t.records[i].receiver == receiver {
			heap.Remove(t, i)
			continue
		}
		i++
	}
}

// due pops and re-arms every timer whose deadline has passed, re-arming
// from now rather than from the missed deadline (spec §4.6's "re-arm from
// the current time, not the missed deadline") so a long stall never causes
// a burst of catch-up ticks.
func (t *timerTable) due() []*timerRecord {
	now := time.Now()
	var fired []*timerRecord
	for len(t.records) > 0 && !t.records[0].deadline.After(now) {
		fired = append(fired, heap.Pop(t).(*timerRecord))
	}
	// Re-arm only after popping, so each due timer fires once per call even
	// when its interval is zero.
	for _, r := range fired {
		r.deadline = now.Add(time.Duration(r.intervalMs) * time.Millisecond)
		heap.Push(t, r)
	}
	return fired
}

// nextDeadlineMs reports how many milliseconds until the nearest armed
// timer fires (0 if it has already passed), or ok=false if no timers are
// armed.
func (t *timerTable) nextDeadlineMs() (int, bool) {
	if len(t.records) == 0 {
		return 0, false
	}
	d := time.Until(t.records[0].deadline)
	if d < 0 {
		return 0, true
	}
	return int(d / time.Millisecond), true
}
