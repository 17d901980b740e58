package kernel

import (
	"sync"

	equeue "github.com/eapache/queue"
)

// postedItem pairs a queued Event with the receiver it targets, so the
// process-wide queue can filter by owning thread on drain without touching
// the receiver's own state under the queue's lock.
type postedItem struct {
	receiver *Object
	event    *Event
}

// PostedQueue is the process-wide, mutex-guarded FIFO of posted events
// described in spec §4.5. It is backed by github.com/eapache/queue's ring
// buffer (declared as a dependency of momentics-hioload-ws) rather than a
// plain slice, since posted events are produced and drained continuously
// for the life of the process and a ring buffer avoids the periodic
// reallocation a growing/shrinking slice would incur.
//
// Because a single Application (and therefore a single Dispatcher instance)
// may be pumped concurrently from several goroutines — one per thread that
// owns objects and calls ProcessEvents from its own loop, per spec §5 — the
// drain operation (TakeFor) only removes events addressed to the calling
// thread, leaving events for other threads queued in place and in order for
// that thread's own eventual drain. This is the resolution of the spec §9
// open question about posting to a loop-less thread: such events simply
// accumulate here forever, exactly as described.
type PostedQueue struct {
	mu sync.Mutex
	q  *equeue.Queue
}

// NewPostedQueue constructs an empty PostedQueue.
func NewPostedQueue() *PostedQueue {
	return &PostedQueue{q: equeue.New()}
}

// Post enqueues e for receiver. A nil receiver or event is a no-op (mirrors
// spec §4.7 "if receiver or event is null, the event is destroyed and the
// call is a no-op" — in Go, destruction is simply letting it be collected).
func (pq *PostedQueue) Post(receiver *Object, e *Event) {
	if receiver == nil || e == nil {
		return
	}
	e.receiver = receiver

	pq.mu.Lock()
	pq.q.Add(postedItem{receiver: receiver, event: e})
	pq.mu.Unlock()
}

// TakeFor removes and returns, in FIFO order, every currently queued event
// whose receiver's owning thread equals thread.
func (pq *PostedQueue) TakeFor(thread ThreadID) []postedItem {
	pq.mu.Lock()
	defer pq.mu.Unlock()

	n := pq.q.Length()
	if n == 0 {
		return nil
	}

	var mine, rest []postedItem
	for i := 0; i < n; i++ {
		item := pq.q.Remove().(postedItem)
		if item.receiver.Thread() == thread {
			mine = append(mine, item)
		} else {
			rest = append(rest, item)
		}
	}
	for _, item := range rest {
		pq.q.Add(item)
	}
	return mine
}

// RemoveFor drops every queued event addressed to receiver whose type is in
// types (or every event addressed to receiver, if types is empty).
func (pq *PostedQueue) RemoveFor(receiver *Object, types []EventType) {
	pq.mu.Lock()
	defer pq.mu.Unlock()

	n := pq.q.Length()
	for i := 0; i < n; i++ {
		item := pq.q.Remove().(postedItem)
		if item.receiver == receiver && matchesType(item.event.typ, types) {
			continue
		}
		pq.q.Add(item)
	}
}

func matchesType(t EventType, types []EventType) bool {
	if len(types) == 0 {
		return true
	}
	for _, want := range types {
		if want == t {
			return true
		}
	}
	return false
}

// Len returns the number of currently queued events, across all threads.
func (pq *PostedQueue) Len() int {
	pq.mu.Lock()
	defer pq.mu.Unlock()
	return pq.q.Length()
}

var globalPosted = NewPostedQueue()

// PostedEvent is the exported view of a queued (receiver, event) pair,
// returned to dispatch drivers by TakeEventsFor.
type PostedEvent struct {
	Receiver *Object
	Event    *Event
}

// PostEvent enqueues e for receiver on the process-wide posted-event queue.
func PostEvent(receiver *Object, e *Event) { globalPosted.Post(receiver, e) }

// TakeEventsFor drains every event addressed to objects owned by thread.
// Dispatch drivers call this once per ProcessEvents iteration.
func TakeEventsFor(thread ThreadID) []PostedEvent {
	items := globalPosted.TakeFor(thread)
	if items == nil {
		return nil
	}
	out := make([]PostedEvent, len(items))
	for i, it := range items {
		out[i] = PostedEvent{Receiver: it.receiver, Event: it.event}
	}
	return out
}

// RemovePostedEvents drops every queued event addressed to receiver whose
// type is one of types (or all of them, if no types are given).
func RemovePostedEvents(receiver *Object, types ...EventType) {
	globalPosted.RemoveFor(receiver, types)
}

// PostedEventCount reports how many events currently sit in the
// process-wide queue, across every thread. Diagnostic use only.
func PostedEventCount() int { return globalPosted.Len() }
