package kernel

import "github.com/dirpx/cobject/meta"

// EventType tags an Event's variant, following spec §3's "type enum (none,
// timer, child-added, child-removed, meta-call, deferred-delete,
// socket-activity, user range)".
type EventType int

const (
	EventNone EventType = iota
	EventTimer
	EventChildAdded
	EventChildRemoved
	EventMetaCall
	EventDeferredDelete
	EventSocketActivity
	// EventUser is the first id of the user-defined range; application code
	// may define its own event types starting here, mirroring the original
	// C++ Event::Type::User boundary.
	EventUser EventType = 1000
)

// metaCallPayload is the queued representation of a cross-thread (or
// blocking cross-thread) slot invocation: an owned copy of the slot name
// and argv, plus an optional completion channel for blocking delivery.
type metaCallPayload struct {
	slot string
	args []meta.Value
	done chan callResult
}

type callResult struct {
	value meta.Value
	err   error
}

// Event is the tagged variant posted through the queue and delivered to an
// Object's OnEvent hook. Priority is reserved (spec §4.5) and is never read
// by any dispatcher in this repository, matching the original.
type Event struct {
	typ      EventType
	accepted bool
	Priority int

	receiver *Object

	timerID int
	child   *Object
	fd      int
	metaCall *metaCallPayload
}

// NewTimerEvent builds a Timer event for the given timer id.
func NewTimerEvent(id int) *Event { return &Event{typ: EventTimer, timerID: id} }

// NewChildEvent builds a ChildAdded or ChildRemoved event naming child.
func NewChildEvent(typ EventType, child *Object) *Event {
	if typ != EventChildAdded && typ != EventChildRemoved {
		typ = EventChildAdded
	}
	return &Event{typ: typ, child: child}
}

// NewDeferredDeleteEvent builds a DeferredDelete event.
func NewDeferredDeleteEvent() *Event { return &Event{typ: EventDeferredDelete} }

// NewSocketActivityEvent builds a SocketActivity event for the given file
// descriptor.
func NewSocketActivityEvent(fd int) *Event { return &Event{typ: EventSocketActivity, fd: fd} }

// NewUserEvent builds a user-range event. typ below EventUser is coerced up
// to EventUser.
func NewUserEvent(typ EventType) *Event {
	if typ < EventUser {
		typ = EventUser
	}
	return &Event{typ: typ}
}

func newMetaCallEvent(slot string, args []meta.Value, done chan callResult) *Event {
	return &Event{
		typ: EventMetaCall,
		metaCall: &metaCallPayload{
			slot: slot,
			args: append([]meta.Value(nil), args...),
			done: done,
		},
	}
}

// Type reports the event's tag.
func (e *Event) Type() EventType { return e.typ }

// Accept marks the event as handled.
func (e *Event) Accept() { e.accepted = true }

// Ignore marks the event as not handled.
func (e *Event) Ignore() { e.accepted = false }

// IsAccepted reports the current acceptance state.
func (e *Event) IsAccepted() bool { return e.accepted }

// TimerID returns the timer id carried by a Timer event.
func (e *Event) TimerID() int { return e.timerID }

// Child returns the child pointer carried by a ChildAdded/ChildRemoved event.
func (e *Event) Child() *Object { return e.child }

// FD returns the file descriptor carried by a SocketActivity event.
func (e *Event) FD() int { return e.fd }
