// Package dispatch implements the event-dispatcher and platform-driver
// component of the kernel (spec §4.6, §4.7): a deadline-ordered timer
// table, a pluggable socket-activity Driver, and the shared ProcessEvents
// loop body that ties both together with the process-wide posted-event
// queue in package kernel.
package dispatch

import (
	"sync"

	"github.com/dirpx/cobject/internal/klog"
	"github.com/dirpx/cobject/kernel"
)

// SocketDirection selects which half of a socket a notifier watches.
type SocketDirection int

const (
	Read SocketDirection = iota
	Write
)

// ReadyFD is one socket a Driver reports as ready for activity.
type ReadyFD struct {
	FD  int
	Dir SocketDirection
}

// Driver is the platform-specific polling primitive a Dispatcher drives —
// the substitutable half of spec §4.6/§9's "platform sources" (Win32
// message pump, GLib context, or a portable selector/poll fallback).
type Driver interface {
	RegisterFD(fd int, dir SocketDirection) error
	UnregisterFD(fd int, dir SocketDirection) error
	// Poll blocks for at most timeoutMs milliseconds (no bound if negative)
	// waiting for registered sockets to become ready, or until WakeUp is
	// called from another goroutine.
	Poll(timeoutMs int) ([]ReadyFD, error)
	// WakeUp interrupts a Poll call in progress, or makes the next one
	// return immediately if none is currently in progress.
	WakeUp()
	Close() error
}

type notifierKey struct {
	fd  int
	dir SocketDirection
}

// Dispatcher is the concrete event-loop driver described in spec §4.6/§4.7.
// A single Dispatcher may be driven concurrently by several goroutines, one
// per thread that owns objects and calls ProcessEvents from its own loop
// (spec §5); each call only delivers timers, socket activity, and posted
// events relevant to the calling goroutine's own thread affinity.
type Dispatcher struct {
	driver Driver

	mu        sync.Mutex
	timers    *timerTable
	notifiers map[notifierKey]*kernel.Object

	startingUpOnce   sync.Once
	shuttingDownOnce sync.Once
}

// New builds a Dispatcher driven by driver.
func New(driver Driver) *Dispatcher {
	return &Dispatcher{
		driver:    driver,
		timers:    newTimerTable(),
		notifiers: make(map[notifierKey]*kernel.Object),
	}
}

// StartingUp runs the dispatcher's one-time startup hook (spec §4.7). Safe
// to call more than once; only the first call has an effect.
func (d *Dispatcher) StartingUp() {
	d.startingUpOnce.Do(func() { klog.Infow("dispatcher starting up") })
}

// ShuttingDown runs the dispatcher's one-time teardown hook, closing the
// underlying driver.
func (d *Dispatcher) ShuttingDown() {
	d.shuttingDownOnce.Do(func() {
		klog.Infow("dispatcher shutting down")
		if err := d.driver.Close(); err != nil {
			klog.Warnw("dispatcher driver close failed", "err", err)
		}
	})
}

// WakeUp interrupts a blocked ProcessEvents call so it re-evaluates its
// due timers and posted-event queue immediately.
func (d *Dispatcher) WakeUp() { d.driver.WakeUp() }

// Interrupt is an alias for WakeUp, matching the vocabulary of
// original_source/include/cobject/event_dispatcher.hpp.
func (d *Dispatcher) Interrupt() { d.driver.WakeUp() }

// RegisterTimer arms a repeating timer for receiver and returns its id.
func (d *Dispatcher) RegisterTimer(intervalMs int, receiver *kernel.Object) int {
	d.mu.Lock()
	id := d.timers.add(intervalMs, receiver)
	d.mu.Unlock()
	d.WakeUp()
	return id
}

// UnregisterTimer cancels the timer with the given id.
func (d *Dispatcher) UnregisterTimer(id int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timers.remove(id)
}

// UnregisterTimersFor cancels every timer owned by receiver.
func (d *Dispatcher) UnregisterTimersFor(receiver *kernel.Object) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timers.removeReceiver(receiver)
}

// RegisterSocketNotifier arms notification for fd/dir, delivered to
// receiver as SocketActivity events.
func (d *Dispatcher) RegisterSocketNotifier(fd int, dir SocketDirection, receiver *kernel.Object) error {
	if err := d.driver.RegisterFD(fd, dir); err != nil {
		return err
	}
	d.mu.Lock()
	d.notifiers[notifierKey{fd, dir}] = receiver
	d.mu.Unlock()
	return nil
}

// UnregisterSocketNotifier disarms notification for fd/dir.
func (d *Dispatcher) UnregisterSocketNotifier(fd int, dir SocketDirection) {
	d.mu.Lock()
	delete(d.notifiers, notifierKey{fd, dir})
	d.mu.Unlock()
	if err := d.driver.UnregisterFD(fd, dir); err != nil {
		klog.Warnw("unregister socket notifier failed", "fd", fd, "err", err)
	}
}

// ProcessEvents runs one iteration of the loop for the calling goroutine's
// thread (spec §4.7): it fires due timers, delivers ready socket activity,
// then delivers every posted event addressed to objects this thread owns,
// and reports whether anything was processed. timeoutMs bounds how long it
// may block on the driver when there is no pending timer sooner; 0 never
// blocks, a negative value blocks until something is ready or WakeUp is
// called.
func (d *Dispatcher) ProcessEvents(timeoutMs int) bool {
	thread := kernel.CurrentThread()
	processed := false

	d.mu.Lock()
	due := d.timers.due()
	d.mu.Unlock()
	for _, t := range due {
		if t.receiver.Thread() == thread {
			kernel.Dispatch(t.receiver, kernel.NewTimerEvent(t.id))
		} else {
			// Owned by a different goroutine's loop; hand it to the posted
			// queue so that thread's own ProcessEvents call picks it up,
			// instead of delivering it here and violating owning-thread
			// affinity.
			kernel.PostEvent(t.receiver, kernel.NewTimerEvent(t.id))
		}
		processed = true
	}

	waitMs := timeoutMs
	d.mu.Lock()
	if next, ok := d.timers.nextDeadlineMs(); ok && (waitMs < 0 || next < waitMs) {
		waitMs = next
	}
	d.mu.Unlock()

	ready, err := d.driver.Poll(waitMs)
	if err != nil {
		klog.Warnw("dispatcher poll failed", "err", err)
	}
	if len(ready) > 0 {
		d.mu.Lock()
		type delivery struct {
			receiver *kernel.Object
			fd       int
		}
		var deliveries []delivery
		for _, r := range ready {
			if recv, ok := d.notifiers[notifierKey{r.FD, r.Dir}]; ok {
				deliveries = append(deliveries, delivery{recv, r.FD})
			}
		}
		d.mu.Unlock()
		for _, dl := range deliveries {
			if dl.receiver.Thread() == thread {
				kernel.Dispatch(dl.receiver, kernel.NewSocketActivityEvent(dl.fd))
			} else {
				kernel.PostEvent(dl.receiver, kernel.NewSocketActivityEvent(dl.fd))
			}
			processed = true
		}
	}

	for _, pe := range kernel.TakeEventsFor(thread) {
		kernel.Dispatch(pe.Receiver, pe.Event)
		processed = true
	}

	return processed
}
