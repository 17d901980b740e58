package kernel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dirpx/cobject/internal/klog"
	"github.com/dirpx/cobject/meta"
)

// DeliveryMode selects how Emit hands a signal off to a connected slot
// (spec §4.6).
type DeliveryMode int

const (
	// Auto re-evaluates thread affinity at emission time: same-thread
	// connections invoke synchronously, cross-thread connections post.
	Auto DeliveryMode = iota
	// Direct always invokes synchronously on the emitting goroutine,
	// regardless of thread affinity.
	Direct
	// Queued always posts, regardless of thread affinity, and never blocks
	// the emitter.
	Queued
	// Blocking posts, and blocks the emitter until the slot runs (or the
	// receiver is destroyed first). When the receiver is owned by the
	// emitting thread, the slot is invoked directly instead.
	Blocking
)

// ErrReceiverDestroyed is returned to a Blocking Emit call when its
// receiver is destroyed before the slot runs (spec §4.6 cancellation
// requirement).
var ErrReceiverDestroyed = errors.New("kernel: receiver destroyed before blocking call completed")

// ErrDuplicateConnection is returned by Connect when an identical
// (sender, signal, receiver, slot) four-tuple is already connected (spec
// §3 "Identity is the four-tuple... duplicates are rejected", §4.4
// "Rejects duplicates (same four-tuple)").
var ErrDuplicateConnection = errors.New("kernel: connection already exists for this sender/signal/receiver/slot")

// Connection is one sender-signal to receiver-slot binding (spec §4.6).
type Connection struct {
	sender   *Object
	receiver *Object
	signal   string
	slot     string
	mode     DeliveryMode
	enabled  bool
}

// Signal returns the connection's signal name.
func (c *Connection) Signal() string { return c.signal }

// Slot returns the connection's slot name.
func (c *Connection) Slot() string { return c.slot }

// Mode returns the connection's delivery mode.
func (c *Connection) Mode() DeliveryMode { return c.mode }

// SetEnabled toggles whether Emit honors this connection (spec §4.6
// "connections may be temporarily disabled without being removed").
func (c *Connection) SetEnabled(enabled bool) { c.enabled = enabled }

// Enabled reports whether this connection currently fires.
func (c *Connection) Enabled() bool { return c.enabled }

type pendingCall struct {
	receiver *Object
	done     chan callResult
}

// ConnectionManager owns the process-wide signal/slot graph (spec §4.6),
// grounded on the teacher's internal/link.go node-to-node edge bookkeeping,
// generalized from single-consumer reactive edges to a fan-out multi-map
// of named connections.
type ConnectionManager struct {
	mu       sync.Mutex
	outgoing map[*Object][]*Connection

	pendingMu         sync.Mutex
	pendingByReceiver map[*Object][]*pendingCall
}

// NewConnectionManager constructs an empty ConnectionManager.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		outgoing:          make(map[*Object][]*Connection),
		pendingByReceiver: make(map[*Object][]*pendingCall),
	}
}

// Connect registers a connection from sender's signal to receiver's slot
// (spec §4.6). mode selects delivery semantics; see DeliveryMode.
func (cm *ConnectionManager) Connect(sender *Object, signal string, receiver *Object, slot string, mode DeliveryMode) (*Connection, error) {
	if sender == nil || receiver == nil {
		return nil, errors.New("kernel: connect requires non-nil sender and receiver")
	}
	if sender.class != nil {
		if _, ok := sender.class.FindSignal(signal); !ok {
			return nil, fmt.Errorf("kernel: %q is not a signal on class %q", signal, sender.class.Name())
		}
	}
	if receiver.class != nil {
		if _, ok := receiver.class.FindMethod(slot); !ok {
			return nil, fmt.Errorf("kernel: %q is not a slot on class %q", slot, receiver.class.Name())
		}
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	for _, c := range cm.outgoing[sender] {
		if c.signal == signal && c.receiver == receiver && c.slot == slot {
			return nil, ErrDuplicateConnection
		}
	}

	conn := &Connection{
		sender:   sender,
		receiver: receiver,
		signal:   signal,
		slot:     slot,
		mode:     mode,
		enabled:  true,
	}
	cm.outgoing[sender] = append(cm.outgoing[sender], conn)
	return conn, nil
}

// Disconnect removes a previously established connection. It is a no-op if
// conn is nil or already removed.
func (cm *ConnectionManager) Disconnect(conn *Connection) {
	if conn == nil {
		return
	}
	cm.mu.Lock()
	defer cm.mu.Unlock()
	conns := cm.outgoing[conn.sender]
	for i, c := range conns {
		if c == conn {
			cm.outgoing[conn.sender] = append(conns[:i:i], conns[i+1:]...)
			return
		}
	}
}

// DisconnectMatching removes every connection matching the given fields
// and reports whether any were removed (spec §4.4
// "disconnect(sender, signal?, receiver?, slot?) -> bool": a nil sender/
// receiver or an empty signal/slot acts as a wildcard matching any value
// in that field).
func (cm *ConnectionManager) DisconnectMatching(sender *Object, signal string, receiver *Object, slot string) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	removed := false
	for s, conns := range cm.outgoing {
		if sender != nil && s != sender {
			continue
		}
		kept := conns[:0:0]
		for _, c := range conns {
			match := (signal == "" || c.signal == signal) &&
				(receiver == nil || c.receiver == receiver) &&
				(slot == "" || c.slot == slot)
			if match {
				removed = true
				continue
			}
			kept = append(kept, c)
		}
		if len(kept) == 0 {
			delete(cm.outgoing, s)
		} else {
			cm.outgoing[s] = kept
		}
	}
	return removed
}

// DisconnectAll removes every connection naming obj as sender or receiver,
// and releases any Blocking calls currently waiting on obj as their
// receiver (spec §4.6, called from Object.Destroy).
func (cm *ConnectionManager) DisconnectAll(obj *Object) {
	cm.mu.Lock()
	delete(cm.outgoing, obj)
	for sender, conns := range cm.outgoing {
		kept := conns[:0:0]
		for _, c := range conns {
			if c.receiver != obj {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 {
			delete(cm.outgoing, sender)
		} else {
			cm.outgoing[sender] = kept
		}
	}
	cm.mu.Unlock()

	cm.releasePendingFor(obj)
}

// Emit delivers signal from sender to every enabled connection registered
// against it, in connect order, using each connection's own delivery mode
// (spec §4.6). For Blocking connections, Emit does not return until the
// slot has run on the receiver's thread or the receiver is destroyed
// first.
func (cm *ConnectionManager) Emit(sender *Object, signal string, args []meta.Value) {
	if sender == nil {
		return
	}
	cm.mu.Lock()
	conns := append([]*Connection(nil), cm.outgoing[sender]...)
	cm.mu.Unlock()

	for _, c := range conns {
		if c.signal != signal || !c.enabled {
			continue
		}
		cm.deliver(c, args)
	}
}

func (cm *ConnectionManager) deliver(c *Connection, args []meta.Value) {
	mode := c.mode
	if mode == Auto {
		if c.receiver.Thread() == CurrentThread() {
			mode = Direct
		} else {
			mode = Queued
		}
	}

	switch mode {
	case Direct:
		cm.invokeDirect(c, args)

	case Queued:
		e := newMetaCallEvent(c.slot, args, nil)
		PostEvent(c.receiver, e)

	case Blocking:
		if c.receiver.Thread() == CurrentThread() {
			// Blocking on one's own thread would deadlock waiting on a
			// queued event this same goroutine must drain; fall back to a
			// direct call, matching the original's same-thread shortcut.
			cm.invokeDirect(c, args)
			return
		}

		done := make(chan callResult, 1)
		pc := &pendingCall{receiver: c.receiver, done: done}
		cm.registerPending(pc)
		defer cm.unregisterPending(pc)

		e := newMetaCallEvent(c.slot, args, done)
		PostEvent(c.receiver, e)

		res := <-done
		if res.err != nil {
			klog.Errorw("blocking emit failed", "signal", c.signal, "slot", c.slot, "err", res.err)
		}
	}
}

func (cm *ConnectionManager) invokeDirect(c *Connection, args []meta.Value) {
	if c.receiver.IsDestroyed() {
		return
	}
	e := newMetaCallEvent(c.slot, args, nil)
	Dispatch(c.receiver, e)
}

func (cm *ConnectionManager) registerPending(pc *pendingCall) {
	cm.pendingMu.Lock()
	cm.pendingByReceiver[pc.receiver] = append(cm.pendingByReceiver[pc.receiver], pc)
	cm.pendingMu.Unlock()
}

func (cm *ConnectionManager) unregisterPending(pc *pendingCall) {
	cm.pendingMu.Lock()
	defer cm.pendingMu.Unlock()
	calls := cm.pendingByReceiver[pc.receiver]
	for i, c := range calls {
		if c == pc {
			cm.pendingByReceiver[pc.receiver] = append(calls[:i:i], calls[i+1:]...)
			return
		}
	}
}

func (cm *ConnectionManager) releasePendingFor(receiver *Object) {
	cm.pendingMu.Lock()
	calls := cm.pendingByReceiver[receiver]
	delete(cm.pendingByReceiver, receiver)
	cm.pendingMu.Unlock()

	for _, pc := range calls {
		select {
		case pc.done <- callResult{err: ErrReceiverDestroyed}:
		default:
		}
	}
}

var connections = NewConnectionManager()

// Connect establishes a connection on the process-wide connection manager.
func Connect(sender *Object, signal string, receiver *Object, slot string, mode DeliveryMode) (*Connection, error) {
	return connections.Connect(sender, signal, receiver, slot, mode)
}

// Disconnect removes conn from the process-wide connection manager.
func Disconnect(conn *Connection) { connections.Disconnect(conn) }

// DisconnectMatching removes every connection on the process-wide
// connection manager matching the given fields, with a nil sender/
// receiver or empty signal/slot acting as a wildcard, and reports whether
// any were removed.
func DisconnectMatching(sender *Object, signal string, receiver *Object, slot string) bool {
	return connections.DisconnectMatching(sender, signal, receiver, slot)
}

// DisconnectAll removes every connection naming obj as sender or receiver.
func DisconnectAll(obj *Object) { connections.DisconnectAll(obj) }

// Emit fires signal on sender through the process-wide connection manager.
func Emit(sender *Object, signal string, args []meta.Value) {
	connections.Emit(sender, signal, args)
}
