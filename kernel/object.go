package kernel

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/petermattis/goid"

	"github.com/dirpx/cobject/internal/klog"
	"github.com/dirpx/cobject/meta"
)

// ThreadID identifies the goroutine an Object is affine to. Go has no
// user-visible OS thread handle comparable to std::thread::id, so the
// kernel uses the calling goroutine's id (github.com/petermattis/goid,
// already a dependency of the teacher repo) as the idiomatic substitute —
// exactly the substitution the teacher itself makes in
// internal/runtime_default.go to key its per-goroutine runtime table.
type ThreadID int64

// CurrentThread returns the calling goroutine's ThreadID.
func CurrentThread() ThreadID { return ThreadID(goid.Get()) }

// EventHandler is the virtual event sink described in spec §4.3. Object
// implements it directly; types that embed *Object and want to override
// OnEvent (or the timer/child hooks below) must call SetSelf(self) once,
// after construction, so dispatch reaches the override — Go has no virtual
// dispatch from a base type back into an embedder, so the "self" pointer
// plays the role spec §9 assigns to a first-class vtable stored on the
// object.
type EventHandler interface {
	OnEvent(e *Event) bool
}

// TimerHandler is an optional refinement of EventHandler for types that
// want a typed timer callback instead of switching on Event.Type().
type TimerHandler interface {
	OnTimerEvent(e *Event)
}

// ChildHandler is an optional refinement of EventHandler for types that
// want a typed child-added/removed callback.
type ChildHandler interface {
	OnChildEvent(e *Event)
}

// Object is the base polymorphic entity of the kernel: identity, the
// parent/child tree, dynamic properties, thread affinity, and the event
// hook (spec §3, §4.3). It is grounded on the teacher's internal/owner.go
// ownership tree, generalized from reactive-node lifetime to arbitrary
// object lifetime, and on original_source/src/cobject/cobject.cpp for the
// exact destructor ordering.
type Object struct {
	mu sync.Mutex

	uid  uuid.UUID
	name string

	class *meta.ClassDescriptor
	self  EventHandler

	parent   *Object
	children []*Object

	dynProps map[string]meta.Value

	thread    ThreadID
	destroyed bool
}

// New constructs an Object of the given class (nil for a plain, non-
// reflective object), optionally parented to parent. Construction captures
// the current goroutine as the object's owning thread (spec §4.3).
func New(class *meta.ClassDescriptor, parent *Object) *Object {
	o := &Object{
		uid:    uuid.New(),
		class:  class,
		thread: CurrentThread(),
	}
	o.self = o
	if parent != nil {
		o.SetParent(parent)
	}
	return o
}

// SetSelf registers self as the receiver for virtual dispatch (OnEvent and
// friends). Types that embed *Object should call this once, immediately
// after constructing the embedded Object, passing their own outer pointer.
func (o *Object) SetSelf(self EventHandler) {
	if self == nil {
		self = o
	}
	o.mu.Lock()
	o.self = self
	o.mu.Unlock()
}

// UID returns a stable identifier for this object, independent of Go
// pointer identity — useful for log correlation across processes/restarts
// in a way a bare pointer value never is.
func (o *Object) UID() uuid.UUID { return o.uid }

// Class returns the object's class descriptor, or nil for a non-reflective
// object.
func (o *Object) Class() *meta.ClassDescriptor { return o.class }

// Name returns the object's display name (empty string if never set).
func (o *Object) Name() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.name
}

// SetName sets the object's display name.
func (o *Object) SetName(name string) {
	o.mu.Lock()
	o.name = name
	o.mu.Unlock()
}

// Thread returns the object's owning thread, captured at construction.
// Reparenting never migrates thread affinity (spec §4.3).
func (o *Object) Thread() ThreadID { return o.thread }

// Parent returns the current parent, or nil at the root.
func (o *Object) Parent() *Object {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.parent
}

// Children returns a snapshot of the current child list, in insertion
// order.
func (o *Object) Children() []*Object {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Object(nil), o.children...)
}

// SetParent detaches o from its previous parent (if any) and attaches it to
// newParent (if non-nil). Setting the same parent again is a no-op (spec
// §4.3).
func (o *Object) SetParent(newParent *Object) {
	o.mu.Lock()
	prev := o.parent
	if prev == newParent {
		o.mu.Unlock()
		return
	}
	o.parent = newParent
	o.mu.Unlock()

	if prev != nil {
		prev.removeChild(o)
	}
	if newParent != nil {
		newParent.addChild(o)
	}
}

func (o *Object) addChild(child *Object) {
	o.mu.Lock()
	for _, c := range o.children {
		if c == child {
			o.mu.Unlock()
			return
		}
	}
	o.children = append(o.children, child)
	o.mu.Unlock()
}

func (o *Object) removeChild(child *Object) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, c := range o.children {
		if c == child {
			o.children = append(o.children[:i:i], o.children[i+1:]...)
			return
		}
	}
}

func (o *Object) snapshotChildren() []*Object {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Object(nil), o.children...)
}

// SetProperty sets a value by name. If name matches a typed meta-property
// on the object's class chain, its setter is used (firing the property's
// change-notify signal, if any, exactly when the value actually changes —
// spec §4.3, grounded on original_source's PROPERTY macro). Otherwise the
// value is stored in the object's dynamic-property map and true is
// returned unconditionally.
func (o *Object) SetProperty(name string, v meta.Value) bool {
	if o.class != nil {
		if p, ok := o.class.FindProperty(name); ok {
			if p.Set == nil {
				return false
			}
			var before meta.Value
			changed := p.NotifySignal != "" && p.Get != nil
			if changed {
				before = p.Get(o.self)
			}
			if !p.Set(o.self, v) {
				return false
			}
			if changed {
				after := p.Get(o.self)
				if after.Interface() != before.Interface() {
					Emit(o, p.NotifySignal, nil)
				}
			}
			return true
		}
	}

	o.mu.Lock()
	if o.dynProps == nil {
		o.dynProps = make(map[string]meta.Value)
	}
	o.dynProps[name] = v
	o.mu.Unlock()
	return true
}

// Property looks up name: first as a typed meta-property, then in the
// dynamic-property map.
func (o *Object) Property(name string) (meta.Value, bool) {
	if o.class != nil {
		if p, ok := o.class.FindProperty(name); ok && p.Get != nil {
			return p.Get(o.self), true
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	v, ok := o.dynProps[name]
	return v, ok
}

// DynamicPropertyNames returns the names currently stored in the dynamic-
// property map, in an implementation-defined order (spec §4.3).
func (o *Object) DynamicPropertyNames() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, 0, len(o.dynProps))
	for name := range o.dynProps {
		names = append(names, name)
	}
	return names
}

// StartTimer requests a repeating timer from the bound application/
// dispatcher. It returns 0 (without side effects) if intervalMs is
// negative or no application is bound (spec §4.3, §7).
func (o *Object) StartTimer(intervalMs int) int {
	if intervalMs < 0 {
		return 0
	}
	s := currentScheduler()
	if s == nil {
		klog.Warnw("start_timer called with no application bound", "object", o.uid)
		return 0
	}
	return s.StartTimer(intervalMs, o)
}

// KillTimer cancels timer id.
func (o *Object) KillTimer(id int) {
	if s := currentScheduler(); s != nil {
		s.KillTimer(id)
	}
}

// UnregisterTimers cancels every timer registered by this object.
func (o *Object) UnregisterTimers() {
	if s := currentScheduler(); s != nil {
		s.UnregisterTimers(o)
	}
}

// DeleteLater posts a deferred-delete event to self; the receiver's owning
// loop deletes the object when it processes that event (spec §4.3).
func (o *Object) DeleteLater() {
	s := currentScheduler()
	if s == nil {
		klog.Warnw("delete_later called with no application bound; object will never be destroyed", "object", o.uid)
		return
	}
	s.PostEvent(o, NewDeferredDeleteEvent())
}

// IsDestroyed reports whether Destroy has already run on this object.
func (o *Object) IsDestroyed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.destroyed
}

// Destroy is the object's destructor (spec §4.3): it disconnects every
// connection naming o as sender or receiver, detaches from its parent,
// recursively destroys its still-attached children in reverse insertion
// order, drops any posted events still addressed to o, and cancels o's
// timers. It is safe to call more than once; only the first call has an
// effect.
func (o *Object) Destroy() {
	o.mu.Lock()
	if o.destroyed {
		o.mu.Unlock()
		return
	}
	o.destroyed = true
	o.mu.Unlock()

	DisconnectAll(o)

	if parent := o.Parent(); parent != nil {
		parent.removeChild(o)
	}

	children := o.snapshotChildren()
	for i := len(children) - 1; i >= 0; i-- {
		children[i].Destroy()
	}
	o.mu.Lock()
	o.children = nil
	o.mu.Unlock()

	RemovePostedEvents(o)

	if s := currentScheduler(); s != nil {
		s.UnregisterTimers(o)
	}
}

// OnEvent is Object's default event hook (spec §4.3): meta-call events
// invoke the named method; timer/child events dispatch to the optional
// TimerHandler/ChildHandler refinement of self; deferred-delete destroys
// the object; anything else is reported unhandled.
func (o *Object) OnEvent(e *Event) bool {
	if e == nil {
		return false
	}
	if o.IsDestroyed() && e.typ != EventDeferredDelete {
		return false
	}

	switch e.typ {
	case EventMetaCall:
		return o.handleMetaCall(e)
	case EventTimer:
		if th, ok := o.self.(TimerHandler); ok {
			th.OnTimerEvent(e)
		}
		e.Accept()
		return true
	case EventChildAdded, EventChildRemoved:
		if ch, ok := o.self.(ChildHandler); ok {
			ch.OnChildEvent(e)
		}
		e.Accept()
		return true
	case EventDeferredDelete:
		o.Destroy()
		return true
	default:
		return false
	}
}

func (o *Object) handleMetaCall(e *Event) bool {
	mc := e.metaCall
	if o.class == nil {
		err := fmt.Errorf("kernel: object %s has no class descriptor, cannot invoke slot %q", o.uid, mc.slot)
		klog.Errorw("meta-call failed", "err", err)
		trySendResult(mc.done, callResult{err: err})
		return false
	}

	method, ok := o.class.FindMethod(mc.slot)
	if !ok {
		err := fmt.Errorf("kernel: unknown slot %q on class %q", mc.slot, o.class.Name())
		klog.Errorw("meta-call failed", "err", err)
		trySendResult(mc.done, callResult{err: err})
		return false
	}

	result, err := safeInvoke(method, o.self, mc.args)
	if err != nil {
		klog.Errorw("meta-call invocation failed", "slot", mc.slot, "err", err)
	}
	trySendResult(mc.done, callResult{value: result, err: err})
	e.Accept()
	return err == nil
}

func trySendResult(ch chan callResult, r callResult) {
	if ch == nil {
		return
	}
	select {
	case ch <- r:
	default:
	}
}

func safeInvoke(method *meta.MethodDescriptor, recv any, args []meta.Value) (result meta.Value, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("kernel: slot panicked: %v", rec)
		}
	}()
	return method.Invoke(recv, args)
}

// Dispatch delivers e to receiver's event hook, isolating any panic to a
// logged error rather than letting it escape into the dispatcher loop.
func Dispatch(receiver *Object, e *Event) bool {
	if receiver == nil || e == nil {
		return false
	}
	var handled bool
	func() {
		defer func() {
			if r := recover(); r != nil {
				klog.Errorw("panic in object event hook", "object", receiver.uid, "recover", r)
			}
		}()
		handled = receiver.self.OnEvent(e)
	}()
	return handled
}

// SendEvent delivers e synchronously to receiver's event hook on the
// calling goroutine and reports its acceptance (spec §4.7).
func SendEvent(receiver *Object, e *Event) bool {
	return Dispatch(receiver, e)
}
