package meta

// PropertyDescriptor describes one reflective property of a class: its name,
// type tag, getter/setter pair, and an optional change-notify signal name
// fired by the setter when the value actually changes.
type PropertyDescriptor struct {
	Name         string
	Type         Kind
	Get          func(recv any) Value
	Set          func(recv any, v Value) bool
	NotifySignal string
}

// MethodDescriptor describes one reflectively invocable method: its name,
// a textual signature for diagnostics, and the type-erased Invoker that
// performs the actual call (see invoker.go).
type MethodDescriptor struct {
	Name      string
	Signature string
	Invoke    Invoker
}

// SignalDescriptor describes one outgoing signal a class may emit. Signals
// carry no invoker of their own — emission is routed entirely through the
// connection manager (package kernel).
type SignalDescriptor struct {
	Name      string
	Signature string
}

// ClassDescriptor is the immutable, per-class reflective record described in
// spec §3/§4.1: a stable class name, an optional parent descriptor, an
// optional factory, and the three ordered member vectors. Once built with
// NewClassDescriptor and its Add* calls, a ClassDescriptor is read-only and
// safe for concurrent use.
type ClassDescriptor struct {
	name       string
	parent     *ClassDescriptor
	factory    func() any
	properties []*PropertyDescriptor
	methods    []*MethodDescriptor
	signals    []*SignalDescriptor
}

// NewClassDescriptor creates a descriptor for className, optionally chained
// to parent and carrying factory (nil for an abstract class with no
// CreateInstance support).
func NewClassDescriptor(className string, parent *ClassDescriptor, factory func() any) *ClassDescriptor {
	return &ClassDescriptor{
		name:    className,
		parent:  parent,
		factory: factory,
	}
}

// Name returns the class's stable name.
func (d *ClassDescriptor) Name() string { return d.name }

// Parent returns the parent descriptor, or nil at the root of the chain.
func (d *ClassDescriptor) Parent() *ClassDescriptor { return d.parent }

// AddProperty appends p to the class's own property list. Call during
// descriptor construction, before the descriptor is published to the
// registry or shared across goroutines.
func (d *ClassDescriptor) AddProperty(p *PropertyDescriptor) { d.properties = append(d.properties, p) }

// AddMethod appends m to the class's own method list.
func (d *ClassDescriptor) AddMethod(m *MethodDescriptor) { d.methods = append(d.methods, m) }

// AddSignal appends s to the class's own signal list.
func (d *ClassDescriptor) AddSignal(s *SignalDescriptor) { d.signals = append(d.signals, s) }

// PropertyCount returns the number of properties declared directly on d
// (not counting inherited ones).
func (d *ClassDescriptor) PropertyCount() int { return len(d.properties) }

// PropertyAt returns the i-th locally declared property.
func (d *ClassDescriptor) PropertyAt(i int) *PropertyDescriptor { return d.properties[i] }

// MethodCount returns the number of methods declared directly on d.
func (d *ClassDescriptor) MethodCount() int { return len(d.methods) }

// MethodAt returns the i-th locally declared method.
func (d *ClassDescriptor) MethodAt(i int) *MethodDescriptor { return d.methods[i] }

// SignalCount returns the number of signals declared directly on d.
func (d *ClassDescriptor) SignalCount() int { return len(d.signals) }

// SignalAt returns the i-th locally declared signal.
func (d *ClassDescriptor) SignalAt(i int) *SignalDescriptor { return d.signals[i] }

// FindProperty searches d's own properties, then recurses into the parent
// chain on miss.
func (d *ClassDescriptor) FindProperty(name string) (*PropertyDescriptor, bool) {
	for _, p := range d.properties {
		if p.Name == name {
			return p, true
		}
	}
	if d.parent != nil {
		return d.parent.FindProperty(name)
	}
	return nil, false
}

// FindMethod searches d's own methods, then recurses into the parent chain
// on miss.
func (d *ClassDescriptor) FindMethod(name string) (*MethodDescriptor, bool) {
	for _, m := range d.methods {
		if m.Name == name {
			return m, true
		}
	}
	if d.parent != nil {
		return d.parent.FindMethod(name)
	}
	return nil, false
}

// FindSignal searches d's own signals, then recurses into the parent chain
// on miss.
func (d *ClassDescriptor) FindSignal(name string) (*SignalDescriptor, bool) {
	for _, s := range d.signals {
		if s.Name == name {
			return s, true
		}
	}
	if d.parent != nil {
		return d.parent.FindSignal(name)
	}
	return nil, false
}

// CreateInstance constructs a new instance via the class's factory. It
// returns nil if the class has no factory (an abstract class).
func (d *ClassDescriptor) CreateInstance() any {
	if d.factory == nil {
		return nil
	}
	return d.factory()
}

// Inherits reports whether other appears in d's parent chain (d itself does
// not count — Inherits(d) is false unless d appears again further up its own
// chain, which a well-formed program never constructs).
func (d *ClassDescriptor) Inherits(other *ClassDescriptor) bool {
	for p := d.parent; p != nil; p = p.parent {
		if p == other {
			return true
		}
	}
	return false
}
