package meta

import "sync"

// Registry is a process-wide, thread-safe class-name → ClassDescriptor
// table. Insertion is idempotent for an identical descriptor pointer;
// re-registering a different descriptor under a name already in use
// overwrites it (spec §4.1: "the design forbids duplicates in well-formed
// programs", but the registry itself does not reject them — it lets the
// last registration win, mirroring DIRPX-rfx/registry's idempotent-or-
// overwrite Register).
//
// Reads take the sync.Map fast path with no mutex; writes additionally hold
// mu to keep count consistent, matching DIRPX-rfx/registry.registry's
// double-checked pattern.
type Registry struct {
	mu      sync.Mutex
	classes sync.Map // map[string]*ClassDescriptor
	count   int
}

// NewRegistry constructs an empty Registry. Most callers use the process
// global via the package-level Register/Find/CreateInstance/ClassNames
// instead of constructing their own.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register inserts d under d.Name(). A nil d is a no-op.
func (r *Registry) Register(d *ClassDescriptor) {
	if d == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, existed := r.classes.Load(d.name); !existed {
		r.count++
	}
	r.classes.Store(d.name, d)
}

// Find looks up a class by name. It never panics and returns (nil, false)
// for an unknown name.
func (r *Registry) Find(name string) (*ClassDescriptor, bool) {
	v, ok := r.classes.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*ClassDescriptor), true
}

// CreateInstance looks up name and, if found, calls its factory. It returns
// (nil, false) both for an unknown class and for a known abstract class
// with no factory.
func (r *Registry) CreateInstance(name string) (any, bool) {
	d, ok := r.Find(name)
	if !ok {
		return nil, false
	}
	inst := d.CreateInstance()
	if inst == nil {
		return nil, false
	}
	return inst, true
}

// ClassNames returns a snapshot of every currently registered class name.
// The order is implementation-defined.
func (r *Registry) ClassNames() []string {
	names := make([]string, 0, r.Count())
	r.classes.Range(func(key, _ any) bool {
		names = append(names, key.(string))
		return true
	})
	return names
}

// Count returns the number of registered classes.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// global is the process-wide registry singleton (spec §6 "Process-wide
// state: registry singleton").
var global = NewRegistry()

// Register inserts d into the process-wide registry.
func Register(d *ClassDescriptor) { global.Register(d) }

// Find looks up a class by name in the process-wide registry.
func Find(name string) (*ClassDescriptor, bool) { return global.Find(name) }

// CreateInstance constructs a new instance of name via the process-wide
// registry.
func CreateInstance(name string) (any, bool) { return global.CreateInstance(name) }

// ClassNames returns every class name registered in the process-wide
// registry.
func ClassNames() []string { return global.ClassNames() }
