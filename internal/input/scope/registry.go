// Package scope tracks context definitions and which contexts are active.
//
// The Registry is the host-side context manager: it owns the context tree,
// rejects definitions that would form a parent cycle, and produces the
// keymap.ContextSet snapshots used for binding lookup. Modal contexts such
// as a picker or a prompt are pushed and popped on a stack.
package scope

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dshills/keybind/internal/input/keymap"
)

// Errors returned by the registry.
var (
	ErrUnknownContext = errors.New("unknown context")
	ErrContextActive  = errors.New("context is active")
	ErrEmptyStack     = errors.New("context stack is empty")
	ErrEmptyID        = errors.New("context id is empty")
)

// ChangeCallback is called after the active set changes.
type ChangeCallback func(active []string)

// Registry manages context definitions and the active context set.
type Registry struct {
	mu sync.RWMutex

	// defs holds every defined context by id.
	defs map[string]keymap.Context

	// names holds optional display names.
	names map[string]string

	// active is the set of explicitly activated ids.
	active map[string]struct{}

	// stack holds pushed modal contexts, innermost last.
	stack []string

	// callbacks are notified on active set changes.
	callbacks []ChangeCallback

	log logrus.FieldLogger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Registry) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	l := logrus.New()
	l.SetOutput(io.Discard)

	r := &Registry{
		defs:   make(map[string]keymap.Context),
		names:  make(map[string]string),
		active: make(map[string]struct{}),
		log:    l,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Define adds or replaces a context definition. A definition whose parent
// chain would loop back to itself is rejected with keymap.ErrContextCycle.
// Parents may be defined later.
func (r *Registry) Define(c keymap.Context) error {
	return r.DefineNamed(c, "")
}

// DefineNamed is Define with a display name.
func (r *Registry) DefineNamed(c keymap.Context, name string) error {
	if c.ID == "" {
		return ErrEmptyID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	trial := keymap.ContextMap(maps.Clone(r.defs))
	trial[c.ID] = c
	if _, err := keymap.Ancestors(trial, c.ID); err != nil {
		return fmt.Errorf("define %s: %w", c.ID, err)
	}

	r.defs[c.ID] = c
	if name != "" {
		r.names[c.ID] = name
	}
	r.log.WithFields(logrus.Fields{
		"context": c.ID,
		"parent":  c.ParentID,
	}).Debug("context defined")
	return nil
}

// Undefine removes a context definition. Active contexts cannot be removed.
func (r *Registry) Undefine(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.defs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownContext, id)
	}
	if r.isActiveLocked(id) {
		return fmt.Errorf("%w: %s", ErrContextActive, id)
	}
	delete(r.defs, id)
	delete(r.names, id)
	return nil
}

// Context implements keymap.ContextLookup.
func (r *Registry) Context(id string) (keymap.Context, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.defs[id]
	return c, ok
}

// Name returns the display name of a context, or its id.
func (r *Registry) Name(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n, ok := r.names[id]; ok {
		return n
	}
	return id
}

// Contexts returns every definition ordered by id.
func (r *Registry) Contexts() []keymap.Context {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]keymap.Context, 0, len(r.defs))
	for _, id := range slices.Sorted(maps.Keys(r.defs)) {
		out = append(out, r.defs[id])
	}
	return out
}

// Roots returns the ids of contexts without a defined parent.
func (r *Registry) Roots() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for id, c := range r.defs {
		if _, ok := r.defs[c.ParentID]; !ok {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Children returns the ids of the direct children of a context.
func (r *Registry) Children(id string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for cid, c := range r.defs {
		if c.ParentID == id && cid != id {
			out = append(out, cid)
		}
	}
	slices.Sort(out)
	return out
}

// Lookup returns a point-in-time copy of the definitions.
func (r *Registry) Lookup() keymap.ContextMap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return keymap.ContextMap(maps.Clone(r.defs))
}

// Activate marks a defined context as active.
func (r *Registry) Activate(id string) error {
	r.mu.Lock()
	if _, ok := r.defs[id]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownContext, id)
	}
	if _, ok := r.active[id]; ok {
		r.mu.Unlock()
		return nil
	}
	r.active[id] = struct{}{}
	active, callbacks := r.changedLocked()
	r.mu.Unlock()

	notify(callbacks, active)
	return nil
}

// Deactivate removes a context from the active set. Inactive or unknown
// ids are ignored.
func (r *Registry) Deactivate(id string) {
	r.mu.Lock()
	if _, ok := r.active[id]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.active, id)
	active, callbacks := r.changedLocked()
	r.mu.Unlock()

	notify(callbacks, active)
}

// SetActive replaces the explicitly active set. Every id must be defined.
// The modal stack is left unchanged.
func (r *Registry) SetActive(ids ...string) error {
	r.mu.Lock()
	for _, id := range ids {
		if _, ok := r.defs[id]; !ok {
			r.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrUnknownContext, id)
		}
	}
	clear(r.active)
	for _, id := range ids {
		r.active[id] = struct{}{}
	}
	active, callbacks := r.changedLocked()
	r.mu.Unlock()

	notify(callbacks, active)
	return nil
}

// Push activates a modal context on top of the stack.
func (r *Registry) Push(id string) error {
	r.mu.Lock()
	if _, ok := r.defs[id]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownContext, id)
	}
	r.stack = append(r.stack, id)
	active, callbacks := r.changedLocked()
	r.mu.Unlock()

	notify(callbacks, active)
	return nil
}

// Pop removes the innermost modal context and returns its id.
func (r *Registry) Pop() (string, error) {
	r.mu.Lock()
	if len(r.stack) == 0 {
		r.mu.Unlock()
		return "", ErrEmptyStack
	}
	id := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	active, callbacks := r.changedLocked()
	r.mu.Unlock()

	notify(callbacks, active)
	return id, nil
}

// StackDepth returns the number of pushed modal contexts.
func (r *Registry) StackDepth() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stack)
}

// IsActive reports whether id is active, explicitly or on the stack.
// Ancestors of active contexts are not reported.
func (r *Registry) IsActive(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isActiveLocked(id)
}

func (r *Registry) isActiveLocked(id string) bool {
	if _, ok := r.active[id]; ok {
		return true
	}
	return slices.Contains(r.stack, id)
}

// Active returns the active ids, explicit and stacked, sorted and unique.
func (r *Registry) Active() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeLocked()
}

func (r *Registry) activeLocked() []string {
	set := maps.Clone(r.active)
	for _, id := range r.stack {
		set[id] = struct{}{}
	}
	return slices.Sorted(maps.Keys(set))
}

// Snapshot builds the ContextSet for the current active contexts. A cycle
// error is impossible for definitions made through Define but is still
// returned if the lookup reports one.
func (r *Registry) Snapshot() (keymap.ContextSet, error) {
	r.mu.RLock()
	lookup := keymap.ContextMap(maps.Clone(r.defs))
	active := r.activeLocked()
	r.mu.RUnlock()

	return keymap.NewContextSet(lookup, active)
}

// OnChange registers a callback for active set changes.
// Returns a function to unregister the callback.
func (r *Registry) OnChange(callback ChangeCallback) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.callbacks = append(r.callbacks, callback)
	index := len(r.callbacks) - 1

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		// Nil out rather than remove so other indices stay valid.
		if index < len(r.callbacks) {
			r.callbacks[index] = nil
		}
	}
}

// changedLocked logs the change and copies what must be notified outside
// the lock.
func (r *Registry) changedLocked() ([]string, []ChangeCallback) {
	active := r.activeLocked()
	r.log.WithField("active", active).Debug("active contexts changed")
	return active, slices.Clone(r.callbacks)
}

func notify(callbacks []ChangeCallback, active []string) {
	for _, cb := range callbacks {
		if cb != nil {
			cb(slices.Clone(active))
		}
	}
}
