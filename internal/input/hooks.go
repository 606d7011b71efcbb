package input

import (
	"slices"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dshills/keybind/internal/input/key"
)

// Hook allows interception of input handling.
type Hook interface {
	// PreStroke is called before a stroke is resolved.
	// Return true to consume the stroke (stop further processing).
	PreStroke(st key.Stroke, ctx *Context) bool

	// PostStroke is called after a stroke is resolved. action is nil when
	// the stroke completed no binding.
	PostStroke(st key.Stroke, action *Action, ctx *Context)

	// PreAction is called before an action is sent.
	// Return true to consume the action.
	PreAction(action *Action, ctx *Context) bool
}

// HookPriority defines the execution order for hooks.
// Lower values execute first.
type HookPriority int

const (
	// HookPriorityHigh runs early in the hook chain.
	HookPriorityHigh HookPriority = -100
	// HookPriorityNormal is the default priority.
	HookPriorityNormal HookPriority = 0
	// HookPriorityLow runs late in the hook chain.
	HookPriorityLow HookPriority = 100
)

// HookID uniquely identifies a registered hook.
type HookID uint64

type hookRegistration struct {
	id       HookID
	name     string
	priority HookPriority
	hook     Hook
}

// HookManager runs hooks in priority order. Hooks with equal priority run
// in registration order.
type HookManager struct {
	mu     sync.RWMutex
	hooks  []hookRegistration
	nextID HookID
}

// NewHookManager creates an empty hook manager.
func NewHookManager() *HookManager {
	return &HookManager{}
}

// Register adds a hook with default priority.
func (m *HookManager) Register(hook Hook) HookID {
	return m.RegisterWithOptions(hook, "", HookPriorityNormal)
}

// RegisterWithOptions adds a named hook with the given priority.
func (m *HookManager) RegisterWithOptions(hook Hook, name string, priority HookPriority) HookID {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	m.hooks = append(m.hooks, hookRegistration{id: m.nextID, name: name, priority: priority, hook: hook})
	slices.SortStableFunc(m.hooks, func(a, b hookRegistration) int {
		return int(a.priority) - int(b.priority)
	})
	return m.nextID
}

// Unregister removes a hook by ID.
func (m *HookManager) Unregister(id HookID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.IndexFunc(m.hooks, func(r hookRegistration) bool { return r.id == id })
	if i < 0 {
		return false
	}
	m.hooks = slices.Delete(m.hooks, i, i+1)
	return true
}

// UnregisterByName removes the first hook registered under name.
func (m *HookManager) UnregisterByName(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := slices.IndexFunc(m.hooks, func(r hookRegistration) bool { return r.name != "" && r.name == name })
	if i < 0 {
		return false
	}
	m.hooks = slices.Delete(m.hooks, i, i+1)
	return true
}

// Count returns the number of registered hooks.
func (m *HookManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hooks)
}

// snapshot copies the hooks for iteration outside the lock.
func (m *HookManager) snapshot() []Hook {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Hook, len(m.hooks))
	for i, r := range m.hooks {
		out[i] = r.hook
	}
	return out
}

// RunPreStroke runs PreStroke hooks. Returns true if any hook consumed
// the stroke.
func (m *HookManager) RunPreStroke(st key.Stroke, ctx *Context) bool {
	for _, h := range m.snapshot() {
		if h.PreStroke(st, ctx) {
			return true
		}
	}
	return false
}

// RunPostStroke runs PostStroke hooks.
func (m *HookManager) RunPostStroke(st key.Stroke, action *Action, ctx *Context) {
	for _, h := range m.snapshot() {
		h.PostStroke(st, action, ctx)
	}
}

// RunPreAction runs PreAction hooks. Returns true if any hook consumed
// the action.
func (m *HookManager) RunPreAction(action *Action, ctx *Context) bool {
	for _, h := range m.snapshot() {
		if h.PreAction(action, ctx) {
			return true
		}
	}
	return false
}

// BaseHook provides a default implementation of the Hook interface.
// Embed this in custom hooks to only implement the methods you need.
type BaseHook struct{}

// PreStroke is a no-op that does not consume strokes.
func (BaseHook) PreStroke(key.Stroke, *Context) bool { return false }

// PostStroke is a no-op.
func (BaseHook) PostStroke(key.Stroke, *Action, *Context) {}

// PreAction is a no-op that does not consume actions.
func (BaseHook) PreAction(*Action, *Context) bool { return false }

// FuncHook wraps functions into a Hook interface implementation.
type FuncHook struct {
	PreStrokeFunc  func(key.Stroke, *Context) bool
	PostStrokeFunc func(key.Stroke, *Action, *Context)
	PreActionFunc  func(*Action, *Context) bool
}

// PreStroke calls PreStrokeFunc if set.
func (h FuncHook) PreStroke(st key.Stroke, ctx *Context) bool {
	if h.PreStrokeFunc != nil {
		return h.PreStrokeFunc(st, ctx)
	}
	return false
}

// PostStroke calls PostStrokeFunc if set.
func (h FuncHook) PostStroke(st key.Stroke, action *Action, ctx *Context) {
	if h.PostStrokeFunc != nil {
		h.PostStrokeFunc(st, action, ctx)
	}
}

// PreAction calls PreActionFunc if set.
func (h FuncHook) PreAction(action *Action, ctx *Context) bool {
	if h.PreActionFunc != nil {
		return h.PreActionFunc(action, ctx)
	}
	return false
}

// LoggingHook traces strokes and actions at debug level.
type LoggingHook struct {
	BaseHook
	Log logrus.FieldLogger
}

// PreStroke logs the stroke and the pending sequence.
func (h LoggingHook) PreStroke(st key.Stroke, ctx *Context) bool {
	if h.Log != nil {
		h.Log.WithFields(logrus.Fields{
			"stroke":  st.String(),
			"pending": ctx.PendingSequence.String(),
		}).Debug("stroke")
	}
	return false
}

// PostStroke logs the resulting action.
func (h LoggingHook) PostStroke(st key.Stroke, action *Action, _ *Context) {
	if h.Log != nil && action != nil {
		h.Log.WithFields(logrus.Fields{
			"trigger": action.Sequence.String(),
			"command": action.Command,
			"context": action.Context,
		}).Debug("stroke resolved")
	}
}
