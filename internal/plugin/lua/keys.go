package lua

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keybind/internal/input/key"
	"github.com/dshills/keybind/internal/input/keymap"
)

// Target receives bindings registered by scripts. *app.Engine satisfies it.
type Target interface {
	AddBinding(b *keymap.Binding) error
	RemoveBinding(b *keymap.Binding) error

	// Lookup resolves seq in the currently active contexts.
	Lookup(seq key.Sequence) *keymap.Binding

	// Conflicts returns every unresolved conflict.
	Conflicts() [][]*keymap.Binding
}

// KeysModule implements the Lua "keys" module:
//
//	local h = keys.bind{keys = "Ctrl+K Ctrl+D", command = "editor.duplicate",
//	                    context = "editor", scheme = "default", params = {n = 2}}
//	keys.unbind(h)
//	local b = keys.lookup("Ctrl+S")   -- {keys, command, context, scheme, kind, params} or nil
//	for _, group in ipairs(keys.conflicts()) do ... end
//	for _, b in ipairs(keys.list()) do print(b.handle, b.keys) end
//
// Bindings made from Lua are user bindings. A binding without a command
// hides the keys.
type KeysModule struct {
	target  Target
	context string
	scheme  string
	log     logrus.FieldLogger

	mu      sync.Mutex
	handles map[string]*keymap.Binding
	order   []string
}

// KeysOption configures a KeysModule.
type KeysOption func(*KeysModule)

// WithDefaults sets the context and scheme used when bind omits them.
func WithDefaults(contextID, schemeID string) KeysOption {
	return func(m *KeysModule) {
		m.context = contextID
		m.scheme = schemeID
	}
}

// WithKeysLogger sets the logger for binding changes.
func WithKeysLogger(log logrus.FieldLogger) KeysOption {
	return func(m *KeysModule) {
		if log != nil {
			m.log = log
		}
	}
}

// NewKeysModule creates the module bound to target.
func NewKeysModule(target Target, opts ...KeysOption) *KeysModule {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	m := &KeysModule{
		target:  target,
		context: "global",
		scheme:  "default",
		log:     discard,
		handles: make(map[string]*keymap.Binding),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the module name.
func (m *KeysModule) Name() string {
	return "keys"
}

// Register makes the module available to scripts run by s.
func (m *KeysModule) Register(s *State) {
	s.Preload(m.Name(), m.loader)
}

func (m *KeysModule) loader(L *lua.LState) int {
	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"bind":      m.bind,
		"unbind":    m.unbind,
		"lookup":    m.lookup,
		"conflicts": m.conflicts,
		"list":      m.list,
	})
	L.Push(mod)
	return 1
}

// bind{keys, command?, context?, scheme?, params?} -> handle
func (m *KeysModule) bind(L *lua.LState) int {
	opts := L.CheckTable(1)

	keys := fieldString(L, opts, "keys")
	if keys == "" {
		L.ArgError(1, "keys is required")
		return 0
	}
	seq, err := key.ParseSequence(keys)
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	params, err := stringMap(L.GetField(opts, "params"))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}

	contextID := fieldString(L, opts, "context")
	if contextID == "" {
		contextID = m.context
	}
	schemeID := fieldString(L, opts, "scheme")
	if schemeID == "" {
		schemeID = m.scheme
	}

	cmd := keymap.NewCommand(fieldString(L, opts, "command"), params)
	b := keymap.NewBinding(seq, cmd, contextID, schemeID).WithKind(keymap.KindUser)

	handle, err := m.Bind(b)
	if err != nil {
		L.RaiseError("bind: %v", err)
		return 0
	}
	L.Push(lua.LString(handle))
	return 1
}

// unbind(handle) -> bool
func (m *KeysModule) unbind(L *lua.LState) int {
	err := m.Unbind(L.CheckString(1))
	switch {
	case err == nil:
		L.Push(lua.LTrue)
	case errors.Is(err, ErrUnknownHandle):
		L.Push(lua.LFalse)
	default:
		L.RaiseError("unbind: %v", err)
		return 0
	}
	return 1
}

// lookup(keys) -> binding or nil
func (m *KeysModule) lookup(L *lua.LState) int {
	seq, err := key.ParseSequence(L.CheckString(1))
	if err != nil {
		L.ArgError(1, err.Error())
		return 0
	}
	if b := m.target.Lookup(seq); b != nil {
		L.Push(bindingTable(L, b, ""))
	} else {
		L.Push(lua.LNil)
	}
	return 1
}

// conflicts() -> {{binding...}...}
func (m *KeysModule) conflicts(L *lua.LState) int {
	groups := m.target.Conflicts()
	t := L.CreateTable(len(groups), 0)
	for _, group := range groups {
		t.Append(bindingList(L, group))
	}
	L.Push(t)
	return 1
}

// list() -> bindings made through this module, oldest first
func (m *KeysModule) list(L *lua.LState) int {
	m.mu.Lock()
	t := L.CreateTable(len(m.order), 0)
	for _, h := range m.order {
		t.Append(bindingTable(L, m.handles[h], h))
	}
	m.mu.Unlock()

	L.Push(t)
	return 1
}

// Bind adds b to the target and returns a handle for removing it.
func (m *KeysModule) Bind(b *keymap.Binding) (string, error) {
	if err := m.target.AddBinding(b); err != nil {
		return "", err
	}

	handle := uuid.NewString()
	m.mu.Lock()
	m.handles[handle] = b
	m.order = append(m.order, handle)
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{
		"trigger": b.Sequence().String(),
		"command": b.Command().String(),
		"context": b.ContextID(),
		"handle":  handle,
	}).Debug("script binding added")
	return handle, nil
}

// Unbind removes the binding behind handle.
func (m *KeysModule) Unbind(handle string) error {
	m.mu.Lock()
	b, ok := m.handles[handle]
	if ok {
		delete(m.handles, handle)
		m.order = slices.DeleteFunc(m.order, func(h string) bool { return h == handle })
	}
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}
	return m.target.RemoveBinding(b)
}

// UnbindAll removes every binding made through the module.
func (m *KeysModule) UnbindAll() error {
	m.mu.Lock()
	order := m.order
	handles := m.handles
	m.order = nil
	m.handles = make(map[string]*keymap.Binding)
	m.mu.Unlock()

	var errs []error
	for _, h := range order {
		errs = append(errs, m.target.RemoveBinding(handles[h]))
	}
	return errors.Join(errs...)
}

// Handles returns the live handles, oldest first.
func (m *KeysModule) Handles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.order)
}
