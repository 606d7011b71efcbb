package lua

import (
	"errors"
	"testing"

	"github.com/dshills/keybind/internal/input/key"
	"github.com/dshills/keybind/internal/input/keymap"
)

// managerTarget resolves against a manager with editor active.
type managerTarget struct {
	m  *keymap.Manager
	cs keymap.ContextSet
}

func newManagerTarget(t *testing.T) *managerTarget {
	t.Helper()
	lookup := keymap.ContextMap{
		"global": {ID: "global"},
		"editor": {ID: "editor", ParentID: "global"},
	}
	cs, err := keymap.NewContextSet(lookup, []string{"editor"})
	if err != nil {
		t.Fatalf("NewContextSet error = %v", err)
	}
	m := keymap.NewManager(keymap.WithSchemes("default"), keymap.WithContextLookup(lookup))
	return &managerTarget{m: m, cs: cs}
}

func (mt *managerTarget) AddBinding(b *keymap.Binding) error    { return mt.m.AddBinding(b) }
func (mt *managerTarget) RemoveBinding(b *keymap.Binding) error { return mt.m.RemoveBinding(b) }
func (mt *managerTarget) Conflicts() [][]*keymap.Binding        { return mt.m.AllConflicts() }
func (mt *managerTarget) Lookup(seq key.Sequence) *keymap.Binding {
	return mt.m.PerfectMatch(mt.cs, seq)
}

func setupKeys(t *testing.T) (*State, *KeysModule, *managerTarget) {
	t.Helper()
	target := newManagerTarget(t)
	s := NewState()
	t.Cleanup(s.Close)

	mod := NewKeysModule(target)
	mod.Register(s)
	return s, mod, target
}

func TestKeysBind(t *testing.T) {
	s, mod, target := setupKeys(t)

	err := s.DoString(`
		handle = keys.bind{keys = "Ctrl+K Ctrl+D", command = "editor.duplicate", context = "editor", params = {count = 2}}
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	handle := s.GetGlobal("handle").String()
	if got := mod.Handles(); len(got) != 1 || got[0] != handle {
		t.Fatalf("Handles() = %v, want [%s]", got, handle)
	}

	b := target.Lookup(key.MustParseSequence("Ctrl+K Ctrl+D"))
	if b == nil {
		t.Fatal("binding not installed")
	}
	if b.Command().ID != "editor.duplicate" || b.Command().Params["count"] != "2" {
		t.Errorf("command = %v", b.Command())
	}
	if b.ContextID() != "editor" || b.SchemeID() != "default" || b.Kind() != keymap.KindUser {
		t.Errorf("binding = %v", b)
	}
}

func TestKeysBindDefaults(t *testing.T) {
	target := newManagerTarget(t)
	s := NewState()
	defer s.Close()
	NewKeysModule(target, WithDefaults("editor", "vim")).Register(s)

	if err := s.DoString(`keys.bind{keys = "g g", command = "cursor.top"}`); err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	tbl := target.m.Table("editor")
	if tbl == nil {
		t.Fatal("editor table not created")
	}
	got := tbl.Candidates(key.MustParseSequence("g g"))
	if len(got) != 1 || got[0].SchemeID() != "vim" {
		t.Errorf("candidates = %v", got)
	}
}

func TestKeysBindErrors(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{"missing keys", `keys.bind{command = "x"}`},
		{"bad keys", `keys.bind{keys = "Ctrl+Nope Enter", command = "x"}`},
		{"nested params", `keys.bind{keys = "a", command = "x", params = {n = {1}}}`},
		{"not a table", `keys.bind("a")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mod, _ := setupKeys(t)
			if err := s.DoString(tt.code); err == nil {
				t.Error("expected error")
			}
			if n := len(mod.Handles()); n != 0 {
				t.Errorf("Handles() has %d entries, want 0", n)
			}
		})
	}
}

func TestKeysUnbind(t *testing.T) {
	s, mod, target := setupKeys(t)

	err := s.DoString(`
		local h = keys.bind{keys = "Ctrl+S", command = "editor.save", context = "editor"}
		first = keys.unbind(h)
		second = keys.unbind(h)
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	if s.GetGlobal("first").String() != "true" || s.GetGlobal("second").String() != "false" {
		t.Errorf("unbind results = %v, %v", s.GetGlobal("first"), s.GetGlobal("second"))
	}
	if b := target.Lookup(key.MustParseSequence("Ctrl+S")); b != nil {
		t.Errorf("binding still installed: %v", b)
	}
	if err := mod.Unbind("nope"); !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("Unbind(nope) error = %v, want ErrUnknownHandle", err)
	}
}

func TestKeysLookup(t *testing.T) {
	s, _, target := setupKeys(t)

	save := keymap.NewBinding(key.MustParseSequence("Ctrl+S"), keymap.NewCommand("editor.save", nil), "editor", "default")
	if err := target.AddBinding(save); err != nil {
		t.Fatal(err)
	}

	err := s.DoString(`
		local b = keys.lookup("Ctrl+S")
		cmd = b.command
		ctx = b.context
		missing = keys.lookup("Ctrl+Q") == nil
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}
	if got := s.GetGlobal("cmd").String(); got != "editor.save" {
		t.Errorf("command = %q, want editor.save", got)
	}
	if got := s.GetGlobal("ctx").String(); got != "editor" {
		t.Errorf("context = %q, want editor", got)
	}
	if got := s.GetGlobal("missing").String(); got != "true" {
		t.Errorf("lookup of unbound keys = %v, want nil", got)
	}
}

func TestKeysConflicts(t *testing.T) {
	s, _, _ := setupKeys(t)

	err := s.DoString(`
		keys.bind{keys = "Ctrl+D", command = "a", context = "editor"}
		keys.bind{keys = "Ctrl+D", command = "b", context = "editor"}
		local c = keys.conflicts()
		groups = #c
		size = #c[1]
		resolved = keys.lookup("Ctrl+D") == nil
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}
	if got := s.GetGlobal("groups").String(); got != "1" {
		t.Errorf("conflict groups = %s, want 1", got)
	}
	if got := s.GetGlobal("size").String(); got != "2" {
		t.Errorf("conflict size = %s, want 2", got)
	}
	if got := s.GetGlobal("resolved").String(); got != "true" {
		t.Error("conflicting keys should not resolve")
	}
}

func TestKeysList(t *testing.T) {
	s, _, _ := setupKeys(t)

	err := s.DoString(`
		keys.bind{keys = "a", command = "first"}
		keys.bind{keys = "b", command = "second"}
		local l = keys.list()
		count = #l
		first = l[1].command
		hasHandle = l[2].handle ~= nil
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}
	if got := s.GetGlobal("count").String(); got != "2" {
		t.Errorf("count = %s, want 2", got)
	}
	if got := s.GetGlobal("first").String(); got != "first" {
		t.Errorf("first = %s, want first", got)
	}
	if got := s.GetGlobal("hasHandle").String(); got != "true" {
		t.Error("list entries should carry handles")
	}
}

func TestKeysUnbindAll(t *testing.T) {
	s, mod, target := setupKeys(t)

	err := s.DoString(`
		keys.bind{keys = "a", command = "x", context = "editor"}
		keys.bind{keys = "b", command = "y", context = "editor"}
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}

	if err := mod.UnbindAll(); err != nil {
		t.Fatalf("UnbindAll error = %v", err)
	}
	if n := len(mod.Handles()); n != 0 {
		t.Errorf("Handles() has %d entries, want 0", n)
	}
	if b := target.Lookup(key.MustParseSequence("a")); b != nil {
		t.Errorf("binding still installed: %v", b)
	}
}

func TestKeysRequire(t *testing.T) {
	s, _, target := setupKeys(t)

	err := s.DoString(`
		local k = require("keys")
		k.bind{keys = "F5", command = "run", context = "editor"}
	`)
	if err != nil {
		t.Fatalf("DoString error = %v", err)
	}
	if b := target.Lookup(key.MustParseSequence("F5")); b == nil {
		t.Error("binding via require not installed")
	}
}
