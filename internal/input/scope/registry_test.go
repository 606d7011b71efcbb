package scope

import (
	"errors"
	"slices"
	"testing"

	"github.com/dshills/keybind/internal/input/keymap"
)

func newEditorRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, c := range []keymap.Context{
		{ID: "global"},
		{ID: "text", ParentID: "global"},
		{ID: "editor", ParentID: "text"},
		{ID: "terminal", ParentID: "global"},
		{ID: "picker", ParentID: "global"},
	} {
		if err := r.Define(c); err != nil {
			t.Fatalf("Define(%s): %v", c.ID, err)
		}
	}
	return r
}

func TestRegistryDefine(t *testing.T) {
	r := newEditorRegistry(t)

	c, ok := r.Context("editor")
	if !ok || c.ParentID != "text" {
		t.Errorf("Context(editor) = %+v, %v", c, ok)
	}
	if _, ok := r.Context("missing"); ok {
		t.Error("Context(missing) should not be found")
	}
	if got := len(r.Contexts()); got != 5 {
		t.Errorf("len(Contexts()) = %d, want 5", got)
	}
	if err := r.Define(keymap.Context{}); !errors.Is(err, ErrEmptyID) {
		t.Errorf("Define(empty) error = %v, want ErrEmptyID", err)
	}
}

func TestRegistryDefineRejectsCycle(t *testing.T) {
	r := newEditorRegistry(t)

	err := r.Define(keymap.Context{ID: "global", ParentID: "editor"})
	if !errors.Is(err, keymap.ErrContextCycle) {
		t.Fatalf("Define cycle error = %v, want ErrContextCycle", err)
	}

	c, _ := r.Context("global")
	if c.ParentID != "" {
		t.Error("rejected definition should not replace the existing one")
	}

	if err := r.Define(keymap.Context{ID: "self", ParentID: "self"}); !errors.Is(err, keymap.ErrContextCycle) {
		t.Errorf("self parent error = %v, want ErrContextCycle", err)
	}
}

func TestRegistryForwardParent(t *testing.T) {
	r := NewRegistry()
	if err := r.Define(keymap.Context{ID: "child", ParentID: "later"}); err != nil {
		t.Fatalf("Define: %v", err)
	}
	if err := r.Define(keymap.Context{ID: "later"}); err != nil {
		t.Fatalf("Define: %v", err)
	}
	if err := r.Activate("child"); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	cs, err := r.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if want := []string{"later", "child"}; !slices.Equal(cs.IDs(), want) {
		t.Errorf("IDs() = %v, want %v", cs.IDs(), want)
	}
}

func TestRegistryTree(t *testing.T) {
	r := newEditorRegistry(t)

	if got, want := r.Roots(), []string{"global"}; !slices.Equal(got, want) {
		t.Errorf("Roots() = %v, want %v", got, want)
	}
	if got, want := r.Children("global"), []string{"picker", "terminal", "text"}; !slices.Equal(got, want) {
		t.Errorf("Children(global) = %v, want %v", got, want)
	}
	if got := r.Children("editor"); len(got) != 0 {
		t.Errorf("Children(editor) = %v, want none", got)
	}
}

func TestRegistryActivate(t *testing.T) {
	r := newEditorRegistry(t)

	if err := r.Activate("editor"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if !r.IsActive("editor") {
		t.Error("editor should be active")
	}
	if r.IsActive("text") {
		t.Error("ancestors are not explicitly active")
	}

	cs, err := r.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if want := []string{"global", "text", "editor"}; !slices.Equal(cs.IDs(), want) {
		t.Errorf("Snapshot IDs = %v, want %v", cs.IDs(), want)
	}

	if err := r.Activate("missing"); !errors.Is(err, ErrUnknownContext) {
		t.Errorf("Activate(missing) error = %v, want ErrUnknownContext", err)
	}

	r.Deactivate("editor")
	if r.IsActive("editor") {
		t.Error("editor should be inactive")
	}
}

func TestRegistrySetActive(t *testing.T) {
	r := newEditorRegistry(t)
	_ = r.Activate("terminal")

	if err := r.SetActive("editor", "picker"); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if got, want := r.Active(), []string{"editor", "picker"}; !slices.Equal(got, want) {
		t.Errorf("Active() = %v, want %v", got, want)
	}

	if err := r.SetActive("editor", "missing"); !errors.Is(err, ErrUnknownContext) {
		t.Errorf("SetActive error = %v, want ErrUnknownContext", err)
	}
	if got, want := r.Active(), []string{"editor", "picker"}; !slices.Equal(got, want) {
		t.Errorf("failed SetActive changed Active() to %v", got)
	}
}

func TestRegistryStack(t *testing.T) {
	r := newEditorRegistry(t)
	_ = r.Activate("editor")

	if err := r.Push("picker"); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if r.StackDepth() != 1 {
		t.Errorf("StackDepth() = %d, want 1", r.StackDepth())
	}
	if !r.IsActive("picker") {
		t.Error("pushed context should be active")
	}

	id, err := r.Pop()
	if err != nil || id != "picker" {
		t.Errorf("Pop() = %q, %v", id, err)
	}
	if r.IsActive("picker") {
		t.Error("popped context should be inactive")
	}
	if _, err := r.Pop(); !errors.Is(err, ErrEmptyStack) {
		t.Errorf("Pop on empty stack error = %v, want ErrEmptyStack", err)
	}
	if err := r.Push("missing"); !errors.Is(err, ErrUnknownContext) {
		t.Errorf("Push(missing) error = %v, want ErrUnknownContext", err)
	}
}

func TestRegistryUndefine(t *testing.T) {
	r := newEditorRegistry(t)
	_ = r.Activate("terminal")

	if err := r.Undefine("terminal"); !errors.Is(err, ErrContextActive) {
		t.Errorf("Undefine(active) error = %v, want ErrContextActive", err)
	}
	r.Deactivate("terminal")
	if err := r.Undefine("terminal"); err != nil {
		t.Errorf("Undefine: %v", err)
	}
	if _, ok := r.Context("terminal"); ok {
		t.Error("terminal should be undefined")
	}
	if err := r.Undefine("terminal"); !errors.Is(err, ErrUnknownContext) {
		t.Errorf("Undefine twice error = %v, want ErrUnknownContext", err)
	}
}

func TestRegistryOnChange(t *testing.T) {
	r := newEditorRegistry(t)

	var calls [][]string
	unregister := r.OnChange(func(active []string) {
		calls = append(calls, active)
	})

	_ = r.Activate("editor")
	_ = r.Activate("editor") // no change
	_ = r.Push("picker")
	r.Deactivate("missing") // no change

	if len(calls) != 2 {
		t.Fatalf("callback calls = %d, want 2", len(calls))
	}
	if want := []string{"editor", "picker"}; !slices.Equal(calls[1], want) {
		t.Errorf("second call = %v, want %v", calls[1], want)
	}

	unregister()
	_, _ = r.Pop()
	if len(calls) != 2 {
		t.Errorf("callback called after unregister")
	}
}

func TestRegistryNames(t *testing.T) {
	r := NewRegistry()
	_ = r.DefineNamed(keymap.Context{ID: "editor"}, "Text Editor")
	_ = r.Define(keymap.Context{ID: "global"})

	if got := r.Name("editor"); got != "Text Editor" {
		t.Errorf("Name(editor) = %q", got)
	}
	if got := r.Name("global"); got != "global" {
		t.Errorf("Name(global) = %q", got)
	}
}

func TestRegistryLookupIsCopy(t *testing.T) {
	r := newEditorRegistry(t)
	lookup := r.Lookup()
	delete(lookup, "editor")

	if _, ok := r.Context("editor"); !ok {
		t.Error("Lookup() should return a copy")
	}
}
