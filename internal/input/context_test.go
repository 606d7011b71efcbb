package input

import (
	"testing"

	"github.com/dshills/keybind/internal/input/key"
)

func TestNewContext(t *testing.T) {
	ctx := NewContext()

	if ctx.Conditions == nil {
		t.Error("expected Conditions map to be initialized")
	}
	if ctx.Variables == nil {
		t.Error("expected Variables map to be initialized")
	}
	if !ctx.PendingSequence.IsEmpty() {
		t.Error("expected empty pending sequence")
	}
}

func TestContextClone(t *testing.T) {
	ctx := NewContext()
	ctx.SetCondition("editorFocus", true)
	ctx.SetVariable("lang", "go")
	ctx.AppendToSequence(key.MustParse("Ctrl+K"))

	clone := ctx.Clone()

	if !clone.GetCondition("editorFocus") {
		t.Error("expected condition to be copied")
	}
	if clone.GetVariable("lang") != "go" {
		t.Errorf("expected variable lang=go, got %q", clone.GetVariable("lang"))
	}
	if !clone.PendingSequence.Equals(ctx.PendingSequence) {
		t.Error("expected pending sequence to be copied")
	}

	clone.SetCondition("editorFocus", false)
	clone.SetVariable("lang", "rust")
	if !ctx.GetCondition("editorFocus") || ctx.GetVariable("lang") != "go" {
		t.Error("modifying clone should not affect original")
	}
}

func TestContextCloneNilMaps(t *testing.T) {
	ctx := &Context{}
	clone := ctx.Clone()

	if clone.Conditions != nil || clone.Variables != nil {
		t.Error("nil maps should stay nil in the clone")
	}
	if clone.GetCondition("missing") {
		t.Error("missing condition should be false")
	}
}

func TestContextSequence(t *testing.T) {
	ctx := NewContext()
	ctx.AppendToSequence(key.MustParse("Ctrl+K"))
	ctx.AppendToSequence(key.MustParse("Ctrl+C"))

	if got := ctx.PendingSequence.String(); got != "Ctrl+K Ctrl+C" {
		t.Errorf("PendingSequence = %q, want %q", got, "Ctrl+K Ctrl+C")
	}

	ctx.ClearSequence()
	if !ctx.PendingSequence.IsEmpty() {
		t.Error("expected sequence to be cleared")
	}
}

func TestContextEnv(t *testing.T) {
	ctx := NewContext()
	ctx.SetCondition("readOnly", true)
	ctx.SetVariable("lang", "go")
	ctx.SetVariable("readOnly", "shadowed")

	env := ctx.Env()
	if env["readOnly"] != true {
		t.Errorf("env[readOnly] = %v, want true", env["readOnly"])
	}
	if env["lang"] != "go" {
		t.Errorf("env[lang] = %v, want go", env["lang"])
	}
}
