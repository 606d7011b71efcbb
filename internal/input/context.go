package input

import (
	"maps"

	"github.com/dshills/keybind/internal/input/key"
)

// Context holds the host state visible to when expressions and the
// pending key sequence.
type Context struct {
	// Conditions holds condition flags for when expressions.
	// Keys: "editorFocus", "readOnly", "hasSelection", etc.
	Conditions map[string]bool

	// Variables holds context variables.
	// Keys: "lang", "scheme", etc.
	Variables map[string]string

	// PendingSequence holds the strokes typed so far.
	PendingSequence key.Sequence
}

// NewContext creates a new input context with empty maps.
func NewContext() *Context {
	return &Context{
		Conditions: make(map[string]bool),
		Variables:  make(map[string]string),
	}
}

// Clone returns a deep copy of the context.
// Nil maps are preserved as nil in the clone (not converted to empty maps).
func (c *Context) Clone() *Context {
	return &Context{
		Conditions:      maps.Clone(c.Conditions),
		Variables:       maps.Clone(c.Variables),
		PendingSequence: c.PendingSequence,
	}
}

// SetCondition sets a condition flag.
func (c *Context) SetCondition(name string, value bool) {
	if c.Conditions == nil {
		c.Conditions = make(map[string]bool)
	}
	c.Conditions[name] = value
}

// GetCondition returns a condition flag value.
func (c *Context) GetCondition(name string) bool {
	return c.Conditions[name]
}

// SetVariable sets a context variable.
func (c *Context) SetVariable(name, value string) {
	if c.Variables == nil {
		c.Variables = make(map[string]string)
	}
	c.Variables[name] = value
}

// GetVariable returns a context variable value.
func (c *Context) GetVariable(name string) string {
	return c.Variables[name]
}

// Env returns the conditions and variables as one map for expression
// evaluation. A condition and a variable with the same name resolve to
// the condition.
func (c *Context) Env() map[string]any {
	env := make(map[string]any, len(c.Conditions)+len(c.Variables))
	for k, v := range c.Variables {
		env[k] = v
	}
	for k, v := range c.Conditions {
		env[k] = v
	}
	return env
}

// AppendToSequence adds a stroke to the pending sequence.
func (c *Context) AppendToSequence(st key.Stroke) {
	c.PendingSequence = c.PendingSequence.Append(st)
}

// ClearSequence clears the pending sequence.
func (c *Context) ClearSequence() {
	c.PendingSequence = key.Sequence{}
}
