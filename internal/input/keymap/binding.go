package keymap

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dshills/keybind/internal/input/key"
)

// Kind distinguishes bindings shipped with the application from bindings
// the user defined.
type Kind uint8

const (
	// KindSystem marks a binding declared by the application or a plugin.
	KindSystem Kind = iota

	// KindUser marks a binding the user customized.
	KindUser
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindSystem:
		return "system"
	case KindUser:
		return "user"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ParseKind parses "system" or "user". An empty string is KindSystem.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "system":
		return KindSystem, nil
	case "user":
		return KindUser, nil
	default:
		return KindSystem, fmt.Errorf("unknown binding kind %q", s)
	}
}

// Command identifies the command a binding triggers, with fixed parameters.
// The zero Command means the binding is unbound.
type Command struct {
	// ID is the command identifier, e.g. "editor.save".
	ID string

	// Params are fixed parameters passed to the command.
	Params map[string]string
}

// NewCommand creates a command with a private copy of params.
func NewCommand(id string, params map[string]string) Command {
	c := Command{ID: id}
	if len(params) > 0 {
		c.Params = maps.Clone(params)
	}
	return c
}

// IsZero reports whether the command is unset.
func (c Command) IsZero() bool {
	return c.ID == ""
}

// Key returns a canonical encoding of the command and its parameters.
// Two commands are equal if and only if their keys are equal.
func (c Command) Key() string {
	if len(c.Params) == 0 {
		return c.ID
	}
	names := slices.Sorted(maps.Keys(c.Params))
	var sb strings.Builder
	sb.WriteString(c.ID)
	sb.WriteByte('(')
	for i, n := range names {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%s=%q", n, c.Params[n])
	}
	sb.WriteByte(')')
	return sb.String()
}

// Equals reports whether two commands have the same id and parameters.
func (c Command) Equals(other Command) bool {
	return c.Key() == other.Key()
}

// String implements fmt.Stringer.
func (c Command) String() string {
	if c.IsZero() {
		return "<unbound>"
	}
	return c.Key()
}

// Binding maps a key sequence to a command within one context and scheme.
//
// Bindings are immutable once created and are identified by pointer: two
// bindings with identical fields are still distinct records. The With
// methods return new records.
type Binding struct {
	sequence  key.Sequence
	command   Command
	contextID string
	schemeID  string
	locale    string
	platform  string
	kind      Kind
}

// NewBinding creates a system binding.
func NewBinding(seq key.Sequence, cmd Command, contextID, schemeID string) *Binding {
	return &Binding{
		sequence:  seq,
		command:   NewCommand(cmd.ID, cmd.Params),
		contextID: contextID,
		schemeID:  schemeID,
	}
}

// WithLocale returns a copy restricted to the given locale, e.g. "en_GB".
func (b *Binding) WithLocale(locale string) *Binding {
	c := *b
	c.locale = locale
	return &c
}

// WithPlatform returns a copy restricted to the given platform, e.g. "darwin".
func (b *Binding) WithPlatform(platform string) *Binding {
	c := *b
	c.platform = platform
	return &c
}

// WithKind returns a copy with the given kind.
func (b *Binding) WithKind(kind Kind) *Binding {
	c := *b
	c.kind = kind
	return &c
}

// Sequence returns the key sequence that triggers the binding.
func (b *Binding) Sequence() key.Sequence { return b.sequence }

// Command returns the bound command. It is zero for an unbinding.
func (b *Binding) Command() Command { return b.command }

// ContextID returns the id of the context the binding belongs to.
func (b *Binding) ContextID() string { return b.contextID }

// SchemeID returns the id of the scheme the binding belongs to.
func (b *Binding) SchemeID() string { return b.schemeID }

// Locale returns the locale filter, or "" for all locales.
func (b *Binding) Locale() string { return b.locale }

// Platform returns the platform filter, or "" for all platforms.
func (b *Binding) Platform() string { return b.platform }

// Kind returns whether this is a system or user binding.
func (b *Binding) Kind() Kind { return b.kind }

// Validate rejects records that must never enter an index.
func (b *Binding) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil binding", ErrInvalidBinding)
	}
	if b.sequence.IsEmpty() {
		return fmt.Errorf("%w: empty key sequence for %s", ErrInvalidBinding, b.command)
	}
	if b.contextID == "" {
		return fmt.Errorf("%w: %q has no context", ErrInvalidBinding, b.sequence)
	}
	return nil
}

// String returns a description such as
// "Ctrl+S -> editor.save [context=editor scheme=default system]".
func (b *Binding) String() string {
	return fmt.Sprintf("%s -> %s [context=%s scheme=%s %s]",
		b.sequence, b.command, b.contextID, b.schemeID, b.kind)
}
