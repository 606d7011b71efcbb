package input

import (
	"maps"

	"github.com/dshills/keybind/internal/input/key"
	"github.com/dshills/keybind/internal/input/keymap"
)

// ActionSource indicates the origin of an action.
type ActionSource uint8

const (
	// SourceKeyboard indicates the action originated from keyboard input.
	SourceKeyboard ActionSource = iota
	// SourcePlugin indicates the action originated from a plugin.
	SourcePlugin
	// SourceAPI indicates the action originated from an API call.
	SourceAPI
)

// String returns a string representation of the action source.
func (s ActionSource) String() string {
	switch s {
	case SourceKeyboard:
		return "keyboard"
	case SourcePlugin:
		return "plugin"
	case SourceAPI:
		return "api"
	default:
		return "unknown"
	}
}

// Action represents a command to be executed by the host.
type Action struct {
	// Command is the command identifier (e.g., "editor.save").
	Command string

	// Params are the fixed parameters from the binding.
	Params map[string]string

	// Sequence is the key sequence that triggered the action.
	Sequence key.Sequence

	// Context is the id of the context whose binding matched.
	Context string

	// Scheme is the scheme of the matched binding.
	Scheme string

	// Source indicates where this action originated.
	Source ActionSource
}

// actionFor builds the action for a matched binding.
func actionFor(b *keymap.Binding, source ActionSource) Action {
	cmd := b.Command()
	return Action{
		Command:  cmd.ID,
		Params:   maps.Clone(cmd.Params),
		Sequence: b.Sequence(),
		Context:  b.ContextID(),
		Scheme:   b.SchemeID(),
		Source:   source,
	}
}

// Param returns a parameter value.
func (a Action) Param(name string) string {
	return a.Params[name]
}

// Unmatched describes a sequence that matched nothing.
type Unmatched struct {
	// Sequence is the abandoned key sequence.
	Sequence key.Sequence

	// TimedOut is true when the sequence was abandoned by the timeout
	// rather than by a stroke that matched nothing.
	TimedOut bool
}
