package config

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Defaults applied to entries that leave a field empty.
const (
	DefaultContext = "global"
	DefaultScheme  = "default"
)

// listKeys are the top-level lists that accumulate across @include files.
var listKeys = []string{"contexts", "schemes", "commands", "bindings"}

// File is a keymap document.
type File struct {
	// Locale restricts locale-specific bindings, e.g. "en_GB".
	Locale string `mapstructure:"locale"`

	// Platform restricts platform-specific bindings, e.g. "linux".
	Platform string `mapstructure:"platform"`

	// ActiveSchemes lists the scheme ids to activate, highest priority first.
	// Each expands to itself followed by its parent chain.
	ActiveSchemes []string `mapstructure:"active_schemes"`

	// Contexts defines the context tree.
	Contexts []ContextDef `mapstructure:"contexts"`

	// Schemes defines the schemes and their parents.
	Schemes []SchemeDef `mapstructure:"schemes"`

	// Commands attaches enablement conditions to commands.
	Commands []CommandDef `mapstructure:"commands"`

	// Bindings are the key-to-command mappings.
	Bindings []BindingDef `mapstructure:"bindings"`
}

// ContextDef defines one context.
type ContextDef struct {
	ID     string `mapstructure:"id"`
	Parent string `mapstructure:"parent"`
	Name   string `mapstructure:"name"`
}

// SchemeDef defines one scheme.
type SchemeDef struct {
	ID     string `mapstructure:"id"`
	Parent string `mapstructure:"parent"`
	Name   string `mapstructure:"name"`
}

// CommandDef describes a command.
type CommandDef struct {
	ID          string `mapstructure:"id"`
	When        string `mapstructure:"when"`
	Description string `mapstructure:"description"`
}

// BindingDef is one binding entry. An empty Command declares an unbinding
// that hides lower-priority bindings of the same keys.
type BindingDef struct {
	Keys     string            `mapstructure:"keys"`
	Command  string            `mapstructure:"command"`
	Params   map[string]string `mapstructure:"params"`
	Context  string            `mapstructure:"context"`
	Scheme   string            `mapstructure:"scheme"`
	Locale   string            `mapstructure:"locale"`
	Platform string            `mapstructure:"platform"`
	Kind     string            `mapstructure:"kind"`
}

// Decode converts a loaded document into a File. Unknown fields are
// rejected. Repeated context, scheme and command ids keep the last
// definition.
func Decode(doc map[string]any) (*File, error) {
	var f File
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &f,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding keymap: %w", err)
	}
	f.normalize()
	return &f, nil
}

// Merge layers other over f. Contexts, schemes and commands replace
// entries with the same id; bindings are appended. Scalar fields in other
// override f's when set.
func (f *File) Merge(other *File) {
	if other == nil {
		return
	}
	if other.Locale != "" {
		f.Locale = other.Locale
	}
	if other.Platform != "" {
		f.Platform = other.Platform
	}
	if len(other.ActiveSchemes) > 0 {
		f.ActiveSchemes = other.ActiveSchemes
	}
	f.Contexts = upsert(f.Contexts, contextID, other.Contexts...)
	f.Schemes = upsert(f.Schemes, schemeID, other.Schemes...)
	f.Commands = upsert(f.Commands, commandID, other.Commands...)
	f.Bindings = append(f.Bindings, other.Bindings...)
}

// normalize collapses repeated ids, keeping the last definition in the
// position of the first.
func (f *File) normalize() {
	f.Contexts = upsert(nil, contextID, f.Contexts...)
	f.Schemes = upsert(nil, schemeID, f.Schemes...)
	f.Commands = upsert(nil, commandID, f.Commands...)
}

func contextID(d ContextDef) string { return d.ID }
func schemeID(d SchemeDef) string   { return d.ID }
func commandID(d CommandDef) string { return d.ID }

func upsert[T any](list []T, id func(T) string, items ...T) []T {
	index := make(map[string]int, len(list))
	for i, item := range list {
		index[id(item)] = i
	}
	for _, item := range items {
		if i, ok := index[id(item)]; ok {
			list[i] = item
			continue
		}
		index[id(item)] = len(list)
		list = append(list, item)
	}
	return list
}
