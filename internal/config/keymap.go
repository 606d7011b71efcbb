package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dshills/keybind/internal/input/key"
	"github.com/dshills/keybind/internal/input/keymap"
	"github.com/dshills/keybind/internal/input/when"
)

// ContextList returns the context definitions in file order. The default
// context is included as a root when the file does not define it.
func (f *File) ContextList() []keymap.Context {
	out := make([]keymap.Context, 0, len(f.Contexts)+1)
	for _, c := range f.Contexts {
		out = append(out, keymap.Context{ID: c.ID, ParentID: c.Parent})
	}
	if !slices.ContainsFunc(f.Contexts, func(c ContextDef) bool { return c.ID == DefaultContext }) {
		out = append(out, keymap.Context{ID: DefaultContext})
	}
	return out
}

// ContextMap returns the contexts as a lookup.
func (f *File) ContextMap() keymap.ContextMap {
	m := make(keymap.ContextMap)
	for _, c := range f.ContextList() {
		m[c.ID] = c
	}
	return m
}

// ContextName returns the display name of a context, if one is set.
func (f *File) ContextName(id string) string {
	for _, c := range f.Contexts {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

// schemeMap returns the scheme tree as a lookup. Schemes form a parent
// tree with the same shape as contexts.
func (f *File) schemeMap() keymap.ContextMap {
	m := keymap.ContextMap{DefaultScheme: {ID: DefaultScheme}}
	for _, s := range f.Schemes {
		m[s.ID] = keymap.Context{ID: s.ID, ParentID: s.Parent}
	}
	return m
}

// SchemeChain returns id followed by its parent chain. The default scheme
// is always defined.
func (f *File) SchemeChain(id string) ([]string, error) {
	schemes := f.schemeMap()
	if _, ok := schemes[id]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, id)
	}
	chain, err := keymap.Ancestors(schemes, id)
	if err != nil {
		return chain, fmt.Errorf("%w: %s", ErrSchemeCycle, id)
	}
	return chain, nil
}

// SchemePriority expands the active scheme ids into the manager's priority
// list: each id followed by its parent chain, without repeats. When ids is
// empty the file's ActiveSchemes are used, then the default scheme.
func (f *File) SchemePriority(ids ...string) ([]string, error) {
	if len(ids) == 0 {
		ids = f.ActiveSchemes
	}
	if len(ids) == 0 {
		ids = []string{DefaultScheme}
	}

	var out []string
	for _, id := range ids {
		chain, err := f.SchemeChain(id)
		if err != nil {
			return nil, err
		}
		for _, s := range chain {
			if !slices.Contains(out, s) {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

// Filter returns the locale and platform filter for the file.
func (f *File) Filter() keymap.Filter {
	return keymap.NewFilter(f.Locale, f.Platform)
}

// Conditions returns the when expression of every command that has one.
func (f *File) Conditions() map[string]string {
	out := make(map[string]string)
	for _, c := range f.Commands {
		if c.When != "" {
			out[c.ID] = c.When
		}
	}
	return out
}

// Description returns the description of a command, if one is set.
func (f *File) Description(commandID string) string {
	for _, c := range f.Commands {
		if c.ID == commandID {
			return c.Description
		}
	}
	return ""
}

// Binding converts the entry to a binding record.
func (d BindingDef) Binding() (*keymap.Binding, error) {
	seq, err := key.ParseSequence(d.Keys)
	if err != nil {
		return nil, err
	}
	if seq.IsEmpty() {
		return nil, fmt.Errorf("%w: empty keys", keymap.ErrInvalidBinding)
	}
	kind, err := keymap.ParseKind(d.Kind)
	if err != nil {
		return nil, err
	}

	contextID := d.Context
	if contextID == "" {
		contextID = DefaultContext
	}
	schemeID := d.Scheme
	if schemeID == "" {
		schemeID = DefaultScheme
	}

	b := keymap.NewBinding(seq, keymap.NewCommand(d.Command, d.Params), contextID, schemeID).
		WithKind(kind)
	if d.Locale != "" {
		b = b.WithLocale(keymap.NormalizeLocale(d.Locale))
	}
	if d.Platform != "" {
		b = b.WithPlatform(d.Platform)
	}
	return b, nil
}

// Compile converts the bindings admitted by filter into records, in file
// order.
func (f *File) Compile(filter keymap.Filter) ([]*keymap.Binding, error) {
	out := make([]*keymap.Binding, 0, len(f.Bindings))
	for i, d := range f.Bindings {
		b, err := d.Binding()
		if err != nil {
			return nil, fmt.Errorf("bindings[%d]: %w", i, err)
		}
		if filter.Matches(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

// Validate checks references and syntax across the file. It returns every
// problem found, joined.
func (f *File) Validate() error {
	var errs []error
	add := func(path, msg string, value any, code ValidationErrorCode) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value, Code: code})
	}

	contexts := f.ContextMap()
	for i, c := range f.Contexts {
		path := fmt.Sprintf("contexts[%d]", i)
		if c.ID == "" {
			add(path+".id", "id is required", nil, ErrCodeRequiredMissing)
			continue
		}
		if c.Parent != "" {
			if _, ok := contexts[c.Parent]; !ok {
				add(path+".parent", "unknown context", c.Parent, ErrCodeUnknownReference)
			}
		}
		if _, err := keymap.Ancestors(contexts, c.ID); err != nil {
			add(path, "parent chain loops", c.ID, ErrCodeCycle)
		}
	}

	schemes := f.schemeMap()
	for i, s := range f.Schemes {
		path := fmt.Sprintf("schemes[%d]", i)
		if s.ID == "" {
			add(path+".id", "id is required", nil, ErrCodeRequiredMissing)
			continue
		}
		if s.Parent != "" {
			if _, ok := schemes[s.Parent]; !ok {
				add(path+".parent", "unknown scheme", s.Parent, ErrCodeUnknownReference)
			}
		}
		if _, err := keymap.Ancestors(schemes, s.ID); err != nil {
			add(path, "parent chain loops", s.ID, ErrCodeCycle)
		}
	}

	for i, id := range f.ActiveSchemes {
		if _, ok := schemes[id]; !ok {
			add(fmt.Sprintf("active_schemes[%d]", i), "unknown scheme", id, ErrCodeUnknownReference)
		}
	}

	for i, c := range f.Commands {
		path := fmt.Sprintf("commands[%d]", i)
		if c.ID == "" {
			add(path+".id", "id is required", nil, ErrCodeRequiredMissing)
		}
		if c.When != "" {
			if _, err := when.Compile(c.When); err != nil {
				add(path+".when", err.Error(), c.When, ErrCodeInvalidExpression)
			}
		}
	}

	for i, d := range f.Bindings {
		path := fmt.Sprintf("bindings[%d]", i)
		if d.Keys == "" {
			add(path+".keys", "keys are required", nil, ErrCodeRequiredMissing)
		} else if _, err := key.ParseSequence(d.Keys); err != nil {
			add(path+".keys", err.Error(), d.Keys, ErrCodeInvalidKeys)
		}
		if d.Context != "" {
			if _, ok := contexts[d.Context]; !ok {
				add(path+".context", "unknown context", d.Context, ErrCodeUnknownReference)
			}
		}
		if d.Scheme != "" {
			if _, ok := schemes[d.Scheme]; !ok {
				add(path+".scheme", "unknown scheme", d.Scheme, ErrCodeUnknownReference)
			}
		}
		if _, err := keymap.ParseKind(d.Kind); err != nil {
			add(path+".kind", "must be system or user", d.Kind, ErrCodeInvalidEnum)
		}
	}

	return errors.Join(errs...)
}
