package keymap

import (
	"cmp"
	"fmt"
	"slices"
)

// Context is a named scope in which bindings are eligible.
type Context struct {
	// ID identifies the context, e.g. "editor".
	ID string

	// ParentID is the enclosing context, or "" for a root.
	ParentID string
}

// ContextLookup resolves context ids to their definitions.
type ContextLookup interface {
	// Context returns the context with the given id, if defined.
	Context(id string) (Context, bool)
}

// ContextMap is a ContextLookup backed by a map.
type ContextMap map[string]Context

// Context implements ContextLookup.
func (m ContextMap) Context(id string) (Context, bool) {
	c, ok := m[id]
	return c, ok
}

// Ancestors returns id followed by its parent chain up to a root. A
// context whose parent is undefined is a root. If the chain loops, the
// walk stops before the repeated id and ErrContextCycle is returned with
// the chain collected so far.
func Ancestors(lookup ContextLookup, id string) ([]string, error) {
	chain := []string{id}
	if lookup == nil {
		return chain, nil
	}

	seen := map[string]bool{id: true}
	current := id
	for {
		c, ok := lookup.Context(current)
		if !ok || c.ParentID == "" {
			return chain, nil
		}
		if _, ok := lookup.Context(c.ParentID); !ok {
			return chain, nil
		}
		if seen[c.ParentID] {
			return chain, fmt.Errorf("%w: %s -> %s", ErrContextCycle, current, c.ParentID)
		}
		seen[c.ParentID] = true
		chain = append(chain, c.ParentID)
		current = c.ParentID
	}
}

// Depth returns the number of ancestor hops from id to its root.
func Depth(lookup ContextLookup, id string) (int, error) {
	chain, err := Ancestors(lookup, id)
	return len(chain) - 1, err
}

// ContextSet is an immutable, ordered snapshot of active contexts and
// their ancestors. Contexts are ordered by depth, then by id, so the
// first entries are the least specific.
type ContextSet struct {
	ids   []string
	depth map[string]int
}

// NewContextSet builds the set from the active context ids. Ancestors of
// every active id are included. If a parent chain contains a cycle, the
// set is still built from the contexts reached and the first cycle error
// is returned alongside it.
func NewContextSet(lookup ContextLookup, active []string) (ContextSet, error) {
	cs := ContextSet{depth: make(map[string]int)}
	var firstErr error

	for _, id := range active {
		if id == "" {
			continue
		}
		chain, err := Ancestors(lookup, id)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		// chain runs child to root; depth counts from the root end.
		for i, cid := range chain {
			d := len(chain) - 1 - i
			if _, ok := cs.depth[cid]; ok {
				continue
			}
			cs.depth[cid] = d
			cs.ids = append(cs.ids, cid)
		}
	}

	slices.SortFunc(cs.ids, func(a, b string) int {
		if c := cmp.Compare(cs.depth[a], cs.depth[b]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	return cs, firstErr
}

// IDs returns the context ids from least to most specific.
func (cs ContextSet) IDs() []string {
	return slices.Clone(cs.ids)
}

// MostSpecificFirst returns the context ids from most to least specific.
func (cs ContextSet) MostSpecificFirst() []string {
	out := slices.Clone(cs.ids)
	slices.Reverse(out)
	return out
}

// Contains reports whether id is in the set.
func (cs ContextSet) Contains(id string) bool {
	_, ok := cs.depth[id]
	return ok
}

// Depth returns the depth of id in the set.
func (cs ContextSet) Depth(id string) (int, bool) {
	d, ok := cs.depth[id]
	return d, ok
}

// Len returns the number of contexts in the set.
func (cs ContextSet) Len() int {
	return len(cs.ids)
}

// IsEmpty reports whether the set has no contexts.
func (cs ContextSet) IsEmpty() bool {
	return len(cs.ids) == 0
}

// depthFunc returns the depth lookup used when ranking across contexts.
// Contexts outside the set rank as roots.
func (cs ContextSet) depthFunc() func(string) int {
	return func(id string) int {
		return cs.depth[id]
	}
}
