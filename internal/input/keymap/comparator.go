package keymap

import (
	"cmp"
	"slices"
)

// Comparator orders competing bindings; the best binding sorts first.
// A zero Comparator has no scheme priority and ignores context depth.
type Comparator struct {
	schemes []string
	depth   func(contextID string) int
}

// NewComparator creates a comparator for the given active scheme list
// (highest priority first). depth may be nil when all compared bindings
// share a context.
func NewComparator(schemes []string, depth func(contextID string) int) Comparator {
	return Comparator{schemes: slices.Clone(schemes), depth: depth}
}

// Compare returns a negative number when a ranks better than b, a positive
// number when b ranks better, and 0 when the two cannot be told apart.
func (c Comparator) Compare(a, b *Binding) int {
	if rc := c.compareSchemes(a.schemeID, b.schemeID); rc != 0 {
		return rc
	}
	if c.depth != nil && a.contextID != b.contextID {
		// Deeper contexts are more specific.
		if rc := cmp.Compare(c.depth(b.contextID), c.depth(a.contextID)); rc != 0 {
			return rc
		}
	}
	if rc := cmp.Compare(a.sequence.Len(), b.sequence.Len()); rc != 0 {
		return rc
	}
	if rc := cmp.Compare(a.sequence.Cost(), b.sequence.Cost()); rc != 0 {
		return rc
	}
	return cmp.Compare(len(a.sequence.String()), len(b.sequence.String()))
}

// compareSchemes scans the active list in priority order. The first entry
// naming b's scheme makes b better, the first naming a's scheme makes a
// better, and identical or unlisted schemes tie.
func (c Comparator) compareSchemes(a, b string) int {
	if len(c.schemes) == 0 || a == b {
		return 0
	}
	for _, id := range c.schemes {
		if id == b {
			return 1
		}
		if id == a {
			return -1
		}
	}
	return 0
}

// Sort orders bindings best first. Bindings that Compare as equal are
// ordered by their descriptive fields, so the result never depends on the
// input order.
func (c Comparator) Sort(bindings []*Binding) {
	slices.SortStableFunc(bindings, func(a, b *Binding) int {
		if rc := c.Compare(a, b); rc != 0 {
			return rc
		}
		return compareRecords(a, b)
	})
}

// compareRecords is a total order over the descriptive fields.
func compareRecords(a, b *Binding) int {
	return cmp.Or(
		cmp.Compare(a.sequence.String(), b.sequence.String()),
		cmp.Compare(a.contextID, b.contextID),
		cmp.Compare(a.schemeID, b.schemeID),
		cmp.Compare(a.command.Key(), b.command.Key()),
		cmp.Compare(a.kind, b.kind),
		cmp.Compare(a.locale, b.locale),
		cmp.Compare(a.platform, b.platform),
	)
}
