// Package keymap is the key-binding resolution engine.
//
// Given the active contexts, the active scheme priority list and a key
// sequence, the engine decides which command the sequence activates and
// what happens when several bindings compete for the same sequence.
//
// # Key Concepts
//
// Binding: An immutable record mapping a key sequence to a command within
// one context and one scheme.
//
// Context: A named scope. Contexts form a forest through parent ids; a
// ContextSet is the ordered snapshot of the active contexts and all of
// their ancestors.
//
// Table: All bindings declared for one context, with incremental
// per-sequence resolution and conflict detection.
//
// Manager: The tables keyed by context id, answering queries across a
// ContextSet.
//
// # Ranking
//
// Bindings competing for the same sequence are ordered by Comparator:
//  1. Scheme priority (earlier in the active scheme list wins)
//  2. Context depth (deeper wins; only across contexts)
//  3. Sequence length (fewer strokes wins)
//  4. Stroke cost (cheaper modifiers win)
//  5. Length of the canonical text (shorter wins)
//
// Bindings that tie at every level are a conflict: neither is installed
// and both are reported by ConflictsFor.
//
// # Usage
//
//	m := keymap.NewManager(
//	    keymap.WithSchemes("emacs", "default"),
//	    keymap.WithEnabled(isEnabled),
//	    keymap.WithContextLookup(contexts),
//	)
//	_ = m.AddBinding(keymap.NewBinding(
//	    key.MustParseSequence("Ctrl+K Ctrl+C"),
//	    keymap.NewCommand("editor.comment", nil),
//	    "editor", "default",
//	))
//
//	cs, _ := keymap.NewContextSet(contexts, []string{"editor"})
//	if b := m.PerfectMatch(cs, seq); b != nil {
//	    // execute b.Command()
//	} else if m.IsPartialMatch(cs, seq) {
//	    // wait for more keys
//	}
//
// # Concurrency
//
// Table and Manager do no locking. Callers must serialize mutation and
// queries, typically from a single input-dispatch goroutine.
package keymap
