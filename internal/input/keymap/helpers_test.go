package keymap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/keybind/internal/input/key"
)

func seq(s string) key.Sequence {
	return key.MustParseSequence(s)
}

func bind(keys, command, contextID, schemeID string) *Binding {
	return NewBinding(seq(keys), NewCommand(command, nil), contextID, schemeID)
}

// noneStroke is a non-keyboard trigger such as a pointer gesture.
func noneStroke() key.Stroke {
	return key.Stroke{Key: key.KeyNone, Rune: 1}
}

// permutations returns every ordering of list.
func permutations[T any](list []T) [][]T {
	if len(list) <= 1 {
		return [][]T{append([]T(nil), list...)}
	}
	var out [][]T
	for i := range list {
		rest := make([]T, 0, len(list)-1)
		rest = append(rest, list[:i]...)
		rest = append(rest, list[i+1:]...)
		for _, p := range permutations(rest) {
			out = append(out, append([]T{list[i]}, p...))
		}
	}
	return out
}

// requireConsistent checks the table's index invariants.
func requireConsistent(t *testing.T, tbl *Table) {
	t.Helper()

	for id, list := range tbl.pending {
		require.NotEmpty(t, list, "pending list for %s must not be empty", id)
		_, resolved := tbl.byTrigger[id]
		conflicted := len(tbl.conflicts[id]) > 0
		require.True(t, resolved != conflicted,
			"sequence %s: resolved=%v conflicted=%v", list[0].Sequence(), resolved, conflicted)
	}
	for id := range tbl.byTrigger {
		require.Contains(t, tbl.pending, id)
	}
	for id := range tbl.conflicts {
		require.Contains(t, tbl.pending, id)
	}
	for ck, list := range tbl.byCommand {
		require.NotEmpty(t, list, "command list for %s must not be empty", ck)
		for _, b := range list {
			require.Same(t, b, tbl.byTrigger[b.sequence.ID()])
		}
	}
	for pid, set := range tbl.byPrefix {
		require.NotEmpty(t, set, "prefix set for %s must not be empty", pid)
		for b := range set {
			require.Same(t, b, tbl.byTrigger[b.sequence.ID()])
		}
	}
}
