package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/keybind/internal/app"
	"github.com/dshills/keybind/internal/input/key"
)

// Resolution outcomes.
const (
	resultMatch    = "match"
	resultPrefix   = "prefix"
	resultConflict = "conflict"
	resultUnbound  = "unbound"
)

func newResolveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve SEQUENCE...",
		Short: "Show which command key sequences run",
		Long: `Resolve each key sequence in the active contexts. Strokes within a
sequence are separated by spaces, so quote multi-stroke sequences:

  keybind resolve -c editor Ctrl+S "Ctrl+K Ctrl+C"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.printer(cmd)
			if err != nil {
				return err
			}

			seqs := make([]key.Sequence, 0, len(args))
			for _, arg := range args {
				seq, err := key.ParseSequence(arg)
				if err != nil {
					return fmt.Errorf("parsing %q: %w", arg, err)
				}
				seqs = append(seqs, seq)
			}

			e, err := c.engine()
			if err != nil {
				return err
			}
			defer e.Close()

			describe := e.File().Description
			views := make([]resolveView, 0, len(seqs))
			rows := make([][]string, 0, len(seqs))
			for _, seq := range seqs {
				v := resolveViewOf(e.Resolve(seq), describe)
				views = append(views, v)
				rows = append(rows, v.row())
			}

			return p.table([]string{"KEYS", "RESULT", "COMMAND", "CONTEXT", "SCHEME"}, rows, views)
		},
	}
}

// resolveView is the printed form of a resolution.
type resolveView struct {
	Keys          string        `yaml:"keys"`
	Result        string        `yaml:"result"`
	Binding       *bindingView  `yaml:"binding,omitempty"`
	Continuations []bindingView `yaml:"continuations,omitempty"`
	Conflicts     []bindingView `yaml:"conflicts,omitempty"`
}

func resolveViewOf(r app.Resolution, describe func(string) string) resolveView {
	v := resolveView{
		Keys:          r.Sequence.String(),
		Continuations: viewsOf(r.Continuations, describe),
		Conflicts:     viewsOf(r.Conflicts, describe),
	}
	switch {
	case r.Binding != nil:
		b := viewOf(r.Binding, describe)
		v.Binding = &b
		v.Result = resultMatch
	case len(r.Continuations) > 0:
		v.Result = resultPrefix
	case len(r.Conflicts) > 0:
		v.Result = resultConflict
	default:
		v.Result = resultUnbound
	}
	return v
}

func (v resolveView) row() []string {
	switch v.Result {
	case resultMatch:
		cmd := v.Binding.Command
		if len(v.Binding.Params) > 0 {
			cmd = fmt.Sprintf("%s %v", cmd, v.Binding.Params)
		}
		return []string{v.Keys, v.Result, cmd, v.Binding.Context, v.Binding.Scheme}
	case resultPrefix:
		return []string{v.Keys, v.Result, fmt.Sprintf("%d continuations", len(v.Continuations)), "", ""}
	case resultConflict:
		var cmds []string
		for _, b := range v.Conflicts {
			cmds = append(cmds, b.Command)
		}
		return []string{v.Keys, v.Result, fmt.Sprint(cmds), v.Conflicts[0].Context, v.Conflicts[0].Scheme}
	default:
		return []string{v.Keys, v.Result, "", "", ""}
	}
}
