package main

import (
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"

	"github.com/dshills/keybind/internal/input/keymap"
)

func newListCmd(c *cli) *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the bindings active in the current contexts",
		Long: `List the binding each key sequence resolves to in the active contexts.
With --command, only bindings whose command fuzzily matches the query are
shown, best match first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.printer(cmd)
			if err != nil {
				return err
			}

			e, err := c.engine()
			if err != nil {
				return err
			}
			defer e.Close()

			bindings := e.ActiveBindings()
			if query != "" {
				bindings = matchCommands(bindings, query)
			}

			views := viewsOf(bindings, e.File().Description)
			return p.table(bindingHeaders, bindingRows(views, bindings), views)
		},
	}

	cmd.Flags().StringVar(&query, "command", "", "fuzzy filter on command ids")
	return cmd
}

// matchCommands keeps the bindings whose command matches query, ordered by
// match distance. The sort is stable so equal distances keep key order.
func matchCommands(bindings []*keymap.Binding, query string) []*keymap.Binding {
	ids := make([]string, len(bindings))
	for i, b := range bindings {
		ids[i] = b.Command().ID
	}

	ranks := fuzzy.RankFindNormalizedFold(query, ids)
	sort.Stable(ranks)

	out := make([]*keymap.Binding, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, bindings[r.OriginalIndex])
	}
	return out
}
