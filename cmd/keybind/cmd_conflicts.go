package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConflictsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: "List unresolved binding conflicts",
		Long: `List every set of bindings that tie for the same key sequence in the
same context. The command exits with status 1 when any exist.`,
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

			conflicts := e.Conflicts()
			if len(conflicts) == 0 {
				p.line("%s", p.ok("no conflicts"))
				if p.format == outputYAML {
					return p.yaml([][]bindingView{})
				}
				return nil
			}

			describe := e.File().Description
			groups := make([][]bindingView, 0, len(conflicts))
			var rows [][]string
			for i, group := range conflicts {
				views := viewsOf(group, describe)
				groups = append(groups, views)
				for _, row := range bindingRows(views, group) {
					rows = append(rows, append([]string{fmt.Sprint(i + 1)}, row...))
				}
			}

			headers := append([]string{"#"}, bindingHeaders...)
			if err := p.table(headers, rows, groups); err != nil {
				return err
			}
			p.line("%s", p.warn(fmt.Sprintf("%d conflicts", len(conflicts))))
			return errSilent
		},
	}
}
