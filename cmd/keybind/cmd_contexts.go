package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xlab/treeprint"

	"github.com/dshills/keybind/internal/input/scope"
)

func newContextsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "contexts",
		Short: "Show the context tree",
		Long:  `Print the context tree. Active contexts are marked with "*".`,
		Args:  cobra.NoArgs,
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

			reg := e.Scopes()
			if p.format == outputYAML {
				return p.yaml(contextViews(reg))
			}

			tree := treeprint.NewWithRoot("contexts")
			for _, id := range reg.Roots() {
				addContext(tree, reg, id)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), tree.String())
			return err
		},
	}
}

func contextLabel(reg *scope.Registry, id string) string {
	label := id
	if name := reg.Name(id); name != "" {
		label = fmt.Sprintf("%s (%s)", id, name)
	}
	if reg.IsActive(id) {
		label += " *"
	}
	return label
}

func addContext(branch treeprint.Tree, reg *scope.Registry, id string) {
	children := reg.Children(id)
	if len(children) == 0 {
		branch.AddNode(contextLabel(reg, id))
		return
	}
	sub := branch.AddBranch(contextLabel(reg, id))
	for _, child := range children {
		addContext(sub, reg, child)
	}
}

type contextView struct {
	ID     string `yaml:"id"`
	Parent string `yaml:"parent,omitempty"`
	Name   string `yaml:"name,omitempty"`
	Active bool   `yaml:"active"`
}

func contextViews(reg *scope.Registry) []contextView {
	var out []contextView
	for _, c := range reg.Contexts() {
		out = append(out, contextView{
			ID:     c.ID,
			Parent: c.ParentID,
			Name:   reg.Name(c.ID),
			Active: reg.IsActive(c.ID),
		})
	}
	return out
}
