package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(c *cli) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the keymap",
		Long: `Load and validate the keymap. Every problem found is reported.
With --strict, unresolved conflicts also fail the check.`,
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

			summary := checkSummary{
				Files:     e.Files(),
				Schemes:   e.ActiveSchemes(),
				Bindings:  len(e.File().Bindings),
				Commands:  len(e.Commands()),
				Conflicts: len(e.Conflicts()),
			}
			if p.format == outputYAML {
				if err := p.yaml(summary); err != nil {
					return err
				}
			} else {
				for _, f := range summary.Files {
					p.line("file      %s", f)
				}
				p.line("schemes   %v", summary.Schemes)
				p.line("bindings  %d", summary.Bindings)
				p.line("commands  %d", summary.Commands)
				if summary.Conflicts > 0 {
					p.line("conflicts %s", p.warn(fmt.Sprint(summary.Conflicts)))
				} else {
					p.line("%s", p.ok("ok"))
				}
			}

			if strict && summary.Conflicts > 0 {
				return fmt.Errorf("%d unresolved conflicts", summary.Conflicts)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail when bindings conflict")
	return cmd
}

type checkSummary struct {
	Files     []string `yaml:"files,omitempty"`
	Schemes   []string `yaml:"schemes"`
	Bindings  int      `yaml:"bindings"`
	Commands  int      `yaml:"commands"`
	Conflicts int      `yaml:"conflicts"`
}
