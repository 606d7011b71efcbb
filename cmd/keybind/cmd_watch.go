package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/keybind/internal/app"
	"github.com/dshills/keybind/internal/config/watcher"
)

func newWatchCmd(c *cli) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reload the keymap whenever it changes",
		Long: `Watch the keymap file and everything it includes, reloading on every
change and reporting the outcome until interrupted. A keymap that fails to
load leaves the previous bindings in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			e, err := c.engine()
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			e.OnReload(func(ev app.ReloadEvent) {
				if ev.Err != nil {
					fmt.Fprintf(out, "reload failed: %v\n", ev.Err)
					return
				}
				fmt.Fprintf(out, "reloaded %s: +%d -%d bindings\n", ev.Generation, ev.Added, ev.Removed)
			})

			if err := e.Watch(watcher.WithDebounce(debounce)); err != nil {
				return err
			}
			fmt.Fprintf(out, "watching %v\n", e.Files())

			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", 100*time.Millisecond, "wait this long for writes to settle")
	return cmd
}
