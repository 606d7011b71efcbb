package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/keybind/internal/app"
	"github.com/dshills/keybind/internal/config"
	"github.com/dshills/keybind/internal/input"
	"github.com/dshills/keybind/internal/input/key"
	"github.com/dshills/keybind/internal/input/keymap"
	"github.com/dshills/keybind/internal/input/termkey"
	"github.com/dshills/keybind/internal/plugin/lua"
)

// historySize is how many resolved sequences the interactive view keeps.
const historySize = 12

func newRunCmd(c *cli) *cobra.Command {
	var (
		interactive     bool
		scriptTimeout   time.Duration
		sequenceTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run [SCRIPT.lua...]",
		Short: "Run binding scripts, optionally trying keys interactively",
		Long: `Run Lua scripts against the keymap. Scripts add and remove bindings
through the "keys" module:

  local keys = require("keys")
  keys.bind{keys = "Ctrl+K Ctrl+D", command = "editor.duplicate", context = "editor"}

Without --interactive the bindings the scripts added are listed. With
--interactive, keys typed in the terminal are resolved live; Ctrl+Q
(app.quit) or an unbound Ctrl+C exits.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			e, err := c.engine()
			if err != nil {
				return err
			}
			defer e.Close()

			state := lua.NewState(lua.WithExecutionTimeout(scriptTimeout), lua.WithLogger(c.log))
			defer state.Close()

			keys := lua.NewKeysModule(e,
				lua.WithDefaults(defaultContext(c.engineOptions()), defaultScheme(e)),
				lua.WithKeysLogger(c.log),
			)
			keys.Register(state)

			for _, path := range args {
				if err := state.DoFile(path); err != nil {
					return fmt.Errorf("running %s: %w", path, err)
				}
				c.log.WithField("path", path).Debug("script finished")
			}

			if interactive {
				return runInteractive(ctx, e, sequenceTimeout)
			}

			p, err := c.printer(cmd)
			if err != nil {
				return err
			}
			added := scriptBindings(e.ActiveBindings())
			views := viewsOf(added, e.File().Description)
			return p.table(bindingHeaders, bindingRows(views, added), views)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "resolve keys typed in the terminal")
	cmd.Flags().DurationVar(&scriptTimeout, "script-timeout", 5*time.Second, "maximum run time of each script")
	cmd.Flags().DurationVar(&sequenceTimeout, "sequence-timeout", input.DefaultConfig().SequenceTimeout, "how long a partial sequence waits for its next stroke")
	return cmd
}

func defaultContext(opts app.Options) string {
	if len(opts.Active) > 0 {
		return opts.Active[0]
	}
	return config.DefaultContext
}

func defaultScheme(e *app.Engine) string {
	if schemes := e.ActiveSchemes(); len(schemes) > 0 {
		return schemes[0]
	}
	return config.DefaultScheme
}

// scriptBindings keeps the user bindings; keymap files declare system
// bindings unless they say otherwise.
func scriptBindings(bindings []*keymap.Binding) []*keymap.Binding {
	var out []*keymap.Binding
	for _, b := range bindings {
		if b.Kind() == keymap.KindUser {
			out = append(out, b)
		}
	}
	return out
}

// session is the state shown by the interactive view.
type session struct {
	mu      sync.Mutex
	screen  tcell.Screen
	pending string
	history []string
}

func (s *session) record(line string) {
	s.mu.Lock()
	s.history = append(s.history, line)
	if len(s.history) > historySize {
		s.history = s.history[len(s.history)-historySize:]
	}
	s.mu.Unlock()
	s.draw()
}

func (s *session) setPending(keys string) {
	s.mu.Lock()
	s.pending = keys
	s.mu.Unlock()
	s.draw()
}

func (s *session) draw() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.screen.Clear()
	bold := tcell.StyleDefault.Bold(true)
	drawText(s.screen, 0, 0, "keybind: type keys to resolve them. Ctrl+Q quits.", bold)
	drawText(s.screen, 0, 1, "pending: "+s.pending, tcell.StyleDefault)
	for i, line := range s.history {
		drawText(s.screen, 0, 3+i, line, tcell.StyleDefault)
	}
	s.screen.Show()
}

func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// runInteractive resolves strokes read from the terminal until the user
// quits or ctx is done.
func runInteractive(ctx context.Context, e *app.Engine, sequenceTimeout time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	term, err := termkey.NewTerminal()
	if err != nil {
		return err
	}
	if err := term.Init(); err != nil {
		return err
	}
	defer term.Close()

	s := &session{screen: term.Screen()}
	interrupt := key.MustParseSequence("Ctrl+C")

	cfg := input.DefaultConfig()
	cfg.SequenceTimeout = sequenceTimeout
	cfg.OnUnmatched = func(u input.Unmatched) {
		if u.Sequence.Equals(interrupt) {
			cancel()
			return
		}
		reason := "no binding"
		if u.TimedOut {
			reason = "timed out"
		}
		s.record(fmt.Sprintf("%-20s %s", u.Sequence, reason))
	}

	h := e.NewHandler(cfg)
	defer h.Close()

	go func() {
		for a := range h.Actions() {
			s.record(fmt.Sprintf("%-20s %s  [%s/%s]", a.Sequence, a.Command, a.Context, a.Scheme))
			s.setPending("")
			if a.Command == "app.quit" {
				cancel()
			}
		}
	}()

	s.draw()
	err = term.Run(ctx, func(st key.Stroke) {
		h.HandleStroke(st)
		s.setPending(h.PendingKeys())
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
