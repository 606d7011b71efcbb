package termkey

import (
	"context"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keybind/internal/input/key"
)

// Terminal reads strokes from a tcell screen.
type Terminal struct {
	screen tcell.Screen
	mu     sync.Mutex
	closed bool
}

// NewTerminal creates a terminal on the process's tty.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Terminal{screen: screen}, nil
}

// NewTerminalWithScreen wraps an existing screen, such as a simulation
// screen in tests.
func NewTerminalWithScreen(screen tcell.Screen) *Terminal {
	return &Terminal{screen: screen}
}

// Init initializes the screen.
func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.screen.Init()
}

// Close restores the terminal.
func (t *Terminal) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.closed = true
	t.screen.Fini()
}

// Screen returns the underlying screen for drawing.
func (t *Terminal) Screen() tcell.Screen {
	return t.screen
}

// Run polls key events and passes their strokes to handle until ctx is
// done or the screen is finalized. Events with no stroke form are skipped.
func (t *Terminal) Run(ctx context.Context, handle func(key.Stroke)) error {
	stop := context.AfterFunc(ctx, func() {
		_ = t.screen.PostEvent(tcell.NewEventInterrupt(nil)) // best-effort wakeup
	})
	defer stop()

	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		switch e := ev.(type) {
		case *tcell.EventKey:
			if st, ok := FromEvent(e); ok {
				handle(st)
			}
		case *tcell.EventResize:
			t.screen.Sync()
		}
	}
}
