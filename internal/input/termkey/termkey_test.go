package termkey

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keybind/internal/input/key"
)

func TestFromEvent(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want string
	}{
		{"rune", tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone), "a"},
		{"upper rune", tcell.NewEventKey(tcell.KeyRune, 'A', tcell.ModNone), "A"},
		{"shifted rune", tcell.NewEventKey(tcell.KeyRune, 'A', tcell.ModShift), "A"},
		{"space", tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), "Space"},
		{"alt rune", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModAlt), "Alt+X"},
		{"ctrl letter", tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModCtrl), "Ctrl+S"},
		{"ctrl key code", tcell.NewEventKey(tcell.KeyCtrlK, 'k', tcell.ModCtrl), "Ctrl+K"},
		{"raw control code", tcell.NewEventKey(tcell.KeyRune, '\x03', tcell.ModNone), "Ctrl+C"},
		{"ctrl space", tcell.NewEventKey(tcell.KeyCtrlSpace, 0, tcell.ModCtrl), "Ctrl+Space"},
		{"enter", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone), "Enter"},
		{"tab", tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone), "Tab"},
		{"backtab", tcell.NewEventKey(tcell.KeyBacktab, 0, tcell.ModNone), "Shift+Tab"},
		{"escape", tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone), "Escape"},
		{"backspace2", tcell.NewEventKey(tcell.KeyBackspace2, 0, tcell.ModNone), "Backspace"},
		{"ctrl shift arrow", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModCtrl|tcell.ModShift), "Ctrl+Shift+Left"},
		{"function key", tcell.NewEventKey(tcell.KeyF5, 0, tcell.ModNone), "F5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ok := FromEvent(tt.ev)
			if !ok {
				t.Fatal("expected a stroke")
			}
			want := key.MustParse(tt.want)
			if st != want {
				t.Errorf("FromEvent = %s, want %s", st, want)
			}
		})
	}
}

func TestFromEventUnsupported(t *testing.T) {
	if _, ok := FromEvent(tcell.NewEventKey(tcell.KeyF40, 0, tcell.ModNone)); ok {
		t.Error("F40 has no stroke form")
	}
}

func TestToEventRoundTrip(t *testing.T) {
	for _, spec := range []string{"a", "A", "Ctrl+S", "Ctrl+Shift+P", "Alt+Enter", "F12", "Escape", "Ctrl+Space"} {
		st := key.MustParse(spec)
		ev := ToEvent(st)
		if ev == nil {
			t.Fatalf("ToEvent(%s) = nil", spec)
		}
		got, ok := FromEvent(ev)
		if !ok || got != st {
			t.Errorf("round trip %s = %s", spec, got)
		}
	}
}

func TestToEventNonKeystroke(t *testing.T) {
	if ToEvent(key.Stroke{Key: key.KeyNone}) != nil {
		t.Error("non-keystroke should have no event")
	}
}

func TestTerminalRun(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	term := NewTerminalWithScreen(screen)
	if err := term.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer term.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var got []string
	screen.InjectKey(tcell.KeyRune, 's', tcell.ModCtrl)
	screen.InjectKey(tcell.KeyRune, 'g', tcell.ModNone)

	err := term.Run(ctx, func(st key.Stroke) {
		got = append(got, st.String())
		if len(got) == 2 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
	if len(got) != 2 || got[0] != "Ctrl+S" || got[1] != "g" {
		t.Errorf("strokes = %v", got)
	}
}
