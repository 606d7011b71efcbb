// Package termkey converts terminal key events into strokes.
package termkey

import (
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keybind/internal/input/key"
)

var specialKeys = map[tcell.Key]key.Key{
	tcell.KeyEscape:     key.KeyEscape,
	tcell.KeyEnter:      key.KeyEnter,
	tcell.KeyTab:        key.KeyTab,
	tcell.KeyBackspace:  key.KeyBackspace,
	tcell.KeyBackspace2: key.KeyBackspace,
	tcell.KeyDelete:     key.KeyDelete,
	tcell.KeyInsert:     key.KeyInsert,
	tcell.KeyHome:       key.KeyHome,
	tcell.KeyEnd:        key.KeyEnd,
	tcell.KeyPgUp:       key.KeyPageUp,
	tcell.KeyPgDn:       key.KeyPageDown,
	tcell.KeyUp:         key.KeyUp,
	tcell.KeyDown:       key.KeyDown,
	tcell.KeyLeft:       key.KeyLeft,
	tcell.KeyRight:      key.KeyRight,
	tcell.KeyF1:         key.KeyF1,
	tcell.KeyF2:         key.KeyF2,
	tcell.KeyF3:         key.KeyF3,
	tcell.KeyF4:         key.KeyF4,
	tcell.KeyF5:         key.KeyF5,
	tcell.KeyF6:         key.KeyF6,
	tcell.KeyF7:         key.KeyF7,
	tcell.KeyF8:         key.KeyF8,
	tcell.KeyF9:         key.KeyF9,
	tcell.KeyF10:        key.KeyF10,
	tcell.KeyF11:        key.KeyF11,
	tcell.KeyF12:        key.KeyF12,
	tcell.KeyPause:      key.KeyPause,
	tcell.KeyPrint:      key.KeyPrintScreen,
	tcell.KeyScrollLock: key.KeyScrollLock,
	tcell.KeyNumLock:    key.KeyNumLock,
	tcell.KeyCapsLock:   key.KeyCapsLock,
}

// tcellKeys is the reverse of specialKeys, built once.
var tcellKeys = func() map[key.Key]tcell.Key {
	m := make(map[key.Key]tcell.Key, len(specialKeys))
	for tk, k := range specialKeys {
		if tk == tcell.KeyBackspace2 {
			continue
		}
		m[k] = tk
	}
	return m
}()

// FromEvent converts a tcell key event to a stroke. It reports false for
// keys that have no stroke form.
func FromEvent(ev *tcell.EventKey) (key.Stroke, bool) {
	mods := modifiers(ev.Modifiers())
	k := ev.Key()

	if k == tcell.KeyRune {
		if mods == key.ModShift {
			// The rune already carries Shift.
			mods = key.ModNone
		}
		return key.NewRuneStroke(ev.Rune(), mods), true
	}
	if sk, ok := specialKeys[k]; ok {
		return key.NewSpecialStroke(sk, mods), true
	}

	switch {
	case k == tcell.KeyBacktab:
		return key.NewSpecialStroke(key.KeyTab, mods.With(key.ModShift)), true
	case k >= tcell.KeyCtrlSpace && k <= tcell.KeyCtrlUnderscore:
		return ctrlStroke(rune(k), mods), true
	case k < tcell.Key(' '):
		// Raw control codes: 0x01 is Ctrl+A.
		return ctrlStroke(rune(k)+'@', mods), true
	}
	return key.Stroke{}, false
}

// ctrlStroke builds the Ctrl stroke for the ASCII character r in '@'..'_'.
func ctrlStroke(r rune, mods key.Modifier) key.Stroke {
	if r == '@' {
		r = ' '
	}
	return key.NewRuneStroke(unicode.ToLower(r), mods.With(key.ModCtrl))
}

// ToEvent converts a stroke to a tcell key event. Non-keystroke triggers
// have no event form and return nil.
func ToEvent(st key.Stroke) *tcell.EventKey {
	mods := tcellModifiers(st.Modifiers)
	if st.Key == key.KeyRune {
		return tcell.NewEventKey(tcell.KeyRune, st.Rune, mods)
	}
	if tk, ok := tcellKeys[st.Key]; ok {
		return tcell.NewEventKey(tk, 0, mods)
	}
	return nil
}

// modifiers converts a tcell modifier mask.
func modifiers(m tcell.ModMask) key.Modifier {
	var result key.Modifier
	if m&tcell.ModShift != 0 {
		result |= key.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		result |= key.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		result |= key.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		result |= key.ModMeta
	}
	return result
}

// tcellModifiers converts modifiers to a tcell modifier mask.
func tcellModifiers(m key.Modifier) tcell.ModMask {
	var result tcell.ModMask
	if m.HasShift() {
		result |= tcell.ModShift
	}
	if m.HasCtrl() {
		result |= tcell.ModCtrl
	}
	if m.HasAlt() {
		result |= tcell.ModAlt
	}
	if m.HasMeta() {
		result |= tcell.ModMeta
	}
	return result
}
