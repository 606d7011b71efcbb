package key

import (
	"fmt"
	"strings"
	"unicode"
)

// costNonKeystroke is the cost of a trigger that is not a keystroke.
const costNonKeystroke = 99

// Stroke is one atomic trigger: a key pressed with a set of modifiers.
// Strokes are plain values and compare with ==.
type Stroke struct {
	// Key identifies the key pressed.
	Key Key

	// Rune is the character for KeyRune strokes.
	Rune rune

	// Modifiers contains the held modifier keys.
	Modifiers Modifier
}

// NewRuneStroke creates a stroke for a character, normalizing letter case
// against the modifiers.
func NewRuneStroke(r rune, mods Modifier) Stroke {
	return Stroke{Key: KeyRune, Rune: normalizeRune(r, mods), Modifiers: impliedShift(r, mods)}
}

// NewSpecialStroke creates a stroke for a special key.
func NewSpecialStroke(k Key, mods Modifier) Stroke {
	return Stroke{Key: k, Modifiers: mods}
}

// impliedShift adds Shift for uppercase letters typed without a command
// modifier, so "A" and "Shift+a" are the same stroke.
func impliedShift(r rune, mods Modifier) Modifier {
	if unicode.IsUpper(r) && !mods.Has(ModCtrl|ModAlt|ModMeta) {
		return mods.With(ModShift)
	}
	return mods
}

// normalizeRune stores letters lowercase when a command modifier is held
// ("Ctrl+L" == "Ctrl+l") and uppercase when only Shift is held.
func normalizeRune(r rune, mods Modifier) rune {
	if !unicode.IsLetter(r) {
		return r
	}
	if mods.Has(ModCtrl | ModAlt | ModMeta) {
		return unicode.ToLower(r)
	}
	if mods.HasShift() || unicode.IsUpper(r) {
		return unicode.ToUpper(r)
	}
	return r
}

// IsKeystroke reports whether the stroke is a keyboard key press.
func (s Stroke) IsKeystroke() bool {
	return s.Key != KeyNone
}

// IsRune returns true if this is a character stroke.
func (s Stroke) IsRune() bool {
	return s.Key == KeyRune && s.Rune != 0
}

// IsModified returns true if any command modifier is held. Shift alone
// does not count for character strokes since it changes the character.
func (s Stroke) IsModified() bool {
	if s.IsRune() {
		return s.Modifiers.Has(ModCtrl | ModAlt | ModMeta)
	}
	return s.Modifiers != ModNone
}

// Cost returns 1 plus the modifier penalty, or the non-keystroke penalty.
func (s Stroke) Cost() int {
	if !s.IsKeystroke() {
		return costNonKeystroke
	}
	return 1 + s.Modifiers.Cost()
}

// keyName returns the display name of the key part of the stroke.
func (s Stroke) keyName() string {
	if s.Key != KeyRune {
		return s.Key.String()
	}
	switch s.Rune {
	case ' ':
		return "Space"
	case '+':
		return "Plus"
	}
	if s.IsModified() {
		return string(unicode.ToUpper(s.Rune))
	}
	return string(s.Rune)
}

// String returns the canonical form, e.g. "Ctrl+Shift+L", "A", "Shift+1",
// "Enter". The form parses back to the same stroke.
func (s Stroke) String() string {
	mods := s.Modifiers
	if s.IsRune() && !s.IsModified() && unicode.IsLetter(s.Rune) {
		// Shift is carried by the letter case.
		mods = mods.Without(ModShift)
	}
	if mods.IsEmpty() {
		return s.keyName()
	}
	return mods.String() + "+" + s.keyName()
}

// VimString returns a Vim-style string representation.
// Examples: "<Esc>", "<C-s>", "<C-S-p>", "<CR>", "a", "A"
func (s Stroke) VimString() string {
	if s.IsRune() && !s.IsModified() {
		if s.Rune == ' ' {
			return "<Space>"
		}
		return string(s.Rune)
	}

	var parts []string
	if s.Modifiers.HasCtrl() {
		parts = append(parts, "C")
	}
	if s.Modifiers.HasAlt() {
		parts = append(parts, "A")
	}
	if s.Modifiers.HasMeta() {
		parts = append(parts, "D")
	}
	if s.Modifiers.HasShift() {
		parts = append(parts, "S")
	}

	var name string
	switch {
	case s.Key == KeyRune && s.Rune == ' ':
		name = "Space"
	case s.Key == KeyRune:
		name = strings.ToLower(string(s.Rune))
	case s.Key == KeyEscape:
		name = "Esc"
	case s.Key == KeyEnter:
		name = "CR"
	case s.Key == KeyBackspace:
		name = "BS"
	case s.Key == KeyDelete:
		name = "Del"
	default:
		name = s.Key.String()
	}
	parts = append(parts, name)

	return "<" + strings.Join(parts, "-") + ">"
}

// id returns an unambiguous encoding of the stroke.
func (s Stroke) id() string {
	return fmt.Sprintf("%d.%d.%d", s.Key, s.Rune, s.Modifiers)
}

// GoString implements fmt.GoStringer for debugging.
func (s Stroke) GoString() string {
	return fmt.Sprintf("Stroke{Key: %s, Rune: %q, Modifiers: %s}",
		s.Key.String(), s.Rune, s.Modifiers.String())
}
