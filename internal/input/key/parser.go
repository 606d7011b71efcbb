package key

import (
	"errors"
	"fmt"
	"strings"
)

// Parse errors
var (
	ErrEmptySpec   = errors.New("empty key specification")
	ErrInvalidSpec = errors.New("invalid key specification")
)

// runeNames maps key names that produce characters rather than special keys.
var runeNames = map[string]rune{
	"space":  ' ',
	"plus":   '+',
	"minus":  '-',
	"lt":     '<',
	"gt":     '>',
	"bar":    '|',
	"bslash": '\\',
}

// Parse parses a key specification string into a Stroke.
//
// Supported formats:
//   - Single character: "a", "A", "1", "@"
//   - Special keys: "Enter", "Escape", "Tab", "Backspace", "Space"
//   - With modifiers: "Ctrl+S", "Alt+F4", "Ctrl+Shift+P", "Ctrl++"
//   - Vim-style: "<C-s>", "<A-f>", "<C-S-p>", "<CR>", "<Esc>"
func Parse(spec string) (Stroke, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Stroke{}, ErrEmptySpec
	}

	if len(spec) > 2 && strings.HasPrefix(spec, "<") && strings.HasSuffix(spec, ">") {
		return parseVimStyle(spec[1 : len(spec)-1])
	}

	if len(spec) > 1 && strings.Contains(spec, "+") {
		return parseModifierStyle(spec)
	}

	return parseKeyWithModifiers(spec, ModNone)
}

// parseVimStyle parses Vim-style notation like "C-s", "A-F4", "CR", "Esc"
func parseVimStyle(inner string) (Stroke, error) {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return Stroke{}, ErrInvalidSpec
	}

	parts := strings.Split(inner, "-")
	keyPart := parts[len(parts)-1]
	mods := ModNone
	if keyPart == "" && len(parts) > 1 {
		// "<C-->" binds the minus key.
		keyPart = "-"
		parts = parts[:len(parts)-1]
	}

	for _, p := range parts[:len(parts)-1] {
		p = strings.ToLower(strings.TrimSpace(p))
		switch p {
		case "c", "a", "s", "m", "d":
			mods = mods.With(ModifierFromName(p))
		case "":
		default:
			return Stroke{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
	}

	return parseKeyWithModifiers(keyPart, mods)
}

// parseModifierStyle parses "Ctrl+S" style notation
func parseModifierStyle(spec string) (Stroke, error) {
	// A trailing "++" means the plus key itself.
	keyPart := ""
	body := spec
	if strings.HasSuffix(spec, "++") {
		keyPart = "+"
		body = strings.TrimSuffix(spec, "++")
	} else {
		i := strings.LastIndex(spec, "+")
		keyPart = spec[i+1:]
		body = spec[:i]
	}

	var mods Modifier
	for _, p := range strings.Split(body, "+") {
		p = strings.TrimSpace(p)
		mod := ModifierFromName(p)
		if mod == ModNone {
			return Stroke{}, fmt.Errorf("%w: unknown modifier %q", ErrInvalidSpec, p)
		}
		mods = mods.With(mod)
	}

	return parseKeyWithModifiers(keyPart, mods)
}

// parseKeyWithModifiers parses a key part with already-known modifiers
func parseKeyWithModifiers(keyPart string, mods Modifier) (Stroke, error) {
	if keyPart != " " {
		keyPart = strings.TrimSpace(keyPart)
	}
	if keyPart == "" {
		return Stroke{}, ErrInvalidSpec
	}

	runes := []rune(keyPart)
	if len(runes) == 1 {
		return NewRuneStroke(runes[0], mods), nil
	}

	lower := strings.ToLower(keyPart)
	if r, ok := runeNames[lower]; ok {
		return NewRuneStroke(r, mods), nil
	}
	if k := KeyFromName(lower); k != KeyNone {
		return NewSpecialStroke(k, mods), nil
	}

	return Stroke{}, fmt.Errorf("%w: unknown key %q", ErrInvalidSpec, keyPart)
}

// MustParse parses a key specification and panics on error.
// Use only for known-valid specs in initialization code and tests.
func MustParse(spec string) Stroke {
	st, err := Parse(spec)
	if err != nil {
		panic("invalid key specification: " + spec + ": " + err.Error())
	}
	return st
}

// NormalizeSpec parses and re-formats a key specification to its canonical form.
func NormalizeSpec(spec string) (string, error) {
	seq, err := ParseSequence(spec)
	if err != nil {
		return "", err
	}
	return seq.String(), nil
}
