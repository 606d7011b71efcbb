// Package key provides the trigger types consumed by the binding engine.
//
// This package defines the fundamental types for representing key input:
//
//   - Key: Identifies a keyboard key (special keys, function keys, or runes)
//   - Modifier: Represents modifier keys (Ctrl, Alt, Shift, Meta)
//   - Stroke: One atomic trigger, a key press with modifiers
//   - Sequence: An immutable, ordered series of strokes (a chord)
//
// # Key Specifications
//
// Key specifications can be written in multiple formats:
//
//   - Simple keys: "a", "A", "1", "Enter", "Escape"
//   - With modifiers: "Ctrl+S", "Alt+F4", "Ctrl+Shift+P"
//   - Vim-style: "<C-s>", "<A-f>", "<C-S-p>", "<CR>", "<Esc>"
//
// # Sequences
//
// Multi-stroke chords like "Ctrl+K Ctrl+C" are Sequence values. Sequences
// compare structurally and expose ID, a canonical encoding that is safe to
// use as a map key. Prefixes derives the partial chords used for
// chord-in-progress lookups.
package key
