// Package config loads keymap files.
//
// A keymap file declares the context tree, the schemes and their parents,
// command enablement conditions and the bindings themselves. Files may be
// TOML, YAML or JSON, chosen by extension, and may pull in other files
// with @include. Included lists accumulate; scalar values in the including
// file win.
//
// # File Format
//
//	active_schemes = ["emacs"]
//	locale = "en_GB"
//
//	[[contexts]]
//	id = "editor"
//	parent = "global"
//
//	[[schemes]]
//	id = "emacs"
//	parent = "default"
//
//	[[commands]]
//	id = "editor.save"
//	when = "!readOnly"
//
//	[[bindings]]
//	keys = "Ctrl+X Ctrl+S"
//	command = "editor.save"
//	context = "editor"
//	scheme = "emacs"
//
// A binding without a command is an unbinding: it hides lower-priority
// bindings of the same keys without triggering anything. Bindings default
// to the "global" context and the "default" scheme, both of which are
// always defined.
//
// # Schemes
//
// Activating a scheme activates its parent chain behind it, so
// active_schemes = ["emacs"] gives the priority list [emacs, default].
//
// # Error Handling
//
//   - ErrFileNotFound: the root keymap file doesn't exist
//   - *ParseError: the file is not valid TOML, YAML or JSON
//   - *ValidationError: an entry references an undefined id or has bad
//     syntax; Validate joins every such error
package config
