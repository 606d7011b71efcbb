package keymap

import "errors"

// Errors returned by the binding engine.
var (
	// ErrInvalidBinding indicates a malformed binding record: nil, an
	// empty key sequence or an empty context id.
	ErrInvalidBinding = errors.New("invalid binding")

	// ErrContextMismatch indicates a binding was added to or removed from
	// a table that does not own its context.
	ErrContextMismatch = errors.New("binding context does not match table")

	// ErrBindingNotFound indicates the binding is not registered.
	ErrBindingNotFound = errors.New("binding not found")

	// ErrContextCycle indicates a context's parent chain loops back on itself.
	ErrContextCycle = errors.New("context parent chain contains a cycle")
)
