package lua

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrExecutionTimeout is returned when a script runs past its deadline.
	ErrExecutionTimeout = errors.New("lua execution timeout")

	// ErrUnknownHandle is returned when unbinding a handle that was never
	// issued or was already released.
	ErrUnknownHandle = errors.New("unknown binding handle")
)
