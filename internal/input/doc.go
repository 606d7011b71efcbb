// Package input turns keystrokes into command actions.
//
// The Handler accumulates strokes into a pending key sequence and asks a
// Resolver (the binding engine) whether the sequence is an exact match, a
// prefix of a longer binding, or neither. Matched bindings become Actions
// on a buffered channel.
//
// # Key Sequences
//
// Multi-stroke chords like "Ctrl+K Ctrl+C" accumulate until they match a
// binding, stop matching, or time out. A sequence that is both bound and
// the prefix of a longer binding waits; the timeout or Flush runs it.
//
// # Conditions
//
// The handler's Context holds condition flags and variables that command
// when expressions read through Env. Changing them calls OnEnvChange so
// the engine can drop cached enablement answers.
//
// # Usage
//
//	handler := input.NewHandler(input.DefaultConfig(), engine, scopes)
//
//	// Feed strokes from the terminal
//	for st := range strokes {
//	    handler.HandleStroke(st)
//	}
//
//	// Receive actions
//	for action := range handler.Actions() {
//	    run(action.Command, action.Params)
//	}
package input
