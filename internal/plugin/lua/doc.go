// Package lua runs keybinding scripts.
//
// Scripts run in a sandboxed gopher-lua state: io, os and debug are not
// opened, dofile/load are removed, require only reaches the string, table
// and math libraries and preloaded modules, and print goes to the logger.
// Each run is bounded by an execution timeout.
//
// The keys module lets a script add and remove bindings:
//
//	state := lua.NewState(lua.WithExecutionTimeout(time.Second))
//	defer state.Close()
//
//	keys := lua.NewKeysModule(engine)
//	keys.Register(state)
//
//	err := state.DoString(`
//	    local h = keys.bind{keys = "Ctrl+K Ctrl+D", command = "editor.duplicate", context = "editor"}
//	    assert(keys.lookup("Ctrl+K Ctrl+D").command == "editor.duplicate")
//	`)
package lua
