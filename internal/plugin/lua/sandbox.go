package lua

import (
	"strings"

	"github.com/sirupsen/logrus"
	lua "github.com/yuin/gopher-lua"
)

// safeModules are the built-in modules scripts may require.
var safeModules = map[string]bool{
	"string": true,
	"table":  true,
	"math":   true,
}

// installSandbox removes functions that load code from outside the script,
// routes print to the logger and restricts require to safe built-ins and
// preloaded modules.
func installSandbox(L *lua.LState, log logrus.FieldLogger) {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, L.GetTop())
		for i := range parts {
			parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
		}
		log.WithField("source", "lua").Info(strings.Join(parts, "\t"))
		return 0
	}))

	pkg, ok := L.GetGlobal("package").(*lua.LTable)
	if !ok {
		return
	}
	L.SetField(pkg, "path", lua.LString(""))
	L.SetField(pkg, "cpath", lua.LString(""))
	preload, _ := L.GetField(pkg, "preload").(*lua.LTable)

	require := L.GetGlobal("require")
	L.SetGlobal("require", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		allowed := safeModules[name]
		if !allowed && preload != nil {
			allowed = preload.RawGetString(name) != lua.LNil
		}
		if !allowed {
			L.RaiseError("module %q is not available", name)
			return 0
		}
		L.Push(require)
		L.Push(lua.LString(name))
		L.Call(1, 1)
		return 1
	}))
}
