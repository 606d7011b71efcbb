package lua

import (
	"fmt"
	"maps"
	"slices"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keybind/internal/input/keymap"
)

// fieldString returns a string field of a table, or "" when it is absent
// or not a string.
func fieldString(L *lua.LState, t *lua.LTable, name string) string {
	if s, ok := L.GetField(t, name).(lua.LString); ok {
		return string(s)
	}
	return ""
}

// stringMap converts a Lua table of scalars to a map[string]string.
// Numbers and booleans are formatted; nested tables are rejected.
func stringMap(lv lua.LValue) (map[string]string, error) {
	switch v := lv.(type) {
	case *lua.LNilType:
		return nil, nil
	case *lua.LTable:
		m := make(map[string]string)
		var err error
		v.ForEach(func(k, val lua.LValue) {
			if err != nil {
				return
			}
			name, ok := k.(lua.LString)
			if !ok {
				err = fmt.Errorf("parameter name %s is not a string", k.String())
				return
			}
			switch val.(type) {
			case lua.LString, lua.LNumber, lua.LBool:
				m[string(name)] = val.String()
			default:
				err = fmt.Errorf("parameter %q: unsupported %s value", string(name), val.Type())
			}
		})
		return m, err
	default:
		return nil, fmt.Errorf("params must be a table, got %s", lv.Type())
	}
}

// stringMapTable converts a map to a Lua table.
func stringMapTable(L *lua.LState, m map[string]string) *lua.LTable {
	t := L.CreateTable(0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		t.RawSetString(k, lua.LString(m[k]))
	}
	return t
}

// bindingTable converts a binding to a Lua table. handle is omitted when
// empty.
func bindingTable(L *lua.LState, b *keymap.Binding, handle string) *lua.LTable {
	t := L.CreateTable(0, 8)
	t.RawSetString("keys", lua.LString(b.Sequence().String()))
	t.RawSetString("command", lua.LString(b.Command().ID))
	t.RawSetString("context", lua.LString(b.ContextID()))
	t.RawSetString("scheme", lua.LString(b.SchemeID()))
	t.RawSetString("kind", lua.LString(b.Kind().String()))
	if len(b.Command().Params) > 0 {
		t.RawSetString("params", stringMapTable(L, b.Command().Params))
	}
	if handle != "" {
		t.RawSetString("handle", lua.LString(handle))
	}
	return t
}

// bindingList converts bindings to a Lua array.
func bindingList(L *lua.LState, bindings []*keymap.Binding) *lua.LTable {
	t := L.CreateTable(len(bindings), 0)
	for _, b := range bindings {
		t.Append(bindingTable(L, b, ""))
	}
	return t
}
