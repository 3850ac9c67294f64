package builtin

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// toLua converts a Go option value into a Lua value. Slices become
// 1-indexed tables, maps become string-keyed tables.
func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []string:
		t := L.NewTable()
		for i, item := range val {
			t.RawSetInt(i+1, lua.LString(item))
		}
		return t
	case []any:
		t := L.NewTable()
		for i, item := range val {
			t.RawSetInt(i+1, toLua(L, item))
		}
		return t
	case map[string]any:
		t := L.NewTable()
		for k, item := range val {
			t.RawSetString(k, toLua(L, item))
		}
		return t
	default:
		return lua.LString(fmt.Sprintf("%v", val))
	}
}

// toGo converts a Lua value back to Go. Tables with contiguous integer
// keys from 1 become slices; everything else becomes a string-keyed map.
// Functions and userdata convert to nil.
func toGo(lv lua.LValue) any {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		return tableToGo(v)
	default:
		return nil
	}
}

func tableToGo(t *lua.LTable) any {
	length := t.Len()
	if length > 0 {
		count := 0
		t.ForEach(func(_, _ lua.LValue) { count++ })
		if count == length {
			arr := make([]any, length)
			for i := 1; i <= length; i++ {
				arr[i-1] = toGo(t.RawGetInt(i))
			}
			return arr
		}
	}

	m := make(map[string]any)
	t.ForEach(func(k, v lua.LValue) {
		m[k.String()] = toGo(v)
	})
	return m
}
