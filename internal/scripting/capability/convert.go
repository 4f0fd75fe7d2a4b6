// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package capability

import (
	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
)

// ToGo converts a Lua value into plain Go data. Array-like tables
// become slices, other tables become maps keyed by the Lua key's
// string form. Functions and userdata convert to nil. A table that
// references itself, directly or through a descendant, is an error:
// conversion must terminate so script data can never take the host
// down with it.
func ToGo(v lua.LValue) (any, error) {
	return toGo(v, make(map[*lua.LTable]bool))
}

// toGo tracks the tables on the current recursion path. Shared
// subtables are fine; revisiting one still on the path is a cycle.
func toGo(v lua.LValue, path map[*lua.LTable]bool) (any, error) {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val), nil
	case lua.LNumber:
		return float64(val), nil
	case lua.LString:
		return string(val), nil
	case *lua.LTable:
		if path[val] {
			return nil, oops.In("scripting").New("cannot convert cyclic table")
		}
		path[val] = true
		defer delete(path, val)

		maxN := val.MaxN()
		if maxN > 0 {
			out := make([]any, 0, maxN)
			for i := 1; i <= maxN; i++ {
				item, err := toGo(val.RawGetInt(i), path)
				if err != nil {
					return nil, err
				}
				out = append(out, item)
			}
			return out, nil
		}

		out := make(map[string]any)
		var convErr error
		val.ForEach(func(k, v lua.LValue) {
			if convErr != nil {
				return
			}
			item, err := toGo(v, path)
			if err != nil {
				convErr = err
				return
			}
			out[k.String()] = item
		})
		if convErr != nil {
			return nil, convErr
		}
		return out, nil
	default:
		return nil, nil
	}
}

// ToLua converts plain Go data into a Lua value on L.
func ToLua(L *lua.LState, v any) lua.LValue {
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
	case []any:
		tbl := L.NewTable()
		for _, item := range val {
			tbl.Append(ToLua(L, item))
		}
		return tbl
	case map[string]any:
		tbl := L.NewTable()
		for k, item := range val {
			tbl.RawSetString(k, ToLua(L, item))
		}
		return tbl
	default:
		return lua.LNil
	}
}

// tableToMap converts a Lua table argument to a Go map, tolerating
// nil for commands without arguments.
func tableToMap(v lua.LValue) (map[string]any, error) {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil, nil
	}
	converted, err := ToGo(tbl)
	if err != nil {
		return nil, err
	}
	out, _ := converted.(map[string]any)
	if out == nil {
		// Array-like args table: keep positional values under "1".."n".
		out = make(map[string]any)
		var convErr error
		tbl.ForEach(func(k, v lua.LValue) {
			if convErr != nil {
				return
			}
			item, err := ToGo(v)
			if err != nil {
				convErr = err
				return
			}
			out[k.String()] = item
		})
		if convErr != nil {
			return nil, convErr
		}
	}
	return out, nil
}
