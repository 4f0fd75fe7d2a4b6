// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package capability

import (
	lua "github.com/yuin/gopher-lua"
)

// bindContext builds the context capability: API version, hook
// subscription, and the generic game action channel.
func bindContext(L *lua.LState, host Host) *lua.LTable {
	tbl := L.NewTable()

	L.SetField(tbl, "apiVersion", lua.LNumber(host.APIVersion()))

	// context.subscribe(hook, callback) -> disposable
	L.SetField(tbl, "subscribe", L.NewFunction(func(L *lua.LState) int {
		hook := L.CheckString(1)
		fn := L.CheckFunction(2)

		cookie, err := host.Subscribe(hook, fn)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}

		L.Push(newDisposable(L, host, cookie))
		return 1
	}))

	// context.executeAction(name, args?) applies a game command through
	// the same channel cheat commands use.
	L.SetField(tbl, "executeAction", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		args, err := tableToMap(L.Get(2))
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}

		if err := host.ExecuteAction(name, args); err != nil {
			L.RaiseError("%s", err.Error())
		}
		return 0
	}))

	return tbl
}

// newDisposable wraps a subscription cookie in a table with a
// dispose() method. Dispose is idempotent.
func newDisposable(L *lua.LState, host Host, cookie uint64) *lua.LTable {
	tbl := L.NewTable()
	disposed := false
	L.SetField(tbl, "dispose", L.NewFunction(func(*lua.LState) int {
		if !disposed {
			disposed = true
			host.Unsubscribe(cookie)
		}
		return 0
	}))
	return tbl
}
