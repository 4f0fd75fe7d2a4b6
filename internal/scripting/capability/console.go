// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package capability

import (
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/openpark/openpark/internal/console"
)

// bindConsole builds the console capability: log and error write
// tab-joined arguments as normal and error-classified lines.
func bindConsole(L *lua.LState, cons console.Console) *lua.LTable {
	tbl := L.NewTable()

	L.SetField(tbl, "log", L.NewFunction(func(L *lua.LState) int {
		cons.WriteLine(joinArgs(L))
		return 0
	}))

	L.SetField(tbl, "error", L.NewFunction(func(L *lua.LState) int {
		cons.WriteLineError(joinArgs(L))
		return 0
	}))

	return tbl
}

func joinArgs(L *lua.LState) string {
	n := L.GetTop()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, L.Get(i).String())
	}
	return strings.Join(parts, "\t")
}
