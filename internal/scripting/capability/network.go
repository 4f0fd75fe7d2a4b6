// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package capability

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/openpark/openpark/internal/sim"
)

// bindNetwork builds the network capability: a read-only view of the
// multiplayer session. Scripting calls must produce identical results
// on every peer given identical simulation state, so the view exposes
// session facts only, never transport.
func bindNetwork(L *lua.LState, session *sim.Session) *lua.LTable {
	tbl := L.NewTable()

	L.SetField(tbl, "getMode", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(session.Mode.String()))
		return 1
	}))

	L.SetField(tbl, "getPlayers", L.NewFunction(func(L *lua.LState) int {
		players := L.NewTable()
		for _, p := range session.Players {
			playerTbl := L.NewTable()
			L.SetField(playerTbl, "id", lua.LNumber(p.ID))
			L.SetField(playerTbl, "name", lua.LString(p.Name))
			L.SetField(playerTbl, "group", lua.LNumber(p.Group))
			players.Append(playerTbl)
		}
		L.Push(players)
		return 1
	}))

	return tbl
}
