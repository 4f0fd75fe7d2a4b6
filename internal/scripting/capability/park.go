// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package capability

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/openpark/openpark/internal/console"
	"github.com/openpark/openpark/internal/sim"
)

// bindPark builds the park capability over the live park state.
func bindPark(L *lua.LState, park *sim.State, cons console.Console) *lua.LTable {
	tbl := L.NewTable()

	L.SetField(tbl, "getName", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(park.ParkName))
		return 1
	}))

	L.SetField(tbl, "getMoney", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(park.Money))
		return 1
	}))

	L.SetField(tbl, "getGuestCount", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(park.GuestCount))
		return 1
	}))

	L.SetField(tbl, "getRating", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(park.Rating))
		return 1
	}))

	// park.postMessage(text) surfaces an in-park message on the console.
	L.SetField(tbl, "postMessage", L.NewFunction(func(L *lua.LState) int {
		cons.WriteLine("[park] " + L.CheckString(1))
		return 0
	}))

	return tbl
}

// bindMap builds the map capability: ride lookup over the park state.
func bindMap(L *lua.LState, park *sim.State) *lua.LTable {
	tbl := L.NewTable()

	L.SetField(tbl, "getRideCount", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(len(park.Rides)))
		return 1
	}))

	L.SetField(tbl, "getRide", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckInt(1)
		for _, ride := range park.Rides {
			if ride.ID == id {
				rideTbl := L.NewTable()
				L.SetField(rideTbl, "id", lua.LNumber(ride.ID))
				L.SetField(rideTbl, "name", lua.LString(ride.Name))
				L.SetField(rideTbl, "brokenDown", lua.LBool(ride.BrokenDown))
				L.Push(rideTbl)
				return 1
			}
		}
		L.Push(lua.LNil)
		return 1
	}))

	return tbl
}
