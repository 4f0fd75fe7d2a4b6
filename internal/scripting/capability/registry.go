// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

// Package capability binds the fixed set of global objects scripts use
// to reach the simulation. Each capability is a stateless façade over
// a narrow collaborator interface; calls take effect synchronously
// within the current tick and are deterministic across network peers.
package capability

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/openpark/openpark/internal/console"
	"github.com/openpark/openpark/internal/sim"
)

// Host is the surface the scripting engine exposes to capability
// bindings: plugin registration, hook subscription attributed to the
// currently executing plugin, and the game command channel.
type Host interface {
	APIVersion() int
	RegisterPlugin(tbl *lua.LTable) error
	Subscribe(hook string, fn *lua.LFunction) (uint64, error)
	Unsubscribe(cookie uint64)
	ExecuteAction(name string, args map[string]any) error
}

// Deps are the collaborators the capability globals close over.
type Deps struct {
	Console console.Console
	Host    Host
	Park    *sim.State
	Session *sim.Session
}

// typeNames are registered as type metatables only: scripts receive
// instances from other capabilities, they never construct these.
var typeNames = []string{
	"player", "playerGroup", "ride", "rideObject",
	"tile", "tileElement", "thing",
}

// Bind registers every capability global into L. Called exactly once,
// before any plugin executes.
func Bind(L *lua.LState, deps Deps) {
	L.SetGlobal("registerPlugin", L.NewFunction(registerPluginFn(deps.Host)))
	L.SetGlobal("console", bindConsole(L, deps.Console))
	L.SetGlobal("context", bindContext(L, deps.Host))
	L.SetGlobal("map", bindMap(L, deps.Park))
	L.SetGlobal("network", bindNetwork(L, deps.Session))
	L.SetGlobal("park", bindPark(L, deps.Park, deps.Console))

	for _, name := range typeNames {
		L.NewTypeMetatable(name)
	}
}

// registerPluginFn routes the script's metadata registration to the
// engine, which attributes it to the plugin currently loading.
func registerPluginFn(host Host) lua.LGFunction {
	return func(L *lua.LState) int {
		tbl := L.CheckTable(1)
		if err := host.RegisterPlugin(tbl); err != nil {
			L.RaiseError("%s", err.Error())
		}
		return 0
	}
}
