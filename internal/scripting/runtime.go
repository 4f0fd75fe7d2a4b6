// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

// Package scripting embeds a sandboxed Lua runtime in the game's
// per-tick update loop and manages plugin lifecycle against it.
package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/samber/oops"
)

// safeLibrary is a Lua library safe to load in the sandboxed runtime.
type safeLibrary struct {
	name string
	fn   lua.LGFunction
}

// Safe: base, table, string, math.
// Blocked: os, io, debug, package.
func defaultSafeLibraries() []safeLibrary {
	return []safeLibrary{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
}

// unsafeBaseFunctions lists base library functions that allow
// filesystem access and must be blocked for sandboxing.
var unsafeBaseFunctions = []string{"dofile", "loadfile", "loadstring", "load"}

// Runtime owns the single embedded interpreter instance for the
// process. All plugin code and REPL snippets execute against this one
// state, exclusively on the simulation goroutine. There is no valid
// degraded mode: creation failure is fatal to the scripting subsystem.
type Runtime struct {
	state *lua.LState
}

// NewRuntime creates the sandboxed interpreter.
func NewRuntime() (*Runtime, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs: true,
	})

	for _, lib := range defaultSafeLibraries() {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, oops.In("scripting").
				With("library", lib.name).
				Hint("failed to open Lua library").
				Wrap(err)
		}
	}

	for _, fn := range unsafeBaseFunctions {
		L.SetGlobal(fn, lua.LNil)
	}

	return &Runtime{state: L}, nil
}

// State returns the underlying interpreter state. Callers must only
// touch it from the simulation goroutine.
func (r *Runtime) State() *lua.LState {
	return r.state
}

// Close releases the interpreter.
func (r *Runtime) Close() {
	r.state.Close()
}
