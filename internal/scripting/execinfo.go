// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package scripting

// ExecutionInfo tracks which plugin's code, if any, is currently
// executing. It is owned and mutated exclusively by the simulation
// goroutine, so no locking is needed. Capability calls that attribute
// side effects to a plugin (hook subscription bookkeeping) read the
// current plugin from here.
type ExecutionInfo struct {
	current *Plugin
}

// Current returns the plugin whose code is executing, or nil when the
// host itself (REPL, engine internals) is running.
func (e *ExecutionInfo) Current() *Plugin {
	return e.current
}

// PluginScope restores the previous execution scope on Pop.
type PluginScope struct {
	info *ExecutionInfo
	prev *Plugin
}

// Push sets plugin as the current execution scope and returns a scope
// whose Pop must be deferred so the previous value is restored on all
// exit paths. Scopes nest: a hook callback dispatched from inside
// another plugin's call restores correctly.
func (e *ExecutionInfo) Push(plugin *Plugin) *PluginScope {
	scope := &PluginScope{info: e, prev: e.current}
	e.current = plugin
	return scope
}

// Pop restores the execution scope captured at Push.
func (s *PluginScope) Pop() {
	s.info.current = s.prev
}
