// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package scripting

import (
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
)

// PluginState is the lifecycle state of a plugin.
type PluginState uint8

// Lifecycle states. Transitions are monotonic except reload, which
// cycles Started -> Stopped -> Loaded -> Started.
const (
	StateUnloaded PluginState = iota
	StateLoaded
	StateStarted
	StateStopped
	// StateStartFailed marks a plugin whose main function raised during
	// Start. It stays registered and eligible for reload, but is not
	// considered started.
	StateStartFailed
)

func (s PluginState) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateStarted:
		return "started"
	case StateStopped:
		return "stopped"
	case StateStartFailed:
		return "start-failed"
	default:
		return "unloaded"
	}
}

// Metadata is the plugin self-description registered by the script's
// top-level registerPlugin call.
type Metadata struct {
	Name          string
	Version       string
	Authors       []string
	License       string
	MinAPIVersion int

	main   *lua.LFunction
	onStop *lua.LFunction // optional cleanup handler
}

// Plugin is one discovered script file bound to the shared runtime.
type Plugin struct {
	runtime *Runtime
	path    string
	meta    *Metadata
	state   PluginState
}

// NewPlugin constructs an unloaded plugin for the given source path.
func NewPlugin(runtime *Runtime, path string) *Plugin {
	return &Plugin{runtime: runtime, path: path}
}

// Path returns the plugin's source path, its unique key.
func (p *Plugin) Path() string {
	return p.path
}

// Metadata returns the metadata registered at load time, or nil if the
// plugin has not loaded successfully.
func (p *Plugin) Metadata() *Metadata {
	return p.meta
}

// Name returns the registered plugin name, falling back to the file
// name before load so rejection messages can still be attributed.
func (p *Plugin) Name() string {
	if p.meta != nil && p.meta.Name != "" {
		return p.meta.Name
	}
	return filepath.Base(p.path)
}

// State returns the current lifecycle state.
func (p *Plugin) State() PluginState {
	return p.state
}

// HasStarted reports whether the plugin is currently started.
func (p *Plugin) HasStarted() bool {
	return p.state == StateStarted
}

// Load executes the script's top-level code against the shared
// runtime. The script must call registerPlugin with its metadata; the
// engine's capability binding routes that call to setMetadata via the
// execution scope. The caller is responsible for pushing the scope.
func (p *Plugin) Load() error {
	src, err := os.ReadFile(filepath.Clean(p.path))
	if err != nil {
		return oops.In("scripting").
			With("plugin", p.Name()).
			With("operation", "load").
			With("path", p.path).
			Hint("failed to read plugin source").
			Wrap(err)
	}

	p.meta = nil
	if err := p.runtime.State().DoString(string(src)); err != nil {
		return oops.In("scripting").
			With("plugin", p.Name()).
			With("operation", "load").
			Wrap(err)
	}

	if p.meta == nil {
		return oops.In("scripting").
			With("plugin", p.Name()).
			With("operation", "load").
			New("script did not call registerPlugin")
	}

	p.state = StateLoaded
	return nil
}

// Start invokes the plugin's main function. Exceptions leave the
// plugin in StateStartFailed.
func (p *Plugin) Start() error {
	if p.meta == nil || p.meta.main == nil {
		return oops.In("scripting").
			With("plugin", p.Name()).
			With("operation", "start").
			New("plugin has no main function")
	}

	L := p.runtime.State()
	if err := L.CallByParam(lua.P{
		Fn:      p.meta.main,
		NRet:    0,
		Protect: true,
	}); err != nil {
		p.state = StateStartFailed
		return oops.In("scripting").
			With("plugin", p.Name()).
			With("operation", "start").
			Wrap(err)
	}

	p.state = StateStarted
	return nil
}

// Stop runs the plugin's optional onStop handler and transitions the
// plugin back to a startable state. Hook unsubscription is the
// engine's job and happens before Stop is called, so no further events
// reach the plugin. The state transition happens even when the handler
// raises.
func (p *Plugin) Stop() error {
	p.state = StateStopped

	if p.meta == nil || p.meta.onStop == nil {
		return nil
	}
	if err := p.runtime.State().CallByParam(lua.P{
		Fn:      p.meta.onStop,
		NRet:    0,
		Protect: true,
	}); err != nil {
		return oops.In("scripting").
			With("plugin", p.Name()).
			With("operation", "stop").
			Wrap(err)
	}
	return nil
}

// setMetadata records the table passed to registerPlugin. Called on
// the simulation goroutine while this plugin's Load is executing.
func (p *Plugin) setMetadata(tbl *lua.LTable) error {
	errb := oops.In("scripting").With("plugin", filepath.Base(p.path)).With("operation", "register")

	meta := &Metadata{}

	name := tbl.RawGetString("name")
	if name.Type() != lua.LTString {
		return errb.New("registerPlugin: 'name' is required and must be a string")
	}
	meta.Name = name.String()

	version := tbl.RawGetString("version")
	if version.Type() != lua.LTString {
		return errb.New("registerPlugin: 'version' is required and must be a string")
	}
	if _, err := semver.NewVersion(version.String()); err != nil {
		return errb.With("version", version.String()).Hint("version must be valid semver").Wrap(err)
	}
	meta.Version = version.String()

	switch authors := tbl.RawGetString("authors").(type) {
	case lua.LString:
		meta.Authors = []string{authors.String()}
	case *lua.LTable:
		authors.ForEach(func(_, v lua.LValue) {
			meta.Authors = append(meta.Authors, v.String())
		})
	}

	if licence := tbl.RawGetString("licence"); licence.Type() == lua.LTString {
		meta.License = licence.String()
	}

	if v := tbl.RawGetString("minApiVersion"); v.Type() == lua.LTNumber {
		meta.MinAPIVersion = int(v.(lua.LNumber))
	}

	mainFn, ok := tbl.RawGetString("main").(*lua.LFunction)
	if !ok {
		return errb.New("registerPlugin: 'main' is required and must be a function")
	}
	meta.main = mainFn

	if stopFn, ok := tbl.RawGetString("onStop").(*lua.LFunction); ok {
		meta.onStop = stopFn
	}

	p.meta = meta
	return nil
}
