// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package scripting

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/openpark/openpark/internal/console"
	"github.com/openpark/openpark/internal/platform"
	"github.com/openpark/openpark/internal/scripting/capability"
	"github.com/openpark/openpark/internal/sim"
)

// PluginAPIVersion is the host API version plugins compare their
// minApiVersion against.
const PluginAPIVersion = 1

// hotReloadInterval is how often Update drains the hot-reload change
// set. The watcher keeps accumulating between drains.
const hotReloadInterval = time.Second

// scriptGlob matches plugin source files by name.
var scriptGlob = glob.MustCompile("*.lua")

// excludedDirs are path segments that denote bundled dependency trees.
// Scripts under them are library code, not plugins.
var excludedDirs = map[string]bool{
	"lua_modules":  true,
	"node_modules": true,
}

// Options configures the engine.
type Options struct {
	// EnableHotReloading starts the file watcher after LoadPlugins.
	EnableHotReloading bool
}

// Engine is the plugin manager: it discovers, sandboxes, schedules,
// and hot-reloads plugin code against the live simulation. All script
// evaluation, lifecycle transitions, and hook dispatch run exclusively
// on the simulation goroutine inside Update; only the hot-reload
// change set and the REPL queue cross goroutines.
type Engine struct {
	console    console.Console
	env        *platform.Environment
	opts       Options
	dispatcher *sim.Dispatcher
	session    *sim.Session

	runtime  *Runtime
	execInfo ExecutionInfo
	hooks    *HookEngine
	metrics  *Metrics

	plugins []*Plugin

	initialised    bool
	pluginsLoaded  bool
	pluginsStarted bool

	lastHotReloadCheck time.Time
	now                func() time.Time

	changedMu    sync.Mutex
	changedFiles map[string]struct{}
	watcher      *FileWatcher

	evalQueue evalQueue

	pluginStoppedSubs []func(*Plugin)
}

// Compile-time check: the engine is the capability host.
var _ capability.Host = (*Engine)(nil)

// NewEngine creates a scripting engine over its collaborators. Nothing
// is initialised until the first Update or an explicit Initialise.
func NewEngine(cons console.Console, env *platform.Environment, dispatcher *sim.Dispatcher, session *sim.Session, opts Options) *Engine {
	return &Engine{
		console:    cons,
		env:        env,
		opts:       opts,
		dispatcher: dispatcher,
		session:    session,
		now:        time.Now,
	}
}

// SetMetrics attaches Prometheus metrics. Call before Initialise.
func (e *Engine) SetMetrics(m *Metrics) {
	e.metrics = m
}

// Initialise creates the runtime and binds every capability global
// exactly once. Idempotent. Runtime creation failure propagates: there
// is no partial-initialisation state.
func (e *Engine) Initialise() error {
	if e.initialised {
		return nil
	}

	runtime, err := NewRuntime()
	if err != nil {
		return oops.In("scripting").Hint("unable to initialise script runtime").Wrap(err)
	}
	e.runtime = runtime
	e.hooks = NewHookEngine(runtime, &e.execInfo, e.console)
	e.hooks.metrics = e.metrics

	capability.Bind(runtime.State(), capability.Deps{
		Console: e.console,
		Host:    e,
		Park:    e.dispatcher.State(),
		Session: e.session,
	})

	e.initialised = true
	e.pluginsLoaded = false
	e.pluginsStarted = false
	return nil
}

// Hooks returns the hook engine, for the simulation to dispatch events
// and for tests to assert subscription state.
func (e *Engine) Hooks() *HookEngine {
	return e.hooks
}

// Plugins returns the active plugin registry in discovery order.
func (e *Engine) Plugins() []*Plugin {
	out := make([]*Plugin, len(e.plugins))
	copy(out, e.plugins)
	return out
}

// LoadPlugins enumerates the plugin directory and loads every script
// in discovery order. A missing directory is a valid empty state, not
// an error.
func (e *Engine) LoadPlugins() error {
	if !e.initialised {
		if err := e.Initialise(); err != nil {
			return err
		}
	}

	dir := e.env.DirectoryPath(platform.BaseUser, platform.DirPlugin)
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		paths, err := e.scanScripts(dir)
		if err != nil {
			return oops.In("scripting").With("dir", dir).Hint("plugin directory scan failed").Wrap(err)
		}
		for _, path := range paths {
			e.LoadPlugin(path)
		}

		if e.opts.EnableHotReloading {
			e.setupHotReloading(dir)
		}
	}

	e.pluginsLoaded = true
	return nil
}

// scanScripts returns every loadable script under dir, recursively, in
// lexical order (discovery order = registry order).
func (e *Engine) scanScripts(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !shouldLoadScript(path) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	return paths, err
}

// shouldLoadScript reports whether path is a plugin script: matches the
// script extension and is not inside a bundled dependency tree.
func shouldLoadScript(path string) bool {
	if !scriptGlob.Match(filepath.Base(path)) {
		return false
	}
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if excludedDirs[segment] {
			return false
		}
	}
	return true
}

// LoadPlugin loads a single script. A broken or version-incompatible
// plugin is reported and discarded: it never enters the registry and
// never affects other plugins.
func (e *Engine) LoadPlugin(path string) {
	plugin := NewPlugin(e.runtime, path)

	scope := e.execInfo.Push(plugin)
	err := plugin.Load()
	scope.Pop()

	if err != nil {
		e.console.WriteLineError(err.Error())
		return
	}

	meta := plugin.Metadata()
	if meta.MinAPIVersion <= PluginAPIVersion {
		e.logPluginInfo(plugin, "Loaded")
		e.plugins = append(e.plugins, plugin)
		if e.metrics != nil {
			e.metrics.PluginsLoaded.Set(float64(len(e.plugins)))
		}
	} else {
		e.logPluginInfo(plugin, fmt.Sprintf("Requires newer API version: v%d", meta.MinAPIVersion))
	}
}

// StartPlugins starts every registered plugin not yet started. A start
// failure is reported and does not abort starting the rest.
func (e *Engine) StartPlugins() {
	for _, plugin := range e.plugins {
		if plugin.HasStarted() || plugin.State() == StateStartFailed {
			continue
		}
		scope := e.execInfo.Push(plugin)
		err := plugin.Start()
		scope.Pop()
		if err != nil {
			// A failed start leaves any subscriptions made before the
			// failure dangling; drop them so no events reach the plugin.
			e.hooks.UnsubscribeAll(plugin)
			e.console.WriteLineError(err.Error())
		}
	}
	e.pluginsStarted = true
}

// StopPlugin stops a started plugin: unsubscribes all of its hooks
// first so no further events reach it, notifies stop observers, then
// runs the plugin's stop handler with errors contained.
func (e *Engine) StopPlugin(plugin *Plugin) {
	if !plugin.HasStarted() {
		return
	}

	e.hooks.UnsubscribeAll(plugin)
	for _, callback := range e.pluginStoppedSubs {
		callback(plugin)
	}

	scope := e.execInfo.Push(plugin)
	err := plugin.Stop()
	scope.Pop()
	if err != nil {
		e.console.WriteLineError(err.Error())
	}
}

// StopPlugins stops every registered plugin in registry order.
func (e *Engine) StopPlugins() {
	for _, plugin := range e.plugins {
		e.StopPlugin(plugin)
	}
	e.pluginsStarted = false
}

// UnloadPlugins stops all plugins and clears the registry. The runtime
// and capability globals survive: this resets plugin state only.
func (e *Engine) UnloadPlugins() {
	e.StopPlugins()
	for _, plugin := range e.plugins {
		e.logPluginInfo(plugin, "Unloaded")
	}
	e.plugins = nil
	e.pluginsLoaded = false
	e.pluginsStarted = false
	if e.metrics != nil {
		e.metrics.PluginsLoaded.Set(0)
	}
}

// OnPluginStopped registers an observer invoked before each plugin's
// stop handler runs.
func (e *Engine) OnPluginStopped(fn func(*Plugin)) {
	e.pluginStoppedSubs = append(e.pluginStoppedSubs, fn)
}

// setupHotReloading starts the file watcher. Failure is non-fatal: hot
// reload is simply unavailable for the session.
func (e *Engine) setupHotReloading(dir string) {
	e.changedFiles = make(map[string]struct{})
	watcher, err := NewFileWatcher(dir, e.NotifyFileChanged)
	if err != nil {
		slog.Warn("unable to enable hot reloading of plugins", "dir", dir, "error", err)
		return
	}
	e.watcher = watcher
}

// NotifyFileChanged records a changed path as the watcher would. Used
// by tests and by external change sources (e.g. an editor integration).
func (e *Engine) NotifyFileChanged(path string) {
	e.changedMu.Lock()
	if e.changedFiles == nil {
		e.changedFiles = make(map[string]struct{})
	}
	e.changedFiles[path] = struct{}{}
	e.changedMu.Unlock()
}

// AutoReloadPlugins drains the change set and reloads each changed
// plugin as one stop-load-start unit. A failure reloading one plugin
// does not affect others in the same batch.
func (e *Engine) AutoReloadPlugins() {
	e.changedMu.Lock()
	if len(e.changedFiles) == 0 {
		e.changedMu.Unlock()
		return
	}
	changed := e.changedFiles
	e.changedFiles = make(map[string]struct{})
	e.changedMu.Unlock()

	for path := range changed {
		plugin := e.findPlugin(path)
		if plugin == nil {
			continue
		}

		e.StopPlugin(plugin)

		scope := e.execInfo.Push(plugin)
		err := plugin.Load()
		scope.Pop()
		if err != nil {
			e.console.WriteLineError(err.Error())
			continue
		}

		e.logPluginInfo(plugin, "Reloaded")
		if e.metrics != nil {
			e.metrics.PluginReloads.Inc()
		}

		scope = e.execInfo.Push(plugin)
		err = plugin.Start()
		scope.Pop()
		if err != nil {
			e.hooks.UnsubscribeAll(plugin)
			e.console.WriteLineError(err.Error())
		}
	}
}

func (e *Engine) findPlugin(path string) *Plugin {
	cleaned := filepath.Clean(path)
	for _, plugin := range e.plugins {
		if filepath.Clean(plugin.Path()) == cleaned {
			return plugin
		}
	}
	return nil
}

// Update is called exactly once per simulation tick. It never blocks
// beyond the bounded interpreter work it performs.
func (e *Engine) Update() error {
	if !e.initialised {
		if err := e.Initialise(); err != nil {
			return err
		}
	}

	if e.pluginsLoaded {
		if !e.pluginsStarted {
			e.StartPlugins()
			e.lastHotReloadCheck = e.now()
		} else if e.now().Sub(e.lastHotReloadCheck) > hotReloadInterval {
			e.AutoReloadPlugins()
			e.lastHotReloadCheck = e.now()
		}
	}

	e.processREPL()
	return nil
}

// Eval queues a snippet for evaluation on the simulation goroutine.
// Callable from any goroutine; the returned channel is closed after
// the snippet's console output has been produced.
func (e *Engine) Eval(source string) <-chan struct{} {
	req := e.evalQueue.push(source)
	return req.done
}

// processREPL drains at most the snippets queued when the drain began,
// strictly in FIFO order.
func (e *Engine) processREPL() {
	for n := e.evalQueue.len(); n > 0; n-- {
		req := e.evalQueue.pop()
		if req == nil {
			return
		}

		result, err := e.evalSnippet(req.source)
		status := "ok"
		if err != nil {
			status = "error"
			e.console.WriteLineError(err.Error())
			slog.Debug("repl evaluation failed", "request_id", req.id, "error", err)
		} else if result != lua.LNil {
			text, err := stringify(result)
			if err != nil {
				status = "error"
				e.console.WriteLineError(err.Error())
			} else {
				e.console.WriteLine(text)
			}
		}
		if e.metrics != nil {
			e.metrics.ReplEvals.WithLabelValues(status).Inc()
		}

		// Fulfilled last so a waiting caller observes output ordering.
		close(req.done)
	}
}

// evalSnippet evaluates source against the shared runtime, preferring
// expression form ("return <src>") so bare expressions print their
// value like an interactive interpreter.
func (e *Engine) evalSnippet(source string) (lua.LValue, error) {
	L := e.runtime.State()
	base := L.GetTop()

	fn, err := L.LoadString("return " + source)
	if err != nil {
		fn, err = L.LoadString(source)
		if err != nil {
			return lua.LNil, err
		}
	}

	L.Push(fn)
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		L.SetTop(base)
		return lua.LNil, err
	}

	var result lua.LValue = lua.LNil
	if L.GetTop() > base {
		result = L.Get(base + 1)
	}
	L.SetTop(base)
	return result, nil
}

// Close stops the watcher and releases the runtime.
func (e *Engine) Close() {
	if e.watcher != nil {
		e.watcher.Close()
		e.watcher = nil
	}
	if e.runtime != nil {
		e.runtime.Close()
		e.runtime = nil
	}
	e.initialised = false
}

func (e *Engine) logPluginInfo(plugin *Plugin, message string) {
	e.console.WriteLine("[" + plugin.Name() + "] " + message)
	slog.Info("plugin lifecycle", "plugin", plugin.Name(), "path", plugin.Path(), "message", message)
}

// APIVersion implements capability.Host.
func (e *Engine) APIVersion() int {
	return PluginAPIVersion
}

// RegisterPlugin implements capability.Host: it attributes the
// registerPlugin call to the plugin currently loading.
func (e *Engine) RegisterPlugin(tbl *lua.LTable) error {
	current := e.execInfo.Current()
	if current == nil {
		return oops.In("scripting").New("registerPlugin called outside plugin load")
	}
	return current.setMetadata(tbl)
}

// Subscribe implements capability.Host: hook subscriptions are
// attributed to the currently executing plugin.
func (e *Engine) Subscribe(hook string, fn *lua.LFunction) (uint64, error) {
	if !IsValidHook(hook) {
		return 0, oops.In("scripting").With("hook", hook).New("unknown hook")
	}
	current := e.execInfo.Current()
	if current == nil {
		return 0, oops.In("scripting").With("hook", hook).New("subscribe requires a plugin context")
	}
	return e.hooks.Subscribe(hook, current, fn), nil
}

// Unsubscribe implements capability.Host.
func (e *Engine) Unsubscribe(cookie uint64) {
	e.hooks.Unsubscribe(cookie)
}

// ExecuteAction implements capability.Host: it routes through the
// generic game command channel, then notifies action.execute
// subscribers of the applied command.
func (e *Engine) ExecuteAction(name string, args map[string]any) error {
	if err := e.dispatcher.Execute(name, args); err != nil {
		return err
	}

	L := e.runtime.State()
	event := L.NewTable()
	L.SetField(event, "action", lua.LString(name))
	if args != nil {
		L.SetField(event, "args", capability.ToLua(L, args))
	}
	e.hooks.Call(HookActionExecute, event)
	return nil
}
