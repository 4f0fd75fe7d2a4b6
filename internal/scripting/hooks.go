// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/openpark/openpark/internal/console"
)

// Simulation hooks plugins can subscribe to. interval.tick and
// interval.day fire from the simulation loop, action.execute after
// every applied game command. guest.generation and network.chat are
// declared so plugins can subscribe, but the headless simulation has
// no guest spawner or chat transport to fire them from yet.
const (
	HookIntervalTick    = "interval.tick"
	HookIntervalDay     = "interval.day"
	HookActionExecute   = "action.execute"
	HookGuestGeneration = "guest.generation"
	HookNetworkChat     = "network.chat"
)

var validHooks = map[string]bool{
	HookIntervalTick:    true,
	HookIntervalDay:     true,
	HookActionExecute:   true,
	HookGuestGeneration: true,
	HookNetworkChat:     true,
}

// IsValidHook reports whether name is a known simulation hook.
func IsValidHook(name string) bool {
	return validHooks[name]
}

// hookSubscription is one (plugin, callback) pair. The plugin
// reference is non-owning: removal on stop is what ends delivery, the
// subscription never extends plugin lifetime.
type hookSubscription struct {
	cookie uint64
	owner  *Plugin
	fn     *lua.LFunction
}

// HookEngine delivers named simulation events to subscribed plugin
// callbacks, in subscription order. It is owned by the simulation
// goroutine; no locking.
type HookEngine struct {
	runtime    *Runtime
	execInfo   *ExecutionInfo
	console    console.Console
	subs       map[string][]*hookSubscription
	nextCookie uint64
	metrics    *Metrics
}

// NewHookEngine creates a hook engine bound to the shared runtime.
func NewHookEngine(runtime *Runtime, execInfo *ExecutionInfo, cons console.Console) *HookEngine {
	return &HookEngine{
		runtime:  runtime,
		execInfo: execInfo,
		console:  cons,
		subs:     make(map[string][]*hookSubscription),
	}
}

// Subscribe registers a callback for a hook, attributed to owner.
// Multiple subscriptions by the same plugin are independent entries
// delivered in subscription order. Returns a cookie for single
// unsubscription.
func (e *HookEngine) Subscribe(hook string, owner *Plugin, fn *lua.LFunction) uint64 {
	e.nextCookie++
	e.subs[hook] = append(e.subs[hook], &hookSubscription{
		cookie: e.nextCookie,
		owner:  owner,
		fn:     fn,
	})
	return e.nextCookie
}

// Unsubscribe removes the single subscription identified by cookie.
func (e *HookEngine) Unsubscribe(cookie uint64) {
	for hook, subs := range e.subs {
		for i, sub := range subs {
			if sub.cookie == cookie {
				e.subs[hook] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// UnsubscribeAll removes every subscription owned by plugin, across
// all hooks. Called before the plugin's Stop so no further events
// reach it.
func (e *HookEngine) UnsubscribeAll(plugin *Plugin) {
	for hook, subs := range e.subs {
		kept := subs[:0]
		for _, sub := range subs {
			if sub.owner != plugin {
				kept = append(kept, sub)
			}
		}
		e.subs[hook] = kept
	}
}

// SubscriptionCount returns the number of live subscriptions owned by
// plugin across all hooks.
func (e *HookEngine) SubscriptionCount(plugin *Plugin) int {
	n := 0
	for _, subs := range e.subs {
		for _, sub := range subs {
			if sub.owner == plugin {
				n++
			}
		}
	}
	return n
}

// Call dispatches a hook to every subscriber in subscription order,
// each under its owning plugin's execution scope. A callback that
// raises is reported to the console and does not stop delivery to
// subsequent subscribers.
func (e *HookEngine) Call(hook string, args ...lua.LValue) {
	subs := e.subs[hook]
	if len(subs) == 0 {
		return
	}
	if e.metrics != nil {
		e.metrics.HookCalls.WithLabelValues(hook).Inc()
	}

	// Snapshot: a callback may subscribe or unsubscribe mid-dispatch.
	snapshot := make([]*hookSubscription, len(subs))
	copy(snapshot, subs)

	L := e.runtime.State()
	for _, sub := range snapshot {
		if !e.alive(hook, sub.cookie) {
			continue
		}
		scope := e.execInfo.Push(sub.owner)
		err := L.CallByParam(lua.P{
			Fn:      sub.fn,
			NRet:    0,
			Protect: true,
		}, args...)
		scope.Pop()
		if err != nil {
			e.console.WriteLineError("[" + sub.owner.Name() + "] " + err.Error())
		}
	}
}

// alive reports whether a subscription is still registered. A stop or
// dispose executed by an earlier callback in the same dispatch must
// suppress delivery.
func (e *HookEngine) alive(hook string, cookie uint64) bool {
	for _, sub := range e.subs[hook] {
		if sub.cookie == cookie {
			return true
		}
	}
	return false
}
