// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package scripting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"github.com/openpark/openpark/internal/console"
)

func newTestHookEngine(t *testing.T) (*HookEngine, *Runtime, *console.Buffer) {
	t.Helper()
	runtime := newTestRuntime(t)
	buf := console.NewBuffer()
	var execInfo ExecutionInfo
	return NewHookEngine(runtime, &execInfo, buf), runtime, buf
}

// luaFn compiles src into a Lua function value.
func luaFn(t *testing.T, runtime *Runtime, src string) *lua.LFunction {
	t.Helper()
	L := runtime.State()
	require.NoError(t, L.DoString("testfn = "+src))
	fn, ok := L.GetGlobal("testfn").(*lua.LFunction)
	require.True(t, ok)
	return fn
}

func TestHookEngine_Call_SubscriptionOrder(t *testing.T) {
	hooks, runtime, buf := newTestHookEngine(t)
	a := NewPlugin(runtime, "a.lua")
	b := NewPlugin(runtime, "b.lua")

	// console global is engine-bound in production; bind a minimal one.
	L := runtime.State()
	tbl := L.NewTable()
	L.SetField(tbl, "log", L.NewFunction(func(L *lua.LState) int {
		buf.WriteLine(L.CheckString(1))
		return 0
	}))
	L.SetGlobal("console", tbl)

	hooks.Subscribe(HookIntervalTick, b, luaFn(t, runtime, `function() console.log('from b') end`))
	hooks.Subscribe(HookIntervalTick, a, luaFn(t, runtime, `function() console.log('from a') end`))

	hooks.Call(HookIntervalTick)

	// Delivery follows subscription order, not plugin discovery order.
	assert.Equal(t, []string{"from b", "from a"}, lineTexts(buf.Lines()))
}

func TestHookEngine_Unsubscribe_RemovesSingleSubscription(t *testing.T) {
	hooks, runtime, _ := newTestHookEngine(t)
	plugin := NewPlugin(runtime, "p.lua")

	first := hooks.Subscribe(HookIntervalTick, plugin, luaFn(t, runtime, `function() end`))
	hooks.Subscribe(HookIntervalTick, plugin, luaFn(t, runtime, `function() end`))

	assert.Equal(t, 2, hooks.SubscriptionCount(plugin))
	hooks.Unsubscribe(first)
	assert.Equal(t, 1, hooks.SubscriptionCount(plugin))

	// Unknown cookies are a no-op.
	hooks.Unsubscribe(9999)
	assert.Equal(t, 1, hooks.SubscriptionCount(plugin))
}

func TestHookEngine_UnsubscribeAll_SparesOtherPlugins(t *testing.T) {
	hooks, runtime, _ := newTestHookEngine(t)
	a := NewPlugin(runtime, "a.lua")
	b := NewPlugin(runtime, "b.lua")

	hooks.Subscribe(HookIntervalTick, a, luaFn(t, runtime, `function() end`))
	hooks.Subscribe(HookIntervalDay, a, luaFn(t, runtime, `function() end`))
	hooks.Subscribe(HookIntervalTick, b, luaFn(t, runtime, `function() end`))

	hooks.UnsubscribeAll(a)

	assert.Equal(t, 0, hooks.SubscriptionCount(a))
	assert.Equal(t, 1, hooks.SubscriptionCount(b))
}

func TestHookEngine_Call_ErrorDoesNotStopDelivery(t *testing.T) {
	hooks, runtime, buf := newTestHookEngine(t)
	L := runtime.State()
	tbl := L.NewTable()
	L.SetField(tbl, "log", L.NewFunction(func(L *lua.LState) int {
		buf.WriteLine(L.CheckString(1))
		return 0
	}))
	L.SetGlobal("console", tbl)

	bad := NewPlugin(runtime, "bad.lua")
	good := NewPlugin(runtime, "good.lua")

	hooks.Subscribe(HookIntervalTick, bad, luaFn(t, runtime, `function() error('callback broke') end`))
	hooks.Subscribe(HookIntervalTick, good, luaFn(t, runtime, `function() console.log('delivered') end`))

	hooks.Call(HookIntervalTick)

	lines := buf.Lines()
	require.Len(t, lines, 2)
	assert.True(t, lines[0].IsErr)
	assert.Contains(t, lines[0].Text, "[bad.lua]")
	assert.Contains(t, lines[0].Text, "callback broke")
	assert.Equal(t, "delivered", lines[1].Text)
}

func TestHookEngine_Call_MidDispatchUnsubscribeSuppressed(t *testing.T) {
	hooks, runtime, buf := newTestHookEngine(t)
	L := runtime.State()

	a := NewPlugin(runtime, "a.lua")
	b := NewPlugin(runtime, "b.lua")

	// a runs first and unsubscribes b mid-dispatch; b's callback must
	// then be suppressed even though it was in the dispatch snapshot.
	var cookieB uint64
	L.SetGlobal("unsubB", L.NewFunction(func(*lua.LState) int {
		hooks.Unsubscribe(cookieB)
		return 0
	}))
	L.SetGlobal("mark", L.NewFunction(func(*lua.LState) int {
		buf.WriteLine("b ran")
		return 0
	}))

	hooks.Subscribe(HookIntervalTick, a, luaFn(t, runtime, `function() unsubB() end`))
	cookieB = hooks.Subscribe(HookIntervalTick, b, luaFn(t, runtime, `function() mark() end`))

	hooks.Call(HookIntervalTick)

	assert.Empty(t, buf.Lines(), "b's callback must not run after mid-dispatch unsubscription")
}

func TestHookEngine_Call_AttributesExecutionScope(t *testing.T) {
	runtime := newTestRuntime(t)
	buf := console.NewBuffer()
	var execInfo ExecutionInfo
	hooks := NewHookEngine(runtime, &execInfo, buf)

	plugin := NewPlugin(runtime, "owner.lua")
	L := runtime.State()

	var seen *Plugin
	L.SetGlobal("capture", L.NewFunction(func(*lua.LState) int {
		seen = execInfo.Current()
		return 0
	}))

	hooks.Subscribe(HookGuestGeneration, plugin, luaFn(t, runtime, `function() capture() end`))
	hooks.Call(HookGuestGeneration)

	assert.Same(t, plugin, seen)
	assert.Nil(t, execInfo.Current(), "scope must be restored after dispatch")
}

func TestHookEngine_Call_PassesArguments(t *testing.T) {
	hooks, runtime, buf := newTestHookEngine(t)
	L := runtime.State()
	tbl := L.NewTable()
	L.SetField(tbl, "log", L.NewFunction(func(L *lua.LState) int {
		buf.WriteLine(L.CheckString(1))
		return 0
	}))
	L.SetGlobal("console", tbl)

	plugin := NewPlugin(runtime, "p.lua")
	hooks.Subscribe(HookNetworkChat, plugin, luaFn(t, runtime, `function(e) console.log(e.message) end`))

	event := L.NewTable()
	L.SetField(event, "message", lua.LString("hi all"))
	hooks.Call(HookNetworkChat, event)

	lines := buf.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "hi all", lines[0].Text)
}

func TestIsValidHook(t *testing.T) {
	assert.True(t, IsValidHook(HookIntervalTick))
	assert.True(t, IsValidHook(HookIntervalDay))
	assert.True(t, IsValidHook(HookActionExecute))
	assert.True(t, IsValidHook(HookGuestGeneration))
	assert.True(t, IsValidHook(HookNetworkChat))
	assert.False(t, IsValidHook("interval.year"))
	assert.False(t, IsValidHook(""))
}
