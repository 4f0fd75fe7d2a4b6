// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

//go:build integration

package scripting_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/openpark/openpark/internal/console"
	"github.com/openpark/openpark/internal/platform"
	"github.com/openpark/openpark/internal/scripting"
	"github.com/openpark/openpark/internal/sim"
)

// harness bundles a live engine over a temp plugin directory, driven
// the way the game loop drives it: one goroutine calling Update.
type harness struct {
	engine *scripting.Engine
	buf    *console.Buffer
	state  *sim.State
	dir    string
}

func newHarness(hotReload bool) *harness {
	dir, err := os.MkdirTemp("", "openpark-plugins-*")
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(func() { _ = os.RemoveAll(dir) })

	state := sim.NewState("Integration Park")
	registry := sim.NewRegistry()
	sim.RegisterCheats(registry)
	dispatcher := sim.NewDispatcher(registry, state)
	session := &sim.Session{Mode: sim.ModeNone}

	buf := console.NewBuffer()
	env := &platform.Environment{PluginDirOverride: dir}
	engine := scripting.NewEngine(buf, env, dispatcher, session, scripting.Options{
		EnableHotReloading: hotReload,
	})
	DeferCleanup(engine.Close)

	return &harness{engine: engine, buf: buf, state: state, dir: dir}
}

func (h *harness) writePlugin(name, src string) string {
	path := filepath.Join(h.dir, name)
	Expect(os.WriteFile(path, []byte(src), 0o644)).To(Succeed())
	return path
}

func (h *harness) texts() []string {
	lines := h.buf.Lines()
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

var _ = Describe("Plugin lifecycle", func() {
	It("loads, starts, dispatches hooks, and stops a plugin end to end", func() {
		h := newHarness(false)
		h.writePlugin("greeter.lua", `
registerPlugin({
	name = 'greeter',
	version = '1.0.0',
	authors = 'integration',
	licence = 'MIT',
	minApiVersion = 1,
	main = function()
		context.subscribe('interval.day', function()
			park.postMessage('another day at ' .. park.getName())
		end)
	end,
	onStop = function()
		console.log('greeter done')
	end
})
`)

		Expect(h.engine.LoadPlugins()).To(Succeed())
		Expect(h.engine.Update()).To(Succeed())

		h.engine.Hooks().Call(scripting.HookIntervalDay)
		Expect(h.texts()).To(ContainElement("[park] another day at Integration Park"))

		h.engine.StopPlugins()
		Expect(h.texts()).To(ContainElement("greeter done"))

		// After stop, the day hook no longer reaches the plugin.
		before := len(h.buf.Lines())
		h.engine.Hooks().Call(scripting.HookIntervalDay)
		Expect(h.buf.Lines()).To(HaveLen(before))
	})

	It("applies game commands issued by plugin code", func() {
		h := newHarness(false)
		h.writePlugin("banker.lua", `
registerPlugin({
	name = 'banker',
	version = '1.0.0',
	main = function()
		context.executeAction('cheat.setmoney', { amount = 1000000 })
	end
})
`)

		Expect(h.engine.LoadPlugins()).To(Succeed())
		Expect(h.engine.Update()).To(Succeed())

		Expect(h.state.Money).To(Equal(int64(1000000)))
	})
})

var _ = Describe("REPL bridge", func() {
	It("evaluates snippets queued from another goroutine in order", func() {
		h := newHarness(false)
		Expect(h.engine.LoadPlugins()).To(Succeed())

		// The console actor queues; the simulation goroutine drains.
		done := make(chan struct{})
		go func() {
			defer close(done)
			<-h.engine.Eval("x = park.getMoney()")
			<-h.engine.Eval("x + 1")
		}()

		Eventually(func() []string {
			Expect(h.engine.Update()).To(Succeed())
			return h.texts()
		}).WithTimeout(5 * time.Second).WithPolling(10 * time.Millisecond).
			Should(ContainElement("100001"))
		Eventually(done).Should(BeClosed())
	})

	It("keeps REPL errors out of plugin state", func() {
		h := newHarness(false)
		h.writePlugin("steady.lua", `
registerPlugin({
	name = 'steady',
	version = '1.0.0',
	main = function()
		context.subscribe('interval.tick', function()
			console.log('still here')
		end)
	end
})
`)
		Expect(h.engine.LoadPlugins()).To(Succeed())
		Expect(h.engine.Update()).To(Succeed())

		evalDone := h.engine.Eval("error('repl explosion')")
		Expect(h.engine.Update()).To(Succeed())
		Eventually(evalDone).Should(BeClosed())

		h.buf.Reset()
		h.engine.Hooks().Call(scripting.HookIntervalTick)
		Expect(h.texts()).To(ContainElement("still here"))
	})
})

var _ = Describe("Hot reloading", func() {
	It("picks up an edited plugin through the file watcher", func() {
		h := newHarness(true)
		path := h.writePlugin("live.lua", `
registerPlugin({
	name = 'live',
	version = '1.0.0',
	main = function()
		console.log('v1 running')
	end
})
`)

		Expect(h.engine.LoadPlugins()).To(Succeed())
		Expect(h.engine.Update()).To(Succeed())
		Expect(h.texts()).To(ContainElement("v1 running"))

		Expect(os.WriteFile(path, []byte(`
registerPlugin({
	name = 'live',
	version = '1.1.0',
	main = function()
		console.log('v2 running')
	end
})
`), 0o644)).To(Succeed())

		// The engine drains the change set at most once per second.
		Eventually(func() []string {
			Expect(h.engine.Update()).To(Succeed())
			return h.texts()
		}).WithTimeout(10 * time.Second).WithPolling(50 * time.Millisecond).
			Should(ContainElement("v2 running"))

		Expect(h.texts()).To(ContainElement("[live] Reloaded"))
	})
})
