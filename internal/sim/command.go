// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package sim

import (
	"log/slog"
	"sync"

	"github.com/samber/oops"
)

// CommandHandler applies one named game command to the park state.
// Handlers run synchronously on the simulation goroutine and must be
// deterministic: given identical state and args, every network peer
// produces the identical result.
type CommandHandler func(state *State, args map[string]any) error

// CommandEntry is a registered game command.
type CommandEntry struct {
	Name    string
	Handler CommandHandler
	Source  string // "core", "cheat", or plugin name
}

// Registry manages game command registration and lookup.
// It is safe for concurrent access.
type Registry struct {
	commands map[string]CommandEntry
	mu       sync.RWMutex
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]CommandEntry)}
}

// Register adds a command to the registry. If a command with the same
// name exists it is overwritten and a warning is logged: last
// registered wins.
func (r *Registry) Register(entry CommandEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.commands[entry.Name]; ok {
		slog.Warn("game command conflict: overwriting existing command",
			"command", entry.Name,
			"previous_source", existing.Source,
			"new_source", entry.Source)
	}
	r.commands[entry.Name] = entry
}

// Get retrieves a command by name.
func (r *Registry) Get(name string) (CommandEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.commands[name]
	return entry, ok
}

// Names returns the names of all registered commands.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	return names
}

// Dispatcher applies game commands against a single park state. This
// is the generic "apply game command" channel: cheat commands, the
// scripting context capability, and network command replay all route
// through Execute.
type Dispatcher struct {
	registry *Registry
	state    *State
}

// NewDispatcher creates a dispatcher over the given registry and state.
func NewDispatcher(registry *Registry, state *State) *Dispatcher {
	return &Dispatcher{registry: registry, state: state}
}

// Execute runs the named command synchronously. Each execution gets a
// ULID for log attribution. Unknown commands and handler failures are
// returned as errors, never panics.
func (d *Dispatcher) Execute(name string, args map[string]any) error {
	id := NewULID()

	entry, ok := d.registry.Get(name)
	if !ok {
		return oops.In("sim").
			With("command", name).
			With("command_id", id.String()).
			New("unknown game command")
	}

	if err := entry.Handler(d.state, args); err != nil {
		return oops.In("sim").
			With("command", name).
			With("command_id", id.String()).
			With("source", entry.Source).
			Wrap(err)
	}

	slog.Debug("game command applied",
		"command", name,
		"command_id", id.String(),
		"source", entry.Source)
	return nil
}

// State returns the park state the dispatcher mutates.
func (d *Dispatcher) State() *State {
	return d.state
}

// intArg reads an integer argument, accepting the numeric types that
// arrive from Lua (float64) and from Go callers (int, int64).
func intArg(args map[string]any, key string) (int64, bool) {
	switch v := args[key].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
