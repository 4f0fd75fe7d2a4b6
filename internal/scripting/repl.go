// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package scripting

import (
	"encoding/json"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/openpark/openpark/internal/scripting/capability"
	"github.com/openpark/openpark/internal/sim"
)

// evalRequest is one queued REPL snippet. The done channel is closed
// by the simulation goroutine only after the snippet's console output
// has been produced, so a waiting caller observes output ordering
// correctly.
type evalRequest struct {
	id     string
	source string
	done   chan struct{}
}

// evalQueue is the FIFO bridging external actors into the simulation
// goroutine. Producers may be any goroutine; the consumer is
// exclusively the simulation goroutine during Update.
type evalQueue struct {
	mu    sync.Mutex
	items []*evalRequest
}

// push enqueues a snippet and returns its request without blocking.
func (q *evalQueue) push(source string) *evalRequest {
	req := &evalRequest{
		id:     sim.NewULID().String(),
		source: source,
		done:   make(chan struct{}),
	}
	q.mu.Lock()
	q.items = append(q.items, req)
	q.mu.Unlock()
	return req
}

// len returns the number of queued requests.
func (q *evalQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// pop removes and returns the oldest request, or nil when empty.
func (q *evalQueue) pop() *evalRequest {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	req := q.items[0]
	q.items = q.items[1:]
	return req
}

// stringify converts an evaluation result to its console
// representation: tables become JSON, everything else uses Lua's
// default textual conversion. A table that cannot be converted, such
// as one that references itself, is an error.
func stringify(v lua.LValue) (string, error) {
	if tbl, ok := v.(*lua.LTable); ok {
		converted, err := capability.ToGo(tbl)
		if err != nil {
			return "", err
		}
		data, err := json.Marshal(converted)
		if err == nil {
			return string(data), nil
		}
	}
	return v.String(), nil
}
