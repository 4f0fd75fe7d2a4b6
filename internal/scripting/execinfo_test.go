// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package scripting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExecutionInfo_PushPop(t *testing.T) {
	var info ExecutionInfo
	assert.Nil(t, info.Current())

	a := &Plugin{path: "a.lua"}
	scope := info.Push(a)
	assert.Same(t, a, info.Current())

	scope.Pop()
	assert.Nil(t, info.Current())
}

func TestExecutionInfo_NestedScopesRestore(t *testing.T) {
	var info ExecutionInfo
	a := &Plugin{path: "a.lua"}
	b := &Plugin{path: "b.lua"}

	outer := info.Push(a)
	inner := info.Push(b)
	assert.Same(t, b, info.Current())

	inner.Pop()
	assert.Same(t, a, info.Current())

	outer.Pop()
	assert.Nil(t, info.Current())
}
