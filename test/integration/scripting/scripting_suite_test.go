// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

//go:build integration

package scripting_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

func TestScripting(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Scripting Integration Suite")
}
