// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

package errutil_test

import (
	"testing"

	"github.com/samber/oops"

	"github.com/openpark/openpark/pkg/errutil"
)

func TestAssertErrorContext(t *testing.T) {
	err := oops.With("plugin", "park-monitor").Errorf("load failed")
	errutil.AssertErrorContext(t, err, "plugin", "park-monitor")
}
