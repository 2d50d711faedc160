// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package board

import (
	"errors"
	"fmt"
)

// Conditions reported by Controller. Errors returned by Controller wrap one of
// these, so test with errors.Is.
var (
	// Hard failures; Search aborts and state is cleared.
	EListDisks     = errors.New("Fail listing scsi disks")
	EListBlockDevs = errors.New("Fail listing block devices")

	// Reported, and Search carries on.
	ERescan            = errors.New("Fail triggering rescan")
	EModelUnreadable   = errors.New("Fail reading model")
	EBusyUnreadable    = errors.New("Fail reading busy state")
	ENoBlockDevs       = errors.New("No block devices found")
	EMultipleBlockDevs = errors.New("Multiple devices found")

	// Reported; a hard failure if Controller.Strict is set.
	ENoBoard = errors.New("Fail finding Jasmine board")

	ENoRelay      = errors.New("Please set relay file first")
	ERelayOpen    = errors.New("Cannot open relay file")
	ERelayControl = errors.New("Cannot control relay")
	ENoDevFile    = errors.New("No device file, search for the board first")
)

func wrap(cond, err error) error { return fmt.Errorf("%w: %w", cond, err) }
