// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Subpackages contain code for driving an OpenSSD Jasmine development board
// from a linux host: finding it on the scsi bus, switching it between its two
// boot modes, and handing it to the installer.
//
// The board presents itself as a scsi disk. Its model string tells which mode
// it booted in:
//
//    - factory: the board runs a minimal loader which accepts new firmware
//      and can scan the flash for bad blocks. Model "YATAPDONG BAREFO".
//
//    - normal: the board runs the installed firmware and behaves as an ssd.
//      Model "OpenSSD Jasmine " (the trailing space is significant).
//
// The mode is chosen at reset by a jumper. A two-channel relay, wired to the
// DTR (reset) and RTS (boot mode) lines of a usb serial adapter, replaces the
// jumper and the reset button, so the mode can be changed unattended.
//
// cmd/board is the operator tool; pkg/board holds the logic. Use `mage` to
// build, see magerunner.go.
//
package jasmine
