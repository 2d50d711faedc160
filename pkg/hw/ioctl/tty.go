// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package ioctl

import "golang.org/x/sys/unix"

// Modem control bits, as used with TIOCMBIS/TIOCMBIC/TIOCMGET.
const (
	ModemDTR = unix.TIOCM_DTR
	ModemRTS = unix.TIOCM_RTS
)

//TIOCMBIS - raise the given modem control lines, leaving others untouched
func TiocmBis(f FDer, bits int) error {
	b := int32(bits)
	return IoctlInt(f.Fd(), unix.TIOCMBIS, &b)
}

//TIOCMBIC - drop the given modem control lines, leaving others untouched
func TiocmBic(f FDer, bits int) error {
	b := int32(bits)
	return IoctlInt(f.Fd(), unix.TIOCMBIC, &b)
}

//TIOCMGET - read the state of all modem control lines
func TiocmGet(f FDer) (int, error) {
	var b int32
	err := IoctlInt(f.Fd(), unix.TIOCMGET, &b)
	return int(b), err
}

// ModemString describes the lines the relay board cares about, ex "DTR=on RTS=off"
func ModemString(bits int) string {
	onOff := func(b int) string {
		if bits&b != 0 {
			return "on"
		}
		return "off"
	}
	return "DTR=" + onOff(ModemDTR) + " RTS=" + onOff(ModemRTS)
}
