// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package ioctl uses IOCTL's to find block device size and to drive the modem
//control lines of a tty.
package ioctl

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

/*********
 * IMPORTANT
 * An ioctl() request has encoded in it whether the argument is an in
 *   parameter or out parameter, and the size of the argument argp in
 *   bytes.
 *********/

type FDer interface {
	Fd() uintptr
}

// Ioctl1 issues a request whose argument is a pointer to a 64-bit result.
func Ioctl1(fd uintptr, cmd uint) (res uint64, err error) {
	ptr := uintptr(unsafe.Pointer(&res))
	err = ioctl(fd, uintptr(cmd), ptr)
	return res, err
}

// IoctlInt issues a request whose argument is a pointer to a C int, which
// the kernel may read, write, or both.
func IoctlInt(fd uintptr, cmd uint, val *int32) error {
	return ioctl(fd, uintptr(cmd), uintptr(unsafe.Pointer(val)))
}

func ioctl(fd, cmd, ptr uintptr) error {
	_, _, err := unix.Syscall(unix.SYS_IOCTL, fd, cmd, ptr)
	if err == 0 {
		return nil
	}
	return err
}
