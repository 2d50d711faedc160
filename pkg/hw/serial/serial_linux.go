// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package serial drives the modem control lines (DTR, RTS) of a tty, as used
//by USB-serial relay boards. No data is read or written; line settings
//(baud, parity) are left alone. Only implemented for linux.
package serial

import (
	"os"
	"unsafe"

	"github.com/yunshengtw/optr-jasmine/pkg/hw/ioctl"

	"golang.org/x/sys/unix"
)

type Port struct {
	f *os.File
}

// Open the tty at dev. O_NOCTTY keeps it from becoming our controlling
// terminal, O_NONBLOCK keeps open() from waiting on carrier detect. Fails if
// dev is not a tty.
func Open(dev string) (p *Port, err error) {
	defer tracef("Open(%q)", dev)("=%s", &err)
	f, err := os.OpenFile(dev, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0666)
	if err != nil {
		return nil, err
	}
	_, err = TcGetAttr(f.Fd())
	if err != nil {
		f.Close()
		return nil, &os.PathError{Op: "tcgetattr", Path: dev, Err: err}
	}
	return &Port{f: f}, nil
}

func (p *Port) Fd() uintptr  { return p.f.Fd() }
func (p *Port) Close() error { return p.f.Close() }

// Raise the given modem control lines (ioctl.ModemDTR etc).
func (p *Port) SetBits(bits int) (err error) {
	defer tracef("SetBits(0x%x)", bits)("=%s", &err)
	return ioctl.TiocmBis(p, bits)
}

// Drop the given modem control lines.
func (p *Port) ClearBits(bits int) (err error) {
	defer tracef("ClearBits(0x%x)", bits)("=%s", &err)
	return ioctl.TiocmBic(p, bits)
}

// Bits returns the current state of all modem control lines.
func (p *Port) Bits() (bits int, err error) {
	defer tracef("Bits()")("=(0x%x,%s)", &bits, &err)
	return ioctl.TiocmGet(p)
}

func TcGetAttr(fd uintptr) (*unix.Termios, error) {
	opts := &unix.Termios{}
	_, _, errno := unix.Syscall6(unix.SYS_IOCTL, fd, unix.TCGETS, uintptr(unsafe.Pointer(opts)), 0, 0, 0)
	if errno != 0 {
		return nil, errno
	}
	return opts, nil
}
