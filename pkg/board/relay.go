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

	"github.com/yunshengtw/optr-jasmine/pkg/hw/ioctl"
	"github.com/yunshengtw/optr-jasmine/pkg/hw/serial"
	"github.com/yunshengtw/optr-jasmine/pkg/log"
)

// LineController drives the modem control lines wired to the relay board.
// Implemented by *serial.Port.
type LineController interface {
	SetBits(bits int) error
	ClearBits(bits int) error
	Bits() (int, error)
	Close() error
}

var _ LineController = (*serial.Port)(nil)

// Opener opens the relay at path.
type Opener func(path string) (LineController, error)

func OpenSerial(path string) (LineController, error) {
	p, err := serial.Open(path)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Direction of a relay change.
type Direction int

const (
	Assert   Direction = iota //TIOCMBIS
	Deassert                  //TIOCMBIC
)

func (d Direction) String() string {
	if d == Assert {
		return "set"
	}
	return "clear"
}

// Line is a modem control line wired to one relay channel.
type Line int

const (
	// Pulsed to reset the board.
	ResetLine Line = ioctl.ModemDTR
	// Held low for factory mode, high for normal mode.
	BootLine Line = ioctl.ModemRTS
)

func (l Line) String() string {
	switch l {
	case ResetLine:
		return "DTR"
	case BootLine:
		return "RTS"
	}
	return fmt.Sprintf("line 0x%x", int(l))
}

// SetRelayPath opens the relay's tty. On failure the previously open relay,
// if any, stays in use. A relay that is replaced is closed.
func (c *Controller) SetRelayPath(path string) error {
	r, err := c.open(path)
	if err != nil {
		log.Msgf("%s: %s", ERelayOpen, path)
		log.Logf("%s", err)
		return wrap(ERelayOpen, err)
	}
	if c.relay != nil {
		if cerr := c.relay.Close(); cerr != nil {
			log.Logf("closing relay %s: %s", c.relayPath, cerr)
		}
	}
	c.relay = r
	c.relayPath = path
	log.Logf("relay: %s", path)
	return nil
}

// RelayPath returns the path of the open relay, or "".
func (c *Controller) RelayPath() string { return c.relayPath }

// ControlRelay sets or clears one line, then waits for the relay to settle.
// Without an open relay nothing is done. No wait follows a failed change.
func (c *Controller) ControlRelay(d Direction, l Line) error {
	if c.relay == nil {
		log.Msg(ENoRelay.Error())
		return ENoRelay
	}
	var err error
	if d == Assert {
		err = c.relay.SetBits(int(l))
	} else {
		err = c.relay.ClearBits(int(l))
	}
	if err != nil {
		log.Msg(ERelayControl.Error())
		log.Logf("%s %s on %s: %s", d, l, c.relayPath, err)
		return wrap(ERelayControl, err)
	}
	log.Logf("%s %s", d, l)
	c.Sleep(SettleDelay)
	return nil
}

// RelayLines prints and returns the relay's modem line state, ex "DTR=off RTS=on".
func (c *Controller) RelayLines() (string, error) {
	if c.relay == nil {
		log.Msg(ENoRelay.Error())
		return "", ENoRelay
	}
	bits, err := c.relay.Bits()
	if err != nil {
		log.Msg(ERelayControl.Error())
		log.Logf("reading lines on %s: %s", c.relayPath, err)
		return "", wrap(ERelayControl, err)
	}
	s := ioctl.ModemString(bits)
	fmt.Fprintln(c.Out, s)
	return s, nil
}

// ToFactory drops the boot line and resets the board. The board is not
// checked afterwards; Search to see what it came up as.
func (c *Controller) ToFactory() error {
	err := c.ControlRelay(Deassert, BootLine)
	return errors.Join(err, c.Reset())
}

// ToNormal raises the boot line and resets the board.
func (c *Controller) ToNormal() error {
	err := c.ControlRelay(Assert, BootLine)
	return errors.Join(err, c.Reset())
}

// Reset pulses the reset line.
func (c *Controller) Reset() error {
	err := c.ControlRelay(Assert, ResetLine)
	return errors.Join(err, c.ControlRelay(Deassert, ResetLine))
}
