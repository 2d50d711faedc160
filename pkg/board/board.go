// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package board finds an OpenSSD Jasmine board on the scsi bus, reports its
// boot mode and busy state, switches it between factory and normal mode via
// a relay on a serial port's modem control lines, and hands the board's
// block device to the installer.
//
// A Controller holds everything learned during the life of the process: the
// state from the last Search, and the open relay. Nearly every failure is
// reported via log.Msgf and returned as an error wrapping one of the E*
// conditions, leaving the caller to decide whether to carry on.
package board

import (
	"fmt"
	"io"
	"os"
	fp "path/filepath"
	"time"

	"github.com/yunshengtw/optr-jasmine/pkg/hw/block"
	"github.com/yunshengtw/optr-jasmine/pkg/installer"
	"github.com/yunshengtw/optr-jasmine/pkg/log"
)

// Model strings reported by the board's firmware. Both are exactly 16 bytes;
// the trailing space in NormalModel is part of the value.
const (
	FactoryModel = "YATAPDONG BAREFO"
	NormalModel  = "OpenSSD Jasmine "
)

// Pause after a bus rescan and after each relay change.
const SettleDelay = 2 * time.Second

type Mode int

const (
	ModeUnknown Mode = iota
	Factory
	Normal
)

func (m Mode) String() string {
	switch m {
	case Factory:
		return "Factory"
	case Normal:
		return "Normal"
	}
	return "Unknown"
}

// ModeForModel maps a scsi model string to a Mode. Comparison is exact.
func ModeForModel(model string) Mode {
	switch model {
	case FactoryModel:
		return Factory
	case NormalModel:
		return Normal
	}
	return ModeUnknown
}

type BusyState int

const (
	BusyUnknown BusyState = iota
	Free
	Busy
)

func (b BusyState) String() string {
	switch b {
	case Free:
		return "Free"
	case Busy:
		return "Busy"
	}
	return "Unknown"
}

// State is what the last Search learned. The zero value means no board.
type State struct {
	Mode    Mode
	Busy    BusyState
	DevFile string //ex /dev/sdb; empty if unresolved
}

// Found returns true if the last search identified a board.
func (s State) Found() bool { return s.Mode != ModeUnknown }

type Controller struct {
	Sys          block.Sysfs
	InstallerDir string
	// Strict makes Search fail with ENoBoard, rather than just report it.
	Strict bool
	// Reports (Mode(), Busy(), DevFile(), ...) are printed here.
	Out io.Writer
	// Sleep waits for the bus or the relay to settle. Defaults to time.Sleep.
	Sleep func(time.Duration)

	state     State
	relay     LineController
	relayPath string

	open Opener
}

// New returns a Controller using the real sysfs, relay, and installer.
func New(sys block.Sysfs, installerDir string) *Controller {
	return &Controller{
		Sys:          sys,
		InstallerDir: installerDir,
		Out:          os.Stdout,
		open:         OpenSerial,
		Sleep:        time.Sleep,
	}
}

// State returns the result of the last Search.
func (c *Controller) State() State { return c.state }

// Mode prints and returns the mode found by the last Search.
func (c *Controller) Mode() Mode {
	fmt.Fprintln(c.Out, c.state.Mode)
	return c.state.Mode
}

// Busy prints and returns the busy state found by the last Search.
func (c *Controller) Busy() BusyState {
	fmt.Fprintln(c.Out, c.state.Busy)
	return c.state.Busy
}

// DevFile prints and returns the device node found by the last Search.
func (c *Controller) DevFile() string {
	if c.state.DevFile == "" {
		fmt.Fprintln(c.Out, "Unknown")
	} else {
		fmt.Fprintln(c.Out, c.state.DevFile)
	}
	return c.state.DevFile
}

// Info prints vendor, model, and size of the board's block device.
func (c *Controller) Info() (block.BlockDev, error) {
	name, err := c.devName()
	if err != nil {
		return block.BlockDev{}, err
	}
	b, err := c.Sys.Describe(name)
	if err != nil {
		log.Logf("describing %s: %s", name, err)
	}
	fmt.Fprintln(c.Out, b)
	return b, nil
}

// Flash runs the installer to write firmware to the board.
func (c *Controller) Flash() error { return c.install(installer.Flash) }

// ScanBadBlocks runs the installer's bad block scan.
func (c *Controller) ScanBadBlocks() error { return c.install(installer.BadBlockScan) }

func (c *Controller) install(op installer.Op) error {
	if _, err := c.devName(); err != nil {
		return err
	}
	return installer.Invoke(c.InstallerDir, c.state.DevFile, op)
}

func (c *Controller) devName() (string, error) {
	if c.state.DevFile == "" {
		log.Msg(ENoDevFile.Error())
		return "", ENoDevFile
	}
	return fp.Base(c.state.DevFile), nil
}
