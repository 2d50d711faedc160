// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/yunshengtw/optr-jasmine/pkg/board"
	"github.com/yunshengtw/optr-jasmine/pkg/log"
)

type app struct {
	c      *board.Controller
	in     io.Reader
	out    io.Writer
	isTerm func() bool
}

type command struct {
	name string
	args []string //names of required args
	help string
	run  func(a *app, args []string) error
}

var EUsage = errors.New("usage")

var commands []command

func init() {
	commands = []command{
		{"search", nil, "rescan the scsi bus and look for the board", func(a *app, _ []string) error {
			_, err := a.c.Search()
			return err
		}},
		{"mode", nil, "print mode found by the last search", func(a *app, _ []string) error { a.c.Mode(); return nil }},
		{"busy", nil, "print busy state found by the last search", func(a *app, _ []string) error { a.c.Busy(); return nil }},
		{"devfile", nil, "print device node found by the last search", func(a *app, _ []string) error { a.c.DevFile(); return nil }},
		{"info", nil, "print vendor, model, and size of the device node", func(a *app, _ []string) error {
			_, err := a.c.Info()
			return err
		}},
		{"relay", []string{"path"}, "open the tty wired to the relay board", func(a *app, args []string) error {
			return a.c.SetRelayPath(args[0])
		}},
		{"lines", nil, "print the relay's DTR and RTS state", func(a *app, _ []string) error {
			_, err := a.c.RelayLines()
			return err
		}},
		{"factory", nil, "switch the board to factory mode and reset it", func(a *app, _ []string) error { return a.c.ToFactory() }},
		{"normal", nil, "switch the board to normal mode and reset it", func(a *app, _ []string) error { return a.c.ToNormal() }},
		{"reset", nil, "reset the board", func(a *app, _ []string) error { return a.c.Reset() }},
		{"download", nil, "run the installer to flash firmware (factory mode)", func(a *app, _ []string) error { return a.c.Flash() }},
		{"badblk", nil, "run the installer's bad block scan (factory mode)", func(a *app, _ []string) error { return a.c.ScanBadBlocks() }},
		{"watch", nil, "report disks appearing and disappearing until interrupted", func(a *app, _ []string) error { return a.watch() }},
		{"shell", nil, "read commands from stdin", func(a *app, _ []string) error { return a.shell() }},
		{"help", nil, "list commands", func(a *app, _ []string) error { printCommands(a.out); return nil }},
	}
}

func lookup(name string) (*command, bool) {
	for i := range commands {
		if commands[i].name == name {
			return &commands[i], true
		}
	}
	return nil, false
}

func printCommands(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for _, c := range commands {
		name := c.name
		for _, a := range c.args {
			name += " <" + a + ">"
		}
		fmt.Fprintf(tw, "  %s\t%s\n", name, c.help)
	}
	tw.Flush()
}

// hard returns true for errors that make further commands pointless.
func hard(err error) bool {
	return errors.Is(err, EUsage) ||
		errors.Is(err, board.EListDisks) ||
		errors.Is(err, board.EListBlockDevs) ||
		errors.Is(err, board.ENoBoard)
}

// runSeq runs each command in args, consuming its arguments. Failures the
// controller has already reported do not stop the sequence; hard failures and
// usage errors do.
func (a *app) runSeq(args []string) error {
	for len(args) > 0 {
		cmd, ok := lookup(args[0])
		if !ok {
			return fmt.Errorf("%w: unknown command %q, try help", EUsage, args[0])
		}
		if len(args)-1 < len(cmd.args) {
			return fmt.Errorf("%w: %s needs %d argument(s)", EUsage, cmd.name, len(cmd.args))
		}
		cargs := args[1 : 1+len(cmd.args)]
		args = args[1+len(cmd.args):]
		log.Logf("command: %s", strings.Join(append([]string{cmd.name}, cargs...), " "))
		if err := cmd.run(a, cargs); err != nil {
			if hard(err) {
				return err
			}
			log.Logf("%s: %s", cmd.name, err)
		}
	}
	return nil
}
