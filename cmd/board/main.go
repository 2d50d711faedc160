// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Board controls an OpenSSD Jasmine board: it finds the board on the scsi bus,
// reports its mode, switches it between factory and normal mode through a
// relay wired to a serial port's DTR and RTS lines, and runs the installer to
// flash it or scan it for bad blocks.
//
// Commands run in the order given, against the same board state:
//
//	board -relay /dev/ttyUSB0 factory search download normal
//
// A search runs at startup unless -nosearch is given. See 'board help' for
// the list of commands, and board-schema for the config file format.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/yunshengtw/optr-jasmine/pkg/board"
	"github.com/yunshengtw/optr-jasmine/pkg/config"
	"github.com/yunshengtw/optr-jasmine/pkg/hw/kmsg"
	"github.com/yunshengtw/optr-jasmine/pkg/hw/serial"
	"github.com/yunshengtw/optr-jasmine/pkg/log"
	"github.com/yunshengtw/optr-jasmine/pkg/log/flags"

	"golang.org/x/term"
)

//in any binary with main.buildId string, it is set at compile time to $BUILD_INFO
var buildId string

type settings struct {
	cfg      config.Config
	noSearch bool
	version  bool
	verbose  bool
}

// parseArgs handles flags and the config file, returning the remaining args
// as commands. Flags given explicitly override the config file.
func parseArgs(args []string, errOut io.Writer) (s settings, cmds []string, err error) {
	fs := flag.NewFlagSet("board", flag.ContinueOnError)
	fs.SetOutput(errOut)
	cfgFile := fs.String("c", "", "json config file (see board-schema)")
	var fc config.Config
	fs.StringVar(&fc.Relay, "relay", "", "tty wired to the relay board, opened at startup")
	fs.StringVar(&fc.InstallerDir, "installer", "", "dir containing the installer (default <exe dir>/../installer)")
	fs.StringVar(&fc.SysRoot, "sys", "", "sysfs mount point (default /sys)")
	fs.StringVar(&fc.DevDir, "dev", "", "dir holding block device nodes (default /dev)")
	fs.StringVar(&fc.LogDir, "log", "", "write a timestamped log file in this dir")
	fs.BoolVar(&fc.StrictSearch, "strict", false, "exit with an error if search does not find a board")
	fs.BoolVar(&fc.Trace, "trace", false, "trace serial port ioctls to stderr")
	fs.BoolVar(&fc.Kmsg, "kmsg", false, "copy log entries to the kernel ring buffer (requires root)")
	fs.BoolVar(&s.noSearch, "nosearch", false, "do not search for the board at startup")
	fs.BoolVar(&s.version, "v", false, "print build id and exit")
	fs.BoolVar(&s.verbose, "verbose", false, "log everything to stderr, with timestamps")
	fs.Usage = func() {
		fmt.Fprintf(errOut, "Usage: board [flags] [command [args]]...\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(errOut, "\nCommands:\n")
		printCommands(errOut)
	}
	if err = fs.Parse(args); err != nil {
		return
	}
	if *cfgFile != "" {
		if s.cfg, err = config.Load(*cfgFile); err != nil {
			return
		}
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "relay":
			s.cfg.Relay = fc.Relay
		case "installer":
			s.cfg.InstallerDir = fc.InstallerDir
		case "sys":
			s.cfg.SysRoot = fc.SysRoot
		case "dev":
			s.cfg.DevDir = fc.DevDir
		case "log":
			s.cfg.LogDir = fc.LogDir
		case "strict":
			s.cfg.StrictSearch = fc.StrictSearch
		case "trace":
			s.cfg.Trace = fc.Trace
		case "kmsg":
			s.cfg.Kmsg = fc.Kmsg
		}
	})
	s.cfg.FillDefaults()
	cmds = fs.Args()
	return
}

func setupLog(s settings) {
	log.SetPrefix("board")
	if s.verbose {
		log.AddConsoleLog(flags.NA)
	} else if err := log.AddPlainConsoleLog(flags.EndUser, os.Stderr); err != nil {
		log.AddConsoleLog(flags.EndUser)
	}
	if s.cfg.LogDir != "" {
		name, err := log.AddFileLog(s.cfg.LogDir)
		if err != nil {
			log.Msgf("cannot log to %s: %s", s.cfg.LogDir, err)
		} else {
			log.Logf("logging to %s", name)
		}
	}
	if s.cfg.Kmsg {
		if err := kmsg.AddLog(kmsg.DefaultPath); err != nil {
			log.Msgf("cannot log to %s: %s", kmsg.DefaultPath, err)
		}
	}
	log.FlushMemLog()
}

func main() {
	s, cmds, err := parseArgs(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(2)
	}
	if s.version {
		fmt.Println(buildId)
		return
	}
	setupLog(s)
	log.Logf("buildId: %s", buildId)
	log.Logf("config: %+v", s.cfg)
	if s.cfg.Trace {
		serial.Debug(true, false)
	}

	c := board.New(s.cfg.Sysfs(), s.cfg.InstallerDir)
	c.Strict = s.cfg.StrictSearch
	a := &app{
		c:      c,
		in:     os.Stdin,
		out:    os.Stdout,
		isTerm: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
	}
	if s.cfg.Relay != "" {
		//failure is reported; relay commands will complain later
		_ = c.SetRelayPath(s.cfg.Relay)
	}
	if !s.noSearch {
		cmds = append([]string{"search"}, cmds...)
	}
	if err := a.runSeq(cmds); err != nil {
		log.Fatalf("aborting: %s", err)
	}
	log.Finalize()
}
