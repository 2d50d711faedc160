// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package installer runs the Jasmine installer, which talks to a board in
// factory mode over its block device to write firmware or scan for bad blocks.
//
// The installer expects to be run from its own directory, where it finds the
// firmware images. That is done with exec.Cmd.Dir, so this process' working
// directory never changes.
package installer

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	fp "path/filepath"

	"github.com/yunshengtw/optr-jasmine/pkg/log"
)

// Name of the installer executable within its directory.
const Name = "installer"

// Op is the installer's second argument.
type Op string

const (
	Flash        Op = "0"
	BadBlockScan Op = "1"
)

func (o Op) String() string {
	switch o {
	case Flash:
		return "flash"
	case BadBlockScan:
		return "bad block scan"
	}
	return fmt.Sprintf("op %q", string(o))
}

var EStart = errors.New("Cannot run installer")

type RunFunc func(cmd *exec.Cmd) error

// Run executes the installer. Tests may replace it to capture the command
// rather than running anything.
var Run RunFunc = DefaultRun

// DefaultRun runs cmd attached to this process' stdin, stdout, and stderr;
// the installer is interactive on failure.
func DefaultRun(cmd *exec.Cmd) error {
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// DefaultDir is the installer dir next to the dir holding this executable,
// ex /opt/jasmine/bin/board -> /opt/jasmine/installer.
func DefaultDir() string {
	exe, err := os.Executable()
	if err != nil {
		log.Logf("locating executable: %s", err)
		return fp.Join("..", Name)
	}
	return fp.Join(fp.Dir(exe), "..", Name)
}

// Command returns the command for op on dev, to be run in dir.
func Command(dir, dev string, op Op) *exec.Cmd {
	cmd := exec.Command("."+string(fp.Separator)+Name, dev, string(op))
	cmd.Dir = dir
	return cmd
}

// Invoke runs the installer for op on dev. Its exit status is logged but not
// treated as failure; the installer reports its own errors. An error is
// returned only if it could not be started.
func Invoke(dir, dev string, op Op) error {
	cmd := Command(dir, dev, op)
	log.Logf("%s: running %v in %s", op, cmd.Args, dir)
	err := Run(cmd)
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		log.Logf("%s: installer finished", op)
	case errors.As(err, &exitErr):
		log.Logf("%s: installer exited with status %d", op, exitErr.ExitCode())
	default:
		log.Msgf("%s in %s: %s", EStart, dir, err)
		return fmt.Errorf("%w: %w", EStart, err)
	}
	return nil
}
