// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package log is a stackable logging mechanism. Events go to one or more sinks:
// the console, a file, or memory.
//
// By default, events are retained in memory so they can be re-played into
// sinks added later on - for example, a file log whose location is only known
// once config has been read.
//
// Msgf is for operator-facing diagnostics ("No block devices found"); Logf is
// for technical detail (paths, ioctl values, argv).
package log

import (
	"github.com/yunshengtw/optr-jasmine/pkg/log/flags"
)

var logPrefix string

// Sets the log prefix, which is used in the file name. Must be set before
// calling AddFileLog()
func SetPrefix(pfx string) {
	logPrefix = pfx
}

// Gets the log prefix
func GetPrefix() string { return logPrefix }

// Msgf is for messages suitable for display to the operator. Short,
// non-technical.
func Msgf(f string, va ...interface{}) { FlaggedLogf(flags.EndUser, f, va...) }

// See Msgf
func Msg(message string) { Msgf("%s", message) }

// Logf is for use with more technical, or more trivial, messages.
func Logf(f string, va ...interface{}) { FlaggedLogf(flags.NA, f, va...) }

// See Logf
func Log(message string) { Logf("%s", message) }
