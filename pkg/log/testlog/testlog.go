// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package testlog hijacks the output of github.com/yunshengtw/optr-jasmine/pkg/log
// for the duration of a test. By default, entries print through t.Logf; they
// can be stored in a buffer instead, for analysis as part of the test.
package testlog

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/yunshengtw/optr-jasmine/pkg/log"
	"github.com/yunshengtw/optr-jasmine/pkg/log/flags"
)

// Conforms to log.StackableLogger. Constructed via NewTestLog().
type TstLog struct {
	t             *testing.T
	Buf           *bytes.Buffer //if non-nil, entries go here rather than t.Logf
	MsgCount      int           //number of log.Msgf() entries
	LogCount      int           //number of log.Logf() entries
	FatalCount    int           //number of log.Fatalf() entries
	FatalIsNotErr bool          //if true, do not call t.Errorf() for Fatalf()
	freeze        bool
	mu            sync.Mutex
}

// Returns a new TstLog, installed as the only logger. If bufferLog is true,
// entries are stored in Buf rather than passed to t.Logf. log.Fatalf() does
// not terminate while a TstLog is installed. Call Freeze() when done, usually
// via defer. Do not share one TstLog between tests.
func NewTestLog(t *testing.T, bufferLog bool) *TstLog {
	t.Helper()
	tlog := &TstLog{t: t}
	if bufferLog {
		tlog.Buf = new(bytes.Buffer)
	}
	log.NewLogStack(tlog)
	log.SetFatalAction(log.FailAction{Terminator: func() {}})
	return tlog
}

var _ log.StackableLogger = (*TstLog)(nil)

func (tlog *TstLog) AddEntry(e log.LogEntry) {
	tlog.mu.Lock()
	defer tlog.mu.Unlock()
	if tlog.freeze {
		return
	}
	tlog.t.Helper()
	var pfx string
	switch {
	case e.Flags&flags.Fatal != 0:
		tlog.FatalCount++
		pfx = ">>FATAL()<< "
	case e.Flags&flags.EndUser != 0:
		tlog.MsgCount++
		pfx = "MSG:"
	default:
		tlog.LogCount++
		pfx = "LOG:"
	}
	line := pfx + e.Text()
	if tlog.Buf != nil {
		fmt.Fprintln(tlog.Buf, line)
	} else {
		tlog.t.Log(line)
	}
	if e.Flags&flags.Fatal != 0 && !tlog.FatalIsNotErr {
		tlog.t.Errorf("unexpected fatal: %s", e.Text())
	}
}

const TstLogIdent = "tstLog"

func (*TstLog) Ident() string                   { return TstLogIdent }
func (*TstLog) Next() log.StackableLogger       { return nil }
func (*TstLog) Finalize()                       {}
func (*TstLog) ForwardTo(_ log.StackableLogger) {}

// Contains returns true if any buffered line contains s. Always false when not
// buffering.
func (tlog *TstLog) Contains(s string) bool {
	tlog.mu.Lock()
	defer tlog.mu.Unlock()
	if tlog.Buf == nil {
		return false
	}
	return strings.Contains(tlog.Buf.String(), s)
}

// String returns the buffered output.
func (tlog *TstLog) String() string {
	tlog.mu.Lock()
	defer tlog.mu.Unlock()
	if tlog.Buf == nil {
		return ""
	}
	return tlog.Buf.String()
}

// Call at end of test; restores the default log stack and fatal action.
func (tlog *TstLog) Freeze() {
	tlog.mu.Lock()
	if tlog.freeze {
		tlog.mu.Unlock()
		return
	}
	tlog.freeze = true
	tlog.mu.Unlock()
	log.DefaultLogStack()
	log.SetFatalAction(log.DefaultFatal)
}
