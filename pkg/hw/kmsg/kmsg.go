// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package kmsg writes to the kernel ring buffer, so that relay changes and
// searches show up in dmesg next to the kernel's own scsi attach/detach
// messages. Process must run as root.
package kmsg

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/yunshengtw/optr-jasmine/pkg/log"
	"github.com/yunshengtw/optr-jasmine/pkg/log/flags"
)

const DefaultPath = "/dev/kmsg"

type Priority uint

//Convert facility/severity into priority
func Prio(f Facility, s Severity) Priority {
	return Priority(f*8) + Priority(s)
}

//Facility values a la RFC5424. Incomplete list.
type Facility uint

const (
	FacUser   Facility = 1
	FacLocal0 Facility = 16
)

//Severity values a la RFC5424. Incomplete list.
type Severity uint

const (
	SevEmerg Severity = iota
	SevAlert
	SevCrit
	SevError
	SevWarn
	SevNotice
	SevInfo
)

// Writer prefixes each record with a priority and tag. Each Printf is one
// record.
type Writer struct {
	f   io.WriteCloser
	fac Facility
	pfx string
	mu  sync.Mutex
}

// Open opens path, normally DefaultPath, for writing records tagged pfx.
func Open(path string, f Facility, pfx string) (*Writer, error) {
	if f == 0 {
		return nil, fmt.Errorf("cannot use facility 0")
	}
	kf, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return nil, err
	}
	return &Writer{f: kf, fac: f, pfx: pfx}, nil
}

func (w *Writer) Printf(s Severity, f string, va ...interface{}) error {
	msg := fmt.Sprintf("<%d>", Prio(w.fac, s))
	if len(w.pfx) > 0 {
		msg += w.pfx + ": "
	}
	msg += fmt.Sprintf(f, va...)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return os.ErrClosed
	}
	_, err := fmt.Fprintln(w.f, msg)
	return err
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

// kmsgLog copies log entries to the kernel ring buffer.
type kmsgLog struct {
	w    *Writer
	next log.StackableLogger
}

var _ log.StackableLogger = (*kmsgLog)(nil)

const KmsgLogIdent = "kmsgLog"

// AddLog adds a logger to the stack which copies entries to the ring buffer
// at path, tagged with the log prefix. Earlier entries are not copied.
func AddLog(path string) error {
	pfx := log.GetPrefix()
	if pfx == "" {
		return log.EPrefix
	}
	w, err := Open(path, FacUser, pfx)
	if err != nil {
		return err
	}
	if err = log.AddLogger(&kmsgLog{w: w}, false); err != nil {
		w.Close()
	}
	return err
}

func (kl *kmsgLog) AddEntry(e log.LogEntry) {
	if e.Flags&flags.NotFile == 0 {
		sev := SevInfo
		switch {
		case e.Flags&flags.Fatal != 0:
			sev = SevCrit
		case e.Flags&flags.EndUser != 0:
			sev = SevNotice
		}
		//failure here is not worth reporting through the log being written
		_ = kl.w.Printf(sev, "%s", e.Text())
	}
	if kl.next != nil {
		kl.next.AddEntry(e)
	}
}

func (kl *kmsgLog) ForwardTo(sl log.StackableLogger) {
	if kl.next == nil || sl == nil {
		kl.next = sl
	} else {
		panic("next already set")
	}
}

func (*kmsgLog) Ident() string                { return KmsgLogIdent }
func (kl *kmsgLog) Next() log.StackableLogger { return kl.next }

func (kl *kmsgLog) Finalize() {
	kl.w.Close()
	if kl.next != nil {
		kl.next.Finalize()
	}
}
