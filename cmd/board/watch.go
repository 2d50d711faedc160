// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package main

import (
	"fmt"
	"os"
	"os/signal"
	fp "path/filepath"
	"strings"

	"github.com/yunshengtw/optr-jasmine/pkg/log"

	"github.com/rjeczalik/notify"
	"golang.org/x/sys/unix"
)

// watch reports scsi disk nodes appearing in and vanishing from the dev dir,
// such as the board re-enumerating after a mode switch, until interrupted.
func (a *app) watch() error {
	dir := a.c.Sys.Dev
	events := make(chan notify.EventInfo, 16)
	if err := notify.Watch(dir, events, notify.Create, notify.Remove); err != nil {
		log.Msgf("watching %s: %s", dir, err)
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	defer notify.Stop(events)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, unix.SIGTERM)
	defer signal.Stop(sig)

	log.Msgf("watching %s for disks, interrupt to stop", dir)
	watchLoop(events, sig)
	return nil
}

func watchLoop(events <-chan notify.EventInfo, stop <-chan os.Signal) {
	for {
		select {
		case ei := <-events:
			name := fp.Base(ei.Path())
			if !isDisk(name) {
				continue
			}
			switch {
			case ei.Event()&notify.Create != 0:
				log.Msgf("%s appeared", fp.Join(fp.Dir(ei.Path()), name))
			case ei.Event()&notify.Remove != 0:
				log.Msgf("%s removed", fp.Join(fp.Dir(ei.Path()), name))
			}
		case s := <-stop:
			log.Logf("watch: got %s", s)
			return
		}
	}
}

// isDisk returns true for whole scsi disks, ex sdb but not sdb1.
func isDisk(name string) bool {
	if !strings.HasPrefix(name, "sd") || len(name) < 3 {
		return false
	}
	last := name[len(name)-1]
	return last >= 'a' && last <= 'z'
}
