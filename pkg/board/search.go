// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package board

import (
	"github.com/yunshengtw/optr-jasmine/pkg/log"
)

// Result describes one Search.
type Result struct {
	Disk     string  //scsi address of the board, ex "2:0:0:0"; empty if not found
	State    State   //also available via Controller.State() until the next Search
	Problems []error //reported conditions that did not stop the search
}

// Search rescans the scsi bus and looks for a Jasmine board. The first disk
// whose model matches FactoryModel or NormalModel is used; disks after it are
// not examined. On success the mode, busy state, and device node are printed.
//
// Whatever happens, the previous state is discarded. Conditions that let the
// search continue (an unreadable attribute, zero or several block devices,
// no board) are logged and collected in Result.Problems, and the state holds
// whatever was learned. A returned error is a hard failure - the disk or
// block listing could not be read, or no board was found while c.Strict is
// set - and the state is left empty.
func (c *Controller) Search() (res Result, err error) {
	c.state = State{}
	res.Problems = c.rescan()

	disks, lerr := c.Sys.ScsiDisks()
	if lerr != nil {
		log.Msgf("%s: %s", EListDisks, lerr)
		return res, wrap(EListDisks, lerr)
	}
	for _, d := range disks {
		model, merr := c.Sys.DiskModel(d)
		if merr != nil {
			log.Msgf("Fail opening %s", c.Sys.DiskModelPath(d))
			log.Logf("%s: %s", EModelUnreadable, merr)
			res.Problems = append(res.Problems, wrap(EModelUnreadable, merr))
			continue
		}
		mode := ModeForModel(model)
		if mode == ModeUnknown {
			log.Logf("scsi disk %s: model %q is not a Jasmine board", d, model)
			continue
		}
		log.Logf("scsi disk %s: found board in %s mode", d, mode)
		res.Disk = d
		st, problems, rerr := c.resolve(d, mode)
		res.Problems = append(res.Problems, problems...)
		if rerr != nil {
			return res, rerr
		}
		c.state = st
		res.State = st
		c.Mode()
		c.Busy()
		c.DevFile()
		return res, nil
	}

	log.Msg(ENoBoard.Error())
	if c.Strict {
		return res, ENoBoard
	}
	res.Problems = append(res.Problems, ENoBoard)
	return res, nil
}

// rescan triggers a bus rescan and waits for it to settle.
func (c *Controller) rescan() (problems []error) {
	failed, err := c.Sys.Rescan()
	if err != nil {
		log.Msgf("%s: %s", ERescan, err)
		problems = append(problems, wrap(ERescan, err))
	}
	for _, f := range failed {
		log.Msgf("Fail opening %s", f.Path)
		log.Logf("%s", f.Err)
		problems = append(problems, wrap(ERescan, f))
	}
	c.Sleep(SettleDelay)
	return
}

// resolve reads the busy state and block device of a matched disk.
func (c *Controller) resolve(disk string, mode Mode) (st State, problems []error, err error) {
	st.Mode = mode

	busy, berr := c.Sys.DiskBusy(disk)
	switch {
	case berr != nil:
		log.Msgf("Fail opening %s", c.Sys.DiskBusyPath(disk))
		log.Logf("%s: %s", EBusyUnreadable, berr)
		problems = append(problems, wrap(EBusyUnreadable, berr))
	case busy:
		st.Busy = Busy
	default:
		st.Busy = Free
	}

	blks, lerr := c.Sys.DiskBlockDevs(disk)
	if lerr != nil {
		log.Msgf("%s: %s", EListBlockDevs, lerr)
		return State{}, problems, wrap(EListBlockDevs, lerr)
	}
	switch len(blks) {
	case 0:
		log.Msg(ENoBlockDevs.Error())
		problems = append(problems, ENoBlockDevs)
	case 1:
		st.DevFile = c.Sys.DevPath(blks[0])
	default:
		log.Msg(EMultipleBlockDevs.Error())
		log.Logf("block devices under %s: %v", disk, blks)
		problems = append(problems, EMultipleBlockDevs)
	}
	return st, problems, nil
}
