// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package block

import (
	"fmt"
	"os"
	fp "path/filepath"
	"strconv"
	"strings"
)

// Written to a host's scan file: wildcard channel, target, and lun.
const RescanTrigger = "- - -"

// RescanError records a host whose scan file could not be written.
type RescanError struct {
	Path string
	Err  error
}

func (e *RescanError) Error() string { return fmt.Sprintf("Fail opening %s: %s", e.Path, e.Err) }
func (e *RescanError) Unwrap() error { return e.Err }

// ScsiHosts returns the names of entries in class/scsi_host, ex "host0".
func (s Sysfs) ScsiHosts() ([]string, error) {
	return readDirNames(fp.Join(s.Root, "class", "scsi_host"))
}

// Rescan asks every scsi host to re-enumerate its targets. A host that cannot
// be triggered does not stop the others; one RescanError is returned per
// failed host. Listing failure is returned as err.
func (s Sysfs) Rescan() (failed []*RescanError, err error) {
	hosts, err := s.ScsiHosts()
	if err != nil {
		return nil, err
	}
	for _, h := range hosts {
		scan := fp.Join(s.Root, "class", "scsi_host", h, "scan")
		werr := writeAttr(scan, RescanTrigger)
		if werr != nil {
			failed = append(failed, &RescanError{Path: scan, Err: werr})
		}
	}
	return failed, nil
}

// writeAttr writes val to an existing sysfs attribute; it never creates files.
func writeAttr(path, val string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	_, err = f.WriteString(val)
	cerr := f.Close()
	if err == nil {
		err = cerr
	}
	return err
}

// ScsiDisks returns the names of entries in class/scsi_disk, in H:C:T:L form
// such as "2:0:0:0", sorted by name.
func (s Sysfs) ScsiDisks() ([]string, error) {
	return readDirNames(fp.Join(s.Root, "class", "scsi_disk"))
}

func (s Sysfs) diskAttr(disk string, elem ...string) string {
	return fp.Join(append([]string{s.Root, "class", "scsi_disk", disk, "device"}, elem...)...)
}

// DiskModelPath is the path of the model attribute for a scsi disk.
func (s Sysfs) DiskModelPath(disk string) string { return s.diskAttr(disk, "model") }

// DiskModel returns the first line of the disk's model attribute. Trailing
// spaces are significant - the kernel pads the 16-byte inquiry field - so
// only the line terminator is removed.
func (s Sysfs) DiskModel(disk string) (string, error) {
	data, err := os.ReadFile(s.DiskModelPath(disk))
	if err != nil {
		return "", err
	}
	line := string(data)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	if line == "" {
		return "", fmt.Errorf("%s: empty", s.DiskModelPath(disk))
	}
	return line, nil
}

// DiskBusyPath is the path of the device_busy attribute for a scsi disk.
func (s Sysfs) DiskBusyPath(disk string) string { return s.diskAttr(disk, "device_busy") }

// DiskBusy reports whether the disk has commands outstanding. The attribute
// holds a count; nonzero is busy.
func (s Sysfs) DiskBusy(disk string) (bool, error) {
	data, err := os.ReadFile(s.DiskBusyPath(disk))
	if err != nil {
		return false, err
	}
	n, err := strconv.Atoi(strings.TrimRight(string(data), "\n"))
	if err != nil {
		return false, fmt.Errorf("%s: %w", s.DiskBusyPath(disk), err)
	}
	return n != 0, nil
}

// DiskBlockDevs returns the kernel names of block devices under the disk,
// ex ["sdb"].
func (s Sysfs) DiskBlockDevs(disk string) ([]string, error) {
	return readDirNames(s.diskAttr(disk, "block"))
}

func readDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
