// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//Package block contains functions dealing with linux block devices and the
//scsi disks beneath them, as seen through sysfs.
package block

import (
	"fmt"
	"os"
	fp "path/filepath"
	"strings"
	"syscall"

	"github.com/yunshengtw/optr-jasmine/pkg/hw/ioctl"
)

// Sysfs locates sysfs and /dev. Tests point Root and Dev at fake trees.
type Sysfs struct {
	Root string // normally /sys
	Dev  string // normally /dev
}

var Default = Sysfs{Root: "/sys", Dev: "/dev"}

type BlockDev struct {
	Name       string
	Size       uint64
	SectorSize uint64
	Model      string
	Vendor     string
}

func (b BlockDev) String() string {
	return fmt.Sprintf("Device %s: Vendor=%s, Model=%s, Size=%d, SectorSize=%d", b.Name, b.Vendor, b.Model, b.Size, b.SectorSize)
}

// DevPath returns the device node for a kernel name like "sda".
func (s Sysfs) DevPath(name string) string { return fp.Join(s.Dev, name) }

// Describe collects what is known about the block device with the given
// kernel name. Model and vendor come from sysfs, sizes from ioctls on the
// device node. The first error is returned along with whatever was gathered.
func (s Sysfs) Describe(name string) (b BlockDev, err error) {
	b.Name = s.DevPath(name)
	var errs []error
	if b.Model, err = s.ReadModel(name); err != nil {
		errs = append(errs, err)
	}
	if b.Vendor, err = s.ReadVendor(name); err != nil {
		errs = append(errs, err)
	}
	if b.Size, err = ReadSize(b.Name); err != nil {
		errs = append(errs, err)
	}
	if b.SectorSize, err = ReadSectorSize(b.Name); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return b, errs[0]
	}
	return b, nil
}

//use ioctl to find dev size
func ReadSize(dev string) (uint64, error) { return devIoctl(dev, ioctl.BlkGetSize64) }

//logical sector size, usually 512
func ReadSectorSize(dev string) (uint64, error) { return devIoctl(dev, ioctl.BlkGetSectorSize) }

func devIoctl(dev string, get func(ioctl.FDer) (uint64, error)) (val uint64, err error) {
	fd, err := os.OpenFile(dev, syscall.O_DIRECT|os.O_RDONLY, 0600)
	if err != nil {
		return
	}
	defer fd.Close()
	val, err = get(fd)
	if err != nil {
		val = 0
	}
	return
}

//given a kernel name like 'sda', find device model string
//for sata, 'model' file includes vendor as well
func (s Sysfs) ReadModel(dev string) (m string, err error) {
	//ls -ld /sys/block/sda
	// /sys/block/sda -> /sys/devices/pci0000:00/0000:00:11.0/ata1/host0/target0:0:0/0:0:0:0/block/sda
	// model string in   /sys/devices/pci0000:00/0000:00:11.0/ata1/host0/target0:0:0/0:0:0:0/model
	f, err := os.ReadFile(fp.Join(s.Root, "block", dev, "device", "model"))
	if err != nil {
		return
	}
	m = strings.TrimSpace(string(f))
	return
}

//for sata, always returns ATA
//for usb, returns actual vendor
func (s Sysfs) ReadVendor(dev string) (v string, err error) {
	f, err := os.ReadFile(fp.Join(s.Root, "block", dev, "device", "vendor"))
	if err != nil {
		return
	}
	v = strings.TrimSpace(string(f))
	return
}
