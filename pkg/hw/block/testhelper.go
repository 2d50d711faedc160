// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//go:build !release
// +build !release

package block

import (
	"os"
	fp "path/filepath"
	"testing"
)

// FakeDisk describes one scsi disk in a fake sysfs tree.
type FakeDisk struct {
	Addr     string   //H:C:T:L, ex "2:0:0:0"
	Model    string   //written verbatim plus "\n"; NoModel to omit the file
	Busy     string   //device_busy content without newline; "" to omit the file
	Blocks   []string //children of device/block
	NoBlkDir bool     //omit device/block entirely
}

const NoModel = "\x00"

// FakeSysfs builds a sysfs-like tree under t.TempDir(), with one scsi host
// per entry in hosts and the given disks. The dev dir is also created.
func FakeSysfs(t testing.TB, hosts []string, disks ...FakeDisk) Sysfs {
	t.Helper()
	root := t.TempDir()
	s := Sysfs{Root: fp.Join(root, "sys"), Dev: fp.Join(root, "dev")}
	mkdir := func(elem ...string) string {
		d := fp.Join(elem...)
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatal(err)
		}
		return d
	}
	write := func(name, content string) {
		if err := os.WriteFile(name, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	mkdir(s.Dev)
	mkdir(s.Root, "class", "scsi_disk")
	mkdir(s.Root, "class", "scsi_host")
	for _, h := range hosts {
		write(fp.Join(mkdir(s.Root, "class", "scsi_host", h), "scan"), "")
	}
	for _, d := range disks {
		dev := mkdir(s.Root, "class", "scsi_disk", d.Addr, "device")
		if d.Model != NoModel {
			write(fp.Join(dev, "model"), d.Model+"\n")
		}
		if d.Busy != "" {
			write(fp.Join(dev, "device_busy"), d.Busy+"\n")
		}
		if d.NoBlkDir {
			continue
		}
		blk := mkdir(dev, "block")
		for _, b := range d.Blocks {
			mkdir(blk, b)
		}
	}
	return s
}
