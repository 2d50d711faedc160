// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package ioctl

import "golang.org/x/sys/unix"

//BLKSSZGET
func BlkGetSectorSize(f FDer) (uint64, error) {
	var s int32
	err := IoctlInt(f.Fd(), unix.BLKSSZGET, &s)
	return uint64(s), err
}

//BLKGETSIZE64
func BlkGetSize64(f FDer) (uint64, error) {
	return Ioctl1(f.Fd(), unix.BLKGETSIZE64)
}
