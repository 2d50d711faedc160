// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package ioctl

import (
	"os"
	"testing"
)

func TestModemString(t *testing.T) {
	for _, td := range []struct {
		bits int
		want string
	}{
		{0, "DTR=off RTS=off"},
		{ModemDTR, "DTR=on RTS=off"},
		{ModemRTS, "DTR=off RTS=on"},
		{ModemDTR | ModemRTS | 0x100, "DTR=on RTS=on"},
	} {
		got := ModemString(td.bits)
		if got != td.want {
			t.Errorf("0x%x: want %s, got %s", td.bits, td.want, got)
		}
	}
}

//modem ioctls on a regular file must fail rather than panic or succeed
func TestTiocmNotTty(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "notatty")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := TiocmBis(f, ModemRTS); err == nil {
		t.Errorf("TIOCMBIS on regular file: want error")
	}
	if err := TiocmBic(f, ModemDTR); err == nil {
		t.Errorf("TIOCMBIC on regular file: want error")
	}
	if _, err := TiocmGet(f); err == nil {
		t.Errorf("TIOCMGET on regular file: want error")
	}
}
