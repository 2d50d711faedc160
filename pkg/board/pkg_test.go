// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package board

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	fp "path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yunshengtw/optr-jasmine/pkg/hw/block"
	"github.com/yunshengtw/optr-jasmine/pkg/hw/ioctl"
	"github.com/yunshengtw/optr-jasmine/pkg/installer"
	"github.com/yunshengtw/optr-jasmine/pkg/log/testlog"
)

// records every line change; fails them all if fail is set
type fakeRelay struct {
	calls  []string
	bits   int
	fail   bool
	closed bool
}

func (f *fakeRelay) change(what string, bits int, set bool) error {
	if f.fail {
		return errors.New("inappropriate ioctl for device")
	}
	f.calls = append(f.calls, fmt.Sprintf("%s %s", what, Line(bits)))
	if set {
		f.bits |= bits
	} else {
		f.bits &^= bits
	}
	return nil
}

func (f *fakeRelay) SetBits(bits int) error   { return f.change("set", bits, true) }
func (f *fakeRelay) ClearBits(bits int) error { return f.change("clear", bits, false) }
func (f *fakeRelay) Bits() (int, error)       { return f.bits, nil }
func (f *fakeRelay) Close() error             { f.closed = true; return nil }

type harness struct {
	c      *Controller
	out    *bytes.Buffer
	sleeps []time.Duration
	opened []string
	relays map[string]*fakeRelay
	tlog   *testlog.TstLog
}

func newHarness(t *testing.T, sys block.Sysfs) *harness {
	h := &harness{
		out:    new(bytes.Buffer),
		relays: make(map[string]*fakeRelay),
		tlog:   testlog.NewTestLog(t, true),
	}
	h.c = New(sys, "/opt/jasmine/installer")
	h.c.Out = h.out
	h.c.Sleep = func(d time.Duration) { h.sleeps = append(h.sleeps, d) }
	h.c.open = func(path string) (LineController, error) {
		h.opened = append(h.opened, path)
		r, ok := h.relays[path]
		if !ok {
			return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
		}
		return r, nil
	}
	return h
}

func (h *harness) lines() []string {
	return strings.Split(strings.TrimSuffix(h.out.String(), "\n"), "\n")
}

func TestModeForModel(t *testing.T) {
	for _, td := range []struct {
		model string
		want  Mode
	}{
		{"YATAPDONG BAREFO", Factory},
		{"OpenSSD Jasmine ", Normal},
		{"OpenSSD Jasmine", ModeUnknown},
		{"YATAPDONG BAREFOOT", ModeUnknown},
		{"openssd jasmine ", ModeUnknown},
		{" YATAPDONG BAREFO", ModeUnknown},
		{"", ModeUnknown},
		{"Samsung SSD 860 ", ModeUnknown},
	} {
		if got := ModeForModel(td.model); got != td.want {
			t.Errorf("%q: want %s, got %s", td.model, td.want, got)
		}
	}
}

func TestReportsBeforeSearch(t *testing.T) {
	h := newHarness(t, block.FakeSysfs(t, nil))
	defer h.tlog.Freeze()
	if m := h.c.Mode(); m != ModeUnknown {
		t.Errorf("want unknown mode, got %s", m)
	}
	if b := h.c.Busy(); b != BusyUnknown {
		t.Errorf("want unknown busy, got %s", b)
	}
	if d := h.c.DevFile(); d != "" {
		t.Errorf("want no devfile, got %s", d)
	}
	want := "Unknown\nUnknown\nUnknown\n"
	if h.out.String() != want {
		t.Errorf("want %q, got %q", want, h.out.String())
	}
	if h.c.State().Found() {
		t.Error("found a board without searching")
	}
}

func TestSearch(t *testing.T) {
	for _, td := range []struct {
		name     string
		disks    []block.FakeDisk
		disk     string
		want     State
		problems []error
	}{
		{
			name:  "factory",
			disks: []block.FakeDisk{{Addr: "0:0:0:0", Model: "YATAPDONG BAREFO", Busy: "0", Blocks: []string{"sda"}}},
			disk:  "0:0:0:0",
			want:  State{Mode: Factory, Busy: Free, DevFile: "/dev/sda"},
		},
		{
			name:  "normal busy",
			disks: []block.FakeDisk{{Addr: "2:0:0:0", Model: "OpenSSD Jasmine ", Busy: "1", Blocks: []string{"sdb"}}},
			disk:  "2:0:0:0",
			want:  State{Mode: Normal, Busy: Busy, DevFile: "/dev/sdb"},
		},
		{
			name: "skips other disks",
			disks: []block.FakeDisk{
				{Addr: "0:0:0:0", Model: "Samsung SSD 860 ", Busy: "0", Blocks: []string{"sda"}},
				{Addr: "1:0:0:0", Model: "OpenSSD Jasmine", Busy: "0", Blocks: []string{"sdb"}},
				{Addr: "2:0:0:0", Model: "OpenSSD Jasmine ", Busy: "3", Blocks: []string{"sdc"}},
			},
			disk: "2:0:0:0",
			want: State{Mode: Normal, Busy: Busy, DevFile: "/dev/sdc"},
		},
		{
			name: "first match wins",
			disks: []block.FakeDisk{
				{Addr: "1:0:0:0", Model: "YATAPDONG BAREFO", Busy: "0", Blocks: []string{"sdb"}},
				{Addr: "2:0:0:0", Model: "OpenSSD Jasmine ", Busy: "1", Blocks: []string{"sdc"}},
			},
			disk: "1:0:0:0",
			want: State{Mode: Factory, Busy: Free, DevFile: "/dev/sdb"},
		},
		{
			name:     "no block devs",
			disks:    []block.FakeDisk{{Addr: "0:0:0:0", Model: "YATAPDONG BAREFO", Busy: "0"}},
			disk:     "0:0:0:0",
			want:     State{Mode: Factory, Busy: Free},
			problems: []error{ENoBlockDevs},
		},
		{
			name:     "multiple block devs",
			disks:    []block.FakeDisk{{Addr: "0:0:0:0", Model: "YATAPDONG BAREFO", Busy: "0", Blocks: []string{"sda", "sdb"}}},
			disk:     "0:0:0:0",
			want:     State{Mode: Factory, Busy: Free},
			problems: []error{EMultipleBlockDevs},
		},
		{
			name:     "busy unreadable",
			disks:    []block.FakeDisk{{Addr: "0:0:0:0", Model: "OpenSSD Jasmine ", Blocks: []string{"sda"}}},
			disk:     "0:0:0:0",
			want:     State{Mode: Normal, DevFile: "/dev/sda"},
			problems: []error{EBusyUnreadable},
		},
		{
			name: "model unreadable",
			disks: []block.FakeDisk{
				{Addr: "0:0:0:0", Model: block.NoModel, Busy: "0", Blocks: []string{"sda"}},
				{Addr: "1:0:0:0", Model: "OpenSSD Jasmine ", Busy: "0", Blocks: []string{"sdb"}},
			},
			disk:     "1:0:0:0",
			want:     State{Mode: Normal, Busy: Free, DevFile: "/dev/sdb"},
			problems: []error{EModelUnreadable},
		},
		{
			name:     "none",
			disks:    []block.FakeDisk{{Addr: "0:0:0:0", Model: "Samsung SSD 860 ", Busy: "0", Blocks: []string{"sda"}}},
			problems: []error{ENoBoard},
		},
		{
			name:     "no disks",
			problems: []error{ENoBoard},
		},
	} {
		t.Run(td.name, func(t *testing.T) {
			sys := block.FakeSysfs(t, []string{"host0", "host1"}, td.disks...)
			sys.Dev = "/dev"
			h := newHarness(t, sys)
			defer h.tlog.Freeze()

			res, err := h.c.Search()
			if err != nil {
				t.Fatalf("unexpected error %s", err)
			}
			if res.Disk != td.disk {
				t.Errorf("want disk %q, got %q", td.disk, res.Disk)
			}
			if res.State != td.want {
				t.Errorf("want %+v, got %+v", td.want, res.State)
			}
			if h.c.State() != td.want {
				t.Errorf("controller state: want %+v, got %+v", td.want, h.c.State())
			}
			if len(res.Problems) != len(td.problems) {
				t.Fatalf("want problems %v, got %v", td.problems, res.Problems)
			}
			for i, p := range td.problems {
				if !errors.Is(res.Problems[i], p) {
					t.Errorf("problem %d: want %s, got %s", i, p, res.Problems[i])
				}
				if !h.tlog.Contains(p.Error()) {
					t.Errorf("%s not logged:\n%s", p, h.tlog)
				}
			}
			if len(h.sleeps) != 1 || h.sleeps[0] != SettleDelay {
				t.Errorf("want one settle delay after rescan, got %v", h.sleeps)
			}
			for _, host := range []string{"host0", "host1"} {
				data, err := os.ReadFile(fp.Join(sys.Root, "class", "scsi_host", host, "scan"))
				if err != nil {
					t.Fatal(err)
				}
				if string(data) != block.RescanTrigger {
					t.Errorf("%s: want scan %q, got %q", host, block.RescanTrigger, data)
				}
			}
			if td.disk == "" {
				if h.out.Len() != 0 {
					t.Errorf("unexpected output %q", h.out.String())
				}
				return
			}
			devfile := td.want.DevFile
			if devfile == "" {
				devfile = "Unknown"
			}
			want := []string{td.want.Mode.String(), td.want.Busy.String(), devfile}
			if got := h.lines(); strings.Join(got, "|") != strings.Join(want, "|") {
				t.Errorf("want output %q, got %q", want, got)
			}
		})
	}
}

func TestSearchRescanFailure(t *testing.T) {
	sys := block.FakeSysfs(t, []string{"host0", "host1"}, block.FakeDisk{Addr: "0:0:0:0", Model: "YATAPDONG BAREFO", Busy: "0", Blocks: []string{"sda"}})
	scan0 := fp.Join(sys.Root, "class", "scsi_host", "host0", "scan")
	if err := os.Remove(scan0); err != nil {
		t.Fatal(err)
	}
	h := newHarness(t, sys)
	defer h.tlog.Freeze()

	res, err := h.c.Search()
	if err != nil {
		t.Fatalf("rescan failure should not stop the search: %s", err)
	}
	if len(res.Problems) != 1 || !errors.Is(res.Problems[0], ERescan) {
		t.Fatalf("want one ERescan, got %v", res.Problems)
	}
	var rerr *block.RescanError
	if !errors.As(res.Problems[0], &rerr) || rerr.Path != scan0 {
		t.Errorf("want RescanError for %s, got %v", scan0, res.Problems[0])
	}
	if !h.tlog.Contains("MSG:Fail opening " + scan0) {
		t.Errorf("rescan failure not reported:\n%s", h.tlog)
	}
	want := State{Mode: Factory, Busy: Free, DevFile: fp.Join(sys.Dev, "sda")}
	if h.c.State() != want {
		t.Errorf("want %+v, got %+v", want, h.c.State())
	}
	data, err := os.ReadFile(fp.Join(sys.Root, "class", "scsi_host", "host1", "scan"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != block.RescanTrigger {
		t.Errorf("host1 not rescanned, got %q", data)
	}
	if _, err := os.Stat(scan0); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("scan file was created: %v", err)
	}
}

func TestSearchNotFoundReports(t *testing.T) {
	sys := block.FakeSysfs(t, nil, block.FakeDisk{Addr: "0:0:0:0", Model: "Samsung SSD 860 ", Busy: "0", Blocks: []string{"sda"}})
	h := newHarness(t, sys)
	defer h.tlog.Freeze()
	if _, err := h.c.Search(); err != nil {
		t.Fatal(err)
	}
	h.c.Mode()
	h.c.Busy()
	h.c.DevFile()
	if h.out.String() != "Unknown\nUnknown\nUnknown\n" {
		t.Errorf("want 3x Unknown, got %q", h.out.String())
	}
}

func TestSearchStrict(t *testing.T) {
	h := newHarness(t, block.FakeSysfs(t, []string{"host0"}))
	defer h.tlog.Freeze()
	h.c.Strict = true
	res, err := h.c.Search()
	if !errors.Is(err, ENoBoard) {
		t.Errorf("want ENoBoard, got %v", err)
	}
	if len(res.Problems) != 0 {
		t.Errorf("want no soft problems, got %v", res.Problems)
	}
}

func TestSearchClearsState(t *testing.T) {
	sys := block.FakeSysfs(t, nil, block.FakeDisk{Addr: "0:0:0:0", Model: "YATAPDONG BAREFO", Busy: "0", Blocks: []string{"sda"}})
	h := newHarness(t, sys)
	defer h.tlog.Freeze()
	if _, err := h.c.Search(); err != nil {
		t.Fatal(err)
	}
	if !h.c.State().Found() {
		t.Fatal("board not found")
	}
	if err := os.RemoveAll(fp.Join(sys.Root, "class", "scsi_disk", "0:0:0:0")); err != nil {
		t.Fatal(err)
	}
	if _, err := h.c.Search(); err != nil {
		t.Fatal(err)
	}
	if h.c.State() != (State{}) {
		t.Errorf("stale state %+v", h.c.State())
	}
}

func TestSearchHardFailures(t *testing.T) {
	t.Run("block listing", func(t *testing.T) {
		sys := block.FakeSysfs(t, nil, block.FakeDisk{Addr: "0:0:0:0", Model: "YATAPDONG BAREFO", Busy: "1", NoBlkDir: true})
		h := newHarness(t, sys)
		defer h.tlog.Freeze()
		res, err := h.c.Search()
		if !errors.Is(err, EListBlockDevs) {
			t.Errorf("want EListBlockDevs, got %v", err)
		}
		if res.Disk != "0:0:0:0" {
			t.Errorf("want disk 0:0:0:0, got %q", res.Disk)
		}
		if h.c.State() != (State{}) {
			t.Errorf("want empty state, got %+v", h.c.State())
		}
		if h.out.Len() != 0 {
			t.Errorf("unexpected output %q", h.out.String())
		}
	})
	t.Run("disk listing", func(t *testing.T) {
		sys := block.Sysfs{Root: fp.Join(t.TempDir(), "nonexistent"), Dev: "/dev"}
		h := newHarness(t, sys)
		defer h.tlog.Freeze()
		_, err := h.c.Search()
		if !errors.Is(err, EListDisks) {
			t.Errorf("want EListDisks, got %v", err)
		}
	})
}

func TestControlRelayWithoutRelay(t *testing.T) {
	h := newHarness(t, block.FakeSysfs(t, nil))
	defer h.tlog.Freeze()
	err := h.c.ControlRelay(Assert, ResetLine)
	if !errors.Is(err, ENoRelay) {
		t.Errorf("want ENoRelay, got %v", err)
	}
	if !h.tlog.Contains("MSG:Please set relay file first") {
		t.Errorf("message missing:\n%s", h.tlog)
	}
	if len(h.sleeps) != 0 {
		t.Errorf("unexpected sleeps %v", h.sleeps)
	}
	if err := h.c.ToNormal(); !errors.Is(err, ENoRelay) {
		t.Errorf("want ENoRelay, got %v", err)
	}
	if _, err := h.c.RelayLines(); !errors.Is(err, ENoRelay) {
		t.Errorf("want ENoRelay, got %v", err)
	}
}

func TestModeSwitch(t *testing.T) {
	for _, td := range []struct {
		name string
		fn   func(*Controller) error
		want []string
		bits int
	}{
		{"factory", (*Controller).ToFactory, []string{"clear RTS", "set DTR", "clear DTR"}, 0},
		{"normal", (*Controller).ToNormal, []string{"set RTS", "set DTR", "clear DTR"}, ioctl.ModemRTS},
		{"reset", (*Controller).Reset, []string{"set DTR", "clear DTR"}, 0},
	} {
		t.Run(td.name, func(t *testing.T) {
			h := newHarness(t, block.FakeSysfs(t, nil))
			defer h.tlog.Freeze()
			r := &fakeRelay{}
			h.relays["/dev/ttyUSB0"] = r
			if err := h.c.SetRelayPath("/dev/ttyUSB0"); err != nil {
				t.Fatal(err)
			}
			if err := td.fn(h.c); err != nil {
				t.Fatal(err)
			}
			if strings.Join(r.calls, ",") != strings.Join(td.want, ",") {
				t.Errorf("want %v, got %v", td.want, r.calls)
			}
			if len(h.sleeps) != len(td.want) {
				t.Errorf("want %d settle delays, got %v", len(td.want), h.sleeps)
			}
			for _, s := range h.sleeps {
				if s != SettleDelay {
					t.Errorf("want delay %s, got %s", SettleDelay, s)
				}
			}
			if r.bits != td.bits {
				t.Errorf("want bits 0x%x, got 0x%x", td.bits, r.bits)
			}
		})
	}
}

func TestControlRelayFailure(t *testing.T) {
	h := newHarness(t, block.FakeSysfs(t, nil))
	defer h.tlog.Freeze()
	h.relays["/dev/ttyS0"] = &fakeRelay{fail: true}
	if err := h.c.SetRelayPath("/dev/ttyS0"); err != nil {
		t.Fatal(err)
	}
	err := h.c.ToFactory()
	if !errors.Is(err, ERelayControl) {
		t.Errorf("want ERelayControl, got %v", err)
	}
	if len(h.sleeps) != 0 {
		t.Errorf("want no delay after failed changes, got %v", h.sleeps)
	}
	if h.tlog.MsgCount != 3 {
		t.Errorf("want 3 messages, got %d:\n%s", h.tlog.MsgCount, h.tlog)
	}
}

func TestSetRelayPath(t *testing.T) {
	h := newHarness(t, block.FakeSysfs(t, nil))
	defer h.tlog.Freeze()
	first := &fakeRelay{}
	second := &fakeRelay{}
	h.relays["/dev/ttyUSB0"] = first
	h.relays["/dev/ttyUSB1"] = second

	if err := h.c.SetRelayPath("/dev/ttyUSB9"); !errors.Is(err, ERelayOpen) {
		t.Errorf("want ERelayOpen, got %v", err)
	}
	if h.c.RelayPath() != "" {
		t.Errorf("relay set after failure: %s", h.c.RelayPath())
	}
	if err := h.c.SetRelayPath("/dev/ttyUSB0"); err != nil {
		t.Fatal(err)
	}
	if err := h.c.SetRelayPath("/dev/ttyUSB9"); err == nil {
		t.Error("want error")
	}
	if h.c.RelayPath() != "/dev/ttyUSB0" || first.closed {
		t.Errorf("previous relay lost after failed open")
	}
	if err := h.c.SetRelayPath("/dev/ttyUSB1"); err != nil {
		t.Fatal(err)
	}
	if !first.closed {
		t.Error("replaced relay not closed")
	}
	if err := h.c.ControlRelay(Assert, BootLine); err != nil {
		t.Fatal(err)
	}
	if len(first.calls) != 0 || len(second.calls) != 1 {
		t.Errorf("wrong relay used: %v %v", first.calls, second.calls)
	}
	s, err := h.c.RelayLines()
	if err != nil {
		t.Fatal(err)
	}
	if s != "DTR=off RTS=on" {
		t.Errorf("want DTR=off RTS=on, got %s", s)
	}
}

func TestInstall(t *testing.T) {
	var cmds []*exec.Cmd
	installer.Run = func(cmd *exec.Cmd) error {
		cmds = append(cmds, cmd)
		return nil
	}
	defer func() { installer.Run = installer.DefaultRun }()

	sys := block.FakeSysfs(t, nil, block.FakeDisk{Addr: "0:0:0:0", Model: "YATAPDONG BAREFO", Busy: "0", Blocks: []string{"sdd"}})
	sys.Dev = "/dev"
	h := newHarness(t, sys)
	defer h.tlog.Freeze()

	if err := h.c.Flash(); !errors.Is(err, ENoDevFile) {
		t.Errorf("want ENoDevFile, got %v", err)
	}
	if len(cmds) != 0 {
		t.Fatalf("installer ran without a device")
	}
	if _, err := h.c.Search(); err != nil {
		t.Fatal(err)
	}
	if err := h.c.Flash(); err != nil {
		t.Error(err)
	}
	if err := h.c.ScanBadBlocks(); err != nil {
		t.Error(err)
	}
	want := []string{"./installer /dev/sdd 0", "./installer /dev/sdd 1"}
	if len(cmds) != len(want) {
		t.Fatalf("want %d runs, got %d", len(want), len(cmds))
	}
	for i, cmd := range cmds {
		if got := strings.Join(cmd.Args, " "); got != want[i] {
			t.Errorf("want %q, got %q", want[i], got)
		}
		if cmd.Dir != "/opt/jasmine/installer" {
			t.Errorf("want dir /opt/jasmine/installer, got %s", cmd.Dir)
		}
	}
}

func TestStateStrings(t *testing.T) {
	for _, td := range []struct {
		s    fmt.Stringer
		want string
	}{
		{ModeUnknown, "Unknown"},
		{Factory, "Factory"},
		{Normal, "Normal"},
		{Mode(9), "Unknown"},
		{BusyUnknown, "Unknown"},
		{Free, "Free"},
		{Busy, "Busy"},
		{Assert, "set"},
		{Deassert, "clear"},
		{ResetLine, "DTR"},
		{BootLine, "RTS"},
	} {
		if td.s.String() != td.want {
			t.Errorf("want %s, got %s", td.want, td.s)
		}
	}
}

func TestInfo(t *testing.T) {
	sys := block.FakeSysfs(t, nil, block.FakeDisk{Addr: "3:0:0:0", Model: "YATAPDONG BAREFO", Busy: "0", Blocks: []string{"sdq"}})
	h := newHarness(t, sys)
	defer h.tlog.Freeze()

	if _, err := h.c.Info(); !errors.Is(err, ENoDevFile) {
		t.Errorf("want ENoDevFile, got %v", err)
	}
	blkDev := fp.Join(sys.Root, "block", "sdq", "device")
	if err := os.MkdirAll(blkDev, 0755); err != nil {
		t.Fatal(err)
	}
	for f, content := range map[string]string{"model": "YATAPDONG BAREFO\n", "vendor": "INDILINX\n"} {
		if err := os.WriteFile(fp.Join(blkDev, f), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := h.c.Search(); err != nil {
		t.Fatal(err)
	}
	h.out.Reset()
	b, err := h.c.Info()
	if err != nil {
		t.Fatal(err)
	}
	//no device node in the fake dev dir, so no size
	want := fmt.Sprintf("Device %s: Vendor=INDILINX, Model=YATAPDONG BAREFO, Size=0, SectorSize=0\n", fp.Join(sys.Dev, "sdq"))
	if h.out.String() != want {
		t.Errorf("want %q, got %q", want, h.out.String())
	}
	if b.Vendor != "INDILINX" {
		t.Errorf("want vendor INDILINX, got %s", b.Vendor)
	}
	if !h.tlog.Contains("describing sdq") {
		t.Errorf("size failure not logged:\n%s", h.tlog)
	}
}
