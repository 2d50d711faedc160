// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// not for production use

//go:build !release
// +build !release

package paths

import (
	"os/exec"
	fp "path/filepath"
	"strings"

	"github.com/magefile/mage/sh"

	"github.com/yunshengtw/optr-jasmine/pkg/log"
)

//paths shared by jobs, as well as path-related utilty functions

var (
	RepoRoot, ImportPath, WorkDir string

	// GoDirs - patterns for go test and go vet
	GoDirs []string

	// commands that ship next to the installer, and utilities that do not
	BoardCmds, UtilCmds []string

	// json schema for the config file, regenerated by mage Schema
	SchemaFile string
)

func init() {
	var err error
	RepoRoot, err = repoRoot()
	if err != nil {
		log.Logf("Cannot determine repo root.")
	}
	WorkDir, err = workDir()
	if err != nil {
		log.Logf("Cannot determine workdir.")
	}

	cmd := exec.Command("go", "list", "-m")
	cmd.Dir = RepoRoot
	out, err := cmd.Output()
	if err != nil {
		log.Logf("Cannot determine import path.")
	}
	ImportPath = strings.TrimSpace(string(out))

	GoDirs = []string{
		ImportPath + "/cmd/...",
		ImportPath + "/pkg/...",
		ImportPath + "/build/paths",
	}
	BoardCmds = []string{ImportPath + "/cmd/board"}
	UtilCmds = []string{ImportPath + "/cmd/util/..."}
	SchemaFile = fp.Join(WorkDir, "board-config.schema.json")
}

//expands pattern via go list - note that pattern isn't a shell glob
func Pkglist(patterns ...string) ([]string, error) {
	args := []string{"list"}
	args = append(args, patterns...)
	out, err := sh.Output("go", args...)
	if err != nil {
		return nil, err
	}
	return strings.Split(out, "\n"), nil
}
