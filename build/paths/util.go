// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package paths contains locations used by mage. NOTE: to avoid chicken-and-
// egg problems with mage, its code cannot directly or indirectly import any
// packages with build constraints mage does not set.
package paths

import (
	"os"
	fp "path/filepath"
)

// Find repo root - from JASMINE_ROOT env var, if set. Otherwise search dir and
// its parents for go.mod and choose the first dir found.
func repoRoot() (string, error) {
	rr := os.Getenv("JASMINE_ROOT")
	if len(rr) > 0 {
		return rr, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	wd, err = findRoot(wd)
	if err != nil {
		return "", err
	}
	err = os.Setenv("JASMINE_ROOT", wd)
	if err != nil {
		return "", err
	}
	return wd, nil
}

func findRoot(dir string) (string, error) {
	for {
		if _, err := os.Stat(fp.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := fp.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// Get the working dir location from env JASMINE_WORKDIR if set, otherwise use
// a dir adjacent to repo root, so that 'go test ./...' from the root does not
// descend into build output.
func workDir() (string, error) {
	wd := os.Getenv("JASMINE_WORKDIR")
	if len(wd) > 0 {
		return wd, nil
	}
	wd = fp.Join(fp.Dir(RepoRoot), fp.Base(RepoRoot)+"_work")
	err := os.Setenv("JASMINE_WORKDIR", wd)
	if err != nil {
		return "", err
	}
	return wd, nil
}
