// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

//go:build mage
// +build mage

/*
 build file for mage build system
 list tgts with
go run magerunner.go -d build -w . -l

 build tgt with
go run magerunner.go -d build -w . tgt
*/

package main

import (
	"context"
	"fmt"
	"os"
	fp "path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
	"github.com/magefile/mage/target"

	"github.com/yunshengtw/optr-jasmine/build/paths"
)

func BuildAll(ctx context.Context) error {
	fmt.Println("mage running")
	mg.CtxDeps(ctx, Bins.Board, Bins.Util, Schema)
	return nil
}

type Bins mg.Namespace

// board binary, release build - no serial tracing, no test helpers
func (Bins) Board(ctx context.Context) error {
	mg.CtxDeps(ctx, workdir)
	apps, err := paths.Pkglist(paths.BoardCmds...)
	if err != nil {
		return err
	}
	env := map[string]string{"CGO_ENABLED": "0"}
	return buildeach(env, []string{"release"}, apps...)
}

// board binary with serial tracing available via -trace
func (Bins) Debug(ctx context.Context) error {
	mg.CtxDeps(ctx, workdir)
	env := map[string]string{"CGO_ENABLED": "0"}
	out := fp.Join(paths.WorkDir, "board-debug")
	return build(env, "-o", out, paths.BoardCmds[0])
}

// Misc utility binaries, ex board-schema. Output to the work dir.
func (Bins) Util(ctx context.Context) error {
	mg.CtxDeps(ctx, workdir)
	apps, err := paths.Pkglist(paths.UtilCmds...)
	if err != nil {
		return err
	}
	return buildeach(nil, nil, apps...)
}

// regenerate the config file's json schema, if pkg/config changed
func Schema(ctx context.Context) error {
	mg.CtxDeps(ctx, Bins.Util)
	rebuild, err := target.Dir(paths.SchemaFile, fp.Join(paths.RepoRoot, "pkg", "config"))
	if err != nil {
		return err
	}
	if !rebuild {
		fmt.Println("schema up to date")
		return nil
	}
	out, err := sh.Output(fp.Join(paths.WorkDir, "board-schema"))
	if err != nil {
		return err
	}
	return os.WriteFile(paths.SchemaFile, []byte(out+"\n"), 0644)
}

//build go code with desired flags
var build func(env map[string]string, args ...string) error

func init() {
	var args []string
	for _, a := range []string{
		"build",
		"-trimpath",
		"-ldflags", "-X 'main.buildId=${BUILD_INFO}' -s -w",
	} {
		args = append(args, os.ExpandEnv(a))
	}
	build = RunWCmd(nil, "go", args...)
}

//sh.RunCmd modified to call RunWith
func RunWCmd(env map[string]string, cmd string, args ...string) func(env2 map[string]string, args ...string) error {
	return func(env2 map[string]string, args2 ...string) error {
		var cenv map[string]string
		if env == nil {
			cenv = env2
		} else {
			cenv = env
			for k, v := range env2 {
				cenv[k] = v
			}
		}
		return sh.RunWith(cenv, cmd, append(args, args2...)...)
	}
}

//like build, but outputs to work dir
func buildeach(env map[string]string, tags []string, args ...string) error {
	for k, v := range env {
		fmt.Printf("%s=%s\n", k, v)
	}
	for _, a := range args {
		var cmdArgs []string
		if len(tags) > 0 {
			cmdArgs = []string{"-tags", strings.Join(tags, ",")}
		}
		out := fp.Join(paths.WorkDir, fp.Base(a))
		cmdArgs = append(cmdArgs, "-o", out, a)
		err := build(env, cmdArgs...)
		if err != nil {
			return err
		}
	}
	return nil
}

func workdir() {
	//ignore errors
	_ = os.MkdirAll(paths.WorkDir, 0755)
}
