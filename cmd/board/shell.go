// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

package main

import (
	"bufio"
	"fmt"

	"github.com/yunshengtw/optr-jasmine/pkg/log"

	"github.com/google/shlex"
)

const prompt = "board> "

// shell reads command lines until eof or exit. Each line may hold several
// commands, split like a shell would; nothing is fatal here.
func (a *app) shell() error {
	interactive := a.isTerm != nil && a.isTerm()
	sc := bufio.NewScanner(a.in)
	for {
		if interactive {
			fmt.Fprint(a.out, prompt)
		}
		if !sc.Scan() {
			break
		}
		words, err := shlex.Split(sc.Text())
		if err != nil {
			log.Msgf("%s", err)
			continue
		}
		if len(words) == 0 {
			continue
		}
		switch words[0] {
		case "exit", "quit":
			return nil
		case "shell":
			log.Msg("already in shell")
			continue
		}
		if err := a.runSeq(words); err != nil {
			log.Msgf("%s", err)
		}
	}
	if interactive {
		fmt.Fprintln(a.out)
	}
	return sc.Err()
}
