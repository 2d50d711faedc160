// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Board-schema prints the json schema for the board controller's config
// file, github.com/yunshengtw/optr-jasmine/pkg/config.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/yunshengtw/optr-jasmine/pkg/config"
)

func main() {
	check := flag.String("check", "", "validate the given config file rather than print the schema")
	flag.Parse()
	if *check != "" {
		if _, err := config.Load(*check); err != nil {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s: ok\n", *check)
		return
	}
	data, err := config.SchemaJSON()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s\n", data)
}
