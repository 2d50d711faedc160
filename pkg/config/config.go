// Copyright (C) 2015-2020 the Gprovision Authors. All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.
//
// SPDX-License-Identifier: BSD-3-Clause
//

// Package config loads the board controller's optional json config file.
// Files are checked against a schema reflected from Config before being
// decoded, so misspelled keys and wrongly-typed values are rejected rather
// than ignored.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	schemagen "github.com/alecthomas/jsonschema"
	"github.com/santhosh-tekuri/jsonschema"

	"github.com/yunshengtw/optr-jasmine/pkg/hw/block"
	"github.com/yunshengtw/optr-jasmine/pkg/installer"
)

// Config mirrors the command line flags of cmd/board; a flag given on the
// command line takes precedence over the value here.
type Config struct {
	SysRoot      string `json:",omitempty" jsonschema:"description=sysfs mount point. Default /sys"`
	DevDir       string `json:",omitempty" jsonschema:"description=dir holding block device nodes. Default /dev"`
	InstallerDir string `json:",omitempty" jsonschema:"description=dir containing the installer executable and firmware"`
	Relay        string `json:",omitempty" jsonschema:"description=tty wired to the relay board; opened at startup"`
	StrictSearch bool   `json:",omitempty" jsonschema:"description=treat a search that finds no board as fatal"`
	LogDir       string `json:",omitempty" jsonschema:"description=if set a timestamped log file is written here"`
	Trace        bool   `json:",omitempty" jsonschema:"description=trace serial port ioctls"`
	Kmsg         bool   `json:",omitempty" jsonschema:"description=copy log entries to the kernel ring buffer. Requires root"`
}

var EInvalid = errors.New("invalid config")

const schemaURL = "board-config.json"

// Schema reflects the json schema for Config.
func Schema() *schemagen.Schema { return schemagen.Reflect(&Config{}) }

// SchemaJSON returns the indented schema.
func SchemaJSON() ([]byte, error) { return json.MarshalIndent(Schema(), "", "  ") }

func compile() (*jsonschema.Schema, error) {
	data, err := SchemaJSON()
	if err != nil {
		return nil, err
	}
	c := jsonschema.NewCompiler()
	if err = c.AddResource(schemaURL, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
}

// Validate checks data against Schema().
func Validate(data []byte) error {
	s, err := compile()
	if err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}
	if err = s.Validate(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: %w", EInvalid, err)
	}
	return nil
}

// Load reads, validates, and decodes the file at path. Defaults are not
// applied; see FillDefaults.
func Load(path string) (cfg Config, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if err = Validate(data); err != nil {
		err = fmt.Errorf("%s: %w", path, err)
		return
	}
	err = json.Unmarshal(data, &cfg)
	return
}

// FillDefaults sets any empty location to its default.
func (c *Config) FillDefaults() {
	if c.SysRoot == "" {
		c.SysRoot = block.Default.Root
	}
	if c.DevDir == "" {
		c.DevDir = block.Default.Dev
	}
	if c.InstallerDir == "" {
		c.InstallerDir = installer.DefaultDir()
	}
}

// Sysfs returns the sysfs and dev locations to search.
func (c Config) Sysfs() block.Sysfs { return block.Sysfs{Root: c.SysRoot, Dev: c.DevDir} }
