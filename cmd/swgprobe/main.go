// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/alecthomas/kong"

	"github.com/tcgsed/go-swg-core/pkg/cmdutil"
)

const (
	programName = "swgprobe"
	programDesc = "TCG Storage discovery and session probe"
)

func main() {
	ctx := kong.Parse(&cli,
		kong.Name(programName),
		kong.Description(programDesc),
		kong.UsageOnError(),
		kong.NamedMapper("accessiblefile", cmdutil.AccessibleFileMapper()),
		kong.Resolvers(cmdutil.ResolvePassword(false)))
	err := ctx.Run(&context{})
	ctx.FatalIfErrorf(err)
}
