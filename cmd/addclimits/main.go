// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"go.astrophena.name/includer/cli"
	"go.astrophena.name/includer/directive"
	"go.astrophena.name/includer/internal/tool"
)

const manifest = "ulimits.txt"

func newApp() *tool.App { return tool.New(manifest, directive.Climits) }

func main() { cli.Main(newApp()) }
