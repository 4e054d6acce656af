// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Addclimits adds "#include <climits>" to the files listed in ulimits.txt.

It reads ulimits.txt from the current directory. Each line of it names a file
to process. If a file does not contain the include directive yet, the first
blank line of the file is replaced with

	#include <climits>  //added by Zhou

and the file is rewritten. Files that already contain the directive are left
untouched, so running the tool again is safe.

Processing stops at the first error, for example a missing file or a file
without any blank line. Files listed before it have already been rewritten.

Blank lines in the manifest are ignored rather than treated as paths, and a
path listed more than once is processed only once.

Pass -dry to only print the files that would change.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/includer/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
