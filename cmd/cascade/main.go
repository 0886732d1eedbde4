// cascade is the command-line front end of the rule engine: compile and
// validate rules, resolve scopes, serve them over HTTP, and inspect the
// evaluation journal.
//
// Usage:
//
//	cascade eval <a> <b> <c> <d> <e> <f> [--rules dir] [-e rule]
//	cascade serve [--addr :8000] [--db journal.db]
//	cascade test <scenarios-dir> [--update]
//	cascade trace --db journal.db
//	cascade replay --db journal.db
package main

import (
	"fmt"
	"os"

	"github.com/roach88/cascade/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
