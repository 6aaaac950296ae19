// Package main implements the go-cpg CLI (gcpg).
// It lowers C/C++ sources into a code property graph and exports it.
package main

import (
	"os"

	"github.com/l3aro/go-cpg/cmd/gcpg/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Version = version
	commands.RootCmd.SetVersionTemplate(`gcpg version {{.Version}}
`)

	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
