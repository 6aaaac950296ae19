// Package commands provides the CLI commands for the go-cpg tool.
package commands

import (
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "gcpg",
	Short: "go-cpg - C/C++ code property graph frontend",
	Long: `go-cpg lowers C/C++ sources into a code property graph: declarations,
statements and expressions with AST containment, initializer data flow and
use-to-declaration references.

Commands:
  graph       Lower one source file and print the graph
  export      Lower a file or directory tree into a SQLite database
  init        Initialize gcpg configuration interactively

Use "gcpg [command] --help" for more information about a command.`,
}

// Execute runs the root command; child commands are added in init
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.AddCommand(graphCmd)
	RootCmd.AddCommand(exportCmd)
	RootCmd.AddCommand(initCmd)
}
