// Package cli is the esmigrate command line.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

const (
	versionString     = "1.0.0"
	defaultConfigPath = "./esmigrate.toml"
)

type rootOptions struct {
	configPath  string
	libraryRoot string
	verbose     bool
}

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand(stdout, stderr)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "esmigrate",
		Short: "Convert a Closure library from goog.provide/goog.module to ES6 modules",
		Long: `esmigrate rewrites a Closure-style library in place.

Commands:
  convert   Merge known cycles, then rewrite every declaring file
  scan      Print the namespace model without changing anything
  merge     Only run the cycle breaker
  journal   Show recorded conversion runs`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogging(stderr, opts.verbose)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "path to config file")
	root.PersistentFlags().StringVar(&opts.libraryRoot, "root", "", "library root, overrides library_root")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newConvertCommand(opts))
	root.AddCommand(newScanCommand(opts))
	root.AddCommand(newMergeCommand(opts))
	root.AddCommand(newJournalCommand(opts))
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "esmigrate v%s\n", versionString)
		},
	}
}
