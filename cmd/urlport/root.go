// Package main provides the entry point for the urlport CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for urlport.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "urlport",
		Short: "Migrate hardcoded URLs to dynamic base-URL expressions",
		Long: `urlport audits a source tree for hardcoded absolute URLs and rewrites
the ones pointing at your own domains into dynamic expressions such as
BASE_URL . '/path' or safe_url('/path').

Every migration is verified twice before anything is written, every
modified file is archived with a checksummed backup first, and any run
can be rolled back in full or file by file.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewRollbackCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
