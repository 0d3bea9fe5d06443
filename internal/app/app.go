// Package app assembles the sipstreak command line: the HTTP server and the
// database maintenance commands.
package app

import (
	"context"

	"github.com/spf13/cobra"
)

// Run executes the sipstreak CLI with args.
func Run(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "sipstreak",
		Short:         "SipStreak hydration tracking backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newServeCommand(), newMigrateCommand(), newSeedCommand())
	return root
}
