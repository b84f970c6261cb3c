// Package cmd implements the staffguard command line.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. Each call returns independent
// commands so tests can execute them in isolation.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "staffguard",
		Short: "Session and account security for the library staff admin app",
		Long: `staffguard runs the staff authentication API and provides the
administrative commands around it: schema migrations, account creation,
unlocking locked accounts and inspecting active sessions.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newUnlockCmd(),
		newLockoutCmd(),
		newSessionsCmd(),
		newAccountCmd(),
		newHashPasswordCmd(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
