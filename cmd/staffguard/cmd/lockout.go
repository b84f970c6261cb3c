package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newUnlockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlock <account-id>",
		Short: "Clear the lock and failure count of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.engine.UnlockAccount(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "account %s unlocked\n", args[0])
			return nil
		},
	}
}

func newLockoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lockout <account-id>",
		Short: "Show the lockout state of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.engine.LockoutStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if st.Locked {
				fmt.Fprintf(out, "account %s: LOCKED since %s after %d failures\n",
					st.AccountID, st.LockedAt.UTC().Format(time.RFC3339), st.Failures)
				return nil
			}
			fmt.Fprintf(out, "account %s: unlocked, %d failures, %d attempts remaining\n",
				st.AccountID, st.Failures, st.Remaining)
			return nil
		},
	}
}
