package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newSessionsCmd() *cobra.Command {
	var revoke bool

	c := &cobra.Command{
		Use:   "sessions <account-id>",
		Short: "List the active sessions of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			sessions, err := a.engine.ListSessions(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintf(out, "no active sessions for %s\n", args[0])
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SESSION\tCREATED\tLAST ACTIVITY\tEXPIRES\tIP\tUSER AGENT")
			for _, s := range sessions {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					s.SessionID,
					s.CreatedAt.UTC().Format(time.RFC3339),
					s.LastActivityAt.UTC().Format(time.RFC3339),
					s.ExpiresAt.UTC().Format(time.RFC3339),
					s.IPAddress,
					s.UserAgent,
				)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if !revoke {
				return nil
			}
			for _, s := range sessions {
				if err := a.engine.TerminateSession(ctx, s.SessionID); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "revoked %d sessions\n", len(sessions))
			return nil
		},
	}

	c.Flags().BoolVar(&revoke, "revoke", false, "terminate every listed session")
	return c
}
