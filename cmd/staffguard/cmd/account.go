package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/MrEthical07/staffguard"
	"github.com/MrEthical07/staffguard/password"
	"github.com/spf13/cobra"
)

func newAccountCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "account",
		Short: "Manage staff accounts",
	}
	c.AddCommand(newAccountCreateCmd())
	return c
}

func newAccountCreateCmd() *cobra.Command {
	var identifier, role string

	c := &cobra.Command{
		Use:   "create",
		Short: "Create a staff account; the password is read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := readSecret(cmd.InOrStdin())
			if err != nil {
				return err
			}

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.engine.RoleQuota(role); err != nil {
				if errors.Is(err, staffguard.ErrUnknownRole) {
					return fmt.Errorf("role %q has no session quota; configure ROLE_QUOTAS first", role)
				}
				return err
			}

			hasher, err := password.NewMulti()
			if err != nil {
				return err
			}
			hash, err := hasher.Hash(secret)
			if err != nil {
				return err
			}

			rec, err := a.store.CreateAccount(cmd.Context(), staffguard.AccountRecord{
				Identifier:   identifier,
				PasswordHash: hash,
				Role:         role,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s account %s (%s)\n", rec.Role, rec.Identifier, rec.ID)
			return nil
		},
	}

	c.Flags().StringVar(&identifier, "identifier", "", "login identifier (required)")
	c.Flags().StringVar(&role, "role", "staff", "account role")
	_ = c.MarkFlagRequired("identifier")
	return c
}

func newHashPasswordCmd() *cobra.Command {
	var useBcrypt bool

	c := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := readSecret(cmd.InOrStdin())
			if err != nil {
				return err
			}

			var hasher password.Hasher
			if useBcrypt {
				hasher, err = password.NewBcrypt(password.DefaultBcryptCost)
			} else {
				hasher, err = password.NewMulti()
			}
			if err != nil {
				return err
			}
			hash, err := hasher.Hash(secret)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}

	c.Flags().BoolVar(&useBcrypt, "bcrypt", false, "emit a bcrypt hash instead of argon2id")
	return c
}

// readSecret returns the first line of r without its line ending.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password on stdin")
	}
	return line, nil
}
