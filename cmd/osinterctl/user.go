package main

import (
	"fmt"

	"github.com/spf13/cobra"

	useruc "github.com/osinter/osinter/internal/usecase/user"
)

func newUserCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	var email, code string
	add := &cobra.Command{
		Use:   "add <username> <password>",
		Short: "Create an account with its default collections",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := e.app.Users.Signup(cmd.Context(), useruc.SignupParams{
				Username: args[0],
				Password: args[1],
				Email:    email,
				Code:     code,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", u)
			return nil
		},
	}
	add.Flags().StringVar(&email, "email", "", "account email, stored hashed")
	add.Flags().StringVar(&code, "signup-code", "", "signup code, required when codes are configured")

	remove := &cobra.Command{
		Use:   "remove <username>",
		Short: "Delete an account and the feeds and collections it owns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.app.Users.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}

	passwd := &cobra.Command{
		Use:   "passwd <username> <password>",
		Short: "Replace an account's password",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := e.app.Users.ResetPassword(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password changed for %s\n", u)
			return nil
		},
	}

	cmd.AddCommand(add, remove, passwd)
	return cmd
}
