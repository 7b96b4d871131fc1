package commands

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/medetech-go/internal/app"
	"github.com/doeshing/medetech-go/internal/application/account"
	"github.com/doeshing/medetech-go/internal/infrastructure/cli/helpers"
)

// NewAccountCommand creates the account command with all subcommands
func NewAccountCommand(container *app.Container) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage the local account",
	}

	accountCmd.AddCommand(
		newAccountRegisterCommand(container),
		newAccountLoginCommand(container),
		newAccountLogoutCommand(container),
		newAccountWhoamiCommand(container),
		newAccountClearDataCommand(container),
	)

	return accountCmd
}

// newAccountRegisterCommand creates the 'account register' subcommand
func newAccountRegisterCommand(container *app.Container) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create or replace the local account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := accountService(container)
			if err != nil {
				return err
			}
			if password == "" {
				password = helpers.PromptForSecret(cmd.OutOrStdout(), bufio.NewReader(cmd.InOrStdin()), "Password")
			}
			user, err := svc.Register(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s\n", user.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

// newAccountLoginCommand creates the 'account login' subcommand
func newAccountLoginCommand(container *app.Container) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in to the local account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := accountService(container)
			if err != nil {
				return err
			}
			if password == "" {
				password = helpers.PromptForSecret(cmd.OutOrStdout(), bufio.NewReader(cmd.InOrStdin()), "Password")
			}
			session, err := svc.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", session.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")
	return cmd
}

// newAccountLogoutCommand creates the 'account logout' subcommand
func newAccountLogoutCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := accountService(container)
			if err != nil {
				return err
			}
			svc.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

// newAccountWhoamiCommand creates the 'account whoami' subcommand
func newAccountWhoamiCommand(container *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := accountService(container)
			if err != nil {
				return err
			}
			session, ok := svc.Session(cmd.Context())
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), MsgNotSignedIn)
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), session.Username)
			return nil
		},
	}
}

// newAccountClearDataCommand creates the 'account clear-data' subcommand
func newAccountClearDataCommand(container *app.Container) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear-data",
		Short: "Delete the account, profile and scan history from this device",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := accountService(container)
			if err != nil {
				return err
			}
			if !yes {
				reader := bufio.NewReader(cmd.InOrStdin())
				if !helpers.PromptForConfirmation(cmd.OutOrStdout(), reader, "Delete all local data?") {
					fmt.Fprintln(cmd.OutOrStdout(), MsgClearCancelled)
					return nil
				}
			}
			if err := svc.ClearAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All local data deleted")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation")
	return cmd
}

func accountService(container *app.Container) (*account.Service, error) {
	if container.AccountService == nil {
		return nil, errors.New(ErrAccountUnavailable)
	}
	return container.AccountService, nil
}
