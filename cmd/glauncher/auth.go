package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glauncher/glauncher/internal/auth"
)

func newAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage Minecraft/Microsoft accounts",
	}
	cmd.AddCommand(newAuthLoginCommand(), newAuthLogoutCommand(), newAuthStatusCommand(), newAuthOfflineAddCommand())
	return cmd
}

func newAuthLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in with a Microsoft account via device code",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadContext()
			if err != nil {
				return err
			}

			acc, err := app.accounts.Login(cmd.Context(), func(ticket *auth.DeviceCodeTicket) {
				fmt.Printf("Go to %s and enter code: %s\n", ticket.VerificationURI, ticket.UserCode)
			})
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			fmt.Printf("Signed in as %s (%s)\n", acc.Name, acc.UUID)
			return nil
		},
	}
}

func newAuthLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove all stored accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadContext()
			if err != nil {
				return err
			}
			if err := app.accounts.LogoutAll(); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func newAuthStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active account",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadContext()
			if err != nil {
				return err
			}
			acc, ok := app.accounts.ActiveAccount()
			if !ok {
				fmt.Println("No active account.")
				return nil
			}
			fmt.Printf("%s (%s) [%s]\n", acc.Name, acc.UUID, acc.Type)
			return nil
		},
	}
}

func newAuthOfflineAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "offline-add <username>",
		Short: "Add and activate an offline account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadContext()
			if err != nil {
				return err
			}
			acc, err := app.accounts.AddOffline(args[0])
			if err != nil {
				return fmt.Errorf("adding offline account: %w", err)
			}
			fmt.Printf("Added offline account %s (%s)\n", acc.Name, acc.UUID)
			return nil
		},
	}
}
