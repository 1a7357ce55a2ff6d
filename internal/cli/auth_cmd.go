package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newLoginCmd(app *App) *cobra.Command {
	var user, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate against the configured server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Remote == nil {
				return fmt.Errorf("no server configured (set ZEITLOG_SERVER)")
			}
			if user == "" {
				user = app.Config.User
			}

			if password == "" {
				if !app.interactive() {
					return fmt.Errorf("no password given (use --password or a terminal)")
				}
				form := huh.NewForm(
					huh.NewGroup(
						huh.NewInput().
							Title(fmt.Sprintf("Password for %s", user)).
							EchoMode(huh.EchoModePassword).
							Value(&password),
					),
				).WithTheme(zeitHuhTheme()).WithShowHelp(false)
				if err := form.Run(); err != nil {
					return err
				}
			}

			if err := app.Remote.Login(context.Background(), user, password); err != nil {
				return err
			}
			fmt.Printf("Logged in as %s\n", user)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "User name (default from config)")
	cmd.Flags().StringVar(&password, "password", "", "Password (prompted when omitted)")

	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the server session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Remote == nil {
				return fmt.Errorf("no server configured (set ZEITLOG_SERVER)")
			}
			if err := app.Remote.Logout(context.Background()); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}
