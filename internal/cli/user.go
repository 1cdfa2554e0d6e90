package cli

import (
	"os"

	"github.com/spf13/cobra"

	"trading-journal/internal/accounts"
)

// addUserCommands adds account commands.
func addUserCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Account management",
		Long:  "Register the account journal entries belong to and view its profile.",
	}

	cmd.AddCommand(newUserRegisterCmd(app))
	cmd.AddCommand(newUserShowCmd(app))

	rootCmd.AddCommand(cmd)
}

func newUserRegisterCmd(app *App) *cobra.Command {
	var in accounts.RegisterInput

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create an account. The password is also used for HTTP basic auth
when the journal is served with 'journal serve'.

The password may be given with --password or the JOURNAL_PASSWORD
environment variable.`,
		Example: `  journal user register --name "Ana" --email ana@example.com --password s3cret-pass`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			if in.Password == "" {
				in.Password = os.Getenv("JOURNAL_PASSWORD")
			}

			svc, err := app.Services(ctx)
			if err != nil {
				return err
			}
			user, err := svc.Accounts.Register(ctx, in)
			if err != nil {
				output.Error("Registration failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(user)
			}
			output.Success("✓ Account created for %s", user.Email)
			output.Dim("ID: %s", user.ID)
			if app.Config.CLI.User == "" {
				output.Dim("Tip: set cli.user = %q in %s to skip --user", user.Email, "config.toml")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&in.Password, "password", "", "password")
	cmd.MarkFlagRequired("email")

	return cmd
}

func newUserShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current account",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			user, err := app.CurrentUser(ctx, cmd)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(user)
			}
			output.Bold("%s", user.Email)
			output.Printf("  Name:      %s\n", user.Name)
			if user.Username != "" {
				output.Printf("  Username:  %s\n", user.Username)
			}
			output.Printf("  Currency:  %s\n", user.DefaultCurrency)
			output.Printf("  Public:    %v\n", user.IsPublic)
			output.Printf("  Joined:    %s\n", FormatDate(user.CreatedAt, app.Location()))
			return nil
		},
	}
}
