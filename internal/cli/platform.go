package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"trading-journal/internal/models"
	"trading-journal/internal/portfolio"
)

// addPlatformCommands adds platform management commands.
func addPlatformCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:     "platform",
		Aliases: []string{"platforms"},
		Short:   "Trading platform management",
		Long:    "Manage the exchanges, brokers and wallets trades and balances are recorded against.",
	}

	cmd.AddCommand(newPlatformAddCmd(app))
	cmd.AddCommand(newPlatformListCmd(app))
	cmd.AddCommand(newPlatformRemoveCmd(app))

	rootCmd.AddCommand(cmd)
}

func newPlatformAddCmd(app *App) *cobra.Command {
	var platformType, cur string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a platform",
		Example: `  journal platform add Binance --type exchange
  journal platform add Indodax --type exchange --currency IDR`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			user, err := app.CurrentUser(ctx, cmd)
			if err != nil {
				return err
			}
			svc, err := app.Services(ctx)
			if err != nil {
				return err
			}

			p, err := svc.Platforms.Create(ctx, user.ID, portfolio.PlatformInput{
				Name:     args[0],
				Type:     models.PlatformType(strings.ToLower(platformType)),
				Currency: models.Currency(cur),
			})
			if err != nil {
				output.Error("Failed to add platform: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(p)
			}
			output.Success("✓ Platform %s added (%s, %s)", p.Name, p.Type, p.Currency)
			output.Dim("ID: %s", p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&platformType, "type", "exchange", "platform type: exchange, broker or wallet")
	cmd.Flags().StringVar(&cur, "currency", "", "account currency (default USD)")

	return cmd
}

func newPlatformListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List platforms",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			user, err := app.CurrentUser(ctx, cmd)
			if err != nil {
				return err
			}
			svc, err := app.Services(ctx)
			if err != nil {
				return err
			}

			platforms, err := svc.Platforms.List(ctx, user.ID)
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(platforms)
			}
			if len(platforms) == 0 {
				output.Info("No platforms yet.")
				output.Dim("Tip: journal platform add <name> --type exchange")
				return nil
			}

			table := NewTable(output, "ID", "Name", "Type", "Currency", "Added")
			for _, p := range platforms {
				table.AddRow(p.ID, p.Name, string(p.Type), string(p.Currency), FormatDate(p.CreatedAt, app.Location()))
			}
			table.Render()
			return nil
		},
	}
}

func newPlatformRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <platform-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a platform",
		Long: `Remove a platform. Trades recorded against it are kept and reported
under "Unknown"; its balance transactions no longer count toward net worth.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			user, err := app.CurrentUser(ctx, cmd)
			if err != nil {
				return err
			}
			svc, err := app.Services(ctx)
			if err != nil {
				return err
			}

			if err := svc.Platforms.Delete(ctx, user.ID, args[0]); err != nil {
				output.Error("Failed to remove platform: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": args[0]})
			}
			output.Success("✓ Platform %s removed", args[0])
			return nil
		},
	}
}
