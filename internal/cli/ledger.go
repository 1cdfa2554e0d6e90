package cli

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/models"
	"trading-journal/internal/portfolio"
)

// addLedgerCommands adds balance ledger and net worth commands.
func addLedgerCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Platform balance ledger",
		Long:  "Record deposits, withdrawals and transfers between platforms.",
	}

	cmd.AddCommand(newLedgerRecordCmd(app, models.TxDeposit, "deposit <platform-id> <amount>", "Record a deposit"))
	cmd.AddCommand(newLedgerRecordCmd(app, models.TxWithdraw, "withdraw <platform-id> <amount>", "Record a withdrawal"))
	cmd.AddCommand(newLedgerRecordCmd(app, models.TxTransfer, "transfer <from-platform-id> <to-platform-id> <amount>", "Record a transfer between platforms"))
	cmd.AddCommand(newLedgerListCmd(app))
	cmd.AddCommand(newLedgerRemoveCmd(app))

	rootCmd.AddCommand(cmd)
	rootCmd.AddCommand(newNetWorthCmd(app))
}

func newLedgerRecordCmd(app *App, txType models.TransactionType, use, short string) *cobra.Command {
	var cur, description, date string

	nargs := 2
	if txType == models.TxTransfer {
		nargs = 3
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			in := portfolio.TransactionInput{
				PlatformID:  args[0],
				Type:        txType,
				Currency:    models.Currency(strings.ToUpper(cur)),
				Description: description,
			}
			if txType == models.TxTransfer {
				in.ToPlatformID = args[1]
			}
			amount, err := decimal.NewFromString(args[nargs-1])
			if err != nil {
				return apperrors.NewValidationError("amount", args[nargs-1], "must be a number")
			}
			in.Amount = amount
			if date != "" {
				at, err := parseTime("date", date, app.Location(), time.Now())
				if err != nil {
					return err
				}
				in.Date = &at
			}

			user, err := app.CurrentUser(ctx, cmd)
			if err != nil {
				return err
			}
			svc, err := app.Services(ctx)
			if err != nil {
				return err
			}

			tx, err := svc.Ledger.Record(ctx, user.ID, in)
			if err != nil {
				output.Error("Failed to record %s: %v", txType, err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(tx)
			}
			output.Success("✓ Recorded %s of %s", tx.Type, FormatMoneyDecimal(tx.Amount, tx.Currency))
			output.Dim("ID: %s", tx.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&cur, "currency", "", "amount currency (default: the source platform's)")
	cmd.Flags().StringVar(&description, "description", "", "note for the transaction")
	cmd.Flags().StringVar(&date, "date", "", "transaction date (default now)")

	return cmd
}

func newLedgerListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List balance transactions",
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

			txs, err := svc.Ledger.List(ctx, user.ID)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(txs)
			}
			if len(txs) == 0 {
				output.Info("No transactions recorded.")
				return nil
			}

			table := NewTable(output, "ID", "Date", "Type", "Platform", "Amount", "Description")
			for _, tx := range txs {
				platform := tx.PlatformName
				if tx.Type == models.TxTransfer {
					platform += " → " + tx.ToPlatformName
				}
				table.AddRow(
					tx.ID,
					FormatDate(tx.Date, app.Location()),
					string(tx.Type),
					platform,
					FormatMoneyDecimal(tx.Amount, tx.Currency),
					TruncateString(tx.Description, 30),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newLedgerRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <transaction-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a balance transaction",
		Args:    cobra.ExactArgs(1),
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

			if err := svc.Ledger.Delete(ctx, user.ID, args[0]); err != nil {
				output.Error("Failed to remove transaction: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": args[0]})
			}
			output.Success("✓ Transaction %s removed", args[0])
			return nil
		},
	}
}

func newNetWorthCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "networth",
		Short: "Show balances and net worth",
		Long:  "Show every platform balance in its own currency and the total in USD and IDR.",
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

			nw, err := svc.Ledger.NetWorth(ctx, user.ID)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(nw)
			}

			output.Bold("Net Worth")
			output.Println()
			if len(nw.Balances) > 0 {
				table := NewTable(output, "Platform", "Currency", "Balance")
				for _, b := range nw.Balances {
					table.AddRow(b.PlatformName, string(b.Currency), FormatMoneyDecimal(b.Balance, b.Currency))
				}
				table.Render()
				output.Println()
			}

			output.Printf("  Total USD: %s\n", FormatMoneyDecimal(nw.TotalUSD, models.USD))
			output.Printf("  Total IDR: %s\n", FormatMoneyDecimal(nw.TotalIDR, models.IDR))
			output.Dim("Rates: 1 USD = %s IDR (%s)", decimal.NewFromFloat(nw.Rates.Rate(models.IDR)).StringFixed(2), nw.RatesSource)
			return nil
		},
	}
}
