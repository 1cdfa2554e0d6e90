package cli

import (
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"trading-journal/internal/currency"
	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/models"
)

// addCurrencyCommands adds exchange rate commands.
func addCurrencyCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "currency",
		Short: "Exchange rates",
		Long:  "Show exchange rates and convert amounts. Rates are quoted per USD.",
	}

	cmd.AddCommand(newCurrencyRatesCmd(app))
	cmd.AddCommand(newCurrencyConvertCmd(app))

	rootCmd.AddCommand(cmd)
}

func newCurrencyRatesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rates",
		Short: "Show current exchange rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			svc, err := app.Services(ctx)
			if err != nil {
				return err
			}

			snap := svc.Currency.Rates(ctx)
			if output.IsJSON() {
				return output.JSON(snap)
			}

			codes := make([]string, 0, len(snap.Rates))
			for code := range snap.Rates {
				codes = append(codes, string(code))
			}
			sort.Strings(codes)

			output.Bold("Exchange Rates (base %s)", snap.Base)
			table := NewTable(output, "Currency", "Per USD")
			for _, code := range codes {
				table.AddRow(code, strconv.FormatFloat(snap.Rates[models.Currency(code)], 'f', -1, 64))
			}
			table.Render()
			output.Dim("Source: %s, as of %s", snap.Source, FormatDateTime(snap.Timestamp, app.Location()))
			if snap.Source == currency.SourceFallback {
				output.Warning("Live rates unavailable; showing fallback rates.")
			}
			return nil
		},
	}
}

func newCurrencyConvertCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "convert <amount> <from> <to>",
		Short:   "Convert an amount between currencies",
		Example: `  journal currency convert 100 USD IDR`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return apperrors.NewValidationError("amount", args[0], "must be a number")
			}
			from := models.Currency(strings.ToUpper(args[1]))
			to := models.Currency(strings.ToUpper(args[2]))

			svc, err := app.Services(ctx)
			if err != nil {
				return err
			}

			conv, err := svc.Currency.Convert(ctx, amount, from, to)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(conv)
			}
			output.Printf("%s = %s\n",
				FormatMoney(conv.Original.Amount, conv.Original.Currency),
				FormatMoney(conv.Converted.Amount, conv.Converted.Currency))
			output.Dim("Rate: %s", strconv.FormatFloat(conv.Rate, 'f', -1, 64))
			return nil
		},
	}
}
