package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "trading-journal/internal/errors"
	"trading-journal/internal/journal"
	"trading-journal/internal/models"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseTime parses a flag value in loc. An empty value means now.
func parseTime(field, value string, loc *time.Location, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return now, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.NewValidationError(field, value, "expected YYYY-MM-DD[ HH:MM] or RFC3339")
}

// addTradeCommands adds trade lifecycle commands.
func addTradeCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:     "trade",
		Aliases: []string{"trades"},
		Short:   "Record and close trades",
		Long:    "Open, close, list and delete journaled trades.",
	}

	cmd.AddCommand(newTradeOpenCmd(app))
	cmd.AddCommand(newTradeCloseCmd(app))
	cmd.AddCommand(newTradeListCmd(app))
	cmd.AddCommand(newTradeDeleteCmd(app))

	rootCmd.AddCommand(cmd)
}

func newTradeOpenCmd(app *App) *cobra.Command {
	var (
		platformID, side, cur, entryDate, notes string
		entry, size, fee, leverage, stopLoss     float64
		takeProfits                              []float64
		futures                                  bool
		tags                                     []string
	)

	cmd := &cobra.Command{
		Use:   "open <symbol>",
		Short: "Open a trade",
		Long: `Journal a new running trade.

Up to five take-profit levels may be given with --tp, nearest first. They
decide how the trade is classified when it closes.`,
		Example: `  journal trade open BTCUSDT --platform 01HX... --side long --entry 65000 --size 0.1 --tp 66000,67000 --sl 64000
  journal trade open BBCA --journal stock --platform 01HX... --side long --entry 9500 --size 100 --currency IDR`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			journalType, err := app.JournalType(cmd)
			if err != nil {
				return err
			}
			if len(takeProfits) > 5 {
				return apperrors.NewValidationError("tp", takeProfits, "at most 5 take-profit levels")
			}
			at, err := parseTime("entryDate", entryDate, app.Location(), time.Now())
			if err != nil {
				return err
			}

			req := journal.OpenRequest{
				PlatformID:  platformID,
				JournalType: journalType,
				TradeType:   models.TradeSpot,
				Direction:   models.Direction(strings.ToLower(side)),
				Currency:    models.Currency(strings.ToUpper(cur)),
				Symbol:      strings.ToUpper(args[0]),
				Entry:       entry,
				Size:        size,
				Fee:         fee,
				EntryDate:   at,
				Notes:       notes,
				Tags:        tags,
			}
			if futures {
				req.TradeType = models.TradeFutures
			}
			if cmd.Flags().Changed("leverage") {
				req.Leverage = &leverage
			}
			if cmd.Flags().Changed("sl") {
				req.StopLoss = &stopLoss
			}
			var ladder [5]*float64
			for i := range takeProfits {
				ladder[i] = &takeProfits[i]
			}
			req.TP1, req.TP2, req.TP3, req.TP4, req.TP5 = ladder[0], ladder[1], ladder[2], ladder[3], ladder[4]

			user, err := app.CurrentUser(ctx, cmd)
			if err != nil {
				return err
			}
			svc, err := app.Services(ctx)
			if err != nil {
				return err
			}

			trade, err := svc.Trades.Open(ctx, user.ID, req)
			if err != nil {
				output.Error("Failed to open trade: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(trade)
			}
			output.Success("✓ Opened %s %s %s @ %s", trade.Direction, FormatPrice(trade.Size), trade.Symbol, FormatPrice(trade.Entry))
			output.Printf("  TP: %s  SL: %s\n", formatTakeProfits(trade), FormatOptionalPrice(trade.StopLoss))
			output.Dim("ID: %s", trade.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&platformID, "platform", "", "platform ID (required)")
	cmd.Flags().StringVar(&side, "side", "long", "direction: long or short")
	cmd.Flags().Float64Var(&entry, "entry", 0, "entry price (required)")
	cmd.Flags().Float64Var(&size, "size", 0, "position size (required)")
	cmd.Flags().Float64Var(&fee, "fee", 0, "total fees")
	cmd.Flags().BoolVar(&futures, "futures", false, "futures trade (default spot)")
	cmd.Flags().Float64Var(&leverage, "leverage", 0, "leverage, futures only")
	cmd.Flags().Float64SliceVar(&takeProfits, "tp", nil, "take-profit levels tp1..tp5, comma separated")
	cmd.Flags().Float64Var(&stopLoss, "sl", 0, "stop loss price")
	cmd.Flags().StringVar(&cur, "currency", "", "trade currency (default: the platform's)")
	cmd.Flags().StringVar(&entryDate, "date", "", "entry time (default now)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "comma separated tags")
	addJournalFlag(cmd)
	cmd.MarkFlagRequired("platform")
	cmd.MarkFlagRequired("entry")
	cmd.MarkFlagRequired("size")

	return cmd
}

func newTradeCloseCmd(app *App) *cobra.Command {
	var exit float64
	var exitDate string

	cmd := &cobra.Command{
		Use:     "close <trade-id>",
		Short:   "Close a running trade",
		Long:    "Record the exit of a running trade. PnL and the exit classification are computed from the exit price.",
		Example: `  journal trade close 01HX... --exit 66500`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			req := journal.CloseRequest{ExitPrice: exit}
			if exitDate != "" {
				at, err := parseTime("exitDate", exitDate, app.Location(), time.Now())
				if err != nil {
					return err
				}
				req.ExitDate = &at
			}

			user, err := app.CurrentUser(ctx, cmd)
			if err != nil {
				return err
			}
			svc, err := app.Services(ctx)
			if err != nil {
				return err
			}

			result, err := svc.Trades.Close(ctx, user.ID, args[0], req)
			if err != nil {
				output.Error("Failed to close trade: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(result)
			}
			t := result.Trade
			output.Success("✓ Closed %s %s @ %s", t.Direction, t.Symbol, FormatPrice(exit))
			output.Printf("  Status: %s\n", output.Status(result.Status))
			output.Printf("  P&L:    %s (%s)\n", output.FormatPnL(result.PnL, t.CurrencyOrDefault()), output.FormatPercent(result.PnLPercentage))
			if result.Summary != nil {
				output.Dim("Day %s: %d trades, %s", FormatDate(result.Summary.Date, app.Location()),
					result.Summary.TotalTrades, FormatPnL(result.Summary.TotalPnL, t.CurrencyOrDefault()))
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&exit, "exit", 0, "exit price (required)")
	cmd.Flags().StringVar(&exitDate, "date", "", "exit time (default now)")
	cmd.MarkFlagRequired("exit")

	return cmd
}

func newTradeListCmd(app *App) *cobra.Command {
	var tradeType, status, symbol string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trades",
		Long:  "List trades in one journal, most recent entry first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			journalType, err := app.JournalType(cmd)
			if err != nil {
				return err
			}
			filter := journal.ListFilter{
				JournalType: journalType,
				TradeType:   models.TradeType(strings.ToLower(tradeType)),
				Status:      models.TradeStatus(strings.ToLower(status)),
				Symbol:      strings.ToUpper(symbol),
				Limit:       limit,
			}
			if filter.TradeType != "" && !filter.TradeType.Valid() {
				return apperrors.NewValidationError("type", tradeType, "must be spot or futures")
			}
			if filter.Status != "" && !filter.Status.Valid() {
				return apperrors.NewValidationError("status", status, "unknown status")
			}

			user, err := app.CurrentUser(ctx, cmd)
			if err != nil {
				return err
			}
			svc, err := app.Services(ctx)
			if err != nil {
				return err
			}

			trades, err := svc.Trades.List(ctx, user.ID, filter)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(trades)
			}
			if len(trades) == 0 {
				output.Info("No %s trades recorded.", journalType)
				return nil
			}

			loc := app.Location()
			table := NewTable(output, "ID", "Date", "Symbol", "Side", "Type", "Size", "Entry", "Exit", "Status", "P&L")
			for _, t := range trades {
				pnl := "-"
				if t.PnL != nil {
					pnl = output.FormatPnL(*t.PnL, t.CurrencyOrDefault())
				}
				table.AddRow(
					t.ID,
					FormatDateTime(t.EntryDate, loc),
					t.Symbol,
					string(t.Direction),
					string(t.TradeType),
					FormatPrice(t.Size),
					FormatPrice(t.Entry),
					FormatOptionalPrice(t.ExitPrice),
					output.Status(t.Status),
					pnl,
				)
			}
			table.Render()
			output.Dim("%d trades", len(trades))
			return nil
		},
	}

	cmd.Flags().StringVar(&tradeType, "type", "", "filter by trade type: spot or futures")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (running, tp1..tp5, profit, stoploss)")
	cmd.Flags().StringVar(&symbol, "symbol", "", "filter by symbol")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum trades to show")
	addJournalFlag(cmd)

	return cmd
}

func newTradeDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <trade-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a trade",
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

			if err := svc.Trades.Delete(ctx, user.ID, args[0]); err != nil {
				output.Error("Failed to delete trade: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": args[0]})
			}
			output.Success("✓ Trade %s deleted", args[0])
			return nil
		},
	}
}

func formatTakeProfits(t *models.Trade) string {
	var levels []string
	for _, tp := range t.TakeProfits() {
		if tp != nil {
			levels = append(levels, FormatPrice(*tp))
		}
	}
	if len(levels) == 0 {
		return "-"
	}
	return strings.Join(levels, " / ")
}
