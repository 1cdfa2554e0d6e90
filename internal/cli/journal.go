package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"trading-journal/internal/analytics"
	"trading-journal/internal/models"
)

// addJournalCommands adds the calendar and analytics views.
func addJournalCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newCalendarCmd(app))
	rootCmd.AddCommand(newAnalyticsCmd(app))
}

func newCalendarCmd(app *App) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show daily results",
		Long:  "Show the per-day summary of closed trades, most recent day first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			journalType, err := app.JournalType(cmd)
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = app.Config.Journal.SummaryLimit
			}

			user, err := app.CurrentUser(ctx, cmd)
			if err != nil {
				return err
			}
			svc, err := app.Services(ctx)
			if err != nil {
				return err
			}

			summaries, err := svc.Daily.List(ctx, user.ID, journalType, limit)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(summaries)
			}

			output.Bold("Trading Calendar - %s", journalType)
			output.Println()
			if len(summaries) == 0 {
				output.Info("No closed trades yet.")
				return nil
			}

			var total float64
			var trades, wins, losses int
			table := NewTable(output, "Date", "Trades", "Wins", "Losses", "P&L")
			for _, s := range summaries {
				total += s.TotalPnL
				trades += s.TotalTrades
				wins += s.WinningTrades
				losses += s.LosingTrades
				table.AddRow(
					FormatDate(s.Date, app.Location()),
					fmt.Sprintf("%d", s.TotalTrades),
					fmt.Sprintf("%d", s.WinningTrades),
					fmt.Sprintf("%d", s.LosingTrades),
					output.FormatAmount(s.TotalPnL),
				)
			}
			table.Render()

			output.Println()
			output.Printf("  Days: %d  Trades: %d  Wins/Losses: %d/%d\n", len(summaries), trades, wins, losses)
			output.Printf("  Total P&L: %s\n", output.FormatAmount(total))
			output.Dim("Daily totals add up every currency traded that day.")
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "number of days (default: journal.summary_limit)")
	addJournalFlag(cmd)

	return cmd
}

func newAnalyticsCmd(app *App) *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show performance analytics",
		Long: `Compute the performance report over every closed trade in one journal:
win rate, PnL by currency, spot/futures and long/short splits, streaks,
best and worst days, top symbols, platforms and months.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := commandContext(cmd)
			defer cancel()

			journalType, err := app.JournalType(cmd)
			if err != nil {
				return err
			}
			user, err := app.CurrentUser(ctx, cmd)
			if err != nil {
				return err
			}
			svc, err := app.Services(ctx)
			if err != nil {
				return err
			}

			report, err := svc.Analytics.Report(ctx, user.ID, journalType)
			if err != nil {
				return err
			}
			switch {
			case asYAML:
				return output.YAML(report)
			case output.IsJSON():
				return output.JSON(report)
			}
			showReport(output, report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asYAML, "yaml", false, "output the report as YAML")
	addJournalFlag(cmd)

	return cmd
}

func showReport(output *Output, r *analytics.Report) {
	output.Bold("Performance Report - %s", r.JournalType)
	output.Println()

	if r.TotalTrades == 0 {
		output.Info("No closed trades yet.")
		return
	}

	output.Bold("Overview")
	output.Printf("  Closed Trades:   %d\n", r.TotalTrades)
	output.Printf("  Wins/Losses/BE:  %d/%d/%d\n", r.WinningTrades, r.LosingTrades, r.BreakEvenTrades)
	output.Printf("  Win Rate:        %.1f%%\n", r.WinRate)
	output.Printf("  Current Streak:  %s\n", formatStreak(r.CurrentStreak))
	output.Printf("  Longest Streaks: %d wins / %d losses\n", r.LongestWinStreak, r.LongestLossStreak)
	output.Printf("  Trading Days:    %d (%.1f trades/day)\n", r.TradingDays, r.AvgTradesPerDay)
	if r.AvgHoldingHours > 0 {
		output.Printf("  Avg Holding:     %s\n", FormatHours(r.AvgHoldingHours))
	}
	if r.AvgRiskRewardRatio > 0 {
		output.Printf("  Avg R:R:         %s\n", FormatRiskReward(r.AvgRiskRewardRatio))
	}
	if r.BestDay != nil {
		output.Printf("  Best Day:        %s %s\n", r.BestDay.Date, output.FormatPnL(r.BestDay.PnL, r.BestDay.Currency))
	}
	if r.WorstDay != nil {
		output.Printf("  Worst Day:       %s %s\n", r.WorstDay.Date, output.FormatPnL(r.WorstDay.PnL, r.WorstDay.Currency))
	}
	output.Println()

	output.Bold("P&L by Currency")
	table := NewTable(output, "Currency", "Net", "Profit", "Loss", "Avg Win", "Avg Loss", "PF", "Expectancy")
	r.PnLByCurrency.Each(func(cur models.Currency, cs analytics.CurrencyStats) {
		table.AddRow(
			string(cur),
			output.FormatPnL(cs.TotalPnL, cur),
			FormatMoney(cs.TotalProfit, cur),
			FormatMoney(cs.TotalLoss, cur),
			FormatMoney(cs.AvgWin, cur),
			FormatMoney(cs.AvgLoss, cur),
			formatRatio(cs.ProfitFactor),
			FormatPnL(cs.Expectancy, cur),
		)
	})
	table.Render()
	output.Println()

	output.Bold("Breakdown")
	table = NewTable(output, "Segment", "Trades", "Wins", "Win Rate", "P&L")
	for _, seg := range []struct {
		name string
		b    analytics.Breakdown
	}{
		{"Spot", r.SpotStats},
		{"Futures", r.FuturesStats},
		{"Long", r.LongStats},
		{"Short", r.ShortStats},
	} {
		table.AddRow(seg.name, fmt.Sprintf("%d", seg.b.Trades), fmt.Sprintf("%d", seg.b.Wins),
			fmt.Sprintf("%.1f%%", seg.b.WinRate), output.FormatAmount(seg.b.PnL))
	}
	table.Render()
	output.Println()

	output.Bold("Exit Classification")
	r.StatusBreakdown.Each(func(s models.TradeStatus, n int) {
		output.Printf("  %-10s %d\n", output.Status(s), n)
	})
	output.Println()

	if len(r.TopSymbols) > 0 {
		output.Bold("Top Symbols")
		table = NewTable(output, "Symbol", "Trades", "Win Rate", "P&L")
		for _, s := range r.TopSymbols {
			table.AddRow(s.Symbol, fmt.Sprintf("%d", s.Trades), fmt.Sprintf("%.1f%%", s.WinRate), output.FormatPnL(s.PnL, s.Currency))
		}
		table.Render()
		output.Println()
	}

	if len(r.PlatformStats) > 0 {
		output.Bold("Platforms")
		table = NewTable(output, "Platform", "Trades", "Win Rate", "P&L")
		for _, p := range r.PlatformStats {
			table.AddRow(p.Platform, fmt.Sprintf("%d", p.Trades), fmt.Sprintf("%.1f%%", p.WinRate), output.FormatPnL(p.PnL, p.Currency))
		}
		table.Render()
		output.Println()
	}

	if len(r.MonthlyStats) > 0 {
		output.Bold("Monthly")
		table = NewTable(output, "Month", "Trades", "Win Rate", "P&L")
		for _, m := range r.MonthlyStats {
			table.AddRow(m.Month, fmt.Sprintf("%d", m.Trades), fmt.Sprintf("%.1f%%", m.WinRate), output.FormatPnL(m.PnL, m.Currency))
		}
		table.Render()
	}
}

func formatStreak(s analytics.Streak) string {
	if s.Type == analytics.StreakNone || s.Count == 0 {
		return "-"
	}
	return fmt.Sprintf("%d %s", s.Count, s.Type)
}

func formatRatio(r analytics.Ratio) string {
	if r.IsInf() {
		return "∞"
	}
	return fmt.Sprintf("%.2f", float64(r))
}
