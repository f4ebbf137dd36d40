package notifier

import (
	"fmt"
	"html"
	"strings"

	"ZoneBacktester/internal/fund"
	"ZoneBacktester/internal/report"
)

// FormatRunReport formats a backtest summary into a Telegram message.
func FormatRunReport(runID string, s report.Summary, files []string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s backtest</b> | RR %.2f\n", html.EscapeString(s.Symbol), s.RiskReward))
	if runID != "" {
		b.WriteString(fmt.Sprintf("<code>%s</code>\n", html.EscapeString(runID)))
	}
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Balance: %.2f → %.2f (%+.2f%%)\n", s.InitialBalance, s.FinalBalance, s.ReturnPct))
	b.WriteString(fmt.Sprintf("Max drawdown: %.2f%%\n", s.MaxDrawdownPct))
	b.WriteString(fmt.Sprintf("Profit factor: %.2f\n\n", s.ProfitFactor))

	b.WriteString("📈 <b>Trades</b>\n")
	b.WriteString(fmt.Sprintf("  %d closed: %d TP / %d SL (win rate %.1f%%)\n", s.Trades, s.Wins, s.Losses, s.WinRate))
	b.WriteString(fmt.Sprintf("  %d timed out\n\n", s.Timeouts))

	b.WriteString("🔎 <b>Filters</b>\n")
	b.WriteString(fmt.Sprintf("  %d coarse bars evaluated\n", s.Iterations))
	b.WriteString(fmt.Sprintf("  no structure %d | past 50%% %d | no breakout %d\n", s.NoBias, s.GateRejected, s.NotConfirmed))
	if s.Degenerate > 0 {
		b.WriteString(fmt.Sprintf("  ⚠️ %d zero-range setups skipped\n", s.Degenerate))
	}

	if len(files) > 0 {
		b.WriteString("\n📁 ")
		for i, f := range files {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(html.EscapeString(f))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatError formats a failed run.
func FormatError(stage string, err error) string {
	return fmt.Sprintf("❌ <b>Backtest failed</b> at %s\n%s", html.EscapeString(stage), html.EscapeString(err.Error()))
}

// FormatHelp lists the supported bot commands.
func FormatHelp() string {
	return "<b>Commands</b>\n" +
		"/run - run the backtest now\n" +
		"/last - show the last run summary\n" +
		"/help - show this message"
}

// FormatLastRun formats the persisted summary of the most recent run.
func FormatLastRun(state *fund.State) string {
	if state == nil || state.RunID == "" {
		return "No backtest has been run yet. Send /run to start one."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🕘 <b>Last run</b> | %s\n", state.UpdatedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("<code>%s</code>\n\n", html.EscapeString(state.RunID)))
	b.WriteString(fmt.Sprintf("%s RR %.2f\n", html.EscapeString(state.Symbol), state.RiskReward))
	b.WriteString(fmt.Sprintf("Balance: %.2f → %.2f (%+.2f%%)\n", state.InitialBalance, state.FinalBalance, state.ReturnPct))
	b.WriteString(fmt.Sprintf("Trades: %d (%d TP / %d SL), win rate %.1f%%\n", state.Trades, state.Wins, state.Losses, state.WinRate))
	b.WriteString(fmt.Sprintf("Max drawdown: %.2f%% | PF %.2f\n", state.MaxDrawdownPct, state.ProfitFactor))
	return b.String()
}
