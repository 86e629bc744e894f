package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/satishjaiswal/hyperliquid-position/pkg/models"
	"github.com/satishjaiswal/hyperliquid-position/pkg/portfolio"
)

// ConsoleWriter renders plain-text reports for the monitor's local
// output.
type ConsoleWriter struct {
	Out io.Writer
}

func (c ConsoleWriter) Separator() {
	fmt.Fprintln(c.Out, strings.Repeat("=", 72))
}

func (c ConsoleWriter) Info(msg string) {
	fmt.Fprintln(c.Out, msg)
}

// Summary prints the account header, one row per position, and the
// derived portfolio metrics.
func (c ConsoleWriter) Summary(positions []models.Position, account models.AccountSummary, metrics portfolio.Metrics) {
	fmt.Fprintf(c.Out, "Account value: %s | P&L: %s | Margin: %s (%s%%) | Available: %s\n",
		money(account.AccountValue),
		signedMoney(metrics.TotalUnrealizedPnL),
		money(account.TotalMarginUsed),
		account.CrossMarginRatio().StringFixed(1),
		money(account.AvailableBalance()),
	)

	if len(positions) == 0 {
		fmt.Fprintln(c.Out, "No active positions.")
		return
	}

	fmt.Fprintf(c.Out, "%-8s %-6s %12s %12s %12s %12s %8s\n",
		"SYMBOL", "SIDE", "SIZE", "ENTRY", "MARK", "PNL", "LEV")
	for _, p := range portfolio.SortByPnL(positions, true) {
		fmt.Fprintf(c.Out, "%-8s %-6s %12s %12s %12s %12s %7sx\n",
			p.Symbol,
			p.Side,
			p.Size.StringFixed(4),
			p.EntryPrice.StringFixed(2),
			p.MarkPrice.StringFixed(2),
			signedMoney(p.UnrealizedPnL),
			p.Leverage.StringFixed(1),
		)
	}

	fmt.Fprintf(c.Out, "Positions: %d (%d up / %d down) | Avg leverage: %sx | Concentration: %s%%\n",
		metrics.TotalPositions,
		metrics.ProfitablePositions,
		metrics.LosingPositions,
		metrics.WeightedLeverage.StringFixed(2),
		metrics.ConcentrationRisk.StringFixed(1),
	)
}
