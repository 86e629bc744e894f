// Package format renders normalized records into chat and console
// reports. It holds no state and does no I/O.
package format

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/satishjaiswal/hyperliquid-position/pkg/cache"
	"github.com/satishjaiswal/hyperliquid-position/pkg/models"
	"github.com/satishjaiswal/hyperliquid-position/pkg/portfolio"
)

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func signedMoney(d decimal.Decimal) string {
	if d.Sign() >= 0 {
		return "$+" + d.StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

func signedPct(d decimal.Decimal) string {
	if d.Sign() >= 0 {
		return "+" + d.StringFixed(2) + "%"
	}
	return d.StringFixed(2) + "%"
}

// PositionsMessage renders the position summary report.
func PositionsMessage(positions []models.Position, account models.AccountSummary, metrics portfolio.Metrics) string {
	if len(positions) == 0 {
		return "📊 *Position Summary*\n\n❌ No active positions found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Position Summary*\n\n")
	fmt.Fprintf(&b, "💰 *Account Value*: %s\n", money(account.AccountValue))
	fmt.Fprintf(&b, "📈 *Total P&L*: %s\n", signedMoney(metrics.TotalUnrealizedPnL))
	fmt.Fprintf(&b, "🔄 *Cross Leverage*: %sx\n", account.CrossLeverage().StringFixed(2))
	fmt.Fprintf(&b, "💳 *Margin Used*: %s (%s%%)\n", money(account.TotalMarginUsed), account.CrossMarginRatio().StringFixed(1))
	fmt.Fprintf(&b, "💵 *Available*: %s\n\n", money(account.AvailableBalance()))

	fmt.Fprintf(&b, "📈 *Portfolio Metrics*:\n")
	fmt.Fprintf(&b, "• Positions: %d (%d✅ / %d❌)\n", metrics.TotalPositions, metrics.ProfitablePositions, metrics.LosingPositions)
	fmt.Fprintf(&b, "• Avg Leverage: %sx\n", metrics.WeightedLeverage.StringFixed(2))
	fmt.Fprintf(&b, "• Largest Position: %s\n\n", money(metrics.LargestPositionValue))

	fmt.Fprintf(&b, "🎯 *Active Positions*:\n\n")

	for i, p := range portfolio.SortByPnL(positions, true) {
		pnlEmoji := "🔴"
		if p.IsProfitable() {
			pnlEmoji = "🟢"
		}
		sideEmoji := "📉"
		if p.Side == models.PositionSideLong {
			sideEmoji = "📈"
		}

		fmt.Fprintf(&b, "%d. %s *%s* %s\n", i+1, sideEmoji, p.Symbol, p.Side)
		fmt.Fprintf(&b, "    📏 Size: %s @ %s\n", p.Size.StringFixed(4), "$"+p.EntryPrice.StringFixed(4))
		fmt.Fprintf(&b, "    📊 Mark: $%s\n", p.MarkPrice.StringFixed(4))
		fmt.Fprintf(&b, "    ⚠️ Liq: $%s\n", p.LiqPrice.StringFixed(4))
		fmt.Fprintf(&b, "    %s P&L: %s (%s)\n", pnlEmoji, signedMoney(p.UnrealizedPnL), signedPct(p.PnLPercentage()))
		fmt.Fprintf(&b, "    ⚡ Leverage: %sx\n", p.Leverage.StringFixed(1))
		fmt.Fprintf(&b, "    💳 Margin: %s\n\n", money(p.MarginUsed))
	}

	return strings.TrimSpace(b.String())
}

// PricesMessage renders current prices for the requested symbols,
// listing the ones the book does not know about.
func PricesMessage(book *models.PriceBook, symbols []string) string {
	if book == nil || book.Len() == 0 {
		return "📈 *Token Prices*\n\n❌ No price data available."
	}

	var found []models.PriceQuote
	var missing []string
	for _, symbol := range symbols {
		if q, ok := book.Quote(symbol); ok {
			found = append(found, q)
		} else {
			missing = append(missing, symbol)
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Symbol < found[j].Symbol })

	var b strings.Builder
	b.WriteString("📈 *Token Prices*\n\n")
	for _, q := range found {
		fmt.Fprintf(&b, "• *%s*: $%s\n", q.Symbol, q.Price.StringFixed(4))
	}
	if len(missing) > 0 {
		fmt.Fprintf(&b, "\n❌ *Not found*: %s", strings.Join(missing, ", "))
	}
	fmt.Fprintf(&b, "\n\n🕐 *Updated*: %s", time.Now().Format("15:04:05"))
	return b.String()
}

// FillsMessage renders the recent fill history.
func FillsMessage(fills []models.Fill) string {
	if len(fills) == 0 {
		return "📑 *Recent Fills*\n\n❌ No recent fills found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📑 *Recent Fills* (Last %d)\n\n", len(fills))

	for i, f := range fills {
		pnlEmoji := "⚪"
		if f.IsProfitable() {
			pnlEmoji = "🟢"
		} else if f.ClosedPnL.Sign() < 0 {
			pnlEmoji = "🔴"
		}
		roleEmoji := "🎯"
		if f.Role == models.FillRoleTaker {
			roleEmoji = "⚡"
		}

		fmt.Fprintf(&b, "%d. %s *%s* (%s)\n", i+1, roleEmoji, f.Symbol, f.Role)
		fmt.Fprintf(&b, "   Size: %s @ $%s\n", f.Size.StringFixed(4), f.Price.StringFixed(4))
		fmt.Fprintf(&b, "   %s P&L: %s | Fee: $%s\n", pnlEmoji, signedMoney(f.ClosedPnL), f.Fee.StringFixed(4))
		fmt.Fprintf(&b, "   🕐 %s\n\n", f.Time.Format("01/02/2006 - 15:04:05"))
	}

	return strings.TrimSpace(b.String())
}

// OrdersMessage renders the open order list.
func OrdersMessage(orders []models.Order) string {
	if len(orders) == 0 {
		return "🧾 *Open Orders*\n\n❌ No open orders found."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🧾 *Open Orders* (%d)\n\n", len(orders))

	for i, o := range orders {
		sideEmoji := "🔴"
		if o.Side == models.OrderSideBuy {
			sideEmoji = "🟢"
		}
		fmt.Fprintf(&b, "%d. %s *%s* %s %s\n", i+1, sideEmoji, o.Symbol, o.Side, o.Type)
		fmt.Fprintf(&b, "   Size: %s @ $%s\n", o.Size.StringFixed(4), o.Price.StringFixed(4))
		fmt.Fprintf(&b, "   💵 Value: %s\n\n", money(o.OrderValue()))
	}

	return strings.TrimSpace(b.String())
}

// StatusMessage renders the bot's operational state.
func StatusMessage(exchangeOK, telegramOK bool, stats cache.Stats, uptime time.Duration) string {
	check := func(ok bool) string {
		if ok {
			return "✅"
		}
		return "❌"
	}

	var b strings.Builder
	b.WriteString("ℹ️ *Bot Status*\n\n")
	fmt.Fprintf(&b, "%s Exchange API\n", check(exchangeOK))
	fmt.Fprintf(&b, "%s Telegram API\n", check(telegramOK))
	fmt.Fprintf(&b, "🗃 Cache: %d entries", stats.Entries)
	if stats.Entries > 0 {
		fmt.Fprintf(&b, " (oldest %s)", stats.OldestAge.Round(time.Second))
	}
	fmt.Fprintf(&b, "\n⏱ Uptime: %s", uptime.Round(time.Second))
	return b.String()
}

// HelpMessage lists the command surface.
func HelpMessage(priceSymbols []string, refreshInterval time.Duration) string {
	var b strings.Builder
	b.WriteString("🤖 *Hyperliquid Bot Commands*\n\n")
	b.WriteString("• `/prices` - Get current token prices\n")
	b.WriteString("• `/position` - Get current positions and account summary\n")
	b.WriteString("• `/fills` - View last 10 order fills\n")
	b.WriteString("• `/openorders` - View current open orders\n")
	b.WriteString("• `/status` - Show bot status\n")
	b.WriteString("• `/help` - Show this help message\n\n")
	fmt.Fprintf(&b, "📊 *Configured Price Symbols*:\n%s\n\n", strings.Join(priceSymbols, ", "))
	fmt.Fprintf(&b, "🔄 *Scheduled Updates*: Every %s", refreshInterval)
	return b.String()
}
