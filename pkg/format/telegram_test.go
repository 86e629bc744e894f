package format

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/satishjaiswal/hyperliquid-position/pkg/cache"
	"github.com/satishjaiswal/hyperliquid-position/pkg/models"
	"github.com/satishjaiswal/hyperliquid-position/pkg/portfolio"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPositionsMessageEmpty(t *testing.T) {
	msg := PositionsMessage(nil, models.AccountSummary{}, portfolio.Metrics{})
	if !strings.Contains(msg, "No active positions") {
		t.Errorf("expected empty-portfolio notice, got %q", msg)
	}
}

func TestPositionsMessageOrdersByPnL(t *testing.T) {
	positions := []models.Position{
		{Symbol: "BTC", Side: models.PositionSideLong, UnrealizedPnL: dec("-50"),
			Size: dec("0.1"), EntryPrice: dec("42000"), Leverage: dec("10")},
		{Symbol: "ETH", Side: models.PositionSideLong, UnrealizedPnL: dec("120"),
			Size: dec("2"), EntryPrice: dec("1800"), Leverage: dec("5")},
	}
	account := models.AccountSummary{AccountValue: dec("10000")}
	msg := PositionsMessage(positions, account, portfolio.Calculate(positions, account))

	ethIdx := strings.Index(msg, "ETH")
	btcIdx := strings.Index(msg, "BTC")
	if ethIdx < 0 || btcIdx < 0 || ethIdx > btcIdx {
		t.Errorf("expected ETH (most profitable) listed before BTC:\n%s", msg)
	}
	if !strings.Contains(msg, "$+120.00") {
		t.Errorf("expected signed PnL in message:\n%s", msg)
	}
	if !strings.Contains(msg, "$10000.00") {
		t.Errorf("expected account value in message:\n%s", msg)
	}
}

func TestPricesMessage(t *testing.T) {
	book := models.NewPriceBook()
	book.Add("BTC", dec("42000"))
	book.Add("ETH", dec("1850.5"))

	msg := PricesMessage(book, []string{"ETH", "BTC", "XRP"})

	if !strings.Contains(msg, "*BTC*: $42000.0000") {
		t.Errorf("expected BTC price line:\n%s", msg)
	}
	if !strings.Contains(msg, "Not found*: XRP") {
		t.Errorf("expected missing-symbol line:\n%s", msg)
	}
}

func TestPricesMessageEmptyBook(t *testing.T) {
	msg := PricesMessage(nil, []string{"BTC"})
	if !strings.Contains(msg, "No price data") {
		t.Errorf("expected empty-book notice, got %q", msg)
	}
}

func TestFillsMessage(t *testing.T) {
	fills := []models.Fill{
		{
			Symbol:    "ETH",
			Role:      models.FillRoleMaker,
			Size:      dec("1"),
			Price:     dec("1800"),
			ClosedPnL: dec("25"),
			Fee:       dec("0.9"),
			Time:      time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC),
		},
	}

	msg := FillsMessage(fills)
	if !strings.Contains(msg, "MAKER") {
		t.Errorf("expected role in message:\n%s", msg)
	}
	if !strings.Contains(msg, "03/05/2024 - 14:30:00") {
		t.Errorf("expected fill timestamp:\n%s", msg)
	}
}

func TestOrdersMessage(t *testing.T) {
	orders := []models.Order{
		{Symbol: "ETH", Side: models.OrderSideBuy, Type: models.OrderTypeLimit,
			Size: dec("2"), Price: dec("1700")},
	}

	msg := OrdersMessage(orders)
	if !strings.Contains(msg, "BUY LIMIT") {
		t.Errorf("expected side and type:\n%s", msg)
	}
	if !strings.Contains(msg, "$3400.00") {
		t.Errorf("expected order value:\n%s", msg)
	}
}

func TestStatusMessage(t *testing.T) {
	msg := StatusMessage(true, false, cache.Stats{Entries: 2, OldestAge: 12 * time.Second}, time.Hour)

	if !strings.Contains(msg, "✅ Exchange API") {
		t.Errorf("expected exchange check mark:\n%s", msg)
	}
	if !strings.Contains(msg, "❌ Telegram API") {
		t.Errorf("expected telegram cross:\n%s", msg)
	}
	if !strings.Contains(msg, "2 entries") {
		t.Errorf("expected cache entry count:\n%s", msg)
	}
}
