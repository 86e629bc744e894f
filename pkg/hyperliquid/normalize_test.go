package hyperliquid

import (
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/satishjaiswal/hyperliquid-position/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParseClearinghouseState(t *testing.T) {
	data := []byte(`{
		"assetPositions": [
			{"position": {"coin": "ETH", "szi": "-2.5", "entryPx": "1800", "liquidationPx": "2400", "unrealizedPnl": "-120", "leverage": {"type": "cross", "value": 5}, "marginUsed": "900"}},
			{"position": {"coin": "BTC", "szi": "0.1", "entryPx": "42000", "leverage": 3, "marginUsed": "1400", "unrealizedPnl": "250"}},
			{"position": {"coin": "DUST", "szi": "0"}},
			{"position": {"coin": "BROKEN", "entryPx": "10"}}
		],
		"marginSummary": {"accountValue": "10000", "totalNtlPos": "15000", "totalRawUsd": "9500", "totalMarginUsed": "2500"}
	}`)

	positions, account, err := parseClearinghouseState(data, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Zero-size and missing-size records are dropped.
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}

	eth := positions[0]
	if eth.Symbol != "ETH" {
		t.Errorf("expected ETH, got %s", eth.Symbol)
	}
	if eth.Side != models.PositionSideShort {
		t.Errorf("expected SHORT for negative size, got %s", eth.Side)
	}
	if !eth.Size.Equal(dec("2.5")) {
		t.Errorf("expected size 2.5, got %s", eth.Size)
	}
	if !eth.EntryPrice.Equal(dec("1800")) {
		t.Errorf("expected entry 1800, got %s", eth.EntryPrice)
	}
	if !eth.Leverage.Equal(dec("5")) {
		t.Errorf("expected leverage 5 from object form, got %s", eth.Leverage)
	}
	if !eth.MarginUsed.Equal(dec("900")) {
		t.Errorf("expected margin 900, got %s", eth.MarginUsed)
	}
	if !eth.UnrealizedPnL.Equal(dec("-120")) {
		t.Errorf("expected pnl -120, got %s", eth.UnrealizedPnL)
	}
	if !eth.MarkPrice.IsZero() {
		t.Errorf("expected unset mark price after normalization, got %s", eth.MarkPrice)
	}
	if got := eth.PnLPercentage().Round(2); !got.Equal(dec("-2.67")) {
		t.Errorf("expected pnl percentage -2.67, got %s", got)
	}

	btc := positions[1]
	if btc.Side != models.PositionSideLong {
		t.Errorf("expected LONG for positive size, got %s", btc.Side)
	}
	if !btc.Leverage.Equal(dec("3")) {
		t.Errorf("expected leverage 3 from bare number form, got %s", btc.Leverage)
	}
	// liquidationPx absent defaults to zero.
	if !btc.LiqPrice.IsZero() {
		t.Errorf("expected zero liq price, got %s", btc.LiqPrice)
	}

	if !account.AccountValue.Equal(dec("10000")) {
		t.Errorf("expected account value 10000, got %s", account.AccountValue)
	}
	if !account.TotalNtlPos.Equal(dec("15000")) {
		t.Errorf("expected total notional 15000, got %s", account.TotalNtlPos)
	}
	if !account.TotalMarginUsed.Equal(dec("2500")) {
		t.Errorf("expected margin used 2500, got %s", account.TotalMarginUsed)
	}
}

func TestParseClearinghouseStateDefaultLeverage(t *testing.T) {
	data := []byte(`{"assetPositions": [{"position": {"coin": "SOL", "szi": "10"}}], "marginSummary": {}}`)

	positions, _, err := parseClearinghouseState(data, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}
	if !positions[0].Leverage.Equal(dec("1")) {
		t.Errorf("expected default leverage 1, got %s", positions[0].Leverage)
	}
	if !positions[0].EntryPrice.IsZero() {
		t.Errorf("expected zero entry price default, got %s", positions[0].EntryPrice)
	}
}

func TestParseClearinghouseStateMissingSummary(t *testing.T) {
	data := []byte(`{"assetPositions": []}`)

	positions, account, err := parseClearinghouseState(data, testLogger())
	if err != nil {
		t.Fatalf("expected missing summary to be tolerated, got %v", err)
	}
	if len(positions) != 0 {
		t.Errorf("expected no positions, got %d", len(positions))
	}
	if !account.AccountValue.IsZero() {
		t.Errorf("expected zero account value, got %s", account.AccountValue)
	}
}

func TestParseClearinghouseStateMalformed(t *testing.T) {
	if _, _, err := parseClearinghouseState([]byte(`{"assetPositions": [`), testLogger()); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestParseAllMids(t *testing.T) {
	data := []byte(`{"BTC": "43250.5", "ETH": "1805.25", "@107": "12.5", "BAD": "not-a-number"}`)

	book, err := parseAllMids(data, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if book.Len() != 2 {
		t.Fatalf("expected 2 quotes (index and unparsable skipped), got %d", book.Len())
	}
	if price, _ := book.Price("BTC"); !price.Equal(dec("43250.5")) {
		t.Errorf("expected BTC 43250.5, got %s", price)
	}
	if _, ok := book.Price("@107"); ok {
		t.Error("expected index entry skipped")
	}
}

func TestParseAllMidsMalformed(t *testing.T) {
	if _, err := parseAllMids([]byte(`[1,2,3]`), testLogger()); err == nil {
		t.Fatal("expected error for non-map mids payload")
	}
}

func TestParseOrders(t *testing.T) {
	data := []byte(`[
		{"coin": "BTC", "side": "B", "sz": "0.5", "limitPx": "41000", "orderType": "Limit"},
		{"symbol": "ETH", "side": "A", "size": "2", "px": "1900", "type": "stop"},
		{"coin": "SOL", "side": "X", "sz": "10", "price": "100"}
	]`)

	orders, err := parseOrders(data, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(orders))
	}

	if orders[0].Side != models.OrderSideBuy || orders[0].Type != models.OrderTypeLimit {
		t.Errorf("expected BUY LIMIT, got %s %s", orders[0].Side, orders[0].Type)
	}
	if !orders[0].OrderValue().Equal(dec("20500")) {
		t.Errorf("expected order value 20500, got %s", orders[0].OrderValue())
	}

	// Fallback field names: symbol, size, px, type.
	if orders[1].Symbol != "ETH" {
		t.Errorf("expected symbol fallback to resolve ETH, got %s", orders[1].Symbol)
	}
	if orders[1].Side != models.OrderSideSell {
		t.Errorf("expected SELL for code A, got %s", orders[1].Side)
	}
	if !orders[1].Size.Equal(dec("2")) {
		t.Errorf("expected size fallback 2, got %s", orders[1].Size)
	}
	if !orders[1].Price.Equal(dec("1900")) {
		t.Errorf("expected price fallback 1900, got %s", orders[1].Price)
	}
	if orders[1].Type != models.OrderTypeStop {
		t.Errorf("expected STOP, got %s", orders[1].Type)
	}

	// Unknown side code defaults to BUY, missing type to LIMIT.
	if orders[2].Side != models.OrderSideBuy {
		t.Errorf("expected default BUY for unknown code, got %s", orders[2].Side)
	}
	if orders[2].Type != models.OrderTypeLimit {
		t.Errorf("expected default LIMIT, got %s", orders[2].Type)
	}
	if !orders[2].Price.Equal(dec("100")) {
		t.Errorf("expected price key fallback 100, got %s", orders[2].Price)
	}
}

func TestParseOrdersKeyPrecedence(t *testing.T) {
	// When both key variants are present the first listed wins.
	data := []byte(`[{"coin": "BTC", "symbol": "WRONG", "side": "B", "sz": "1", "size": "9", "limitPx": "100", "px": "999"}]`)

	orders, err := parseOrders(data, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if orders[0].Symbol != "BTC" {
		t.Errorf("expected coin to win over symbol, got %s", orders[0].Symbol)
	}
	if !orders[0].Size.Equal(dec("1")) {
		t.Errorf("expected sz to win over size, got %s", orders[0].Size)
	}
	if !orders[0].Price.Equal(dec("100")) {
		t.Errorf("expected limitPx to win over px, got %s", orders[0].Price)
	}
}

func TestParseOrdersWrongShape(t *testing.T) {
	orders, err := parseOrders([]byte(`{"not": "a list"}`), testLogger())
	if err != nil {
		t.Fatalf("expected wrong shape to be an empty dataset, got %v", err)
	}
	if len(orders) != 0 {
		t.Errorf("expected no orders, got %d", len(orders))
	}
}

func TestParseOrdersMalformed(t *testing.T) {
	if _, err := parseOrders([]byte(`[{`), testLogger()); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestParseFills(t *testing.T) {
	data := []byte(`[
		{"coin": "BTC", "side": "A", "sz": "0.1", "px": "42000", "time": 1700000000000, "fee": "1.2", "closedPnl": "35"},
		{"coin": "ETH", "side": "B", "sz": "1", "px": "1800", "time": 1700000100000, "fee": "0.5", "closedPnl": "-12"}
	]`)

	fills, err := parseFills(data, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fills) != 2 {
		t.Fatalf("expected 2 fills, got %d", len(fills))
	}

	// Sorted most recent first.
	if fills[0].Symbol != "ETH" {
		t.Errorf("expected newest fill first, got %s", fills[0].Symbol)
	}
	if fills[0].Role != models.FillRoleMaker {
		t.Errorf("expected MAKER for code B, got %s", fills[0].Role)
	}
	if fills[1].Role != models.FillRoleTaker {
		t.Errorf("expected TAKER for code A, got %s", fills[1].Role)
	}

	want := time.UnixMilli(1700000000000).UTC()
	if !fills[1].Time.Equal(want) {
		t.Errorf("expected %s, got %s", want, fills[1].Time)
	}
	if !fills[1].TradeValue().Equal(dec("4200")) {
		t.Errorf("expected trade value 4200, got %s", fills[1].TradeValue())
	}
	if !fills[1].IsProfitable() {
		t.Error("expected positive closed PnL to be profitable")
	}
	if fills[0].IsProfitable() {
		t.Error("expected negative closed PnL to be unprofitable")
	}
}

func TestParseFillsDefaults(t *testing.T) {
	before := time.Now().UTC()
	fills, err := parseFills([]byte(`[{"coin": "BTC", "side": "??", "sz": "1", "px": "100"}]`), testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fills) != 1 {
		t.Fatalf("expected 1 fill, got %d", len(fills))
	}
	if fills[0].Role != models.FillRoleTaker {
		t.Errorf("expected default TAKER, got %s", fills[0].Role)
	}
	// Missing timestamp defaults to fetch time.
	if fills[0].Time.Before(before) || fills[0].Time.After(time.Now().UTC().Add(time.Second)) {
		t.Errorf("expected now-ish timestamp, got %s", fills[0].Time)
	}
	if !fills[0].Fee.IsZero() || !fills[0].ClosedPnL.IsZero() {
		t.Error("expected zero fee and closed PnL defaults")
	}
}

func TestParseFillsSkipsBadRecords(t *testing.T) {
	data := []byte(`[
		{"coin": "BTC", "side": "A", "sz": "garbage", "px": "100"},
		{"coin": "ETH", "side": "A", "sz": "1", "px": "1800"}
	]`)

	fills, err := parseFills(data, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fills) != 1 || fills[0].Symbol != "ETH" {
		t.Errorf("expected only the good record, got %+v", fills)
	}
}
