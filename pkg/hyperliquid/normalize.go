package hyperliquid

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/satishjaiswal/hyperliquid-position/pkg/models"
)

// Accepted source field names per target field, in lookup order. Orders
// arrive with inconsistent key names across API versions.
var (
	orderSymbolKeys = []string{"coin", "symbol"}
	orderSizeKeys   = []string{"sz", "size"}
	orderPriceKeys  = []string{"limitPx", "px", "price"}
	orderTypeKeys   = []string{"orderType", "type"}
)

// The exchange encodes order side and fill role with the same two-valued
// code, with opposite meanings: for orders "B" is buy and "A" is sell,
// for fills "A" is taker and "B" is maker. Verified against live data;
// do not infer one from the other.
const (
	codeA = "A"
	codeB = "B"
)

// num decodes the exchange's numeric fields, which arrive either as JSON
// strings or bare numbers. null and absence leave it unset.
type num struct {
	dec decimal.Decimal
	ok  bool
}

func (n *num) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return errors.Wrapf(err, "parse number %q", s)
	}
	n.dec = d
	n.ok = true
	return nil
}

func (n num) orZero() decimal.Decimal {
	if !n.ok {
		return decimal.Zero
	}
	return n.dec
}

// rawLeverage accepts both shapes the API produces: a bare number or an
// object carrying the value under "value".
type rawLeverage struct {
	num
}

func (l *rawLeverage) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj struct {
			Value num `json:"value"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		l.num = obj.Value
		return nil
	}
	return l.num.UnmarshalJSON(trimmed)
}

type rawAssetPosition struct {
	Position rawPosition `json:"position"`
}

type rawPosition struct {
	Coin          string      `json:"coin"`
	Szi           num         `json:"szi"`
	EntryPx       num         `json:"entryPx"`
	LiquidationPx num         `json:"liquidationPx"`
	UnrealizedPnl num         `json:"unrealizedPnl"`
	MarginUsed    num         `json:"marginUsed"`
	Leverage      rawLeverage `json:"leverage"`
}

type rawMarginSummary struct {
	AccountValue    num `json:"accountValue"`
	TotalNtlPos     num `json:"totalNtlPos"`
	TotalRawUsd     num `json:"totalRawUsd"`
	TotalMarginUsed num `json:"totalMarginUsed"`
}

func parseClearinghouseState(data []byte, logger *logrus.Logger) ([]models.Position, models.AccountSummary, error) {
	var state struct {
		AssetPositions []json.RawMessage `json:"assetPositions"`
		MarginSummary  *rawMarginSummary `json:"marginSummary"`
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, models.AccountSummary{}, errors.Wrap(err, "decode clearinghouse state")
	}

	positions := make([]models.Position, 0, len(state.AssetPositions))
	for _, raw := range state.AssetPositions {
		pos, ok := parsePosition(raw, logger)
		if !ok {
			continue
		}
		positions = append(positions, pos)
	}

	var account models.AccountSummary
	if state.MarginSummary == nil {
		logger.Warn("No margin summary in clearinghouse state")
	} else {
		account = models.AccountSummary{
			AccountValue:    state.MarginSummary.AccountValue.orZero(),
			TotalNtlPos:     state.MarginSummary.TotalNtlPos.orZero(),
			TotalRawUSD:     state.MarginSummary.TotalRawUsd.orZero(),
			TotalMarginUsed: state.MarginSummary.TotalMarginUsed.orZero(),
		}
	}

	return positions, account, nil
}

// parsePosition maps a single asset position. A missing size is a
// per-record failure; a zero size is an inactive slot and is dropped
// silently. Mark price is left at zero for the orchestrator to fill in.
func parsePosition(raw json.RawMessage, logger *logrus.Logger) (models.Position, bool) {
	var ap rawAssetPosition
	if err := json.Unmarshal(raw, &ap); err != nil {
		logger.WithError(err).Warn("Failed to parse position record")
		return models.Position{}, false
	}

	rp := ap.Position
	if !rp.Szi.ok {
		logger.WithField("coin", rp.Coin).Warn("Position record has no size")
		return models.Position{}, false
	}
	if rp.Szi.dec.IsZero() {
		return models.Position{}, false
	}

	side := models.PositionSideLong
	if rp.Szi.dec.Sign() < 0 {
		side = models.PositionSideShort
	}

	leverage := decimal.NewFromInt(1)
	if rp.Leverage.ok {
		leverage = rp.Leverage.dec
	}

	return models.Position{
		Symbol:        rp.Coin,
		Side:          side,
		Size:          rp.Szi.dec.Abs(),
		EntryPrice:    rp.EntryPx.orZero(),
		LiqPrice:      rp.LiquidationPx.orZero(),
		UnrealizedPnL: rp.UnrealizedPnl.orZero(),
		Leverage:      leverage,
		MarginUsed:    rp.MarginUsed.orZero(),
	}, true
}

// parseAllMids reads the symbol→price map. Keys starting with '@' are
// index entries, not tradable symbols.
func parseAllMids(data []byte, logger *logrus.Logger) (*models.PriceBook, error) {
	var mids map[string]json.RawMessage
	if err := json.Unmarshal(data, &mids); err != nil {
		return nil, errors.Wrap(err, "decode mid prices")
	}

	book := models.NewPriceBook()
	for symbol, raw := range mids {
		if strings.HasPrefix(symbol, "@") {
			continue
		}
		var price num
		if err := price.UnmarshalJSON(raw); err != nil || !price.ok {
			logger.WithField("symbol", symbol).Warn("Unparsable mid price")
			continue
		}
		book.Add(symbol, price.dec)
	}
	return book, nil
}

type rawFill struct {
	Coin      string `json:"coin"`
	Side      string `json:"side"`
	Sz        num    `json:"sz"`
	Px        num    `json:"px"`
	Time      int64  `json:"time"`
	Fee       num    `json:"fee"`
	ClosedPnl num    `json:"closedPnl"`
}

func parseFills(data []byte, logger *logrus.Logger) ([]models.Fill, error) {
	items, err := decodeList(data, logger, "fills")
	if err != nil {
		return nil, err
	}

	fills := make([]models.Fill, 0, len(items))
	for _, raw := range items {
		var rf rawFill
		if err := json.Unmarshal(raw, &rf); err != nil {
			logger.WithError(err).Warn("Failed to parse fill record")
			continue
		}

		ts := time.Now().UTC()
		if rf.Time > 0 {
			ts = time.UnixMilli(rf.Time).UTC()
		}

		var role models.FillRole
		switch rf.Side {
		case codeA:
			role = models.FillRoleTaker
		case codeB:
			role = models.FillRoleMaker
		default:
			logger.WithField("side", rf.Side).Warn("Unrecognized fill side code, defaulting to TAKER")
			role = models.FillRoleTaker
		}

		fills = append(fills, models.Fill{
			Symbol:    rf.Coin,
			Role:      role,
			Size:      rf.Sz.orZero(),
			Price:     rf.Px.orZero(),
			Time:      ts,
			Fee:       rf.Fee.orZero(),
			ClosedPnL: rf.ClosedPnl.orZero(),
		})
	}

	// Most recent first.
	sort.SliceStable(fills, func(i, j int) bool {
		return fills[i].Time.After(fills[j].Time)
	})
	return fills, nil
}

func parseOrders(data []byte, logger *logrus.Logger) ([]models.Order, error) {
	items, err := decodeList(data, logger, "orders")
	if err != nil {
		return nil, err
	}

	orders := make([]models.Order, 0, len(items))
	for _, raw := range items {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			logger.WithError(err).Warn("Failed to parse order record")
			continue
		}

		symbol := lookupString(fields, orderSymbolKeys...)
		size, err := lookupNum(fields, orderSizeKeys...)
		if err != nil {
			logger.WithError(err).WithField("coin", symbol).Warn("Failed to parse order size")
			continue
		}
		price, err := lookupNum(fields, orderPriceKeys...)
		if err != nil {
			logger.WithError(err).WithField("coin", symbol).Warn("Failed to parse order price")
			continue
		}

		var side models.OrderSide
		switch lookupString(fields, "side") {
		case codeB:
			side = models.OrderSideBuy
		case codeA:
			side = models.OrderSideSell
		default:
			logger.WithField("coin", symbol).Warn("Unrecognized order side code, defaulting to BUY")
			side = models.OrderSideBuy
		}

		orderType := models.OrderTypeLimit
		switch strings.ToUpper(lookupString(fields, orderTypeKeys...)) {
		case string(models.OrderTypeStop):
			orderType = models.OrderTypeStop
		case string(models.OrderTypeMarket):
			orderType = models.OrderTypeMarket
		}

		orders = append(orders, models.Order{
			Symbol: symbol,
			Side:   side,
			Size:   size,
			Price:  price,
			Type:   orderType,
		})
	}
	return orders, nil
}

// decodeList expects a JSON array. Valid JSON of another shape is an
// empty dataset; invalid JSON is a hard failure.
func decodeList(data []byte, logger *logrus.Logger, what string) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		if !json.Valid(data) {
			return nil, errors.Wrapf(err, "decode %s", what)
		}
		logger.WithField("dataset", what).Warn("Response is not a list, treating as empty")
		return nil, nil
	}
	return items, nil
}

func lookupString(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}

func lookupNum(fields map[string]json.RawMessage, keys ...string) (decimal.Decimal, error) {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var n num
		if err := n.UnmarshalJSON(raw); err != nil {
			return decimal.Zero, err
		}
		if n.ok {
			return n.dec, nil
		}
	}
	return decimal.Zero, nil
}
