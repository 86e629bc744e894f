package models

import (
	"github.com/shopspring/decimal"
)

type PositionSide string

const (
	PositionSideLong  PositionSide = "LONG"
	PositionSideShort PositionSide = "SHORT"
)

var hundred = decimal.NewFromInt(100)

// Position is an open perpetual position. MarkPrice is zero right after
// normalization and is populated by the orchestrator from the price book.
type Position struct {
	Symbol        string
	Side          PositionSide
	Size          decimal.Decimal
	EntryPrice    decimal.Decimal
	MarkPrice     decimal.Decimal
	LiqPrice      decimal.Decimal
	UnrealizedPnL decimal.Decimal
	Leverage      decimal.Decimal
	MarginUsed    decimal.Decimal
}

// PnLPercentage is unrealized PnL relative to the entry notional, as a
// percentage. Zero when the notional is not positive.
func (p Position) PnLPercentage() decimal.Decimal {
	notional := p.Size.Mul(p.EntryPrice)
	if notional.Sign() <= 0 {
		return decimal.Zero
	}
	return p.UnrealizedPnL.Div(notional).Mul(hundred)
}

// PositionValue is the position valued at the current mark price.
func (p Position) PositionValue() decimal.Decimal {
	return p.Size.Mul(p.MarkPrice)
}

func (p Position) IsProfitable() bool {
	return p.UnrealizedPnL.Sign() >= 0
}
