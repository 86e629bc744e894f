package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type FillRole string

const (
	FillRoleTaker FillRole = "TAKER"
	FillRoleMaker FillRole = "MAKER"
)

// Fill is an executed trade from the user's fill history.
type Fill struct {
	Symbol    string
	Role      FillRole
	Size      decimal.Decimal
	Price     decimal.Decimal
	Time      time.Time
	Fee       decimal.Decimal
	ClosedPnL decimal.Decimal
}

func (f Fill) TradeValue() decimal.Decimal {
	return f.Size.Mul(f.Price)
}

func (f Fill) IsProfitable() bool {
	return f.ClosedPnL.Sign() > 0
}
