package models

import (
	"github.com/shopspring/decimal"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

type OrderType string

const (
	OrderTypeLimit  OrderType = "LIMIT"
	OrderTypeStop   OrderType = "STOP"
	OrderTypeMarket OrderType = "MARKET"
)

// Order is a resting order on the book.
type Order struct {
	Symbol string
	Side   OrderSide
	Size   decimal.Decimal
	Price  decimal.Decimal
	Type   OrderType
}

func (o Order) OrderValue() decimal.Decimal {
	return o.Size.Mul(o.Price)
}
