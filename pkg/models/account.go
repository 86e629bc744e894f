package models

import (
	"github.com/shopspring/decimal"
)

// AccountSummary mirrors the exchange margin summary for a wallet.
type AccountSummary struct {
	AccountValue    decimal.Decimal
	TotalNtlPos     decimal.Decimal
	TotalRawUSD     decimal.Decimal
	TotalMarginUsed decimal.Decimal
}

// CrossMarginRatio is margin used as a percentage of account value.
// Zero when the account value is not positive.
func (a AccountSummary) CrossMarginRatio() decimal.Decimal {
	if a.AccountValue.Sign() <= 0 {
		return decimal.Zero
	}
	return a.TotalMarginUsed.Div(a.AccountValue).Mul(hundred)
}

// CrossLeverage is total notional exposure over account value.
// Zero when the account value is not positive.
func (a AccountSummary) CrossLeverage() decimal.Decimal {
	if a.AccountValue.Sign() <= 0 {
		return decimal.Zero
	}
	return a.TotalNtlPos.Div(a.AccountValue)
}

func (a AccountSummary) AvailableBalance() decimal.Decimal {
	return a.AccountValue.Sub(a.TotalMarginUsed)
}
