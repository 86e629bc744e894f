// Package portfolio derives account-level risk and performance figures
// from normalized records. Everything here is a pure function; nothing
// is cached and nothing does I/O.
package portfolio

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/satishjaiswal/hyperliquid-position/pkg/models"
)

var hundred = decimal.NewFromInt(100)

// Metrics summarizes a set of positions against the account backing
// them.
type Metrics struct {
	TotalPositions       int
	ProfitablePositions  int
	LosingPositions      int
	TotalUnrealizedPnL   decimal.Decimal
	LargestPositionValue decimal.Decimal
	WeightedLeverage     decimal.Decimal
	MaxDrawdownRisk      decimal.Decimal
	ConcentrationRisk    decimal.Decimal
}

// Calculate derives portfolio metrics. Every ratio guards its
// denominator and reports zero instead of dividing by zero.
func Calculate(positions []models.Position, account models.AccountSummary) Metrics {
	m := Metrics{
		TotalUnrealizedPnL:   decimal.Zero,
		LargestPositionValue: decimal.Zero,
		WeightedLeverage:     decimal.Zero,
		MaxDrawdownRisk:      decimal.Zero,
		ConcentrationRisk:    decimal.Zero,
	}
	if len(positions) == 0 {
		return m
	}

	m.TotalPositions = len(positions)

	var totalMargin, weighted decimal.Decimal
	minPnL := positions[0].UnrealizedPnL

	for _, p := range positions {
		if p.IsProfitable() {
			m.ProfitablePositions++
		} else {
			m.LosingPositions++
		}

		m.TotalUnrealizedPnL = m.TotalUnrealizedPnL.Add(p.UnrealizedPnL)

		if value := p.PositionValue(); value.GreaterThan(m.LargestPositionValue) {
			m.LargestPositionValue = value
		}
		if p.UnrealizedPnL.LessThan(minPnL) {
			minPnL = p.UnrealizedPnL
		}

		totalMargin = totalMargin.Add(p.MarginUsed)
		weighted = weighted.Add(p.Leverage.Mul(p.MarginUsed))
	}

	if totalMargin.Sign() > 0 {
		m.WeightedLeverage = weighted.Div(totalMargin)
	}

	if account.AccountValue.Sign() > 0 {
		m.MaxDrawdownRisk = minPnL.Abs().Div(account.AccountValue).Mul(hundred)
		m.ConcentrationRisk = m.LargestPositionValue.Div(account.AccountValue).Mul(hundred)
	}

	return m
}

// PositionBySymbol finds a position by symbol.
func PositionBySymbol(positions []models.Position, symbol string) (models.Position, bool) {
	for _, p := range positions {
		if p.Symbol == symbol {
			return p, true
		}
	}
	return models.Position{}, false
}

// FilterBySide keeps only positions on the given side.
func FilterBySide(positions []models.Position, side models.PositionSide) []models.Position {
	out := make([]models.Position, 0, len(positions))
	for _, p := range positions {
		if p.Side == side {
			out = append(out, p)
		}
	}
	return out
}

// SortByPnL returns a copy sorted by unrealized PnL, most profitable
// first when descending.
func SortByPnL(positions []models.Position, descending bool) []models.Position {
	out := append([]models.Position(nil), positions...)
	sort.SliceStable(out, func(i, j int) bool {
		if descending {
			return out[i].UnrealizedPnL.GreaterThan(out[j].UnrealizedPnL)
		}
		return out[i].UnrealizedPnL.LessThan(out[j].UnrealizedPnL)
	})
	return out
}
