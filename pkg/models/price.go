package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// PriceQuote is a single observed mid price for a symbol.
type PriceQuote struct {
	Symbol     string
	Price      decimal.Decimal
	ObservedAt time.Time
}

// Age is how long ago the quote was observed.
func (q PriceQuote) Age() time.Duration {
	return time.Since(q.ObservedAt)
}

// PriceBook holds the latest quote per symbol. A newer quote supersedes
// the previous one, it is never merged.
type PriceBook struct {
	quotes map[string]PriceQuote
}

func NewPriceBook() *PriceBook {
	return &PriceBook{quotes: make(map[string]PriceQuote)}
}

func (b *PriceBook) Add(symbol string, price decimal.Decimal) {
	b.quotes[symbol] = PriceQuote{
		Symbol:     symbol,
		Price:      price,
		ObservedAt: time.Now().UTC(),
	}
}

func (b *PriceBook) Quote(symbol string) (PriceQuote, bool) {
	q, ok := b.quotes[symbol]
	return q, ok
}

// Price returns the quoted price for a symbol, or false when the symbol
// is not in the book.
func (b *PriceBook) Price(symbol string) (decimal.Decimal, bool) {
	q, ok := b.quotes[symbol]
	if !ok {
		return decimal.Zero, false
	}
	return q.Price, true
}

func (b *PriceBook) Symbols() []string {
	syms := make([]string, 0, len(b.quotes))
	for s := range b.quotes {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	return syms
}

// Filter returns a new book holding only the requested symbols that are
// present in this one.
func (b *PriceBook) Filter(symbols []string) *PriceBook {
	out := NewPriceBook()
	for _, s := range symbols {
		if q, ok := b.quotes[s]; ok {
			out.quotes[s] = q
		}
	}
	return out
}

// RemoveStale evicts quotes older than maxAge and returns how many were
// removed.
func (b *PriceBook) RemoveStale(maxAge time.Duration) int {
	removed := 0
	for s, q := range b.quotes {
		if q.Age() > maxAge {
			delete(b.quotes, s)
			removed++
		}
	}
	return removed
}

func (b *PriceBook) Len() int {
	return len(b.quotes)
}
