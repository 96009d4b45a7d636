package pricing

import (
	"math"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value stored in minor units.
type Money = int64

// Arithmetic in this package saturates at these bounds instead of wrapping.
const (
	MaxMoney Money = math.MaxInt64
	MinMoney Money = math.MinInt64
)

var (
	maxDecimal = decimal.NewFromInt(MaxMoney)
	minDecimal = decimal.NewFromInt(MinMoney)
)

// FromDecimal truncates d to whole minor units, clamped to [MinMoney, MaxMoney].
func FromDecimal(d decimal.Decimal) Money {
	switch {
	case d.GreaterThan(maxDecimal):
		return MaxMoney
	case d.LessThan(minDecimal):
		return MinMoney
	default:
		return d.IntPart()
	}
}

// Add returns a+b, saturating at MaxMoney and MinMoney.
func Add(a, b Money) Money {
	sum := a + b
	switch {
	case a > 0 && b > 0 && sum < 0:
		return MaxMoney
	case a < 0 && b < 0 && sum >= 0:
		return MinMoney
	}
	return sum
}

func lineTotal(qty int, unitPrice Money) Money {
	q := Money(qty)
	if q != 0 && unitPrice > MaxMoney/q {
		return MaxMoney
	}
	return q * unitPrice
}

// Item describes a line item used for pricing calculation.
type Item struct {
	Qty       int
	UnitPrice Money
}

// Summary aggregates computed pricing components.
type Summary struct {
	Subtotal Money `json:"subtotal"`
	Fees     Money `json:"fees"`
	Tax      Money `json:"tax"`
	Total    Money `json:"total"`
}

// Subtotal sums qty*unit price over lines with a positive quantity and a
// non-negative price. The result saturates at MaxMoney.
func Subtotal(items []Item) Money {
	var subtotal Money
	for _, it := range items {
		if it.Qty <= 0 || it.UnitPrice < 0 {
			continue
		}
		subtotal = Add(subtotal, lineTotal(it.Qty, it.UnitPrice))
	}
	return subtotal
}

// Tax returns the tax owed on amount at the given rate in basis points.
func Tax(amount Money, taxBps int) Money {
	if amount <= 0 || taxBps <= 0 {
		return 0
	}
	tax := decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(int64(taxBps))).
		Div(decimal.NewFromInt(10000)).
		Floor()
	return FromDecimal(tax)
}

// Summarize computes cart totals. Fees are signed; the total never drops below zero.
func Summarize(items []Item, fees []Money, taxBps int) Summary {
	subtotal := Subtotal(items)
	var feeTotal Money
	for _, f := range fees {
		feeTotal = Add(feeTotal, f)
	}
	tax := Tax(subtotal, taxBps)
	total := Add(Add(subtotal, feeTotal), tax)
	if total < 0 {
		total = 0
	}
	return Summary{
		Subtotal: subtotal,
		Fees:     feeTotal,
		Tax:      tax,
		Total:    total,
	}
}

// Format renders m as a decimal string with minorUnits fractional digits.
func Format(m Money, minorUnits int32) string {
	if minorUnits < 0 {
		minorUnits = 0
	}
	return decimal.NewFromInt(m).Shift(-minorUnits).StringFixed(minorUnits)
}
