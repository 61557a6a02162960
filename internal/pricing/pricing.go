// Package pricing holds the order arithmetic. Everything is exact decimal
// math; nothing here rounds.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

type Line struct {
	Price    decimal.Decimal
	Quantity int
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total sums price*quantity over all lines.
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ApplyDiscount takes percent (0..100) off the pre-discount total and returns
// the discount in currency units together with the final price.
func ApplyDiscount(total, percent decimal.Decimal) (discount, final decimal.Decimal) {
	discount = total.Mul(percent).Div(hundred)
	return discount, total.Sub(discount)
}
