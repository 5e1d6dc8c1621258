package order

import "github.com/shopspring/decimal"

var (
	taxRate               = decimal.RequireFromString("0.18")
	freeShippingThreshold = decimal.NewFromInt(500)
	flatShippingFee       = decimal.NewFromInt(50)
)

// Totals are the monetary fields of an order, each rounded to cents.
type Totals struct {
	TotalAmount  float64
	TaxAmount    float64
	ShippingCost float64
	FinalAmount  float64
}

func money(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// lineTotal is unitPrice × quantity rounded to cents.
func lineTotal(unitPrice float64, quantity int) decimal.Decimal {
	return money(unitPrice).Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// computeTotals derives tax, shipping and the final amount from the sum of
// line totals. Shipping is free strictly above the threshold.
func computeTotals(lines []decimal.Decimal) Totals {
	total := decimal.Sum(decimal.Zero, lines...).Round(2)
	tax := total.Mul(taxRate).Round(2)
	shipping := flatShippingFee
	if total.GreaterThan(freeShippingThreshold) {
		shipping = decimal.Zero
	}
	final := total.Add(tax).Add(shipping).Round(2)
	return Totals{
		TotalAmount:  total.InexactFloat64(),
		TaxAmount:    tax.InexactFloat64(),
		ShippingCost: shipping.InexactFloat64(),
		FinalAmount:  final.InexactFloat64(),
	}
}

func round2(v float64) float64 {
	return money(v).Round(2).InexactFloat64()
}
