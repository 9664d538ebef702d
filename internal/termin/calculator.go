package termin

import (
	"github.com/shopspring/decimal"
)

// DesignDownPayment is the fixed first tranche of every design contract.
var DesignDownPayment = decimal.NewFromInt(2_500_000)

// CurrencyScale is zero: amounts are whole units of the smallest currency unit.
const CurrencyScale int32 = 0

var hundred = decimal.NewFromInt(100)

type Calculator struct {
	DownPayment decimal.Decimal
}

func NewCalculator(downPayment decimal.Decimal) Calculator {
	if downPayment.LessThanOrEqual(decimal.Zero) {
		downPayment = DesignDownPayment
	}
	return Calculator{DownPayment: downPayment}
}

// Recalculate uses the built-in design down payment.
func Recalculate(ms []Milestone, total decimal.Decimal, c Category) []Milestone {
	return NewCalculator(DesignDownPayment).Recalculate(ms, total, c)
}

// Recalculate re-derives every milestone amount from scratch.
//
// Rules, applied strictly in document order with a running sum:
// - DP on a design document is the fixed down payment regardless of total.
// - Pelunasan/remainder takes total minus everything before it, floored at zero.
// - A percentage with total > 0 is total*pct/100 in whole units. Rounding is applied to
//   the cumulative percentage share, so the rounded tranches never drift more than half
//   a unit from the exact split.
// - Anything else keeps its stored amount.
//
// The input slice is not modified.
func (calc Calculator) Recalculate(ms []Milestone, total decimal.Decimal, c Category) []Milestone {
	out := Clone(ms)
	running := decimal.Zero
	cumPct := decimal.Zero
	for i := range out {
		sp := ParseSpec(out[i].Spec)
		switch {
		case sp.Kind == KindDownPayment && c == CategoryDesign:
			out[i].Amount = calc.DownPayment
		case sp.Kind == KindRemainder:
			left := total.Sub(running)
			if left.IsNegative() {
				left = decimal.Zero
			}
			out[i].Amount = left
		case sp.Kind == KindPercentage && total.IsPositive():
			prev := share(total, cumPct)
			cumPct = cumPct.Add(sp.Percent)
			out[i].Amount = share(total, cumPct).Sub(prev)
		}
		running = running.Add(out[i].Amount)
	}
	return out
}

// share is total*pct/100 rounded to whole units.
func share(total, pct decimal.Decimal) decimal.Decimal {
	return total.Mul(pct).Div(hundred).Round(CurrencyScale)
}

// DeriveTotal returns the authoritative contract value. Design contracts price by
// area; the others take the manually entered figure. Either way the result is in
// whole units.
func DeriveTotal(c Category, area, unitPrice, manual decimal.Decimal) decimal.Decimal {
	if c.ManualTotal() {
		return manual.Round(CurrencyScale)
	}
	return area.Mul(unitPrice).Round(CurrencyScale)
}

func Sum(ms []Milestone) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range ms {
		sum = sum.Add(m.Amount)
	}
	return sum
}
