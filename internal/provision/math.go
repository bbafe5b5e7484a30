package provision

import (
	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-tax-must-flow/internal/money"
	"github.com/Veraticus/the-tax-must-flow/internal/taxyear"
)

var (
	one  = decimal.NewFromInt(1)
	half = money.Rate("0.5")
)

// bracketTax applies a rate schedule to income with no rounding.
func bracketTax(s taxyear.Schedule, income money.Amount) money.Amount {
	if !income.IsPositive() {
		return money.Zero
	}
	tax := money.Zero
	for i, b := range s {
		if !income.GreaterThan(b.Threshold) {
			break
		}
		top := income
		if i+1 < len(s) && s[i+1].Threshold.LessThan(income) {
			top = s[i+1].Threshold
		}
		tax = tax.Add(top.Sub(b.Threshold).MulRate(b.Rate))
	}
	return tax
}

// tableRow returns the midpoint of the table row containing income, or false
// when income is at or above the table ceiling.
func tableRow(t taxyear.TaxTable, income money.Amount) (money.Amount, bool) {
	if !income.LessThan(t.Ceiling) {
		return money.Zero, false
	}
	for _, band := range t.Bands {
		if income.LessThan(band.From) || !income.LessThan(band.To) {
			continue
		}
		rows := income.Sub(band.From).Ratio(band.Width).Floor()
		start := band.From.Add(band.Width.MulRate(rows))
		return start.Add(band.Width.MulRate(half)), true
	}
	return money.Zero, false
}

// ordinaryTax is the tax on income at ordinary rates: the tax table below the
// ceiling, the bracket formula above it.
func ordinaryTax(p *taxyear.Parameters, s taxyear.Schedule, income money.Amount) money.Amount {
	if !income.IsPositive() {
		return money.Zero
	}
	if mid, ok := tableRow(p.TaxTable, income); ok {
		return bracketTax(s, mid).RoundDollar()
	}
	return bracketTax(s, income)
}

// stepPhaseOut reduces base by Reduction for every Step, or part of one, by
// which income exceeds Threshold. The result never drops below Floor.
func stepPhaseOut(base, income money.Amount, po taxyear.PhaseOut) money.Amount {
	excess := income.Sub(po.Threshold)
	if !excess.IsPositive() {
		return base
	}
	steps := excess.Ratio(po.Step).Ceil()
	reduced := base.Sub(money.FromDecimal(steps.Mul(po.Reduction)))
	floor := po.Floor
	if base.LessThan(floor) {
		floor = base
	}
	return reduced.Max(floor)
}

// ratioPhaseOut scales amount down linearly as income moves from Start to End.
func ratioPhaseOut(amount, income money.Amount, po taxyear.RatioPhaseOut) money.Amount {
	if !income.GreaterThan(po.Start) {
		return amount
	}
	if !income.LessThan(po.End) {
		return money.Zero
	}
	fraction := income.Sub(po.Start).Ratio(po.End.Sub(po.Start))
	return amount.Sub(amount.MulRate(fraction))
}

// clampRate limits r to [0, 1].
func clampRate(r decimal.Decimal) decimal.Decimal {
	if r.IsNegative() {
		return decimal.Zero
	}
	if r.GreaterThan(one) {
		return one
	}
	return r
}

func minAmount(first money.Amount, rest ...money.Amount) money.Amount {
	m := first
	for _, a := range rest {
		m = m.Min(a)
	}
	return m
}
