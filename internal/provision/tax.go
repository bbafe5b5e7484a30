package provision

import (
	"github.com/Veraticus/the-tax-must-flow/internal/forms"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
	"github.com/Veraticus/the-tax-must-flow/internal/taxyear"
)

// rateSplit is how preferential income divides between the 0%, 15% and 20% bands.
type rateSplit struct {
	zero    money.Amount
	fifteen money.Amount
	twenty  money.Amount
}

// splitPreferential divides pref (already limited to income) across the
// capital gain rate bands, stacking it on top of ordinary income.
func splitPreferential(in *Inputs, ordinary, income, pref money.Amount) rateSplit {
	cg := in.Params().CapitalGains
	zeroMax := lookup(in, "capital_gains.zero_rate_max", cg.ZeroRateMax)
	fifteenMax := lookup(in, "capital_gains.fifteen_rate_max", cg.FifteenRateMax)

	var s rateSplit
	s.zero = zeroMax.Sub(ordinary).ClampZero().Min(pref)
	fifteenRoom := fifteenMax.Min(income).Sub(ordinary.Add(s.zero)).ClampZero()
	s.fifteen = pref.Sub(s.zero).Min(fifteenRoom)
	s.twenty = pref.Sub(s.zero).Sub(s.fifteen).ClampZero()
	return s
}

func (s rateSplit) tax(cg taxyear.CapitalGains) money.Amount {
	return money.Sum(s.zero.MulRate(cg.LowRate), s.fifteen.MulRate(cg.MidRate), s.twenty.MulRate(cg.HighRate))
}

// preferentialTax is the qualified dividends and capital gain tax worksheet
// before the comparison with the all-ordinary tax.
func preferentialTax(in *Inputs, schedule taxyear.Schedule, ti, pref money.Amount) money.Amount {
	pref = pref.Min(ti)
	ordinary := ti.Sub(pref)
	split := splitPreferential(in, ordinary, ti, pref)
	return ordinaryTax(in.Params(), schedule, ordinary).Add(split.tax(in.Params().CapitalGains))
}

// amtIncome adds back the deduction the regular tax allowed but the minimum
// tax does not: the standard deduction, or state and local taxes when itemizing.
func amtIncome(in *Inputs) (model.LineValue, error) {
	ti := in.Amount("taxable_income")
	method := in.Choice("deduction_method")
	addBack := in.NonNegative("salt_deduction")
	if method != forms.MethodItemized {
		addBack = in.NonNegative("standard_deduction")
	}
	return in.exact(ti.Add(addBack))
}

func amtExemption(in *Inputs) (model.LineValue, error) {
	amti := in.Amount("amti")
	amt := in.Params().AMT
	exemption := lookup(in, "amt.exemption", amt.Exemption)
	po := lookup(in, "amt.phase_out", amt.PhaseOut)
	if in.Err() != nil {
		return in.exact(money.Zero)
	}
	return in.result(stepPhaseOut(exemption, amti, po).ClampZero())
}

// flatAMT applies the two minimum tax rates.
func flatAMT(amt taxyear.AMT, rateBreak, base money.Amount) money.Amount {
	if !base.GreaterThan(rateBreak) {
		return base.MulRate(amt.LowRate)
	}
	return rateBreak.MulRate(amt.LowRate).Add(base.Sub(rateBreak).MulRate(amt.HighRate))
}

// amtTentative is the tentative minimum tax. Preferential income keeps its
// capital gain rates (Part III) when that is lower than the flat rates.
func amtTentative(in *Inputs) (model.LineValue, error) {
	base := in.Amount("amt_base")
	pref := in.NonNegative("preferential_income")
	ti := in.Amount("taxable_income")
	amt := in.Params().AMT
	rateBreak := lookup(in, "amt.rate_break", amt.RateBreak)
	if in.Err() != nil || !base.IsPositive() {
		return in.exact(money.Zero)
	}

	flat := flatAMT(amt, rateBreak, base)
	pref = pref.Min(base)
	if !pref.IsPositive() {
		return in.result(flat)
	}

	regularOrdinary := ti.Sub(pref).ClampZero()
	split := splitPreferential(in, regularOrdinary, base.Max(ti), pref)
	partIII := flatAMT(amt, rateBreak, base.Sub(pref)).Add(split.tax(in.Params().CapitalGains))
	return in.result(partIII.Min(flat))
}
