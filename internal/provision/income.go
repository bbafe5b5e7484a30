package provision

import (
	"fmt"

	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/forms"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
)

// earnedIncome is wages plus net self-employment income less the deductible
// half of self-employment tax.
func earnedIncome(in *Inputs) (model.LineValue, error) {
	wages := in.Amount("wages")
	se := in.Amount("se_net_profit").Sub(in.Amount("se_deduction"))
	return in.result(wages.Add(se).ClampZero())
}

func taxableBeforeQBI(in *Inputs) (model.LineValue, error) {
	agi := in.Amount("agi")
	deductions := in.NonNegative("deduction").Add(in.NonNegative("schedule1a_deduction"))
	return in.exact(agi.Sub(deductions).ClampZero())
}

func standardDeduction(in *Inputs) (model.LineValue, error) {
	p := in.Profile()
	sd := in.Params().StandardDeduction
	if p.DualStatusAlien || (p.Status == model.MarriedSeparately && p.SpouseItemizes) {
		return in.exact(money.Zero)
	}

	base := lookup(in, "standard_deduction.base", sd.Base)
	if p.ClaimedAsDependent {
		earned := in.Amount("earned_income").Add(sd.DependentEarnedAddition)
		base = base.Min(earned.Max(sd.DependentMinimum))
	}

	additional := sd.AdditionalUnmarried
	if p.Status.Married() {
		additional = sd.AdditionalMarried
	}
	boxes := 0
	for _, person := range p.CountedPersons() {
		if person.Age >= sd.AdditionalAge {
			boxes++
		}
		if person.Blind {
			boxes++
		}
	}
	return in.result(base.Add(additional.MulInt(boxes)))
}

// deductionMethod picks the larger deduction. Itemizing is forced by the
// filer's election, by a separately filing spouse who itemizes and for
// dual-status aliens. A tie keeps the standard deduction.
func deductionMethod(in *Inputs) (model.LineValue, error) {
	p := in.Profile()
	standard := in.Amount("standard_deduction")
	itemized := in.Amount("itemized_deductions")
	if err := in.Err(); err != nil {
		return model.LineValue{}, err
	}

	forced := p.Elections.ForceItemize || p.DualStatusAlien ||
		(p.Status == model.MarriedSeparately && p.SpouseItemizes)
	if forced || itemized.GreaterThan(standard) {
		return model.ChoiceValue(forms.MethodItemized), nil
	}
	return model.ChoiceValue(forms.MethodStandard), nil
}

func deductionSelected(in *Inputs) (model.LineValue, error) {
	method := in.Choice("deduction_method")
	standard := in.Amount("standard_deduction")
	itemized := in.Amount("itemized_deductions")
	switch method {
	case forms.MethodStandard:
		return in.exact(standard)
	case forms.MethodItemized:
		return in.exact(itemized)
	}
	in.Fail(fmt.Errorf("%w: unknown deduction method %q", common.ErrInvalidInput, method))
	return in.exact(money.Zero)
}

// regularTax is the income tax on taxable income. When part of the income is
// taxed at preferential rates the qualified dividends and capital gain
// worksheet applies, and the result never exceeds the ordinary-rate tax.
func regularTax(in *Inputs) (model.LineValue, error) {
	ti := in.Amount("taxable_income")
	pref := in.NonNegative("preferential_income")
	schedule := lookup(in, "brackets", in.Params().Brackets)
	if in.Err() != nil || !ti.IsPositive() {
		return in.exact(money.Zero)
	}

	full := ordinaryTax(in.Params(), schedule, ti)
	if !pref.IsPositive() {
		return in.result(full)
	}
	return in.result(preferentialTax(in, schedule, ti, pref).Min(full))
}

// capitalLossLimit caps a net capital loss at the status limit.
func capitalLossLimit(in *Inputs) (model.LineValue, error) {
	net := in.Amount("net_gain")
	limit := lookup(in, "capital_gains.loss_limit", in.Params().CapitalGains.LossLimit)
	return in.result(net.Max(limit.Neg()))
}

// preferentialGain is the net capital gain eligible for preferential rates:
// the smaller of net long-term gain and total net gain, never negative.
func preferentialGain(in *Inputs) (model.LineValue, error) {
	longTerm := in.Amount("net_long_term")
	net := in.Amount("net_gain")
	return in.exact(longTerm.Min(net).ClampZero())
}

func preferentialIncome(in *Inputs) (model.LineValue, error) {
	qualified := in.NonNegative("qualified_dividends")
	gain := in.NonNegative("preferential_gain")
	ti := in.Amount("taxable_income")
	return in.exact(qualified.Add(gain).Min(ti).ClampZero())
}
