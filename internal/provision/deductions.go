package provision

import (
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
)

var seEarningsRate = money.Rate("0.9235")

func seNetEarnings(in *Inputs) (model.LineValue, error) {
	earnings := in.Amount("net_profit").MulRate(seEarningsRate)
	if earnings.LessThan(in.Params().SelfEmployment.MinimumEarnings) {
		return in.exact(money.Zero)
	}
	return in.result(earnings)
}

// seSocialSecurity taxes net earnings up to what remains of the wage base
// after W-2 social security wages.
func seSocialSecurity(in *Inputs) (model.LineValue, error) {
	se := in.Params().SelfEmployment
	earnings := in.NonNegative("net_earnings")
	room := se.WageBase.Sub(in.NonNegative("ss_wages")).ClampZero()
	return in.result(earnings.Min(room).MulRate(se.SocialSecurityRate))
}

func seMedicare(in *Inputs) (model.LineValue, error) {
	earnings := in.NonNegative("net_earnings")
	return in.result(earnings.MulRate(in.Params().SelfEmployment.MedicareRate))
}

func seDeduction(in *Inputs) (model.LineValue, error) {
	return in.result(in.NonNegative("se_tax").MulRate(half))
}

// educatorDeduction caps each educator's expenses separately. Spouse expenses
// only count on a joint return.
func educatorDeduction(in *Inputs) (model.LineValue, error) {
	limit := in.Params().Adjustments.EducatorExpenseCap
	total := in.NonNegative("educator_expenses").Min(limit)
	spouse := in.NonNegative("spouse_educator_expenses").Min(limit)
	if in.Status() == model.MarriedJointly {
		total = total.Add(spouse)
	}
	return in.result(total)
}

// studentLoanDeduction phases the capped interest out on modified AGI, which
// is total income less every other adjustment. Computing MAGI without the
// deduction itself keeps the line acyclic.
func studentLoanDeduction(in *Inputs) (model.LineValue, error) {
	adj := in.Params().Adjustments
	interest := in.NonNegative("interest")
	magi := in.Amount("total_income").Sub(in.Amount("other_adjustments"))
	po := lookup(in, "adjustments.student_loan_phase_out", adj.StudentLoanPhaseOut)
	if in.Status() == model.MarriedSeparately || in.Profile().ClaimedAsDependent {
		return in.exact(money.Zero)
	}
	return in.result(ratioPhaseOut(interest.Min(adj.StudentLoanCap), magi, po))
}

func medicalDeduction(in *Inputs) (model.LineValue, error) {
	expenses := in.NonNegative("medical_expenses")
	floor := in.Amount("agi").ClampZero().MulRate(in.Params().Itemized.MedicalFloorRate)
	return in.result(expenses.Sub(floor).ClampZero())
}

// saltDeduction caps state and local taxes. The cap shrinks by a share of AGI
// above the threshold but never below the floor.
func saltDeduction(in *Inputs) (model.LineValue, error) {
	it := in.Params().Itemized
	taxes := in.NonNegative("taxes_paid")
	agi := in.Amount("agi")
	limit := lookup(in, "itemized.salt_cap", it.SALTCap)
	threshold := lookup(in, "itemized.salt_threshold", it.SALTThreshold)
	floor := lookup(in, "itemized.salt_floor", it.SALTFloor)

	reduction := agi.Sub(threshold).ClampZero().MulRate(it.SALTReductionRate)
	limit = limit.Sub(reduction).Max(floor)
	return in.result(taxes.Min(limit))
}

// scheduleOneA is the shared shape of the tips and overtime deductions.
func scheduleOneA(in *Inputs, name string, limit money.Amount) (model.LineValue, error) {
	amount := in.NonNegative(name)
	agi := in.Amount("agi")
	po := lookup(in, "schedule1a.income_phase_out", in.Params().Schedule1A.IncomePhaseOut)
	if in.Status() == model.MarriedSeparately {
		return in.exact(money.Zero)
	}
	return in.result(stepPhaseOut(amount.Min(limit), agi, po).ClampZero())
}

func tipsDeduction(in *Inputs) (model.LineValue, error) {
	return scheduleOneA(in, "tips", in.Params().Schedule1A.TipsCap)
}

func overtimeDeduction(in *Inputs) (model.LineValue, error) {
	limit := lookup(in, "schedule1a.overtime_cap", in.Params().Schedule1A.OvertimeCap)
	return scheduleOneA(in, "overtime", limit)
}

// seniorDeduction allows a fixed amount per counted person at or above the
// senior age, each phased out on AGI.
func seniorDeduction(in *Inputs) (model.LineValue, error) {
	s := in.Params().Schedule1A
	agi := in.Amount("agi")
	po := lookup(in, "schedule1a.senior_phase_out", s.SeniorPhaseOut)
	if in.Status() == model.MarriedSeparately {
		return in.exact(money.Zero)
	}

	total := money.Zero
	for _, person := range in.Profile().CountedPersons() {
		if person.Age >= s.SeniorAge {
			total = total.Add(stepPhaseOut(s.SeniorAmount, agi, po).ClampZero())
		}
	}
	return in.result(total)
}

// qbiDeduction is the qualified business income deduction. Above the
// threshold the W-2 wage and UBIA limit phases in over the range, and a
// specified service business phases out entirely.
func qbiDeduction(in *Inputs) (model.LineValue, error) {
	q := in.Params().QBI
	qbi := in.Amount("qbi")
	wages := in.NonNegative("w2_wages")
	ubia := in.NonNegative("ubia")
	sstb := in.Bool("sstb")
	ti := in.Amount("taxable_income_before_qbi")
	netCapitalGain := in.NonNegative("net_capital_gain")
	threshold := lookup(in, "qbi.threshold", q.Threshold)
	phaseIn := lookup(in, "qbi.phase_in_range", q.PhaseInRange)
	if in.Err() != nil || !qbi.IsPositive() {
		return in.exact(money.Zero)
	}

	component := qbi.MulRate(q.Rate)
	if over := ti.Sub(threshold); over.IsPositive() {
		fraction := clampRate(over.Ratio(phaseIn))
		if sstb {
			keep := one.Sub(fraction)
			qbi, wages, ubia = qbi.MulRate(keep), wages.MulRate(keep), ubia.MulRate(keep)
			component = qbi.MulRate(q.Rate)
		}
		wageLimit := wages.MulRate(q.WageRate).Max(wages.MulRate(q.AltWageRate).Add(ubia.MulRate(q.UBIARate)))
		if wageLimit.LessThan(component) {
			component = component.Sub(component.Sub(wageLimit).MulRate(fraction))
		}
	}

	incomeLimit := ti.Sub(netCapitalGain).ClampZero().MulRate(q.Rate)
	return in.result(component.Min(incomeLimit))
}

func additionalMedicareWages(in *Inputs) (model.LineValue, error) {
	am := in.Params().AdditionalMedicare
	wages := in.NonNegative("medicare_wages")
	threshold := lookup(in, "additional_medicare.threshold", am.Threshold)
	return in.result(wages.Sub(threshold).ClampZero().MulRate(am.Rate))
}

// additionalMedicareSE applies the surtax to self-employment income above the
// threshold left after Medicare wages.
func additionalMedicareSE(in *Inputs) (model.LineValue, error) {
	am := in.Params().AdditionalMedicare
	income := in.NonNegative("se_income")
	wages := in.NonNegative("medicare_wages")
	threshold := lookup(in, "additional_medicare.threshold", am.Threshold)
	remaining := threshold.Sub(wages).ClampZero()
	return in.result(income.Sub(remaining).ClampZero().MulRate(am.Rate))
}

// medicareWithholding is Medicare tax withheld beyond the regular employee
// share, creditable as a payment.
func medicareWithholding(in *Inputs) (model.LineValue, error) {
	withheld := in.NonNegative("medicare_withheld")
	wages := in.NonNegative("medicare_wages")
	regular := wages.MulRate(in.Params().SelfEmployment.MedicareRate.Mul(half))
	return in.result(withheld.Sub(regular).ClampZero())
}

func netInvestmentIncome(in *Inputs) (model.LineValue, error) {
	return in.exact(money.Sum(in.Amounts()...).ClampZero())
}

func niit(in *Inputs) (model.LineValue, error) {
	s := in.Params().NIIT
	nii := in.NonNegative("net_investment_income")
	agi := in.Amount("agi")
	threshold := lookup(in, "niit.threshold", s.Threshold)
	return in.result(nii.Min(agi.Sub(threshold)).ClampZero().MulRate(s.Rate))
}
