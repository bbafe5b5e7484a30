package provision

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
	"github.com/Veraticus/the-tax-must-flow/internal/taxyear"
)

// aotcStudent is one student's American opportunity credit before phase-out:
// all of the first tier of expenses plus a share of the second.
func aotcStudent(in *Inputs) (model.LineValue, error) {
	ed := in.Params().Education
	expenses := in.NonNegative("net_expenses")
	if !in.Bool("aotc_eligible") {
		return in.exact(money.Zero)
	}
	first := expenses.Min(ed.AOTCFirstTier)
	second := expenses.Sub(first).Min(ed.AOTCSecondTier).MulRate(ed.AOTCSecondRate)
	return in.result(first.Add(second))
}

// llcExpenses routes a student's expenses to the lifetime learning credit
// when the American opportunity credit is not claimed for that student.
func llcExpenses(in *Inputs) (model.LineValue, error) {
	expenses := in.NonNegative("net_expenses")
	if in.Bool("aotc_eligible") {
		return in.exact(money.Zero)
	}
	return in.exact(expenses)
}

func llcCredit(in *Inputs) (model.LineValue, error) {
	ed := in.Params().Education
	expenses := in.NonNegative("llc_expenses")
	return in.result(expenses.Min(ed.LLCExpenseLimit).MulRate(ed.LLCRate))
}

func educationPhaseOut(in *Inputs) (model.LineValue, error) {
	credit := in.NonNegative("credit")
	agi := in.Amount("agi")
	po := lookup(in, "education.phase_out", in.Params().Education.PhaseOut)
	if in.Status() == model.MarriedSeparately || in.Profile().ClaimedAsDependent {
		return in.exact(money.Zero)
	}
	return in.result(ratioPhaseOut(credit, agi, po))
}

func educationRefundable(in *Inputs) (model.LineValue, error) {
	allowed := in.NonNegative("aotc_allowed")
	return in.result(allowed.MulRate(in.Params().Education.RefundableShare))
}

// careRate is the dependent care credit percentage for agi.
func careRate(dc taxyear.DependentCare, agi money.Amount) decimal.Decimal {
	over := agi.Sub(dc.RateThreshold)
	if !over.IsPositive() {
		return dc.MaxRate
	}
	steps := over.Ratio(dc.RateStep).Ceil()
	r := dc.MaxRate.Sub(steps.Mul(dc.RateStepPercent))
	if r.LessThan(dc.MinRate) {
		return dc.MinRate
	}
	return r
}

// dependentCareCredit limits qualifying expenses by the number of qualifying
// persons and by the lower earner's income, then applies the AGI-based rate.
func dependentCareCredit(in *Inputs) (model.LineValue, error) {
	dc := in.Params().DependentCare
	expenses := in.NonNegative("care_expenses")
	spouseEarned := in.NonNegative("spouse_earned_income")
	earned := in.NonNegative("earned_income")
	agi := in.Amount("agi")
	if in.Err() != nil || in.Status() == model.MarriedSeparately {
		return in.exact(money.Zero)
	}

	qualifying := 0
	for _, d := range in.Profile().Dependents {
		if d.Age < dc.QualifyingAge || d.Disabled {
			qualifying++
		}
	}
	if qualifying == 0 {
		return in.exact(money.Zero)
	}

	limit := dc.OnePersonLimit
	if qualifying > 1 {
		limit = dc.TwoOrMoreLimit
	}
	earnedLimit := earned
	if in.Status() == model.MarriedJointly {
		earnedLimit = earned.Sub(spouseEarned).ClampZero().Min(spouseEarned)
	}
	allowed := minAmount(expenses, limit, earnedLimit).ClampZero()
	return in.result(allowed.MulRate(careRate(dc, agi)))
}

// saversCredit applies the AGI tier rate to capped contributions.
func saversCredit(in *Inputs) (model.LineValue, error) {
	sc := in.Params().SaversCredit
	p := in.Profile()
	eligible := in.NonNegative("taxpayer_contributions").Min(sc.ContributionLimit)
	spouse := in.NonNegative("spouse_contributions").Min(sc.ContributionLimit)
	agi := in.Amount("agi")
	tiers := lookup(in, "savers_credit.tiers", sc.Tiers)
	if in.Err() != nil || p.ClaimedAsDependent || p.Taxpayer.Age < 18 {
		return in.exact(money.Zero)
	}
	if p.Status == model.MarriedJointly {
		eligible = eligible.Add(spouse)
	}
	for _, tier := range tiers {
		if !agi.GreaterThan(tier.UpTo) {
			return in.result(eligible.MulRate(tier.Rate))
		}
	}
	return in.exact(money.Zero)
}

// foreignTaxCredit allows foreign taxes in full under the de minimis election,
// otherwise limited to the share of tax attributable to foreign income.
func foreignTaxCredit(in *Inputs) (model.LineValue, error) {
	paid := in.NonNegative("interest_foreign_tax").Add(in.NonNegative("dividend_foreign_tax"))
	foreign := in.NonNegative("interest_foreign_income").Add(in.NonNegative("dividend_foreign_income"))
	ti := in.Amount("taxable_income")
	tax := in.NonNegative("tax")
	deMinimis := lookup(in, "foreign_tax.de_minimis", in.Params().ForeignTax.DeMinimis)
	if in.Err() != nil || !paid.IsPositive() {
		return in.exact(money.Zero)
	}
	if !paid.GreaterThan(deMinimis) {
		return in.result(paid)
	}
	if !ti.IsPositive() {
		return in.exact(money.Zero)
	}
	limit := tax.MulRate(clampRate(foreign.Ratio(ti)))
	return in.result(paid.Min(limit))
}

// creditOrdering applies the nonrefundable credits against liability in the
// parameter set's order and returns the allowed portion of one of them.
func creditOrdering(in *Inputs) (model.LineValue, error) {
	remaining := in.Amount("liability").ClampZero()
	want := taxyear.CreditKind(in.Param())
	for _, kind := range in.Params().CreditOrder {
		allowed := in.NonNegative(string(kind)).Min(remaining)
		remaining = remaining.Sub(allowed)
		if kind == want {
			return in.exact(allowed)
		}
	}
	in.Fail(&common.MissingParameterError{
		Year:      in.Params().Year,
		Parameter: fmt.Sprintf("credit_order[%s]", want),
	})
	return in.exact(money.Zero)
}

// childCounts splits dependents into children qualifying for the child tax
// credit and everyone else.
func childCounts(ctc taxyear.ChildTaxCredit, deps []model.Dependent) (children, others int) {
	for _, d := range deps {
		if d.Kind == model.QualifyingChild && d.Age < ctc.ChildAgeLimit {
			children++
		} else {
			others++
		}
	}
	return children, others
}

func ctcBase(in *Inputs) (model.LineValue, error) {
	ctc := in.Params().ChildTaxCredit
	children, others := childCounts(ctc, in.Profile().Dependents)
	return in.result(ctc.PerChild.MulInt(children).Add(ctc.PerOtherDependent.MulInt(others)))
}

func ctcPhaseOut(in *Inputs) (model.LineValue, error) {
	credit := in.NonNegative("credit")
	agi := in.Amount("agi")
	po := lookup(in, "child_tax_credit.phase_out", in.Params().ChildTaxCredit.PhaseOut)
	if in.Err() != nil {
		return in.exact(money.Zero)
	}
	return in.result(stepPhaseOut(credit, agi, po).ClampZero())
}

// ctcRefundable is the additional child tax credit: the unused credit, capped
// per child and by the earned income formula. Filers with enough children may
// use social security taxes less the earned income credit instead.
func ctcRefundable(in *Inputs) (model.LineValue, error) {
	ctc := in.Params().ChildTaxCredit
	excess := in.NonNegative("excess_credit")
	earned := in.NonNegative("earned_income")
	ssTaxes := in.NonNegative("social_security_taxes")
	eic := in.NonNegative("earned_income_credit")
	children, _ := childCounts(ctc, in.Profile().Dependents)
	if in.Err() != nil || children == 0 {
		return in.exact(money.Zero)
	}

	earnedPart := earned.Sub(ctc.EarnedIncomeFloor).ClampZero().MulRate(ctc.EarnedIncomeRate)
	if children >= ctc.AlternativeMinimum {
		earnedPart = earnedPart.Max(ssTaxes.Sub(eic).ClampZero())
	}
	return in.result(minAmount(excess, ctc.RefundablePerChild.MulInt(children), earnedPart))
}

func eitcInvestmentIncome(in *Inputs) (model.LineValue, error) {
	income := money.Sum(
		in.Amount("interest"),
		in.Amount("tax_exempt_interest"),
		in.Amount("ordinary_dividends"),
		in.Amount("capital_gain").ClampZero(),
	)
	return in.exact(income.ClampZero())
}

// eitcChildren counts qualifying children for the earned income credit.
func eitcChildren(e taxyear.EITC, deps []model.Dependent) int {
	n := 0
	for _, d := range deps {
		if d.Kind != model.QualifyingChild {
			continue
		}
		if d.Age < e.ChildAgeLimit || (d.Student && d.Age < e.StudentAgeLimit) || d.Disabled {
			n++
		}
	}
	return n
}

func childlessAgeOK(e taxyear.EITC, p *model.FilingProfile) bool {
	inRange := func(age int) bool { return age >= e.ChildlessMinAge && age <= e.ChildlessMaxAge }
	if inRange(p.Taxpayer.Age) {
		return true
	}
	return p.Status == model.MarriedJointly && p.Spouse != nil && inRange(p.Spouse.Age)
}

// eitcAmount evaluates one credit schedule at income x, using the table row
// midpoint below the table ceiling.
func eitcAmount(e taxyear.EITC, s taxyear.EITCSchedule, start, x money.Amount) money.Amount {
	if !x.IsPositive() {
		return money.Zero
	}
	if x.LessThan(e.TableCeiling) {
		rows := x.Ratio(e.BandWidth).Floor()
		x = e.BandWidth.MulRate(rows).Add(e.BandWidth.MulRate(half))
	}
	credit := x.Min(s.EarnedIncomeAmount).MulRate(s.CreditRate).Min(s.MaxCredit)
	reduction := x.Sub(start).ClampZero().MulRate(s.PhaseOutRate)
	return credit.Sub(reduction).ClampZero()
}

// eitc is the earned income credit: the schedule evaluated on earned income,
// and on AGI as well once AGI reaches the phase-out start, taking the smaller.
func eitc(in *Inputs) (model.LineValue, error) {
	e := in.Params().EITC
	p := in.Profile()
	earned := in.NonNegative("earned_income")
	agi := in.Amount("agi")
	investment := in.NonNegative("investment_income")
	if in.Err() != nil {
		return in.exact(money.Zero)
	}
	if len(e.Schedules) == 0 {
		in.Fail(&common.MissingParameterError{Year: in.Params().Year, Parameter: "eitc.schedules"})
		return in.exact(money.Zero)
	}
	if p.Status == model.MarriedSeparately || p.ClaimedAsDependent || investment.GreaterThan(e.InvestmentIncomeLimit) {
		return in.exact(money.Zero)
	}

	children := eitcChildren(e, p.Dependents)
	if children == 0 && !childlessAgeOK(e, p) {
		return in.exact(money.Zero)
	}
	s := e.Schedules[min(children, len(e.Schedules)-1)]
	start := s.PhaseOutStart
	if p.Status == model.MarriedJointly {
		start = s.PhaseOutStartJoint
	}

	credit := eitcAmount(e, s, start, earned)
	if !agi.LessThan(start) {
		credit = credit.Min(eitcAmount(e, s, start, agi))
	}
	return in.result(credit)
}
