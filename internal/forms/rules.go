package forms

import "github.com/Veraticus/the-tax-must-flow/internal/model"

// Rule identifiers. Every computed line names the rule that evaluates it;
// package provision implements each one.
const (
	RuleInput        = "input"
	RuleInputDefault = "input.default"

	RuleSum             = "sum"
	RuleAny             = "any"
	RuleDifference      = "difference"
	RuleDifferenceFloor = "difference.floor_zero"

	RuleEarnedIncome      = "income.earned"
	RuleTaxableBeforeQBI  = "income.taxable_before_qbi"
	RuleStandardDeduction = "deduction.standard"
	RuleDeductionMethod   = "deduction.method"
	RuleDeductionSelected = "deduction.selected"
	RuleRegularTax        = "tax.regular"

	RuleCapitalLossLimit          = "capital.loss_limit"
	RuleCapitalPreferentialGain   = "capital.preferential_gain"
	RuleCapitalPreferentialIncome = "capital.preferential_income"

	RuleSENetEarnings    = "se.net_earnings"
	RuleSESocialSecurity = "se.social_security"
	RuleSEMedicare       = "se.medicare"
	RuleSEDeduction      = "se.deduction"

	RuleEducatorDeduction    = "adjustments.educator"
	RuleStudentLoanDeduction = "adjustments.student_loan"

	RuleMedicalDeduction = "itemized.medical"
	RuleSALTDeduction    = "itemized.salt"

	RuleTipsDeduction     = "schedule1a.tips"
	RuleOvertimeDeduction = "schedule1a.overtime"
	RuleSeniorDeduction   = "schedule1a.senior"

	RuleQBIDeduction = "qbi.deduction"

	RuleAOTCStudent         = "education.aotc_student"
	RuleLLCExpenses         = "education.llc_expenses"
	RuleLLCCredit           = "education.llc"
	RuleEducationPhaseOut   = "education.phase_out"
	RuleEducationRefundable = "education.refundable"

	RuleDependentCareCredit = "credit.dependent_care"
	RuleSaversCredit        = "credit.savers"
	RuleForeignTaxCredit    = "credit.foreign_tax"
	RuleCreditOrdering      = "credit.ordering"

	RuleCTCBase       = "ctc.base"
	RuleCTCPhaseOut   = "ctc.phase_out"
	RuleCTCRefundable = "ctc.refundable"

	RuleAdditionalMedicareWages = "medicare.additional_wages"
	RuleAdditionalMedicareSE    = "medicare.additional_se"
	RuleMedicareWithholding     = "medicare.withholding"

	RuleNetInvestmentIncome = "niit.income"
	RuleNIIT                = "niit.tax"

	RuleAMTIncome    = "amt.income"
	RuleAMTExemption = "amt.exemption"
	RuleAMTTentative = "amt.tentative"

	RuleEITCInvestmentIncome = "eitc.investment_income"
	RuleEITC                 = "eitc.credit"
)

// Deduction method choices.
const (
	MethodStandard = "standard"
	MethodItemized = "itemized"
)

func amountInput(id model.LineID) Line {
	return Line{ID: id, Kind: model.KindAmount, Policy: InputDefaultZero}
}

func requiredAmount(id model.LineID) Line {
	return Line{ID: id, Kind: model.KindAmount, Policy: InputRequired}
}

func boolInput(id model.LineID) Line {
	return Line{ID: id, Kind: model.KindBool, Policy: InputDefaultZero}
}

func amount(id model.LineID, rule string, refs ...Ref) Line {
	return Line{ID: id, Kind: model.KindAmount, Rule: rule, Refs: refs}
}

func flag(id model.LineID, rule string, refs ...Ref) Line {
	return Line{ID: id, Kind: model.KindBool, Rule: rule, Refs: refs}
}

func choice(id model.LineID, rule string, refs ...Ref) Line {
	return Line{ID: id, Kind: model.KindChoice, Rule: rule, Refs: refs}
}

func (l Line) facts(names ...string) Line {
	l.Facts = names
	return l
}

func (l Line) param(p string) Line {
	l.Param = p
	return l
}

// ref reads the single instance of form, failing the run when it is absent.
func ref(form model.FormType, line model.LineID) Ref {
	return Ref{Name: string(line), Form: form, Line: line, Scope: ScopeSingle, Absent: AbsentRequired}
}

// own reads another line of the same instance.
func own(form model.FormType, line model.LineID) Ref {
	return Ref{Name: string(line), Form: form, Line: line, Scope: ScopeSameInstance, Absent: AbsentRequired}
}

// all sums the line over every instance of form.
func all(form model.FormType, line model.LineID) Ref {
	return Ref{Name: string(line), Form: form, Line: line, Scope: ScopeAllInstances, Absent: AbsentRequired}
}

func (r Ref) as(name string) Ref {
	r.Name = name
	return r
}

// orZero marks the reference as reading zero when the form is absent.
func (r Ref) orZero() Ref {
	r.Absent = AbsentZero
	return r
}
