package provision

import (
	"fmt"
	"sort"

	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/forms"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
)

// Evaluator computes one line from its declared inputs.
type Evaluator func(in *Inputs) (model.LineValue, error)

var registry = map[string]Evaluator{
	forms.RuleSum:             sum,
	forms.RuleAny:             anyOf,
	forms.RuleDifference:      difference,
	forms.RuleDifferenceFloor: differenceFloor,

	forms.RuleEarnedIncome:      earnedIncome,
	forms.RuleTaxableBeforeQBI:  taxableBeforeQBI,
	forms.RuleStandardDeduction: standardDeduction,
	forms.RuleDeductionMethod:   deductionMethod,
	forms.RuleDeductionSelected: deductionSelected,
	forms.RuleRegularTax:        regularTax,

	forms.RuleCapitalLossLimit:          capitalLossLimit,
	forms.RuleCapitalPreferentialGain:   preferentialGain,
	forms.RuleCapitalPreferentialIncome: preferentialIncome,

	forms.RuleSENetEarnings:    seNetEarnings,
	forms.RuleSESocialSecurity: seSocialSecurity,
	forms.RuleSEMedicare:       seMedicare,
	forms.RuleSEDeduction:      seDeduction,

	forms.RuleEducatorDeduction:    educatorDeduction,
	forms.RuleStudentLoanDeduction: studentLoanDeduction,
	forms.RuleMedicalDeduction:     medicalDeduction,
	forms.RuleSALTDeduction:        saltDeduction,

	forms.RuleTipsDeduction:     tipsDeduction,
	forms.RuleOvertimeDeduction: overtimeDeduction,
	forms.RuleSeniorDeduction:   seniorDeduction,

	forms.RuleQBIDeduction: qbiDeduction,

	forms.RuleAOTCStudent:         aotcStudent,
	forms.RuleLLCExpenses:         llcExpenses,
	forms.RuleLLCCredit:           llcCredit,
	forms.RuleEducationPhaseOut:   educationPhaseOut,
	forms.RuleEducationRefundable: educationRefundable,

	forms.RuleDependentCareCredit: dependentCareCredit,
	forms.RuleSaversCredit:        saversCredit,
	forms.RuleForeignTaxCredit:    foreignTaxCredit,
	forms.RuleCreditOrdering:      creditOrdering,

	forms.RuleCTCBase:       ctcBase,
	forms.RuleCTCPhaseOut:   ctcPhaseOut,
	forms.RuleCTCRefundable: ctcRefundable,

	forms.RuleAdditionalMedicareWages: additionalMedicareWages,
	forms.RuleAdditionalMedicareSE:    additionalMedicareSE,
	forms.RuleMedicareWithholding:     medicareWithholding,

	forms.RuleNetInvestmentIncome: netInvestmentIncome,
	forms.RuleNIIT:                niit,

	forms.RuleAMTIncome:    amtIncome,
	forms.RuleAMTExemption: amtExemption,
	forms.RuleAMTTentative: amtTentative,

	forms.RuleEITCInvestmentIncome: eitcInvestmentIncome,
	forms.RuleEITC:                 eitc,
}

// Lookup returns the evaluator for rule.
func Lookup(rule string) (Evaluator, bool) {
	e, ok := registry[rule]
	return e, ok
}

// Rules lists every implemented rule id, sorted.
func Rules() []string {
	rules := make([]string, 0, len(registry))
	for r := range registry {
		rules = append(rules, r)
	}
	sort.Strings(rules)
	return rules
}

// Evaluate runs rule against in.
func Evaluate(rule string, in *Inputs) (model.LineValue, error) {
	e, ok := registry[rule]
	if !ok {
		return model.LineValue{}, fmt.Errorf("%w: no evaluator for rule %q", common.ErrMissingParameter, rule)
	}
	return e(in)
}

func sum(in *Inputs) (model.LineValue, error) {
	return in.exact(money.Sum(in.Amounts()...))
}

func anyOf(in *Inputs) (model.LineValue, error) {
	result := false
	for _, b := range in.Bools() {
		result = result || b
	}
	if err := in.Err(); err != nil {
		return model.LineValue{}, err
	}
	return model.BoolValue(result), nil
}

func subtractRest(in *Inputs) money.Amount {
	amounts := in.Amounts()
	if len(amounts) == 0 {
		in.Fail(fmt.Errorf("%w: difference needs at least one input", common.ErrInvalidInput))
		return money.Zero
	}
	return amounts[0].Sub(money.Sum(amounts[1:]...))
}

func difference(in *Inputs) (model.LineValue, error) {
	return in.exact(subtractRest(in))
}

func differenceFloor(in *Inputs) (model.LineValue, error) {
	return in.exact(subtractRest(in).ClampZero())
}
