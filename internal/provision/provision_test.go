package provision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/forms"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
	"github.com/Veraticus/the-tax-must-flow/internal/taxyear"
)

type binding struct {
	name  string
	value model.LineValue
}

func usd(name string, dollars int64) binding {
	return binding{name: name, value: model.AmountValue(money.FromDollars(dollars))}
}

func flag(name string, b bool) binding {
	return binding{name: name, value: model.BoolValue(b)}
}

func pick(name, c string) binding {
	return binding{name: name, value: model.ChoiceValue(c)}
}

func params2025(t *testing.T) *taxyear.Parameters {
	t.Helper()
	p, err := taxyear.Bundled(2025)
	require.NoError(t, err)
	return p
}

func profileFor(status model.FilingStatus) *model.FilingProfile {
	p := &model.FilingProfile{Status: status, Taxpayer: model.Person{Age: 40}}
	if status == model.MarriedJointly {
		p.Spouse = &model.Person{Age: 40}
	}
	return p
}

func kids(n, age int) []model.Dependent {
	deps := make([]model.Dependent, n)
	for i := range deps {
		deps[i] = model.Dependent{Name: "child", Kind: model.QualifyingChild, Age: age, MonthsLived: 12}
	}
	return deps
}

func evaluate(t *testing.T, p *taxyear.Parameters, profile *model.FilingProfile, rule string, param string, inputs ...binding) (model.LineValue, error) {
	t.Helper()
	in := NewInputs(p, profile, param)
	for _, b := range inputs {
		in.Set(b.name, b.value)
	}
	return Evaluate(rule, in)
}

func mustAmount(t *testing.T, p *taxyear.Parameters, profile *model.FilingProfile, rule string, inputs ...binding) string {
	t.Helper()
	v, err := evaluate(t, p, profile, rule, "", inputs...)
	require.NoError(t, err)
	a, ok := v.Amount()
	require.True(t, ok, "rule %s returned %s", rule, v.Kind())
	return a.String()
}

func TestEveryCatalogRuleHasAnEvaluator(t *testing.T) {
	for _, rule := range forms.Standard().Rules() {
		_, ok := Lookup(rule)
		assert.True(t, ok, "rule %s", rule)
	}
	assert.Contains(t, Rules(), forms.RuleEITC)
}

func TestGenericRules(t *testing.T) {
	p := params2025(t)
	single := profileFor(model.Single)

	assert.Equal(t, "60.00", mustAmount(t, p, single, forms.RuleSum, usd("a", 10), usd("b", 50)))
	assert.Equal(t, "-40.00", mustAmount(t, p, single, forms.RuleDifference, usd("a", 10), usd("b", 50)))
	assert.Equal(t, "0.00", mustAmount(t, p, single, forms.RuleDifferenceFloor, usd("a", 10), usd("b", 50)))
	assert.Equal(t, "5.00", mustAmount(t, p, single, forms.RuleDifferenceFloor, usd("a", 10), usd("b", 2), usd("c", 3)))

	v, err := evaluate(t, p, single, forms.RuleAny, "", flag("a", false), flag("b", true))
	require.NoError(t, err)
	got, _ := v.Bool()
	assert.True(t, got)

	_, err = evaluate(t, p, single, forms.RuleSum, "", usd("a", 1), flag("b", true))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRegularTax(t *testing.T) {
	p := params2025(t)

	tests := []struct {
		name   string
		status model.FilingStatus
		ti     int64
		pref   int64
		want   string
	}{
		{"zero income", model.Single, 0, 0, "0.00"},
		{"table midpoint", model.Single, 34_250, 0, "3875.00"},
		{"joint table", model.MarriedJointly, 18_500, 0, "1853.00"},
		{"formula above ceiling", model.Single, 150_000, 0, "28847.00"},
		{"qualified dividends", model.Single, 60_000, 20_000, "6313.00"},
		{"preferential income above taxable income", model.Single, 30_000, 40_000, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustAmount(t, p, profileFor(tt.status), forms.RuleRegularTax,
				usd("taxable_income", tt.ti), usd("preferential_income", tt.pref))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegularTaxIsMonotonicAndContinuous(t *testing.T) {
	p := params2025(t)
	for _, status := range model.FilingStatuses() {
		profile := profileFor(status)
		previous := money.Zero
		for ti := int64(0); ti <= 800_000; ti += 997 {
			v, err := evaluate(t, p, profile, forms.RuleRegularTax, "",
				usd("taxable_income", ti), usd("preferential_income", 0))
			require.NoError(t, err)
			tax, _ := v.Amount()
			assert.False(t, tax.LessThan(previous), "%s: tax fell at %d", status, ti)
			previous = tax
		}

		below, err := evaluate(t, p, profile, forms.RuleRegularTax, "",
			binding{"taxable_income", model.AmountValue(money.MustParse("99999.99"))}, usd("preferential_income", 0))
		require.NoError(t, err)
		at, err := evaluate(t, p, profile, forms.RuleRegularTax, "",
			usd("taxable_income", 100_000), usd("preferential_income", 0))
		require.NoError(t, err)
		a, _ := below.Amount()
		b, _ := at.Amount()
		assert.False(t, b.Sub(a).GreaterThan(money.FromDollars(13)), "%s: jump at table ceiling", status)
	}
}

func TestStepPhaseOutFloor(t *testing.T) {
	po := taxyear.PhaseOut{
		Threshold: money.FromDollars(1_000),
		Step:      money.FromDollars(100),
		Reduction: money.Rate("10"),
		Floor:     money.FromDollars(30),
	}
	base := money.FromDollars(100)

	assert.Equal(t, "100.00", stepPhaseOut(base, money.FromDollars(1_000), po).String())
	assert.Equal(t, "90.00", stepPhaseOut(base, money.FromDollars(1_001), po).String(), "a partial step counts")
	assert.Equal(t, "90.00", stepPhaseOut(base, money.FromDollars(1_100), po).String())
	assert.Equal(t, "30.00", stepPhaseOut(base, money.FromDollars(50_000), po).String())

	previous := base
	for income := int64(0); income < 3_000; income += 37 {
		got := stepPhaseOut(base, money.FromDollars(income), po)
		assert.False(t, got.LessThan(po.Floor))
		assert.False(t, got.GreaterThan(previous))
		previous = got
	}
}

func TestStandardDeduction(t *testing.T) {
	p := params2025(t)

	tests := []struct {
		name    string
		profile *model.FilingProfile
		earned  int64
		want    string
	}{
		{"single", profileFor(model.Single), 50_000, "15750.00"},
		{"single senior and blind", &model.FilingProfile{Status: model.Single, Taxpayer: model.Person{Age: 65, Blind: true}}, 0, "19750.00"},
		{"joint both senior", &model.FilingProfile{
			Status: model.MarriedJointly, Taxpayer: model.Person{Age: 70}, Spouse: &model.Person{Age: 66},
		}, 0, "34700.00"},
		{"dependent filer minimum", &model.FilingProfile{Status: model.Single, ClaimedAsDependent: true, Taxpayer: model.Person{Age: 17}}, 500, "1350.00"},
		{"dependent filer earned", &model.FilingProfile{Status: model.Single, ClaimedAsDependent: true, Taxpayer: model.Person{Age: 17}}, 5_000, "5450.00"},
		{"dual status alien", &model.FilingProfile{Status: model.Single, DualStatusAlien: true}, 50_000, "0.00"},
		{"separate with itemizing spouse", &model.FilingProfile{Status: model.MarriedSeparately, SpouseItemizes: true}, 50_000, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mustAmount(t, p, tt.profile, forms.RuleStandardDeduction, usd("earned_income", tt.earned)))
		})
	}
}

func TestDeductionMethod(t *testing.T) {
	p := params2025(t)
	forced := profileFor(model.Single)
	forced.Elections.ForceItemize = true

	tests := []struct {
		name     string
		profile  *model.FilingProfile
		standard int64
		itemized int64
		want     string
	}{
		{"standard larger", profileFor(model.Single), 15_750, 9_000, forms.MethodStandard},
		{"itemized larger", profileFor(model.Single), 15_750, 20_000, forms.MethodItemized},
		{"tie keeps standard", profileFor(model.Single), 15_750, 15_750, forms.MethodStandard},
		{"forced election", forced, 15_750, 100, forms.MethodItemized},
		{"spouse itemizes", &model.FilingProfile{Status: model.MarriedSeparately, SpouseItemizes: true}, 0, 0, forms.MethodItemized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := evaluate(t, p, tt.profile, forms.RuleDeductionMethod, "",
				usd("standard_deduction", tt.standard), usd("itemized_deductions", tt.itemized))
			require.NoError(t, err)
			got, ok := v.Choice()
			require.True(t, ok)
			assert.Equal(t, tt.want, got)

			selected := mustAmount(t, p, tt.profile, forms.RuleDeductionSelected, pick("deduction_method", got),
				usd("standard_deduction", tt.standard), usd("itemized_deductions", tt.itemized))
			want := money.FromDollars(tt.standard)
			if got == forms.MethodItemized {
				want = money.FromDollars(tt.itemized)
			}
			assert.Equal(t, want.String(), selected)
		})
	}
}

func TestSelfEmployment(t *testing.T) {
	p := params2025(t)
	single := profileFor(model.Single)

	assert.Equal(t, "36940.00", mustAmount(t, p, single, forms.RuleSENetEarnings, usd("net_profit", 40_000)))
	assert.Equal(t, "0.00", mustAmount(t, p, single, forms.RuleSENetEarnings, usd("net_profit", 400)))
	assert.Equal(t, "4581.00", mustAmount(t, p, single, forms.RuleSESocialSecurity, usd("net_earnings", 36_940), usd("ss_wages", 0)))
	assert.Equal(t, "0.00", mustAmount(t, p, single, forms.RuleSESocialSecurity, usd("net_earnings", 36_940), usd("ss_wages", 200_000)))
	assert.Equal(t, "1071.00", mustAmount(t, p, single, forms.RuleSEMedicare, usd("net_earnings", 36_940)))
	assert.Equal(t, "2826.00", mustAmount(t, p, single, forms.RuleSEDeduction, usd("se_tax", 5_652)))
}

func TestQBIDeduction(t *testing.T) {
	p := params2025(t)

	tests := []struct {
		name  string
		qbi   int64
		wages int64
		sstb  bool
		ti    int64
		want  string
	}{
		{"limited by taxable income", 37_174, 0, false, 21_424, "4285.00"},
		{"below threshold", 50_000, 0, false, 120_000, "10000.00"},
		{"loss", -5_000, 0, false, 50_000, "0.00"},
		{"above range without wages", 100_000, 0, false, 272_300, "0.00"},
		{"above range with wages", 100_000, 30_000, false, 272_300, "15000.00"},
		{"inside range", 100_000, 30_000, false, 222_300, "17500.00"},
		{"service business inside range", 100_000, 30_000, true, 222_300, "8750.00"},
		{"service business above range", 100_000, 30_000, true, 272_300, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustAmount(t, p, profileFor(model.Single), forms.RuleQBIDeduction,
				usd("qbi", tt.qbi), usd("w2_wages", tt.wages), usd("ubia", 0), flag("sstb", tt.sstb),
				usd("taxable_income_before_qbi", tt.ti), usd("net_capital_gain", 0))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAdjustmentsAndItemized(t *testing.T) {
	p := params2025(t)
	single := profileFor(model.Single)
	joint := profileFor(model.MarriedJointly)

	educator := func(profile *model.FilingProfile, own, spouse int64) string {
		return mustAmount(t, p, profile, forms.RuleEducatorDeduction,
			usd("educator_expenses", own), usd("spouse_educator_expenses", spouse))
	}
	assert.Equal(t, "300.00", educator(single, 450, 0))
	assert.Equal(t, "300.00", educator(single, 450, 300), "spouse expenses need a joint return")
	assert.Equal(t, "300.00", educator(joint, 450, 0), "each educator is capped separately")
	assert.Equal(t, "500.00", educator(joint, 450, 200))
	assert.Equal(t, "600.00", educator(joint, 300, 900))

	loan := func(profile *model.FilingProfile, total int64) string {
		return mustAmount(t, p, profile, forms.RuleStudentLoanDeduction,
			usd("interest", 3_000), usd("total_income", total), usd("other_adjustments", 0))
	}
	assert.Equal(t, "2500.00", loan(single, 60_000))
	assert.Equal(t, "1250.00", loan(single, 92_500))
	assert.Equal(t, "0.00", loan(single, 100_000))
	assert.Equal(t, "2500.00", loan(joint, 150_000))
	assert.Equal(t, "0.00", loan(profileFor(model.MarriedSeparately), 10_000))

	assert.Equal(t, "2500.00", mustAmount(t, p, single, forms.RuleMedicalDeduction, usd("medical_expenses", 10_000), usd("agi", 100_000)))
	assert.Equal(t, "0.00", mustAmount(t, p, single, forms.RuleMedicalDeduction, usd("medical_expenses", 5_000), usd("agi", 100_000)))

	salt := func(agi int64) string {
		return mustAmount(t, p, single, forms.RuleSALTDeduction, usd("taxes_paid", 50_000), usd("agi", agi))
	}
	assert.Equal(t, "40000.00", salt(100_000))
	assert.Equal(t, "34000.00", salt(520_000))
	assert.Equal(t, "10000.00", salt(600_000))
}

func TestScheduleOneA(t *testing.T) {
	p := params2025(t)
	single := profileFor(model.Single)

	tips := func(profile *model.FilingProfile, agi int64) string {
		return mustAmount(t, p, profile, forms.RuleTipsDeduction, usd("tips", 30_000), usd("agi", agi))
	}
	assert.Equal(t, "25000.00", tips(single, 100_000))
	assert.Equal(t, "24000.00", tips(single, 160_000))
	assert.Equal(t, "0.00", tips(profileFor(model.MarriedSeparately), 50_000))

	assert.Equal(t, "12500.00", mustAmount(t, p, single, forms.RuleOvertimeDeduction, usd("overtime", 20_000), usd("agi", 90_000)))
	assert.Equal(t, "20000.00", mustAmount(t, p, profileFor(model.MarriedJointly), forms.RuleOvertimeDeduction, usd("overtime", 20_000), usd("agi", 90_000)))

	seniors := &model.FilingProfile{Status: model.MarriedJointly, Taxpayer: model.Person{Age: 66}, Spouse: &model.Person{Age: 70}}
	assert.Equal(t, "10800.00", mustAmount(t, p, seniors, forms.RuleSeniorDeduction, usd("agi", 160_000)))
	assert.Equal(t, "0.00", mustAmount(t, p, single, forms.RuleSeniorDeduction, usd("agi", 50_000)))
}

func TestSurtaxes(t *testing.T) {
	p := params2025(t)
	single := profileFor(model.Single)

	assert.Equal(t, "450.00", mustAmount(t, p, single, forms.RuleAdditionalMedicareWages, usd("medicare_wages", 250_000)))
	assert.Equal(t, "0.00", mustAmount(t, p, single, forms.RuleAdditionalMedicareWages, usd("medicare_wages", 150_000)))
	assert.Equal(t, "450.00", mustAmount(t, p, single, forms.RuleAdditionalMedicareSE, usd("se_income", 100_000), usd("medicare_wages", 150_000)))
	assert.Equal(t, "0.00", mustAmount(t, p, single, forms.RuleMedicareWithholding, usd("medicare_withheld", 725), usd("medicare_wages", 50_000)))
	assert.Equal(t, "450.00", mustAmount(t, p, single, forms.RuleMedicareWithholding, usd("medicare_withheld", 4_075), usd("medicare_wages", 250_000)))

	assert.Equal(t, "380.00", mustAmount(t, p, single, forms.RuleNIIT, usd("net_investment_income", 10_000), usd("agi", 300_000)))
	assert.Equal(t, "190.00", mustAmount(t, p, single, forms.RuleNIIT, usd("net_investment_income", 10_000), usd("agi", 205_000)))
	assert.Equal(t, "0.00", mustAmount(t, p, single, forms.RuleNIIT, usd("net_investment_income", 10_000), usd("agi", 150_000)))
}

func TestAMT(t *testing.T) {
	p := params2025(t)
	single := profileFor(model.Single)

	assert.Equal(t, "88100.00", mustAmount(t, p, single, forms.RuleAMTExemption, usd("amti", 200_000)))
	assert.Equal(t, "69688.00", mustAmount(t, p, single, forms.RuleAMTExemption, usd("amti", 700_000)))
	assert.Equal(t, "0.00", mustAmount(t, p, single, forms.RuleAMTExemption, usd("amti", 2_000_000)))

	tentative := func(base, pref, ti int64) string {
		return mustAmount(t, p, single, forms.RuleAMTTentative,
			usd("amt_base", base), usd("preferential_income", pref), usd("taxable_income", ti))
	}
	assert.Equal(t, "26000.00", tentative(100_000, 0, 150_000))
	assert.Equal(t, "79218.00", tentative(300_000, 0, 350_000))
	assert.Equal(t, "0.00", tentative(0, 0, 10_000))
	// 60,000 of ordinary income at 26% plus 40,000 of gains at 15%.
	assert.Equal(t, "21600.00", tentative(100_000, 40_000, 150_000))

	income := func(method string) string {
		return mustAmount(t, p, single, forms.RuleAMTIncome, usd("taxable_income", 100_000),
			pick("deduction_method", method), usd("salt_deduction", 10_000), usd("standard_deduction", 15_750))
	}
	assert.Equal(t, "115750.00", income(forms.MethodStandard))
	assert.Equal(t, "110000.00", income(forms.MethodItemized))
}

func TestChildTaxCredit(t *testing.T) {
	p := params2025(t)
	family := profileFor(model.MarriedJointly)
	family.Dependents = append(kids(3, 8), model.Dependent{Name: "teen", Kind: model.QualifyingChild, Age: 17, MonthsLived: 12})

	assert.Equal(t, "7100.00", mustAmount(t, p, family, forms.RuleCTCBase))

	phase := func(agi int64) string {
		return mustAmount(t, p, family, forms.RuleCTCPhaseOut, usd("credit", 6_600), usd("agi", agi))
	}
	assert.Equal(t, "6600.00", phase(400_000))
	assert.Equal(t, "6100.00", phase(410_000))
	assert.Equal(t, "6050.00", phase(410_001))
	assert.Equal(t, "0.00", phase(600_000))

	family.Dependents = kids(3, 8)
	refundable := func(excess, earned, ss, eic int64) string {
		return mustAmount(t, p, family, forms.RuleCTCRefundable, usd("excess_credit", excess),
			usd("earned_income", earned), usd("social_security_taxes", ss), usd("earned_income_credit", eic))
	}
	assert.Equal(t, "4747.00", refundable(4_747, 50_000, 3_825, 3_928))
	assert.Equal(t, "75.00", refundable(4_747, 3_000, 0, 0))
	assert.Equal(t, "1000.00", refundable(4_747, 3_000, 1_000, 0), "three children may use social security taxes")
	assert.Equal(t, "5100.00", refundable(6_600, 100_000, 0, 0))
}

func TestDependentCareCredit(t *testing.T) {
	p := params2025(t)
	joint := profileFor(model.MarriedJointly)
	joint.Dependents = kids(2, 5)
	head := profileFor(model.HeadOfHousehold)
	head.Dependents = kids(1, 5)
	teenager := profileFor(model.HeadOfHousehold)
	teenager.Dependents = kids(1, 15)

	care := func(profile *model.FilingProfile, expenses, spouse, earned, agi int64) string {
		return mustAmount(t, p, profile, forms.RuleDependentCareCredit, usd("care_expenses", expenses),
			usd("spouse_earned_income", spouse), usd("earned_income", earned), usd("agi", agi))
	}
	assert.Equal(t, "1200.00", care(joint, 8_000, 20_000, 70_000, 70_000))
	assert.Equal(t, "400.00", care(joint, 8_000, 2_000, 70_000, 70_000), "lower earner limits expenses")
	assert.Equal(t, "640.00", care(head, 2_000, 0, 20_000, 20_000))
	assert.Equal(t, "1050.00", care(head, 5_000, 0, 12_000, 12_000))
	assert.Equal(t, "0.00", care(teenager, 5_000, 0, 12_000, 12_000))

	_, err := evaluate(t, p, head, forms.RuleDependentCareCredit, "", usd("care_expenses", -1),
		usd("spouse_earned_income", 0), usd("earned_income", 0), usd("agi", 0))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.ErrorIs(t, err, common.ErrProvision)
}

func TestEducationCredits(t *testing.T) {
	p := params2025(t)
	single := profileFor(model.Single)

	assert.Equal(t, "2500.00", mustAmount(t, p, single, forms.RuleAOTCStudent, usd("net_expenses", 4_000), flag("aotc_eligible", true)))
	assert.Equal(t, "1500.00", mustAmount(t, p, single, forms.RuleAOTCStudent, usd("net_expenses", 1_500), flag("aotc_eligible", true)))
	assert.Equal(t, "0.00", mustAmount(t, p, single, forms.RuleAOTCStudent, usd("net_expenses", 4_000), flag("aotc_eligible", false)))
	assert.Equal(t, "4000.00", mustAmount(t, p, single, forms.RuleLLCExpenses, usd("net_expenses", 4_000), flag("aotc_eligible", false)))
	assert.Equal(t, "2000.00", mustAmount(t, p, single, forms.RuleLLCCredit, usd("llc_expenses", 12_000)))
	assert.Equal(t, "1250.00", mustAmount(t, p, single, forms.RuleEducationPhaseOut, usd("credit", 2_500), usd("agi", 85_000)))
	assert.Equal(t, "0.00", mustAmount(t, p, profileFor(model.MarriedSeparately), forms.RuleEducationPhaseOut, usd("credit", 2_500), usd("agi", 10_000)))
	assert.Equal(t, "1000.00", mustAmount(t, p, single, forms.RuleEducationRefundable, usd("aotc_allowed", 2_500)))
}

func TestSaversAndForeignTaxCredits(t *testing.T) {
	p := params2025(t)
	single := profileFor(model.Single)

	savers := func(profile *model.FilingProfile, agi int64) string {
		return mustAmount(t, p, profile, forms.RuleSaversCredit,
			usd("taxpayer_contributions", 3_000), usd("spouse_contributions", 2_000), usd("agi", agi))
	}
	assert.Equal(t, "1000.00", savers(single, 20_000))
	assert.Equal(t, "400.00", savers(single, 24_000))
	assert.Equal(t, "0.00", savers(single, 40_000))
	assert.Equal(t, "800.00", savers(profileFor(model.MarriedJointly), 50_000))
	assert.Equal(t, "0.00", savers(&model.FilingProfile{Status: model.Single, Taxpayer: model.Person{Age: 17}}, 10_000))

	ftc := func(paid, foreign int64) string {
		return mustAmount(t, p, single, forms.RuleForeignTaxCredit,
			usd("interest_foreign_tax", 0), usd("interest_foreign_income", 0),
			usd("dividend_foreign_tax", paid), usd("dividend_foreign_income", foreign),
			usd("taxable_income", 50_000), usd("tax", 6_000))
	}
	assert.Equal(t, "200.00", ftc(200, 0), "de minimis")
	assert.Equal(t, "1000.00", ftc(1_000, 10_000))
	assert.Equal(t, "240.00", ftc(1_000, 2_000))

	interest := func(paid, foreign int64) string {
		return mustAmount(t, p, single, forms.RuleForeignTaxCredit,
			usd("interest_foreign_tax", paid), usd("interest_foreign_income", foreign),
			usd("dividend_foreign_tax", 0), usd("dividend_foreign_income", 0),
			usd("taxable_income", 50_000), usd("tax", 6_000))
	}
	assert.Equal(t, "1000.00", interest(1_000, 20_000))
	assert.Equal(t, "480.00", interest(1_000, 4_000))
	assert.Equal(t, "0.00", interest(1_000, 0), "above de minimis with no foreign income")
}

func TestCreditOrdering(t *testing.T) {
	p := params2025(t)
	single := profileFor(model.Single)
	credits := []binding{
		usd("liability", 1_000),
		usd("foreign_tax", 300),
		usd("dependent_care", 500),
		usd("education", 400),
		usd("retirement_savings", 100),
		usd("child_tax", 2_000),
	}

	want := map[taxyear.CreditKind]string{
		taxyear.CreditForeignTax:        "300.00",
		taxyear.CreditDependentCare:     "500.00",
		taxyear.CreditEducation:         "200.00",
		taxyear.CreditRetirementSavings: "0.00",
		taxyear.CreditChildTax:          "0.00",
	}
	for kind, expected := range want {
		v, err := evaluate(t, p, single, forms.RuleCreditOrdering, string(kind), credits...)
		require.NoError(t, err)
		got, _ := v.Amount()
		assert.Equal(t, expected, got.String(), "%s", kind)
	}

	p.CreditOrder = []taxyear.CreditKind{taxyear.CreditChildTax, taxyear.CreditForeignTax}
	v, err := evaluate(t, p, single, forms.RuleCreditOrdering, string(taxyear.CreditChildTax), credits...)
	require.NoError(t, err)
	got, _ := v.Amount()
	assert.Equal(t, "1000.00", got.String(), "order comes from the parameter set")

	_, err = evaluate(t, p, single, forms.RuleCreditOrdering, string(taxyear.CreditEducation), credits...)
	assert.ErrorIs(t, err, common.ErrMissingParameter)
}

func TestEarnedIncomeCredit(t *testing.T) {
	p := params2025(t)
	family := profileFor(model.MarriedJointly)
	family.Dependents = kids(3, 8)
	young := &model.FilingProfile{Status: model.Single, Taxpayer: model.Person{Age: 22}}
	separate := profileFor(model.MarriedSeparately)
	separate.Dependents = kids(1, 3)

	eic := func(profile *model.FilingProfile, earned, agi, investment int64) string {
		return mustAmount(t, p, profile, forms.RuleEITC,
			usd("earned_income", earned), usd("agi", agi), usd("investment_income", investment))
	}
	assert.Equal(t, "3928.00", eic(family, 50_000, 50_000, 0))
	assert.Equal(t, "8046.00", eic(family, 20_000, 20_000, 0))
	assert.Equal(t, "0.00", eic(family, 50_000, 50_000, 12_000), "investment income limit")
	assert.Equal(t, "384.00", eic(profileFor(model.Single), 5_000, 5_000, 0))
	assert.Equal(t, "0.00", eic(young, 5_000, 5_000, 0), "childless filer under the minimum age")
	assert.Equal(t, "0.00", eic(separate, 20_000, 20_000, 0))
	assert.Equal(t, "0.00", eic(profileFor(model.Single), 0, 0, 0))

	assert.Equal(t, "150.00", mustAmount(t, p, family, forms.RuleEITCInvestmentIncome, usd("interest", 100),
		usd("tax_exempt_interest", 50), usd("ordinary_dividends", 0), usd("capital_gain", -3_000)))
}

func TestMissingParameter(t *testing.T) {
	p := params2025(t)
	delete(p.StandardDeduction.Base, model.HeadOfHousehold)

	_, err := evaluate(t, p, profileFor(model.HeadOfHousehold), forms.RuleStandardDeduction, "", usd("earned_income", 0))
	require.ErrorIs(t, err, common.ErrMissingParameter)
	assert.ErrorIs(t, err, common.ErrProvision)

	var mp *common.MissingParameterError
	require.ErrorAs(t, err, &mp)
	assert.Equal(t, "standard_deduction.base", mp.Parameter)
	assert.Equal(t, 2025, mp.Year)
}

func TestMissingParameterNamesMatchValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *taxyear.Parameters)
		rule   string
		inputs []binding
	}{
		{
			name:   "overtime cap",
			mutate: func(p *taxyear.Parameters) { delete(p.Schedule1A.OvertimeCap, model.Single) },
			rule:   forms.RuleOvertimeDeduction,
			inputs: []binding{usd("overtime", 5_000), usd("agi", 60_000)},
		},
		{
			name:   "tips phase-out",
			mutate: func(p *taxyear.Parameters) { delete(p.Schedule1A.IncomePhaseOut, model.Single) },
			rule:   forms.RuleTipsDeduction,
			inputs: []binding{usd("tips", 5_000), usd("agi", 60_000)},
		},
		{
			name:   "senior phase-out",
			mutate: func(p *taxyear.Parameters) { delete(p.Schedule1A.SeniorPhaseOut, model.Single) },
			rule:   forms.RuleSeniorDeduction,
			inputs: []binding{usd("agi", 60_000)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := params2025(t)
			tt.mutate(p)

			_, err := evaluate(t, p, profileFor(model.Single), tt.rule, "", tt.inputs...)
			var mp *common.MissingParameterError
			require.ErrorAs(t, err, &mp)

			var validated []string
			for _, e := range common.Errors(p.Validate()) {
				var v *common.MissingParameterError
				if assert.ErrorAs(t, e, &v) {
					validated = append(validated, v.Parameter)
				}
			}
			assert.Equal(t, []string{mp.Parameter}, validated)
		})
	}
}

func TestMissingNamedInput(t *testing.T) {
	p := params2025(t)
	_, err := evaluate(t, p, profileFor(model.Single), forms.RuleSEMedicare, "", usd("earnings", 1))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.Contains(t, err.Error(), "net_earnings")
}

func TestUnknownRule(t *testing.T) {
	_, err := Evaluate("no.such.rule", NewInputs(params2025(t), profileFor(model.Single), ""))
	assert.ErrorIs(t, err, common.ErrProvision)
}
