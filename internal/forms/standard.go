package forms

import (
	"sync"

	"github.com/Veraticus/the-tax-must-flow/internal/model"
)

var (
	standardOnce    sync.Once
	standardCatalog *Catalog
)

// Standard returns the individual income tax catalog. It is built once and
// shared; callers must not modify it.
func Standard() *Catalog {
	standardOnce.Do(func() {
		c, err := NewCatalog(standardForms()...)
		if err != nil {
			panic("forms: invalid standard catalog: " + err.Error())
		}
		standardCatalog = c
	})
	return standardCatalog
}

func standardForms() []Form {
	return []Form{
		w2(), form1099INT(), form1099DIV(), form1099NEC(), form1098E(), form1098T(),
		scheduleC(), scheduleSE(), scheduleD(), schedule1(), scheduleA(), schedule1A(),
		form8995(), form2441(), form8863(), form8880(), creditLimit(), form8812(),
		form8959(), form8960(), form6251(), scheduleEIC(), schedule2(), schedule3(), form1040(),
	}
}

var (
	profileStatus = []string{model.FactFilingStatus}
	documents     = Trigger{Supplied: true}
	always        = Trigger{Always: true}
)

func w2() Form {
	return Form{
		Type: model.FormW2, Title: "Wage and Tax Statement",
		Repeatable: true, Suppliable: true, Trigger: documents,
		Lines: []Line{
			requiredAmount("wages"),
			amountInput("federal_withholding"),
			amountInput("social_security_wages"),
			amountInput("social_security_tax"),
			amountInput("medicare_wages"),
			amountInput("medicare_tax"),
		},
	}
}

func form1099INT() Form {
	return Form{
		Type: model.Form1099INT, Title: "Interest Income",
		Repeatable: true, Suppliable: true, Trigger: documents,
		Lines: []Line{
			requiredAmount("interest"),
			amountInput("early_withdrawal_penalty"),
			amountInput("federal_withholding"),
			amountInput("foreign_tax_paid"),
			amountInput("foreign_source_income"),
			amountInput("tax_exempt_interest"),
		},
	}
}

func form1099DIV() Form {
	return Form{
		Type: model.Form1099DIV, Title: "Dividends and Distributions",
		Repeatable: true, Suppliable: true, Trigger: documents,
		Lines: []Line{
			requiredAmount("ordinary_dividends"),
			amountInput("qualified_dividends"),
			amountInput("capital_gain_distributions"),
			amountInput("federal_withholding"),
			amountInput("foreign_tax_paid"),
			amountInput("foreign_source_income"),
		},
	}
}

// form1099NEC compensation is business income: it is reported as Schedule C
// gross receipts, so a 1099-NEC without a Schedule C cannot be computed.
func form1099NEC() Form {
	return Form{
		Type: model.Form1099NEC, Title: "Nonemployee Compensation",
		Repeatable: true, Suppliable: true, Trigger: documents,
		Lines: []Line{
			requiredAmount("nonemployee_compensation"),
			amountInput("federal_withholding"),
			amount("business_receipts", RuleSum, all(model.ScheduleC, "gross_receipts")),
		},
	}
}

func form1098E() Form {
	return Form{
		Type: model.Form1098E, Title: "Student Loan Interest Statement",
		Repeatable: true, Suppliable: true, Trigger: documents,
		Lines: []Line{
			requiredAmount("student_loan_interest"),
		},
	}
}

func form1098T() Form {
	t := model.Form1098T
	return Form{
		Type: t, Title: "Tuition Statement",
		Repeatable: true, Suppliable: true, Trigger: documents,
		Lines: []Line{
			requiredAmount("tuition"),
			amountInput("scholarships"),
			boolInput("aotc_eligible"),
			amount("net_expenses", RuleDifferenceFloor, own(t, "tuition"), own(t, "scholarships")),
			amount("aotc_tentative", RuleAOTCStudent, own(t, "net_expenses"), own(t, "aotc_eligible")),
			amount("llc_expenses", RuleLLCExpenses, own(t, "net_expenses"), own(t, "aotc_eligible")),
		},
	}
}

func scheduleC() Form {
	c := model.ScheduleC
	return Form{
		Type: c, Title: "Profit or Loss From Business",
		Repeatable: true, Suppliable: true, Trigger: documents,
		Lines: []Line{
			requiredAmount("gross_receipts"),
			amountInput("cost_of_goods_sold"),
			amountInput("expenses"),
			amountInput("w2_wages_paid"),
			amountInput("ubia"),
			boolInput("sstb"),
			amount("net_profit", RuleDifference,
				own(c, "gross_receipts"), own(c, "cost_of_goods_sold"), own(c, "expenses")),
		},
	}
}

func scheduleSE() Form {
	se := model.ScheduleSE
	return Form{
		Type: se, Title: "Self-Employment Tax",
		Suppliable: true,
		Trigger:    Trigger{Supplied: true, Forms: []model.FormType{model.Form1099NEC, model.ScheduleC}},
		Lines: []Line{
			amount("net_profit", RuleSum, all(model.ScheduleC, "net_profit")),
			amount("net_earnings", RuleSENetEarnings, ref(se, "net_profit")),
			amount("ss_wages", RuleSum, all(model.FormW2, "social_security_wages").orZero()),
			amount("social_security_tax", RuleSESocialSecurity, ref(se, "net_earnings"), ref(se, "ss_wages")),
			amount("medicare_tax", RuleSEMedicare, ref(se, "net_earnings")),
			amount("se_tax", RuleSum, ref(se, "social_security_tax"), ref(se, "medicare_tax")),
			amount("deduction", RuleSEDeduction, ref(se, "se_tax")),
		},
	}
}

func scheduleD() Form {
	d := model.ScheduleD
	return Form{
		Type: d, Title: "Capital Gains and Losses",
		Suppliable: true,
		Trigger:    Trigger{Supplied: true, Forms: []model.FormType{model.Form1099DIV}},
		Lines: []Line{
			amountInput("short_term_gain"),
			amountInput("long_term_gain"),
			amount("capital_gain_distributions", RuleSum, all(model.Form1099DIV, "capital_gain_distributions").orZero()),
			amount("net_long_term", RuleSum, ref(d, "long_term_gain"), ref(d, "capital_gain_distributions")),
			amount("net_gain", RuleSum, ref(d, "short_term_gain"), ref(d, "net_long_term")),
			amount("capital_gain", RuleCapitalLossLimit, ref(d, "net_gain")).facts(profileStatus...),
			amount("preferential_gain", RuleCapitalPreferentialGain, ref(d, "net_long_term"), ref(d, "net_gain")),
		},
	}
}

func schedule1() Form {
	s1 := model.Schedule1
	return Form{
		Type: s1, Title: "Additional Income and Adjustments to Income",
		Suppliable: true, Trigger: always,
		Lines: []Line{
			amountInput("taxable_refunds"),
			amountInput("unemployment"),
			amountInput("other_income"),
			amountInput("educator_expenses"),
			amountInput("spouse_educator_expenses"),
			amountInput("hsa_deduction"),
			amountInput("ira_deduction"),
			amountInput("alimony_paid"),
			amount("business_income", RuleSum, all(model.ScheduleC, "net_profit").orZero()),
			amount("additional_income", RuleSum,
				ref(s1, "taxable_refunds"), ref(s1, "business_income"), ref(s1, "unemployment"), ref(s1, "other_income")),
			amount("se_tax_deduction", RuleSum, ref(model.ScheduleSE, "deduction").orZero()),
			amount("educator_deduction", RuleEducatorDeduction,
				ref(s1, "educator_expenses"), ref(s1, "spouse_educator_expenses")).
				facts(model.FactFilingStatus),
			amount("early_withdrawal_penalty", RuleSum, all(model.Form1099INT, "early_withdrawal_penalty").orZero()),
			amount("adjustments_before_student_loan", RuleSum,
				ref(s1, "educator_deduction"), ref(s1, "hsa_deduction"), ref(s1, "se_tax_deduction"),
				ref(s1, "ira_deduction"), ref(s1, "early_withdrawal_penalty"), ref(s1, "alimony_paid")),
			amount("student_loan_interest", RuleSum, all(model.Form1098E, "student_loan_interest").orZero()),
			amount("student_loan_interest_deduction", RuleStudentLoanDeduction,
				ref(s1, "student_loan_interest").as("interest"),
				ref(model.Form1040, "total_income"),
				ref(s1, "adjustments_before_student_loan").as("other_adjustments")).
				facts(model.FactFilingStatus, model.FactClaimedAsDependent),
			amount("total_adjustments", RuleSum,
				ref(s1, "adjustments_before_student_loan"), ref(s1, "student_loan_interest_deduction")),
		},
	}
}

func scheduleA() Form {
	a := model.ScheduleA
	return Form{
		Type: a, Title: "Itemized Deductions",
		Suppliable: true, Trigger: documents,
		Lines: []Line{
			amountInput("medical_expenses"),
			amountInput("state_local_taxes"),
			amountInput("real_estate_taxes"),
			amountInput("personal_property_taxes"),
			amountInput("mortgage_interest"),
			amountInput("charitable_cash"),
			amountInput("charitable_noncash"),
			amountInput("other_itemized"),
			amount("medical_deduction", RuleMedicalDeduction,
				ref(a, "medical_expenses"), ref(model.Form1040, "agi")),
			amount("taxes_paid", RuleSum,
				ref(a, "state_local_taxes"), ref(a, "real_estate_taxes"), ref(a, "personal_property_taxes")),
			amount("salt_deduction", RuleSALTDeduction, ref(a, "taxes_paid"), ref(model.Form1040, "agi")).
				facts(profileStatus...),
			amount("charitable", RuleSum, ref(a, "charitable_cash"), ref(a, "charitable_noncash")),
			amount("total_itemized", RuleSum,
				ref(a, "medical_deduction"), ref(a, "salt_deduction"), ref(a, "mortgage_interest"),
				ref(a, "charitable"), ref(a, "other_itemized")),
		},
	}
}

func schedule1A() Form {
	s := model.Schedule1A
	agi := ref(model.Form1040, "agi")
	return Form{
		Type: s, Title: "Additional Deductions",
		Suppliable: true, Trigger: always,
		Lines: []Line{
			amountInput("qualified_tips"),
			amountInput("qualified_overtime"),
			amount("tips_deduction", RuleTipsDeduction, ref(s, "qualified_tips").as("tips"), agi).
				facts(profileStatus...),
			amount("overtime_deduction", RuleOvertimeDeduction, ref(s, "qualified_overtime").as("overtime"), agi).
				facts(profileStatus...),
			amount("senior_deduction", RuleSeniorDeduction, agi).
				facts(model.FactFilingStatus, model.FactTaxpayerAge, model.FactSpouseAge),
			amount("total", RuleSum, ref(s, "tips_deduction"), ref(s, "overtime_deduction"), ref(s, "senior_deduction")),
		},
	}
}

func form8995() Form {
	q := model.Form8995
	return Form{
		Type: q, Title: "Qualified Business Income Deduction",
		Trigger: Trigger{Forms: []model.FormType{model.ScheduleC}},
		Lines: []Line{
			amount("qbi", RuleDifference,
				all(model.ScheduleC, "net_profit"), ref(model.ScheduleSE, "deduction").orZero()),
			amount("w2_wages", RuleSum, all(model.ScheduleC, "w2_wages_paid")),
			amount("ubia", RuleSum, all(model.ScheduleC, "ubia")),
			flag("sstb", RuleAny, all(model.ScheduleC, "sstb")),
			amount("taxable_income_before_qbi", RuleSum, ref(model.Form1040, "taxable_income_before_qbi")),
			amount("net_capital_gain", RuleSum,
				ref(model.Form1040, "qualified_dividends"), ref(model.ScheduleD, "preferential_gain").orZero()),
			amount("qbi_deduction", RuleQBIDeduction,
				ref(q, "qbi"), ref(q, "w2_wages"), ref(q, "ubia"), ref(q, "sstb"),
				ref(q, "taxable_income_before_qbi"), ref(q, "net_capital_gain")).
				facts(profileStatus...),
		},
	}
}

func form2441() Form {
	f := model.Form2441
	return Form{
		Type: f, Title: "Child and Dependent Care Expenses",
		Suppliable: true, Trigger: documents,
		Lines: []Line{
			amountInput("care_expenses"),
			amountInput("spouse_earned_income"),
			amount("tentative_credit", RuleDependentCareCredit,
				ref(f, "care_expenses"), ref(f, "spouse_earned_income"),
				ref(model.Form1040, "earned_income"), ref(model.Form1040, "agi")).
				facts(model.FactFilingStatus, model.FactDependents),
		},
	}
}

func form8863() Form {
	e := model.Form8863
	agi := ref(model.Form1040, "agi")
	phaseOutFacts := []string{model.FactFilingStatus, model.FactClaimedAsDependent}
	return Form{
		Type: e, Title: "Education Credits",
		Trigger: Trigger{Forms: []model.FormType{model.Form1098T}},
		Lines: []Line{
			amount("aotc_tentative", RuleSum, all(model.Form1098T, "aotc_tentative")),
			amount("llc_tentative", RuleLLCCredit, all(model.Form1098T, "llc_expenses")),
			amount("aotc_allowed", RuleEducationPhaseOut, ref(e, "aotc_tentative").as("credit"), agi).
				facts(phaseOutFacts...),
			amount("llc_allowed", RuleEducationPhaseOut, ref(e, "llc_tentative").as("credit"), agi).
				facts(phaseOutFacts...),
			amount("refundable_aotc", RuleEducationRefundable, ref(e, "aotc_allowed")),
			amount("aotc_nonrefundable", RuleDifference, ref(e, "aotc_allowed"), ref(e, "refundable_aotc")),
			amount("tentative_credit", RuleSum, ref(e, "aotc_nonrefundable"), ref(e, "llc_allowed")),
		},
	}
}

func form8880() Form {
	f := model.Form8880
	return Form{
		Type: f, Title: "Credit for Qualified Retirement Savings Contributions",
		Suppliable: true, Trigger: documents,
		Lines: []Line{
			amountInput("taxpayer_contributions"),
			amountInput("spouse_contributions"),
			amount("tentative_credit", RuleSaversCredit,
				ref(f, "taxpayer_contributions"), ref(f, "spouse_contributions"), ref(model.Form1040, "agi")).
				facts(model.FactFilingStatus, model.FactClaimedAsDependent, model.FactTaxpayerAge),
		},
	}
}

func creditLimit() Form {
	cl := model.CreditLimit
	ordering := func(kind string) Line {
		return amount(model.LineID("allowed_"+kind), RuleCreditOrdering,
			ref(model.Form1040, "tax_before_credits").as("liability"),
			ref(cl, "foreign_tax_credit").as("foreign_tax"),
			ref(model.Form2441, "tentative_credit").as("dependent_care").orZero(),
			ref(model.Form8863, "tentative_credit").as("education").orZero(),
			ref(model.Form8880, "tentative_credit").as("retirement_savings").orZero(),
			ref(model.Form8812, "tentative_credit").as("child_tax").orZero(),
		).param(kind)
	}
	return Form{
		Type: cl, Title: "Credit Limit Worksheet",
		Trigger: always,
		Lines: []Line{
			amount("foreign_tax_credit", RuleForeignTaxCredit,
				all(model.Form1099INT, "foreign_tax_paid").as("interest_foreign_tax").orZero(),
				all(model.Form1099DIV, "foreign_tax_paid").as("dividend_foreign_tax").orZero(),
				all(model.Form1099INT, "foreign_source_income").as("interest_foreign_income").orZero(),
				all(model.Form1099DIV, "foreign_source_income").as("dividend_foreign_income").orZero(),
				ref(model.Form1040, "taxable_income"),
				ref(model.Form1040, "tax")).
				facts(profileStatus...),
			ordering("foreign_tax"),
			ordering("dependent_care"),
			ordering("education"),
			ordering("retirement_savings"),
			ordering("child_tax"),
		},
	}
}

func form8812() Form {
	f := model.Form8812
	return Form{
		Type: f, Title: "Credits for Qualifying Children and Other Dependents",
		Trigger: Trigger{Dependents: true},
		Lines: []Line{
			amount("credit_before_phaseout", RuleCTCBase).facts(model.FactDependents),
			amount("tentative_credit", RuleCTCPhaseOut,
				ref(f, "credit_before_phaseout").as("credit"), ref(model.Form1040, "agi")).
				facts(profileStatus...),
			amount("nonrefundable_credit", RuleSum, ref(model.CreditLimit, "allowed_child_tax")),
			amount("excess_credit", RuleDifferenceFloor, ref(f, "tentative_credit"), ref(f, "nonrefundable_credit")),
			amount("earned_income", RuleSum, ref(model.Form1040, "earned_income")),
			amount("social_security_taxes", RuleSum,
				all(model.FormW2, "social_security_tax").orZero(),
				all(model.FormW2, "medicare_tax").orZero(),
				ref(model.ScheduleSE, "deduction").orZero()),
			amount("additional_child_tax_credit", RuleCTCRefundable,
				ref(f, "excess_credit"), ref(f, "earned_income"), ref(f, "social_security_taxes"),
				ref(model.ScheduleEIC, "credit").as("earned_income_credit")).
				facts(model.FactDependents),
		},
	}
}

func form8959() Form {
	f := model.Form8959
	return Form{
		Type: f, Title: "Additional Medicare Tax",
		Trigger: always,
		Lines: []Line{
			amount("medicare_wages", RuleSum, all(model.FormW2, "medicare_wages").orZero()),
			amount("se_income", RuleSum, ref(model.ScheduleSE, "net_earnings").orZero()),
			amount("wage_tax", RuleAdditionalMedicareWages, ref(f, "medicare_wages")).facts(profileStatus...),
			amount("se_tax", RuleAdditionalMedicareSE, ref(f, "se_income"), ref(f, "medicare_wages")).
				facts(profileStatus...),
			amount("total_tax", RuleSum, ref(f, "wage_tax"), ref(f, "se_tax")),
			amount("medicare_withheld", RuleSum, all(model.FormW2, "medicare_tax").orZero()),
			amount("additional_withholding", RuleMedicareWithholding, ref(f, "medicare_withheld"), ref(f, "medicare_wages")),
		},
	}
}

func form8960() Form {
	f := model.Form8960
	return Form{
		Type: f, Title: "Net Investment Income Tax",
		Trigger: always,
		Lines: []Line{
			amount("interest", RuleSum, all(model.Form1099INT, "interest").orZero()),
			amount("dividends", RuleSum, all(model.Form1099DIV, "ordinary_dividends").orZero()),
			amount("capital_gain", RuleSum, ref(model.ScheduleD, "capital_gain").orZero()),
			amount("net_investment_income", RuleNetInvestmentIncome,
				ref(f, "interest"), ref(f, "dividends"), ref(f, "capital_gain")),
			amount("niit", RuleNIIT, ref(f, "net_investment_income"), ref(model.Form1040, "agi")).
				facts(profileStatus...),
		},
	}
}

func form6251() Form {
	f := model.Form6251
	return Form{
		Type: f, Title: "Alternative Minimum Tax",
		Trigger: always,
		Lines: []Line{
			amount("amti", RuleAMTIncome,
				ref(model.Form1040, "taxable_income"),
				ref(model.Form1040, "deduction_method"),
				ref(model.ScheduleA, "salt_deduction").orZero(),
				ref(model.Form1040, "standard_deduction")),
			amount("exemption", RuleAMTExemption, ref(f, "amti")).facts(profileStatus...),
			amount("amt_base", RuleDifferenceFloor, ref(f, "amti"), ref(f, "exemption")),
			amount("tentative_minimum_tax", RuleAMTTentative,
				ref(f, "amt_base"),
				ref(model.Form1040, "preferential_income"),
				ref(model.Form1040, "taxable_income")).
				facts(profileStatus...),
			amount("regular_tax", RuleDifferenceFloor,
				ref(model.Form1040, "tax"), ref(model.CreditLimit, "foreign_tax_credit")),
			amount("amt", RuleDifferenceFloor, ref(f, "tentative_minimum_tax"), ref(f, "regular_tax")),
		},
	}
}

func scheduleEIC() Form {
	f := model.ScheduleEIC
	return Form{
		Type: f, Title: "Earned Income Credit",
		Trigger: always,
		Lines: []Line{
			amount("investment_income", RuleEITCInvestmentIncome,
				all(model.Form1099INT, "interest").orZero(),
				all(model.Form1099INT, "tax_exempt_interest").orZero(),
				all(model.Form1099DIV, "ordinary_dividends").orZero(),
				ref(model.ScheduleD, "capital_gain").orZero()),
			amount("credit", RuleEITC,
				ref(model.Form1040, "earned_income"), ref(model.Form1040, "agi"), ref(f, "investment_income")).
				facts(model.FactFilingStatus, model.FactDependents, model.FactTaxpayerAge,
					model.FactSpouseAge, model.FactClaimedAsDependent),
		},
	}
}

func schedule2() Form {
	f := model.Schedule2
	return Form{
		Type: f, Title: "Additional Taxes",
		Trigger: always,
		Lines: []Line{
			amount("amt", RuleSum, ref(model.Form6251, "amt")),
			amount("part1_total", RuleSum, ref(f, "amt")),
			amount("self_employment_tax", RuleSum, ref(model.ScheduleSE, "se_tax").orZero()),
			amount("additional_medicare_tax", RuleSum, ref(model.Form8959, "total_tax")),
			amount("niit", RuleSum, ref(model.Form8960, "niit")),
			amount("other_taxes_total", RuleSum,
				ref(f, "self_employment_tax"), ref(f, "additional_medicare_tax"), ref(f, "niit")),
		},
	}
}

func schedule3() Form {
	f := model.Schedule3
	cl := model.CreditLimit
	return Form{
		Type: f, Title: "Additional Credits and Payments",
		Trigger: always,
		Lines: []Line{
			amount("foreign_tax_credit", RuleSum, ref(cl, "allowed_foreign_tax")),
			amount("dependent_care_credit", RuleSum, ref(cl, "allowed_dependent_care")),
			amount("education_credit", RuleSum, ref(cl, "allowed_education")),
			amount("retirement_savings_credit", RuleSum, ref(cl, "allowed_retirement_savings")),
			amount("nonrefundable_total", RuleSum,
				ref(f, "foreign_tax_credit"), ref(f, "dependent_care_credit"),
				ref(f, "education_credit"), ref(f, "retirement_savings_credit")),
		},
	}
}

func form1040() Form {
	f := model.Form1040
	return Form{
		Type: f, Title: "U.S. Individual Income Tax Return",
		Suppliable: true, Trigger: always,
		Lines: []Line{
			amountInput("estimated_payments"),

			// Income.
			amount("wages", RuleSum, all(model.FormW2, "wages").orZero()),
			amount("tax_exempt_interest", RuleSum, all(model.Form1099INT, "tax_exempt_interest").orZero()),
			amount("taxable_interest", RuleSum, all(model.Form1099INT, "interest").orZero()),
			amount("qualified_dividends", RuleSum, all(model.Form1099DIV, "qualified_dividends").orZero()),
			amount("ordinary_dividends", RuleSum, all(model.Form1099DIV, "ordinary_dividends").orZero()),
			amount("capital_gain", RuleSum, ref(model.ScheduleD, "capital_gain").orZero()),
			amount("additional_income", RuleSum, ref(model.Schedule1, "additional_income")),
			amount("total_income", RuleSum,
				ref(f, "wages"), ref(f, "taxable_interest"), ref(f, "ordinary_dividends"),
				ref(f, "capital_gain"), ref(f, "additional_income")),
			amount("adjustments", RuleSum, ref(model.Schedule1, "total_adjustments")),
			amount("agi", RuleDifference, ref(f, "total_income"), ref(f, "adjustments")),
			amount("earned_income", RuleEarnedIncome,
				ref(f, "wages"),
				ref(model.ScheduleSE, "net_profit").as("se_net_profit").orZero(),
				ref(model.ScheduleSE, "deduction").as("se_deduction").orZero()),

			// Deductions.
			amount("standard_deduction", RuleStandardDeduction, ref(f, "earned_income")).
				facts(model.FactFilingStatus, model.FactTaxpayerAge, model.FactTaxpayerBlind,
					model.FactSpouseAge, model.FactSpouseBlind, model.FactClaimedAsDependent,
					model.FactDualStatusAlien, model.FactSpouseItemizes),
			amount("itemized_deductions", RuleSum, ref(model.ScheduleA, "total_itemized").orZero()),
			choice("deduction_method", RuleDeductionMethod, ref(f, "standard_deduction"), ref(f, "itemized_deductions")).
				facts(model.FactForceItemize, model.FactSpouseItemizes, model.FactDualStatusAlien),
			amount("deduction", RuleDeductionSelected,
				ref(f, "deduction_method"), ref(f, "standard_deduction"), ref(f, "itemized_deductions")),
			amount("schedule1a_deduction", RuleSum, ref(model.Schedule1A, "total")),
			amount("taxable_income_before_qbi", RuleTaxableBeforeQBI,
				ref(f, "agi"), ref(f, "deduction"), ref(f, "schedule1a_deduction")),
			amount("qbi_deduction", RuleSum, ref(model.Form8995, "qbi_deduction").orZero()),
			amount("taxable_income", RuleDifferenceFloor, ref(f, "taxable_income_before_qbi"), ref(f, "qbi_deduction")),

			// Tax and credits.
			amount("preferential_income", RuleCapitalPreferentialIncome,
				ref(f, "qualified_dividends"),
				ref(model.ScheduleD, "preferential_gain").orZero(),
				ref(f, "taxable_income")),
			amount("tax", RuleRegularTax, ref(f, "taxable_income"), ref(f, "preferential_income")).
				facts(profileStatus...),
			amount("amt", RuleSum, ref(model.Schedule2, "part1_total")),
			amount("tax_before_credits", RuleSum, ref(f, "tax"), ref(f, "amt")),
			amount("child_tax_credit", RuleSum, ref(model.CreditLimit, "allowed_child_tax")),
			amount("schedule3_credits", RuleSum, ref(model.Schedule3, "nonrefundable_total")),
			amount("total_credits", RuleSum, ref(f, "child_tax_credit"), ref(f, "schedule3_credits")),
			amount("tax_after_credits", RuleDifferenceFloor, ref(f, "tax_before_credits"), ref(f, "total_credits")),
			amount("other_taxes", RuleSum, ref(model.Schedule2, "other_taxes_total")),
			amount("total_tax", RuleSum, ref(f, "tax_after_credits"), ref(f, "other_taxes")),

			// Payments.
			amount("w2_withholding", RuleSum, all(model.FormW2, "federal_withholding").orZero()),
			amount("form1099_withholding", RuleSum,
				all(model.Form1099INT, "federal_withholding").as("interest_withholding").orZero(),
				all(model.Form1099DIV, "federal_withholding").as("dividend_withholding").orZero(),
				all(model.Form1099NEC, "federal_withholding").as("nec_withholding").orZero()),
			amount("other_withholding", RuleSum, ref(model.Form8959, "additional_withholding")),
			amount("withholding", RuleSum,
				ref(f, "w2_withholding"), ref(f, "form1099_withholding"), ref(f, "other_withholding")),
			amount("earned_income_credit", RuleSum, ref(model.ScheduleEIC, "credit")),
			amount("additional_child_tax_credit", RuleSum,
				ref(model.Form8812, "additional_child_tax_credit").orZero()),
			amount("refundable_education_credit", RuleSum, ref(model.Form8863, "refundable_aotc").orZero()),
			amount("refundable_credits", RuleSum,
				ref(f, "earned_income_credit"), ref(f, "additional_child_tax_credit"), ref(f, "refundable_education_credit")),
			amount("total_payments", RuleSum,
				ref(f, "withholding"), ref(f, "estimated_payments"), ref(f, "refundable_credits")),
			amount("overpayment", RuleDifferenceFloor, ref(f, "total_payments"), ref(f, "total_tax")),
			amount("amount_owed", RuleDifferenceFloor, ref(f, "total_tax"), ref(f, "total_payments")),
		},
	}
}
