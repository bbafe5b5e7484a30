package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/forms"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
	"github.com/Veraticus/the-tax-must-flow/internal/taxyear"
)

func params2025(t *testing.T) *taxyear.Parameters {
	t.Helper()
	p, err := taxyear.Bundled(2025)
	require.NoError(t, err)
	return p
}

func single() *model.FilingProfile {
	return &model.FilingProfile{Status: model.Single, Taxpayer: model.Person{Age: 30}}
}

func amounts(lines map[model.LineID]int64) map[model.LineID]model.LineValue {
	out := make(map[model.LineID]model.LineValue, len(lines))
	for id, v := range lines {
		out[id] = model.AmountValue(money.FromDollars(v))
	}
	return out
}

func resolve(t *testing.T, profile *model.FilingProfile, inputs ...model.FormInput) (*Resolution, error) {
	t.Helper()
	g, err := forms.Build(forms.Standard(), profile, inputs)
	require.NoError(t, err)
	return Resolve(context.Background(), g, params2025(t), profile)
}

func line(t *testing.T, r *Resolution, form model.FormType, id model.LineID) string {
	t.Helper()
	v, ok := r.Value(model.Key(form, 0, id))
	require.True(t, ok, "%s.%s not on the return", form, id)
	a, ok := v.Amount()
	require.True(t, ok)
	return a.String()
}

func sumRef(form model.FormType, id model.LineID) forms.Ref {
	return forms.Ref{Name: string(id), Form: form, Line: id, Scope: forms.ScopeSingle, Absent: forms.AbsentRequired}
}

func TestResolveSingleWageEarner(t *testing.T) {
	r, err := resolve(t, single(), model.FormInput{
		Form: model.FormW2, Key: "acme",
		Lines: amounts(map[model.LineID]int64{"wages": 50_000}),
	})
	require.NoError(t, err)

	assert.Equal(t, "50000.00", line(t, r, model.Form1040, "agi"))
	assert.Equal(t, "15750.00", line(t, r, model.Form1040, "deduction"))
	assert.Equal(t, "34250.00", line(t, r, model.Form1040, "taxable_income"))
	assert.Equal(t, "3875.00", line(t, r, model.Form1040, "tax"))
	assert.Equal(t, "0.00", line(t, r, model.ScheduleEIC, "credit"))
	assert.Equal(t, "3875.00", line(t, r, model.Form1040, "amount_owed"))

	method, _ := r.Value(model.Key(model.Form1040, 0, "deduction_method"))
	choice, _ := method.Choice()
	assert.Equal(t, forms.MethodStandard, choice)
}

func TestResolveSelfEmployed(t *testing.T) {
	r, err := resolve(t, single(), model.FormInput{
		Form: model.ScheduleC, Key: "consulting",
		Lines: amounts(map[model.LineID]int64{"gross_receipts": 40_000}),
	})
	require.NoError(t, err)

	assert.Equal(t, "5652.00", line(t, r, model.ScheduleSE, "se_tax"))
	assert.Equal(t, "2826.00", line(t, r, model.Schedule1, "total_adjustments"))
	assert.Equal(t, "37174.00", line(t, r, model.Form1040, "agi"))
	assert.Equal(t, "4285.00", line(t, r, model.Form8995, "qbi_deduction"))
	assert.Equal(t, "17139.00", line(t, r, model.Form1040, "taxable_income"))
	assert.Equal(t, "1817.00", line(t, r, model.Form1040, "tax"))
	assert.Equal(t, "5652.00", line(t, r, model.Form1040, "other_taxes"))
	assert.Equal(t, "7469.00", line(t, r, model.Form1040, "total_tax"))
}

func TestResolveCombinesInstances(t *testing.T) {
	r, err := resolve(t, single(),
		model.FormInput{Form: model.FormW2, Key: "b", Lines: amounts(map[model.LineID]int64{"wages": 20_000, "federal_withholding": 1_000})},
		model.FormInput{Form: model.FormW2, Key: "a", Lines: amounts(map[model.LineID]int64{"wages": 30_000, "federal_withholding": 2_500})},
	)
	require.NoError(t, err)

	assert.Equal(t, "50000.00", line(t, r, model.Form1040, "wages"))
	assert.Equal(t, "3500.00", line(t, r, model.Form1040, "withholding"))

	i, ok := r.Graph().Lookup(model.Key(model.Form1040, 0, "wages"))
	require.True(t, ok)
	rec := r.RecordAt(i)
	require.Len(t, rec.Inputs, 1)
	assert.Equal(t, []model.NodeKey{model.Key(model.FormW2, 0, "wages"), model.Key(model.FormW2, 1, "wages")}, rec.Inputs[0].Sources)
	assert.Equal(t, forms.RuleSum, rec.Rule)
}

func TestResolveProvenance(t *testing.T) {
	r, err := resolve(t, single(), model.FormInput{
		Form: model.FormW2, Key: "acme",
		Lines: amounts(map[model.LineID]int64{"wages": 50_000}),
	})
	require.NoError(t, err)

	records := r.Records()
	require.Len(t, records, r.Graph().Len())
	seen := make(map[int]bool)
	for _, i := range r.Order() {
		assert.False(t, seen[i], "node %d resolved twice", i)
		seen[i] = true
	}
	assert.Len(t, seen, r.Graph().Len())

	byKey := make(map[string]model.ProvenanceRecord)
	for _, rec := range records {
		byKey[rec.Node.String()] = rec
	}

	assert.Equal(t, forms.RuleInput, byKey["W2[0].wages"].Rule)
	assert.Equal(t, forms.RuleInputDefault, byKey["W2[0].federal_withholding"].Rule)

	tax := byKey["Form1040[0].tax"]
	assert.Equal(t, forms.RuleRegularTax, tax.Rule)
	assert.Equal(t, []model.ProfileFact{{Name: model.FactFilingStatus, Value: "single"}}, tax.Facts)
	require.Len(t, tax.Inputs, 2)
	assert.Equal(t, "taxable_income", tax.Inputs[0].Name)

	qd := byKey["Form1040[0].qualified_dividends"]
	require.Len(t, qd.Inputs, 1)
	assert.True(t, qd.Inputs[0].Defaulted)
	assert.Empty(t, qd.Inputs[0].Sources)
}

func TestResolveRefusesMissingInputs(t *testing.T) {
	_, err := resolve(t, single(), model.FormInput{Form: model.ScheduleSE})
	require.ErrorIs(t, err, common.ErrMissingInput)
	assert.Contains(t, err.Error(), "ScheduleSE[0].net_profit requires ScheduleC.net_profit")
}

func TestResolveReportsProvisionErrors(t *testing.T) {
	profile := single()
	profile.Status = model.HeadOfHousehold
	profile.Dependents = []model.Dependent{{Name: "Ada", Kind: model.QualifyingChild, Age: 3, MonthsLived: 12}}

	_, err := resolve(t, profile, model.FormInput{
		Form:  model.Form2441,
		Lines: amounts(map[model.LineID]int64{"care_expenses": -10}),
	})
	require.ErrorIs(t, err, common.ErrInvalidInput)

	var pe *common.ProvisionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Form2441[0].tentative_credit", pe.Node)
	assert.Equal(t, forms.RuleDependentCareCredit, pe.Rule)
}

func TestResolveMissingParameter(t *testing.T) {
	p := params2025(t)
	delete(p.Brackets, model.Single)

	g, err := forms.Build(forms.Standard(), single(), nil)
	require.NoError(t, err)
	_, err = Resolve(context.Background(), g, p, single())
	require.ErrorIs(t, err, common.ErrMissingParameter)
	assert.Contains(t, err.Error(), "Form1040[0].tax")
}

func TestResolveHonorsCancellation(t *testing.T) {
	g, err := forms.Build(forms.Standard(), single(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Resolve(ctx, g, params2025(t), single())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTwoNodeCycleNamesBothLines(t *testing.T) {
	x := model.FormType("X")
	c, err := forms.NewCatalog(forms.Form{
		Type:    x,
		Trigger: forms.Trigger{Always: true},
		Lines: []forms.Line{
			{ID: "a", Kind: model.KindAmount, Rule: forms.RuleSum, Refs: []forms.Ref{sumRef(x, "b")}},
			{ID: "b", Kind: model.KindAmount, Rule: forms.RuleSum, Refs: []forms.Ref{sumRef(x, "a")}},
		},
	})
	require.NoError(t, err)

	g, err := forms.Build(c, single(), nil)
	require.NoError(t, err)
	_, err = Resolve(context.Background(), g, params2025(t), single())
	require.ErrorIs(t, err, common.ErrCircularDependency)

	var ce *common.CircularDependencyError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"X[0].a", "X[0].b", "X[0].a"}, ce.Lines)
}

func TestOrderBreaksTiesByDeclaration(t *testing.T) {
	x := model.FormType("X")
	c, err := forms.NewCatalog(forms.Form{
		Type:    x,
		Trigger: forms.Trigger{Always: true},
		Lines: []forms.Line{
			{ID: "total", Kind: model.KindAmount, Rule: forms.RuleSum, Refs: []forms.Ref{sumRef(x, "second"), sumRef(x, "first")}},
			{ID: "second", Kind: model.KindAmount, Rule: forms.RuleSum, Refs: []forms.Ref{sumRef(x, "first")}},
			{ID: "first", Kind: model.KindAmount, Policy: forms.InputDefaultZero},
		},
	})
	require.NoError(t, err)

	g, err := forms.Build(c, single(), nil)
	require.NoError(t, err)
	order, err := Order(g)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 0}, order)

	again, err := Order(g)
	require.NoError(t, err)
	assert.Equal(t, order, again)
}
