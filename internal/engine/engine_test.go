package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Veraticus/the-tax-must-flow/internal/assembler"
	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/forms"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
	"github.com/Veraticus/the-tax-must-flow/internal/taxyear"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func params2025(t *testing.T) *taxyear.Parameters {
	t.Helper()
	p, err := taxyear.Bundled(2025)
	require.NoError(t, err)
	return p
}

func form(t model.FormType, key string, lines map[model.LineID]int64) model.FormInput {
	in := model.FormInput{Form: t, Key: key, Lines: make(map[model.LineID]model.LineValue, len(lines))}
	for id, v := range lines {
		in.Lines[id] = model.AmountValue(money.FromDollars(v))
	}
	return in
}

func wageRequest(t *testing.T, profile *model.FilingProfile, wages int64) Request {
	t.Helper()
	return Request{
		Params:  params2025(t),
		Profile: profile,
		Forms:   []model.FormInput{form(model.FormW2, "employer", map[model.LineID]int64{"wages": wages})},
	}
}

func single() *model.FilingProfile {
	return &model.FilingProfile{Status: model.Single, Taxpayer: model.Person{Age: 35}}
}

func jointWithChildren(n int) *model.FilingProfile {
	p := &model.FilingProfile{
		Status:   model.MarriedJointly,
		Taxpayer: model.Person{Age: 38},
		Spouse:   &model.Person{Age: 36},
	}
	for i := 0; i < n; i++ {
		p.Dependents = append(p.Dependents, model.Dependent{
			Name: string(rune('A' + i)), Kind: model.QualifyingChild, Age: 4 + 2*i, MonthsLived: 12,
		})
	}
	return p
}

func amountOf(t *testing.T, ret *assembler.ComputedReturn, f model.FormType, line model.LineID) string {
	t.Helper()
	a, ok := ret.Amount(f, 0, line)
	require.True(t, ok, "%s.%s not on the return", f, line)
	return a.String()
}

func TestComputeSingleWageEarner(t *testing.T) {
	ret, err := New().Compute(context.Background(), wageRequest(t, single(), 50_000))
	require.NoError(t, err)

	assert.Equal(t, "15750.00", amountOf(t, ret, model.Form1040, "deduction"))
	assert.Equal(t, "34250.00", amountOf(t, ret, model.Form1040, "taxable_income"))
	assert.Equal(t, "3875.00", amountOf(t, ret, model.Form1040, "tax"))
	assert.Equal(t, "0.00", amountOf(t, ret, model.Form1040, "total_credits"))
	assert.Equal(t, "0.00", amountOf(t, ret, model.Form1040, "refundable_credits"))
	assert.Equal(t, "3875.00", amountOf(t, ret, model.Form1040, "total_tax"))

	for _, f := range ret.Forms() {
		assert.NotEqual(t, model.Form8812, f.Form, "no dependents, no child tax credit form")
	}
}

func TestComputeJointFilersWithThreeChildren(t *testing.T) {
	ret, err := New().Compute(context.Background(), wageRequest(t, jointWithChildren(3), 50_000))
	require.NoError(t, err)

	assert.Equal(t, "50000.00", amountOf(t, ret, model.Form1040, "agi"))
	assert.Equal(t, "18500.00", amountOf(t, ret, model.Form1040, "taxable_income"))
	assert.Equal(t, "1853.00", amountOf(t, ret, model.Form1040, "tax"))

	assert.Equal(t, "6600.00", amountOf(t, ret, model.Form8812, "credit_before_phaseout"))
	assert.Equal(t, "6600.00", amountOf(t, ret, model.Form8812, "tentative_credit"))
	assert.Equal(t, "1853.00", amountOf(t, ret, model.Form8812, "nonrefundable_credit"))
	assert.Equal(t, "4747.00", amountOf(t, ret, model.Form8812, "excess_credit"))
	assert.Equal(t, "4747.00", amountOf(t, ret, model.Form8812, "additional_child_tax_credit"))

	assert.Equal(t, "3928.00", amountOf(t, ret, model.ScheduleEIC, "credit"))
	assert.Equal(t, "0.00", amountOf(t, ret, model.Form1040, "total_tax"))
	assert.Equal(t, "8675.00", amountOf(t, ret, model.Form1040, "overpayment"))
}

func TestComputeSelfEmployed(t *testing.T) {
	req := Request{
		Params:  params2025(t),
		Profile: single(),
		Forms:   []model.FormInput{form(model.ScheduleC, "consulting", map[model.LineID]int64{"gross_receipts": 40_000})},
	}
	ret, err := New().Compute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "36940.00", amountOf(t, ret, model.ScheduleSE, "net_earnings"))
	assert.Equal(t, "5652.00", amountOf(t, ret, model.ScheduleSE, "se_tax"))
	assert.Equal(t, "2826.00", amountOf(t, ret, model.ScheduleSE, "deduction"))
	assert.Equal(t, "37174.00", amountOf(t, ret, model.Form1040, "agi"))

	// The half-SE-tax deduction resolves before AGI.
	trace := ret.Trace(model.Key(model.Form1040, 0, "agi"))
	var keys []string
	for _, r := range trace {
		keys = append(keys, r.Node.String())
	}
	assert.Contains(t, keys, "ScheduleSE[0].deduction")
}

func TestStandardOrItemized(t *testing.T) {
	tests := []struct {
		name      string
		itemized  map[model.LineID]int64
		force     bool
		method    string
		deduction string
	}{
		{
			name:      "itemized larger",
			itemized:  map[model.LineID]int64{"mortgage_interest": 12_000, "charitable_cash": 5_000},
			method:    forms.MethodItemized,
			deduction: "17000.00",
		},
		{
			name:      "standard larger",
			itemized:  map[model.LineID]int64{"mortgage_interest": 5_000},
			method:    forms.MethodStandard,
			deduction: "15750.00",
		},
		{
			name:      "election forces itemizing",
			itemized:  map[model.LineID]int64{"mortgage_interest": 5_000},
			force:     true,
			method:    forms.MethodItemized,
			deduction: "5000.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := single()
			profile.Elections.ForceItemize = tt.force
			req := wageRequest(t, profile, 80_000)
			req.Forms = append(req.Forms, form(model.ScheduleA, "", tt.itemized))

			ret, err := New().Compute(context.Background(), req)
			require.NoError(t, err)

			v, ok := ret.Line(model.Form1040, 0, "deduction_method")
			require.True(t, ok)
			method, _ := v.Choice()
			assert.Equal(t, tt.method, method)
			assert.Equal(t, tt.deduction, amountOf(t, ret, model.Form1040, "deduction"))
		})
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	build := func() Request {
		req := wageRequest(t, jointWithChildren(2), 72_500)
		req.Forms = append(req.Forms,
			form(model.FormW2, "second", map[model.LineID]int64{"wages": 18_000, "federal_withholding": 1_200}),
			form(model.Form1099DIV, "broker", map[model.LineID]int64{"ordinary_dividends": 2_400, "qualified_dividends": 1_900}),
		)
		return req
	}

	first, err := New().Compute(context.Background(), build())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := New().Compute(context.Background(), build())
		require.NoError(t, err)

		if diff := cmp.Diff(first.Provenance(), again.Provenance()); diff != "" {
			t.Fatalf("provenance differs between runs (-first +again):\n%s", diff)
		}
		a, err := json.Marshal(first)
		require.NoError(t, err)
		b, err := json.Marshal(again)
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))
		assert.Equal(t, first.Digest(), again.Digest())
	}
}

func TestComputeRejectsBadRequests(t *testing.T) {
	e := New()
	ctx := context.Background()

	_, err := e.Compute(ctx, Request{Profile: single()})
	assert.ErrorIs(t, err, common.ErrMissingParameter)

	_, err = e.Compute(ctx, Request{Params: params2025(t)})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = e.Compute(ctx, wageRequest(t, &model.FilingProfile{Status: model.MarriedJointly}, 10_000))
	assert.ErrorIs(t, err, common.ErrInvalidInput, "joint return without a spouse")

	broken := wageRequest(t, single(), 10_000)
	delete(broken.Params.StandardDeduction.Base, model.HeadOfHousehold)
	_, err = e.Compute(ctx, broken)
	assert.ErrorIs(t, err, common.ErrMissingParameter)

	unknown := wageRequest(t, single(), 10_000)
	unknown.Forms = append(unknown.Forms, model.FormInput{Form: "W9"})
	_, err = e.Compute(ctx, unknown)
	assert.ErrorIs(t, err, common.ErrSchemaViolation)
}

func TestComputeNamesMissingInput(t *testing.T) {
	req := Request{
		Params:  params2025(t),
		Profile: single(),
		Forms:   []model.FormInput{{Form: model.ScheduleSE}},
	}
	ret, err := New().Compute(context.Background(), req)
	require.ErrorIs(t, err, common.ErrMissingInput)
	assert.Nil(t, ret)
	assert.Contains(t, err.Error(), "ScheduleSE[0].net_profit")
}

func TestComputeNonemployeeCompensation(t *testing.T) {
	nec := form(model.Form1099NEC, "client", map[model.LineID]int64{
		"nonemployee_compensation": 40_000,
		"federal_withholding":      1_000,
	})

	t.Run("without schedule C", func(t *testing.T) {
		req := Request{Params: params2025(t), Profile: single(), Forms: []model.FormInput{nec}}
		ret, err := New().Compute(context.Background(), req)
		require.ErrorIs(t, err, common.ErrMissingInput)
		assert.Nil(t, ret)
		assert.Contains(t, err.Error(), "Form1099NEC[0].business_receipts requires ScheduleC.gross_receipts")
		assert.Contains(t, err.Error(), "ScheduleSE[0].net_profit")
	})

	t.Run("reported on schedule C", func(t *testing.T) {
		req := Request{
			Params:  params2025(t),
			Profile: single(),
			Forms: []model.FormInput{
				nec,
				form(model.ScheduleC, "consulting", map[model.LineID]int64{"gross_receipts": 40_000}),
			},
		}
		ret, err := New().Compute(context.Background(), req)
		require.NoError(t, err)

		assert.Equal(t, "40000.00", amountOf(t, ret, model.Form1099NEC, "business_receipts"))
		assert.Equal(t, "5652.00", amountOf(t, ret, model.ScheduleSE, "se_tax"))
		assert.Equal(t, "37174.00", amountOf(t, ret, model.Form1040, "agi"))
		assert.Equal(t, "1000.00", amountOf(t, ret, model.Form1040, "form1099_withholding"))
	})
}

func TestComputeForeignTaxOnInterest(t *testing.T) {
	req := wageRequest(t, single(), 80_000)
	req.Forms = append(req.Forms, form(model.Form1099INT, "bank", map[model.LineID]int64{
		"interest":              20_000,
		"foreign_tax_paid":      1_000,
		"foreign_source_income": 20_000,
	}))
	ret, err := New().Compute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "84250.00", amountOf(t, ret, model.Form1040, "taxable_income"))
	assert.Equal(t, "1000.00", amountOf(t, ret, model.CreditLimit, "foreign_tax_credit"))
	assert.Equal(t, "1000.00", amountOf(t, ret, model.Schedule3, "foreign_tax_credit"))

	tax, _ := ret.Amount(model.Form1040, 0, "tax")
	assert.Equal(t, tax.Sub(money.FromDollars(1_000)).String(), amountOf(t, ret, model.Form6251, "regular_tax"))
	assert.Equal(t, "0.00", amountOf(t, ret, model.Form6251, "amt"))
}

func TestExplain(t *testing.T) {
	e := New()
	req := wageRequest(t, single(), 50_000)

	trace, err := e.Explain(context.Background(), req, model.Key(model.Form1040, 0, "tax"))
	require.NoError(t, err)
	last := trace[len(trace)-1]
	assert.Equal(t, "Form1040[0].tax", last.Node.String())
	assert.Equal(t, forms.RuleRegularTax, last.Rule)

	_, err = e.Explain(context.Background(), req, model.Key(model.Form8812, 0, "tentative_credit"))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
