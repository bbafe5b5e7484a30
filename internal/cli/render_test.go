package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-tax-must-flow/internal/engine"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
	"github.com/Veraticus/the-tax-must-flow/internal/storage"
	"github.com/Veraticus/the-tax-must-flow/internal/testutil"
)

func TestRenderReturn(t *testing.T) {
	tests := []struct {
		name        string
		withholding int64
		want        []string
	}{
		{
			name:        "amount owed",
			withholding: 0,
			want:        []string{"2025 Single return", "Adjusted gross income", "$50,000.00", "$3,875.00", "Amount owed $3,875.00"},
		},
		{
			name:        "refund",
			withholding: 5_000,
			want:        []string{"Payments", "$5,000.00", "Refund $1,125.00"},
		},
		{
			name:        "balanced",
			withholding: 3_875,
			want:        []string{"Nothing owed, nothing refunded"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ret := testutil.WageReturn(t, 50_000, tt.withholding)
			var buf bytes.Buffer
			require.NoError(t, RenderReturn(&buf, ret))
			for _, s := range tt.want {
				assert.Contains(t, buf.String(), s)
			}
			assert.Contains(t, buf.String(), ret.Digest())
			assert.Contains(t, buf.String(), "╭", "result is boxed")
		})
	}
}

func TestRenderTrace(t *testing.T) {
	ret := testutil.WageReturn(t, 50_000, 0)
	trace := ret.Trace(model.Key(model.Form1040, 0, "agi"))
	require.NotEmpty(t, trace)

	var buf bytes.Buffer
	require.NoError(t, RenderTrace(&buf, trace))
	out := buf.String()
	assert.Contains(t, out, "W2[0].wages = 50000.00")
	assert.Contains(t, out, "Form1040[0].agi = 50000.00")
	assert.Contains(t, out, "from W2[0].wages")
	assert.Contains(t, out, "rule")
}

func TestDescribeInput(t *testing.T) {
	ten := model.AmountValue(money.FromDollars(10))
	assert.Equal(t, "10.00 (absent, defaulted)", describeInput(model.ConsumedInput{Name: "x", Value: ten, Defaulted: true}))
	assert.Equal(t, "10.00 from W2[0].wages + W2[1].wages", describeInput(model.ConsumedInput{
		Name:    "wages",
		Value:   ten,
		Sources: []model.NodeKey{model.Key(model.FormW2, 0, "wages"), model.Key(model.FormW2, 1, "wages")},
	}))
	assert.Equal(t, "true", describeInput(model.ConsumedInput{Name: "flag", Value: model.BoolValue(true)}))
}

func TestRenderOutcomes(t *testing.T) {
	base := engine.Request{
		Params:  testutil.Params2025(t),
		Profile: &model.FilingProfile{Status: model.Single, Taxpayer: model.Person{Age: 30}},
		Forms:   []model.FormInput{testutil.W2("employer", 50_000, 0)},
	}
	outcomes, err := engine.New().WhatIf(context.Background(), base, []engine.Scenario{
		{Name: "as filed"},
		{Name: "raise", Forms: []model.FormInput{testutil.W2("employer", 51_000, 0)}},
	}, engine.WhatIfOptions{Workers: 2})
	require.NoError(t, err)
	outcomes = append(outcomes, engine.Outcome{Scenario: "broken", Err: errors.New("no such line")})

	var buf bytes.Buffer
	require.NoError(t, RenderOutcomes(&buf, outcomes))
	out := buf.String()
	assert.Contains(t, out, "as filed")
	assert.Contains(t, out, "+$120.00", "an extra $1,000 in the 12% bracket")
	assert.Contains(t, out, "owe $3,875.00")
	assert.Contains(t, out, "no such line")
}

func TestRenderHistory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHistory(&buf, nil))
	assert.Contains(t, buf.String(), "No archived returns")

	id := uuid.MustParse("6f1c2a3b-0000-4000-8000-000000000001")
	buf.Reset()
	require.NoError(t, RenderHistory(&buf, []storage.StoredReturn{{
		ID:        id,
		CreatedAt: time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC),
		TaxYear:   2025,
		Status:    model.MarriedJointly,
		Label:     "draft",
		TotalTax:  money.FromDollars(1_200),
		Balance:   money.FromDollars(300),
	}}))
	out := buf.String()
	assert.Contains(t, out, "6f1c2a3b")
	assert.Contains(t, out, "married_jointly")
	assert.Contains(t, out, "draft")
	assert.Contains(t, out, "$1,200.00")
	assert.Contains(t, out, "refund $300.00")
}

func TestBalance(t *testing.T) {
	assert.Equal(t, "1125.00", Balance(testutil.WageReturn(t, 50_000, 5_000)).String())
	assert.Equal(t, "-3875.00", Balance(testutil.WageReturn(t, 50_000, 0)).String())
}
