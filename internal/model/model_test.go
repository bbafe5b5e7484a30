package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
)

func TestParseFilingStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    FilingStatus
		wantErr bool
	}{
		{"single", Single, false},
		{"MFJ", MarriedJointly, false},
		{"married_separately", MarriedSeparately, false},
		{" hoh ", HeadOfHousehold, false},
		{"qss", QualifyingSurvivingSpouse, false},
		{"widowed", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFilingStatus(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilingStatusesAreExhaustive(t *testing.T) {
	statuses := FilingStatuses()
	assert.Len(t, statuses, 5)
	for _, s := range statuses {
		assert.True(t, s.Valid(), s)
		assert.NotEqual(t, string(s), s.Label())
	}
	assert.False(t, FilingStatus("divorced").Valid())
	assert.True(t, QualifyingSurvivingSpouse.Married())
	assert.False(t, HeadOfHousehold.Married())
}

func TestProfileValidate(t *testing.T) {
	valid := FilingProfile{
		Status:   MarriedJointly,
		Taxpayer: Person{Age: 40},
		Spouse:   &Person{Age: 38},
		Dependents: []Dependent{
			{Name: "Ada", Kind: QualifyingChild, Age: 7, MonthsLived: 12},
		},
	}
	require.NoError(t, valid.Validate())

	broken := FilingProfile{
		Status:         MarriedJointly,
		Taxpayer:       Person{Age: -1},
		SpouseItemizes: true,
		Dependents: []Dependent{
			{Name: "Bo", Kind: "cousin", Age: -3, MonthsLived: 13},
		},
	}
	err := broken.Validate()
	require.ErrorIs(t, err, common.ErrInvalidInput)
	assert.Len(t, common.Errors(err), 6)
}

func TestCountedPersons(t *testing.T) {
	p := FilingProfile{Status: MarriedJointly, Taxpayer: Person{Age: 70}, Spouse: &Person{Age: 66, Blind: true}}
	assert.Len(t, p.CountedPersons(), 2)

	p.Status = MarriedSeparately
	assert.Len(t, p.CountedPersons(), 1)
}

func TestProfileFacts(t *testing.T) {
	p := FilingProfile{
		Status:     HeadOfHousehold,
		Taxpayer:   Person{Age: 45},
		Dependents: []Dependent{{Name: "Cy", Kind: OtherDependent, Age: 19}},
	}

	v, ok := p.Fact(FactFilingStatus)
	require.True(t, ok)
	assert.Equal(t, "head_of_household", v)

	v, _ = p.Fact(FactSpouseAge)
	assert.Equal(t, "none", v)

	v, _ = p.Fact(FactDependents)
	assert.Equal(t, "[Cy:other_dependent:19]", v)

	_, ok = p.Fact("shoe_size")
	assert.False(t, ok)
}

func TestNodeKeyRoundTrip(t *testing.T) {
	k := Key(FormW2, 1, "wages")
	assert.Equal(t, "W2[1].wages", k.String())

	parsed, err := ParseNodeKey("W2[1].wages")
	require.NoError(t, err)
	assert.Equal(t, k, parsed)

	parsed, err = ParseNodeKey("Form1040.agi")
	require.NoError(t, err)
	assert.Equal(t, Key(Form1040, 0, "agi"), parsed)

	for _, bad := range []string{"", "Form1040", "W2[x].wages", "W2[1.wages", "W2[-1].wages"} {
		_, err := ParseNodeKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestLineValueVariants(t *testing.T) {
	amt := AmountValue(money.FromDollars(15_750))
	a, ok := amt.Amount()
	require.True(t, ok)
	assert.Equal(t, "15750.00", a.String())
	_, ok = amt.Bool()
	assert.False(t, ok)

	assert.True(t, BoolValue(true).Equal(BoolValue(true)))
	assert.False(t, BoolValue(true).Equal(ChoiceValue("true")))
	assert.True(t, AmountValue(money.MustParse("1.50")).Equal(AmountValue(money.MustParse("1.5"))))
	assert.False(t, LineValue{}.Resolved())
	assert.Equal(t, KindAmount, ZeroOf(KindAmount).Kind())
	assert.Equal(t, "standard", ChoiceValue("standard").String())
}

func TestLineValueJSON(t *testing.T) {
	values := []LineValue{
		AmountValue(money.MustParse("3875.00")),
		BoolValue(true),
		ChoiceValue("itemized"),
	}
	data, err := json.Marshal(values)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"amount":"3875"},{"bool":true},{"choice":"itemized"}]`, string(data))

	var back []LineValue
	require.NoError(t, json.Unmarshal(data, &back))
	require.Len(t, back, 3)
	for i := range values {
		assert.True(t, values[i].Equal(back[i]), i)
	}

	var bad LineValue
	assert.Error(t, json.Unmarshal([]byte(`{}`), &bad))
}
