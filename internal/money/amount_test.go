package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundDollar(t *testing.T) {
	tests := []struct {
		name  string
		cents int64
		want  string
	}{
		{"drops under fifty cents", 149, "1.00"},
		{"raises fifty cents", 150, "2.00"},
		{"raises above fifty cents", 151, "2.00"},
		{"whole dollar unchanged", 100, "1.00"},
		{"zero", 0, "0.00"},
		{"negative under fifty", -149, "-1.00"},
		{"negative fifty away from zero", -150, "-2.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromCents(tt.cents).RoundDollar().String())
		})
	}
}

func TestRoundModes(t *testing.T) {
	a := MustParse("123.455")
	assert.Equal(t, "123.46", a.Round(RoundCents).String())
	assert.Equal(t, "123.00", a.Round(RoundWholeDollar).String())
	assert.True(t, RoundCents.Valid())
	assert.False(t, Rounding("banker").Valid())
}

func TestFloorAndCeil(t *testing.T) {
	assert.Equal(t, "1.00", FromCents(199).FloorDollar().String())
	assert.Equal(t, "-2.00", FromCents(-101).FloorDollar().String())
	assert.Equal(t, "2.00", FromCents(101).CeilDollar().String())
	assert.Equal(t, "-1.00", FromCents(-101).CeilDollar().String())
}

func TestArithmetic(t *testing.T) {
	income := FromDollars(50_000)
	deduction := FromDollars(15_750)

	assert.Equal(t, "34250.00", income.Sub(deduction).String())
	assert.Equal(t, "11000.00", income.MulRate(Rate("0.22")).String())
	assert.Equal(t, "6600.00", FromDollars(2_200).MulInt(3).String())
	assert.Equal(t, "300.50", Sum(FromDollars(100), FromDollars(200), FromCents(50)).String())
	assert.True(t, Sum().IsZero())
	assert.True(t, FromDollars(-5).ClampZero().IsZero())
	assert.Equal(t, "5.00", FromDollars(5).Min(FromDollars(10)).String())
	assert.Equal(t, "10.00", FromDollars(5).Max(FromDollars(10)).String())
	assert.True(t, FromDollars(1).Ratio(Zero).IsZero())
	assert.Equal(t, "0.5", FromDollars(1).Ratio(FromDollars(2)).String())
}

func TestParse(t *testing.T) {
	a, err := Parse("$1,234.56")
	require.NoError(t, err)
	assert.Equal(t, "1234.56", a.String())

	_, err = Parse("twelve")
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Parse("  ")
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "$1,234,567.80", MustParse("1234567.8").Format())
	assert.Equal(t, "-$12.00", FromDollars(-12).Format())
	assert.Equal(t, "$0.05", FromCents(5).Format())
}

func TestJSONIsCanonical(t *testing.T) {
	// 36940.0000 and 36940 must encode identically for digests to be stable.
	a := FromDollars(40_000).MulRate(Rate("0.9235"))
	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Equal(t, `"36940"`, string(data))

	var back Amount
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equal(a))
}
