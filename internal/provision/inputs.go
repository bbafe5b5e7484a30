// Package provision implements the tax law evaluators. Each evaluator is a
// pure function of the inputs its line declares, the tax year's parameters
// and the filing profile. Evaluators never read other lines, the clock or
// any global year.
package provision

import (
	"fmt"

	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
	"github.com/Veraticus/the-tax-must-flow/internal/taxyear"
)

// Inputs is everything one evaluation may read. Accessors record the first
// failure and return zero values afterwards, so an evaluator can read all of
// its inputs and check Err once.
type Inputs struct {
	params  *taxyear.Parameters
	profile *model.FilingProfile
	values  map[string]model.LineValue
	err     error
	param   string
	names   []string
}

// NewInputs prepares an evaluation against params and profile. param is the
// line's static rule parameter, empty for most rules.
func NewInputs(params *taxyear.Parameters, profile *model.FilingProfile, param string) *Inputs {
	return &Inputs{
		params:  params,
		profile: profile,
		param:   param,
		values:  make(map[string]model.LineValue),
	}
}

// Set binds a declared input. Inputs keep declaration order.
func (in *Inputs) Set(name string, v model.LineValue) {
	if _, ok := in.values[name]; !ok {
		in.names = append(in.names, name)
	}
	in.values[name] = v
}

// Value returns the raw input bound to name.
func (in *Inputs) Value(name string) (model.LineValue, bool) {
	v, ok := in.values[name]
	return v, ok
}

func (in *Inputs) get(name string, kind model.ValueKind) (model.LineValue, bool) {
	if in.err != nil {
		return model.LineValue{}, false
	}
	v, ok := in.values[name]
	if !ok {
		in.Fail(fmt.Errorf("%w: no input named %q", common.ErrInvalidInput, name))
		return model.LineValue{}, false
	}
	if v.Kind() != kind {
		in.Fail(fmt.Errorf("%w: input %q is %s, expected %s", common.ErrInvalidInput, name, v.Kind(), kind))
		return model.LineValue{}, false
	}
	return v, true
}

// Amount returns the amount input name.
func (in *Inputs) Amount(name string) money.Amount {
	v, ok := in.get(name, model.KindAmount)
	if !ok {
		return money.Zero
	}
	a, _ := v.Amount()
	return a
}

// NonNegative returns the amount input name and fails when it is negative.
func (in *Inputs) NonNegative(name string) money.Amount {
	a := in.Amount(name)
	if a.IsNegative() {
		in.Fail(fmt.Errorf("%w: %s cannot be negative (got %s)", common.ErrInvalidInput, name, a))
		return money.Zero
	}
	return a
}

// Bool returns the flag input name.
func (in *Inputs) Bool(name string) bool {
	v, ok := in.get(name, model.KindBool)
	if !ok {
		return false
	}
	b, _ := v.Bool()
	return b
}

// Choice returns the choice input name.
func (in *Inputs) Choice(name string) string {
	v, ok := in.get(name, model.KindChoice)
	if !ok {
		return ""
	}
	c, _ := v.Choice()
	return c
}

// Amounts returns every input in declaration order. All must be amounts.
func (in *Inputs) Amounts() []money.Amount {
	out := make([]money.Amount, 0, len(in.names))
	for _, name := range in.names {
		out = append(out, in.Amount(name))
	}
	return out
}

// Bools returns every input in declaration order. All must be flags.
func (in *Inputs) Bools() []bool {
	out := make([]bool, 0, len(in.names))
	for _, name := range in.names {
		out = append(out, in.Bool(name))
	}
	return out
}

// Params returns the tax year parameters.
func (in *Inputs) Params() *taxyear.Parameters { return in.params }

// Profile returns the filing profile.
func (in *Inputs) Profile() *model.FilingProfile { return in.profile }

// Status returns the filing status.
func (in *Inputs) Status() model.FilingStatus { return in.profile.Status }

// Param returns the line's static rule parameter.
func (in *Inputs) Param() string { return in.param }

// Fail records err unless an earlier failure is already recorded.
func (in *Inputs) Fail(err error) {
	if in.err == nil {
		in.err = err
	}
}

// Err returns the first recorded failure.
func (in *Inputs) Err() error { return in.err }

// round applies the parameter set's rounding mode.
func (in *Inputs) round(a money.Amount) money.Amount {
	return a.Round(in.params.Rounding)
}

// result finishes an amount-valued evaluation.
func (in *Inputs) result(a money.Amount) (model.LineValue, error) {
	if in.err != nil {
		return model.LineValue{}, in.err
	}
	return model.AmountValue(in.round(a)), nil
}

// exact finishes an evaluation whose inputs are already rounded.
func (in *Inputs) exact(a money.Amount) (model.LineValue, error) {
	if in.err != nil {
		return model.LineValue{}, in.err
	}
	return model.AmountValue(a), nil
}

// lookup reads a per-status parameter, recording a MissingParameter failure.
func lookup[T any](in *Inputs, name string, table taxyear.ByStatus[T]) T {
	v, err := taxyear.Lookup(in.params.Year, name, table, in.profile.Status)
	if err != nil {
		in.Fail(err)
	}
	return v
}
