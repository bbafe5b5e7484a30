package model

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Veraticus/the-tax-must-flow/internal/money"
)

// ValueKind tags the variant held by a LineValue.
type ValueKind uint8

// Value kinds. The zero kind marks an unresolved line.
const (
	KindUnresolved ValueKind = iota
	KindAmount
	KindBool
	KindChoice
)

func (k ValueKind) String() string {
	switch k {
	case KindAmount:
		return "amount"
	case KindBool:
		return "bool"
	case KindChoice:
		return "choice"
	}
	return "unresolved"
}

// LineValue is the value of one form line: an amount, a boolean, or an enumerated choice.
type LineValue struct {
	amount money.Amount
	choice string
	kind   ValueKind
	flag   bool
}

// AmountValue wraps an amount.
func AmountValue(a money.Amount) LineValue {
	return LineValue{kind: KindAmount, amount: a}
}

// BoolValue wraps a boolean.
func BoolValue(b bool) LineValue {
	return LineValue{kind: KindBool, flag: b}
}

// ChoiceValue wraps an enumerated choice.
func ChoiceValue(c string) LineValue {
	return LineValue{kind: KindChoice, choice: c}
}

// ZeroOf returns the absent-form default for a kind: zero, false or the empty choice.
func ZeroOf(kind ValueKind) LineValue {
	switch kind {
	case KindAmount:
		return AmountValue(money.Zero)
	case KindBool:
		return BoolValue(false)
	case KindChoice:
		return ChoiceValue("")
	}
	return LineValue{}
}

// Kind returns the variant tag.
func (v LineValue) Kind() ValueKind { return v.kind }

// Resolved reports whether v holds a value.
func (v LineValue) Resolved() bool { return v.kind != KindUnresolved }

// Amount returns the amount and whether v is an amount.
func (v LineValue) Amount() (money.Amount, bool) { return v.amount, v.kind == KindAmount }

// Bool returns the flag and whether v is a boolean.
func (v LineValue) Bool() (bool, bool) { return v.flag, v.kind == KindBool }

// Choice returns the choice and whether v is a choice.
func (v LineValue) Choice() (string, bool) { return v.choice, v.kind == KindChoice }

// Equal compares kind and value. Amounts compare numerically.
func (v LineValue) Equal(o LineValue) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindAmount:
		return v.amount.Equal(o.amount)
	case KindBool:
		return v.flag == o.flag
	case KindChoice:
		return v.choice == o.choice
	}
	return true
}

func (v LineValue) String() string {
	switch v.kind {
	case KindAmount:
		return v.amount.String()
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindChoice:
		return v.choice
	}
	return "<unresolved>"
}

type lineValueJSON struct {
	Amount *money.Amount `json:"amount,omitempty"`
	Bool   *bool         `json:"bool,omitempty"`
	Choice *string       `json:"choice,omitempty"`
}

// MarshalJSON encodes the value as a single-key object naming its kind.
func (v LineValue) MarshalJSON() ([]byte, error) {
	var out lineValueJSON
	switch v.kind {
	case KindAmount:
		out.Amount = &v.amount
	case KindBool:
		out.Bool = &v.flag
	case KindChoice:
		out.Choice = &v.choice
	default:
		return []byte("null"), nil
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the single-key object form.
func (v *LineValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = LineValue{}
		return nil
	}
	var in lineValueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch {
	case in.Amount != nil:
		*v = AmountValue(*in.Amount)
	case in.Bool != nil:
		*v = BoolValue(*in.Bool)
	case in.Choice != nil:
		*v = ChoiceValue(*in.Choice)
	default:
		return fmt.Errorf("line value %s has no kind", data)
	}
	return nil
}
