package model

import (
	"fmt"
	"strconv"
	"strings"
)

// FormType names one form or schedule. The set is closed; see AllFormTypes.
type FormType string

// Form types, in catalog order.
const (
	FormW2      FormType = "W2"
	Form1099INT FormType = "1099-INT"
	Form1099DIV FormType = "1099-DIV"
	Form1099NEC FormType = "1099-NEC"
	Form1098E   FormType = "1098-E"
	Form1098T   FormType = "1098-T"
	ScheduleC   FormType = "ScheduleC"
	ScheduleSE  FormType = "ScheduleSE"
	ScheduleD   FormType = "ScheduleD"
	Schedule1   FormType = "Schedule1"
	ScheduleA   FormType = "ScheduleA"
	Schedule1A  FormType = "Schedule1A"
	Form8995    FormType = "Form8995"
	Form2441    FormType = "Form2441"
	Form8863    FormType = "Form8863"
	Form8880    FormType = "Form8880"
	CreditLimit FormType = "CreditLimit"
	Form8812    FormType = "Form8812"
	Form8959    FormType = "Form8959"
	Form8960    FormType = "Form8960"
	Form6251    FormType = "Form6251"
	ScheduleEIC FormType = "ScheduleEIC"
	Schedule2   FormType = "Schedule2"
	Schedule3   FormType = "Schedule3"
	Form1040    FormType = "Form1040"
)

// AllFormTypes returns every form type in catalog order.
func AllFormTypes() []FormType {
	return []FormType{
		FormW2, Form1099INT, Form1099DIV, Form1099NEC, Form1098E, Form1098T,
		ScheduleC, ScheduleSE, ScheduleD, Schedule1, ScheduleA, Schedule1A,
		Form8995, Form2441, Form8863, Form8880, CreditLimit, Form8812,
		Form8959, Form8960, Form6251, ScheduleEIC, Schedule2, Schedule3, Form1040,
	}
}

// LineID identifies a line within a form, e.g. "wages" or "agi".
type LineID string

// NodeKey addresses one line of one form instance.
type NodeKey struct {
	Form     FormType `json:"form"`
	Line     LineID   `json:"line"`
	Instance int      `json:"instance"`
}

// Key builds a NodeKey.
func Key(form FormType, instance int, line LineID) NodeKey {
	return NodeKey{Form: form, Instance: instance, Line: line}
}

// String renders the key as "Form1040[0].agi".
func (k NodeKey) String() string {
	return fmt.Sprintf("%s[%d].%s", k.Form, k.Instance, k.Line)
}

// ParseNodeKey parses "Form1040[0].agi". A missing index means instance 0.
func ParseNodeKey(s string) (NodeKey, error) {
	formPart, line, ok := strings.Cut(strings.TrimSpace(s), ".")
	if !ok || formPart == "" || line == "" {
		return NodeKey{}, fmt.Errorf("invalid node key %q: want Form[instance].line", s)
	}
	instance := 0
	if open := strings.IndexByte(formPart, '['); open >= 0 {
		if !strings.HasSuffix(formPart, "]") {
			return NodeKey{}, fmt.Errorf("invalid node key %q: unterminated instance index", s)
		}
		n, err := strconv.Atoi(formPart[open+1 : len(formPart)-1])
		if err != nil || n < 0 {
			return NodeKey{}, fmt.Errorf("invalid node key %q: bad instance index", s)
		}
		instance = n
		formPart = formPart[:open]
	}
	return NodeKey{Form: FormType(formPart), Instance: instance, Line: LineID(line)}, nil
}

// FormInput is the raw data for one filed form instance. Key distinguishes
// instances of repeatable forms (for example an employer EIN on a W-2).
type FormInput struct {
	Lines map[LineID]LineValue
	Form  FormType
	Key   string
}
