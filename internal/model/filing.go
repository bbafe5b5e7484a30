// Package model contains the core data types shared by the tax engine.
package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/the-tax-must-flow/internal/common"
)

// FilingStatus is the filer's status for the year. Exactly one applies.
type FilingStatus string

// Filing statuses.
const (
	Single                    FilingStatus = "single"
	MarriedJointly            FilingStatus = "married_jointly"
	MarriedSeparately         FilingStatus = "married_separately"
	HeadOfHousehold           FilingStatus = "head_of_household"
	QualifyingSurvivingSpouse FilingStatus = "qualifying_surviving_spouse"
)

// FilingStatuses returns every status in declaration order.
func FilingStatuses() []FilingStatus {
	return []FilingStatus{Single, MarriedJointly, MarriedSeparately, HeadOfHousehold, QualifyingSurvivingSpouse}
}

// Valid reports whether s is one of the five statuses.
func (s FilingStatus) Valid() bool {
	switch s {
	case Single, MarriedJointly, MarriedSeparately, HeadOfHousehold, QualifyingSurvivingSpouse:
		return true
	}
	return false
}

// Married reports whether the status uses the married additional standard deduction.
func (s FilingStatus) Married() bool {
	return s == MarriedJointly || s == MarriedSeparately || s == QualifyingSurvivingSpouse
}

// Label returns the name printed on the return.
func (s FilingStatus) Label() string {
	switch s {
	case Single:
		return "Single"
	case MarriedJointly:
		return "Married filing jointly"
	case MarriedSeparately:
		return "Married filing separately"
	case HeadOfHousehold:
		return "Head of household"
	case QualifyingSurvivingSpouse:
		return "Qualifying surviving spouse"
	}
	return string(s)
}

// ParseFilingStatus accepts the canonical names and the common abbreviations.
func ParseFilingStatus(s string) (FilingStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single", "s":
		return Single, nil
	case "married_jointly", "mfj", "married_filing_jointly":
		return MarriedJointly, nil
	case "married_separately", "mfs", "married_filing_separately":
		return MarriedSeparately, nil
	case "head_of_household", "hoh":
		return HeadOfHousehold, nil
	case "qualifying_surviving_spouse", "qss", "qualifying_widow":
		return QualifyingSurvivingSpouse, nil
	}
	return "", fmt.Errorf("%w: unknown filing status %q", common.ErrInvalidInput, s)
}

// Person carries the age and blindness facts for the taxpayer or spouse.
type Person struct {
	Age   int  `json:"age" yaml:"age"`
	Blind bool `json:"blind,omitempty" yaml:"blind"`
}

// DependentKind classifies a dependent.
type DependentKind string

// Dependent kinds.
const (
	QualifyingChild DependentKind = "qualifying_child"
	OtherDependent  DependentKind = "other_dependent"
)

// Dependent is one person claimed on the return.
type Dependent struct {
	Name         string        `json:"name" yaml:"name"`
	Relationship string        `json:"relationship,omitempty" yaml:"relationship"`
	Kind         DependentKind `json:"kind" yaml:"kind"`
	Age          int           `json:"age" yaml:"age"`
	MonthsLived  int           `json:"months_lived" yaml:"months_lived"`
	Student      bool          `json:"student,omitempty" yaml:"student"`
	Disabled     bool          `json:"disabled,omitempty" yaml:"disabled"`
}

// Elections are choices the filer makes explicitly rather than letting the engine infer them.
type Elections struct {
	ForceItemize bool `json:"force_itemize,omitempty" yaml:"force_itemize"`
}

// FilingProfile is the per-return set of filer facts. It is never mutated during a run.
type FilingProfile struct {
	Spouse             *Person      `json:"spouse,omitempty" yaml:"spouse"`
	Status             FilingStatus `json:"status" yaml:"status"`
	Dependents         []Dependent  `json:"dependents,omitempty" yaml:"dependents"`
	Taxpayer           Person       `json:"taxpayer" yaml:"taxpayer"`
	Elections          Elections    `json:"elections" yaml:"elections"`
	ClaimedAsDependent bool         `json:"claimed_as_dependent,omitempty" yaml:"claimed_as_dependent"`
	DualStatusAlien    bool         `json:"dual_status_alien,omitempty" yaml:"dual_status_alien"`
	SpouseItemizes     bool         `json:"spouse_itemizes,omitempty" yaml:"spouse_itemizes"`
}

// Validate checks the profile's own consistency. Every problem is reported.
func (p *FilingProfile) Validate() error {
	var errs common.ErrorSet
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{common.ErrInvalidInput}, args...)...))
	}

	if !p.Status.Valid() {
		invalid("unknown filing status %q", p.Status)
	}
	if p.Taxpayer.Age < 0 {
		invalid("taxpayer age %d is negative", p.Taxpayer.Age)
	}
	if p.Status == MarriedJointly && p.Spouse == nil {
		invalid("married filing jointly requires a spouse")
	}
	if p.Spouse != nil && p.Spouse.Age < 0 {
		invalid("spouse age %d is negative", p.Spouse.Age)
	}
	if p.SpouseItemizes && p.Status != MarriedSeparately {
		invalid("spouse_itemizes only applies to married filing separately")
	}
	for i, d := range p.Dependents {
		if d.Kind != QualifyingChild && d.Kind != OtherDependent {
			invalid("dependent %d (%s): unknown kind %q", i, d.Name, d.Kind)
		}
		if d.Age < 0 {
			invalid("dependent %d (%s): age %d is negative", i, d.Name, d.Age)
		}
		if d.MonthsLived < 0 || d.MonthsLived > 12 {
			invalid("dependent %d (%s): months lived %d outside 0-12", i, d.Name, d.MonthsLived)
		}
	}
	return errs.OrNil()
}

// CountedPersons returns the people whose age and blindness count on the return:
// the taxpayer, plus the spouse on a joint return.
func (p *FilingProfile) CountedPersons() []Person {
	persons := []Person{p.Taxpayer}
	if p.Spouse != nil && p.Status == MarriedJointly {
		persons = append(persons, *p.Spouse)
	}
	return persons
}

// Profile facts a provision may declare it consumes.
const (
	FactFilingStatus       = "filing_status"
	FactTaxpayerAge        = "taxpayer.age"
	FactTaxpayerBlind      = "taxpayer.blind"
	FactSpouseAge          = "spouse.age"
	FactSpouseBlind        = "spouse.blind"
	FactDependents         = "dependents"
	FactClaimedAsDependent = "claimed_as_dependent"
	FactDualStatusAlien    = "dual_status_alien"
	FactSpouseItemizes     = "spouse_itemizes"
	FactForceItemize       = "elections.force_itemize"
)

// Fact renders one profile fact for provenance.
func (p *FilingProfile) Fact(name string) (string, bool) {
	switch name {
	case FactFilingStatus:
		return string(p.Status), true
	case FactTaxpayerAge:
		return strconv.Itoa(p.Taxpayer.Age), true
	case FactTaxpayerBlind:
		return strconv.FormatBool(p.Taxpayer.Blind), true
	case FactSpouseAge:
		if p.Spouse == nil {
			return "none", true
		}
		return strconv.Itoa(p.Spouse.Age), true
	case FactSpouseBlind:
		if p.Spouse == nil {
			return "none", true
		}
		return strconv.FormatBool(p.Spouse.Blind), true
	case FactDependents:
		parts := make([]string, len(p.Dependents))
		for i, d := range p.Dependents {
			parts[i] = fmt.Sprintf("%s:%s:%d", d.Name, d.Kind, d.Age)
		}
		return "[" + strings.Join(parts, ",") + "]", true
	case FactClaimedAsDependent:
		return strconv.FormatBool(p.ClaimedAsDependent), true
	case FactDualStatusAlien:
		return strconv.FormatBool(p.DualStatusAlien), true
	case FactSpouseItemizes:
		return strconv.FormatBool(p.SpouseItemizes), true
	case FactForceItemize:
		return strconv.FormatBool(p.Elections.ForceItemize), true
	}
	return "", false
}
