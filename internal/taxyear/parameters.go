// Package taxyear holds the immutable numeric provisions for one tax year.
//
// A Parameters value is pure data. Nothing in the engine reads a "current"
// year: every computation receives its Parameters explicitly, and a single
// value may be shared read-only by any number of concurrent computations.
package taxyear

import (
	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
)

// ByStatus maps each filing status to a value.
type ByStatus[T any] map[model.FilingStatus]T

// Lookup returns the entry for status or a MissingParameterError.
func Lookup[T any](year int, name string, table ByStatus[T], status model.FilingStatus) (T, error) {
	v, ok := table[status]
	if !ok {
		var zero T
		return zero, &common.MissingParameterError{Year: year, Parameter: name, Status: string(status)}
	}
	return v, nil
}

// Bracket is one row of a rate schedule: income above Threshold is taxed at Rate.
type Bracket struct {
	Threshold money.Amount
	Rate      decimal.Decimal
}

// Schedule is an ordered bracket table starting at zero.
type Schedule []Bracket

// TableBand is a range of the tax table in which tax is computed at the
// midpoint of each Width-wide row.
type TableBand struct {
	From  money.Amount
	To    money.Amount
	Width money.Amount
}

// TaxTable describes the published tax table used below Ceiling.
type TaxTable struct {
	Ceiling money.Amount
	Bands   []TableBand
}

// PhaseOut is a step reduction: for every Step (or part of one) by which
// income exceeds Threshold, the amount drops by Reduction, never below Floor.
type PhaseOut struct {
	Threshold money.Amount
	Step      money.Amount
	Reduction decimal.Decimal
	Floor     money.Amount
}

// RatioPhaseOut reduces an amount linearly to zero between Start and End.
type RatioPhaseOut struct {
	Start money.Amount
	End   money.Amount
}

// RateTier applies Rate while income is at most UpTo.
type RateTier struct {
	UpTo money.Amount
	Rate decimal.Decimal
}

// CreditKind names a nonrefundable credit in the ordering.
type CreditKind string

// Nonrefundable credits.
const (
	CreditForeignTax        CreditKind = "foreign_tax"
	CreditDependentCare     CreditKind = "dependent_care"
	CreditEducation         CreditKind = "education"
	CreditRetirementSavings CreditKind = "retirement_savings"
	CreditChildTax          CreditKind = "child_tax"
)

// CreditKinds returns every nonrefundable credit kind.
func CreditKinds() []CreditKind {
	return []CreditKind{CreditForeignTax, CreditDependentCare, CreditEducation, CreditRetirementSavings, CreditChildTax}
}

// CapitalGains holds the qualified dividend and capital gain rate breakpoints.
type CapitalGains struct {
	ZeroRateMax    ByStatus[money.Amount]
	FifteenRateMax ByStatus[money.Amount]
	LowRate        decimal.Decimal
	MidRate        decimal.Decimal
	HighRate       decimal.Decimal
	LossLimit      ByStatus[money.Amount]
}

// StandardDeduction holds the standard deduction amounts.
type StandardDeduction struct {
	Base                    ByStatus[money.Amount]
	AdditionalUnmarried     money.Amount
	AdditionalMarried       money.Amount
	DependentMinimum        money.Amount
	DependentEarnedAddition money.Amount
	AdditionalAge           int
}

// Itemized holds the Schedule A limits.
type Itemized struct {
	MedicalFloorRate  decimal.Decimal
	SALTCap           ByStatus[money.Amount]
	SALTThreshold     ByStatus[money.Amount]
	SALTReductionRate decimal.Decimal
	SALTFloor         ByStatus[money.Amount]
}

// Adjustments holds Schedule 1 Part II limits.
type Adjustments struct {
	EducatorExpenseCap  money.Amount
	StudentLoanCap      money.Amount
	StudentLoanPhaseOut ByStatus[RatioPhaseOut]
}

// Schedule1A holds the 2025 tips, overtime and senior deductions.
type Schedule1A struct {
	TipsCap        money.Amount
	OvertimeCap    ByStatus[money.Amount]
	IncomePhaseOut ByStatus[PhaseOut]
	SeniorAmount   money.Amount
	SeniorAge      int
	SeniorPhaseOut ByStatus[PhaseOut]
}

// QBI holds the qualified business income deduction parameters.
type QBI struct {
	Rate         decimal.Decimal
	Threshold    ByStatus[money.Amount]
	PhaseInRange ByStatus[money.Amount]
	WageRate     decimal.Decimal
	AltWageRate  decimal.Decimal
	UBIARate     decimal.Decimal
}

// SelfEmployment holds Schedule SE rates. The 92.35% multiplier is statutory
// and lives with the evaluator.
type SelfEmployment struct {
	SocialSecurityRate decimal.Decimal
	MedicareRate       decimal.Decimal
	WageBase           money.Amount
	MinimumEarnings    money.Amount
}

// Surtax is a flat rate over a status threshold (additional Medicare, NIIT).
type Surtax struct {
	Rate      decimal.Decimal
	Threshold ByStatus[money.Amount]
}

// AMT holds the alternative minimum tax parameters.
type AMT struct {
	Exemption ByStatus[money.Amount]
	PhaseOut  ByStatus[PhaseOut]
	LowRate   decimal.Decimal
	HighRate  decimal.Decimal
	RateBreak ByStatus[money.Amount]
}

// ChildTaxCredit holds Form 8812 parameters.
type ChildTaxCredit struct {
	PerChild           money.Amount
	PerOtherDependent  money.Amount
	ChildAgeLimit      int
	PhaseOut           ByStatus[PhaseOut]
	RefundablePerChild money.Amount
	EarnedIncomeFloor  money.Amount
	EarnedIncomeRate   decimal.Decimal
	AlternativeMinimum int
}

// DependentCare holds Form 2441 parameters.
type DependentCare struct {
	OnePersonLimit  money.Amount
	TwoOrMoreLimit  money.Amount
	QualifyingAge   int
	MaxRate         decimal.Decimal
	MinRate         decimal.Decimal
	RateThreshold   money.Amount
	RateStep        money.Amount
	RateStepPercent decimal.Decimal
}

// Education holds Form 8863 parameters.
type Education struct {
	AOTCFirstTier   money.Amount
	AOTCSecondTier  money.Amount
	AOTCSecondRate  decimal.Decimal
	RefundableShare decimal.Decimal
	LLCRate         decimal.Decimal
	LLCExpenseLimit money.Amount
	PhaseOut        ByStatus[RatioPhaseOut]
}

// SaversCredit holds Form 8880 parameters.
type SaversCredit struct {
	Tiers             ByStatus[[]RateTier]
	ContributionLimit money.Amount
}

// ForeignTax holds the foreign tax credit de minimis limits.
type ForeignTax struct {
	DeMinimis ByStatus[money.Amount]
}

// EITCSchedule is one column of the earned income credit table.
type EITCSchedule struct {
	CreditRate         decimal.Decimal
	EarnedIncomeAmount money.Amount
	MaxCredit          money.Amount
	PhaseOutStart      money.Amount
	PhaseOutStartJoint money.Amount
	PhaseOutRate       decimal.Decimal
}

// EITC holds the earned income credit parameters. Schedules is indexed by the
// number of qualifying children, the last entry covering that many or more.
type EITC struct {
	Schedules             []EITCSchedule
	InvestmentIncomeLimit money.Amount
	TableCeiling          money.Amount
	BandWidth             money.Amount
	ChildAgeLimit         int
	StudentAgeLimit       int
	ChildlessMinAge       int
	ChildlessMaxAge       int
}

// Parameters is the full provision set for one tax year.
type Parameters struct {
	Brackets           ByStatus[Schedule]
	CapitalGains       CapitalGains
	StandardDeduction  StandardDeduction
	Itemized           Itemized
	Adjustments        Adjustments
	Schedule1A         Schedule1A
	QBI                QBI
	SelfEmployment     SelfEmployment
	AdditionalMedicare Surtax
	NIIT               Surtax
	AMT                AMT
	ChildTaxCredit     ChildTaxCredit
	DependentCare      DependentCare
	Education          Education
	SaversCredit       SaversCredit
	ForeignTax         ForeignTax
	EITC               EITC
	Rounding           money.Rounding
	TaxTable           TaxTable
	CreditOrder        []CreditKind
	Year               int
}
