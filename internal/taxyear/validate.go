package taxyear

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
)

// ErrInvalidParameters marks a parameter set whose data breaks a structural invariant.
var ErrInvalidParameters = errors.New("invalid tax year parameters")

type validator struct {
	p    *Parameters
	errs common.ErrorSet
}

func (v *validator) invalid(format string, args ...any) {
	v.errs = append(v.errs, fmt.Errorf("%w: tax year %d: %s", ErrInvalidParameters, v.p.Year, fmt.Sprintf(format, args...)))
}

func complete[T any](v *validator, name string, table ByStatus[T]) {
	for _, s := range model.FilingStatuses() {
		if _, ok := table[s]; !ok {
			v.errs = append(v.errs, &common.MissingParameterError{Year: v.p.Year, Parameter: name, Status: string(s)})
		}
	}
}

// Validate checks the parameter set's invariants and completeness. Every
// problem is reported; missing per-status entries are MissingParameterErrors.
func (p *Parameters) Validate() error {
	v := &validator{p: p}

	if p.Year <= 0 {
		v.invalid("year must be positive")
	}
	if !p.Rounding.Valid() {
		v.invalid("unknown rounding mode %q", p.Rounding)
	}

	complete(v, "brackets", p.Brackets)
	for _, s := range model.FilingStatuses() {
		if sched, ok := p.Brackets[s]; ok {
			v.schedule(s, sched)
		}
	}
	v.taxTable()

	complete(v, "capital_gains.zero_rate_max", p.CapitalGains.ZeroRateMax)
	complete(v, "capital_gains.fifteen_rate_max", p.CapitalGains.FifteenRateMax)
	complete(v, "capital_gains.loss_limit", p.CapitalGains.LossLimit)
	complete(v, "standard_deduction.base", p.StandardDeduction.Base)
	complete(v, "itemized.salt_cap", p.Itemized.SALTCap)
	complete(v, "itemized.salt_threshold", p.Itemized.SALTThreshold)
	complete(v, "itemized.salt_floor", p.Itemized.SALTFloor)
	complete(v, "adjustments.student_loan_phase_out", p.Adjustments.StudentLoanPhaseOut)
	complete(v, "schedule1a.overtime_cap", p.Schedule1A.OvertimeCap)
	complete(v, "schedule1a.income_phase_out", p.Schedule1A.IncomePhaseOut)
	complete(v, "schedule1a.senior_phase_out", p.Schedule1A.SeniorPhaseOut)
	complete(v, "qbi.threshold", p.QBI.Threshold)
	complete(v, "qbi.phase_in_range", p.QBI.PhaseInRange)
	complete(v, "additional_medicare.threshold", p.AdditionalMedicare.Threshold)
	complete(v, "niit.threshold", p.NIIT.Threshold)
	complete(v, "amt.exemption", p.AMT.Exemption)
	complete(v, "amt.phase_out", p.AMT.PhaseOut)
	complete(v, "amt.rate_break", p.AMT.RateBreak)
	complete(v, "child_tax_credit.phase_out", p.ChildTaxCredit.PhaseOut)
	complete(v, "education.phase_out", p.Education.PhaseOut)
	complete(v, "savers_credit.tiers", p.SaversCredit.Tiers)
	complete(v, "foreign_tax.de_minimis", p.ForeignTax.DeMinimis)

	v.phaseOuts("schedule1a.income_phase_out", p.Schedule1A.IncomePhaseOut)
	v.phaseOuts("schedule1a.senior_phase_out", p.Schedule1A.SeniorPhaseOut)
	v.phaseOuts("amt.phase_out", p.AMT.PhaseOut)
	v.phaseOuts("child_tax_credit.phase_out", p.ChildTaxCredit.PhaseOut)
	v.ratios("adjustments.student_loan_phase_out", p.Adjustments.StudentLoanPhaseOut)
	v.ratios("education.phase_out", p.Education.PhaseOut)

	v.creditOrder()

	if len(p.EITC.Schedules) == 0 {
		v.errs = append(v.errs, &common.MissingParameterError{Year: p.Year, Parameter: "eitc.schedules"})
	}
	if !p.EITC.BandWidth.IsPositive() {
		v.invalid("eitc band width must be positive")
	}

	return v.errs.OrNil()
}

func (v *validator) schedule(status model.FilingStatus, sched Schedule) {
	if len(sched) == 0 {
		v.invalid("%s brackets are empty", status)
		return
	}
	if !sched[0].Threshold.IsZero() {
		v.invalid("%s brackets must start at 0, got %s", status, sched[0].Threshold)
	}
	for i, b := range sched {
		if !b.Rate.IsPositive() || b.Rate.GreaterThan(decimal.NewFromInt(1)) {
			v.invalid("%s bracket %d rate %s outside (0,1]", status, i, b.Rate)
		}
		if i > 0 && !b.Threshold.GreaterThan(sched[i-1].Threshold) {
			v.invalid("%s bracket %d threshold %s does not exceed %s", status, i, b.Threshold, sched[i-1].Threshold)
		}
	}
}

func (v *validator) taxTable() {
	t := v.p.TaxTable
	if t.Ceiling.IsZero() {
		return
	}
	if len(t.Bands) == 0 {
		v.invalid("tax table has a ceiling but no bands")
		return
	}
	next := money.Zero
	for i, b := range t.Bands {
		if !b.From.Equal(next) {
			v.invalid("tax table band %d starts at %s, want %s", i, b.From, next)
		}
		if !b.Width.IsPositive() || !b.To.GreaterThan(b.From) {
			v.invalid("tax table band %d is empty", i)
		} else if !b.To.Sub(b.From).Decimal().Mod(b.Width.Decimal()).IsZero() {
			v.invalid("tax table band %d width %s does not divide the band", i, b.Width)
		}
		next = b.To
	}
	if !next.Equal(t.Ceiling) {
		v.invalid("tax table ends at %s, ceiling is %s", next, t.Ceiling)
	}
}

func (v *validator) phaseOuts(name string, table ByStatus[PhaseOut]) {
	for _, s := range model.FilingStatuses() {
		po, ok := table[s]
		if !ok {
			continue
		}
		if !po.Step.IsPositive() {
			v.invalid("%s for %s: step must be positive", name, s)
		}
		if po.Reduction.IsNegative() || po.Floor.IsNegative() {
			v.invalid("%s for %s: reduction and floor must not be negative", name, s)
		}
	}
}

func (v *validator) ratios(name string, table ByStatus[RatioPhaseOut]) {
	for _, s := range model.FilingStatuses() {
		if r, ok := table[s]; ok && !r.End.GreaterThan(r.Start) {
			v.invalid("%s for %s: end %s must exceed start %s", name, s, r.End, r.Start)
		}
	}
}

func (v *validator) creditOrder() {
	seen := make(map[CreditKind]bool, len(v.p.CreditOrder))
	for _, k := range v.p.CreditOrder {
		if seen[k] {
			v.invalid("credit %q appears twice in the ordering", k)
		}
		seen[k] = true
	}
	for _, k := range CreditKinds() {
		if !seen[k] {
			v.errs = append(v.errs, &common.MissingParameterError{Year: v.p.Year, Parameter: "credit_order." + string(k)})
		}
	}
}
