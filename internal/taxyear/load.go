package taxyear

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
)

type bracketFile struct {
	Threshold float64 `yaml:"threshold" toml:"threshold"`
	Rate      float64 `yaml:"rate" toml:"rate"`
}

type childTaxCreditFile struct {
	PerChild           *float64 `yaml:"per_child" toml:"per_child"`
	PerOtherDependent  *float64 `yaml:"per_other_dependent" toml:"per_other_dependent"`
	RefundablePerChild *float64 `yaml:"refundable_per_child" toml:"refundable_per_child"`
}

type selfEmploymentFile struct {
	WageBase *float64 `yaml:"wage_base" toml:"wage_base"`
}

type eitcFile struct {
	InvestmentIncomeLimit *float64 `yaml:"investment_income_limit" toml:"investment_income_limit"`
}

// overrideFile is the on-disk shape of a parameter file. Every section is
// optional and replaces the matching part of the base year.
type overrideFile struct {
	Brackets          map[string][]bracketFile `yaml:"brackets" toml:"brackets"`
	StandardDeduction map[string]float64       `yaml:"standard_deduction" toml:"standard_deduction"`
	ChildTaxCredit    childTaxCreditFile       `yaml:"child_tax_credit" toml:"child_tax_credit"`
	SelfEmployment    selfEmploymentFile       `yaml:"self_employment" toml:"self_employment"`
	EITC              eitcFile                 `yaml:"eitc" toml:"eitc"`
	Rounding          string                   `yaml:"rounding" toml:"rounding"`
	Year              int                      `yaml:"year" toml:"year"`
	Base              int                      `yaml:"base" toml:"base"`
}

// LoadFile reads a YAML or TOML parameter file. The file starts from its base
// year's bundled parameters (base defaults to year) and the result is validated.
func LoadFile(path string) (*Parameters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter file: %w", err)
	}

	var f overrideFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&f)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse parameter file %s: %w", path, err)
	}

	p, err := f.apply()
	if err != nil {
		return nil, fmt.Errorf("parameter file %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("parameter file %s: %w", path, err)
	}
	return p, nil
}

func (f *overrideFile) apply() (*Parameters, error) {
	if f.Year <= 0 {
		return nil, fmt.Errorf("%w: year is required", ErrInvalidParameters)
	}
	base := f.Base
	if base == 0 {
		base = f.Year
	}
	p, err := Bundled(base)
	if err != nil {
		return nil, fmt.Errorf("base year: %w", err)
	}
	p.Year = f.Year

	if f.Rounding != "" {
		p.Rounding = money.Rounding(f.Rounding)
	}

	for name, rows := range f.Brackets {
		status, err := model.ParseFilingStatus(name)
		if err != nil {
			return nil, err
		}
		sched := make(Schedule, len(rows))
		for i, row := range rows {
			sched[i] = Bracket{Threshold: dollars(row.Threshold), Rate: decimal.NewFromFloat(row.Rate)}
		}
		p.Brackets[status] = sched
	}

	for name, amount := range f.StandardDeduction {
		status, err := model.ParseFilingStatus(name)
		if err != nil {
			return nil, err
		}
		p.StandardDeduction.Base[status] = dollars(amount)
	}

	setAmount(&p.ChildTaxCredit.PerChild, f.ChildTaxCredit.PerChild)
	setAmount(&p.ChildTaxCredit.PerOtherDependent, f.ChildTaxCredit.PerOtherDependent)
	setAmount(&p.ChildTaxCredit.RefundablePerChild, f.ChildTaxCredit.RefundablePerChild)
	setAmount(&p.SelfEmployment.WageBase, f.SelfEmployment.WageBase)
	setAmount(&p.EITC.InvestmentIncomeLimit, f.EITC.InvestmentIncomeLimit)

	return p, nil
}

func dollars(f float64) money.Amount {
	return money.FromDecimal(decimal.NewFromFloat(f))
}

func setAmount(dst *money.Amount, v *float64) {
	if v != nil {
		*dst = dollars(*v)
	}
}
