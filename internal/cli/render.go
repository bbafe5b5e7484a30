package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/the-tax-must-flow/internal/assembler"
	"github.com/Veraticus/the-tax-must-flow/internal/engine"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
	"github.com/Veraticus/the-tax-must-flow/internal/storage"
)

type summaryLine struct {
	label string
	line  model.LineID
}

// summary is the Form 1040 excerpt shown after a computation.
var summary = []summaryLine{
	{"Total income", "total_income"},
	{"Adjustments", "adjustments"},
	{"Adjusted gross income", "agi"},
	{"Deduction", "deduction"},
	{"QBI deduction", "qbi_deduction"},
	{"Taxable income", "taxable_income"},
	{"Tax", "tax"},
	{"Credits", "total_credits"},
	{"Other taxes", "other_taxes"},
	{"Total tax", "total_tax"},
	{"Payments", "total_payments"},
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// RenderReturn writes the headline lines of a computed return.
func RenderReturn(w io.Writer, ret *assembler.ComputedReturn) error {
	title := fmt.Sprintf("%d %s return", ret.Year(), ret.Status().Label())
	if _, err := fmt.Fprintln(w, FormatTitle(title)); err != nil {
		return err
	}

	tw := newTable(w)
	for _, s := range summary {
		a, ok := ret.Amount(model.Form1040, 0, s.line)
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", s.label, a.Format()); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	over, _ := ret.Amount(model.Form1040, 0, "overpayment")
	owed, _ := ret.Amount(model.Form1040, 0, "amount_owed")
	var result string
	switch {
	case over.IsPositive():
		result = SuccessStyle.Render("Refund " + over.Format())
	case owed.IsPositive():
		result = WarningStyle.Render("Amount owed " + owed.Format())
	default:
		result = InfoStyle.Render("Nothing owed, nothing refunded")
	}
	_, err := fmt.Fprintf(w, "\n%s\n", RenderBox(result, SubtleStyle.Render("digest "+ret.Digest())))
	return err
}

// RenderRecord writes one provenance record: the rule, each consumed input
// and any profile facts or parameter read.
func RenderRecord(w io.Writer, rec model.ProvenanceRecord) error {
	if _, err := fmt.Fprintf(w, "%s = %s\n", BoldStyle.Render(rec.Node.String()), rec.Value); err != nil {
		return err
	}
	tw := newTable(w)
	rows := [][2]string{{"rule", rec.Rule}}
	if rec.Param != "" {
		rows = append(rows, [2]string{"parameter", rec.Param})
	}
	for _, f := range rec.Facts {
		rows = append(rows, [2]string{"fact " + f.Name, f.Value})
	}
	for _, in := range rec.Inputs {
		rows = append(rows, [2]string{"input " + in.Name, describeInput(in)})
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "  %s\t%s\n", SubtleStyle.Render(r[0]), r[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func describeInput(in model.ConsumedInput) string {
	var b strings.Builder
	b.WriteString(in.Value.String())
	switch {
	case in.Defaulted:
		b.WriteString(" (absent, defaulted)")
	case len(in.Sources) > 0:
		names := make([]string, len(in.Sources))
		for i, k := range in.Sources {
			names[i] = k.String()
		}
		b.WriteString(" from " + strings.Join(names, " + "))
	}
	return b.String()
}

// RenderTrace writes every record of a trace, upstream lines first.
func RenderTrace(w io.Writer, records []model.ProvenanceRecord) error {
	for i, rec := range records {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := RenderRecord(w, rec); err != nil {
			return err
		}
	}
	return nil
}

// RenderOutcomes writes one row per what-if scenario. Deltas are relative to
// the first successful outcome.
func RenderOutcomes(w io.Writer, outcomes []engine.Outcome) error {
	if _, err := fmt.Fprintln(w, TitleStyle.Render(ChartIcon+" What-if")); err != nil {
		return err
	}

	var baseline *money.Amount
	tw := newTable(w)
	if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
		TableHeaderStyle.Render("Scenario"),
		TableHeaderStyle.Render("AGI"),
		TableHeaderStyle.Render("Total tax"),
		TableHeaderStyle.Render("Balance"),
		TableHeaderStyle.Render("Change")); err != nil {
		return err
	}
	for _, o := range outcomes {
		if o.Err != nil {
			if _, err := fmt.Fprintf(tw, "%s\t%s\t\t\t\n", o.Scenario, ErrorStyle.Render(o.Err.Error())); err != nil {
				return err
			}
			continue
		}
		agi, _ := o.Return.Amount(model.Form1040, 0, "agi")
		tax, _ := o.Return.Amount(model.Form1040, 0, "total_tax")
		bal := Balance(o.Return)

		change := "-"
		if baseline == nil {
			baseline = &tax
		} else {
			change = signed(tax.Sub(*baseline))
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			o.Scenario, agi.Format(), tax.Format(), balanceStyle(bal), change); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// RenderHistory writes a listing of archived returns.
func RenderHistory(w io.Writer, returns []storage.StoredReturn) error {
	if len(returns) == 0 {
		_, err := fmt.Fprintln(w, InfoStyle.Render("No archived returns. Use 'taxflow compute --save' to archive one."))
		return err
	}
	if _, err := fmt.Fprintln(w, TitleStyle.Render(FolderIcon+" Archived returns")); err != nil {
		return err
	}

	tw := newTable(w)
	if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		TableHeaderStyle.Render("ID"),
		TableHeaderStyle.Render("Created"),
		TableHeaderStyle.Render("Year"),
		TableHeaderStyle.Render("Status"),
		TableHeaderStyle.Render("Label"),
		TableHeaderStyle.Render("Total tax"),
		TableHeaderStyle.Render("Balance")); err != nil {
		return err
	}
	for _, r := range returns {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			r.ID.String()[:8],
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.TaxYear,
			r.Status,
			r.Label,
			r.TotalTax.Format(),
			balanceStyle(r.Balance)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Balance is the overpayment when positive and the amount owed when negative.
func Balance(ret *assembler.ComputedReturn) money.Amount {
	over, _ := ret.Amount(model.Form1040, 0, "overpayment")
	owed, _ := ret.Amount(model.Form1040, 0, "amount_owed")
	return over.Sub(owed)
}

func balanceStyle(bal money.Amount) string {
	switch {
	case bal.IsPositive():
		return SuccessStyle.Render("refund " + bal.Format())
	case bal.IsNegative():
		return WarningStyle.Render("owe " + bal.Neg().Format())
	}
	return bal.Format()
}

func signed(a money.Amount) string {
	if a.IsPositive() {
		return "+" + a.Format()
	}
	return a.Format()
}
