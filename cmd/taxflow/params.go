package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-tax-must-flow/internal/cli"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/taxyear"
)

func (a *app) paramsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "params",
		Short: "Inspect tax year parameters",
		Long: `Inspect the parameter sets available for computation: the years compiled
into taxflow plus any YAML or TOML override files in params.dir.`,
	}

	cmd.AddCommand(a.paramsShowCmd())
	cmd.AddCommand(a.paramsValidateCmd())

	return cmd
}

func (a *app) paramsShowCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show brackets and standard deductions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.registry()
			if err != nil {
				return err
			}
			years := reg.Years()
			if year != 0 {
				years = []int{year}
			}
			for i, y := range years {
				p, err := reg.Get(y)
				if err != nil {
					return err
				}
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				if err := renderParams(cmd.OutOrStdout(), p, reg.Source(y)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "tax year (default: every available year)")

	return cmd
}

func renderParams(w io.Writer, p *taxyear.Parameters, source string) error {
	fmt.Fprintln(w, cli.FormatTitle(fmt.Sprintf("Tax year %d", p.Year)))
	fmt.Fprintln(w, cli.SubtleStyle.Render(fmt.Sprintf("source %s, rounding %s", source, p.Rounding)))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t%s\t%s\n",
		cli.TableHeaderStyle.Render("Status"),
		cli.TableHeaderStyle.Render("Standard deduction"),
		cli.TableHeaderStyle.Render("Brackets"))
	for _, s := range model.FilingStatuses() {
		std := p.StandardDeduction.Base[s]
		var brackets string
		for i, b := range p.Brackets[s] {
			if i > 0 {
				brackets += ", "
			}
			brackets += fmt.Sprintf("%s%% over %s", b.Rate.Shift(2).String(), b.Threshold.Format())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Label(), std.Format(), brackets)
	}
	return tw.Flush()
}

func (a *app) paramsValidateCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "validate [file...]",
		Short: "Validate parameter sets or override files",
		Long: `Validate the named parameter files, or with no arguments every available
year. Each file is applied to its base year and checked for complete,
increasing brackets and a complete set of per-status provisions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) > 0 {
				for _, path := range args {
					p, err := taxyear.LoadFile(path)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("%s: tax year %d is valid", path, p.Year)))
				}
				return nil
			}

			reg, err := a.registry()
			if err != nil {
				return err
			}
			years := reg.Years()
			if year != 0 {
				years = []int{year}
			}
			for _, y := range years {
				p, err := reg.Get(y)
				if err != nil {
					return err
				}
				if err := p.Validate(); err != nil {
					return fmt.Errorf("tax year %d: %w", y, err)
				}
				fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("tax year %d (%s) is valid", y, reg.Source(y))))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "tax year (default: every available year)")

	return cmd
}
