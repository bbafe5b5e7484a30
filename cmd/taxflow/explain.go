package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-tax-must-flow/internal/cli"
	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
)

func (a *app) explainCmd() *cobra.Command {
	var (
		trace  bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "explain <snapshot.yaml> <node>",
		Short: "Explain how one line of a return was computed",
		Long: `Compute the snapshot and print the provenance of one line, named as
Form[instance].line, for example Form1040[0].agi or W2[1].wages. A missing
instance means the first one.

With --trace every line upstream of the node is printed as well.`,
		Example: `  taxflow explain family.yaml Form1040.taxable_income
  taxflow explain family.yaml 'Form8812[0].additional_child_tax_credit' --trace`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := model.ParseNodeKey(args[1])
			if err != nil {
				return common.NewUserError("Invalid node", err)
			}

			_, req, err := a.loadRequest(args[0])
			if err != nil {
				return err
			}
			records, err := a.engine.Explain(cmd.Context(), req, key)
			if err != nil {
				return err
			}
			if !trace {
				records = only(records, key)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := json.MarshalIndent(records, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode provenance: %w", err)
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}
			return cli.RenderTrace(out, records)
		},
	}

	cmd.Flags().BoolVar(&trace, "trace", false, "include every upstream line")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print provenance records as JSON")

	return cmd
}

func only(records []model.ProvenanceRecord, key model.NodeKey) []model.ProvenanceRecord {
	for _, rec := range records {
		if rec.Node == key {
			return []model.ProvenanceRecord{rec}
		}
	}
	return nil
}
