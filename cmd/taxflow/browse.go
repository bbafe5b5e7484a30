package main

import (
	"github.com/spf13/cobra"

	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/tui"
	"github.com/Veraticus/the-tax-must-flow/internal/tui/themes"
)

func (a *app) browseCmd() *cobra.Command {
	var (
		theme    string
		computed bool
	)

	cmd := &cobra.Command{
		Use:   "browse <snapshot.yaml> [node]",
		Short: "Interactively browse the provenance of a return",
		Long: `Compute the snapshot and open a full-screen browser over every line of the
return. Enter follows the selected line's first input, Tab moves to the next
input of the same line and Backspace goes back.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []tui.Option{tui.WithTheme(themes.ByName(theme))}
			if computed {
				opts = append(opts, tui.WithComputedOnly())
			}
			if len(args) == 2 {
				key, err := model.ParseNodeKey(args[1])
				if err != nil {
					return common.NewUserError("Invalid node", err)
				}
				opts = append(opts, tui.WithStart(key))
			}

			_, req, err := a.loadRequest(args[0])
			if err != nil {
				return err
			}
			ret, err := a.engine.Compute(cmd.Context(), req)
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), ret, opts...)
		},
	}

	cmd.Flags().StringVar(&theme, "theme", "default", "color theme (default, catppuccin)")
	cmd.Flags().BoolVar(&computed, "computed", false, "start with input lines hidden")

	return cmd
}
