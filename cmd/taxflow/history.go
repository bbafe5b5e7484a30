package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Veraticus/the-tax-must-flow/internal/cli"
	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
)

func (a *app) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse archived returns",
		Long: `Browse returns archived with 'taxflow compute --save'. Archived returns are
never modified; each one is checked against its digest when loaded.`,
	}

	cmd.AddCommand(a.historyListCmd())
	cmd.AddCommand(a.historyShowCmd())
	cmd.AddCommand(a.historyExplainCmd())
	cmd.AddCommand(a.historyVerifyCmd())
	cmd.AddCommand(a.historyDeleteCmd())

	return cmd
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, common.NewUserError("Invalid return id", err)
	}
	return id, nil
}

func (a *app) historyListCmd() *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived returns, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			returns, err := store.ListReturns(cmd.Context(), year)
			if err != nil {
				return fmt.Errorf("failed to list returns: %w", err)
			}
			return cli.RenderHistory(cmd.OutOrStdout(), returns)
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "only returns for this tax year")

	return cmd
}

func (a *app) historyShowCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an archived return",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, err := a.initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			stored, err := store.GetReturn(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				data, err := json.MarshalIndent(stored.Return, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to encode return: %w", err)
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}
			if stored.Label != "" {
				fmt.Fprintln(out, cli.SubtleStyle.Render(stored.Label))
			}
			return cli.RenderReturn(out, stored.Return)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full return as JSON")

	return cmd
}

func (a *app) historyExplainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "explain <id> <node>",
		Short: "Explain one line of an archived return",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			key, err := model.ParseNodeKey(args[1])
			if err != nil {
				return common.NewUserError("Invalid node", err)
			}
			store, err := a.initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			rec, err := store.GetProvenance(cmd.Context(), id, key)
			if err != nil {
				return err
			}
			return cli.RenderRecord(cmd.OutOrStdout(), *rec)
		},
	}
}

func (a *app) historyVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check every archived return against its digest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			bad, err := store.CheckIntegrity(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(bad) == 0 {
				fmt.Fprintln(out, cli.FormatSuccess("All archived returns match their digests"))
				return nil
			}
			for _, id := range bad {
				fmt.Fprintln(out, cli.FormatError(id.String()))
			}
			return fmt.Errorf("%w: %d archived returns do not match their digests", common.ErrDatabaseCorrupted, len(bad))
		},
	}
}

func (a *app) historyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an archived return and its provenance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, err := a.initStorage(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer closeStorage(store)

			if err := store.DeleteReturn(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted "+id.String()))
			return nil
		},
	}
}
