package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/the-tax-must-flow/internal/cli"
	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/engine"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
)

type whatIfOptions struct {
	form     string
	line     string
	step     string
	steps    int
	workers  int
	progress bool
}

func (a *app) whatIfCmd() *cobra.Command {
	var opts whatIfOptions

	cmd := &cobra.Command{
		Use:   "whatif <snapshot.yaml>",
		Short: "Compare the return across variations of one input line",
		Long: `Compute the snapshot several times, each time moving one amount line of
the first instance of a form by a further multiple of --step. Scenarios run
in parallel and are reported in order, with the change in total tax against
the unmodified snapshot.`,
		Example: `  taxflow whatif family.yaml --step 1000 --steps 6
  taxflow whatif family.yaml --form ScheduleC --line expenses --step=-500`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWhatIf(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.form, "form", string(model.FormW2), "form whose line is varied")
	cmd.Flags().StringVar(&opts.line, "line", "wages", "amount line to vary")
	cmd.Flags().StringVar(&opts.step, "step", "1000", "amount added per scenario (may be negative)")
	cmd.Flags().IntVar(&opts.steps, "steps", 5, "number of scenarios, including the unmodified snapshot")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "parallel computations (default: whatif.workers)")
	cmd.Flags().BoolVar(&opts.progress, "progress", true, "show a progress bar")

	return cmd
}

func (a *app) runWhatIf(cmd *cobra.Command, path string, opts whatIfOptions) error {
	if opts.steps < 1 {
		return common.NewUserError("Invalid --steps", fmt.Errorf("%w: must be at least 1, got %d", common.ErrInvalidInput, opts.steps))
	}
	step, err := money.Parse(opts.step)
	if err != nil {
		return common.NewUserError("Invalid --step", err)
	}

	_, base, err := a.loadRequest(path)
	if err != nil {
		return err
	}
	scenarios, err := engine.Steps(base.Forms, model.FormType(opts.form), model.LineID(opts.line), step, opts.steps)
	if err != nil {
		return err
	}

	workers := opts.workers
	if workers <= 0 {
		workers = a.cfg.WhatIf.Workers
	}

	var onDone func(engine.Outcome)
	if opts.progress {
		bar := newProgressBar(cmd.ErrOrStderr(), len(scenarios))
		var mu sync.Mutex
		onDone = func(engine.Outcome) {
			mu.Lock()
			defer mu.Unlock()
			_ = bar.Add(1)
		}
		defer func() { _ = bar.Finish() }()
	}

	outcomes, err := a.engine.WhatIf(cmd.Context(), base, scenarios, engine.WhatIfOptions{
		Workers: workers,
		OnDone:  onDone,
	})
	if err != nil {
		return err
	}
	return cli.RenderOutcomes(cmd.OutOrStdout(), outcomes)
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Computing scenarios...[reset]"),
		progressbar.OptionClearOnFinish(),
	)
}
