package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/the-tax-must-flow/internal/assembler"
	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
	"github.com/Veraticus/the-tax-must-flow/internal/taxyear"
)

// DefaultWorkers is the what-if concurrency used when none is configured.
const DefaultWorkers = 4

// Scenario is one variation of a base request. Nil fields keep the base value.
type Scenario struct {
	Params  *taxyear.Parameters
	Profile *model.FilingProfile
	Name    string
	Forms   []model.FormInput
}

// Outcome is the result of one scenario. A scenario that fails carries its
// error; it does not stop the others.
type Outcome struct {
	Return   *assembler.ComputedReturn
	Err      error
	Scenario string
}

// WhatIfOptions tunes a what-if run.
type WhatIfOptions struct {
	// OnDone is called once per finished scenario, possibly from several
	// goroutines at once.
	OnDone  func(Outcome)
	Workers int
}

// WhatIf computes every scenario against base. Scenarios run in parallel
// and share base's parameter set, which is only read. Outcomes come back in
// scenario order regardless of completion order. Only cancellation of ctx
// fails the run as a whole.
func (e *Engine) WhatIf(ctx context.Context, base Request, scenarios []Scenario, opts WhatIfOptions) ([]Outcome, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	outcomes := make([]Outcome, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, sc := range scenarios {
		i, sc := i, sc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ret, err := e.Compute(gctx, sc.apply(base))
			out := Outcome{Scenario: sc.Name, Return: ret, Err: err}
			outcomes[i] = out
			if opts.OnDone != nil {
				opts.OnDone(out)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slog.Debug("What-if run complete", "scenarios", len(scenarios), "workers", workers)
	return outcomes, nil
}

func (s Scenario) apply(base Request) Request {
	req := base
	if s.Params != nil {
		req.Params = s.Params
	}
	if s.Profile != nil {
		req.Profile = s.Profile
	}
	if s.Forms != nil {
		req.Forms = s.Forms
	}
	return req
}

// CloneForms deep-copies form inputs so a scenario can change lines without
// touching the base snapshot.
func CloneForms(in []model.FormInput) []model.FormInput {
	out := make([]model.FormInput, len(in))
	for i, f := range in {
		lines := make(map[model.LineID]model.LineValue, len(f.Lines))
		for id, v := range f.Lines {
			lines[id] = v
		}
		out[i] = model.FormInput{Form: f.Form, Key: f.Key, Lines: lines}
	}
	return out
}

// AdjustLine returns a copy of in with delta added to one amount line of the
// first instance of form, taking instances in key order. A line the instance
// does not carry starts from zero.
func AdjustLine(in []model.FormInput, form model.FormType, line model.LineID, delta money.Amount) ([]model.FormInput, error) {
	out := CloneForms(in)

	var idx []int
	for i, f := range out {
		if f.Form == form {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return nil, fmt.Errorf("%w: no %s instance to adjust", common.ErrInvalidInput, form)
	}
	sort.SliceStable(idx, func(a, b int) bool { return out[idx[a]].Key < out[idx[b]].Key })

	target := out[idx[0]]
	current := money.Zero
	if v, ok := target.Lines[line]; ok {
		a, ok := v.Amount()
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s is not an amount", common.ErrInvalidInput, form, line)
		}
		current = a
	}
	target.Lines[line] = model.AmountValue(current.Add(delta))
	return out, nil
}

// Steps builds n scenarios that each move one line by a further multiple of
// step: the first scenario is the base itself.
func Steps(base []model.FormInput, form model.FormType, line model.LineID, step money.Amount, n int) ([]Scenario, error) {
	scenarios := make([]Scenario, 0, n)
	for k := 0; k < n; k++ {
		delta := step.MulInt(k)
		adjusted, err := AdjustLine(base, form, line, delta)
		if err != nil {
			return nil, err
		}
		sign := "+"
		if delta.IsNegative() {
			sign = ""
		}
		scenarios = append(scenarios, Scenario{
			Name:  fmt.Sprintf("%s.%s %s%s", form, line, sign, delta.Canonical()),
			Forms: adjusted,
		})
	}
	return scenarios, nil
}
