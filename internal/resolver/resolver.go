// Package resolver evaluates a return's line graph. Every line is resolved
// exactly once, after all of its inputs, in an order fixed by the graph
// alone, and leaves one provenance record behind.
package resolver

import (
	"context"
	"fmt"

	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/forms"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
	"github.com/Veraticus/the-tax-must-flow/internal/provision"
	"github.com/Veraticus/the-tax-must-flow/internal/taxyear"
)

// Resolution is a fully resolved graph.
type Resolution struct {
	graph   *forms.Graph
	order   []int
	values  []model.LineValue
	records []model.ProvenanceRecord
}

// Resolve evaluates every node of g.
//
// It refuses to start while g reports missing inputs, and stops at the first
// evaluator failure; there is no partial result. The caller's params and
// profile are only read.
func Resolve(ctx context.Context, g *forms.Graph, params *taxyear.Parameters, profile *model.FilingProfile) (*Resolution, error) {
	if missing := g.Missing(); len(missing) > 0 {
		return nil, common.ErrorSet(missing)
	}
	order, err := Order(g)
	if err != nil {
		return nil, err
	}

	r := &Resolution{
		graph:   g,
		order:   order,
		values:  make([]model.LineValue, g.Len()),
		records: make([]model.ProvenanceRecord, g.Len()),
	}
	common.LogDebug(ctx, "resolving return", common.Fields{"nodes": g.Len(), "year": params.Year})

	for _, i := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.resolve(i, params, profile); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Resolution) resolve(i int, params *taxyear.Parameters, profile *model.FilingProfile) error {
	node := r.graph.Node(i)
	rec := model.ProvenanceRecord{Node: node.Key}

	if node.Line.IsInput() {
		rec.Rule = forms.RuleInput
		rec.Value = node.Supplied
		if !node.Supplied.Resolved() {
			rec.Rule = forms.RuleInputDefault
			rec.Value = model.ZeroOf(node.Line.Kind)
		}
		r.values[i], r.records[i] = rec.Value, rec
		return nil
	}

	rec.Rule = node.Line.Rule
	rec.Param = node.Line.Param
	in := provision.NewInputs(params, profile, node.Line.Param)
	for _, dep := range node.Deps {
		consumed, err := r.consume(dep)
		if err != nil {
			return &common.ProvisionError{Node: node.Key.String(), Rule: rec.Rule, Err: err}
		}
		in.Set(dep.Ref.Name, consumed.Value)
		rec.Inputs = append(rec.Inputs, consumed)
	}
	for _, name := range node.Line.Facts {
		value, ok := profile.Fact(name)
		if !ok {
			return &common.ProvisionError{
				Node: node.Key.String(), Rule: rec.Rule,
				Err: fmt.Errorf("%w: unknown profile fact %q", common.ErrInvalidInput, name),
			}
		}
		rec.Facts = append(rec.Facts, model.ProfileFact{Name: name, Value: value})
	}

	value, err := provision.Evaluate(rec.Rule, in)
	if err != nil {
		return &common.ProvisionError{Node: node.Key.String(), Rule: rec.Rule, Err: err}
	}
	if value.Kind() != node.Line.Kind {
		return &common.ProvisionError{
			Node: node.Key.String(), Rule: rec.Rule,
			Err: fmt.Errorf("%w: produced %s for a %s line", common.ErrProvision, value.Kind(), node.Line.Kind),
		}
	}

	rec.Value = value
	r.values[i], r.records[i] = value, rec
	return nil
}

// consume reads one dependency. Several sources combine: amounts are summed,
// flags OR'ed. A defaulted reference reads the zero value of its target.
func (r *Resolution) consume(dep forms.Dependency) (model.ConsumedInput, error) {
	in := model.ConsumedInput{Name: dep.Ref.Name, Defaulted: dep.Defaulted}
	if dep.Defaulted {
		kind := model.KindAmount
		if f, ok := r.graph.Catalog().Form(dep.Ref.Form); ok {
			if l, ok := f.Line(dep.Ref.Line); ok {
				kind = l.Kind
			}
		}
		in.Value = model.ZeroOf(kind)
		return in, nil
	}

	for _, j := range dep.Sources {
		in.Sources = append(in.Sources, r.graph.Node(j).Key)
	}
	if len(dep.Sources) == 1 {
		in.Value = r.values[dep.Sources[0]]
		return in, nil
	}

	switch r.values[dep.Sources[0]].Kind() {
	case model.KindAmount:
		total := money.Zero
		for _, j := range dep.Sources {
			a, _ := r.values[j].Amount()
			total = total.Add(a)
		}
		in.Value = model.AmountValue(total)
	case model.KindBool:
		result := false
		for _, j := range dep.Sources {
			b, _ := r.values[j].Bool()
			result = result || b
		}
		in.Value = model.BoolValue(result)
	default:
		return in, fmt.Errorf("%w: %s values cannot be combined across instances", common.ErrInvalidInput, r.values[dep.Sources[0]].Kind())
	}
	return in, nil
}

// Graph returns the resolved graph.
func (r *Resolution) Graph() *forms.Graph { return r.graph }

// Order returns node indices in the order they were resolved.
func (r *Resolution) Order() []int { return r.order }

// ValueAt returns node i's value.
func (r *Resolution) ValueAt(i int) model.LineValue { return r.values[i] }

// RecordAt returns node i's provenance record.
func (r *Resolution) RecordAt(i int) model.ProvenanceRecord { return r.records[i] }

// Value returns the value of key.
func (r *Resolution) Value(key model.NodeKey) (model.LineValue, bool) {
	i, ok := r.graph.Lookup(key)
	if !ok {
		return model.LineValue{}, false
	}
	return r.values[i], true
}

// Records returns every provenance record in canonical node order.
func (r *Resolution) Records() []model.ProvenanceRecord {
	return append([]model.ProvenanceRecord(nil), r.records...)
}
