// Package assembler turns a resolved line graph into a ComputedReturn.
package assembler

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/resolver"
)

// ErrIncomplete means a required form or line has no resolved value.
var ErrIncomplete = errors.New("incomplete return")

// Assemble builds the return from a successful resolution. Every form the
// graph requires must carry an instance and every line a resolved value.
func Assemble(ctx context.Context, res *resolver.Resolution, year int, profile *model.FilingProfile) (*ComputedReturn, error) {
	g := res.Graph()
	if err := checkComplete(res); err != nil {
		return nil, err
	}

	ret := &ComputedReturn{year: year, status: profile.Status}
	type instanceKey struct {
		form  model.FormType
		index int
	}
	position := make(map[instanceKey]int, len(g.Instances()))
	for _, inst := range g.Instances() {
		position[instanceKey{inst.Form, inst.Index}] = len(ret.forms)
		ret.forms = append(ret.forms, FormInstance{
			Form: inst.Form, Key: inst.Key, Index: inst.Index, Supplied: inst.Supplied,
		})
	}
	for i := 0; i < g.Len(); i++ {
		key := g.Node(i).Key
		f := &ret.forms[position[instanceKey{key.Form, key.Instance}]]
		f.Lines = append(f.Lines, LineEntry{ID: key.Line, Value: res.ValueAt(i)})
	}
	ret.provenance = res.Records()

	if err := ret.seal(); err != nil {
		return nil, err
	}
	common.LogDebug(ctx, "assembled return", common.Fields{
		"forms":  len(ret.forms),
		"lines":  g.Len(),
		"digest": ret.digest,
	})
	return ret, nil
}

func checkComplete(res *resolver.Resolution) error {
	g := res.Graph()
	var errs common.ErrorSet

	present := make(map[model.FormType]bool)
	for _, inst := range g.Instances() {
		present[inst.Form] = true
	}
	for _, t := range g.RequiredForms() {
		if !present[t] {
			errs = append(errs, fmt.Errorf("%w: required form %s has no instance", ErrIncomplete, t))
		}
	}
	for i := 0; i < g.Len(); i++ {
		if !res.ValueAt(i).Resolved() {
			errs = append(errs, fmt.Errorf("%w: %s is unresolved", ErrIncomplete, g.Node(i).Key))
		}
	}
	if len(g.Instances()) == 0 {
		errs = append(errs, fmt.Errorf("%w: no forms", ErrIncomplete))
	}
	return errs.OrNil()
}
