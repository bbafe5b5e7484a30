// Package engine runs a complete computation: parameter and profile checks,
// graph construction, resolution and assembly.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-tax-must-flow/internal/assembler"
	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/forms"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/resolver"
	"github.com/Veraticus/the-tax-must-flow/internal/taxyear"
)

// Request is one fully specified input snapshot.
type Request struct {
	Params  *taxyear.Parameters
	Profile *model.FilingProfile
	Forms   []model.FormInput
}

// Engine computes returns against one form catalog. It holds no per-run
// state and is safe for concurrent use.
type Engine struct {
	catalog *forms.Catalog
}

// New creates an engine over the standard catalog.
func New() *Engine {
	return NewWithCatalog(forms.Standard())
}

// NewWithCatalog creates an engine over a custom catalog.
func NewWithCatalog(c *forms.Catalog) *Engine {
	return &Engine{catalog: c}
}

// Catalog returns the engine's form catalog.
func (e *Engine) Catalog() *forms.Catalog { return e.catalog }

// Compute produces the return for req, or the errors that prevented it.
// A failure at any stage yields no return.
func (e *Engine) Compute(ctx context.Context, req Request) (*assembler.ComputedReturn, error) {
	if req.Params == nil {
		return nil, &common.MissingParameterError{Parameter: "parameters"}
	}
	if req.Profile == nil {
		return nil, fmt.Errorf("%w: no filing profile", common.ErrInvalidInput)
	}
	if err := req.Params.Validate(); err != nil {
		return nil, err
	}
	if err := req.Profile.Validate(); err != nil {
		return nil, err
	}

	slog.Debug("Computing return",
		"year", req.Params.Year,
		"status", req.Profile.Status,
		"forms", len(req.Forms))

	g, err := forms.Build(e.catalog, req.Profile, req.Forms)
	if err != nil {
		return nil, err
	}
	res, err := resolver.Resolve(ctx, g, req.Params, req.Profile)
	if err != nil {
		return nil, err
	}
	return assembler.Assemble(ctx, res, req.Params.Year, req.Profile)
}

// Explain computes req and returns the record of one line together with
// every record upstream of it.
func (e *Engine) Explain(ctx context.Context, req Request, key model.NodeKey) ([]model.ProvenanceRecord, error) {
	ret, err := e.Compute(ctx, req)
	if err != nil {
		return nil, err
	}
	trace := ret.Trace(key)
	if trace == nil {
		return nil, fmt.Errorf("%w: %s is not on the return", common.ErrInvalidInput, key)
	}
	return trace, nil
}
