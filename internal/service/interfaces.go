// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Veraticus/the-tax-must-flow/internal/assembler"
	"github.com/Veraticus/the-tax-must-flow/internal/engine"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/storage"
)

// Archive defines the contract for our persistence layer. Archived returns
// are immutable: they can be added, read and deleted, never updated.
type Archive interface {
	// Return operations
	SaveReturn(ctx context.Context, label string, ret *assembler.ComputedReturn) (uuid.UUID, error)
	GetReturn(ctx context.Context, id uuid.UUID) (*storage.StoredReturn, error)
	ListReturns(ctx context.Context, year int) ([]storage.StoredReturn, error)
	FindByDigest(ctx context.Context, digest string) ([]uuid.UUID, error)
	DeleteReturn(ctx context.Context, id uuid.UUID) error

	// Provenance operations
	GetProvenance(ctx context.Context, id uuid.UUID, key model.NodeKey) (*model.ProvenanceRecord, error)

	// Maintenance
	CheckIntegrity(ctx context.Context) ([]uuid.UUID, error)
	Migrate(ctx context.Context) error
	SchemaVersion(ctx context.Context) (int, error)
	Close() error
}

// Calculator computes returns from requests.
type Calculator interface {
	Compute(ctx context.Context, req engine.Request) (*assembler.ComputedReturn, error)
	Explain(ctx context.Context, req engine.Request, key model.NodeKey) ([]model.ProvenanceRecord, error)
	WhatIf(ctx context.Context, base engine.Request, scenarios []engine.Scenario, opts engine.WhatIfOptions) ([]engine.Outcome, error)
}

var (
	_ Archive    = (*storage.SQLiteStorage)(nil)
	_ Calculator = (*engine.Engine)(nil)
)
