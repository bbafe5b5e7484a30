// Package testutil provides shared fixtures for tests that need an archive
// or a computed return.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/Veraticus/the-tax-must-flow/internal/assembler"
	"github.com/Veraticus/the-tax-must-flow/internal/engine"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
	"github.com/Veraticus/the-tax-must-flow/internal/storage"
	"github.com/Veraticus/the-tax-must-flow/internal/taxyear"
)

// TestDB is a migrated archive in the test's temporary directory, closed
// when the test ends. Path can be handed to code that opens its own
// connection.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
	Path    string
}

// SetupTestDB creates a new archive and runs its migrations.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "returns.db")
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})
	return &TestDB{Storage: store, t: t, Path: path}
}

// MustSave archives ret or fails the test.
func (db *TestDB) MustSave(label string, ret *assembler.ComputedReturn) uuid.UUID {
	db.t.Helper()
	id, err := db.Storage.SaveReturn(context.Background(), label, ret)
	if err != nil {
		db.t.Fatalf("failed to save return %q: %v", label, err)
	}
	return id
}

// Params2025 returns a fresh copy of the bundled 2025 parameters.
func Params2025(t *testing.T) *taxyear.Parameters {
	t.Helper()
	p, err := taxyear.Bundled(2025)
	if err != nil {
		t.Fatalf("failed to load 2025 parameters: %v", err)
	}
	return p
}

// W2 is a W-2 input with wages and withholding in whole dollars.
func W2(key string, wages, withholding int64) model.FormInput {
	return model.FormInput{
		Form: model.FormW2,
		Key:  key,
		Lines: map[model.LineID]model.LineValue{
			"wages":               model.AmountValue(money.FromDollars(wages)),
			"federal_withholding": model.AmountValue(money.FromDollars(withholding)),
		},
	}
}

// WageReturn computes a single filer's return from one W-2.
func WageReturn(t *testing.T, wages, withholding int64) *assembler.ComputedReturn {
	t.Helper()
	ret, err := engine.New().Compute(context.Background(), engine.Request{
		Params:  Params2025(t),
		Profile: &model.FilingProfile{Status: model.Single, Taxpayer: model.Person{Age: 30}},
		Forms:   []model.FormInput{W2("employer", wages, withholding)},
	})
	if err != nil {
		t.Fatalf("failed to compute return: %v", err)
	}
	return ret
}
