package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/the-tax-must-flow/internal/engine"
	"github.com/Veraticus/the-tax-must-flow/internal/service"
	"github.com/Veraticus/the-tax-must-flow/internal/snapshot"
	"github.com/Veraticus/the-tax-must-flow/internal/storage"
	"github.com/Veraticus/the-tax-must-flow/internal/taxyear"
)

// initStorage opens the configured archive and brings its schema up to date.
func (a *app) initStorage(ctx context.Context) (service.Archive, error) {
	store, err := storage.NewSQLiteStorage(a.cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func closeStorage(store service.Archive) {
	if err := store.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}

// registry returns the bundled parameter sets plus any overrides in params.dir.
func (a *app) registry() (*taxyear.Registry, error) {
	reg, err := taxyear.NewRegistry(a.cfg.Params.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load tax year parameters: %w", err)
	}
	return reg, nil
}

// loadRequest decodes the snapshot at path and pairs it with its year.
func (a *app) loadRequest(path string) (*snapshot.Snapshot, engine.Request, error) {
	snap, err := snapshot.LoadFile(path, a.engine.Catalog())
	if err != nil {
		return nil, engine.Request{}, err
	}
	reg, err := a.registry()
	if err != nil {
		return nil, engine.Request{}, err
	}
	req, err := snap.Request(reg)
	if err != nil {
		return nil, engine.Request{}, err
	}
	slog.Debug("Loaded snapshot",
		"path", path,
		"year", snap.TaxYear,
		"forms", len(snap.Forms),
		"params", reg.Source(snap.TaxYear))
	return snap, req, nil
}
