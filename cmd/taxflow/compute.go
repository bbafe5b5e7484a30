package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/Veraticus/the-tax-must-flow/internal/cli"
	"github.com/Veraticus/the-tax-must-flow/internal/service"
)

type computeOptions struct {
	label  string
	asJSON bool
	save   bool
	watch  bool
}

func (a *app) computeCmd() *cobra.Command {
	var opts computeOptions

	cmd := &cobra.Command{
		Use:   "compute <snapshot.yaml>",
		Short: "Compute a return from a snapshot",
		Long: `Compute the return described by a YAML snapshot and print its summary.

With --save the return and its provenance are archived. With --watch the
snapshot is recomputed every time it changes until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCompute(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.save, "save", false, "archive the computed return")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "recompute whenever the snapshot changes")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the full return as JSON")
	cmd.Flags().StringVar(&opts.label, "label", "", "archive label (default: the snapshot's label)")

	return cmd
}

func (a *app) runCompute(cmd *cobra.Command, path string, opts computeOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var store service.Archive
	if opts.save {
		var err error
		store, err = a.initStorage(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer closeStorage(store)
	}

	err := a.computeOnce(ctx, out, store, path, opts)
	if !opts.watch {
		return err
	}
	if err != nil {
		printError(cmd.ErrOrStderr(), err)
	}

	fmt.Fprintln(out, cli.FormatInfo("Watching "+path+" for changes"))
	err = watchFile(ctx, path, func() {
		fmt.Fprintln(out)
		if err := a.computeOnce(ctx, out, store, path, opts); err != nil {
			printError(cmd.ErrOrStderr(), err)
		}
	})
	fmt.Fprintln(out, cli.SubtleStyle.Render("Watch stopped"))
	return err
}

func (a *app) computeOnce(ctx context.Context, out io.Writer, store service.Archive, path string, opts computeOptions) error {
	snap, req, err := a.loadRequest(path)
	if err != nil {
		return err
	}
	ret, err := a.engine.Compute(ctx, req)
	if err != nil {
		return err
	}

	if opts.asJSON {
		data, err := json.MarshalIndent(ret, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode return: %w", err)
		}
		if _, err := fmt.Fprintln(out, string(data)); err != nil {
			return err
		}
	} else if err := cli.RenderReturn(out, ret); err != nil {
		return err
	}

	if store == nil {
		return nil
	}
	label := opts.label
	if label == "" {
		label = snap.Label
	}
	id, err := store.SaveReturn(ctx, label, ret)
	if err != nil {
		return fmt.Errorf("failed to save return: %w", err)
	}
	if !opts.asJSON {
		fmt.Fprintln(out, cli.FormatSuccess("Saved as "+id.String()))
	}
	return nil
}

// watchDebounce coalesces the burst of events an editor produces on save.
const watchDebounce = 100 * time.Millisecond

// watchFile calls onChange after path is written, created or replaced, until
// ctx ends. The parent directory is watched so that editors which save by
// renaming a temporary file are seen.
func watchFile(ctx context.Context, path string, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.After(watchDebounce)
			}

		case <-pending:
			pending = nil
			slog.Debug("Snapshot changed", "path", abs)
			onChange()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", err)
		}
	}
}
