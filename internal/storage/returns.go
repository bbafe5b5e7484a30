package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/the-tax-must-flow/internal/assembler"
	"github.com/Veraticus/the-tax-must-flow/internal/common"
	"github.com/Veraticus/the-tax-must-flow/internal/model"
	"github.com/Veraticus/the-tax-must-flow/internal/money"
)

// StoredReturn is one archived computation. Return is only populated by
// GetReturn; listings carry the summary columns. Balance is the overpayment
// when positive and the amount owed when negative.
type StoredReturn struct {
	CreatedAt time.Time
	Return    *assembler.ComputedReturn
	Status    model.FilingStatus
	Label     string
	Digest    string
	TotalTax  money.Amount
	Balance   money.Amount
	TaxYear   int
	ID        uuid.UUID
}

// SaveReturn archives ret under a fresh id together with one row per
// provenance record.
func (s *SQLiteStorage) SaveReturn(ctx context.Context, label string, ret *assembler.ComputedReturn) (uuid.UUID, error) {
	if err := validateContext(ctx); err != nil {
		return uuid.Nil, err
	}
	if err := validateReturn(ret); err != nil {
		return uuid.Nil, err
	}

	payload, err := json.Marshal(ret)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode return: %w", err)
	}
	id := uuid.New()
	totalTax, balance := headline(ret)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO returns (id, tax_year, filing_status, label, digest, payload, created_at, total_tax, balance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), ret.Year(), string(ret.Status()), label, ret.Digest(), string(payload),
		s.now(), totalTax.Canonical(), balance.Canonical())
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save return: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO provenance (return_id, position, node, rule, record)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to prepare provenance statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, rec := range ret.Provenance() {
		data, err := json.Marshal(rec)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to encode provenance for %s: %w", rec.Node, err)
		}
		if _, err := stmt.ExecContext(ctx, id.String(), i, rec.Node.String(), rec.Rule, string(data)); err != nil {
			return uuid.Nil, fmt.Errorf("failed to save provenance for %s: %w", rec.Node, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit return: %w", err)
	}

	slog.Debug("Saved return", "id", id, "year", ret.Year(), "digest", ret.Digest())
	return id, nil
}

func headline(ret *assembler.ComputedReturn) (money.Amount, money.Amount) {
	totalTax, _ := ret.Amount(model.Form1040, 0, "total_tax")
	refund, _ := ret.Amount(model.Form1040, 0, "overpayment")
	owed, _ := ret.Amount(model.Form1040, 0, "amount_owed")
	return totalTax, refund.Sub(owed)
}

// GetReturn loads an archived return. The payload must still hash to its
// recorded digest.
func (s *SQLiteStorage) GetReturn(ctx context.Context, id uuid.UUID) (*StoredReturn, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, tax_year, filing_status, label, digest, created_at, total_tax, balance, payload
		FROM returns WHERE id = ?`, id.String())

	var payload string
	stored, err := scanSummary(row, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("return %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	ret, err := assembler.Decode([]byte(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: return %s: %w", common.ErrDatabaseCorrupted, id, err)
	}
	if ret.Digest() != stored.Digest {
		return nil, fmt.Errorf("%w: return %s digest column %s, payload %s",
			common.ErrDatabaseCorrupted, id, stored.Digest, ret.Digest())
	}
	stored.Return = ret
	return stored, nil
}

// ListReturns returns archived returns, newest first. A zero year lists every year.
func (s *SQLiteStorage) ListReturns(ctx context.Context, year int) ([]StoredReturn, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT id, tax_year, filing_status, label, digest, created_at, total_tax, balance
		FROM returns`
	var args []any
	if year != 0 {
		query += ` WHERE tax_year = ?`
		args = append(args, year)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list returns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []StoredReturn
	for rows.Next() {
		stored, err := scanSummary(rows, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, *stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate returns: %w", err)
	}
	return out, nil
}

// FindByDigest returns the ids of every archived return with digest, oldest first.
func (s *SQLiteStorage) FindByDigest(ctx context.Context, digest string) ([]uuid.UUID, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(digest, "digest"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM returns WHERE digest = ? ORDER BY created_at, id`, digest)
	if err != nil {
		return nil, fmt.Errorf("failed to query returns by digest: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan return id: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: bad return id %q", common.ErrDatabaseCorrupted, raw)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetProvenance returns the provenance record of one line of an archived return.
func (s *SQLiteStorage) GetProvenance(ctx context.Context, id uuid.UUID, key model.NodeKey) (*model.ProvenanceRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}

	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM provenance WHERE return_id = ? AND node = ?`,
		id.String(), key.String()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("provenance %s of return %s: %w", key, id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get provenance: %w", err)
	}

	var rec model.ProvenanceRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("%w: provenance %s of return %s: %w", common.ErrDatabaseCorrupted, key, id, err)
	}
	return &rec, nil
}

// DeleteReturn removes an archived return and its provenance.
func (s *SQLiteStorage) DeleteReturn(ctx context.Context, id uuid.UUID) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM returns WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete return: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("return %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// CheckIntegrity decodes every archived return and reports the ids whose
// payload no longer matches its digest.
func (s *SQLiteStorage) CheckIntegrity(ctx context.Context) ([]uuid.UUID, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, digest, payload FROM returns ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan archive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bad []uuid.UUID
	for rows.Next() {
		var raw, digest, payload string
		if err := rows.Scan(&raw, &digest, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan return: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: bad return id %q", common.ErrDatabaseCorrupted, raw)
		}
		ret, err := assembler.Decode([]byte(payload))
		if err != nil || ret.Digest() != digest {
			slog.Warn("Archived return failed integrity check", "id", id, "error", err)
			bad = append(bad, id)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate returns: %w", err)
	}
	return bad, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner, payload *string) (*StoredReturn, error) {
	var (
		stored        StoredReturn
		rawID, status string
		totalTax, bal string
	)
	dest := []any{&rawID, &stored.TaxYear, &status, &stored.Label, &stored.Digest, &stored.CreatedAt, &totalTax, &bal}
	if payload != nil {
		dest = append(dest, payload)
	}
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan return: %w", err)
	}

	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad return id %q", common.ErrDatabaseCorrupted, rawID)
	}
	stored.ID = id
	stored.Status = model.FilingStatus(status)
	if stored.TotalTax, err = money.Parse(totalTax); err != nil {
		return nil, fmt.Errorf("%w: return %s total tax: %w", common.ErrDatabaseCorrupted, id, err)
	}
	if stored.Balance, err = money.Parse(bal); err != nil {
		return nil, fmt.Errorf("%w: return %s balance: %w", common.ErrDatabaseCorrupted, id, err)
	}
	return &stored, nil
}
