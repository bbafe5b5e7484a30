// Package storage archives computed returns and their provenance in SQLite.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Veraticus/the-tax-must-flow/internal/assembler"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidReturn = errors.New("invalid return")
	ErrInvalidID     = errors.New("invalid return id")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateReturn(ret *assembler.ComputedReturn) error {
	if ret == nil {
		return fmt.Errorf("%w: return", ErrNilParameter)
	}
	if ret.Digest() == "" {
		return fmt.Errorf("%w: missing digest", ErrInvalidReturn)
	}
	if ret.Year() <= 0 {
		return fmt.Errorf("%w: tax year %d", ErrInvalidReturn, ret.Year())
	}
	if len(ret.Forms()) == 0 {
		return fmt.Errorf("%w: no forms", ErrInvalidReturn)
	}
	return nil
}

func validateID(id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: nil uuid", ErrInvalidID)
	}
	return nil
}
