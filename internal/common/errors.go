// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
	"strings"
)

// Common application errors.
var (
	// Database errors.
	ErrNotFound          = errors.New("not found")
	ErrDuplicateEntry    = errors.New("duplicate entry")
	ErrDatabaseCorrupted = errors.New("database corrupted")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Computation errors.
	ErrSchemaViolation    = errors.New("schema violation")
	ErrMissingInput       = errors.New("missing input")
	ErrCircularDependency = errors.New("circular dependency")
	ErrProvision          = errors.New("provision error")

	// Provision errors. Both unwrap to ErrProvision.
	ErrInvalidInput     = fmt.Errorf("%w: invalid input", ErrProvision)
	ErrMissingParameter = fmt.Errorf("%w: missing parameter", ErrProvision)
)

// SchemaViolationError reports a form input that does not match the catalog.
type SchemaViolationError struct {
	Form   string
	Key    string
	Line   string
	Reason string
}

func (e *SchemaViolationError) Error() string {
	var where strings.Builder
	where.WriteString(e.Form)
	if e.Key != "" {
		where.WriteString("(" + e.Key + ")")
	}
	if e.Line != "" {
		where.WriteString("." + e.Line)
	}
	return fmt.Sprintf("schema violation at %s: %s", where.String(), e.Reason)
}

func (e *SchemaViolationError) Unwrap() error {
	return ErrSchemaViolation
}

// MissingInputError names a line whose required reference has no value.
type MissingInputError struct {
	Line      string
	Reference string
}

func (e *MissingInputError) Error() string {
	if e.Reference == "" || e.Reference == e.Line {
		return fmt.Sprintf("missing input: %s is required but was not supplied", e.Line)
	}
	return fmt.Sprintf("missing input: %s requires %s, which is not present", e.Line, e.Reference)
}

func (e *MissingInputError) Unwrap() error {
	return ErrMissingInput
}

// CircularDependencyError lists the lines forming a dependency cycle.
type CircularDependencyError struct {
	Lines []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency among lines: %s", strings.Join(e.Lines, " -> "))
}

func (e *CircularDependencyError) Unwrap() error {
	return ErrCircularDependency
}

// ProvisionError attributes an evaluator failure to the line being resolved.
type ProvisionError struct {
	Err  error
	Node string
	Rule string
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("%s (rule %s): %v", e.Node, e.Rule, e.Err)
}

func (e *ProvisionError) Unwrap() error {
	return e.Err
}

// MissingParameterError reports a parameter set without an entry the computation needs.
type MissingParameterError struct {
	Parameter string
	Status    string
	Year      int
}

func (e *MissingParameterError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("missing parameter: %s for %s in tax year %d", e.Parameter, e.Status, e.Year)
	}
	return fmt.Sprintf("missing parameter: %s in tax year %d", e.Parameter, e.Year)
}

func (e *MissingParameterError) Unwrap() error {
	return ErrMissingParameter
}

// ErrorSet carries every failure found in one pass.
type ErrorSet []error

func (s ErrorSet) Error() string {
	if len(s) == 1 {
		return s[0].Error()
	}
	msgs := make([]string, len(s))
	for i, err := range s {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(s), strings.Join(msgs, "; "))
}

func (s ErrorSet) Unwrap() []error {
	return s
}

// OrNil returns nil for an empty set.
func (s ErrorSet) OrNil() error {
	if len(s) == 0 {
		return nil
	}
	return s
}

// Errors flattens err into its individual failures.
func Errors(err error) []error {
	if err == nil {
		return nil
	}
	var set ErrorSet
	if errors.As(err, &set) {
		return set
	}
	return []error{err}
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
