package service

import (
	"errors"
	"fmt"
)

// Failure kinds. Every AnalysisError matches exactly one of these with errors.Is.
var (
	ErrOracle      = errors.New("oracle failure")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failure")
	ErrValidation  = errors.New("validation failure")
)

// AnalysisError records which step of an analysis failed and why.
type AnalysisError struct {
	Kind error
	Op   string
	Err  error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *AnalysisError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func fail(kind error, op string, err error) error {
	return &AnalysisError{Kind: kind, Op: op, Err: err}
}

// UserMessage returns the message safe to show a client for err.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrOracle):
		return "Failed to analyze image"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	default:
		return "Internal server error"
	}
}
