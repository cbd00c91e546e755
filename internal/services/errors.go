package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/stwalsh4118/deedchain/internal/validation"
)

// Service-level errors
var (
	ErrValidationFailed  = errors.New("validation failed")
	ErrNotConnected      = errors.New("no wallet connected")
	ErrPropertyNotFound  = errors.New("property not found")
	ErrUnauthorized      = errors.New("only the current owner can transfer this property")
	ErrSettlementFailed  = errors.New("settlement failed")
	ErrSettlementTimeout = errors.New("settlement timed out")
	ErrPersistenceFailed = errors.New("persistence failed")

	// ErrReconciliationRequired marks a transfer that was recorded while the
	// ownership update failed. It is a persistence failure that needs an operator.
	ErrReconciliationRequired = fmt.Errorf("reconciliation required: %w", ErrPersistenceFailed)
)

// ValidationError carries the per-field messages of a rejected submission.
type ValidationError struct {
	Fields validation.ErrorMap
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(keys, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
