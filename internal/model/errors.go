package model

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a product or observation does not exist.
// Readers should treat it as an empty result, not a failure.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed or missing input. The input must be
// fixed before resubmitting; retrying as-is cannot succeed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ReferentialIntegrityError reports an observation naming a product that
// is not in the catalog. Upsert the product first, then retry the write.
type ReferentialIntegrityError struct {
	ProductID string
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("product %q is not in the catalog", e.ProductID)
}

// StorageError wraps a persistence failure. Transient; callers may retry
// with backoff since every write is idempotent per key.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
