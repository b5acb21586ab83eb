package stock

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInsufficientStock is returned when the requested item is missing or
	// holds fewer units than requested. Nothing is written in that case.
	ErrInsufficientStock = errors.New("not enough items in stock")

	// ErrItemNotFound is returned by catalog lookups for unknown names.
	ErrItemNotFound = errors.New("item not found")
)

// ValidationError lists the request fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Fields, ", ")
}

// StorageError wraps a failure of the underlying catalog or ledger.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
