package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateName = errors.New("product name already exists")
	ErrNotFound      = errors.New("product not found")
	ErrInvalidInput  = errors.New("invalid product input")
)

// StorageError reports a persistence backend failure. The cause is opaque to
// the catalog core and is only surfaced to the caller.
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

// NewStorageError wraps err unless it is nil or already a domain sentinel.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDuplicateName) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
