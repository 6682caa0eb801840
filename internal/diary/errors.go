package diary

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("title is required")
	ErrNotFound   = errors.New("record not found")

	// ErrConflict means the stored list changed since this process last read
	// or wrote it.
	ErrConflict = errors.New("stored list changed elsewhere")
)

// StorageError reports a failed read or write of the persisted list.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ParseError reports stored data that could not be decoded.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
