package moderation

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest   = errors.New("invalid moderation request")
	ErrDuplicateContent = errors.New("content already has a moderation record")
	ErrRecordNotFound   = errors.New("moderation record not found")
)

// DetectionError signals that a matcher could not evaluate the text.
// It is never treated as "no violation": callers must fail closed.
type DetectionError struct {
	Category string
	Err      error
}

func (e *DetectionError) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("detection failed: %v", e.Err)
	}
	return fmt.Sprintf("detection failed for category %q: %v", e.Category, e.Err)
}

func (e *DetectionError) Unwrap() error {
	return e.Err
}

type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("moderation repository %s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("content storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
